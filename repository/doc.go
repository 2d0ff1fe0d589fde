// Package repository provides a generic Bun-backed repository base with
// lookup, pagination, filter helpers, export, callback isolation, image
// storage helpers and typed errors.
package repository
