// Package database provides connection management, goose migrations, SQL
// seed files, schema inspection, query hooks, configuration types, logging
// and SQL error classification built on top of Bun.
package database
