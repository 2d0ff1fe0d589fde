/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package storage provides the blob storage used by the repository image helpers.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile   = errors.New("storage: empty file")
	ErrInvalidPath = errors.New("storage: invalid path")
)

// File is an upload waiting to be stored.
type File struct {
	Filename string
	Content  io.Reader
}

// Disk stores blobs under relative paths.
type Disk interface {
	// Put stores f under dir with a generated name and returns the relative path.
	Put(ctx context.Context, dir string, f File) (string, error)
	// Delete removes the blob at the relative path.
	Delete(ctx context.Context, p string) error
	// URL is the public address of a relative path.
	URL(p string) string
}

// LocalDisk keeps blobs below Root and serves them under BaseURL.
type LocalDisk struct {
	Root    string
	BaseURL string
}

func NewLocalDisk(root, baseURL string) *LocalDisk {
	return &LocalDisk{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

var _ Disk = (*LocalDisk)(nil)

func (d *LocalDisk) Put(ctx context.Context, dir string, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Content == nil {
		return "", ErrEmptyFile
	}
	rel := path.Join(dir, uuid.NewString()+strings.ToLower(path.Ext(f.Filename)))
	full, err := d.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	out, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := io.Copy(out, f.Content); err != nil {
		_ = out.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	return rel, nil
}

// Delete fails with fs.ErrNotExist when nothing is stored at p.
func (d *LocalDisk) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", p, fs.ErrNotExist)
		}
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}

func (d *LocalDisk) URL(p string) string {
	return d.BaseURL + "/" + strings.TrimLeft(p, "/")
}

// resolve rejects paths escaping Root.
func (d *LocalDisk) resolve(p string) (string, error) {
	clean := path.Clean("/" + strings.TrimLeft(p, "/"))
	if clean == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return filepath.Join(d.Root, filepath.FromSlash(clean)), nil
}

// RelativePath strips the public URL prefix of disk from p, if present.
func RelativePath(disk Disk, p string) string {
	prefix := strings.TrimSuffix(disk.URL(""), "/")
	if prefix != "" && strings.HasPrefix(p, prefix) {
		p = strings.TrimPrefix(p, prefix)
	}
	return strings.TrimLeft(p, "/")
}
