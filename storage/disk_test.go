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

package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	disk := NewLocalDisk(t.TempDir(), "http://localhost/storage/")

	rel, err := disk.Put(ctx, "images", File{Filename: "Photo.PNG", Content: strings.NewReader("data")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "images/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	b, err := os.ReadFile(filepath.Join(disk.Root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	url := disk.URL(rel)
	assert.Equal(t, "http://localhost/storage/"+rel, url)
	assert.Equal(t, rel, RelativePath(disk, url))
	assert.Equal(t, rel, RelativePath(disk, "/"+rel))

	require.NoError(t, disk.Delete(ctx, RelativePath(disk, url)))
	assert.ErrorIs(t, disk.Delete(ctx, rel), fs.ErrNotExist)
}

func TestLocalDiskNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	disk := NewLocalDisk(t.TempDir(), "")

	a, err := disk.Put(ctx, "images", File{Filename: "a.jpg", Content: strings.NewReader("1")})
	require.NoError(t, err)
	b, err := disk.Put(ctx, "images", File{Filename: "a.jpg", Content: strings.NewReader("2")})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalDiskRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := NewLocalDisk(filepath.Join(root, "public"), "")

	_, err := disk.Put(ctx, "images", File{Filename: "x.png"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	assert.ErrorIs(t, disk.Delete(ctx, ""), ErrInvalidPath)

	// traversal stays inside Root
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("s"), 0o644))
	assert.ErrorIs(t, disk.Delete(ctx, "../secret.txt"), fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(root, "secret.txt"))
	assert.NoError(t, err)
}

func TestLocalDiskCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	disk := NewLocalDisk(t.TempDir(), "")

	_, err := disk.Put(ctx, "images", File{Filename: "a.png", Content: strings.NewReader("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
