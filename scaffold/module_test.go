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

package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectModulePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/shop\n\ngo 1.24\n"), 0o644))
	nested := filepath.Join(root, "internal", "repositories")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := DetectModulePath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", path)

	path, err = DetectModulePath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", path)
}

func TestDetectModulePathMissingDirective(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("go 1.24\n"), 0o644))

	_, err := DetectModulePath(root)
	assert.Error(t, err)
}
