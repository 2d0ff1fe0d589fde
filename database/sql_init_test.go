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

package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 1, ParseFileOrder("001_users.sql"))
	assert.Equal(t, 42, ParseFileOrder("42_orders_seeder.sql"))
	assert.Equal(t, UnorderedFileOrder, ParseFileOrder("users.sql"))
	assert.Equal(t, UnorderedFileOrder, ParseFileOrder("v1_users.sql"))
}

func TestSplitSQLStatements(t *testing.T) {
	content := `-- header comment
INSERT INTO tags (name)
VALUES ('go');

-- another
INSERT INTO tags (name) VALUES ('sql');
UPDATE tags SET name = 'x' WHERE name = 'y'`

	assert.Equal(t, []string{
		"INSERT INTO tags (name) VALUES ('go');",
		"INSERT INTO tags (name) VALUES ('sql');",
		"UPDATE tags SET name = 'x' WHERE name = 'y'",
	}, splitSQLStatements(content))

	assert.Empty(t, splitSQLStatements("-- only comments\n\n"))
}

func TestReplaceEnvVariables(t *testing.T) {
	t.Setenv("SEED_ADMIN", "root")
	s := NewSQLInitManager(nil, "staging", nopLogger{})

	out, err := s.replaceEnvVariables("INSERT INTO users (name, env) VALUES ('{{.SEED_ADMIN}}', '{{.ENVIRONMENT}}');")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name, env) VALUES ('root', 'staging');", out)

	plain := "SELECT 1;"
	out, err = s.replaceEnvVariables(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)

	_, err = s.replaceEnvVariables("{{ .Broken ")
	assert.Error(t, err)
}

func TestGetSQLFilesOrder(t *testing.T) {
	root := t.TempDir()
	writeSeed(t, filepath.Join(root, "common", "010_b.sql"), "SELECT 1;")
	writeSeed(t, filepath.Join(root, "common", "002_a.sql"), "SELECT 1;")
	writeSeed(t, filepath.Join(root, "common", "notes.txt"), "ignored")
	writeSeed(t, filepath.Join(root, "common", "zz.sql"), "SELECT 1;")
	writeSeed(t, filepath.Join(root, "environments", "dev", "001_dev.sql"), "SELECT 1;")
	writeSeed(t, filepath.Join(root, "environments", "prod", "001_prod.sql"), "SELECT 1;")

	s := NewSQLInitManager(nil, "dev", nopLogger{})
	s.SetSQLRootPath(root)
	files, err := s.GetSQLFiles()
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"002_a.sql", "010_b.sql", "zz.sql", "001_dev.sql"}, names)
	assert.Equal(t, "dev", files[3].Environment)
}

func TestGetSQLFilesMissingRoot(t *testing.T) {
	s := NewSQLInitManager(nil, "", nopLogger{})
	s.SetSQLRootPath(filepath.Join(t.TempDir(), "missing"))
	files, err := s.GetSQLFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExecuteInitialization(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	root := t.TempDir()
	writeSeed(t, filepath.Join(root, "common", "001_schema.sql"), "CREATE TABLE tags (name TEXT NOT NULL UNIQUE);\n")
	writeSeed(t, filepath.Join(root, "common", "002_data.sql"), "INSERT INTO tags (name) VALUES ('go');\nINSERT INTO tags (name) VALUES ('sql');\n")

	s := NewSQLInitManager(db, "test", nopLogger{})
	s.SetSQLRootPath(root)
	require.NoError(t, s.ExecuteInitialization(ctx))

	count, err := db.NewSelect().Table("tags").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExecuteInitializationRollsBackFailedFile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := db.ExecContext(ctx, "CREATE TABLE tags (name TEXT NOT NULL UNIQUE)")
	require.NoError(t, err)

	root := t.TempDir()
	writeSeed(t, filepath.Join(root, "common", "001_dup.sql"), "INSERT INTO tags (name) VALUES ('go');\nINSERT INTO tags (name) VALUES ('go');\n")
	writeSeed(t, filepath.Join(root, "common", "002_never.sql"), "INSERT INTO tags (name) VALUES ('never');\n")

	s := NewSQLInitManager(db, "test", nopLogger{})
	s.SetSQLRootPath(root)
	err = s.ExecuteInitialization(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_dup.sql")

	count, err := db.NewSelect().Table("tags").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
