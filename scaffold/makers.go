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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/pressly/goose/v3"

	"github.com/tomoncle/repokit/database"
)

var ErrExists = errors.New("file already exists")

// ModelMaker creates the model of an entity and, when asked, its migration.
type ModelMaker interface {
	MakeModel(ctx context.Context, entity string, withMigration bool) ([]string, error)
}

// SeederMaker creates a seeder named like "OrderSeeder".
type SeederMaker interface {
	MakeSeeder(ctx context.Context, name string) (string, error)
}

// FileModelMaker writes a bun model to internal/models and a goose SQL
// migration to the migration directory.
type FileModelMaker struct {
	OutputDir    string
	ModulePath   string
	Dialect      string
	MigrationDir string
	Force        bool
	Logger       database.Logger
}

var _ ModelMaker = (*FileModelMaker)(nil)

func NewFileModelMaker(opts Options, logger database.Logger) *FileModelMaker {
	return &FileModelMaker{
		OutputDir:    opts.OutputDir,
		ModulePath:   opts.ModulePath,
		Dialect:      opts.dialect(),
		MigrationDir: database.DefaultMigrationDir,
		Force:        opts.Force,
		Logger:       logger,
	}
}

func (m *FileModelMaker) MakeModel(ctx context.Context, entity string, withMigration bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := newTemplateData(entity+"Repository", entity, m.ModulePath)

	path := filepath.Join(m.OutputDir, "internal", "models", SnakeCase(entity)+".go")
	if fileExists(path) && !m.Force {
		return nil, fmt.Errorf("model %s: %w", path, ErrExists)
	}
	if err := writeGoFile(path, ModelTemplate, data); err != nil {
		return nil, fmt.Errorf("model %s: %w", entity, err)
	}
	m.Logger.Info("Model created", "path", path)

	files := []string{path}
	if !withMigration {
		return files, nil
	}
	migration, err := m.makeMigration(data)
	if err != nil {
		return files, fmt.Errorf("migration %s: %w", data.Table, err)
	}
	m.Logger.Info("Migration created", "path", migration)
	return append(files, migration), nil
}

func (m *FileModelMaker) makeMigration(data TemplateData) (string, error) {
	cols, ok := dialectColumns[m.Dialect]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", m.Dialect)
	}
	dir := filepath.Join(m.OutputDir, m.MigrationDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := "create_" + data.Table + "_table"
	pattern := filepath.Join(dir, "*_"+name+".sql")
	before, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(before) > 0 {
		if !m.Force {
			return "", fmt.Errorf("%s: %w", before[0], ErrExists)
		}
		for _, old := range before {
			if err := os.Remove(old); err != nil {
				return "", err
			}
		}
	}

	var body bytes.Buffer
	outer := template.Must(template.New("migration").Delims("[[", "]]").Parse(MigrationTemplate))
	if err := outer.Execute(&body, map[string]string{
		"Class":      data.Class,
		"Table":      data.Table,
		"IDColumn":   cols.IDColumn,
		"TimeColumn": cols.TimeColumn,
	}); err != nil {
		return "", err
	}
	tmpl, err := template.New("goose.sql-migration").Parse(body.String())
	if err != nil {
		return "", err
	}

	goose.SetLogger(gooseLogger{m.Logger})
	if err := goose.CreateWithTemplate(nil, dir, tmpl, name, "sql"); err != nil {
		return "", err
	}

	after, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(after) == 0 {
		return "", fmt.Errorf("migration %s was not written", name)
	}
	sort.Strings(after)
	return after[len(after)-1], nil
}

// gooseLogger sends goose output to a database.Logger.
type gooseLogger struct{ l database.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SQLSeederMaker writes seed files picked up by database.SQLInitManager.
type SQLSeederMaker struct {
	OutputDir string
	SeedPath  string
	Force     bool
	Logger    database.Logger
}

var _ SeederMaker = (*SQLSeederMaker)(nil)

func NewSQLSeederMaker(opts Options, logger database.Logger) *SQLSeederMaker {
	return &SQLSeederMaker{
		OutputDir: opts.OutputDir,
		SeedPath:  database.DefaultSeedPath,
		Force:     opts.Force,
		Logger:    logger,
	}
}

// MakeSeeder numbers the file after the highest numbered seed file in the
// common directory. A forced rewrite keeps the existing file name.
func (m *SQLSeederMaker) MakeSeeder(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	table := TableName(strings.TrimSuffix(name, "Seeder"))
	dir := filepath.Join(m.OutputDir, m.SeedPath, database.CommonSeedDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	suffix := "_" + table + "_seeder.sql"
	next := 1
	var path string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), suffix) {
			path = filepath.Join(dir, e.Name())
		}
		if order := database.ParseFileOrder(e.Name()); order != database.UnorderedFileOrder && order >= next {
			next = order + 1
		}
	}
	if path != "" && !m.Force {
		return "", fmt.Errorf("seeder %s: %w", path, ErrExists)
	}
	if path == "" {
		path = filepath.Join(dir, fmt.Sprintf("%03d%s", next, suffix))
	}

	tmpl := template.Must(template.New("seeder").Parse(SeederTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"Seeder": name, "Table": table}); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	m.Logger.Info("Seeder created", "path", path)
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// unique keeps the first occurrence of every path.
func unique(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
