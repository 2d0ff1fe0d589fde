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

// Package scaffold generates repository source files, optionally with the
// model, migration and seeder of the entity.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"text/template"

	"github.com/tomoncle/repokit/database"
)

// TemplateData is passed to the repository and model templates.
type TemplateData struct {
	Class       string // e.g. "OrderItemRepository"
	Entity      string // e.g. "OrderItem"
	Table       string // e.g. "order_items"
	Alias       string // e.g. "oi"
	ModulePath  string // module of the generated code
	RepokitPath string
}

func newTemplateData(class, entity, modulePath string) TemplateData {
	return TemplateData{
		Class:       class,
		Entity:      entity,
		Table:       TableName(entity),
		Alias:       tableAlias(entity),
		ModulePath:  modulePath,
		RepokitPath: RepokitImportPath,
	}
}

// Result lists what a run produced. Errors hold collaborator failures that
// did not stop the repository file from being written.
type Result struct {
	RepositoryFile string
	Files          []string
	Errors         []error
	Warnings       []string
}

// Generator implements make:repository.
type Generator struct {
	models  ModelMaker
	seeders SeederMaker
	logger  database.Logger
}

// NewGenerator uses FileModelMaker and SQLSeederMaker when models or seeders is nil.
func NewGenerator(opts Options, models ModelMaker, seeders SeederMaker, logger database.Logger) *Generator {
	if logger == nil {
		logger = database.NewDefaultLogger("SCAFFOLD")
	}
	if models == nil {
		models = NewFileModelMaker(opts, logger)
	}
	if seeders == nil {
		seeders = NewSQLSeederMaker(opts, logger)
	}
	return &Generator{models: models, seeders: seeders, logger: logger}
}

// Generate runs the seeder maker (with Seeder), then the model maker, then
// writes the repository file. Collaborator failures are recorded in the
// result and the repository file is still written; nothing is rolled back.
// The returned error is set only when the repository file was not written.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}
	if err := opts.Validate(); err != nil {
		return result, err
	}

	entity := EntityName(opts.Name)
	data := newTemplateData(opts.Name, entity, opts.ModulePath)
	path := filepath.Join(opts.OutputDir, "internal", "repositories", SnakeCase(entity)+"_repository.go")
	if fileExists(path) && !opts.Force {
		result.Warnings = append(result.Warnings, fmt.Sprintf("File exists: %s (use -force to overwrite)", path))
		return result, fmt.Errorf("repository %s: %w", path, ErrExists)
	}

	stub := RepositoryTemplate
	if opts.Stub != "" {
		b, err := os.ReadFile(opts.Stub)
		if err != nil {
			return result, fmt.Errorf("read stub: %w", err)
		}
		stub = string(b)
	}

	if opts.Seeder {
		seeder, err := g.seeders.MakeSeeder(ctx, entity+"Seeder")
		if err != nil {
			g.collect(result, "seeder", err)
		} else {
			result.Files = append(result.Files, seeder)
		}
	}

	files, err := g.models.MakeModel(ctx, entity, opts.WithMigration())
	result.Files = append(result.Files, files...)
	if err != nil {
		g.collect(result, "model", err)
	}

	if err := writeGoFile(path, stub, data); err != nil {
		return result, fmt.Errorf("repository %s: %w", path, err)
	}
	result.RepositoryFile = path
	result.Files = unique(append(result.Files, path))
	g.logger.Info("Repository created", "path", path, "class", opts.Name, "entity", entity)
	return result, nil
}

func (g *Generator) collect(result *Result, step string, err error) {
	g.logger.Warn("Scaffold step failed", "step", step, "error", err)
	result.Errors = append(result.Errors, fmt.Errorf("%s: %w", step, err))
}

// writeGoFile renders tmplText with data, formats it with go/format and
// writes it to path, creating parent directories.
func writeGoFile(path, tmplText string, data any) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, src, 0o644)
}
