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
	"context"
	"database/sql"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/repokit/database"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type recorder struct {
	calls     []string
	modelErr  error
	seederErr error
}

type fakeModels struct{ r *recorder }

func (f fakeModels) MakeModel(_ context.Context, entity string, withMigration bool) ([]string, error) {
	call := "model:" + entity
	if withMigration {
		call += ":migration"
	}
	f.r.calls = append(f.r.calls, call)
	if f.r.modelErr != nil {
		return nil, f.r.modelErr
	}
	return []string{"models/" + entity + ".go"}, nil
}

type fakeSeeders struct{ r *recorder }

func (f fakeSeeders) MakeSeeder(_ context.Context, name string) (string, error) {
	f.r.calls = append(f.r.calls, "seeder:"+name)
	if f.r.seederErr != nil {
		return "", f.r.seederErr
	}
	return "seeders/" + name + ".sql", nil
}

func testOptions(t *testing.T) Options {
	return Options{
		Name:       "OrderItemRepository",
		OutputDir:  t.TempDir(),
		ModulePath: "example.com/shop",
		Dialect:    DialectSQLite,
	}
}

func newFakeGenerator(opts Options, r *recorder) *Generator {
	return NewGenerator(opts, fakeModels{r}, fakeSeeders{r}, nopLogger{})
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "Order", EntityName("OrderRepository"))
	assert.Equal(t, "Order", EntityName("Order"))
	assert.Equal(t, "", EntityName("Repository"))

	for in, want := range map[string]string{
		"Order":         "order",
		"OrderItem":     "order_item",
		"HTTPServerLog": "http_server_log",
		"Tag2Post":      "tag2_post",
		"userID":        "user_id",
	} {
		assert.Equal(t, want, SnakeCase(in), in)
	}

	assert.Equal(t, "order_items", TableName("OrderItem"))
	assert.Equal(t, "people", TableName("Person"))
	assert.Equal(t, "categories", TableName("Category"))
	assert.Equal(t, "oi", tableAlias("OrderItem"))
}

func TestOptionsValidate(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, opts.Validate())

	for name, mutate := range map[string]func(*Options){
		"missing name":     func(o *Options) { o.Name = "" },
		"not exported":     func(o *Options) { o.Name = "orderRepository" },
		"not identifier":   func(o *Options) { o.Name = "Order-Repository" },
		"only suffix":      func(o *Options) { o.Name = "Repository" },
		"missing module":   func(o *Options) { o.ModulePath = "" },
		"missing dir":      func(o *Options) { o.OutputDir = "" },
		"unknown dialect": func(o *Options) { o.Dialect = "oracle" },
	} {
		t.Run(name, func(t *testing.T) {
			o := testOptions(t)
			mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
		})
	}

	assert.False(t, opts.WithMigration())
	opts.Seeder = true
	assert.True(t, opts.WithMigration())
}

func TestGenerateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("plain", func(t *testing.T) {
		r := &recorder{}
		opts := testOptions(t)
		res, err := newFakeGenerator(opts, r).Generate(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"model:OrderItem"}, r.calls)
		assert.Equal(t, filepath.Join(opts.OutputDir, "internal", "repositories", "order_item_repository.go"), res.RepositoryFile)
		assert.Empty(t, res.Errors)
	})

	t.Run("migration", func(t *testing.T) {
		r := &recorder{}
		opts := testOptions(t)
		opts.Migration = true
		_, err := newFakeGenerator(opts, r).Generate(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"model:OrderItem:migration"}, r.calls)
	})

	t.Run("migration and seed", func(t *testing.T) {
		r := &recorder{}
		opts := testOptions(t)
		opts.Seeder = true
		res, err := newFakeGenerator(opts, r).Generate(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"seeder:OrderItemSeeder", "model:OrderItem:migration"}, r.calls)
		assert.Equal(t, []string{"seeders/OrderItemSeeder.sql", "models/OrderItem.go", res.RepositoryFile}, res.Files)
	})
}

func TestGenerateKeepsGoingAfterCollaboratorFailures(t *testing.T) {
	r := &recorder{modelErr: errors.New("model boom"), seederErr: errors.New("seeder boom")}
	opts := testOptions(t)
	opts.Seeder = true

	res, err := newFakeGenerator(opts, r).Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Errors, 2)
	assert.FileExists(t, res.RepositoryFile)
}

func TestGenerateRepositoryFile(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	opts := testOptions(t)

	res, err := newFakeGenerator(opts, r).Generate(ctx, opts)
	require.NoError(t, err)

	src, err := os.ReadFile(res.RepositoryFile)
	require.NoError(t, err)
	body := string(src)
	assert.Contains(t, body, "package repositories")
	assert.Contains(t, body, "type OrderItemRepository struct")
	assert.Contains(t, body, "*repository.Base[models.OrderItem]")
	assert.Contains(t, body, `"example.com/shop/internal/models"`)
	assert.Contains(t, body, `"github.com/tomoncle/repokit/repository"`)
	_, err = parser.ParseFile(token.NewFileSet(), res.RepositoryFile, src, parser.AllErrors)
	assert.NoError(t, err)

	_, err = newFakeGenerator(opts, r).Generate(ctx, opts)
	assert.ErrorIs(t, err, ErrExists)

	opts.Force = true
	_, err = newFakeGenerator(opts, r).Generate(ctx, opts)
	assert.NoError(t, err)
}

func TestGenerateCustomStub(t *testing.T) {
	opts := testOptions(t)
	opts.Stub = filepath.Join(t.TempDir(), "repository.stub")
	require.NoError(t, os.WriteFile(opts.Stub, []byte("package repositories\n\n// {{.Class}} handles {{.Entity}}.\ntype {{.Class}} struct{}\n"), 0o644))

	res, err := newFakeGenerator(opts, &recorder{}).Generate(context.Background(), opts)
	require.NoError(t, err)
	src, err := os.ReadFile(res.RepositoryFile)
	require.NoError(t, err)
	assert.Contains(t, string(src), "// OrderItemRepository handles OrderItem.")
}

func TestGenerateInvalidOptions(t *testing.T) {
	r := &recorder{}
	opts := testOptions(t)
	opts.Name = "lowercase"
	_, err := newFakeGenerator(opts, r).Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Empty(t, r.calls)
}

func TestFileModelMaker(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	maker := NewFileModelMaker(opts, nopLogger{})

	files, err := maker.MakeModel(ctx, "OrderItem", true)
	require.NoError(t, err)
	require.Len(t, files, 2)

	model, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "internal", "models", "order_item.go"), files[0])
	assert.Contains(t, string(model), `bun:"table:order_items,alias:oi"`)
	assert.Contains(t, string(model), "database.RegisteredModel(database.NewModelAdapter((*OrderItem)(nil), 100))")

	assert.Equal(t, filepath.Join(opts.OutputDir, "migrations"), filepath.Dir(files[1]))
	assert.True(t, strings.HasSuffix(files[1], "_create_order_items_table.sql"))
	migration, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Contains(t, string(migration), "-- +goose Up")
	assert.Contains(t, string(migration), "CREATE TABLE IF NOT EXISTS order_items")
	assert.Contains(t, string(migration), "INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, string(migration), "CreateOrderItemsTable")

	_, err = maker.MakeModel(ctx, "OrderItem", true)
	assert.ErrorIs(t, err, ErrExists)

	maker.Force = true
	files, err = maker.MakeModel(ctx, "OrderItem", true)
	require.NoError(t, err)
	left, err := filepath.Glob(filepath.Join(opts.OutputDir, "migrations", "*.sql"))
	require.NoError(t, err)
	assert.Equal(t, []string{files[1]}, left)
}

func TestGeneratedMigrationApplies(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	_, err := NewFileModelMaker(opts, nopLogger{}).MakeModel(ctx, "Invoice", true)
	require.NoError(t, err)

	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(opts.OutputDir, "app.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	cfg := database.DefaultConfig()
	cfg.Migrate.Dir = filepath.Join(opts.OutputDir, "migrations")
	mm := database.NewMigrationManager(db, nopLogger{}, cfg)

	results, err := mm.Up(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = db.ExecContext(ctx, "INSERT INTO invoices DEFAULT VALUES")
	require.NoError(t, err)

	_, err = mm.Down(ctx)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "SELECT 1 FROM invoices")
	assert.Error(t, err)
}

func TestSQLSeederMaker(t *testing.T) {
	ctx := context.Background()
	opts := testOptions(t)
	maker := NewSQLSeederMaker(opts, nopLogger{})

	dir := filepath.Join(opts.OutputDir, "configs", "sql", "common")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"001_users.sql", "005_roles.sql", "zz_unordered.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;\n"), 0o644))
	}

	path, err := maker.MakeSeeder(ctx, "OrderItemSeeder")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "006_order_items_seeder.sql"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "OrderItemSeeder")
	assert.Contains(t, string(content), "INSERT INTO order_items")

	_, err = maker.MakeSeeder(ctx, "OrderItemSeeder")
	assert.ErrorIs(t, err, ErrExists)

	maker.Force = true
	again, err := maker.MakeSeeder(ctx, "OrderItemSeeder")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	// the generated seeder holds only comments and runs as a no-op
	runner := database.NewSQLInitManager(nil, "test", nopLogger{})
	runner.SetSQLRootPath(filepath.Join(opts.OutputDir, "configs", "sql"))
	files, err := runner.GetSQLFiles()
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Equal(t, "006_order_items_seeder.sql", files[2].Name)
}
