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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager creates the tables of registered models, applies goose
// SQL migrations and runs the SQL seed files.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config *Config
	fsys   fs.FS
}

// NewMigrationManager constructs a MigrationManager. A nil config falls back
// to DefaultConfig and migrations are read from config.Migrate.Dir.
func NewMigrationManager(db *bun.DB, logger Logger, config *Config) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	if config == nil {
		config = DefaultConfig()
	}
	dir := config.Migrate.Dir
	if dir == "" {
		dir = DefaultMigrationDir
	}
	return &MigrationManager{db: db, logger: logger, config: config, fsys: os.DirFS(dir)}
}

// WithFS reads migrations from fsys instead of the configured directory.
func (mm *MigrationManager) WithFS(fsys fs.FS) *MigrationManager {
	mm.fsys = fsys
	return mm
}

// RunMigrations ensures model tables, applies pending migrations and seeds
// data when AutoInitOnMigration is set.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	// silent migration
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if mm.config.Migrate.EnsureModels {
		if err := mm.EnsureModels(ctx); err != nil {
			return err
		}
	}
	if _, err := mm.Up(ctx); err != nil {
		return err
	}
	if mm.config.Seed.AutoInitOnMigration {
		if err := mm.InitData(ctx); err != nil {
			return err
		}
	}
	mm.logger.Info("Database migrations completed")
	return nil
}

// EnsureModels creates the table of every registered model if it does not exist yet.
func (mm *MigrationManager) EnsureModels(ctx context.Context) error {
	models := RegisteredModelInstances()
	if len(models) == 0 {
		return nil
	}
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range models {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}
		return nil
	})
}

// Up applies every pending migration. No migration files is not an error.
func (mm *MigrationManager) Up(ctx context.Context) ([]*goose.MigrationResult, error) {
	provider, err := mm.provider()
	if errors.Is(err, goose.ErrNoMigrations) {
		mm.logger.Debug("No migration files found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		mm.logger.Info("Migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	if err != nil {
		return results, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return results, nil
}

// Down rolls back the most recent migration.
func (mm *MigrationManager) Down(ctx context.Context) (*goose.MigrationResult, error) {
	provider, err := mm.provider()
	if err != nil {
		return nil, err
	}

	result, err := provider.Down(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to roll back migration: %w", err)
	}
	mm.logger.Info("Migration rolled back", "version", result.Source.Version, "file", result.Source.Path)
	return result, nil
}

// Status reports every known migration with its state.
func (mm *MigrationManager) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	provider, err := mm.provider()
	if errors.Is(err, goose.ErrNoMigrations) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}

// InitData executes the SQL seed files.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlManager := NewSQLInitManager(mm.db, mm.config.Seed.Environment, mm.logger)
	if mm.config.Seed.Filepath != "" {
		sqlManager.SetSQLRootPath(mm.config.Seed.Filepath)
	}
	if err := sqlManager.ExecuteInitialization(ctx); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

func (mm *MigrationManager) provider() (*goose.Provider, error) {
	d, err := gooseDialect(mm.db)
	if err != nil {
		return nil, err
	}
	table := mm.config.Migrate.Table
	if table == "" {
		table = DefaultMigrationTable
	}
	return goose.NewProvider(d, mm.db.DB, mm.fsys, goose.WithTableName(table))
}

func gooseDialect(db *bun.DB) (goose.Dialect, error) {
	switch db.Dialect().Name() {
	case dialect.PG:
		return goose.DialectPostgres, nil
	case dialect.MySQL:
		return goose.DialectMySQL, nil
	case dialect.SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported dialect for migrations: %s", db.Dialect().Name())
	}
}
