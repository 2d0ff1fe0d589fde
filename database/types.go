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
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager owns one database connection and the schema
// and seed tasks that run against it.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RunMigrations(ctx context.Context) error
	InitData(ctx context.Context) error
	SetLogger(logger Logger)
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type            string        `json:"type" yaml:"type" koanf:"type" validate:"required,oneof=postgres postgresql mysql sqlite sqlite3"`
	Driver          string        `json:"driver" yaml:"driver" koanf:"driver" validate:"omitempty,oneof=pq pgx"` // postgres only: pq (default) or pgx
	Host            string        `json:"host" yaml:"host" koanf:"host"`
	Port            int           `json:"port" yaml:"port" koanf:"port" validate:"gte=0,lte=65535"`
	Username        string        `json:"username" yaml:"username" koanf:"username"`
	Password        string        `json:"password" yaml:"password" koanf:"password"`
	DBName          string        `json:"dbname" yaml:"dbname" koanf:"dbname" validate:"required"`
	SSLMode         string        `json:"sslmode" yaml:"sslmode" koanf:"sslmode"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" koanf:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time" koanf:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout" koanf:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" koanf:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" koanf:"write_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log" yaml:"enable_query_log" koanf:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time" yaml:"slow_query_time" koanf:"slow_query_time"`
	Charset         string        `json:"charset" yaml:"charset" koanf:"charset"` // MySQL:utf8mb4
}

// MigrateConfig controls goose file migrations and registered model tables.
type MigrateConfig struct {
	EnableMigrateOnStartup bool   `json:"enable_migrate_on_startup" yaml:"enable_migrate_on_startup" koanf:"enable_migrate_on_startup"`
	EnsureModels           bool   `json:"ensure_models" yaml:"ensure_models" koanf:"ensure_models"`
	Dir                    string `json:"dir" yaml:"dir" koanf:"dir"`
	Table                  string `json:"table" yaml:"table" koanf:"table"`
}

// SeedConfig controls SQL seed files.
type SeedConfig struct {
	AutoInitOnMigration bool   `json:"auto_init_on_migration" yaml:"auto_init_on_migration" koanf:"auto_init_on_migration"`
	Filepath            string `json:"filepath" yaml:"filepath" koanf:"filepath"`
	Environment         string `json:"environment" yaml:"environment" koanf:"environment"`
}

// Config aggregates connection, migration and seed settings.
type Config struct {
	Connection ConnectionConfig `json:"connection" yaml:"connection" koanf:"connection" validate:"required"`
	Migrate    MigrateConfig    `json:"migrate" yaml:"migrate" koanf:"migrate"`
	Seed       SeedConfig       `json:"seed" yaml:"seed" koanf:"seed"`
}

const (
	DefaultMigrationDir   = "migrations"
	DefaultMigrationTable = "goose_db_version"
	DefaultSeedPath       = "configs/sql"
	DefaultSeedEnv        = "prod"
)

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns a Config with default pool, migration and seed settings.
func DefaultConfig() *Config {
	return &Config{
		Connection: *DefaultConnectionConfig(),
		Migrate: MigrateConfig{
			EnsureModels: true,
			Dir:          DefaultMigrationDir,
			Table:        DefaultMigrationTable,
		},
		Seed: SeedConfig{
			Filepath:    DefaultSeedPath,
			Environment: DefaultSeedEnv,
		},
	}
}
