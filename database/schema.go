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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const DefaultSchemaCacheTTL = 5 * time.Minute

// SchemaInspector answers column existence questions about live tables.
type SchemaInspector interface {
	HasColumn(ctx context.Context, table, column string) (bool, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

type cachedColumns struct {
	names    []string
	set      map[string]struct{}
	loadedAt time.Time
}

// BunSchemaInspector reads column names from information_schema (postgres,
// mysql) or pragma_table_info (sqlite) and caches them per table.
type BunSchemaInspector struct {
	db    bun.IDB
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]*cachedColumns
}

// NewSchemaInspector returns an inspector with DefaultSchemaCacheTTL.
// A negative ttl disables caching.
func NewSchemaInspector(db bun.IDB) *BunSchemaInspector {
	return NewSchemaInspectorWithTTL(db, DefaultSchemaCacheTTL)
}

func NewSchemaInspectorWithTTL(db bun.IDB, ttl time.Duration) *BunSchemaInspector {
	return &BunSchemaInspector{db: db, ttl: ttl, cache: make(map[string]*cachedColumns)}
}

// HasColumn matches column names case-insensitively. A missing table has no columns.
func (s *BunSchemaInspector) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := s.load(ctx, table)
	if err != nil {
		return false, err
	}
	_, ok := cols.set[strings.ToLower(column)]
	return ok, nil
}

func (s *BunSchemaInspector) Columns(ctx context.Context, table string) ([]string, error) {
	cols, err := s.load(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cols.names))
	copy(out, cols.names)
	return out, nil
}

// Invalidate drops the cached columns of the given tables, or of all tables when none are given.
func (s *BunSchemaInspector) Invalidate(tables ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tables) == 0 {
		s.cache = make(map[string]*cachedColumns)
		return
	}
	for _, t := range tables {
		delete(s.cache, strings.ToLower(t))
	}
}

func (s *BunSchemaInspector) load(ctx context.Context, table string) (*cachedColumns, error) {
	key := strings.ToLower(table)
	if s.ttl >= 0 {
		s.mu.RLock()
		c, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && (s.ttl == 0 || time.Since(c.loadedAt) < s.ttl) {
			return c, nil
		}
	}

	names, err := listColumnNames(ctx, s.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %q: %w", table, err)
	}
	c := &cachedColumns{names: names, set: make(map[string]struct{}, len(names)), loadedAt: time.Now()}
	for _, n := range names {
		c.set[strings.ToLower(n)] = struct{}{}
	}
	// tables that do not exist yet are not cached
	if s.ttl >= 0 && len(names) > 0 {
		s.mu.Lock()
		s.cache[key] = c
		s.mu.Unlock()
	}
	return c, nil
}

func listColumnNames(ctx context.Context, db bun.IDB, table string) ([]string, error) {
	var query string
	switch db.Dialect().Name() {
	case dialect.PG:
		query = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position`
	case dialect.MySQL:
		query = `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
	default:
		query = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	}

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
