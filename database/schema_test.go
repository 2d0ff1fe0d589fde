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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInspector(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := db.ExecContext(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, Name TEXT)")
	require.NoError(t, err)

	s := NewSchemaInspector(db)

	cols, err := s.Columns(ctx, "widgets")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Name"}, cols)

	ok, err := s.HasColumn(ctx, "widgets", "name")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasColumn(ctx, "WIDGETS", "ID")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasColumn(ctx, "widgets", "price")
	require.NoError(t, err)
	assert.False(t, ok)

	// cached until invalidated
	_, err = db.ExecContext(ctx, "ALTER TABLE widgets ADD COLUMN price INTEGER")
	require.NoError(t, err)
	ok, _ = s.HasColumn(ctx, "widgets", "price")
	assert.False(t, ok)

	s.Invalidate("Widgets")
	ok, err = s.HasColumn(ctx, "widgets", "price")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSchemaInspectorMissingTableIsNotCached(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewSchemaInspector(db)

	ok, err := s.HasColumn(ctx, "later", "id")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.ExecContext(ctx, "CREATE TABLE later (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	ok, err = s.HasColumn(ctx, "later", "id")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSchemaInspectorWithoutCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := db.ExecContext(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	s := NewSchemaInspectorWithTTL(db, -1)
	ok, _ := s.HasColumn(ctx, "notes", "title")
	assert.False(t, ok)

	_, err = db.ExecContext(ctx, "ALTER TABLE notes ADD COLUMN title TEXT")
	require.NoError(t, err)
	ok, err = s.HasColumn(ctx, "notes", "title")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSchemaInspectorClosedDB(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Close())

	_, err := NewSchemaInspector(db).HasColumn(context.Background(), "widgets", "id")
	assert.Error(t, err)
}
