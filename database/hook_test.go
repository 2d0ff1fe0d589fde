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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type warnCounter struct {
	nopLogger
	warns []string
}

func (w *warnCounter) Warn(msg string, _ ...interface{}) { w.warns = append(w.warns, msg) }

func TestQueryHook(t *testing.T) {
	ctx := context.Background()

	t.Run("verbose prints every query", func(t *testing.T) {
		db := newTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf))

		_, err := db.ExecContext(ctx, "SELECT 1")
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "[BUN]")
		assert.Contains(t, buf.String(), "SELECT 1")
	})

	t.Run("quiet prints failures only", func(t *testing.T) {
		db := newTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf, WithQueryHookVerbose(false)))

		_, err := db.ExecContext(ctx, "SELECT 1")
		require.NoError(t, err)
		assert.Empty(t, buf.String())

		_, err = db.ExecContext(ctx, "SELECT * FROM missing")
		require.Error(t, err)
		assert.Contains(t, buf.String(), "no such table")
	})

	t.Run("env switch", func(t *testing.T) {
		t.Setenv("REPOKIT_QUERY_LOG", "0")
		db := newTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf, WithQueryHookEnv("REPOKIT_QUERY_LOG")))

		_, err := db.ExecContext(ctx, "SELECT * FROM missing")
		require.Error(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("silent mode", func(t *testing.T) {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
		db := newTestDB(t)
		var buf bytes.Buffer
		db.AddQueryHook(NewQueryHook(&buf))

		_, err := db.ExecContext(ctx, "SELECT 1")
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestSlowQueryHook(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := &warnCounter{}
	db.AddQueryHook(NewSlowQueryHook(0, logger))

	_, err := db.ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	_, _ = db.ExecContext(ctx, "SELECT * FROM missing")

	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "slow query")
}

func TestToFields(t *testing.T) {
	assert.Nil(t, toFields(nil))
	f := toFields([]interface{}{"table", "users", "rows", 3, "dangling"})
	assert.Equal(t, "users", f["table"])
	assert.Equal(t, 3, f["rows"])
	assert.Equal(t, "(missing)", f["dangling"])
}
