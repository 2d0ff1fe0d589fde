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

package repokit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/repokit/config"
	"github.com/tomoncle/repokit/storage"
	"github.com/tomoncle/repokit/types"
)

type note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Key   string `bun:"key"`
	Title string `bun:"title"`
}

func TestInitAndService(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Connection.Type = "sqlite"
	cfg.Database.Connection.DBName = ":memory:"
	cfg.Storage.Root = t.TempDir()
	cfg.Storage.BaseURL = "https://cdn.example.com/storage"

	db, err := Init(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close()
		SetDisk(nil)
	})
	_, err = db.NewCreateTable().Model((*note)(nil)).Exec(ctx)
	require.NoError(t, err)

	svc := NewService[note]()
	require.NoError(t, svc.Save(ctx, &note{Key: "a", Title: "first"}, &note{Key: "b", Title: "second"}))

	got, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Title)

	missing, err := svc.Get(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, err := svc.Page(ctx, types.NewPageRequest(1, 1).OrderBy("id", types.Desc))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "second", page.Data[0].Title)

	count, err := svc.SelectBuilder().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	path, err := svc.Repository().SaveImage(ctx, storage.File{Filename: "cover.PNG", Content: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "images/"))
	assert.True(t, strings.HasSuffix(path, ".png"))
	_, err = os.Stat(filepath.Join(cfg.Storage.Root, filepath.FromSlash(path)))
	assert.NoError(t, err)
}

func TestInitRejectsNilConfig(t *testing.T) {
	_, err := Init(context.Background(), nil)
	assert.Error(t, err)
}
