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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/repokit/storage"
	"github.com/tomoncle/repokit/types"
)

// Reader defines the lookups shared by all repositories.
type Reader[T any] interface {
	FindByID(ctx context.Context, id int64) (*T, error)

	FindByKey(ctx context.Context, key string) ([]*T, error)

	FindAll(ctx context.Context) ([]*T, error)

	FindByFilters(ctx context.Context, criteria any) ([]*T, error)

	Export(ctx context.Context, ids []int64, columnNames []string, columns map[string]string) ([]types.JsonObject, error)
}

// Writer defines the write operations. The base leaves Save, Update and
// Delete to concrete repositories.
type Writer[T any] interface {
	Insert(ctx context.Context, rows []*T) error
	Save(ctx context.Context, row *T) error
	Update(ctx context.Context, id int64, row *T) error
	Delete(ctx context.Context, id int64) error
	Truncate(ctx context.Context) error
}

// PageQueryRepository defines pagination and the query filter helpers.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error)
	WhereBetween(q *bun.SelectQuery, rng *types.Range, field string) *bun.SelectQuery
	WhereBetweenDate(q *bun.SelectQuery, rng *types.DateRange, field string) *bun.SelectQuery
	WhereText(q *bun.SelectQuery, needle string, field string) *bun.SelectQuery
}

// Handler runs callbacks against loaded or new records.
type Handler[T any] interface {
	RecordHandler(ctx context.Context, id int64, fn func(context.Context, *T) error) error
	SaveHandler(ctx context.Context, fn func(context.Context, *T) error) error
}

// ImageStore manages image files on the configured disk.
type ImageStore interface {
	SaveImage(ctx context.Context, f storage.File) (string, error)
	UpdateImage(ctx context.Context, oldPath string, f storage.File) (string, error)
	DeleteImage(ctx context.Context, path string) error
}

// Repository combines every operation and exposes the bun query builder for
// repository specific queries.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
	PageQueryRepository[T]
	Handler[T]
	ImageStore
	Table() string
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}
