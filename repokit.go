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

// Package repokit wires the configuration, the global database and the
// public disk together and hands out repositories bound to them.
package repokit

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/repokit/config"
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/repository"
	"github.com/tomoncle/repokit/storage"
	"github.com/tomoncle/repokit/types"
)

var (
	diskMu sync.RWMutex
	disk   storage.Disk
)

// Init applies the log settings, connects the global database and installs
// the public disk used by repositories created afterwards.
func Init(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be empty")
	}
	cfg.ApplyLogging()
	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	SetDisk(storage.NewLocalDisk(cfg.Storage.Root, cfg.Storage.BaseURL))
	return db, nil
}

// Close disconnects the global database.
func Close() error { return database.CloseDB() }

func SetDisk(d storage.Disk) {
	diskMu.Lock()
	disk = d
	diskMu.Unlock()
}

func Disk() storage.Disk {
	diskMu.RLock()
	defer diskMu.RUnlock()
	return disk
}

// NewRepository binds a repository to the global database and disk. opts
// are applied after the defaults, so they may replace either.
func NewRepository[T any](opts ...repository.Option) *repository.Base[T] {
	all := make([]repository.Option, 0, len(opts)+1)
	if d := Disk(); d != nil {
		all = append(all, repository.WithStorage(d))
	}
	return repository.New[T](database.GetDB(), append(all, opts...)...)
}

// Service is a thin facade over a repository for handlers that only need
// the common operations.
type Service[T any] interface {
	// Get returns a single entity by its identifier, nil when absent.
	Get(ctx context.Context, id int64) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// Repository exposes the underlying repository.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	opts []repository.Option
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service whose repository is created on first use,
// so it can be declared before Init runs.
func NewService[T any](opts ...repository.Option) Service[T] {
	return &baseServiceImpl[T]{opts: opts}
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] {
	s.once.Do(func() { s.repo = NewRepository[T](s.opts...) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.Repository().FindByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.Repository().FindAll(ctx)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.Repository().Paginate(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.Repository().Insert(ctx, model)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.Repository().NewSelect()
}
