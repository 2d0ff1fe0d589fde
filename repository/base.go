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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/storage"
	"github.com/tomoncle/repokit/types"
)

const (
	DefaultPrimaryKey = "id"
	DefaultKeyColumn  = "key"
	// ImageDir is the storage directory used by the image helpers.
	ImageDir = "images"
)

// DefaultExportColumns is the export allow-list used when none is given.
var DefaultExportColumns = []string{"id"}

type options struct {
	logger     database.Logger
	disk       storage.Disk
	schema     database.SchemaInspector
	primaryKey string
	keyColumn  string
	meter      metric.Meter
	tracer     trace.Tracer
}

// Option configures a Base.
type Option func(*options)

func WithLogger(l database.Logger) Option { return func(o *options) { o.logger = l } }

// WithStorage sets the disk used by SaveImage, UpdateImage and DeleteImage.
func WithStorage(d storage.Disk) Option { return func(o *options) { o.disk = d } }

func WithSchema(s database.SchemaInspector) Option { return func(o *options) { o.schema = s } }

func WithPrimaryKey(column string) Option { return func(o *options) { o.primaryKey = column } }

// WithKeyColumn sets the string column looked up by FindByKey.
func WithKeyColumn(column string) Option { return func(o *options) { o.keyColumn = column } }

func WithMeter(m metric.Meter) Option { return func(o *options) { o.meter = m } }

func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

// Base implements the common repository operations for the bun model T.
// Concrete repositories embed *Base[T] and add or shadow methods.
type Base[T any] struct {
	db         *bun.DB
	table      string
	primaryKey string
	keyColumn  string
	logger     database.Logger
	disk       storage.Disk
	schema     database.SchemaInspector
	metrics    instruments
	tracer     trace.Tracer
}

var _ Repository[struct{}] = (*Base[struct{}])(nil)

// New binds a repository for T to db. T must be a bun model struct.
func New[T any](db *bun.DB, opts ...Option) *Base[T] {
	o := &options{primaryKey: DefaultPrimaryKey, keyColumn: DefaultKeyColumn}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = database.NewDefaultLogger("REPOSITORY")
	}
	if o.schema == nil {
		o.schema = database.NewSchemaInspector(db)
	}
	if o.meter == nil {
		o.meter = defaultMeter()
	}
	if o.tracer == nil {
		o.tracer = defaultTracer()
	}

	r := &Base[T]{
		db:         db,
		table:      db.Table(reflect.TypeFor[T]()).Name,
		primaryKey: o.primaryKey,
		keyColumn:  o.keyColumn,
		logger:     o.logger,
		disk:       o.disk,
		schema:     o.schema,
		tracer:     o.tracer,
	}
	m, err := newInstruments(o.meter)
	if err != nil {
		r.logger.Warn("metrics disabled", "table", r.table, "error", err)
	}
	r.metrics = m
	return r
}

func (r *Base[T]) DB() *bun.DB { return r.db }

func (r *Base[T]) Dialect() schema.Dialect { return r.db.Dialect() }

// Table is the table name of T.
func (r *Base[T]) Table() string { return r.table }

// NewSelect starts a select over T's table.
func (r *Base[T]) NewSelect() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

// FindByID returns nil and no error when no row matches.
func (r *Base[T]) FindByID(ctx context.Context, id int64) (row *T, err error) {
	ctx, done := r.observe(ctx, "find_by_id")
	defer func() { done(err) }()
	return r.findByID(ctx, id)
}

func (r *Base[T]) findByID(ctx context.Context, id int64) (*T, error) {
	row := new(T)
	err := r.db.NewSelect().
		Model(row).
		Where("?TableAlias.? = ?", bun.Ident(r.primaryKey), id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrap("find_by_id", ErrStore, err)
	}
	return row, nil
}

// FindByKey returns the first row whose key column equals key, as a slice of zero or one rows.
func (r *Base[T]) FindByKey(ctx context.Context, key string) (rows []*T, err error) {
	ctx, done := r.observe(ctx, "find_by_key")
	defer func() { done(err) }()

	rows = make([]*T, 0, 1)
	err = r.db.NewSelect().
		Model(&rows).
		Where("?TableAlias.? = ?", bun.Ident(r.keyColumn), key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.wrap("find_by_key", ErrStore, err)
	}
	return rows, nil
}

func (r *Base[T]) FindAll(ctx context.Context) (rows []*T, err error) {
	ctx, done := r.observe(ctx, "find_all")
	defer func() { done(err) }()

	rows = make([]*T, 0)
	if err = r.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, r.wrap("find_all", ErrStore, err)
	}
	return rows, nil
}

// FindByFilters ignores criteria and returns every row. Repositories that
// support filtering shadow it.
func (r *Base[T]) FindByFilters(ctx context.Context, criteria any) ([]*T, error) {
	return r.FindAll(ctx)
}

// Paginate loads one page. The requested page is clamped by ClampPage once the
// total is known, and an unknown order column fails with a *ColumnError.
func (r *Base[T]) Paginate(ctx context.Context, req *types.PageRequest) (p *types.Pagination[T], err error) {
	ctx, done := r.observe(ctx, "paginate")
	defer func() { done(err) }()

	page, limit, order := req.GetPage(), req.GetLimit(), req.GetOrder()

	rows := make([]*T, 0)
	q := r.db.NewSelect().Model(&rows)
	if cols := req.GetColumns(); len(cols) > 0 {
		q = q.Column(cols...)
	}
	if f := req.GetFilter(); f != nil {
		q = q.Where(f.Schema, f.Args...)
	}
	if fn := req.GetModifier(); fn != nil {
		if modified := fn(q); modified != nil {
			q = modified
		}
	}

	column := req.GetOrderColumn()
	if column != "" {
		ok, err := r.schema.HasColumn(ctx, r.table, column)
		if err != nil {
			return nil, r.wrap("paginate", ErrStore, err)
		}
		if !ok {
			return nil, r.wrap("paginate", ErrValidation, &ColumnError{Column: column, Table: r.table})
		}
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, r.wrap("paginate", ErrStore, err)
	}

	page = types.ClampPage(page, limit, total)
	if skip := types.Skip(page, limit); skip > 0 {
		q = q.Offset(skip)
	}
	if column != "" {
		q = q.OrderExpr("?TableAlias.? ?", bun.Ident(column), bun.Safe(order.String()))
	}
	q = q.Limit(limit)

	p = types.NewDefaultPagination[T](page, limit, order)
	p.Total = total
	p.ColumnOrder = column
	if req.IsQueryOnly() {
		p.Data = nil
		p.Query = q
		return p, nil
	}

	if err = q.Scan(ctx); err != nil {
		return nil, r.wrap("paginate", ErrStore, err)
	}
	p.Data = rows
	return p, nil
}

// WhereBetween adds inclusive bounds on field for each non-blank bound of rng.
func (r *Base[T]) WhereBetween(q *bun.SelectQuery, rng *types.Range, field string) *bun.SelectQuery {
	if rng == nil {
		return q
	}
	if !types.IsBlank(rng.Min) {
		q = q.Where("?TableAlias.? >= ?", bun.Ident(field), rng.Min)
	}
	if !types.IsBlank(rng.Max) {
		q = q.Where("?TableAlias.? <= ?", bun.Ident(field), rng.Max)
	}
	return q
}

// WhereBetweenDate is WhereBetween comparing calendar days.
func (r *Base[T]) WhereBetweenDate(q *bun.SelectQuery, rng *types.DateRange, field string) *bun.SelectQuery {
	if rng == nil {
		return q
	}
	expr := r.dateExpr()
	if !types.IsBlank(rng.From) {
		q = q.Where(expr+" >= ?", bun.Ident(field), types.DateValue(rng.From))
	}
	if !types.IsBlank(rng.To) {
		q = q.Where(expr+" <= ?", bun.Ident(field), types.DateValue(rng.To))
	}
	return q
}

func (r *Base[T]) dateExpr() string {
	switch r.db.Dialect().Name() {
	case dialect.PG:
		return "CAST(?TableAlias.? AS DATE)"
	case dialect.MySQL:
		return "DATE(?TableAlias.?)"
	default:
		return "date(?TableAlias.?)"
	}
}

// WhereText matches field case-insensitively against %needle%. Wildcards in
// needle are not escaped.
func (r *Base[T]) WhereText(q *bun.SelectQuery, needle string, field string) *bun.SelectQuery {
	if needle == "" {
		return q
	}
	pattern := "%" + needle + "%"
	if r.db.Dialect().Name() == dialect.PG {
		return q.Where("?TableAlias.? ILIKE ?", bun.Ident(field), pattern)
	}
	return q.Where("LOWER(?TableAlias.?) LIKE LOWER(?)", bun.Ident(field), pattern)
}

// Export returns rows as maps. columns maps output aliases to SQL expressions
// and is restricted to the aliases in columnNames; nil columnNames means
// DefaultExportColumns and an empty slice keeps every alias. When no column
// survives, all columns of T are selected. ids restrict rows when given.
func (r *Base[T]) Export(ctx context.Context, ids []int64, columnNames []string, columns map[string]string) (out []types.JsonObject, err error) {
	ctx, done := r.observe(ctx, "export")
	defer func() { done(err) }()

	if columnNames == nil {
		columnNames = DefaultExportColumns
	}
	aliases := make([]string, 0, len(columns))
	for alias := range columns {
		if len(columnNames) == 0 || slices.Contains(columnNames, alias) {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)

	q := r.NewSelect()
	for _, alias := range aliases {
		q = q.ColumnExpr("? AS ?", bun.Safe(columns[alias]), bun.Ident(alias))
	}
	if len(ids) > 0 {
		q = q.Where("?TableAlias.? IN (?)", bun.Ident(r.primaryKey), bun.In(ids))
	}
	q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(r.primaryKey))

	var rows []map[string]interface{}
	if err = q.Scan(ctx, &rows); err != nil {
		return nil, r.wrap("export", ErrStore, err)
	}
	out = make([]types.JsonObject, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

// RecordHandler loads the row with id and passes it to fn. A missing row is
// reported as ErrNotFound without calling fn; errors and panics from fn are
// reported as ErrCallback.
func (r *Base[T]) RecordHandler(ctx context.Context, id int64, fn func(context.Context, *T) error) (err error) {
	ctx, done := r.observe(ctx, "record_handler")
	defer func() { done(err) }()

	if fn == nil {
		return r.wrap("record_handler", ErrValidation, errors.New("nil callback"))
	}
	row, err := r.findByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return r.wrap("record_handler", ErrNotFound, fmt.Errorf("%s = %d", r.primaryKey, id))
	}
	if err = invoke(ctx, row, fn); err != nil {
		return r.wrap("record_handler", ErrCallback, err)
	}
	return nil
}

// SaveHandler passes a fresh zero T to fn with the same isolation as RecordHandler.
func (r *Base[T]) SaveHandler(ctx context.Context, fn func(context.Context, *T) error) (err error) {
	ctx, done := r.observe(ctx, "save_handler")
	defer func() { done(err) }()

	if fn == nil {
		return r.wrap("save_handler", ErrValidation, errors.New("nil callback"))
	}
	if err = invoke(ctx, new(T), fn); err != nil {
		return r.wrap("save_handler", ErrCallback, err)
	}
	return nil
}

func invoke[T any](ctx context.Context, row *T, fn func(context.Context, *T) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx, row)
}

// SaveImage stores f under ImageDir and returns its relative path.
func (r *Base[T]) SaveImage(ctx context.Context, f storage.File) (path string, err error) {
	ctx, done := r.observe(ctx, "save_image")
	defer func() { done(err) }()
	return r.putImage(ctx, "save_image", f)
}

// UpdateImage deletes oldPath, then stores f. A failed delete is logged by
// DeleteImage and does not prevent the put.
func (r *Base[T]) UpdateImage(ctx context.Context, oldPath string, f storage.File) (path string, err error) {
	_ = r.DeleteImage(ctx, oldPath)

	ctx, done := r.observe(ctx, "update_image")
	defer func() { done(err) }()
	return r.putImage(ctx, "update_image", f)
}

// DeleteImage accepts a relative path or a public URL of the disk. An empty
// path is a no-op.
func (r *Base[T]) DeleteImage(ctx context.Context, path string) (err error) {
	ctx, done := r.observe(ctx, "delete_image")
	defer func() { done(err) }()

	if r.disk == nil {
		return r.wrap("delete_image", ErrStorage, errNoDisk)
	}
	if path == "" {
		return nil
	}
	if err = r.disk.Delete(ctx, storage.RelativePath(r.disk, path)); err != nil {
		return r.wrap("delete_image", ErrStorage, err)
	}
	return nil
}

var errNoDisk = errors.New("no storage disk configured")

func (r *Base[T]) putImage(ctx context.Context, op string, f storage.File) (string, error) {
	if r.disk == nil {
		return "", r.wrap(op, ErrStorage, errNoDisk)
	}
	path, err := r.disk.Put(ctx, ImageDir, f)
	if err != nil {
		return "", r.wrap(op, ErrStorage, err)
	}
	return path, nil
}

// Insert bulk inserts rows. No rows is a no-op.
func (r *Base[T]) Insert(ctx context.Context, rows []*T) (err error) {
	if len(rows) == 0 {
		return nil
	}
	ctx, done := r.observe(ctx, "insert")
	defer func() { done(err) }()

	if _, err = r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return r.wrap("insert", ErrStore, err)
	}
	return nil
}

// Save is left to concrete repositories.
func (r *Base[T]) Save(ctx context.Context, row *T) (err error) {
	_, done := r.observe(ctx, "save")
	defer func() { done(err) }()
	return r.wrap("save", ErrNotImplemented, nil)
}

// Update is left to concrete repositories.
func (r *Base[T]) Update(ctx context.Context, id int64, row *T) (err error) {
	_, done := r.observe(ctx, "update")
	defer func() { done(err) }()
	return r.wrap("update", ErrNotImplemented, nil)
}

// Delete is left to concrete repositories.
func (r *Base[T]) Delete(ctx context.Context, id int64) (err error) {
	_, done := r.observe(ctx, "delete")
	defer func() { done(err) }()
	return r.wrap("delete", ErrNotImplemented, nil)
}

// Truncate removes every row. SQLite has no TRUNCATE and gets DELETE FROM.
func (r *Base[T]) Truncate(ctx context.Context) (err error) {
	ctx, done := r.observe(ctx, "truncate")
	defer func() { done(err) }()

	if _, err = r.db.NewTruncateTable().Model((*T)(nil)).Exec(ctx); err != nil {
		return r.wrap("truncate", ErrStore, err)
	}
	return nil
}
