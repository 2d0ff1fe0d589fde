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

package types

import "github.com/uptrace/bun"

const (
	DefaultPage  = 1
	DefaultLimit = 5
	DefaultOrder = Asc
)

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// QueryModifier transforms the base select before it is counted.
type QueryModifier func(q *bun.SelectQuery) *bun.SelectQuery

// PageRequest describes one page: selected columns, ordering, an optional
// filter or modifier, and whether the caller wants the query instead of rows.
// Getters apply the defaults page 1, limit 5 and ASC; a nil *PageRequest
// yields the defaults too.
type PageRequest struct {
	page        int
	limit       int
	columns     []string
	orderColumn string
	order       Order
	filter      *QueryFilter
	modifier    QueryModifier
	queryOnly   bool
}

// NewPageRequest constructs a PageRequest for page and limit. Values below 1 mean the default.
func NewPageRequest(page int, limit int) *PageRequest {
	return &PageRequest{page: page, limit: limit}
}

// NewDefaultPageRequest constructs a PageRequest with all defaults.
func NewDefaultPageRequest() *PageRequest {
	return &PageRequest{}
}

// WithColumns restricts the selected columns. No columns selects all.
func (p *PageRequest) WithColumns(columns ...string) *PageRequest {
	p.columns = columns
	return p
}

// OrderBy sorts by column, which must exist in the table.
func (p *PageRequest) OrderBy(column string, order Order) *PageRequest {
	p.orderColumn = column
	p.order = order
	return p
}

func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	p.filter = filter
	return p
}

func (p *PageRequest) WithModifier(fn QueryModifier) *PageRequest {
	p.modifier = fn
	return p
}

// QueryOnly asks for the configured, unexecuted query instead of rows.
func (p *PageRequest) QueryOnly() *PageRequest {
	p.queryOnly = true
	return p
}

func (p *PageRequest) GetPage() int {
	if p == nil || p.page < 1 {
		return DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetLimit() int {
	if p == nil || p.limit < 1 {
		return DefaultLimit
	}
	return p.limit
}

func (p *PageRequest) GetOrder() Order {
	if p == nil || p.order == 0 {
		return DefaultOrder
	}
	return p.order
}

func (p *PageRequest) GetOrderColumn() string {
	if p == nil {
		return ""
	}
	return p.orderColumn
}

func (p *PageRequest) GetColumns() []string {
	if p == nil {
		return nil
	}
	return p.columns
}

func (p *PageRequest) GetFilter() *QueryFilter {
	if p == nil {
		return nil
	}
	return p.filter
}

func (p *PageRequest) GetModifier() QueryModifier {
	if p == nil {
		return nil
	}
	return p.modifier
}

func (p *PageRequest) IsQueryOnly() bool {
	return p != nil && p.queryOnly
}

// ClampPage keeps page when (page-1)*limit < total and otherwise steps back
// exactly one page. With total 0 a request for page 1 therefore yields page 0.
func ClampPage(page, limit, total int) int {
	if (page-1)*limit < total {
		return page
	}
	return page - 1
}

// Skip is the number of rows before page.
func Skip(page, limit int) int {
	return (page - 1) * limit
}

// Pagination holds one page of items, or the unexecuted query when the
// request asked for it, along with pagination metadata.
type Pagination[T any] struct {
	Total       int              `json:"total"`
	Data        []*T             `json:"data"`
	Query       *bun.SelectQuery `json:"-"`
	Limit       int              `json:"limit"`
	Order       Order            `json:"order"`
	Page        int              `json:"page"`
	ColumnOrder string           `json:"column_order,omitempty"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, limit int, order Order) *Pagination[T] {
	return &Pagination[T]{Page: page, Limit: limit, Order: order, Data: make([]*T, 0)}
}
