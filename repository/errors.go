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
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/repokit/database"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("record not found")
	ErrValidation     = errors.New("validation failed")
	ErrStore          = errors.New("store failure")
	ErrStorage        = errors.New("storage failure")
	ErrCallback       = errors.New("callback failed")
	ErrNotImplemented = errors.New("not implemented")
)

// Error is returned by every failing repository operation.
type Error struct {
	Op    string
	Kind  error
	Table string
	// SQL is the classified driver error when Kind is ErrStore.
	SQL database.SQLError
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("repository")
	if e.Table != "" {
		b.WriteString(" ")
		b.WriteString(e.Table)
	}
	if e.Op != "" {
		b.WriteString(".")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Kind == ErrStore && e.SQL != database.UnknownErr {
		fmt.Fprintf(&b, " (%s)", e.SQL)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// ColumnError reports an ordering or filtering column missing from the table.
type ColumnError struct {
	Column string
	Table  string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("the column %q does not exist in the table %q", e.Column, e.Table)
}

func (e *ColumnError) Is(target error) bool { return target == ErrValidation }

// KindName is the metric label of err.
func KindName(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrCallback):
		return "callback"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "unknown"
	}
}

func (r *Base[T]) wrap(op string, kind error, err error) *Error {
	e := &Error{Op: op, Kind: kind, Table: r.table, Err: err}
	if kind == ErrStore {
		if ok, sqlErr := database.IsSqlError(err); ok {
			e.SQL = sqlErr
		}
	}
	return e
}
