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

import (
	"reflect"
	"time"
)

// Range bounds a numeric field inclusively. Blank bounds are ignored.
type Range struct {
	Min any `json:"min,omitempty"`
	Max any `json:"max,omitempty"`
}

// DateRange bounds a date field inclusively by day. Blank bounds are ignored.
type DateRange struct {
	From any `json:"from,omitempty"`
	To   any `json:"to,omitempty"`
}

// IsBlank reports whether v should be treated as an absent filter value:
// nil, nil pointers, zero values, empty collections and the string "0".
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == "" || t == "0"
	case time.Time:
		return t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsBlank(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return rv.IsZero()
}

// DateValue formats time values as YYYY-MM-DD and passes anything else through.
func DateValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case *time.Time:
		if t != nil {
			return t.Format(time.DateOnly)
		}
	}
	return v
}
