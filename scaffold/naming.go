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

package scaffold

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// EntityName strips every "Repository" from a repository class name.
func EntityName(class string) string {
	return strings.ReplaceAll(class, "Repository", "")
}

// SnakeCase converts PascalCase or camelCase to snake_case, keeping
// acronyms together: "HTTPServerLog" -> "http_server_log".
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TableName is the plural snake_case table of an entity, "OrderItem" -> "order_items".
func TableName(entity string) string {
	snake := SnakeCase(entity)
	i := strings.LastIndexByte(snake, '_')
	return snake[:i+1] + inflection.Plural(snake[i+1:])
}

// tableAlias takes the initials of the snake_case words, "order_item" -> "oi".
func tableAlias(entity string) string {
	var b strings.Builder
	for _, part := range strings.Split(SnakeCase(entity), "_") {
		if part != "" {
			b.WriteByte(part[0])
		}
	}
	return b.String()
}
