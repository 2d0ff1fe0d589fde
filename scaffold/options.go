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
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"

	// RepokitImportPath is imported by generated repositories and models.
	RepokitImportPath = "github.com/tomoncle/repokit"
)

var ErrInvalidOptions = errors.New("invalid scaffold options")

// Options are the inputs of make:repository.
type Options struct {
	// Name is the repository class, e.g. "OrderRepository".
	Name string `validate:"required,exported_ident"`
	// Migration asks the model maker for a migration too (-m).
	Migration bool
	// Seeder asks for a seeder and a migration (-ms).
	Seeder bool
	// Force overwrites an existing repository file.
	Force      bool
	OutputDir  string `validate:"required"`
	ModulePath string `validate:"required"`
	Dialect    string `validate:"omitempty,oneof=postgres mysql sqlite"`
	// Stub is an optional template file replacing RepositoryTemplate.
	Stub string
}

// WithMigration reports whether the model maker should create a migration.
func (o Options) WithMigration() bool { return o.Migration || o.Seeder }

func (o Options) dialect() string {
	if o.Dialect == "" {
		return DialectPostgres
	}
	return o.Dialect
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("exported_ident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return token.IsIdentifier(s) && token.IsExported(s)
	})
	return v
}

// Validate checks the struct tags and that Name leaves an entity once
// "Repository" is removed.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	entity := EntityName(o.Name)
	if !token.IsIdentifier(entity) || !token.IsExported(entity) {
		return fmt.Errorf("%w: name %q does not leave an exported entity name", ErrInvalidOptions, o.Name)
	}
	return nil
}
