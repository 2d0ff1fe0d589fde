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

// RepositoryTemplate renders internal/repositories/<entity>_repository.go.
// Custom stubs get the same TemplateData.
const RepositoryTemplate = `// Code generated by repokit make:repository. Edit freely, it is not regenerated.

package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"{{.RepokitPath}}/repository"

	"{{.ModulePath}}/internal/models"
)

// {{.Class}} manages {{.Entity}} records. Shadow the embedded Base methods
// here to add behaviour.
type {{.Class}} struct {
	*repository.Base[models.{{.Entity}}]
}

func New{{.Class}}(db *bun.DB, opts ...repository.Option) *{{.Class}} {
	return &{{.Class}}{Base: repository.New[models.{{.Entity}}](db, opts...)}
}

// FindByFilters returns the {{.Entity}} records matching criteria.
func (r *{{.Class}}) FindByFilters(ctx context.Context, criteria any) ([]*models.{{.Entity}}, error) {
	return r.Base.FindByFilters(ctx, criteria)
}
`

// ModelTemplate renders internal/models/<entity>.go.
const ModelTemplate = `// Code generated by repokit make:repository. Edit freely, it is not regenerated.

package models

import (
	"time"

	"github.com/uptrace/bun"

	"{{.RepokitPath}}/database"
)

type {{.Entity}} struct {
	bun.BaseModel ` + "`" + `bun:"table:{{.Table}},alias:{{.Alias}}"` + "`" + `

	ID        int64     ` + "`" + `bun:"id,pk,autoincrement" json:"id"` + "`" + `
	CreatedAt time.Time ` + "`" + `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"` + "`" + `
	UpdatedAt time.Time ` + "`" + `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"` + "`" + `
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*{{.Entity}})(nil), 100))
}
`

// MigrationTemplate is rendered with [[ ]] delimiters first; the result is a
// goose template receiving {{.Version}} and {{.CamelName}}.
const MigrationTemplate = `-- [[.Class]]: {{.CamelName}} ({{.Version}})
-- +goose Up
-- +goose StatementBegin
CREATE TABLE IF NOT EXISTS [[.Table]] (
    id [[.IDColumn]],
    created_at [[.TimeColumn]],
    updated_at [[.TimeColumn]]
);
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
DROP TABLE IF EXISTS [[.Table]];
-- +goose StatementEnd
`

// SeederTemplate renders configs/sql/common/NNN_<table>_seeder.sql for the seed runner.
const SeederTemplate = `-- {{.Seeder}}: seed data for {{.Table}}, executed by "repokit seed".
-- Statements end with ";" at the end of a line. {{"{{"}}.ENVIRONMENT{{"}}"}} and other
-- environment variables are substituted before execution.
--
-- INSERT INTO {{.Table}} (created_at, updated_at) VALUES (CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
`

type columnTypes struct {
	IDColumn   string
	TimeColumn string
}

var dialectColumns = map[string]columnTypes{
	DialectPostgres: {IDColumn: "BIGSERIAL PRIMARY KEY", TimeColumn: "TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP"},
	DialectMySQL:    {IDColumn: "BIGINT AUTO_INCREMENT PRIMARY KEY", TimeColumn: "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"},
	DialectSQLite:   {IDColumn: "INTEGER PRIMARY KEY AUTOINCREMENT", TimeColumn: "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"},
}
