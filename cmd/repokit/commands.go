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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/tomoncle/repokit/config"
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/scaffold"
)

const defaultConfigHint = config.DefaultPath

func runMakeRepository(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("make:repository", flag.ContinueOnError)
	fs.SetOutput(stderr)
	migration := fs.Bool("m", false, "Also create the model migration")
	seeder := fs.Bool("ms", false, "Also create the model migration and a seeder")
	force := fs.Bool("force", false, "Overwrite existing files")
	dir := fs.String("dir", "", "Project root")
	module := fs.String("module", "", "Go module path")
	dialect := fs.String("dialect", "", "postgres, mysql or sqlite")
	stub := fs.String("stub", "", "Repository template file")
	cfgPath := fs.String("config", "", "Configuration file")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return flagExitCode(err)
	}
	if len(positional) != 1 {
		fmt.Fprintln(stderr, "Error: exactly one repository name is required, e.g. repokit make:repository OrderRepository")
		return 1
	}

	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cfg.ApplyLogging()

	opts := scaffold.Options{
		Name:       positional[0],
		Migration:  *migration,
		Seeder:     *seeder,
		Force:      *force,
		OutputDir:  firstNonEmpty(*dir, cfg.Scaffold.OutputDir, "."),
		ModulePath: firstNonEmpty(*module, cfg.Scaffold.ModulePath),
		Dialect:    firstNonEmpty(*dialect, cfg.Scaffold.Dialect, scaffoldDialect(cfg.Database.Connection.Type)),
		Stub:       *stub,
	}
	if opts.ModulePath == "" {
		path, err := scaffold.DetectModulePath(opts.OutputDir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v (pass -module)\n", err)
			return 1
		}
		opts.ModulePath = path
	}

	logger := database.NewDefaultLogger("SCAFFOLD")
	models := scaffold.NewFileModelMaker(opts, logger)
	models.MigrationDir = firstNonEmpty(cfg.Database.Migrate.Dir, database.DefaultMigrationDir)
	seeders := scaffold.NewSQLSeederMaker(opts, logger)
	seeders.SeedPath = firstNonEmpty(cfg.Database.Seed.Filepath, database.DefaultSeedPath)

	result, err := scaffold.NewGenerator(opts, models, seeders, logger).Generate(ctx, opts)
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(stderr, "Warning: %v\n", e)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Repository created: %s\n", result.RepositoryFile)
	for _, f := range result.Files {
		if f != result.RepositoryFile {
			fmt.Fprintf(stdout, "  created %s\n", f)
		}
	}
	return 0
}

func runMigrate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Configuration file")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return flagExitCode(err)
	}
	action := "up"
	if len(positional) > 0 {
		action = positional[0]
	}
	if action != "up" && action != "down" && action != "status" {
		fmt.Fprintf(stderr, "Error: unknown migrate action %q (up, down or status)\n", action)
		return 1
	}

	mm, cfg, err := openMigrations(ctx, *cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = database.CloseDB() }()

	switch action {
	case "up":
		if cfg.Database.Migrate.EnsureModels {
			if err := mm.EnsureModels(ctx); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
		}
		results, err := mm.Up(ctx)
		for _, r := range results {
			fmt.Fprintf(stdout, "Applied %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if len(results) == 0 {
			fmt.Fprintln(stdout, "Nothing to migrate")
		}
	case "down":
		r, err := mm.Down(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Rolled back %s\n", r.Source.Path)
	case "status":
		statuses, err := mm.Status(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		_ = tw.Flush()
	}
	return 0
}

func runSeed(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Configuration file")
	if _, err := parseInterspersed(fs, args); err != nil {
		return flagExitCode(err)
	}

	mm, _, err := openMigrations(ctx, *cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = database.CloseDB() }()

	if err := mm.InitData(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Seed files executed")
	return 0
}

func runConfig(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "Configuration file")
	if _, err := parseInterspersed(fs, args); err != nil {
		return flagExitCode(err)
	}
	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := config.Write(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func openMigrations(ctx context.Context, cfgPath string) (*database.MigrationManager, *config.Config, error) {
	cfg, err := loadConfig(cfgPath, true)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyLogging()
	db, err := database.InitDatabaseWithOptions(ctx, &cfg.Database, false)
	if err != nil {
		return nil, nil, err
	}
	return database.NewMigrationManager(db, nil, &cfg.Database), cfg, nil
}

// loadConfig uses path, else config.DefaultPath when it exists. Without a
// file, required commands still load the REPOKIT_ environment and the
// others fall back to the defaults.
func loadConfig(path string, required bool) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	if path == "" && !required {
		return config.Default(), nil
	}
	return config.Load(path)
}

// parseInterspersed lets flags appear before and after positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func flagExitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 1
}

func scaffoldDialect(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return scaffold.DialectPostgres
	case "mysql":
		return scaffold.DialectMySQL
	case "sqlite", "sqlite3":
		return scaffold.DialectSQLite
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
