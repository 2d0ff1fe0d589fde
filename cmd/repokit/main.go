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

// Command repokit scaffolds repositories and runs migrations and seeds.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	switch command {
	case "make:repository":
		return runMakeRepository(ctx, rest, stdout, stderr)
	case "migrate":
		return runMigrate(ctx, rest, stdout, stderr)
	case "seed":
		return runSeed(ctx, rest, stdout, stderr)
	case "config":
		return runConfig(rest, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "repokit - repository scaffolding and database tooling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: repokit <command> [arguments] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  make:repository <Name>  - Create a repository, e.g. OrderRepository")
	fmt.Fprintln(w, "  migrate [up|down|status] - Apply, roll back or list migrations (default: up)")
	fmt.Fprintln(w, "  seed                    - Execute the SQL seed files")
	fmt.Fprintln(w, "  config                  - Print the effective configuration")
	fmt.Fprintln(w, "  help                    - Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "make:repository flags:")
	fmt.Fprintln(w, "  -m        - Also create the model migration")
	fmt.Fprintln(w, "  -ms       - Also create the model migration and a seeder")
	fmt.Fprintln(w, "  -force    - Overwrite existing files")
	fmt.Fprintln(w, "  -dir      - Project root (default: scaffold.output_dir or .)")
	fmt.Fprintln(w, "  -module   - Go module path (default: read from go.mod)")
	fmt.Fprintln(w, "  -dialect  - postgres, mysql or sqlite (default: postgres)")
	fmt.Fprintln(w, "  -stub     - Template file replacing the built-in repository stub")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintf(w, "  -config   - Configuration file (default: %s when present)\n", defaultConfigHint)
}
