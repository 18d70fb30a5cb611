// Package main provides CLI for database schema migrations.
// Usage: migrate up
//        migrate down
//        migrate status
//        migrate create add_widgets_table
package main

import (
	"fmt"
	"os"
	"os/exec"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "up":
		runGoose("up")
	case "up-by-one":
		runGoose("up-by-one")
	case "down":
		runGoose("down")
	case "redo":
		runGoose("redo")
	case "status":
		runGoose("status")
	case "version":
		runGoose("version")
	case "create":
		createMigration()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Procura Migration CLI

Usage:
  migrate <command> [options]

Commands:
  up         Apply all pending migrations
  up-by-one  Apply the next pending migration
  down       Roll back the last migration
  redo       Roll back and re-apply the last migration
  status     Show migration status
  version    Show current schema version
  create     Create a new migration file
  help       Show this help

Environment Variables:
  DATABASE_URL    Connection string for the database (required)

Examples:
  migrate up
  migrate status
  migrate create add_supplier_ratings`)
}

func databaseURL() string {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}
	return dsn
}

// runGoose shells out to the goose binary so migrations behave the same
// here and when goose is invoked directly.
func runGoose(args ...string) {
	gooseArgs := append([]string{"-dir", migrationsDir, "postgres", databaseURL()}, args...)

	cmd := exec.Command("goose", gooseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("Error: goose failed: %v\n", err)
		fmt.Println("Install goose with: go install github.com/pressly/goose/v3/cmd/goose@latest")
		os.Exit(1)
	}
}

func createMigration() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: migrate create <name>")
		os.Exit(1)
	}

	name := os.Args[2]
	cmd := exec.Command("goose", "-dir", migrationsDir, "create", name, "sql")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("Error: goose failed: %v\n", err)
		os.Exit(1)
	}
}
