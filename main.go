package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mtrump/garage-library/internal/cli"
	"github.com/mtrump/garage-library/internal/config"
	"github.com/mtrump/garage-library/internal/entrypoint"
)

// Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	switch os.Args[1] {
	case "serve":
		runServer()
	case "import-spreadsheet":
		cmd := cli.NewImportSpreadsheetCommand()
		if err := cmd.ParseFlags(os.Args[2:]); err != nil {
			log.Fatalf("import-spreadsheet: %v", err)
		}
		if err := cmd.Run(); err != nil {
			log.Fatalf("import-spreadsheet: %v", err)
		}
	case "backup":
		cmd := cli.NewBackupCommand()
		if err := cmd.ParseFlags(os.Args[2:]); err != nil {
			log.Fatalf("backup: %v", err)
		}
		if err := cmd.Run(); err != nil {
			log.Fatalf("backup: %v", err)
		}
	case "version":
		fmt.Printf("garage-library %s (%s)\n", Version, Commit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}

func printUsage() {
	fmt.Println("Garage Library - home library tracker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  garage-library [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                Start the HTTP server (default)")
	fmt.Println("  import-spreadsheet   Import a legacy CSV export into a stack")
	fmt.Println("  backup               Snapshot the database into a directory")
	fmt.Println("  version              Print version information")
	fmt.Println("  help                 Show this help message")
	fmt.Println()
	fmt.Println("Run 'garage-library <command> -h' for command flags.")
}
