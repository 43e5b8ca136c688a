package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mtrump/garage-library/internal/config"
	"github.com/mtrump/garage-library/internal/database"
	"github.com/mtrump/garage-library/internal/database/books"
	"github.com/mtrump/garage-library/internal/database/stacks"
	"github.com/mtrump/garage-library/internal/importer"
)

// ImportSpreadsheetCommand loads a legacy CSV export into a stack.
type ImportSpreadsheetCommand struct {
	FilePath     string
	StackName    string
	DatabasePath string
	UserID       uint
	Verbose      bool
}

func NewImportSpreadsheetCommand() *ImportSpreadsheetCommand {
	return &ImportSpreadsheetCommand{}
}

func (cmd *ImportSpreadsheetCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-spreadsheet", flag.ExitOnError)
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the CSV file to import (required)")
	fs.StringVar(&cmd.StackName, "stack", "", "Name of the stack to import into (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database")
	userID := fs.Uint("user", 1, "User id to own the imported books")
	fs.BoolVar(&cmd.Verbose, "v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.UserID = uint(*userID)

	if cmd.FilePath == "" {
		return fmt.Errorf("-file is required")
	}
	if cmd.StackName == "" {
		return fmt.Errorf("-stack is required")
	}
	return nil
}

func (cmd *ImportSpreadsheetCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cmd.FilePath, err)
	}
	defer file.Close()

	service := importer.NewService(stacks.NewRepository(db.DB), books.NewRepository(db.DB))
	result, err := service.Import(file, cmd.StackName, cmd.UserID)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d rows into stack %q\n", result.BooksImported, result.RowsRead, cmd.StackName)
	if cmd.Verbose {
		for _, title := range result.Skipped {
			fmt.Printf("  skipped: %s\n", title)
		}
	} else if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d rows (run with -v to list them)\n", len(result.Skipped))
	}
	return nil
}
