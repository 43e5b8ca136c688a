package cli

import (
	"flag"
	"fmt"

	"github.com/mtrump/garage-library/internal/backup"
	"github.com/mtrump/garage-library/internal/config"
)

// BackupCommand snapshots the library database into a directory.
type BackupCommand struct {
	DatabasePath string
	DestDir      string
}

func NewBackupCommand() *BackupCommand {
	return &BackupCommand{}
}

func (cmd *BackupCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database")
	fs.StringVar(&cmd.DestDir, "dest", "./backups", "Directory to write the snapshot into")
	return fs.Parse(args)
}

func (cmd *BackupCommand) Run() error {
	dest, err := backup.NewService(cmd.DatabasePath, cmd.DestDir).Run()
	if err != nil {
		return err
	}
	fmt.Printf("Backed up to %s\n", dest)
	return nil
}
