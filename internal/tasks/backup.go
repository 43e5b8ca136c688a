package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// SnapshotRunner produces a backup snapshot and returns its path.
type SnapshotRunner interface {
	Run() (string, error)
}

// DatabaseBackupTask snapshots the library database into the backup
// directory. Reason records what triggered the run (schedule, cli, api).
type DatabaseBackupTask struct {
	Reason string `json:"reason"`
}

// Config returns the queue configuration for backup tasks.
func (t DatabaseBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "database_backup",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DatabaseBackupProcessor creates a processor function for DatabaseBackupTask.
func DatabaseBackupProcessor(runner SnapshotRunner) backlite.QueueProcessor[DatabaseBackupTask] {
	return func(ctx context.Context, task DatabaseBackupTask) error {
		if runner == nil {
			return fmt.Errorf("backup runner not configured")
		}

		dest, err := runner.Run()
		if err != nil {
			return fmt.Errorf("database backup: %w", err)
		}

		log.Printf("[TASK] Database backed up to %s (%s)", dest, task.Reason)
		return nil
	}
}

// NewDatabaseBackupQueue creates a backlite queue for backup tasks.
func NewDatabaseBackupQueue(runner SnapshotRunner) backlite.Queue {
	return backlite.NewQueue(DatabaseBackupProcessor(runner))
}
