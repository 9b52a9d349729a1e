package cmd

import (
	"errors"
	"fmt"

	"plombir/database"
)

const migrateUsage = "usage: plombir migrate up | down [steps] | status"

// Migrate runs a schema migration subcommand. args excludes "migrate" itself.
func Migrate(args []string) error {
	if len(args) == 0 {
		return errors.New(migrateUsage)
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command %q; %s", args[0], migrateUsage)
	}
}
