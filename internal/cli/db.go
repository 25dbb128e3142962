package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/db"
	"github.com/example/rebarflow/internal/wire"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance commands",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Println("✓ Database is up to date")
		return nil
	},
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load development fixtures (machines, capabilities, mapping rules)",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.GetDB()
		if err != nil {
			return fmt.Errorf("failed to get database: %w", err)
		}

		tenantID := wire.Config().Tenant.ID
		if err := db.SeedFixtures(database, tenantID); err != nil {
			return fmt.Errorf("failed to seed fixtures: %w", err)
		}

		fmt.Printf("✓ Seeded fixtures for tenant %s\n", tenantID)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbSeedCmd)
}

// DBCmd returns the db command tree.
func DBCmd() *cobra.Command {
	return dbCmd
}
