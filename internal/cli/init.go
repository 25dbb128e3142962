package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/config"
	"github.com/example/rebarflow/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the rebarflow database",
		Long:  `Initialize the rebarflow database at ~/.rebarflow/rebarflow.db with the required schema and write a starter config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing rebarflow database at %s\n", dbPath)

			if err := db.InitSchema(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}

			fmt.Println("✓ Database initialized successfully")

			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  rebarflow machine add \"Shearline 1\"")
			fmt.Println("  rebarflow session create \"My First Barlist\" --customer \"ACME Rebar\"")

			return nil
		},
	}
}

// initConfig writes the default config file unless one already exists.
func initConfig() error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("✓ Config already present at %s\n", path)
		return nil
	}

	cfg := &config.Config{}
	cfg.Tenant.ID = "default"
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Config file created at %s\n", path)
	return nil
}
