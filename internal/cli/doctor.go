package cli

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/config"
	"github.com/example/rebarflow/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the rebarflow environment",
		Long: `Environment health check for rebarflow.

Validates:
- Config file presence and tenant setup
- Database reachability and schema tables
- Machine park (dispatch needs at least one capable machine)
- Extraction service endpoint

Examples:
  rebarflow doctor           # Run full health check
  rebarflow doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{}
			hasErrors := false

			cfg, cfgResult := checkConfig()
			results = append(results, cfgResult)

			database, dbResult := checkDatabase(cfg)
			results = append(results, dbResult)
			results = append(results, checkMachines(database, cfg))
			results = append(results, checkExtraction(cfg))

			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Run 'rebarflow init' to set up the database and config.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkConfig loads the config file and validates tenant setup
func checkConfig() (*config.Config, CheckResult) {
	cfg, err := config.Load()
	if err != nil {
		return nil, CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: "  " + err.Error(),
		}
	}

	if cfg.Tenant.Actor == "" {
		return cfg, CheckResult{
			Name:    "Config",
			Status:  "⚠",
			Details: "  No actor configured; audit events will record 'system'\n  Set tenant.actor in the config or REBARFLOW_ACTOR",
		}
	}

	return cfg, CheckResult{Name: "Config", Status: "✓"}
}

// checkDatabase opens the database and verifies the schema tables exist
func checkDatabase(cfg *config.Config) (*sql.DB, CheckResult) {
	if cfg != nil && cfg.Database.Path != "" {
		db.SetPath(cfg.Database.Path)
	}

	database, err := db.GetDB()
	if err != nil {
		return nil, CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  " + err.Error() + "\n  Run: rebarflow init",
		}
	}

	required := []string{
		"extraction_sessions", "extracted_rows", "mapping_rules",
		"validation_issues", "machines", "production_tasks",
	}

	missing := []string{}
	for _, table := range required {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return database, CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  Missing tables: " + strings.Join(missing, ", ") + "\n  Run: rebarflow init",
		}
	}

	return database, CheckResult{Name: "Database", Status: "✓"}
}

// checkMachines warns when no machine can accept dispatched tasks
func checkMachines(database *sql.DB, cfg *config.Config) CheckResult {
	if database == nil || cfg == nil {
		return CheckResult{Name: "Machines", Status: "⚠", Details: "  Skipped (database unavailable)"}
	}

	var capable int
	err := database.QueryRow(`
		SELECT COUNT(DISTINCT m.id)
		FROM machines m
		JOIN machine_capabilities c ON c.machine_id = m.id
		WHERE m.tenant_id = ? AND m.status != 'down'
	`, cfg.Tenant.ID).Scan(&capable)
	if err != nil {
		return CheckResult{Name: "Machines", Status: "✗", Details: "  " + err.Error()}
	}

	if capable == 0 {
		return CheckResult{
			Name:    "Machines",
			Status:  "⚠",
			Details: "  No capable machines registered; approved tasks will stay pending\n  Run: rebarflow machine add / rebarflow db seed",
		}
	}

	return CheckResult{Name: "Machines", Status: "✓"}
}

// checkExtraction validates the extraction endpoint when one is configured
func checkExtraction(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Extraction", Status: "⚠", Details: "  Skipped (config unavailable)"}
	}

	if cfg.Extraction.URL == "" {
		return CheckResult{
			Name:    "Extraction",
			Status:  "⚠",
			Details: "  No extraction service configured; 'session extract' reads local JSON files\n  Set extraction.url or EXTRACTION_API_URL",
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(cfg.Extraction.URL)
	if err != nil {
		return CheckResult{
			Name:    "Extraction",
			Status:  "✗",
			Details: "  " + cfg.Extraction.URL + " unreachable: " + err.Error(),
		}
	}
	resp.Body.Close()

	return CheckResult{Name: "Extraction", Status: "✓"}
}
