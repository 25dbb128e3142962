package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: a small
// machine park with capabilities and a starter mapping-rule table for the
// given tenant.
func SeedFixtures(database *sql.DB, tenantID string) error {
	now := time.Now().Format(time.RFC3339)

	machines := []struct{ id, name, status string }{
		{"MCH-001", "Shearline 1", "idle"},
		{"MCH-002", "Shearline 2", "running"},
		{"MCH-003", "Bender A", "idle"},
		{"MCH-004", "Bender B", "down"},
	}
	for _, m := range machines {
		if _, err := database.Exec(
			"INSERT INTO machines (id, tenant_id, name, status, created_at) VALUES (?, ?, ?, ?, ?)",
			m.id, tenantID, m.name, m.status, now,
		); err != nil {
			return fmt.Errorf("seed machines: %w", err)
		}
	}

	// Shearlines cut the full size range; benders handle the sizes a
	// mandrel exists for.
	cutSizes := []string{"10M", "15M", "20M", "25M", "30M", "35M"}
	bendSizes := []string{"10M", "15M", "20M", "25M"}

	capID := 0
	addCap := func(machineID, process, barCode string, maxBars int) error {
		capID++
		_, err := database.Exec(
			"INSERT INTO machine_capabilities (id, machine_id, process, bar_code, max_bars_per_run, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			fmt.Sprintf("CAP-%03d", capID), machineID, process, barCode, maxBars, now,
		)
		return err
	}

	for _, machineID := range []string{"MCH-001", "MCH-002"} {
		for _, size := range cutSizes {
			if err := addCap(machineID, "cut", size, 40); err != nil {
				return fmt.Errorf("seed capabilities: %w", err)
			}
		}
	}
	for _, machineID := range []string{"MCH-003", "MCH-004"} {
		for _, size := range bendSizes {
			if err := addCap(machineID, "bend", size, 12); err != nil {
				return fmt.Errorf("seed capabilities: %w", err)
			}
		}
	}

	// Common extractor misreadings seen on scanned drawings.
	rules := []struct{ id, field, source, mapped string }{
		{"RULE-001", "bar_size", "#4", "15M"},
		{"RULE-002", "bar_size", "#5", "15M"},
		{"RULE-003", "bar_size", "#6", "20M"},
		{"RULE-004", "grade", "GR400", "400W"},
		{"RULE-005", "grade", "G60", "400W"},
		{"RULE-006", "shape_code", "str", ""},
	}
	for _, r := range rules {
		if _, err := database.Exec(
			"INSERT INTO mapping_rules (id, tenant_id, source_field, source_value, mapped_value, is_auto, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)",
			r.id, tenantID, r.field, r.source, r.mapped, now,
		); err != nil {
			return fmt.Errorf("seed mapping rules: %w", err)
		}
	}

	return nil
}
