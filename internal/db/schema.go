package db

// SchemaSQL is the complete schema for fresh installs.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests
// load it via GetSchemaSQL(): no test file hardcodes CREATE TABLE
// statements, and repository code referencing a column that does not
// exist here fails immediately with "no such column" at test time.
//
// When adding columns or tables, add a migration in migrations.go and
// update SchemaSQL here in the same change.
const SchemaSQL = `
-- Extraction sessions (drawing submissions moving through the pipeline)
CREATE TABLE IF NOT EXISTS extraction_sessions (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	customer TEXT,
	site_address TEXT,
	manifest_type TEXT NOT NULL CHECK(manifest_type IN ('delivery', 'pickup')) DEFAULT 'delivery',
	target_eta TEXT,
	status TEXT NOT NULL CHECK(status IN ('uploaded', 'extracting', 'extracted', 'mapping', 'validated', 'approved', 'rejected')) DEFAULT 'uploaded',
	barlist_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Extracted rows (raw collaborator output plus mapped counterparts)
CREATE TABLE IF NOT EXISTS extracted_rows (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	drawing_ref TEXT,
	mark TEXT,
	quantity INTEGER,
	bar_size_raw TEXT,
	grade_raw TEXT,
	shape_code_raw TEXT,
	total_length REAL,
	dim_a REAL, dim_b REAL, dim_c REAL, dim_d REAL, dim_e REAL, dim_f REAL,
	dim_g REAL, dim_h REAL, dim_i REAL, dim_j REAL, dim_k REAL, dim_l REAL,
	bar_size_mapped TEXT,
	grade_mapped TEXT,
	shape_code_mapped TEXT,
	status TEXT NOT NULL CHECK(status IN ('extracted', 'mapped', 'approved', 'rejected')) DEFAULT 'extracted',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES extraction_sessions(id)
);

-- Tenant mapping rules ((field, raw value) -> canonical value)
CREATE TABLE IF NOT EXISTS mapping_rules (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	source_field TEXT NOT NULL CHECK(source_field IN ('bar_size', 'grade', 'shape_code')),
	source_value TEXT NOT NULL,
	mapped_value TEXT NOT NULL,
	is_auto INTEGER DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(tenant_id, source_field, source_value)
);

-- Validation issues (derived snapshot, fully replaced each run)
CREATE TABLE IF NOT EXISTS validation_issues (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	row_id TEXT,
	field TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('blocker', 'warning')),
	message TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (session_id) REFERENCES extraction_sessions(id)
);

-- Customers
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Projects
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	customer_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('active', 'archived')) DEFAULT 'active',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (customer_id) REFERENCES customers(id)
);

-- Barlists (structured bar lists tied to a project, back-referenced to a session)
CREATE TABLE IF NOT EXISTS barlists (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	session_id TEXT,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('draft', 'approved', 'in_production')) DEFAULT 'draft',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id),
	FOREIGN KEY (session_id) REFERENCES extraction_sessions(id)
);

-- Barlist items (one per approved row)
CREATE TABLE IF NOT EXISTS barlist_items (
	id TEXT PRIMARY KEY,
	barlist_id TEXT NOT NULL,
	mark TEXT,
	quantity INTEGER NOT NULL,
	bar_size TEXT NOT NULL,
	grade TEXT NOT NULL,
	shape_code TEXT,
	cut_length REAL,
	dimensions TEXT,
	source_row_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (barlist_id) REFERENCES barlists(id),
	FOREIGN KEY (source_row_id) REFERENCES extracted_rows(id)
);

-- Orders (system-generated at approval)
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	source_session_id TEXT,
	notes TEXT,
	status TEXT NOT NULL CHECK(status IN ('open', 'fulfilled', 'cancelled')) DEFAULT 'open',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (customer_id) REFERENCES customers(id),
	FOREIGN KEY (source_session_id) REFERENCES extraction_sessions(id)
);

-- Work orders (human-facing production paperwork)
CREATE TABLE IF NOT EXISTS work_orders (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	barlist_id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL CHECK(status IN ('open', 'in_progress', 'complete')) DEFAULT 'open',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (order_id) REFERENCES orders(id),
	FOREIGN KEY (barlist_id) REFERENCES barlists(id),
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Cut plans
CREATE TABLE IF NOT EXISTS cut_plans (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	session_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('planned', 'in_progress', 'complete')) DEFAULT 'planned',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Cut plan items (one machine run input per row)
CREATE TABLE IF NOT EXISTS cut_plan_items (
	id TEXT PRIMARY KEY,
	cut_plan_id TEXT NOT NULL,
	bar_code TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	cut_length REAL,
	mark TEXT,
	drawing_ref TEXT,
	bend INTEGER NOT NULL DEFAULT 0,
	dimensions TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (cut_plan_id) REFERENCES cut_plans(id)
);

-- Production tasks (dispatchable units of shop-floor work)
CREATE TABLE IF NOT EXISTS production_tasks (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	cut_plan_item_id TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('cut', 'bend')),
	bar_size TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	mark TEXT,
	drawing_ref TEXT,
	cut_length REAL,
	dimensions TEXT,
	setup_key TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'queued', 'running', 'complete')) DEFAULT 'pending',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (cut_plan_item_id) REFERENCES cut_plan_items(id)
);

-- Machines
CREATE TABLE IF NOT EXISTS machines (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('idle', 'running', 'blocked', 'down')) DEFAULT 'idle',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(tenant_id, name)
);

-- Machine capabilities (static capacity declarations, scheduler read-only)
CREATE TABLE IF NOT EXISTS machine_capabilities (
	id TEXT PRIMARY KEY,
	machine_id TEXT NOT NULL,
	process TEXT NOT NULL CHECK(process IN ('cut', 'bend', 'load', 'other')),
	bar_code TEXT NOT NULL,
	max_bars_per_run INTEGER DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (machine_id) REFERENCES machines(id),
	UNIQUE(machine_id, process, bar_code)
);

-- Machine queue items (append-only ordered assignments)
CREATE TABLE IF NOT EXISTS machine_queue_items (
	id TEXT PRIMARY KEY,
	machine_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('queued', 'running', 'complete', 'failed')) DEFAULT 'queued',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (machine_id) REFERENCES machines(id),
	FOREIGN KEY (task_id) REFERENCES production_tasks(id)
);

-- Audit events (append-only, deduplicated per entity/event pair)
CREATE TABLE IF NOT EXISTS audit_events (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	actor TEXT,
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(entity_id, event_type)
);

CREATE INDEX IF NOT EXISTS idx_rows_session ON extracted_rows(session_id);
CREATE INDEX IF NOT EXISTS idx_issues_session ON validation_issues(session_id);
CREATE INDEX IF NOT EXISTS idx_queue_machine ON machine_queue_items(machine_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON production_tasks(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_capabilities_lookup ON machine_capabilities(process, bar_code);
`

// InitSchema creates the schema on a fresh database and runs any pending
// migrations on an existing one.
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create the schema directly and mark all
		// migrations as applied so they never run against it.
		if _, err = db.Exec(SchemaSQL); err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for _, migration := range migrations {
			if _, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
