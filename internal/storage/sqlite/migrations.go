package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Deletion policy: dependents of the template graph are removed explicitly
// in store transactions, so foreign keys are declared without cascade and
// act as a backstop. participant_entry_amounts.field_value_id deliberately
// carries no constraint: deleting a field value leaves its allocation rows
// for the caller to clean up (DeleteEntryAmountsByFieldValue).
const schema = `
CREATE TABLE IF NOT EXISTS templates (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    name TEXT NOT NULL,
    description TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS template_participants (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    name TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (template_id) REFERENCES templates(id)
);

CREATE TABLE IF NOT EXISTS split_rules (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (template_id) REFERENCES templates(id)
);

CREATE TABLE IF NOT EXISTS split_rule_allocations (
    id TEXT PRIMARY KEY,
    split_rule_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    percent TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (split_rule_id) REFERENCES split_rules(id),
    FOREIGN KEY (participant_id) REFERENCES template_participants(id)
);

CREATE TABLE IF NOT EXISTS template_fields (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    label TEXT NOT NULL,
    field_type TEXT NOT NULL,
    default_split_rule_id TEXT,
    display_order INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (template_id) REFERENCES templates(id),
    FOREIGN KEY (default_split_rule_id) REFERENCES split_rules(id)
);

CREATE TABLE IF NOT EXISTS template_instances (
    id TEXT PRIMARY KEY,
    template_id TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (template_id) REFERENCES templates(id)
);

CREATE TABLE IF NOT EXISTS instance_field_values (
    id TEXT PRIMARY KEY,
    instance_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    note TEXT,
    entry_date TEXT,
    split_mode TEXT NOT NULL,
    override_split_rule_id TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (instance_id) REFERENCES template_instances(id),
    FOREIGN KEY (field_id) REFERENCES template_fields(id),
    FOREIGN KEY (override_split_rule_id) REFERENCES split_rules(id)
);

CREATE TABLE IF NOT EXISTS participant_entry_amounts (
    id TEXT PRIMARY KEY,
    field_value_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (participant_id) REFERENCES template_participants(id)
);

CREATE INDEX IF NOT EXISTS idx_participants_template_id ON template_participants(template_id);
CREATE INDEX IF NOT EXISTS idx_fields_template_id ON template_fields(template_id);
CREATE INDEX IF NOT EXISTS idx_split_rules_template_id ON split_rules(template_id);
CREATE INDEX IF NOT EXISTS idx_rule_allocations_rule_id ON split_rule_allocations(split_rule_id);
CREATE INDEX IF NOT EXISTS idx_instances_template_id ON template_instances(template_id);
CREATE INDEX IF NOT EXISTS idx_field_values_instance_id ON instance_field_values(instance_id);
CREATE INDEX IF NOT EXISTS idx_entry_amounts_field_value_id ON participant_entry_amounts(field_value_id);
CREATE INDEX IF NOT EXISTS idx_entry_amounts_participant_id ON participant_entry_amounts(participant_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
