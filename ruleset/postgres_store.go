package ruleset

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL. Rules are kept as a
// JSONB column so definitions round-trip without schema churn.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed definition store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a new definition.
func (s *PostgresStore) Add(def *Definition) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM rulesets WHERE id = $1)
	`, def.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check ruleset existence: %w", err)
	}
	if exists {
		return fmt.Errorf("ruleset with ID %s already exists", def.ID)
	}

	rulesJSON, err := json.Marshal(def.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO rulesets (id, name, description, active, rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, def.ID, def.Name, def.Description, def.Active, rulesJSON,
		def.CreatedAt, def.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert ruleset: %w", err)
	}

	return nil
}

// Get retrieves a definition by ID.
func (s *PostgresStore) Get(id string) (*Definition, error) {
	var def Definition
	var rulesJSON []byte
	err := s.db.QueryRow(`
		SELECT id, name, description, active, rules, created_at, updated_at
		FROM rulesets
		WHERE id = $1
	`, id).Scan(
		&def.ID,
		&def.Name,
		&def.Description,
		&def.Active,
		&rulesJSON,
		&def.CreatedAt,
		&def.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ruleset %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ruleset: %w", err)
	}

	if err := json.Unmarshal(rulesJSON, &def.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules for ruleset %s: %w", id, err)
	}

	return &def, nil
}

// ListActive returns all active definitions.
func (s *PostgresStore) ListActive() ([]*Definition, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, active, rules, created_at, updated_at
		FROM rulesets
		WHERE active = true
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rulesets: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		var def Definition
		var rulesJSON []byte
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.Active,
			&rulesJSON, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ruleset: %w", err)
		}
		if err := json.Unmarshal(rulesJSON, &def.Rules); err != nil {
			return nil, fmt.Errorf("failed to decode rules for ruleset %s: %w", def.ID, err)
		}
		defs = append(defs, &def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rulesets: %w", err)
	}

	return defs, nil
}

// Update modifies an existing definition.
func (s *PostgresStore) Update(def *Definition) error {
	rulesJSON, err := json.Marshal(def.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	def.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE rulesets
		SET name = $1, description = $2, active = $3, rules = $4, updated_at = $5
		WHERE id = $6
	`, def.Name, def.Description, def.Active, rulesJSON, def.UpdatedAt, def.ID)

	if err != nil {
		return fmt.Errorf("failed to update ruleset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ruleset %s not found", def.ID)
	}

	return nil
}

// Delete removes a definition.
func (s *PostgresStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM rulesets
		WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete ruleset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ruleset %s not found", id)
	}

	return nil
}
