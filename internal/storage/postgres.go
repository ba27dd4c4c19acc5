package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"factory/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements the instance and persistent tiers on PostgreSQL so that
// factory state, the deployment registry, and the used-salt set survive
// process restarts. The temporary tier stays in memory by design: its
// contents are allowed to expire.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and ensures the schema exists
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS factory_state (
			factory TEXT PRIMARY KEY,
			state   JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS deployment_records (
			id         BIGSERIAL PRIMARY KEY,
			factory    TEXT NOT NULL,
			address    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			owner      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			ledger_seq BIGINT NOT NULL,
			metadata   JSONB
		);
		CREATE INDEX IF NOT EXISTS deployment_records_factory_idx
			ON deployment_records (factory, id);
		CREATE TABLE IF NOT EXISTS used_salts (
			factory TEXT NOT NULL,
			salt    TEXT NOT NULL,
			PRIMARY KEY (factory, salt)
		);
	`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// GetState loads the factory state snapshot
func (p *Postgres) GetState(ctx context.Context, factory string) (models.FactoryState, bool, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT state FROM factory_state WHERE factory = $1`, factory,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FactoryState{}, false, nil
	}
	if err != nil {
		return models.FactoryState{}, false, fmt.Errorf("failed to get factory state: %w", err)
	}

	var state models.FactoryState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.FactoryState{}, false, fmt.Errorf("failed to unmarshal factory state: %w", err)
	}
	if state.Catalog == nil {
		state.Catalog = make(map[models.Kind]models.WasmHash)
	}
	if state.Slots == nil {
		state.Slots = make(map[models.Kind]string)
	}
	return state, true, nil
}

// PutState overwrites the factory state snapshot
func (p *Postgres) PutState(ctx context.Context, factory string, state models.FactoryState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal factory state: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO factory_state (factory, state) VALUES ($1, $2)
		ON CONFLICT (factory) DO UPDATE SET state = EXCLUDED.state
	`, factory, raw)
	if err != nil {
		return fmt.Errorf("failed to put factory state: %w", err)
	}
	return nil
}

// AppendRecord appends one deployment record to the registry
func (p *Postgres) AppendRecord(ctx context.Context, factory string, rec models.DeploymentRecord) error {
	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal record metadata: %w", err)
		}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO deployment_records (factory, address, kind, owner, created_at, ledger_seq, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, factory, rec.Address, string(rec.Kind), rec.Owner, rec.CreatedAt, int64(rec.LedgerSeq), metadata)
	if err != nil {
		return fmt.Errorf("failed to append deployment record: %w", err)
	}
	return nil
}

// Records returns the registry in append order
func (p *Postgres) Records(ctx context.Context, factory string) ([]models.DeploymentRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT address, kind, owner, created_at, ledger_seq, metadata
		FROM deployment_records
		WHERE factory = $1
		ORDER BY id
	`, factory)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment records: %w", err)
	}
	defer rows.Close()

	var records []models.DeploymentRecord
	for rows.Next() {
		var rec models.DeploymentRecord
		var kind string
		var ledgerSeq int64
		var metadata []byte

		if err := rows.Scan(&rec.Address, &kind, &rec.Owner, &rec.CreatedAt, &ledgerSeq, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan deployment record: %w", err)
		}
		rec.Kind = models.Kind(kind)
		rec.LedgerSeq = uint32(ledgerSeq)
		if metadata != nil {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal record metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deployment records: %w", err)
	}
	return records, nil
}

// HasSalt reports whether the salt was already consumed
func (p *Postgres) HasSalt(ctx context.Context, factory string, salt models.Salt) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM used_salts WHERE factory = $1 AND salt = $2)`,
		factory, salt.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check salt: %w", err)
	}
	return exists, nil
}

// MarkSalt records a consumed salt; rows are never deleted
func (p *Postgres) MarkSalt(ctx context.Context, factory string, salt models.Salt) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO used_salts (factory, salt) VALUES ($1, $2)
		ON CONFLICT (factory, salt) DO NOTHING
	`, factory, salt.String())
	if err != nil {
		return fmt.Errorf("failed to mark salt: %w", err)
	}
	return nil
}

// Ping verifies database connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool
func (p *Postgres) Close() {
	p.pool.Close()
}
