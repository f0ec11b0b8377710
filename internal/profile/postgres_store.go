package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store. The whole profile
// is kept as one JSON record keyed by device, mirroring the single-key
// local storage contract.
type PostgresStore struct {
	pool     *pgxpool.Pool
	deviceID string
}

// NewPostgresStore creates a new PostgreSQL profile store for one device.
func NewPostgresStore(pool *pgxpool.Pool, deviceID string) *PostgresStore {
	return &PostgresStore{pool: pool, deviceID: deviceID}
}

// Load retrieves the profile record.
func (s *PostgresStore) Load(ctx context.Context) (*Profile, error) {
	query := `
		SELECT record
		FROM profiles
		WHERE device_id = $1
	`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, s.deviceID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	return decodeRecord(raw)
}

// Save upserts the profile record in a single statement.
func (s *PostgresStore) Save(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (device_id, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (device_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, s.deviceID, raw); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
