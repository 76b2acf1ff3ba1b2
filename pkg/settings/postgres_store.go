package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

// Schema for the two preference tables. Applied by the host application's
// migration tooling; kept here as the single source of truth.
const Schema = `
CREATE TABLE IF NOT EXISTS notification_settings (
	user_id  TEXT NOT NULL,
	provider TEXT NOT NULL,
	type     TEXT NOT NULL,
	enabled  BOOLEAN NOT NULL,
	PRIMARY KEY (user_id, provider, type)
);

CREATE TABLE IF NOT EXISTS notification_class_mutes (
	user_id TEXT NOT NULL,
	class   TEXT NOT NULL,
	PRIMARY KEY (user_id, class)
);
`

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store on top of an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, user docevent.UserID, provider docevent.ProviderID, ruleID string) (bool, bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`SELECT enabled FROM notification_settings WHERE user_id = $1 AND provider = $2 AND type = $3`,
		string(user), string(provider), ruleID,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get notification setting: %w", err)
	}
	return enabled, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, setting Setting) error {
	if err := setting.validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notification_settings (user_id, provider, type, enabled)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, provider, type) DO UPDATE SET enabled = EXCLUDED.enabled`,
		string(setting.UserID), string(setting.Provider), setting.Type, setting.Enabled,
	)
	if err != nil {
		return fmt.Errorf("set notification setting: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_class_mutes WHERE user_id = $1 AND class = $2)`,
		string(user), string(class),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check class mute: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetClassMuted(ctx context.Context, user docevent.UserID, class docevent.Class, muted bool) error {
	if user == "" || class == "" {
		return ErrInvalidKey
	}

	var err error
	if muted {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO notification_class_mutes (user_id, class) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			string(user), string(class),
		)
	} else {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM notification_class_mutes WHERE user_id = $1 AND class = $2`,
			string(user), string(class),
		)
	}
	if err != nil {
		return fmt.Errorf("set class mute: %w", err)
	}
	return nil
}
