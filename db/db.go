// api/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/config"
	logger "github.com/ccpo-cloud/atat/logging"
)

var Postgres *sql.DB

// schema is applied idempotently on startup. Partial unique indexes keep at
// most one live role edge per (user, resource) pair and make invitation
// tokens single-valued.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    dod_id          TEXT NOT NULL UNIQUE,
    first_name      TEXT NOT NULL DEFAULT '',
    last_name       TEXT NOT NULL DEFAULT '',
    email           TEXT NOT NULL DEFAULT '',
    phone_number    TEXT NOT NULL DEFAULT '',
    permission_sets TEXT[] NOT NULL DEFAULT '{}',
    last_login_at   TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS portfolios (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS applications (
    id           TEXT PRIMARY KEY,
    portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    deleted_at   TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS applications_portfolio_name_idx
    ON applications (portfolio_id, name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS environments (
    id             TEXT PRIMARY KEY,
    application_id TEXT NOT NULL REFERENCES applications(id),
    portfolio_id   TEXT NOT NULL REFERENCES portfolios(id),
    name           TEXT NOT NULL,
    cloud_id       TEXT NOT NULL DEFAULT '',
    deleted_at     TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS environments_application_name_idx
    ON environments (application_id, name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS portfolio_roles (
    id              TEXT PRIMARY KEY,
    portfolio_id    TEXT NOT NULL REFERENCES portfolios(id),
    user_id         TEXT REFERENCES users(id),
    status          TEXT NOT NULL,
    permission_sets TEXT[] NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS portfolio_roles_user_idx
    ON portfolio_roles (portfolio_id, user_id) WHERE user_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS application_roles (
    id              TEXT PRIMARY KEY,
    application_id  TEXT NOT NULL REFERENCES applications(id),
    portfolio_id    TEXT NOT NULL REFERENCES portfolios(id),
    user_id         TEXT REFERENCES users(id),
    status          TEXT NOT NULL,
    permission_sets TEXT[] NOT NULL DEFAULT '{}',
    deleted_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS application_roles_user_idx
    ON application_roles (application_id, user_id)
    WHERE user_id IS NOT NULL AND deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS environment_roles (
    id                  TEXT PRIMARY KEY,
    environment_id      TEXT NOT NULL REFERENCES environments(id),
    application_role_id TEXT NOT NULL REFERENCES application_roles(id),
    role                TEXT NOT NULL,
    sync_status         TEXT NOT NULL DEFAULT 'pending',
    deleted_at          TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS environment_roles_member_idx
    ON environment_roles (environment_id, application_role_id)
    WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS invitations (
    id             TEXT PRIMARY KEY,
    resource_type  TEXT NOT NULL,
    role_id        TEXT NOT NULL,
    portfolio_id   TEXT NOT NULL REFERENCES portfolios(id),
    application_id TEXT,
    token          TEXT NOT NULL UNIQUE,
    status         TEXT NOT NULL,
    user_id        TEXT,
    dod_id         TEXT NOT NULL,
    first_name     TEXT NOT NULL DEFAULT '',
    last_name      TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL DEFAULT '',
    inviter_id     TEXT NOT NULL REFERENCES users(id),
    expires_at     TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS invitations_role_idx ON invitations (role_id, created_at);

CREATE TABLE IF NOT EXISTS task_orders (
    id                                    TEXT PRIMARY KEY,
    portfolio_id                          TEXT NOT NULL REFERENCES portfolios(id),
    number                                TEXT NOT NULL,
    contracting_officer_id                TEXT,
    contracting_officer_representative_id TEXT,
    security_officer_id                   TEXT,
    start_date                            TIMESTAMPTZ,
    end_date                              TIMESTAMPTZ,
    signed_at                             TIMESTAMPTZ,
    created_at                            TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at                            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS task_orders_number_idx
    ON task_orders (portfolio_id, number);

CREATE TABLE IF NOT EXISTS audit_events (
    id             TEXT PRIMARY KEY,
    user_id        TEXT,
    user_name      TEXT NOT NULL DEFAULT '',
    portfolio_id   TEXT,
    application_id TEXT,
    resource_type  TEXT NOT NULL,
    resource_id    TEXT NOT NULL,
    display_name   TEXT NOT NULL DEFAULT '',
    action         TEXT NOT NULL,
    changed_state  JSONB,
    event_details  JSONB,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_events_portfolio_idx
    ON audit_events (portfolio_id, created_at DESC);
CREATE INDEX IF NOT EXISTS audit_events_application_idx
    ON audit_events (application_id, created_at DESC);
`

func InitPostgres() error {
	var err error
	dsn := config.GetString("postgres.dsn")
	Postgres, err = sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	Postgres.SetMaxOpenConns(50)
	Postgres.SetMaxIdleConns(10)
	Postgres.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = Postgres.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if _, err = Postgres.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Successfully connected to Postgres")
	return nil
}

func ClosePostgres() {
	if Postgres != nil {
		if err := Postgres.Close(); err != nil {
			logger.Error("Error closing Postgres connection", zap.Error(err))
		} else {
			logger.Info("Postgres connection closed successfully")
		}
	}
}
