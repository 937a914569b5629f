// api/audit/repository.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists audit events in Postgres. Writes happen inside the
// caller's transaction so an event commits atomically with the change it
// describes; reads go through the pool directly.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert writes one event using the given executor. Pass the transaction that
// carries the audited change.
func (r *Repository) Insert(ctx context.Context, ex Execer, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var changedState, eventDetails []byte
	var err error
	if event.ChangedState != nil {
		if changedState, err = json.Marshal(event.ChangedState); err != nil {
			return fmt.Errorf("failed to marshal changed state: %w", err)
		}
	}
	if event.EventDetails != nil {
		if eventDetails, err = json.Marshal(event.EventDetails); err != nil {
			return fmt.Errorf("failed to marshal event details: %w", err)
		}
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, user_id, user_name, portfolio_id, application_id,
			 resource_type, resource_id, display_name, action,
			 changed_state, event_details, created_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''),
			$6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.UserID, event.UserName, event.PortfolioID,
		event.ApplicationID, event.ResourceType, event.ResourceID,
		event.DisplayName, event.Action, changedState, eventDetails,
		event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListForPortfolio returns the portfolio's events, newest first.
func (r *Repository) ListForPortfolio(ctx context.Context, portfolioID string, limit, offset int) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents+`
		WHERE portfolio_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		portfolioID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListForApplication returns the application's events, newest first.
func (r *Repository) ListForApplication(ctx context.Context, applicationID string, limit, offset int) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents+`
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		applicationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// List returns all events in the window, newest first. CCPO-only surface.
func (r *Repository) List(ctx context.Context, from, to time.Time, limit, offset int) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, selectEvents+`
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

const selectEvents = `
	SELECT id, COALESCE(user_id, ''), user_name,
	       COALESCE(portfolio_id, ''), COALESCE(application_id, ''),
	       resource_type, resource_id, display_name, action,
	       changed_state, event_details, created_at
	FROM audit_events`

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var e Event
		var changedState, eventDetails []byte
		err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.PortfolioID,
			&e.ApplicationID, &e.ResourceType, &e.ResourceID,
			&e.DisplayName, &e.Action, &changedState, &eventDetails,
			&e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if len(changedState) > 0 {
			if err := json.Unmarshal(changedState, &e.ChangedState); err != nil {
				return nil, fmt.Errorf("failed to unmarshal changed state: %w", err)
			}
		}
		if len(eventDetails) > 0 {
			if err := json.Unmarshal(eventDetails, &e.EventDetails); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event details: %w", err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
