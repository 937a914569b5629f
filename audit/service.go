// api/audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder is the write-side interface the DAOs depend on. Every method takes
// the executor of the transaction carrying the change, so the event and the
// change commit or roll back together.
type Recorder interface {
	RecordCreate(ctx context.Context, ex Execer, actor Actor, resource Auditable) (*Event, error)
	RecordUpdate(ctx context.Context, ex Execer, actor Actor, resource Auditable, changed map[string][]any) (*Event, error)
	RecordDelete(ctx context.Context, ex Execer, actor Actor, resource Auditable) (*Event, error)
}

// Service records events to Postgres and, when an Indexer is configured,
// mirrors them into Elasticsearch after commit.
type Service struct {
	repo    *Repository
	indexer *Indexer
}

func NewService(repo *Repository, indexer *Indexer) *Service {
	return &Service{repo: repo, indexer: indexer}
}

func (s *Service) RecordCreate(ctx context.Context, ex Execer, actor Actor, resource Auditable) (*Event, error) {
	return s.record(ctx, ex, actor, resource, ActionCreate, nil)
}

// RecordUpdate writes an event only when changed is non-empty; a no-op save
// produces no audit trail.
func (s *Service) RecordUpdate(ctx context.Context, ex Execer, actor Actor, resource Auditable, changed map[string][]any) (*Event, error) {
	if len(changed) == 0 {
		return nil, nil
	}
	return s.record(ctx, ex, actor, resource, ActionUpdate, changed)
}

func (s *Service) RecordDelete(ctx context.Context, ex Execer, actor Actor, resource Auditable) (*Event, error) {
	return s.record(ctx, ex, actor, resource, ActionDelete, nil)
}

func (s *Service) record(ctx context.Context, ex Execer, actor Actor, resource Auditable, action Action, changed map[string][]any) (*Event, error) {
	event := &Event{
		ID:            uuid.New().String(),
		UserID:        actor.UserID,
		UserName:      actor.UserName,
		PortfolioID:   resource.AuditPortfolioID(),
		ApplicationID: resource.AuditApplicationID(),
		ResourceType:  resource.AuditResourceType(),
		ResourceID:    resource.AuditResourceID(),
		DisplayName:   resource.AuditDisplayName(),
		Action:        action,
		ChangedState:  changed,
		EventDetails:  resource.AuditEventDetails(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, ex, event); err != nil {
		return nil, err
	}
	return event, nil
}

// IndexCommitted mirrors events into Elasticsearch. Call after the owning
// transaction has committed; nil events (skipped no-ops) are ignored.
func (s *Service) IndexCommitted(events ...*Event) {
	if s.indexer == nil {
		return
	}
	for _, e := range events {
		if e != nil {
			s.indexer.IndexAsync(e)
		}
	}
}

// ListForPortfolio returns the portfolio's activity log, newest first.
func (s *Service) ListForPortfolio(ctx context.Context, portfolioID string, limit, offset int) ([]*Event, error) {
	return s.repo.ListForPortfolio(ctx, portfolioID, limit, offset)
}

// ListForApplication returns the application's activity log, newest first.
func (s *Service) ListForApplication(ctx context.Context, applicationID string, limit, offset int) ([]*Event, error) {
	return s.repo.ListForApplication(ctx, applicationID, limit, offset)
}

// List returns the platform-wide log within the window.
func (s *Service) List(ctx context.Context, from, to time.Time, limit, offset int) ([]*Event, error) {
	return s.repo.List(ctx, from, to, limit, offset)
}

// Search runs a free-text query against the Elasticsearch mirror. Without an
// indexer there is nothing to search.
func (s *Service) Search(ctx context.Context, text string, from, to time.Time, portfolioID string) ([]*Event, error) {
	if s.indexer == nil {
		return nil, nil
	}
	return s.indexer.Search(ctx, text, from, to, portfolioID)
}
