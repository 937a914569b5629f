// api/audit/search.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
)

// Indexer mirrors committed audit events into Elasticsearch for free-text
// search. Postgres remains the source of truth; indexing happens after commit
// and failures are logged, never surfaced to the caller.
type Indexer struct {
	esClient *elasticsearch.Client
}

func NewIndexer(esURL string) (*Indexer, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Indexer{esClient: esClient}, nil
}

// Index writes one event document, keyed by the event ID so retries stay
// idempotent.
func (ix *Indexer) Index(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      "audit-events",
		DocumentID: event.ID,
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, ix.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// IndexAsync indexes on a detached context so a slow cluster cannot stall the
// request path.
func (ix *Indexer) IndexAsync(event *Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ix.Index(ctx, event); err != nil {
			logger.Error("Failed to index audit event",
				zap.String("eventID", event.ID),
				zap.Error(err))
		}
	}()
}

// Search runs a free-text query over indexed events within a time window,
// optionally restricted to one portfolio.
func (ix *Indexer) Search(ctx context.Context, text string, from, to time.Time, portfolioID string) ([]*Event, error) {
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"created_at": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}

	if text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"user_name", "display_name", "resource_type", "action"},
			},
		})
	}

	if portfolioID != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"portfolio_id": portfolioID,
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := ix.esClient.Search(
		ix.esClient.Search.WithContext(ctx),
		ix.esClient.Search.WithIndex("audit-events"),
		ix.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var rmap map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&rmap); err != nil {
		return nil, err
	}

	outer, ok := rmap["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: malformed search response: missing hits object", atat_errors.ErrInternalServer)
	}
	hits, ok := outer["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: malformed search response: missing hits list", atat_errors.ErrInternalServer)
	}

	events := make([]*Event, 0, len(hits))
	for _, hit := range hits {
		doc, ok := hit.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: malformed search hit", atat_errors.ErrInternalServer)
		}
		data, err := json.Marshal(doc["_source"])
		if err != nil {
			return nil, err
		}
		event := &Event{}
		if err := json.Unmarshal(data, event); err != nil {
			return nil, fmt.Errorf("%w: malformed search hit source: %v", atat_errors.ErrInternalServer, err)
		}
		events = append(events, event)
	}

	return events, nil
}
