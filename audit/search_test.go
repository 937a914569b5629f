// api/audit/search_test.go
package audit

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atat_errors "github.com/ccpo-cloud/atat/errors"
)

// fakeESTransport serves a canned search response body.
type fakeESTransport struct {
	body string
}

func (t *fakeESTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Elastic-Product": []string{"Elasticsearch"},
		},
		Body: io.NopCloser(strings.NewReader(t.body)),
	}, nil
}

func newTestIndexer(t *testing.T, body string) *Indexer {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Transport: &fakeESTransport{body: body},
	})
	require.NoError(t, err)
	return &Indexer{esClient: client}
}

func TestSearchParsesHits(t *testing.T) {
	ix := newTestIndexer(t, `{
		"hits": {
			"hits": [
				{"_source": {"id": "e1", "resource_type": "portfolio", "resource_id": "p1", "action": "update", "user_name": "Ada Lovelace"}}
			]
		}
	}`)

	events, err := ix.Search(context.Background(), "Ada", time.Now().Add(-time.Hour), time.Now(), "")

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "portfolio", events[0].ResourceType)
}

func TestSearchMalformedResponseReturnsError(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"hits not an object", `{"hits": "nope"}`},
		{"hits list missing", `{"hits": {}}`},
		{"hit not an object", `{"hits": {"hits": ["nope"]}}`},
		{"source wrong shape", `{"hits": {"hits": [{"_source": {"changed_state": "nope"}}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ix := newTestIndexer(t, tc.body)

			_, err := ix.Search(context.Background(), "", time.Now().Add(-time.Hour), time.Now(), "")

			assert.ErrorIs(t, err, atat_errors.ErrInternalServer)
		})
	}
}
