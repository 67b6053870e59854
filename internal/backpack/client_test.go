package backpack_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmacaulay/backfire/internal/backpack"
)

const journalEntriesXML = `<?xml version="1.0" encoding="UTF-8"?>
<journal-entries>
  <journal-entry>
    <id type="integer">101</id>
    <body>Shipped the importer</body>
    <created-at type="datetime">2009-05-13T09:00:00Z</created-at>
    <updated-at type="datetime">2009-05-13T10:30:00Z</updated-at>
    <user>
      <id type="integer">5</id>
      <name>Alice</name>
    </user>
  </journal-entry>
  <journal-entry>
    <id type="integer">102</id>
    <body>Reviewing billing fixes</body>
    <created-at type="datetime">2009-05-14T08:00:00Z</created-at>
    <updated-at type="datetime">2009-05-14T08:00:00Z</updated-at>
    <user>
      <id type="integer">7</id>
      <name>Bob</name>
    </user>
  </journal-entry>
</journal-entries>`

const statusesXML = `<?xml version="1.0" encoding="UTF-8"?>
<statuses>
  <status>
    <id type="integer">31</id>
    <message>heads down on the importer</message>
    <updated-at type="datetime">2009-05-14T09:15:00Z</updated-at>
    <user>
      <id type="integer">5</id>
      <name>Alice</name>
    </user>
  </status>
</statuses>`

// rewritingDoer points the client's fixed backpackit.com URLs at a local
// httptest server.
type rewritingDoer struct {
	target *url.URL
}

func (d *rewritingDoer) Do(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = d.target.Scheme
	req.URL.Host = d.target.Host
	return http.DefaultClient.Do(req)
}

func newTestClient(t *testing.T, handler http.Handler) *backpack.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return backpack.NewClient("sample", "token123", backpack.WithHTTPClient(&rewritingDoer{target: target}))
}

func TestListJournalEntries(t *testing.T) {
	var gotBody string
	var gotContentType string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ws/journal_entries/list", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		fmt.Fprint(w, journalEntriesXML)
	}))

	entries, err := client.ListJournalEntries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "<request><token>token123</token></request>", gotBody)
	assert.Equal(t, "application/xml", gotContentType)

	require.Len(t, entries, 2)
	assert.Equal(t, 101, entries[0].ID)
	assert.Equal(t, backpack.User{ID: 5, Name: "Alice"}, entries[0].User)
	assert.Equal(t, "Shipped the importer", entries[0].Body)
	assert.Equal(t, time.Date(2009, 5, 13, 10, 30, 0, 0, time.UTC), entries[0].UpdatedAt)
	assert.Equal(t, backpack.User{ID: 7, Name: "Bob"}, entries[1].User)
}

func TestListStatuses(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/statuses/list", r.URL.Path)
		fmt.Fprint(w, statusesXML)
	}))

	statuses, err := client.ListStatuses(context.Background())
	require.NoError(t, err)

	require.Len(t, statuses, 1)
	assert.Equal(t, 31, statuses[0].ID)
	assert.Equal(t, "heads down on the importer", statuses[0].Message)
	assert.Equal(t, backpack.User{ID: 5, Name: "Alice"}, statuses[0].User)
}

func TestErrorResponses(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		_, err := client.ListStatuses(context.Background())
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("malformed XML", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<statuses><status>")
		}))
		_, err := client.ListStatuses(context.Background())
		assert.Error(t, err)
	})

	t.Run("invalid timestamp", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<statuses><status><id>1</id><updated-at>yesterday</updated-at></status></statuses>`)
		}))
		_, err := client.ListStatuses(context.Background())
		assert.ErrorContains(t, err, "invalid timestamp")
	})

	t.Run("empty listing", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<journal-entries></journal-entries>`)
		}))
		entries, err := client.ListJournalEntries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
