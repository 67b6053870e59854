// Package backpack is a minimal client for the journal side of the bot: the
// Backpack web service's journal-entry and status listings. Unlike the chat
// service this is a real (if dated) API, speaking token-authenticated XML
// over POST, so responses are decoded strictly and failures are errors
// rather than empty results.
package backpack

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamesmacaulay/backfire/internal/network"
)

// HTTPDoer issues a single HTTP request.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Backpack API for one account.
type Client struct {
	base   *url.URL
	token  string
	client HTTPDoer
	logger *zap.Logger
}

type clientOptions struct {
	ssl     bool
	timeout time.Duration
	client  HTTPDoer
	logger  *zap.Logger
}

// ClientOption configures a Client at construction time.
type ClientOption func(*clientOptions)

// WithSSL connects over HTTPS.
func WithSSL() ClientOption {
	return func(o *clientOptions) { o.ssl = true }
}

// WithTimeout bounds each individual request.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient substitutes the transport.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(o *clientOptions) { o.client = client }
}

// WithLogger attaches a logger to the client.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// NewClient creates a client for the account at <subdomain>.backpackit.com,
// authenticating every call with token.
func NewClient(subdomain, token string, opts ...ClientOption) *Client {
	options := clientOptions{timeout: network.DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	scheme := "http"
	if options.ssl {
		scheme = "https"
	}

	client := options.client
	if client == nil {
		cfg := network.NewDefaultClientConfig()
		cfg.RequestTimeout = options.timeout
		cfg.Logger = options.logger
		client = network.NewClient(cfg)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:   &url.URL{Scheme: scheme, Host: subdomain + ".backpackit.com"},
		token:  token,
		client: client,
		logger: logger.Named("backpack"),
	}
}

// ListJournalEntries returns every journal entry the account exposes.
func (c *Client) ListJournalEntries(ctx context.Context) ([]JournalEntry, error) {
	var listing xmlJournalEntries
	if err := c.post(ctx, "/ws/journal_entries/list", &listing); err != nil {
		return nil, err
	}

	entries := make([]JournalEntry, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		entries = append(entries, JournalEntry{
			ID:        e.ID,
			User:      User{ID: e.User.ID, Name: e.User.Name},
			Body:      e.Body,
			CreatedAt: e.CreatedAt.Time,
			UpdatedAt: e.UpdatedAt.Time,
		})
	}
	return entries, nil
}

// ListStatuses returns the current status of every member.
func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var listing xmlStatuses
	if err := c.post(ctx, "/ws/statuses/list", &listing); err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(listing.Statuses))
	for _, s := range listing.Statuses {
		statuses = append(statuses, Status{
			ID:        s.ID,
			User:      User{ID: s.User.ID, Name: s.User.Name},
			Message:   s.Message,
			UpdatedAt: s.UpdatedAt.Time,
		})
	}
	return statuses, nil
}

// post issues one token-authenticated API call and decodes the XML response
// into out.
func (c *Client) post(ctx context.Context, path string, out any) error {
	body := fmt.Sprintf("<request><token>%s</token></request>", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+path, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("backpack: building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backpack: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backpack: POST %s: status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backpack: reading %s response: %w", path, err)
	}
	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backpack: decoding %s response: %w", path, err)
	}
	return nil
}

// Wire format structs. Backpack timestamps are RFC3339 inside datetime
// elements.

type xmlTime struct {
	time.Time
}

func (t *xmlTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

type xmlUser struct {
	ID   int    `xml:"id"`
	Name string `xml:"name"`
}

type xmlJournalEntry struct {
	ID        int     `xml:"id"`
	Body      string  `xml:"body"`
	CreatedAt xmlTime `xml:"created-at"`
	UpdatedAt xmlTime `xml:"updated-at"`
	User      xmlUser `xml:"user"`
}

type xmlJournalEntries struct {
	XMLName xml.Name          `xml:"journal-entries"`
	Entries []xmlJournalEntry `xml:"journal-entry"`
}

type xmlStatus struct {
	ID        int     `xml:"id"`
	Message   string  `xml:"message"`
	UpdatedAt xmlTime `xml:"updated-at"`
	User      xmlUser `xml:"user"`
}

type xmlStatuses struct {
	XMLName  xml.Name    `xml:"statuses"`
	Statuses []xmlStatus `xml:"status"`
}
