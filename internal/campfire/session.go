// Package campfire is a stateful web-session client for the Campfire chat
// service. Campfire exposes no API: login, room discovery, posting and
// transcript listing are all plain HTTP requests whose responses are HTML
// meant for a browser. The Session owns the one cookie the service hands
// out and threads it through every subsequent request; everything typed
// that comes back out of this package was scraped from markup.
package campfire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jamesmacaulay/backfire/internal/network"
)

const userAgent = "Backfire/0.1 (https://github.com/jamesmacaulay/backfire)"

// HTTPDoer issues a single HTTP request. *network.Client satisfies it; tests
// substitute their own.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Session is the authenticated connection state for one chat account.
// All requests on a Session are serialized behind its mutex: the service
// replaces the session cookie on arbitrary responses, and interleaved
// requests could otherwise send a stale cookie.
type Session struct {
	base   *url.URL
	client HTTPDoer
	logger *zap.Logger

	mu            sync.Mutex
	cookie        string
	authenticated bool
}

type sessionOptions struct {
	ssl      bool
	proxyURL *url.URL
	timeout  time.Duration
	client   HTTPDoer
	logger   *zap.Logger
}

// Option configures a Session at construction time.
type Option func(*sessionOptions)

// WithSSL connects over HTTPS. Required for SSL-only accounts; certificate
// verification is disabled for the chat host (see network.ClientConfig).
func WithSSL() Option {
	return func(o *sessionOptions) { o.ssl = true }
}

// WithProxy routes requests through an HTTP proxy. user and password may be
// empty for an unauthenticated proxy.
func WithProxy(host string, port int, user, password string) Option {
	return func(o *sessionOptions) {
		proxyURL := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", host, port)}
		if user != "" {
			proxyURL.User = url.UserPassword(user, password)
		}
		o.proxyURL = proxyURL
	}
}

// WithTimeout bounds each individual request. The polling loop is
// unattended, so a hung request must eventually fail rather than stall it.
func WithTimeout(d time.Duration) Option {
	return func(o *sessionOptions) { o.timeout = d }
}

// WithHTTPClient substitutes the transport. Proxy, TLS and timeout options
// are ignored when set; the caller owns the client's configuration.
func WithHTTPClient(client HTTPDoer) Option {
	return func(o *sessionOptions) { o.client = client }
}

// WithLogger attaches a logger to the session.
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// New creates a Session for the account hosted at
// <subdomain>.campfirenow.com. No request is made until the first operation.
func New(subdomain string, opts ...Option) *Session {
	options := sessionOptions{timeout: network.DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	scheme := "http"
	if options.ssl {
		scheme = "https"
	}
	base := &url.URL{Scheme: scheme, Host: subdomain + ".campfirenow.com"}

	client := options.client
	if client == nil {
		cfg := network.NewDefaultClientConfig()
		cfg.RequestTimeout = options.timeout
		cfg.ProxyURL = options.proxyURL
		cfg.InsecureTLS = options.ssl
		cfg.Logger = options.logger
		client = network.NewClient(cfg)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		base:   base,
		client: client,
		logger: logger.Named("campfire"),
	}
}

// SSL reports whether the session talks to the service over HTTPS.
func (s *Session) SSL() bool {
	return s.base.Scheme == "https"
}

// Authenticated reports whether a Login has succeeded on this session.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Login authenticates the session. Success needs two checks: the login POST
// must redirect to the account root, and a follow-up GET of the root must
// answer 200. SSL-only accounts pass the first check and fail the second
// (they bounce non-SSL sessions to an error page after accepting the
// credentials), which is why the redirect alone is not trusted.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, _, err := s.performLocked(ctx, requestSpec{
		method: http.MethodPost,
		path:   "login",
		params: Params{
			"email_address": String(email),
			"password":      String(password),
		},
	})
	if err != nil {
		return err
	}
	if !Verify(resp, ExpectRedirectTo(s.rootURL())) {
		return ErrAuthenticationFailed
	}

	resp, _, err = s.performLocked(ctx, requestSpec{method: http.MethodGet})
	if err != nil {
		return err
	}
	if !Verify(resp, ExpectSuccess) {
		return ErrSSLRequired
	}

	s.authenticated = true
	s.logger.Debug("logged in", zap.String("account", s.base.Host))
	return nil
}

// Logout ends the session and reports whether the service acknowledged it
// with a redirect.
//
// Quirk preserved from the original client: the authenticated flag becomes
// the negation of that check, so a logout answered with anything but a
// redirect leaves the session marked authenticated. Unlike Login there is no
// second resource check; logout has no SSL-account case to disambiguate.
func (s *Session) Logout(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, _, err := s.performLocked(ctx, requestSpec{method: http.MethodGet, path: "logout"})
	if err != nil {
		return false, err
	}
	ok := Verify(resp, ExpectRedirect)
	s.authenticated = !ok
	return ok, nil
}

// Rooms lists every room linked from the lobby page.
func (s *Session) Rooms(ctx context.Context) ([]*Room, error) {
	doc, err := s.getDocument(ctx, "")
	if err != nil {
		return nil, err
	}
	listings := scrapeRooms(doc)
	if len(listings) == 0 && s.Authenticated() {
		// An authenticated lobby with zero rooms almost certainly means the
		// markup changed shape, not that the account has no rooms.
		s.logger.Warn("lobby scrape found no rooms")
	}
	rooms := make([]*Room, 0, len(listings))
	for _, listing := range listings {
		rooms = append(rooms, &Room{ID: listing.ID, Name: listing.Name, session: s})
	}
	return rooms, nil
}

// FindRoomByName returns the first room whose name equals name, or nil when
// no room matches.
func (s *Session) FindRoomByName(ctx context.Context, name string) (*Room, error) {
	rooms, err := s.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.Name == name {
			return room, nil
		}
	}
	return nil, nil
}

// CreateRoom creates a room and returns its handle. The creation response
// carries no usable structure, so the handle comes from re-scraping the
// lobby; an empty topic is sent as-is.
func (s *Session) CreateRoom(ctx context.Context, name, topic string) (*Room, error) {
	resp, _, err := s.perform(ctx, requestSpec{
		method: http.MethodPost,
		path:   "account/create/room?from=lobby",
		params: Params{
			"room": Group(map[string]string{"name": name, "topic": topic}),
		},
		ajax: true,
	})
	if err != nil {
		return nil, err
	}
	if !Verify(resp, ExpectSuccess) {
		return nil, fmt.Errorf("campfire: creating room %q: status %d", name, resp.StatusCode)
	}
	return s.FindRoomByName(ctx, name)
}

// FindOrCreateRoomByName finds a room by name, creating it when absent.
func (s *Session) FindOrCreateRoomByName(ctx context.Context, name string) (*Room, error) {
	room, err := s.FindRoomByName(ctx, name)
	if err != nil || room != nil {
		return room, err
	}
	return s.CreateRoom(ctx, name, "")
}

// Users lists the people currently chatting, deduplicated and sorted. With
// no arguments every room contributes; otherwise only rooms whose name is
// among roomNames do.
func (s *Session) Users(ctx context.Context, roomNames ...string) ([]string, error) {
	doc, err := s.getDocument(ctx, "")
	if err != nil {
		return nil, err
	}
	return sortedUnique(scrapeUsers(doc, roomNames)), nil
}

// AvailableTranscripts returns the dates of every available transcript,
// keyed by room id.
func (s *Session) AvailableTranscripts(ctx context.Context) (map[string][]time.Time, error) {
	doc, err := s.getDocument(ctx, "files%2Btranscripts")
	if err != nil {
		return nil, err
	}
	return scrapeTranscripts(doc), nil
}

// AvailableTranscriptsForRoom returns the transcript dates for one room, or
// nil when the listing has none for it.
func (s *Session) AvailableTranscriptsForRoom(ctx context.Context, roomID string) ([]time.Time, error) {
	doc, err := s.getDocument(ctx, "files%2Btranscripts?room_id="+url.QueryEscape(roomID))
	if err != nil {
		return nil, err
	}
	return scrapeTranscripts(doc)[roomID], nil
}

// getDocument fetches a page and parses it for scraping.
func (s *Session) getDocument(ctx context.Context, path string) (*goquery.Document, error) {
	_, body, err := s.perform(ctx, requestSpec{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("campfire: parsing %q response: %w", path, err)
	}
	return doc, nil
}

// requestSpec is a fully-specified logical request; perform turns it into
// HTTP. An empty path addresses the account root.
type requestSpec struct {
	method string
	path   string
	params Params
	ajax   bool
}

// perform issues one request under the session lock.
func (s *Session) perform(ctx context.Context, spec requestSpec) (*http.Response, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.performLocked(ctx, spec)
}

// performLocked builds, sends and drains one request. It is the single
// place requests gain the cookie, user-agent and AJAX headers, and the
// single place the cookie is replaced from a Set-Cookie response header,
// on every request type, not only login. Callers must hold s.mu.
func (s *Session) performLocked(ctx context.Context, spec requestSpec) (*http.Response, string, error) {
	var reqBody io.Reader
	if spec.method == http.MethodPost {
		reqBody = strings.NewReader(spec.params.Encode().Encode())
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, s.urlFor(spec.path), reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("campfire: building %s %q: %w", spec.method, spec.path, err)
	}

	req.Header.Set("User-Agent", userAgent)
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	if spec.method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if spec.ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.Header.Set("X-Prototype-Version", "1.5.1.1")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("campfire: %s %q: %w", spec.method, spec.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("campfire: reading %s %q response: %w", spec.method, spec.path, err)
	}

	if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
		s.cookie = cookie
	}

	return resp, string(body), nil
}

// urlFor returns the absolute URL for a path, which may already carry an
// encoded query. The empty path is the account root.
func (s *Session) urlFor(path string) string {
	return s.base.String() + "/" + path
}

// rootURL is the canonical absolute root the login redirect must match.
func (s *Session) rootURL() string {
	return s.urlFor("")
}

func sortedUnique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	unique := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		unique = append(unique, item)
	}
	sort.Strings(unique)
	return unique
}
