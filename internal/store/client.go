// Package store is the client side of the collection store: plain HTTP for
// writes and a WebSocket subscription delivering full-collection snapshots.
// Controllers never read their own writes back; they wait for the next push.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"petalboard/internal/models"

	"github.com/gorilla/websocket"
)

// Client talks to one petalboard server.
type Client struct {
	baseURL string
	httpc   *http.Client
	dialer  *websocket.Dialer

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the server at baseURL (e.g.
// "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
}

// SetToken installs the session token sent with every request. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the installed session token, or "".
func (c *Client) Token() string {
	return c.bearer()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Collection scopes the client to one named collection.
func (c *Client) Collection(name string) *Collection {
	return &Collection{client: c, name: name}
}

// Collection exposes the store contract for one collection: subscribe plus
// create/update/delete. All writes are observed through the subscription
// channel after the server re-pushes the snapshot.
type Collection struct {
	client *Client
	name   string
}

func (col *Collection) Name() string { return col.name }

// Create adds a new document and returns its server-assigned id.
func (col *Collection) Create(ctx context.Context, fields map[string]any) (string, error) {
	var created models.Document
	err := col.client.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("/api/collections/%s/documents", url.PathEscape(col.name)),
		models.DocumentCreate{Fields: fields}, &created)
	if err != nil {
		return "", &WriteError{Op: "create", Collection: col.name, Err: err}
	}
	return created.ID, nil
}

// Update merges the given fields into an existing document.
func (col *Collection) Update(ctx context.Context, id string, fields map[string]any) error {
	err := col.client.doJSON(ctx, http.MethodPatch,
		fmt.Sprintf("/api/collections/%s/documents/%s", url.PathEscape(col.name), url.PathEscape(id)),
		models.DocumentUpdate{Fields: fields}, nil)
	if err != nil {
		return &WriteError{Op: "update", Collection: col.name, ID: id, Err: err}
	}
	return nil
}

// Delete removes a document. Caller is responsible for the confirmation
// step; by the time this is called the decision is final.
func (col *Collection) Delete(ctx context.Context, id string) error {
	err := col.client.doJSON(ctx, http.MethodDelete,
		fmt.Sprintf("/api/collections/%s/documents/%s", url.PathEscape(col.name), url.PathEscape(id)),
		nil, nil)
	if err != nil {
		return &WriteError{Op: "delete", Collection: col.name, ID: id, Err: err}
	}
	return nil
}

// List fetches the current snapshot once, without subscribing.
func (col *Collection) List(ctx context.Context) ([]models.Document, error) {
	var snap models.Snapshot
	err := col.client.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("/api/collections/%s/documents", url.PathEscape(col.name)),
		nil, &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", col.name, err)
	}
	return snap.Documents, nil
}

// Subscribe opens the live snapshot stream for the collection. The returned
// subscription delivers the current snapshot first and then one snapshot per
// committed write until Close is called or the stream fails.
func (col *Collection) Subscribe(ctx context.Context) (*Subscription, error) {
	wsURL, err := websocketURL(col.client.baseURL, col.name)
	if err != nil {
		return nil, err
	}

	conn, _, err := col.client.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", col.name, err)
	}

	sub := &Subscription{
		conn:      conn,
		snapshots: make(chan []models.Document, 8),
	}
	go sub.readLoop()
	return sub, nil
}

// Subscription is one live snapshot stream.
type Subscription struct {
	conn      *websocket.Conn
	snapshots chan []models.Document

	mu      sync.Mutex
	err     error
	closed  bool
	closeFn sync.Once
}

// Snapshots returns the delivery channel. It is closed when the stream ends;
// check Err afterwards to distinguish Close from a transport failure.
func (s *Subscription) Snapshots() <-chan []models.Document {
	return s.snapshots
}

// Err reports why the stream ended, or nil after a clean Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription. Idempotent; MUST be called on screen
// teardown to release the connection.
func (s *Subscription) Close() {
	s.closeFn.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.conn.Close()
	})
}

func (s *Subscription) readLoop() {
	defer close(s.snapshots)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = fmt.Errorf("subscription stream failed: %w", err)
			}
			s.mu.Unlock()
			s.conn.Close()
			return
		}

		var snap models.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			// A malformed frame is a server bug; treat it as stream failure
			// rather than delivering a half-parsed snapshot.
			s.mu.Lock()
			s.err = fmt.Errorf("malformed snapshot: %w", err)
			s.mu.Unlock()
			s.conn.Close()
			return
		}

		docs := snap.Documents
		if docs == nil {
			docs = []models.Document{}
		}
		s.snapshots <- docs
	}
}

func websocketURL(baseURL, collection string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/collections/" + url.PathEscape(collection)
	return u.String(), nil
}

// doJSON performs one request/response cycle with optional JSON bodies.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrVanished)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
