// Package syncclient posts acknowledgement batches to the sync server.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"medicine_reminder/internal/domain/acknowledgement"

	"golang.org/x/oauth2"
)

// ErrRejected is returned when the endpoint answers with a non-2xx status.
var ErrRejected = fmt.Errorf("sync endpoint rejected the batch")

// Client sends a whole batch in one POST. Any 2xx status confirms it.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New builds a client for endpoint. When token is set every request carries
// it as a bearer token.
func New(endpoint, token string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = timeout
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

func (c *Client) Send(ctx context.Context, records []acknowledgement.Record) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, bytes.TrimSpace(detail))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DialProber checks reachability of the sync host with a TCP dial.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

// NewDialProber derives host:port from the sync endpoint URL.
func NewDialProber(endpoint string, timeout time.Duration) (*DialProber, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid sync url %q", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return &DialProber{Addr: net.JoinHostPort(u.Hostname(), port), Timeout: timeout}, nil
}

func (p *DialProber) Probe(ctx context.Context) error {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
