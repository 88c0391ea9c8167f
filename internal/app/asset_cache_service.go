// internal/app/asset_cache_service.go
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"medicine_reminder/internal/domain/cache"
	"medicine_reminder/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ErrNotInstalled is returned when activating a generation whose install
// phase has not settled.
var ErrNotInstalled = fmt.Errorf("cache generation is not installed")

// rootDocuments are served, in order, to navigation requests the network
// cannot answer.
var rootDocuments = []string{"/index.html", "/"}

// Fetcher performs network requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// InstallReport lists what the install phase stored and what it skipped.
type InstallReport struct {
	Generation string
	Cached     []string
	Skipped    []string
}

// AssetCache serves static assets cache-first out of one active generation
// bucket and falls back to the network.
type AssetCache struct {
	store    cache.Store
	client   Fetcher
	origin   *url.URL
	manifest []string
	prefix   string
	logger   *logrus.Entry

	transition sync.Mutex // Serialises install -> activate -> evict

	mu     sync.RWMutex
	states map[string]cache.State
	active string
}

func NewAssetCache(store cache.Store, client Fetcher, origin string, manifest []string, prefix string, logger *logrus.Entry) (*AssetCache, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid asset origin %q", origin)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &AssetCache{
		store:    store,
		client:   client,
		origin:   u,
		manifest: manifest,
		prefix:   prefix,
		logger:   logger,
		states:   make(map[string]cache.State),
	}, nil
}

// BucketName returns the cache bucket holding generation.
func (c *AssetCache) BucketName(generation string) string {
	return c.prefix + "-" + generation
}

// State reports the lifecycle state of generation, or "" if unknown.
func (c *AssetCache) State(generation string) cache.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[generation]
}

// Active returns the generation currently serving requests.
func (c *AssetCache) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Install creates the generation bucket and caches the root document and
// every manifest asset fetched fresh from the origin. An asset that cannot
// be fetched or stored is skipped.
func (c *AssetCache) Install(ctx context.Context, generation string) (InstallReport, error) {
	c.transition.Lock()
	defer c.transition.Unlock()
	return c.install(ctx, generation)
}

// Activate makes an installed generation the serving one after deleting
// every other bucket. If eviction fails the previous generation keeps serving.
func (c *AssetCache) Activate(ctx context.Context, generation string) error {
	c.transition.Lock()
	defer c.transition.Unlock()
	return c.activate(ctx, generation)
}

// Update installs and activates generation as one ordered transition.
func (c *AssetCache) Update(ctx context.Context, generation string) (InstallReport, error) {
	c.transition.Lock()
	defer c.transition.Unlock()

	report, err := c.install(ctx, generation)
	if err != nil {
		return report, err
	}
	return report, c.activate(ctx, generation)
}

func (c *AssetCache) install(ctx context.Context, generation string) (InstallReport, error) {
	report := InstallReport{Generation: generation}
	bucket := c.BucketName(generation)
	logCtx := c.logger.WithField("bucket", bucket)

	c.setState(generation, cache.StateInstalling)
	if err := c.store.CreateBucket(ctx, bucket); err != nil {
		c.clearState(generation)
		return report, fmt.Errorf("failed to create cache bucket %s: %w", bucket, err)
	}

	for _, path := range c.installPaths() {
		if err := c.installAsset(ctx, bucket, path); err != nil {
			logCtx.WithError(err).Warnf("Skipping asset %s", path)
			report.Skipped = append(report.Skipped, path)
			continue
		}
		report.Cached = append(report.Cached, path)
	}

	c.setState(generation, cache.StateInstalled)
	logCtx.Infof("Installed cache generation %s: %d cached, %d skipped", generation, len(report.Cached), len(report.Skipped))
	return report, nil
}

func (c *AssetCache) installPaths() []string {
	seen := map[string]bool{"/": true}
	paths := []string{"/"}
	for _, p := range c.manifest {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

func (c *AssetCache) installAsset(ctx context.Context, bucket, path string) error {
	target := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	return c.store.Put(ctx, bucket, cache.Entry{
		Key:      cache.RequestKey(http.MethodGet, target),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	})
}

func (c *AssetCache) activate(ctx context.Context, generation string) error {
	state := c.State(generation)
	if state == cache.StateActive {
		return nil
	}
	if state != cache.StateInstalled {
		return fmt.Errorf("%w: %s is %q", ErrNotInstalled, generation, state)
	}

	bucket := c.BucketName(generation)
	buckets, err := c.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache buckets: %w", err)
	}
	var evicted []string
	for _, b := range buckets {
		if b == bucket {
			continue
		}
		if err := c.store.DeleteBucket(ctx, b); err != nil {
			return fmt.Errorf("failed to delete superseded bucket %s: %w", b, err)
		}
		evicted = append(evicted, b)
	}

	c.mu.Lock()
	for gen := range c.states {
		if gen != generation {
			c.states[gen] = cache.StateSuperseded
		}
	}
	c.states[generation] = cache.StateActive
	c.active = generation
	c.mu.Unlock()

	c.logger.WithField("bucket", bucket).Infof("Activated cache generation %s, evicted %d old buckets", generation, len(evicted))
	return nil
}

// Fetch answers an intercepted request. Before a generation is active every
// request goes to the network untouched.
func (c *AssetCache) Fetch(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	target := c.resolve(req.URL.RequestURI())

	c.mu.RLock()
	active := c.active
	c.mu.RUnlock()
	if active == "" {
		metrics.AssetRequests.WithLabelValues("bypass").Inc()
		return c.network(req, target)
	}
	bucket := c.BucketName(active)

	if req.Method == http.MethodGet {
		entry, err := c.store.Match(ctx, bucket, cache.RequestKey(req.Method, target))
		switch {
		case err == nil:
			metrics.AssetRequests.WithLabelValues("hit").Inc()
			return entryResponse(entry, req), nil
		case !errors.Is(err, cache.ErrMiss):
			c.logger.WithError(err).Warnf("Cache lookup failed for %s", target)
		}
	}

	resp, err := c.network(req, target)
	if err != nil {
		if isNavigation(req) {
			if fallback := c.rootDocument(ctx, bucket); fallback != nil {
				metrics.AssetRequests.WithLabelValues("fallback").Inc()
				return entryResponse(fallback, req), nil
			}
		}
		metrics.AssetRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.AssetRequests.WithLabelValues("miss").Inc()
	if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK || !c.sameOrigin(resp) {
		return resp, nil
	}
	return c.writeThrough(ctx, bucket, target, resp), nil
}

// writeThrough stores a copy of resp. Storage failures are logged and the
// response is still returned.
func (c *AssetCache) writeThrough(ctx context.Context, bucket, target string, resp *http.Response) *http.Response {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.logger.WithError(err).Warnf("Failed to read %s for caching", target)
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	err = c.store.Put(ctx, bucket, cache.Entry{
		Key:      cache.RequestKey(http.MethodGet, target),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	})
	if err != nil {
		c.logger.WithError(err).Warnf("Failed to cache %s", target)
	}
	return resp
}

func (c *AssetCache) rootDocument(ctx context.Context, bucket string) *cache.Entry {
	for _, path := range rootDocuments {
		entry, err := c.store.Match(ctx, bucket, cache.RequestKey(http.MethodGet, c.resolve(path)))
		if err == nil {
			return entry
		}
	}
	return nil
}

func (c *AssetCache) network(req *http.Request, target string) (*http.Response, error) {
	out, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
	if err != nil {
		return nil, err
	}
	out.Header = req.Header.Clone()
	return c.client.Do(out)
}

// ServeHTTP lets the cache sit in front of the asset origin.
func (c *AssetCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := c.Fetch(r)
	if err != nil {
		c.logger.WithError(err).Warnf("Asset request %s %s failed", r.Method, r.URL.Path)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		c.logger.WithError(err).Debug("Client went away while copying asset")
	}
}

func (c *AssetCache) resolve(requestURI string) string {
	ref, err := url.Parse(requestURI)
	if err != nil {
		return c.origin.String() + requestURI
	}
	u := *c.origin
	u.Path = c.origin.Path + ref.Path
	u.RawQuery = ref.RawQuery
	return u.String()
}

func (c *AssetCache) sameOrigin(resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return true
	}
	u := resp.Request.URL
	return u.Scheme == c.origin.Scheme && u.Host == c.origin.Host
}

func (c *AssetCache) setState(generation string, state cache.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[generation] = state
}

func (c *AssetCache) clearState(generation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, generation)
}

func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return req.Method == http.MethodGet && strings.Contains(req.Header.Get("Accept"), "text/html")
}

func entryResponse(e *cache.Entry, req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
