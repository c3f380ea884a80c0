// Package offline implements a cache-first HTTP transport with background revalidation.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gimvicurnik/urnik/core"
)

const revalidateTimeout = 30 * time.Second

type Options struct {
	Prefix      string
	Version     int
	Origin      string   // base URL relative paths are resolved against
	OfflinePage string   // served to navigation requests when the network fails
	Assets      []string // precached into the main cache
	Data        []string // precached into the data cache

	Repo      core.CacheRepository
	Transport http.RoundTripper // defaults to http.DefaultTransport
	Bus       EventBus.Bus
	Logger    core.Logger
	Metrics   *Metrics
}

type Worker struct {
	opts      Options
	transport http.RoundTripper
	ctx       context.Context
	cancel    context.CancelFunc
	bg        sync.WaitGroup
}

var _ http.RoundTripper = (*Worker)(nil)

func New(opts Options) (*Worker, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(opts.Prefix, "Prefix"),
		vala.IsNotNil(opts.Repo, "Repo"),
		vala.IsNotNil(opts.Bus, "Bus"),
		vala.IsNotNil(opts.Logger, "Logger"),
	).Check()
	if err != nil {
		return nil, err
	}

	opts.Origin = strings.TrimRight(opts.Origin, "/")
	w := &Worker{opts: opts, transport: opts.Transport}
	if w.transport == nil {
		w.transport = http.DefaultTransport
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w, nil
}

func (w *Worker) MainCache() string {
	return w.opts.Prefix + "-main-v" + strconv.Itoa(w.opts.Version)
}

func (w *Worker) DataCache() string {
	return w.opts.Prefix + "-data-v" + strconv.Itoa(w.opts.Version)
}

// Subscribe calls `fn` for every published Message, one at a time.
func (w *Worker) Subscribe(fn func(Message)) error {
	return w.opts.Bus.SubscribeAsync(Topic, fn, true)
}

// Wait blocks until background revalidations and subscribers are done.
func (w *Worker) Wait() {
	w.bg.Wait()
	w.opts.Bus.WaitAsync()
}

// Close stops pending revalidations and waits for them.
func (w *Worker) Close() {
	w.cancel()
	w.Wait()
}

func (w *Worker) url(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return w.opts.Origin + path
}

// relPath returns `rawURL` relative to the origin, or "" when it is outside of it.
func (w *Worker) relPath(rawURL string) string {
	if !strings.HasPrefix(rawURL, w.opts.Origin) {
		return ""
	}
	return strings.TrimPrefix(rawURL, w.opts.Origin)
}

func (w *Worker) isData(req *http.Request) bool {
	if path := w.relPath(req.URL.String()); path != "" {
		for _, d := range w.opts.Data {
			if path == d {
				return true
			}
		}
	}
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

func (w *Worker) cacheFor(req *http.Request) string {
	if w.isData(req) {
		return w.DataCache()
	}
	return w.MainCache()
}

func (w *Worker) publish(msg Message) {
	w.opts.Bus.Publish(Topic, msg)
	w.opts.Metrics.broadcast()
}

// Install precaches the offline page, the assets and the data URLs.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.install(ctx); err != nil {
		return err
	}
	w.publish(Message{Date: time.Now()})
	return nil
}

// Activate deletes the caches of other versions.
func (w *Worker) Activate(ctx context.Context) error {
	caches, err := w.opts.Repo.ListCaches(ctx)
	if err != nil {
		return errors.Wrap(err, "listing caches")
	}
	for _, name := range caches {
		if !strings.HasPrefix(name, w.opts.Prefix+"-") || name == w.MainCache() || name == w.DataCache() {
			continue
		}
		if err = w.opts.Repo.DeleteCache(ctx, name); err != nil {
			return errors.Wrapf(err, "deleting cache %s", name)
		}
		w.opts.Logger.Info("deleted stale cache " + name)
	}
	return nil
}

// HandleMessage runs a cache action sent by a client. Once the caches are deleted the refresh
// is broadcast even when precaching fails; the precache error is returned.
func (w *Worker) HandleMessage(ctx context.Context, action string) error {
	var err error
	switch action {
	case ActionClearCacheAll:
		if err = w.opts.Repo.DeleteCache(ctx, w.MainCache()); err != nil {
			return errors.Wrap(err, "deleting main cache")
		}
		if err = w.opts.Repo.DeleteCache(ctx, w.DataCache()); err != nil {
			return errors.Wrap(err, "deleting data cache")
		}
		err = w.install(ctx)
		w.publish(Message{Date: time.Now(), RefreshAll: true})
	case ActionClearCacheData:
		if err = w.opts.Repo.DeleteCache(ctx, w.DataCache()); err != nil {
			return errors.Wrap(err, "deleting data cache")
		}
		err = w.precache(ctx, w.DataCache(), w.opts.Data)
		w.publish(Message{Date: time.Now(), RefreshData: true})
	default:
		return errors.Wrap(ErrUnknownAction, action)
	}
	return err
}

// install precaches the data URLs even when the main cache fails.
func (w *Worker) install(ctx context.Context) error {
	assets := w.opts.Assets
	if w.opts.OfflinePage != "" {
		assets = append([]string{w.opts.OfflinePage}, assets...)
	}
	mainErr := w.precache(ctx, w.MainCache(), assets)
	if err := w.precache(ctx, w.DataCache(), w.opts.Data); err != nil {
		if mainErr != nil {
			w.opts.Logger.Warn("precaching main cache failed", mainErr)
		}
		return err
	}
	return mainErr
}

func (w *Worker) precache(ctx context.Context, cache string, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url(path), nil)
			if err != nil {
				return errors.Wrapf(err, "precaching %s", path)
			}
			if cache == w.DataCache() {
				req.Header.Set("Accept", "application/json")
			}
			resp, err := w.fetch(req)
			if err != nil {
				return errors.Wrapf(err, "precaching %s", path)
			}
			if !success(resp.Status) {
				return errors.Errorf("precaching %s: unexpected status %d", path, resp.Status)
			}
			resp.Cache = cache
			return errors.Wrapf(w.opts.Repo.PutResponse(ctx, *resp), "storing %s", path)
		})
	}
	return g.Wait()
}

// RoundTrip serves GET requests from the caches and revalidates them in the background.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || req.Header.Get("Range") != "" {
		w.opts.Metrics.request("passthrough")
		return w.transport.RoundTrip(req)
	}

	ctx := req.Context()
	key := req.URL.String()
	if noCache(req) {
		w.opts.Metrics.request("bypass")
		return w.networkFirst(req)
	}

	cached, err := w.match(ctx, key)
	if err == nil {
		w.opts.Metrics.request("hit")
		w.revalidate(req, cached)
		return toResponse(req, cached), nil
	}
	if !errors.Is(err, core.ErrCacheMiss) {
		w.opts.Logger.Warn("reading cache: "+key, err)
	}

	w.opts.Metrics.request("miss")
	if w.isData(req) {
		return w.networkFirst(req)
	}
	resp, err := w.transport.RoundTrip(req)
	if err != nil {
		return w.fallback(req, err)
	}
	return resp, nil
}

// networkFirst fetches `req` and stores successful responses. The cached copy is only
// served when the network fails.
func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	fresh, err := w.fetch(req)
	if err != nil {
		if cached, cerr := w.match(req.Context(), req.URL.String()); cerr == nil {
			w.opts.Metrics.request("fallback")
			return toResponse(req, cached), nil
		}
		return w.fallback(req, err)
	}
	if success(fresh.Status) {
		fresh.Cache = w.cacheFor(req)
		if err = w.opts.Repo.PutResponse(req.Context(), *fresh); err != nil {
			w.opts.Logger.Warn("storing response: "+fresh.URL, err)
		}
	}
	return toResponse(req, *fresh), nil
}

func (w *Worker) fallback(req *http.Request, netErr error) (*http.Response, error) {
	if !isNavigation(req) || w.opts.OfflinePage == "" {
		return nil, netErr
	}
	page, err := w.opts.Repo.GetResponse(req.Context(), w.MainCache(), w.url(w.opts.OfflinePage))
	if err != nil {
		return nil, netErr
	}
	w.opts.Metrics.request("fallback")
	return toResponse(req, page), nil
}

func (w *Worker) match(ctx context.Context, key string) (core.CachedResponse, error) {
	for _, cache := range []string{w.DataCache(), w.MainCache()} {
		resp, err := w.opts.Repo.GetResponse(ctx, cache, key)
		if err == nil || !errors.Is(err, core.ErrCacheMiss) {
			return resp, err
		}
	}
	return core.CachedResponse{}, core.ErrCacheMiss
}

func (w *Worker) revalidate(req *http.Request, cached core.CachedResponse) {
	w.bg.Add(1)
	go func() {
		defer w.bg.Done()
		ctx, cancel := context.WithTimeout(w.ctx, revalidateTimeout)
		defer cancel()

		fresh, err := w.fetch(req.Clone(ctx))
		if err != nil || !success(fresh.Status) {
			w.opts.Metrics.revalidation("error")
			if err != nil {
				w.opts.Logger.Debug("revalidating "+cached.URL, err)
			}
			return
		}

		data := w.isData(req)
		fresh.Cache = w.cacheFor(req)
		if err = w.opts.Repo.PutResponse(ctx, *fresh); err != nil {
			w.opts.Metrics.revalidation("error")
			w.opts.Logger.Warn("storing response: "+fresh.URL, err)
			return
		}
		if bytes.Equal(cached.Body, fresh.Body) {
			w.opts.Metrics.revalidation("unchanged")
			return
		}
		w.opts.Metrics.revalidation("changed")
		if data {
			w.publish(Message{Date: time.Now(), Path: w.relPath(fresh.URL)})
		}
	}()
}

func (w *Worker) fetch(req *http.Request) (*core.CachedResponse, error) {
	resp, err := w.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	return &core.CachedResponse{
		URL:         req.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		StoredAt:    time.Now().UTC(),
	}, nil
}

func toResponse(req *http.Request, c core.CachedResponse) *http.Response {
	header := make(http.Header)
	if c.ContentType != "" {
		header.Set("Content-Type", c.ContentType)
	}
	header.Set("Content-Length", strconv.Itoa(len(c.Body)))
	if !c.StoredAt.IsZero() {
		header.Set("Date", c.StoredAt.UTC().Format(http.TimeFormat))
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.Status, http.StatusText(c.Status)),
		StatusCode:    c.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}

func noCache(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Cache-Control"), "no-cache")
}

func isNavigation(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func success(status int) bool {
	return status >= 200 && status <= 299
}
