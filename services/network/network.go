package network

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

const defaultProbeTimeout = 3 * time.Second

// Checker probes the remote API with a HEAD request.
type Checker struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func NewChecker(url string, client *http.Client) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{url: url, client: client, timeout: defaultProbeTimeout}
}

// Online reports whether the API answered; any HTTP status counts as online.
func (c *Checker) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return false
	}
	res, err := c.client.Do(req)
	if err != nil {
		return false
	}
	_ = res.Body.Close()
	return true
}

// Static is a checker with a fixed answer.
type Static struct {
	online atomic.Bool
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online(context.Context) bool { return s.online.Load() }

func (s *Static) Set(online bool) { s.online.Store(online) }
