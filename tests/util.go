package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotServed is returned by StaticFetcher for unknown paths.
var ErrNotServed = errors.New("path not served")

// StaticFetcher serves fixed JSON values by path.
type StaticFetcher struct {
	mu        sync.Mutex
	responses map[string]interface{}
	errs      map[string]error
	calls     map[string]int
}

func NewStaticFetcher(responses map[string]interface{}) *StaticFetcher {
	if responses == nil {
		responses = make(map[string]interface{})
	}
	return &StaticFetcher{responses: responses, errs: make(map[string]error), calls: make(map[string]int)}
}

// Set replaces the value served for `path`.
func (f *StaticFetcher) Set(path string, v interface{}) {
	f.mu.Lock()
	f.responses[path] = v
	delete(f.errs, path)
	f.mu.Unlock()
}

// Fail makes `path` return `err`.
func (f *StaticFetcher) Fail(path string, err error) {
	f.mu.Lock()
	f.errs[path] = err
	f.mu.Unlock()
}

func (f *StaticFetcher) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *StaticFetcher) Get(ctx context.Context, path string, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls[path]++
	v, ok := f.responses[path]
	err := f.errs[path]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(ErrNotServed, path)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
