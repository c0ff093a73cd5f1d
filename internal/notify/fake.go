package notify

import (
	"context"
	"encoding/json"
	"sync"
)

// Sent is one recorded dispatch.
type Sent struct {
	Content string
	Embed   json.RawMessage
}

// FakeDispatcher records dispatches for test assertions.
type FakeDispatcher struct {
	mu sync.Mutex

	// Sends contains every dispatch, in order.
	Sends []Sent

	// Result is returned by Send. The zero value reports Delivered.
	Result Result
}

// NewFakeDispatcher creates a FakeDispatcher that reports Delivered.
func NewFakeDispatcher() *FakeDispatcher {
	return &FakeDispatcher{Result: Result{Outcome: Delivered, Status: 204}}
}

// Send records the dispatch.
func (f *FakeDispatcher) Send(ctx context.Context, content string, embed json.RawMessage) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sends = append(f.Sends, Sent{Content: content, Embed: embed})
	if f.Result.Outcome == "" {
		return Result{Outcome: Delivered}
	}
	return f.Result
}

// Count returns the number of dispatches.
func (f *FakeDispatcher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sends)
}
