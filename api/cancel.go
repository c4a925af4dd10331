package api

import "sync/atomic"

// CancellationToken is the sole mechanism for aborting a long-running
// operation (save, search, build). There are no timeouts; callers cancel
// explicitly and every ingress operation checks between units of work.
type CancellationToken interface {
	IsCancelled() bool
	Cancel()
}

// NewCancellationToken returns a token usable from multiple goroutines.
func NewCancellationToken() CancellationToken {
	return &cancelToken{}
}

type cancelToken struct {
	cancelled atomic.Bool
}

func (c *cancelToken) IsCancelled() bool { return c.cancelled.Load() }
func (c *cancelToken) Cancel()           { c.cancelled.Store(true) }

// NeverCancelled is a CancellationToken that never reports cancellation,
// for callers that have no cancellation policy of their own.
var NeverCancelled CancellationToken = neverCancelled{}

type neverCancelled struct{}

func (neverCancelled) IsCancelled() bool { return false }
func (neverCancelled) Cancel()           {}
