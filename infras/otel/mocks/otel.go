// Package mocks provides a no-op Otel for unit tests. Scopes remember the errors traced
// through them so tests can assert a failure was reported.
package mocks

import (
	"context"
	"sync"

	"cleanbook/infras/otel"
)

type Otel struct {
	mu     sync.Mutex
	errors []error
}

func NewOtel() *Otel {
	return &Otel{}
}

func (o *Otel) NewScope(ctx context.Context, _, _ string) (context.Context, otel.Scope) {
	return ctx, &scope{owner: o}
}

// Errors returns every error traced so far, in order.
func (o *Otel) Errors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]error(nil), o.errors...)
}

func (o *Otel) record(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.errors = append(o.errors, err)
}

type scope struct {
	owner *Otel
}

func (s *scope) End() {}

func (s *scope) TraceError(err error) {
	s.owner.record(err)
}

func (s *scope) TraceIfError(err error) {
	if err != nil {
		s.owner.record(err)
	}
}

func (s *scope) AddEvent(_ string) {}

func (s *scope) SetAttribute(_ string, _ any) {}

func (s *scope) SetAttributes(_ map[string]any) {}
