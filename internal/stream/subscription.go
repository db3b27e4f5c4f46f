// Package stream adapts the row-level change stream of the hosted database to
// per-table callback subscriptions. Each watched table is materialized as one
// Kafka topic carrying CDC-style JSON payloads.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/models"
)

// EventFilter restricts which operation kinds a subscription receives.
type EventFilter string

const (
	FilterInsert EventFilter = "INSERT"
	FilterUpdate EventFilter = "UPDATE"
	FilterDelete EventFilter = "DELETE"
	FilterAny    EventFilter = "ANY"
)

// State is the subscription lifecycle state.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateSubscribed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateSubscribed:
		return "subscribed"
	case StateFailed:
		return "failed"
	default:
		return "unsubscribed"
	}
}

// Source abstracts the underlying change-stream transport so subscriptions
// can be exercised without a broker.
type Source interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	Close() error
}

// Callbacks binds handlers to row operations. Nil handlers are skipped.
type Callbacks struct {
	OnInsert func(models.ChangeEvent)
	OnUpdate func(models.ChangeEvent)
	OnDelete func(models.ChangeEvent)
}

// Options configures one table subscription.
type Options struct {
	Table     string
	Filter    EventFilter // default FilterAny
	RowFilter func(models.ChangeEvent) bool
	Callbacks Callbacks
	Enabled   bool
}

// Subscription is one live binding of callbacks to a table's change stream.
// Exactly one source channel is held per subscription.
type Subscription struct {
	opts      Options
	source    Source
	logger    *logrus.Logger
	state     int32
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe opens a subscription on source according to opts. With Enabled
// false the returned subscription is inert and stays unsubscribed. A failure
// to start the stream is reported as an error and leaves the subscription in
// the failed state, which is equivalent to unsubscribed for retry purposes.
func Subscribe(ctx context.Context, source Source, opts Options, logger *logrus.Logger) (*Subscription, error) {
	if opts.Table == "" {
		return nil, errors.New("subscription requires a table name")
	}
	if opts.Filter == "" {
		opts.Filter = FilterAny
	}

	sub := &Subscription{opts: opts, source: source, logger: logger}
	if !opts.Enabled {
		return sub, nil
	}
	if source == nil {
		return nil, fmt.Errorf("subscription for table %s requires a source", opts.Table)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub.cancel = cancel
	sub.done = make(chan struct{})
	sub.setState(StateSubscribing)

	go sub.run(runCtx)
	return sub, nil
}

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Subscription) setState(st State) {
	atomic.StoreInt32(&s.state, int32(st))
}

// Close tears down the subscription. It is idempotent: calling it on an
// already-closed or never-started subscription is a no-op. After Close no
// further callbacks fire.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.source != nil {
			_ = s.source.Close()
		}
		if s.done != nil {
			<-s.done
		}
		s.setState(StateUnsubscribed)
	})
	// Repeated calls must still observe the terminal state.
	if s.State() != StateUnsubscribed {
		s.setState(StateUnsubscribed)
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	s.setState(StateSubscribed)
	s.logger.Infof("Subscribed to change stream for table %s (filter=%s)", s.opts.Table, s.opts.Filter)

	for {
		data, err := s.source.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.setState(StateFailed)
			s.logger.Errorf("Change stream for table %s failed: %v", s.opts.Table, err)
			return
		}

		ev, err := models.DecodeChangeEvent(data)
		if err != nil {
			s.logger.Errorf("Skipping malformed change event on table %s: %v", s.opts.Table, err)
			continue
		}
		if ev.Table != s.opts.Table {
			s.logger.Warnf("Dropping change event for table %s delivered on %s stream", ev.Table, s.opts.Table)
			continue
		}
		s.deliver(ev)
	}
}

func (s *Subscription) deliver(ev models.ChangeEvent) {
	if s.opts.Filter != FilterAny && EventFilter(ev.Type) != s.opts.Filter {
		return
	}
	if s.opts.RowFilter != nil && !s.opts.RowFilter(ev) {
		return
	}

	var cb func(models.ChangeEvent)
	switch ev.Type {
	case models.OpInsert:
		cb = s.opts.Callbacks.OnInsert
	case models.OpUpdate:
		cb = s.opts.Callbacks.OnUpdate
	case models.OpDelete:
		cb = s.opts.Callbacks.OnDelete
	}
	if cb == nil {
		return
	}

	// A panicking callback must not tear down the channel or block later
	// events for the table.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Callback panic on table %s (%s): %v", s.opts.Table, ev.Type, r)
		}
	}()
	cb(ev)
}
