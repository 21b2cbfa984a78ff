// Package testutil holds in-memory repositories that follow the conditional
// update rules of the Mongo implementations, for use in service and handler tests.
package testutil

import (
	"context"
	"sync"
	"time"
)

type snapshotter interface {
	snapshot() (restore func())
}

// Store bundles one of every fake repository behind a shared transaction runner.
type Store struct {
	Bookings      *Bookings
	Technicians   *Technicians
	Offers        *Offers
	Earnings      *EarningsStore
	Settings      *Settings
	Notifications *Notifications
	Tx            *Tx
}

func NewStore() *Store {
	s := &Store{
		Bookings:      NewBookings(),
		Technicians:   NewTechnicians(),
		Offers:        NewOffers(),
		Earnings:      NewEarningsStore(),
		Settings:      NewSettings(),
		Notifications: NewNotifications(),
	}
	s.Tx = &Tx{members: []snapshotter{s.Bookings, s.Technicians, s.Offers, s.Earnings, s.Settings}}
	return s
}

type txKey struct{}

// Tx runs transactions one at a time and restores every member repository
// when fn fails. Nested calls join the outer transaction. Writes made outside
// a transaction while one is running are lost if it rolls back.
type Tx struct {
	mu      sync.Mutex
	members []snapshotter

	Commits   int
	Rollbacks int
}

func (t *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.members))
	for _, m := range t.members {
		restores = append(restores, m.snapshot())
	}
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for _, r := range restores {
			r()
		}
		t.Rollbacks++
		return err
	}
	t.Commits++
	return nil
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// faults lets a test make the next call to a method fail.
type faults struct {
	mu   sync.Mutex
	errs map[string]error
}

// FailNext makes the next call to method return err.
func (f *faults) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	f.errs[method] = err
}

func (f *faults) take(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.errs[method]
	delete(f.errs, method)
	return err
}
