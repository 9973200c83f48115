// Package memstore is the in-memory collection.Store: one snapshot per collection, swapped atomically.
package memstore

import (
	"fmt"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

type (
	Store[T collection.Record] struct {
		name   string
		strict bool
		log    core.Logger

		writeMu sync.Mutex // serializes writers & their notifications
		mu      sync.RWMutex
		snap    collection.Snapshot[T]

		subsMu  sync.Mutex
		subs    []subscription[T]
		lastSub int
	}

	subscription[T any] struct {
		id int
		fn collection.Listener[T]
	}

	options struct {
		strict bool
		log    core.Logger
	}

	Option func(*options)
)

var _ collection.Store[record] = (*Store[record])(nil) // interface compliance check

// WithStrict makes Replace panic on duplicate ids instead of returning an error.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

func WithLogger(log core.Logger) Option {
	return func(o *options) { o.log = log }
}

// New returns a Store named `name` holding `items`. It panics if `items` hold duplicate ids.
func New[T collection.Record](name string, items []T, opts ...Option) *Store[T] {
	vala.BeginValidation().Validate(
		vala.StringNotEmpty(name, "name"),
	).CheckAndPanic()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := collection.Validate(items); err != nil {
		panic(errors.Wrapf(err, "memstore.New(%s)", name))
	}
	return &Store[T]{
		name:   name,
		strict: o.strict,
		log:    o.log,
		snap:   collection.Snapshot[T]{Items: collection.Clone(items)},
	}
}

func (s *Store[T]) Name() string { return s.name }

// GetAll returns the current snapshot. Items is a copy of the store's slice.
func (s *Store[T]) GetAll() collection.Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collection.Snapshot[T]{Version: s.snap.Version, Items: collection.Clone(s.snap.Items)}
}

func (s *Store[T]) Replace(next []T) (collection.Snapshot[T], error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.install(next)
}

func (s *Store[T]) Apply(fn func(current []T) ([]T, error)) (collection.Snapshot[T], error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.GetAll()
	next, err := fn(cur.Items)
	if err == collection.ErrSkip {
		return cur, nil
	}
	if err != nil {
		return cur, err
	}
	return s.install(next)
}

func (s *Store[T]) Subscribe(fn collection.Listener[T]) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.lastSub++
	id := s.lastSub
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// install swaps the snapshot then notifies subscribers. Callers hold writeMu.
func (s *Store[T]) install(next []T) (collection.Snapshot[T], error) {
	if err := collection.Validate(next); err != nil {
		err = errors.Wrapf(err, "replacing %s", s.name)
		if s.strict {
			panic(err)
		}
		return s.GetAll(), err
	}

	s.mu.Lock()
	s.snap = collection.Snapshot[T]{Version: s.snap.Version + 1, Items: collection.Clone(next)}
	snap := collection.Snapshot[T]{Version: s.snap.Version, Items: collection.Clone(s.snap.Items)}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debug(fmt.Sprintf("%s replaced", s.name), map[string]interface{}{"version": snap.Version, "len": snap.Len()})
	}
	s.notify(snap)
	return snap, nil
}

func (s *Store[T]) notify(snap collection.Snapshot[T]) {
	s.subsMu.Lock()
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// record is only used for the interface compliance check.
type record struct{ id string }

func (r record) GetID() string { return r.id }
