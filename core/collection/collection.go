// Package collection holds the pure mutations and derived views shared by every entity collection,
// and the Store contract the storage layer implements.
package collection

import (
	"github.com/pkg/errors"
)

var (
	ErrEmptyID     = errors.New("record id is empty")
	ErrDuplicateID = errors.New("duplicate record id")
)

// Record is any addressable domain entity.
type Record interface {
	GetID() string
}

// Order tells Create where new records go.
type Order int

const (
	Append Order = iota
	Prepend
)

// Create returns a new collection holding `rec` at the position given by `order`.
// `c` is left untouched.
func Create[T Record](c []T, rec T, order Order) ([]T, T, error) {
	id := rec.GetID()
	if id == "" {
		return c, rec, ErrEmptyID
	}
	if Index(c, id) >= 0 {
		return c, rec, errors.Wrapf(ErrDuplicateID, "id %q", id)
	}

	next := make([]T, 0, len(c)+1)
	if order == Prepend {
		next = append(next, rec)
		next = append(next, c...)
	} else {
		next = append(next, c...)
		next = append(next, rec)
	}
	return next, rec, nil
}

// Update applies fn to a copy of the record matching `id`.
// When no record matches, `c` is returned unchanged and ok is false.
// fn receives a shallow copy: slices it holds must be replaced, not modified in place.
func Update[T Record](c []T, id string, fn func(T) T) (next []T, rec T, ok bool) {
	idx := Index(c, id)
	if idx < 0 {
		return c, rec, false
	}
	next = Clone(c)
	rec = fn(next[idx])
	next[idx] = rec
	return next, rec, true
}

// Remove returns a collection without the record matching `id`.
func Remove[T Record](c []T, id string) ([]T, bool) {
	idx := Index(c, id)
	if idx < 0 {
		return c, false
	}
	next := make([]T, 0, len(c)-1)
	next = append(next, c[:idx]...)
	next = append(next, c[idx+1:]...)
	return next, true
}

func Find[T Record](c []T, id string) (rec T, ok bool) {
	if idx := Index(c, id); idx >= 0 {
		return c[idx], true
	}
	return rec, false
}

func Index[T Record](c []T, id string) int {
	for i := range c {
		if c[i].GetID() == id {
			return i
		}
	}
	return -1
}

// Validate checks that every record has a non empty, unique id.
func Validate[T Record](c []T) error {
	seen := make(map[string]struct{}, len(c))
	for _, rec := range c {
		id := rec.GetID()
		if id == "" {
			return ErrEmptyID
		}
		if _, ok := seen[id]; ok {
			return errors.Wrapf(ErrDuplicateID, "id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func Clone[T any](c []T) []T {
	if c == nil {
		return nil
	}
	out := make([]T, len(c))
	copy(out, c)
	return out
}
