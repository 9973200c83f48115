package collection

import (
	"sort"
	"strings"
)

// StatusAll is the status filter that keeps everything.
const StatusAll = "all"

// FilterBySearch keeps the records where any of `fields` contains `query` (case-insensitive).
// A blank query returns `c` as is.
func FilterBySearch[T any](c []T, query string, fields ...func(T) string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c
	}
	out := make([]T, 0, len(c))
	for _, rec := range c {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(rec)), query) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FilterByStatus keeps the records whose status equals `status`; StatusAll (or "") keeps all of them.
func FilterByStatus[T any](c []T, status string, statusOf func(T) string) []T {
	if status == "" || status == StatusAll {
		return c
	}
	return Filter(c, func(rec T) bool { return statusOf(rec) == status })
}

func Filter[T any](c []T, keep func(T) bool) []T {
	out := make([]T, 0, len(c))
	for _, rec := range c {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Aggregate folds `c` into a single value starting from `init`.
func Aggregate[T, A any](c []T, init A, reducer func(A, T) A) A {
	acc := init
	for _, rec := range c {
		acc = reducer(acc, rec)
	}
	return acc
}

func Sum[T any](c []T, value func(T) float64) float64 {
	return Aggregate(c, 0.0, func(acc float64, rec T) float64 { return acc + value(rec) })
}

func Count[T any](c []T, keep func(T) bool) int {
	return Aggregate(c, 0, func(acc int, rec T) int {
		if keep(rec) {
			return acc + 1
		}
		return acc
	})
}

// Average is 0 for an empty collection.
func Average[T any](c []T, value func(T) float64) float64 {
	if len(c) == 0 {
		return 0
	}
	return Sum(c, value) / float64(len(c))
}

// AverageWhere averages the records kept by `keep`; 0 when none is kept.
func AverageWhere[T any](c []T, keep func(T) bool, value func(T) float64) float64 {
	return Average(Filter(c, keep), value)
}

type Ranked[T any] struct {
	Rank  int // 1-based
	Score float64
	Item  T
}

// Rank sorts `c` by descending score. Ties keep their input order.
func Rank[T any](c []T, score func(T) float64) []Ranked[T] {
	ranked := make([]Ranked[T], len(c))
	for i, rec := range c {
		ranked[i] = Ranked[T]{Score: score(rec), Item: rec}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Top returns at most `limit` records; limit <= 0 means no limit.
func Top[T any](c []T, limit int) []T {
	if limit <= 0 || limit >= len(c) {
		return c
	}
	return c[:limit]
}
