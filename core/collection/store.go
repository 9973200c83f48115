package collection

// Snapshot is the state of a collection at one version.
// Items must be treated as read-only.
type Snapshot[T any] struct {
	Version uint64
	Items   []T
}

func (s Snapshot[T]) Len() int { return len(s.Items) }

// Listener is notified with the snapshot installed by a mutation.
type Listener[T any] func(Snapshot[T])

// Store holds the authoritative snapshot of one collection.
// State only changes through whole collection replacement.
type Store[T Record] interface {
	Name() string
	GetAll() Snapshot[T]
	// Replace installs `next`; ids must be unique.
	Replace(next []T) (Snapshot[T], error)
	// Apply computes the next collection from the current one and installs it, with no writer in between.
	// When fn fails nothing is installed.
	Apply(fn func(current []T) ([]T, error)) (Snapshot[T], error)
	// Subscribe registers fn for every installed snapshot. Calling cancel unregisters it.
	// Listeners may read the store but must not mutate it.
	Subscribe(fn Listener[T]) (cancel func())
}

// ErrSkip can be returned by an Apply fn to leave the collection untouched without reporting a failure.
var ErrSkip = skip{}

type skip struct{}

func (skip) Error() string { return "no change" }
