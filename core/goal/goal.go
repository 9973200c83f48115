// Package goal keeps each user's study goals: add, toggle, delete.
package goal

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var errBlankText = errors.New("goal cannot be blank")

type Goal struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func (g Goal) GetID() string { return g.ID }

type (
	Store = collection.Store[Goal]

	Service struct {
		store  Store
		ids    core.IDGenerator
		log    core.Logger
		now    core.Clock
		strict bool
	}
)

func NewService(store Store, ids core.IDGenerator, log core.Logger, now core.Clock, conf *core.Config) *Service {
	return &Service{store: store, ids: ids, log: log, now: now, strict: conf.Strict}
}

// Add appends a goal owned by `actor`.
func (svc *Service) Add(actor core.Actor, text string) (Goal, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return Goal{}, err
	}
	text = core.CleanString(text)
	if text == "" {
		return Goal{}, core.NewValidationError(errBlankText, core.FieldError{Field: "text", Error: errBlankText.Error()})
	}

	g := Goal{ID: svc.ids.NewID(), OwnerID: actor.ID, Text: text, CreatedAt: svc.now()}
	if _, err := svc.store.Apply(func(goals []Goal) ([]Goal, error) {
		next, _, err := collection.Create(goals, g, collection.Append)
		return next, err
	}); err != nil {
		return Goal{}, errors.Wrap(err, "adding goal")
	}
	return g, nil
}

// Toggle flips the completion of the actor's goal `id`. ok is false if they own no such goal.
func (svc *Service) Toggle(actor core.Actor, id string) (g Goal, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Goal{}, false, err
	}
	_, err = svc.store.Apply(func(goals []Goal) ([]Goal, error) {
		if cur, found := collection.Find(goals, id); !found || cur.OwnerID != actor.ID {
			return nil, collection.ErrSkip
		}
		var next []Goal
		next, g, ok = collection.Update(goals, id, func(g Goal) Goal {
			g.Completed = !g.Completed
			return g
		})
		return next, nil
	})
	if !ok {
		svc.log.Debug("toggle skipped: goal not found", map[string]interface{}{"id": id, "actor": actor.ID})
	}
	return g, ok, err
}

// Delete removes the actor's goal `id`. It returns false if they own no such goal.
func (svc *Service) Delete(actor core.Actor, id string) (bool, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return false, err
	}
	var removed bool
	_, err := svc.store.Apply(func(goals []Goal) ([]Goal, error) {
		if cur, found := collection.Find(goals, id); !found || cur.OwnerID != actor.ID {
			return nil, collection.ErrSkip
		}
		var next []Goal
		next, removed = collection.Remove(goals, id)
		return next, nil
	})
	return removed, err
}

// List returns the actor's goals, oldest first.
func (svc *Service) List(actor core.Actor) []Goal {
	return collection.Filter(svc.store.GetAll().Items, func(g Goal) bool { return g.OwnerID == actor.ID })
}

// Progress is the share of the actor's goals that are completed, 0 when they have none.
func (svc *Service) Progress(actor core.Actor) float64 {
	return collection.Average(svc.List(actor), func(g Goal) float64 {
		if g.Completed {
			return 1
		}
		return 0
	})
}
