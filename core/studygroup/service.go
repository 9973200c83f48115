package studygroup

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

type (
	Store = collection.Store[Group]

	Service struct {
		store    Store
		ids      core.IDGenerator
		validate *core.Validator
		log      core.Logger
		now      core.Clock
		strict   bool
	}
)

func NewService(store Store, ids core.IDGenerator, validate *core.Validator, log core.Logger, now core.Clock, conf *core.Config) *Service {
	return &Service{store: store, ids: ids, validate: validate, log: log, now: now, strict: conf.Strict}
}

// Create stores a new Group with `actor` as its leader and sole member.
func (svc *Service) Create(actor core.Actor, ng NewGroup) (Group, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return Group{}, err
	}
	if err := ng.Validate(svc.validate); err != nil {
		return Group{}, err
	}

	g := Group{
		ID:          svc.ids.NewID(),
		Name:        ng.Name,
		Subject:     ng.Subject,
		Description: ng.Description,
		MaxMembers:  ng.MaxMembers,
		NextMeeting: ng.NextMeeting,
		CreatedAt:   svc.now(),
	}
	_, err := svc.store.Apply(func(groups []Group) ([]Group, error) {
		var (
			next []Group
			err  error
		)
		next, g, err = create(groups, g, actor)
		return next, err
	})
	if err != nil {
		return Group{}, errors.Wrap(err, "creating study group")
	}
	svc.log.Info("study group created", map[string]interface{}{"id": g.ID, "name": g.Name, "by": actor.ID})
	return g, nil
}

// Join adds `actor` to the group. Unknown groups & existing members are no-ops (ok is false).
// Joining a full group fails with ErrGroupFull and leaves it untouched.
func (svc *Service) Join(actor core.Actor, id string) (g Group, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Group{}, false, err
	}

	_, err = svc.store.Apply(func(groups []Group) ([]Group, error) {
		var (
			next []Group
			jErr error
		)
		next, g, ok, jErr = join(groups, id, actor)
		if jErr != nil {
			return nil, jErr
		}
		if !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	if err != nil {
		return g, false, err
	}
	if !ok {
		svc.log.Debug("join skipped", map[string]interface{}{"group": id, "actor": actor.ID})
	}
	return g, ok, nil
}

// Leave removes `actor` from the group. Unknown groups & non members are no-ops (ok is false).
func (svc *Service) Leave(actor core.Actor, id string) (g Group, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Group{}, false, err
	}

	_, err = svc.store.Apply(func(groups []Group) ([]Group, error) {
		var next []Group
		if next, g, ok = leave(groups, id, actor); !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	if !ok {
		svc.log.Debug("leave skipped", map[string]interface{}{"group": id, "actor": actor.ID})
	}
	return g, ok, err
}

// Remove deletes the group and its members.
func (svc *Service) Remove(id string) bool {
	var removed bool
	if _, err := svc.store.Apply(func(groups []Group) ([]Group, error) {
		var next []Group
		if next, removed = collection.Remove(groups, id); !removed {
			return nil, collection.ErrSkip
		}
		return next, nil
	}); err != nil {
		svc.log.Error("removing study group", err, map[string]interface{}{"id": id})
		return false
	}
	if !removed {
		svc.log.Debug("remove skipped: study group not found", map[string]interface{}{"id": id})
	}
	return removed
}

func (svc *Service) GetByID(id string) (Group, error) {
	if g, ok := collection.Find(svc.store.GetAll().Items, id); ok {
		return g, nil
	}
	return Group{}, ErrNotFound
}

func (svc *Service) QueryAll() []Group {
	return svc.store.GetAll().Items
}

// List filters the groups as seen by `actor` (which may be the zero Actor).
func (svc *Service) List(actor core.Actor, filter QueryFilter) []Group {
	groups := svc.store.GetAll().Items
	groups = collection.FilterBySearch(groups, filter.Search,
		func(g Group) string { return g.Name },
		func(g Group) string { return g.Subject },
		func(g Group) string { return g.Description })
	if subject := core.CleanString(filter.Subject, true /* lower */); subject != "" && subject != collection.StatusAll {
		groups = collection.Filter(groups, func(g Group) bool { return strings.ToLower(g.Subject) == subject })
	}
	return collection.FilterByStatus(groups, core.CleanString(filter.Status, true /* lower */),
		func(g Group) string { return g.StatusFor(actor.ID) })
}

// Joined returns the groups `actor` is a member of.
func (svc *Service) Joined(actor core.Actor) []Group {
	return collection.Filter(svc.store.GetAll().Items, func(g Group) bool { return g.IsMember(actor.ID) })
}
