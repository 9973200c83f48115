package studygroup

import (
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var (
	ErrNotFound  = errors.New("study group not found")
	ErrGroupFull = errors.New("study group is full")
)

// create prepends a group led by `leader`.
func create(groups []Group, g Group, leader core.Actor) ([]Group, Group, error) {
	g.Members = []Member{memberFrom(leader, RoleLeader)}
	g.CreatedBy = leader.ID
	return collection.Create(groups, g, collection.Prepend)
}

// join adds `actor` as a member of group `id`.
// ok is false (and groups unchanged) if there's no such group or actor already is a member.
// A full group is never overfilled: ErrGroupFull is returned with groups unchanged.
func join(groups []Group, id string, actor core.Actor) (next []Group, g Group, ok bool, err error) {
	g, found := collection.Find(groups, id)
	if !found || g.IsMember(actor.ID) {
		return groups, g, false, nil
	}
	if g.IsFull() {
		return groups, g, false, ErrGroupFull
	}

	next, g, ok = collection.Update(groups, id, func(g Group) Group {
		members := make([]Member, 0, len(g.Members)+1)
		members = append(members, g.Members...)
		g.Members = append(members, memberFrom(actor, RoleMember))
		return g
	})
	return next, g, ok, nil
}

// leave removes `actor` from group `id`. ok is false (and groups unchanged) if actor isn't a member.
// When the leader leaves, the longest standing member takes over.
func leave(groups []Group, id string, actor core.Actor) (next []Group, g Group, ok bool) {
	g, found := collection.Find(groups, id)
	if !found {
		return groups, g, false
	}
	idx := g.memberIndex(actor.ID)
	if idx < 0 {
		return groups, g, false
	}

	return collection.Update(groups, id, func(g Group) Group {
		members := make([]Member, 0, len(g.Members)-1)
		members = append(members, g.Members[:idx]...)
		members = append(members, g.Members[idx+1:]...)
		if g.Members[idx].Role == RoleLeader && len(members) > 0 {
			members[0].Role = RoleLeader
		}
		g.Members = members
		return g
	})
}
