package studygroup

import (
	"time"

	"github.com/trezcool/edportal/core"
)

// Statuses, as seen by a given actor.
const (
	StatusOpen   = "open"
	StatusJoined = "joined"
	StatusFull   = "full"
)

// Member roles
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

type Member struct {
	ID     string `json:"id"` // the member's user id
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	MaxMembers  int       `json:"max_members"`
	NextMeeting time.Time `json:"next_meeting"`
	Members     []Member  `json:"members"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (g Group) GetID() string { return g.ID }

func (g Group) IsFull() bool { return len(g.Members) >= g.MaxMembers }

func (g Group) IsMember(userID string) bool { return g.memberIndex(userID) >= 0 }

func (g Group) memberIndex(userID string) int {
	for i, m := range g.Members {
		if m.ID == userID {
			return i
		}
	}
	return -1
}

// Status is full or open, from the member count alone.
func (g Group) Status() string {
	if g.IsFull() {
		return StatusFull
	}
	return StatusOpen
}

// StatusFor is the status shown to userID: full, joined when they're a member, open otherwise.
func (g Group) StatusFor(userID string) string {
	switch {
	case g.IsFull():
		return StatusFull
	case g.IsMember(userID):
		return StatusJoined
	default:
		return StatusOpen
	}
}

// SpotsLeft is never negative.
func (g Group) SpotsLeft() int {
	if n := g.MaxMembers - len(g.Members); n > 0 {
		return n
	}
	return 0
}

func memberFrom(actor core.Actor, role string) Member {
	return Member{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar, Role: role}
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string    `json:"name" validate:"required,notblank,max=100"`
	Subject     string    `json:"subject" validate:"required,notblank,max=100"`
	Description string    `json:"description" validate:"omitempty,max=1000"`
	MaxMembers  int       `json:"max_members" validate:"required,min=1,max=500"`
	NextMeeting time.Time `json:"next_meeting"`
}

func (ng *NewGroup) Validate(v *core.Validator) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Subject = core.CleanString(ng.Subject)
	ng.Description = core.CleanString(ng.Description)
	return v.Struct(ng)
}

type QueryFilter struct {
	Search  string `query:"search"` // name, subject or description
	Subject string `query:"subject"`
	Status  string `query:"status"` // open | joined | full | all, as seen by the actor
}
