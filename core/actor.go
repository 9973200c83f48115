package core

import (
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

// Actor is the identity an intent is performed on behalf of.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

func (a Actor) IsZero() bool { return a.ID == "" }

// RequireActor fails when `a` carries no identity.
// In strict mode (development builds) it panics: calling an actor-bound intent without one is a wiring mistake.
func RequireActor(a Actor, strict bool) error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(a.ID, "actor.ID"),
	).Check()
	if err == nil {
		return nil
	}
	err = errors.Wrap(ErrActorRequired, err.Error())
	if strict {
		panic(err)
	}
	return err
}
