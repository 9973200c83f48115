// Package testutil holds the fixtures shared by the application level tests.
package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/user"
)

// Now is the frozen time of the tests.
var Now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Config returns the configuration of a TEST environment without reading it.
func Config() *core.Config {
	conf := &core.Config{
		Env:            "TEST",
		TestMode:       true,
		AppName:        "Masomo Portal",
		Build:          "test",
		MeetingBaseURL: "https://meet.google.com",
		Seed:           true,
	}
	conf.Timer.Focus = 25 * time.Minute
	conf.Timer.Break = 5 * time.Minute
	return conf
}

func CreateUser(t *testing.T, svc *user.Service, name, email, pwd, role string) user.User {
	t.Helper()
	usr, err := svc.Create(user.NewUser{Name: name, Email: email, Password: pwd, Role: role})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
