// Package meetsvc fabricates video meeting links. No remote calendar is involved.
package meetsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
)

const DefaultBaseURL = "https://meet.google.com"

type Stub struct {
	baseURL string
	log     core.Logger
}

var _ core.MeetingProvider = (*Stub)(nil)

func NewStub(conf *core.Config, log core.Logger) *Stub {
	baseURL := conf.MeetingBaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Stub{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// meetingCode returns a code shaped like "abcd-efgh-ijkl".
func meetingCode() string {
	return strings.Join([]string{
		random.String(4, random.Lowercase),
		random.String(4, random.Lowercase),
		random.String(4, random.Lowercase),
	}, "-")
}

func (s *Stub) CreateSession(ctx context.Context, title string, start, end time.Time, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "creating meet session")
	}
	if end.Before(start) {
		return "", errors.Errorf("creating meet session %q: ends before it starts", title)
	}
	link := fmt.Sprintf("%s/%s", s.baseURL, meetingCode())
	s.log.Debug("meet session created", map[string]interface{}{"title": title, "start": start, "end": end, "link": link})
	return link, nil
}

func (s *Stub) UpdateSession(ctx context.Context, id, title string, start, end time.Time, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "updating meet session")
	}
	if id == "" {
		return "", errors.New("updating meet session: empty id")
	}
	return fmt.Sprintf("%s/%s", s.baseURL, id), nil
}

func (s *Stub) DeleteSession(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, "deleting meet session")
	}
	s.log.Debug("meet session deleted", map[string]interface{}{"id": id})
	return true, nil
}

// Failing is a provider whose calls all fail with Err.
type Failing struct {
	Err error
}

var _ core.MeetingProvider = Failing{}

func (f Failing) CreateSession(context.Context, string, time.Time, time.Time, string) (string, error) {
	return "", f.Err
}

func (f Failing) UpdateSession(context.Context, string, string, time.Time, time.Time, string) (string, error) {
	return "", f.Err
}

func (f Failing) DeleteSession(context.Context, string) (bool, error) {
	return false, f.Err
}
