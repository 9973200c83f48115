package community

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/trezcool/edportal/core"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = bluemonday.UGCPolicy()
)

// plain strips every tag from s.
func plain(s string) string {
	return core.CleanString(html.UnescapeString(plainPolicy.Sanitize(s)))
}

// rich keeps the safe subset of HTML in s.
func rich(s string) string {
	return core.CleanString(richPolicy.Sanitize(s))
}

type Answer struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    core.Actor `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type Question struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	Author    core.Actor `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	Likes     int        `json:"likes"`
	LikedBy   []string   `json:"-"`
	Answers   []Answer   `json:"answers"`
}

func (q Question) GetID() string { return q.ID }

// Comments is the number of answers.
func (q Question) Comments() int { return len(q.Answers) }

func (q Question) likedBy(userID string) bool {
	for _, id := range q.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// NewQuestion contains information needed to ask a Question.
type NewQuestion struct {
	Title   string   `json:"title" validate:"required,notblank,max=200"`
	Content string   `json:"content" validate:"required,notblank,max=5000"`
	Tags    []string `json:"tags" validate:"max=5,dive,notblank,max=30"`
}

func (nq *NewQuestion) Validate(v *core.Validator) error {
	nq.Title = plain(nq.Title)
	nq.Content = rich(nq.Content)
	nq.Tags = cleanTags(nq.Tags)
	return v.Struct(nq)
}

// cleanTags lowers, trims & dedupes tags, dropping blank ones.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(plain(strings.ToLower(tag)), "#"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// NewAnswer contains information needed to answer a Question.
type NewAnswer struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

func (na *NewAnswer) Validate(v *core.Validator) error {
	na.Content = rich(na.Content)
	return v.Struct(na)
}

type QueryFilter struct {
	Search   string `query:"search"` // title, content or tags
	Tag      string `query:"tag"`
	AuthorID string `query:"author"`
}

type Topic struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Contributor struct {
	Actor     core.Actor `json:"actor"`
	Questions int        `json:"questions"`
	Answers   int        `json:"answers"`
	Likes     int        `json:"likes"` // received
	Points    int        `json:"points"`
}

// contribution points
const (
	pointsPerQuestion = 10
	pointsPerAnswer   = 5
	pointsPerLike     = 1
)
