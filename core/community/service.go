// Package community is the Q&A board: questions are asked, answered & liked; never edited.
package community

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var ErrNotFound = errors.New("question not found")

const justNow = "Just now"

type (
	Store = collection.Store[Question]

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

// AddQuestion prepends a new Question asked by `actor`.
func (svc *Service) AddQuestion(actor core.Actor, nq NewQuestion) (Question, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return Question{}, err
	}
	if err := nq.Validate(svc.validate); err != nil {
		return Question{}, err
	}

	q := Question{
		ID:        svc.ids.NewID(),
		Title:     nq.Title,
		Content:   nq.Content,
		Tags:      nq.Tags,
		Author:    actor,
		CreatedAt: svc.now(),
		Answers:   []Answer{},
	}
	if _, err := svc.store.Apply(func(questions []Question) ([]Question, error) {
		next, _, err := collection.Create(questions, q, collection.Prepend)
		return next, err
	}); err != nil {
		return Question{}, errors.Wrap(err, "adding question")
	}
	return q, nil
}

// AddAnswer appends an answer to the question `questionID`. ok is false if there's no such question.
func (svc *Service) AddAnswer(actor core.Actor, questionID string, na NewAnswer) (ans Answer, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Answer{}, false, err
	}
	if err = na.Validate(svc.validate); err != nil {
		return Answer{}, false, err
	}

	ans = Answer{ID: svc.ids.NewID(), Content: na.Content, Author: actor, CreatedAt: svc.now()}
	_, err = svc.store.Apply(func(questions []Question) ([]Question, error) {
		var next []Question
		next, _, ok = collection.Update(questions, questionID, func(q Question) Question {
			answers := make([]Answer, len(q.Answers), len(q.Answers)+1)
			copy(answers, q.Answers)
			q.Answers = append(answers, ans)
			return q
		})
		if !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	if err != nil || !ok {
		svc.log.Debug("answer skipped: question not found", map[string]interface{}{"id": questionID})
		return Answer{}, false, err
	}
	return ans, true, nil
}

// Like counts one like from `actor` on the question `id`.
// ok is false if there's no such question or the actor already liked it.
func (svc *Service) Like(actor core.Actor, id string) (q Question, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Question{}, false, err
	}
	_, err = svc.store.Apply(func(questions []Question) ([]Question, error) {
		if cur, found := collection.Find(questions, id); !found || cur.likedBy(actor.ID) {
			return nil, collection.ErrSkip
		}
		var next []Question
		next, q, ok = collection.Update(questions, id, func(q Question) Question {
			likedBy := make([]string, len(q.LikedBy), len(q.LikedBy)+1)
			copy(likedBy, q.LikedBy)
			q.LikedBy = append(likedBy, actor.ID)
			q.Likes++
			return q
		})
		return next, nil
	})
	if !ok {
		svc.log.Debug("like skipped", map[string]interface{}{"id": id, "actor": actor.ID})
	}
	return q, ok, err
}

func (svc *Service) QueryAll() []Question {
	return svc.store.GetAll().Items
}

func (svc *Service) GetByID(id string) (Question, error) {
	if q, ok := collection.Find(svc.store.GetAll().Items, id); ok {
		return q, nil
	}
	return Question{}, ErrNotFound
}

// List applies AND operation on available QueryFilter fields, most recent first.
// QueryFilter.Search does a case-insensitive match on the title, content or any tag.
func (svc *Service) List(filter QueryFilter) []Question {
	questions := collection.FilterBySearch(svc.store.GetAll().Items, core.CleanString(filter.Search),
		func(q Question) string { return q.Title },
		func(q Question) string { return q.Content },
		func(q Question) string { return strings.Join(q.Tags, " ") })

	if tag := strings.TrimPrefix(core.CleanString(filter.Tag, true /* lower */), "#"); tag != "" {
		questions = collection.Filter(questions, func(q Question) bool {
			for _, t := range q.Tags {
				if t == tag {
					return true
				}
			}
			return false
		})
	}
	if filter.AuthorID != "" {
		questions = collection.Filter(questions, func(q Question) bool { return q.Author.ID == filter.AuthorID })
	}
	return questions
}

// TimeAgo renders how long ago `t` was, relative to `now`.
func TimeAgo(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return justNow
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// TimeAgo renders how long ago q was asked.
func (svc *Service) TimeAgo(q Question) string {
	return TimeAgo(q.CreatedAt, svc.now())
}

// TrendingTopics ranks tags by the number of questions carrying them.
// Ties keep the order in which the tags were first seen, most recent question first.
func (svc *Service) TrendingTopics(limit int) []collection.Ranked[Topic] {
	var topics []Topic
	index := make(map[string]int)
	for _, q := range svc.store.GetAll().Items {
		for _, tag := range q.Tags {
			i, ok := index[tag]
			if !ok {
				i = len(topics)
				index[tag] = i
				topics = append(topics, Topic{Name: tag})
			}
			topics[i].Count++
		}
	}
	ranked := collection.Rank(topics, func(t Topic) float64 { return float64(t.Count) })
	return collection.Top(ranked, limit)
}

// Leaderboard ranks contributors by points earned for questions asked, answers given & likes received.
func (svc *Service) Leaderboard(limit int) []collection.Ranked[Contributor] {
	var contributors []Contributor
	index := make(map[string]int)
	get := func(a core.Actor) *Contributor {
		i, ok := index[a.ID]
		if !ok {
			i = len(contributors)
			index[a.ID] = i
			contributors = append(contributors, Contributor{Actor: a})
		}
		return &contributors[i]
	}

	for _, q := range svc.store.GetAll().Items {
		c := get(q.Author)
		c.Questions++
		c.Likes += q.Likes
		for _, ans := range q.Answers {
			get(ans.Author).Answers++
		}
	}
	for i := range contributors {
		c := &contributors[i]
		c.Points = c.Questions*pointsPerQuestion + c.Answers*pointsPerAnswer + c.Likes*pointsPerLike
	}

	ranked := collection.Rank(contributors, func(c Contributor) float64 { return float64(c.Points) })
	return collection.Top(ranked, limit)
}
