// Package seed loads the demo fixtures into the portal's services.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/class"
	"github.com/trezcool/edportal/core/community"
	"github.com/trezcool/edportal/core/resource"
	"github.com/trezcool/edportal/core/studygroup"
	"github.com/trezcool/edportal/core/user"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type (
	Fixtures struct {
		Password  string            `yaml:"password"`
		Users     []UserFixture     `yaml:"users"`
		Groups    []GroupFixture    `yaml:"groups"`
		Classes   []ClassFixture    `yaml:"classes"`
		Resources []ResourceFixture `yaml:"resources"`
		Questions []QuestionFixture `yaml:"questions"`
	}

	UserFixture struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Role     string `yaml:"role"`
		Location string `yaml:"location"`
		Bio      string `yaml:"bio"`
	}

	GroupFixture struct {
		Name        string    `yaml:"name"`
		Subject     string    `yaml:"subject"`
		Description string    `yaml:"description"`
		MaxMembers  int       `yaml:"max_members"`
		NextMeeting time.Time `yaml:"next_meeting"`
		Leader      string    `yaml:"leader"`
		Members     []string  `yaml:"members"`
	}

	ClassFixture struct {
		Name         string  `yaml:"name"`
		Subject      string  `yaml:"subject"`
		Schedule     string  `yaml:"schedule"`
		StartDate    string  `yaml:"start_date"`
		StartTime    string  `yaml:"start_time"`
		Duration     int     `yaml:"duration"`
		Description  string  `yaml:"description"`
		Teacher      string  `yaml:"teacher"`
		Status       string  `yaml:"status"`
		Students     int     `yaml:"students"`
		Completion   float64 `yaml:"completion"`
		Assignments  int     `yaml:"assignments"`
		AverageScore float64 `yaml:"average_score"`
	}

	ResourceFixture struct {
		Title       string    `yaml:"title"`
		Description string    `yaml:"description"`
		Subject     string    `yaml:"subject"`
		Level       string    `yaml:"level"`
		Author      string    `yaml:"author"`
		File        string    `yaml:"file"`
		Size        int64     `yaml:"size"`
		Status      string    `yaml:"status"`
		Access      string    `yaml:"access"`
		Price       float64   `yaml:"price"`
		Downloads   int       `yaml:"downloads"`
		Views       int       `yaml:"views"`
		Ratings     []float64 `yaml:"ratings"`
	}

	QuestionFixture struct {
		Title   string          `yaml:"title"`
		Content string          `yaml:"content"`
		Tags    []string        `yaml:"tags"`
		Author  string          `yaml:"author"`
		Answers []AnswerFixture `yaml:"answers"`
		Likes   []string        `yaml:"likes"`
	}

	AnswerFixture struct {
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	}
)

// Load parses the embedded fixtures.
func Load() (Fixtures, error) {
	return Parse(fixturesYAML)
}

func Parse(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, errors.Wrap(err, "parsing fixtures")
	}
	return f, nil
}

// Services are the services fixtures are written through.
type Services struct {
	Users     *user.Service
	Groups    *studygroup.Service
	Classes   *class.Service
	Resources *resource.Service
	Questions *community.Service
}

// Apply writes `f` through `svcs`, in dependency order: users first.
func Apply(ctx context.Context, f Fixtures, svcs Services) error {
	actors := make(map[string]core.Actor, len(f.Users))
	actor := func(email string) (core.Actor, error) {
		a, ok := actors[email]
		if !ok {
			return core.Actor{}, fmt.Errorf("unknown user %q", email)
		}
		return a, nil
	}

	for _, uf := range f.Users {
		usr, err := svcs.Users.Create(user.NewUser{
			Name: uf.Name, Email: uf.Email, Password: f.Password, Role: uf.Role, Location: uf.Location, Bio: uf.Bio,
		})
		if err != nil {
			return errors.Wrapf(err, "seeding user %q", uf.Email)
		}
		actors[usr.Email] = usr.Actor()
	}

	for _, gf := range f.Groups {
		if err := applyGroup(gf, svcs.Groups, actor); err != nil {
			return errors.Wrapf(err, "seeding group %q", gf.Name)
		}
	}
	for _, cf := range f.Classes {
		if err := applyClass(ctx, cf, svcs.Classes, actor); err != nil {
			return errors.Wrapf(err, "seeding class %q", cf.Name)
		}
	}
	for _, rf := range f.Resources {
		if err := applyResource(rf, svcs.Resources, actor); err != nil {
			return errors.Wrapf(err, "seeding resource %q", rf.Title)
		}
	}
	// questions are prepended: seed the last one first to keep the file's order
	for i := len(f.Questions) - 1; i >= 0; i-- {
		if err := applyQuestion(f.Questions[i], svcs.Questions, actor); err != nil {
			return errors.Wrapf(err, "seeding question %q", f.Questions[i].Title)
		}
	}
	return nil
}

type actorFunc func(email string) (core.Actor, error)

func applyGroup(gf GroupFixture, svc *studygroup.Service, actor actorFunc) error {
	leader, err := actor(gf.Leader)
	if err != nil {
		return err
	}
	g, err := svc.Create(leader, studygroup.NewGroup{
		Name: gf.Name, Subject: gf.Subject, Description: gf.Description, MaxMembers: gf.MaxMembers, NextMeeting: gf.NextMeeting,
	})
	if err != nil {
		return err
	}
	for _, email := range gf.Members {
		member, err := actor(email)
		if err != nil {
			return err
		}
		if _, _, err := svc.Join(member, g.ID); err != nil {
			return err
		}
	}
	return nil
}

func applyClass(ctx context.Context, cf ClassFixture, svc *class.Service, actor actorFunc) error {
	teacher, err := actor(cf.Teacher)
	if err != nil {
		return err
	}
	cls, err := svc.Create(ctx, teacher, class.NewClass{
		Name: cf.Name, Subject: cf.Subject, Schedule: cf.Schedule, StartDate: cf.StartDate, StartTime: cf.StartTime,
		Duration: cf.Duration, Description: cf.Description,
	})
	if err != nil {
		return err
	}

	uc := class.UpdateClass{
		Students:     null.IntFrom(cf.Students),
		Completion:   null.Float64From(cf.Completion),
		Assignments:  null.IntFrom(cf.Assignments),
		AverageScore: null.Float64From(cf.AverageScore),
	}
	if cf.Status != "" {
		uc.Status = null.StringFrom(cf.Status)
	}
	_, _, err = svc.Update(cls.ID, uc)
	return err
}

func applyResource(rf ResourceFixture, svc *resource.Service, actor actorFunc) error {
	author, err := actor(rf.Author)
	if err != nil {
		return err
	}
	nr := resource.NewResource{
		Title: rf.Title, Description: rf.Description, Subject: rf.Subject, Level: rf.Level,
		Status: rf.Status, Access: rf.Access, Price: rf.Price,
	}
	var res resource.Resource
	if rf.File != "" {
		res, err = svc.AddFile(author, nr, rf.File, rf.Size)
	} else {
		res, err = svc.Add(author, nr)
	}
	if err != nil {
		return err
	}

	for i := 0; i < rf.Downloads; i++ {
		svc.RecordDownload(res.ID)
	}
	for i := 0; i < rf.Views; i++ {
		svc.RecordView(res.ID)
	}
	for _, rating := range rf.Ratings {
		if _, _, err := svc.Rate(res.ID, rating); err != nil {
			return err
		}
	}
	return nil
}

func applyQuestion(qf QuestionFixture, svc *community.Service, actor actorFunc) error {
	author, err := actor(qf.Author)
	if err != nil {
		return err
	}
	q, err := svc.AddQuestion(author, community.NewQuestion{Title: qf.Title, Content: qf.Content, Tags: qf.Tags})
	if err != nil {
		return err
	}
	for _, af := range qf.Answers {
		a, err := actor(af.Author)
		if err != nil {
			return err
		}
		if _, _, err := svc.AddAnswer(a, q.ID, community.NewAnswer{Content: af.Content}); err != nil {
			return err
		}
	}
	for _, email := range qf.Likes {
		a, err := actor(email)
		if err != nil {
			return err
		}
		if _, _, err := svc.Like(a, q.ID); err != nil {
			return err
		}
	}
	return nil
}
