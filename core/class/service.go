package class

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var (
	ErrNotFound          = errors.New("class not found")
	ErrSessionNotDeleted = errors.New("meeting session could not be deleted")
)

type (
	Store = collection.Store[Class]

	Service struct {
		store    Store
		meet     core.MeetingProvider
		ids      core.IDGenerator
		validate *core.Validator
		log      core.Logger
		strict   bool
		loc      *time.Location
	}
)

func NewService(store Store, meet core.MeetingProvider, ids core.IDGenerator, validate *core.Validator, log core.Logger, conf *core.Config) *Service {
	return &Service{
		store:    store,
		meet:     meet,
		ids:      ids,
		validate: validate,
		log:      log,
		strict:   conf.Strict,
		loc:      time.UTC,
	}
}

// Create books a meeting session for the first class then stores the Class.
// When the meeting provider fails, nothing is stored.
func (svc *Service) Create(ctx context.Context, actor core.Actor, nc NewClass) (Class, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return Class{}, err
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Class{}, err
	}
	start, end, err := nc.Span(svc.loc)
	if err != nil {
		return Class{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: err.Error()})
	}

	link, err := svc.meet.CreateSession(ctx, nc.Name, start, end, nc.Description)
	if err != nil {
		svc.log.Error("creating meet session", err, map[string]interface{}{"class": nc.Name, "by": actor.ID})
		return Class{}, errors.Wrap(err, "creating meet session")
	}

	cls := Class{
		ID:          svc.ids.NewID(),
		Name:        nc.Name,
		Subject:     nc.Subject,
		Schedule:    nc.Schedule,
		Description: nc.Description,
		TeacherID:   actor.ID,
		Status:      StatusActive,
		NextClass:   start,
		Duration:    nc.Duration,
		MeetLink:    link,
	}
	if _, err = svc.store.Apply(func(classes []Class) ([]Class, error) {
		next, _, err := collection.Create(classes, cls, collection.Append)
		return next, err
	}); err != nil {
		if _, dErr := svc.meet.DeleteSession(ctx, sessionID(link)); dErr != nil {
			svc.log.Error("deleting orphaned meet session", dErr, map[string]interface{}{"link": link})
		}
		return Class{}, errors.Wrap(err, "creating class")
	}
	svc.log.Info("class created", map[string]interface{}{"id": cls.ID, "name": cls.Name, "by": actor.ID})
	return cls, nil
}

// Reschedule moves the next session of the class, updating its meeting.
// ok is false if there's no such class.
func (svc *Service) Reschedule(ctx context.Context, actor core.Actor, id string, start time.Time, duration int) (cls Class, ok bool, err error) {
	if err = core.RequireActor(actor, svc.strict); err != nil {
		return Class{}, false, err
	}
	if duration <= 0 {
		err = errors.New("duration must be positive")
		return Class{}, false, core.NewValidationError(err, core.FieldError{Field: "duration", Error: err.Error()})
	}
	cur, err := svc.GetByID(id)
	if err != nil {
		svc.log.Debug("reschedule skipped: class not found", map[string]interface{}{"id": id})
		return Class{}, false, nil
	}

	end := start.Add(time.Duration(duration) * time.Minute)
	link, err := svc.meet.UpdateSession(ctx, sessionID(cur.MeetLink), cur.Name, start, end, cur.Description)
	if err != nil {
		svc.log.Error("updating meet session", err, map[string]interface{}{"class": id, "by": actor.ID})
		return Class{}, false, errors.Wrap(err, "updating meet session")
	}

	_, err = svc.store.Apply(func(classes []Class) ([]Class, error) {
		var next []Class
		next, cls, ok = collection.Update(classes, id, func(c Class) Class {
			c.NextClass = start
			c.Duration = duration
			c.MeetLink = link
			return c
		})
		if !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	return cls, ok, err
}

// Update merges uc into the class matching id. ok is false if there's none.
func (svc *Service) Update(id string, uc UpdateClass) (cls Class, ok bool, err error) {
	if err = uc.Validate(svc.validate); err != nil {
		return Class{}, false, err
	}
	_, err = svc.store.Apply(func(classes []Class) ([]Class, error) {
		var next []Class
		if next, cls, ok = collection.Update(classes, id, uc.apply); !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	if !ok {
		svc.log.Debug("update skipped: class not found", map[string]interface{}{"id": id})
	}
	return cls, ok, err
}

// Remove cancels the class meeting then deletes the class.
// If the meeting can't be cancelled the class is kept.
func (svc *Service) Remove(ctx context.Context, id string) (bool, error) {
	cur, err := svc.GetByID(id)
	if err != nil {
		svc.log.Debug("remove skipped: class not found", map[string]interface{}{"id": id})
		return false, nil
	}

	if cur.MeetLink != "" {
		deleted, err := svc.meet.DeleteSession(ctx, sessionID(cur.MeetLink))
		if err == nil && !deleted {
			err = ErrSessionNotDeleted
		}
		if err != nil {
			svc.log.Error("deleting meet session", err, map[string]interface{}{"class": id})
			return false, errors.Wrap(err, "deleting meet session")
		}
	}

	var removed bool
	_, err = svc.store.Apply(func(classes []Class) ([]Class, error) {
		var next []Class
		if next, removed = collection.Remove(classes, id); !removed {
			return nil, collection.ErrSkip
		}
		return next, nil
	})
	return removed, err
}

func (svc *Service) GetByID(id string) (Class, error) {
	if c, ok := collection.Find(svc.store.GetAll().Items, id); ok {
		return c, nil
	}
	return Class{}, ErrNotFound
}

func (svc *Service) QueryAll() []Class {
	return svc.store.GetAll().Items
}

// List applies AND operation on available QueryFilter fields.
func (svc *Service) List(filter QueryFilter) []Class {
	return Filter(svc.store.GetAll().Items, filter)
}

// Filter is the pure form of List.
func Filter(classes []Class, filter QueryFilter) []Class {
	classes = collection.FilterBySearch(classes, filter.Search,
		func(c Class) string { return c.Name },
		func(c Class) string { return c.Subject })
	if filter.TeacherID != "" {
		classes = collection.Filter(classes, func(c Class) bool { return c.TeacherID == filter.TeacherID })
	}
	return collection.FilterByStatus(classes, core.CleanString(filter.Status, true /* lower */),
		func(c Class) string { return c.Status })
}

// Analytics summarizes the classes matching filter.
func (svc *Service) Analytics(filter QueryFilter) Analytics {
	return Summarize(svc.List(filter))
}

// Summarize never divides by zero: averages of no classes are 0.
func Summarize(classes []Class) Analytics {
	return Analytics{
		TotalClasses:      len(classes),
		Active:            collection.Count(classes, func(c Class) bool { return c.Status == StatusActive }),
		TotalStudents:     int(collection.Sum(classes, func(c Class) float64 { return float64(c.Students) })),
		TotalAssignments:  int(collection.Sum(classes, func(c Class) float64 { return float64(c.Assignments) })),
		AverageCompletion: collection.Average(classes, func(c Class) float64 { return c.Completion }),
		AverageScore: collection.AverageWhere(classes,
			func(c Class) bool { return c.Students > 0 },
			func(c Class) float64 { return c.AverageScore }),
	}
}

// sessionID is the last path segment of a meeting link.
func sessionID(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}
