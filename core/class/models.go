package class

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edportal/core"
)

// Statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusUpcoming  = "upcoming"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject"`
	Schedule     string    `json:"schedule"`
	Description  string    `json:"description"`
	TeacherID    string    `json:"teacher_id"`
	Students     int       `json:"students"`
	Status       string    `json:"status"`
	NextClass    time.Time `json:"next_class"`
	Duration     int       `json:"duration"` // minutes
	Completion   float64   `json:"completion"`
	Assignments  int       `json:"assignments"`
	AverageScore float64   `json:"average_score"`
	MeetLink     string    `json:"meet_link"`
}

func (c Class) GetID() string { return c.ID }

// EndsAt is when the next session is over.
func (c Class) EndsAt() time.Time {
	return c.NextClass.Add(time.Duration(c.Duration) * time.Minute)
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Subject     string `json:"subject" validate:"required,notblank,max=100"`
	Schedule    string `json:"schedule" validate:"omitempty,max=100"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	Duration    int    `json:"duration" validate:"required,min=1,max=1440"` // minutes
	Description string `json:"description" validate:"omitempty,max=1000"`
}

func (nc *NewClass) Validate(v *core.Validator) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Schedule = core.CleanString(nc.Schedule)
	nc.StartDate = core.CleanString(nc.StartDate)
	nc.StartTime = core.CleanString(nc.StartTime)
	nc.Description = core.CleanString(nc.Description)
	return v.Struct(nc)
}

// Span returns the start & end of the first session, in `loc`.
func (nc NewClass) Span(loc *time.Location) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(dateLayout+" "+timeLayout, nc.StartDate+" "+nc.StartTime, loc)
	if err != nil {
		return start, end, errors.Wrap(err, "parsing start")
	}
	return start, start.Add(time.Duration(nc.Duration) * time.Minute), nil
}

// UpdateClass defines what may be modified on an existing Class. Unset fields are kept.
type UpdateClass struct {
	Name         null.String  `json:"name" validate:"omitempty,max=100"`
	Subject      null.String  `json:"subject" validate:"omitempty,max=100"`
	Schedule     null.String  `json:"schedule" validate:"omitempty,max=100"`
	Description  null.String  `json:"description" validate:"omitempty,max=1000"`
	Status       null.String  `json:"status" validate:"omitempty,oneof=active completed upcoming"`
	Students     null.Int     `json:"students" validate:"omitempty,min=0"`
	Completion   null.Float64 `json:"completion" validate:"omitempty,min=0,max=100"`
	Assignments  null.Int     `json:"assignments" validate:"omitempty,min=0"`
	AverageScore null.Float64 `json:"average_score" validate:"omitempty,min=0,max=100"`
}

func (uc *UpdateClass) Validate(v *core.Validator) error {
	required := []struct {
		fld string
		s   *null.String
	}{{"name", &uc.Name}, {"subject", &uc.Subject}}
	for _, r := range required {
		if fld, s := r.fld, r.s; s.Valid {
			s.String = core.CleanString(s.String)
			if s.String == "" {
				err := errors.Errorf("%s cannot be blank", fld)
				return core.NewValidationError(err, core.FieldError{Field: fld, Error: err.Error()})
			}
		}
	}
	if uc.Status.Valid {
		uc.Status.String = core.CleanString(uc.Status.String, true /* lower */)
	}
	return v.Struct(uc)
}

func (uc UpdateClass) apply(c Class) Class {
	if uc.Name.Valid {
		c.Name = uc.Name.String
	}
	if uc.Subject.Valid {
		c.Subject = uc.Subject.String
	}
	if uc.Schedule.Valid {
		c.Schedule = core.CleanString(uc.Schedule.String)
	}
	if uc.Description.Valid {
		c.Description = core.CleanString(uc.Description.String)
	}
	if uc.Status.Valid {
		c.Status = uc.Status.String
	}
	if uc.Students.Valid {
		c.Students = uc.Students.Int
	}
	if uc.Completion.Valid {
		c.Completion = uc.Completion.Float64
	}
	if uc.Assignments.Valid {
		c.Assignments = uc.Assignments.Int
	}
	if uc.AverageScore.Valid {
		c.AverageScore = uc.AverageScore.Float64
	}
	return c
}

type QueryFilter struct {
	Search    string `query:"search"` // name or subject
	Status    string `query:"status"` // active | completed | upcoming | all
	TeacherID string `query:"teacher"`
}

type Analytics struct {
	TotalClasses      int     `json:"total_classes"`
	Active            int     `json:"active"`
	TotalStudents     int     `json:"total_students"`
	TotalAssignments  int     `json:"total_assignments"`
	AverageCompletion float64 `json:"average_completion"`
	AverageScore      float64 `json:"average_score"`
}
