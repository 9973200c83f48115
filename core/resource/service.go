package resource

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

type (
	Store = collection.Store[Resource]

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

func (svc *Service) today() time.Time {
	y, m, d := svc.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Add stores a new Resource authored by `actor`.
// Counters start at 0, the category is the subject & formats default to pdf.
func (svc *Service) Add(actor core.Actor, nr NewResource) (Resource, error) {
	return svc.add(actor, nr, func(r Resource) Resource { return r })
}

// AddFile is Add for an uploaded file: its type & size are derived from the file.
func (svc *Service) AddFile(actor core.Actor, nr NewResource, filename string, size int64) (Resource, error) {
	if size < 0 {
		err := errors.New("file size cannot be negative")
		return Resource{}, core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}
	nr.Type = FileType(filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if len(nr.Formats) == 0 && ext != "" {
		nr.Formats = []string{ext}
	}
	return svc.add(actor, nr, func(r Resource) Resource {
		r.FileName = filepath.Base(filename)
		r.FileSize = humanize.Bytes(uint64(size))
		return r
	})
}

func (svc *Service) add(actor core.Actor, nr NewResource, decorate func(Resource) Resource) (Resource, error) {
	if err := core.RequireActor(actor, svc.strict); err != nil {
		return Resource{}, err
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Resource{}, err
	}

	formats := defaultFormats
	if len(nr.Formats) > 0 {
		formats = nr.Formats
	}
	res := decorate(Resource{
		ID:          svc.ids.NewID(),
		Title:       nr.Title,
		Description: nr.Description,
		Type:        nr.Type,
		Subject:     nr.Subject,
		Category:    nr.Subject,
		Level:       nr.Level,
		Author:      actor.Name,
		AuthorID:    actor.ID,
		Status:      nr.Status,
		Access:      nr.Access,
		IsPremium:   nr.Access == AccessPremium,
		Price:       nr.Price,
		Formats:     append([]string(nil), formats...),
		LastUpdated: svc.today(),
	})

	if _, err := svc.store.Apply(func(resources []Resource) ([]Resource, error) {
		next, _, err := collection.Create(resources, res, collection.Append)
		return next, err
	}); err != nil {
		return Resource{}, errors.Wrap(err, "adding resource")
	}
	svc.log.Info("resource added", map[string]interface{}{"id": res.ID, "title": res.Title, "by": actor.ID})
	return res, nil
}

// transition applies fn to the resource matching id. ok is false if there's none.
func (svc *Service) transition(id, intent string, fn func(Resource) Resource) (res Resource, ok bool) {
	if _, err := svc.store.Apply(func(resources []Resource) ([]Resource, error) {
		var next []Resource
		if next, res, ok = collection.Update(resources, id, fn); !ok {
			return nil, collection.ErrSkip
		}
		return next, nil
	}); err != nil {
		svc.log.Error(intent+" failed", err, map[string]interface{}{"id": id})
		return Resource{}, false
	}
	if !ok {
		svc.log.Debug(intent+" skipped: resource not found", map[string]interface{}{"id": id})
	}
	return res, ok
}

func (svc *Service) RecordDownload(id string) (Resource, bool) {
	return svc.transition(id, "download", func(r Resource) Resource {
		r.Downloads++
		return r
	})
}

func (svc *Service) RecordView(id string) (Resource, bool) {
	return svc.transition(id, "view", func(r Resource) Resource {
		r.Views++
		return r
	})
}

// Rate folds `rating` (1 to 5) into the resource's average rating.
func (svc *Service) Rate(id string, rating float64) (Resource, bool, error) {
	if rating < 1 || rating > 5 {
		return Resource{}, false, core.NewValidationError(ErrInvalidRating, core.FieldError{Field: "rating", Error: ErrInvalidRating.Error()})
	}
	res, ok := svc.transition(id, "rate", func(r Resource) Resource {
		r.Rating = (r.Rating*float64(r.Ratings) + rating) / float64(r.Ratings+1)
		r.Ratings++
		return r
	})
	return res, ok, nil
}

// Update merges ur into the resource matching id. ok is false if there's none.
func (svc *Service) Update(id string, ur UpdateResource) (Resource, bool, error) {
	if err := ur.Validate(svc.validate); err != nil {
		return Resource{}, false, err
	}
	today := svc.today()
	res, ok := svc.transition(id, "update", func(r Resource) Resource {
		r = ur.apply(r)
		r.LastUpdated = today
		return r
	})
	return res, ok, nil
}

func (svc *Service) Remove(id string) bool {
	var removed bool
	if _, err := svc.store.Apply(func(resources []Resource) ([]Resource, error) {
		var next []Resource
		if next, removed = collection.Remove(resources, id); !removed {
			return nil, collection.ErrSkip
		}
		return next, nil
	}); err != nil {
		svc.log.Error("removing resource", err, map[string]interface{}{"id": id})
		return false
	}
	if !removed {
		svc.log.Debug("remove skipped: resource not found", map[string]interface{}{"id": id})
	}
	return removed
}

func (svc *Service) GetByID(id string) (Resource, error) {
	if r, ok := collection.Find(svc.store.GetAll().Items, id); ok {
		return r, nil
	}
	return Resource{}, ErrNotFound
}

func (svc *Service) List(filter QueryFilter) []Resource {
	return Filter(svc.store.GetAll().Items, filter)
}

// Filter applies AND operation on available QueryFilter fields.
func Filter(resources []Resource, filter QueryFilter) []Resource {
	resources = collection.FilterBySearch(resources, filter.Search,
		func(r Resource) string { return r.Title },
		func(r Resource) string { return r.Subject })
	resources = collection.FilterByStatus(resources, core.CleanString(filter.Type, true /* lower */),
		func(r Resource) string { return strings.ToLower(r.Type) })
	resources = collection.FilterByStatus(resources, core.CleanString(filter.Status, true /* lower */),
		func(r Resource) string { return r.Status })
	return collection.FilterByStatus(resources, core.CleanString(filter.Access, true /* lower */),
		func(r Resource) string { return r.Access })
}

func (svc *Service) Analytics(filter QueryFilter) Analytics {
	return Summarize(svc.List(filter))
}

// Summarize never divides by zero: the average rating of no (rated) resources is 0.
func Summarize(resources []Resource) Analytics {
	return Analytics{
		TotalResources: len(resources),
		Published:      collection.Count(resources, func(r Resource) bool { return r.Status == StatusPublished }),
		Premium:        collection.Count(resources, func(r Resource) bool { return r.IsPremium }),
		TotalDownloads: int(collection.Sum(resources, func(r Resource) float64 { return float64(r.Downloads) })),
		TotalViews:     int(collection.Sum(resources, func(r Resource) float64 { return float64(r.Views) })),
		AverageRating: collection.AverageWhere(resources,
			func(r Resource) bool { return r.Ratings > 0 || r.Rating > 0 },
			func(r Resource) float64 { return r.Rating }),
	}
}

// Popular ranks the published resources by downloads.
func (svc *Service) Popular(limit int) []collection.Ranked[Resource] {
	published := collection.Filter(svc.store.GetAll().Items, func(r Resource) bool { return r.Status == StatusPublished })
	ranked := collection.Rank(published, func(r Resource) float64 { return float64(r.Downloads) })
	return collection.Top(ranked, limit)
}
