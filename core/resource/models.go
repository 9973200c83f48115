package resource

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edportal/core"
)

// Statuses
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Access levels
const (
	AccessFree    = "free"
	AccessPremium = "premium"
)

// Types
const (
	TypePDF          = "PDF"
	TypeDocument     = "Document"
	TypePresentation = "Presentation"
	TypeSpreadsheet  = "Spreadsheet"
	TypeVideo        = "Video"
	TypeImage        = "Image"
)

var (
	extTypes = map[string]string{
		"pdf":  TypePDF,
		"doc":  TypeDocument,
		"docx": TypeDocument,
		"ppt":  TypePresentation,
		"pptx": TypePresentation,
		"xls":  TypeSpreadsheet,
		"xlsx": TypeSpreadsheet,
		"mp4":  TypeVideo,
		"mov":  TypeVideo,
		"jpg":  TypeImage,
		"jpeg": TypeImage,
		"png":  TypeImage,
	}

	defaultFormats = []string{"pdf"}
)

// FileType maps a file name to a resource type by its extension. Unknown extensions are Documents.
func FileType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if typ, ok := extTypes[ext]; ok {
		return typ
	}
	return TypeDocument
}

type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Subject     string    `json:"subject"`
	Category    string    `json:"category"`
	Level       string    `json:"level"`
	Author      string    `json:"author"`
	AuthorID    string    `json:"author_id"`
	Status      string    `json:"status"`
	Access      string    `json:"access"`
	IsPremium   bool      `json:"is_premium"`
	Price       float64   `json:"price"`
	Formats     []string  `json:"formats"`
	FileName    string    `json:"file_name"`
	FileSize    string    `json:"file_size"` // humanized, eg. "2.4 MB"
	Downloads   int       `json:"downloads"`
	Views       int       `json:"views"`
	Rating      float64   `json:"rating"`
	Ratings     int       `json:"ratings"` // number of ratings Rating averages
	LastUpdated time.Time `json:"last_updated"`
}

func (r Resource) GetID() string { return r.ID }

// NewResource contains information needed to create a new Resource.
type NewResource struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Type        string   `json:"type" validate:"omitempty,max=50"`
	Subject     string   `json:"subject" validate:"required,notblank,max=100"`
	Level       string   `json:"level" validate:"omitempty,max=50"`
	Status      string   `json:"status" validate:"omitempty,oneof=published draft"`
	Access      string   `json:"access" validate:"omitempty,oneof=free premium"`
	Price       float64  `json:"price" validate:"min=0"`
	Formats     []string `json:"formats" validate:"omitempty,dive,notblank"`
}

func (nr *NewResource) Validate(v *core.Validator) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.Type = core.CleanString(nr.Type)
	nr.Subject = core.CleanString(nr.Subject)
	nr.Level = core.CleanString(nr.Level)
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.Access = core.CleanString(nr.Access, true /* lower */)
	if nr.Status == "" {
		nr.Status = StatusPublished
	}
	if nr.Access == "" {
		nr.Access = AccessFree
	}
	if nr.Type == "" {
		nr.Type = TypeDocument
	}
	return v.Struct(nr)
}

// UpdateResource defines what may be modified on an existing Resource. Unset fields are kept.
type UpdateResource struct {
	Title       null.String  `json:"title" validate:"omitempty,max=200"`
	Description null.String  `json:"description" validate:"omitempty,max=2000"`
	Level       null.String  `json:"level" validate:"omitempty,max=50"`
	Status      null.String  `json:"status" validate:"omitempty,oneof=published draft"`
	Access      null.String  `json:"access" validate:"omitempty,oneof=free premium"`
	Price       null.Float64 `json:"price" validate:"omitempty,min=0"`
}

var errBlankTitle = errors.New("title cannot be blank")

func (ur *UpdateResource) Validate(v *core.Validator) error {
	if ur.Title.Valid {
		ur.Title.String = core.CleanString(ur.Title.String)
		if ur.Title.String == "" {
			return core.NewValidationError(errBlankTitle, core.FieldError{Field: "title", Error: errBlankTitle.Error()})
		}
	}
	if ur.Status.Valid {
		ur.Status.String = core.CleanString(ur.Status.String, true /* lower */)
	}
	if ur.Access.Valid {
		ur.Access.String = core.CleanString(ur.Access.String, true /* lower */)
	}
	return v.Struct(ur)
}

func (ur UpdateResource) apply(r Resource) Resource {
	if ur.Title.Valid {
		r.Title = ur.Title.String
	}
	if ur.Description.Valid {
		r.Description = core.CleanString(ur.Description.String)
	}
	if ur.Level.Valid {
		r.Level = core.CleanString(ur.Level.String)
	}
	if ur.Status.Valid {
		r.Status = ur.Status.String
	}
	if ur.Access.Valid {
		r.Access = ur.Access.String
		r.IsPremium = r.Access == AccessPremium
	}
	if ur.Price.Valid {
		r.Price = ur.Price.Float64
	}
	return r
}

type QueryFilter struct {
	Search string `query:"search"` // title or subject
	Type   string `query:"type"`   // case-insensitive; "all" for every type
	Status string `query:"status"` // published | draft | all
	Access string `query:"access"` // free | premium | all
}

type Analytics struct {
	TotalResources int     `json:"total_resources"`
	Published      int     `json:"published"`
	Premium        int     `json:"premium"`
	TotalDownloads int     `json:"total_downloads"`
	TotalViews     int     `json:"total_views"`
	AverageRating  float64 `json:"average_rating"`
}
