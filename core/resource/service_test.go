package resource

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edportal/core"
	"github.com/trezcool/edportal/core/collection"
	"github.com/trezcool/edportal/storage/memstore"
)

var (
	testNow = time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	today   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	author  = core.Actor{ID: "t1", Name: "Mr. Amani", Role: "teacher"}
)

func newTestService(t *testing.T, resources ...Resource) *Service {
	t.Helper()
	store := memstore.New("resources", resources, memstore.WithStrict(true))
	return NewService(store, core.NewSequenceGenerator("r"), core.NewValidator(), core.NopLogger{}, core.FixedClock(testNow), &core.Config{})
}

func TestService_Add(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Add(author, NewResource{Title: " Algebra Basics ", Subject: "Mathematics", Type: "PDF", Access: "Premium", Price: 4.99})
	require.NoError(t, err)

	assert.Equal(t, "Algebra Basics", res.Title)
	assert.Equal(t, "Mathematics", res.Category, "category defaults to the subject")
	assert.True(t, res.IsPremium)
	assert.Equal(t, []string{"pdf"}, res.Formats)
	assert.Equal(t, StatusPublished, res.Status)
	assert.Equal(t, today, res.LastUpdated)
	assert.Equal(t, "Mr. Amani", res.Author)
	assert.Zero(t, res.Downloads)
	assert.Zero(t, res.Views)
	assert.Zero(t, res.Rating)

	free, err := svc.Add(author, NewResource{Title: "Cells", Subject: "Biology", Formats: []string{"pdf", "docx"}})
	require.NoError(t, err)
	assert.False(t, free.IsPremium)
	assert.Equal(t, AccessFree, free.Access)
	assert.Equal(t, TypeDocument, free.Type)
	assert.Equal(t, []string{"pdf", "docx"}, free.Formats)
}

func TestService_Add_invalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		nr   NewResource
	}{
		{name: "no title", nr: NewResource{Subject: "Math"}},
		{name: "no subject", nr: NewResource{Title: "T"}},
		{name: "bad access", nr: NewResource{Title: "T", Subject: "Math", Access: "vip"}},
		{name: "bad status", nr: NewResource{Title: "T", Subject: "Math", Status: "archived"}},
		{name: "negative price", nr: NewResource{Title: "T", Subject: "Math", Price: -1}},
		{name: "blank format", nr: NewResource{Title: "T", Subject: "Math", Formats: []string{" "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(author, tt.nr)
			_, ok := core.IsValidationError(err)
			assert.True(t, ok, "Add() error = %v, want validation error", err)
		})
	}
	assert.Empty(t, svc.List(QueryFilter{}))
}

func TestService_AddFile(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		filename    string
		size        int64
		wantType    string
		wantSize    string
		wantFormats []string
	}{
		{filename: "notes.PDF", size: 2400000, wantType: TypePDF, wantSize: "2.4 MB", wantFormats: []string{"pdf"}},
		{filename: "/tmp/slides.pptx", size: 1500, wantType: TypePresentation, wantSize: "1.5 kB", wantFormats: []string{"pptx"}},
		{filename: "grades.xls", size: 0, wantType: TypeSpreadsheet, wantSize: "0 B", wantFormats: []string{"xls"}},
		{filename: "lecture.mov", size: 10, wantType: TypeVideo, wantSize: "10 B", wantFormats: []string{"mov"}},
		{filename: "diagram.jpeg", size: 10, wantType: TypeImage, wantSize: "10 B", wantFormats: []string{"jpeg"}},
		{filename: "README", size: 10, wantType: TypeDocument, wantSize: "10 B", wantFormats: []string{"pdf"}},
		{filename: "archive.zip", size: 10, wantType: TypeDocument, wantSize: "10 B", wantFormats: []string{"zip"}},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			res, err := svc.AddFile(author, NewResource{Title: "File", Subject: "Any", Type: "ignored"}, tt.filename, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, res.Type)
			assert.Equal(t, tt.wantSize, res.FileSize)
			assert.Equal(t, tt.wantFormats, res.Formats)
		})
	}

	_, err := svc.AddFile(author, NewResource{Title: "File", Subject: "Any"}, "x.pdf", -1)
	assert.Error(t, err)
}

func TestService_transitions(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.Add(author, NewResource{Title: "Algebra", Subject: "Math"})
	require.NoError(t, err)

	_, ok := svc.RecordDownload(res.ID)
	require.True(t, ok)
	_, ok = svc.RecordDownload(res.ID)
	require.True(t, ok)
	got, ok := svc.RecordView(res.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Downloads)
	assert.Equal(t, 1, got.Views)

	_, _, err = svc.Rate(res.ID, 4)
	require.NoError(t, err)
	got, ok, err = svc.Rate(res.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.5, got.Rating)
	assert.Equal(t, 2, got.Ratings)

	_, _, err = svc.Rate(res.ID, 6)
	assert.Error(t, err)

	before := svc.List(QueryFilter{})
	_, ok = svc.RecordDownload("404")
	assert.False(t, ok)
	_, ok, err = svc.Rate("404", 3)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, svc.List(QueryFilter{}), "unknown ids are no-ops")
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.Add(author, NewResource{Title: "Algebra", Subject: "Math"})
	require.NoError(t, err)

	got, ok, err := svc.Update(res.ID, UpdateResource{Access: null.StringFrom("PREMIUM"), Status: null.StringFrom("draft")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.IsPremium)
	assert.Equal(t, StatusDraft, got.Status)
	assert.Equal(t, "Algebra", got.Title)

	_, _, err = svc.Update(res.ID, UpdateResource{Title: null.StringFrom("  ")})
	assert.Error(t, err)
	_, _, err = svc.Update(res.ID, UpdateResource{Price: null.Float64From(-2)})
	assert.Error(t, err)

	_, ok, err = svc.Update("404", UpdateResource{Title: null.StringFrom("x")})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Remove(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.Add(author, NewResource{Title: "Algebra", Subject: "Math"})
	require.NoError(t, err)

	assert.True(t, svc.Remove(res.ID))
	assert.False(t, svc.Remove(res.ID))
	_, err = svc.GetByID(res.ID)
	assert.Equal(t, ErrNotFound, err)
}

func TestFilter(t *testing.T) {
	resources := []Resource{
		{ID: "1", Title: "Algebra Basics", Subject: "Mathematics", Type: TypePDF, Status: StatusPublished, Access: AccessFree},
		{ID: "2", Title: "Cell Biology", Subject: "Biology", Type: TypeVideo, Status: StatusDraft, Access: AccessPremium},
		{ID: "3", Title: "Calculus Slides", Subject: "Mathematics", Type: TypePresentation, Status: StatusPublished, Access: AccessPremium},
	}
	ids := func(rs []Resource) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{name: "none", want: []string{"1", "2", "3"}},
		{name: "search title", filter: QueryFilter{Search: "cal"}, want: []string{"3"}},
		{name: "search subject", filter: QueryFilter{Search: "math"}, want: []string{"1", "3"}},
		{name: "type case-insensitive", filter: QueryFilter{Type: "pdf"}, want: []string{"1"}},
		{name: "type all", filter: QueryFilter{Type: "all"}, want: []string{"1", "2", "3"}},
		{name: "status", filter: QueryFilter{Status: "draft"}, want: []string{"2"}},
		{name: "access", filter: QueryFilter{Access: "premium"}, want: []string{"2", "3"}},
		{name: "combined", filter: QueryFilter{Search: "math", Access: "premium"}, want: []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(resources, tt.filter)))
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Analytics{}, Summarize(nil))

	got := Summarize([]Resource{
		{Downloads: 10, Views: 100, Rating: 4, Ratings: 2, Status: StatusPublished, IsPremium: true},
		{Downloads: 5, Views: 50, Rating: 5, Ratings: 1, Status: StatusPublished},
		{Downloads: 0, Views: 3, Status: StatusDraft},
	})
	assert.Equal(t, Analytics{
		TotalResources: 3,
		Published:      2,
		Premium:        1,
		TotalDownloads: 15,
		TotalViews:     153,
		AverageRating:  4.5,
	}, got)
}

func TestService_Popular(t *testing.T) {
	svc := newTestService(t,
		Resource{ID: "1", Title: "A", Downloads: 5, Status: StatusPublished},
		Resource{ID: "2", Title: "B", Downloads: 50, Status: StatusPublished},
		Resource{ID: "3", Title: "C", Downloads: 500, Status: StatusDraft},
		Resource{ID: "4", Title: "D", Downloads: 5, Status: StatusPublished},
	)

	popular := svc.Popular(2)
	require.Len(t, popular, 2)
	assert.Equal(t, "B", popular[0].Item.Title)
	assert.Equal(t, 1, popular[0].Rank)
	assert.Equal(t, "A", popular[1].Item.Title, "ties keep insertion order")
	assert.Equal(t, 2, popular[1].Rank)
}

func TestService_storeFailures(t *testing.T) {
	log := &errorLog{}
	store := brokenStore{memstore.New("resources", []Resource{{ID: "r1", Title: "Algebra"}})}
	svc := NewService(store, core.NewSequenceGenerator("r"), core.NewValidator(), log, core.FixedClock(testNow), &core.Config{})

	_, ok := svc.RecordDownload("r1")
	assert.False(t, ok)
	assert.False(t, svc.Remove("r1"))
	assert.Equal(t, []string{"download failed", "removing resource"}, log.msgs)

	_, ok = svc.RecordView("404")
	assert.False(t, ok)
	assert.Len(t, log.msgs, 2, "unknown ids are not failures")
}

// errorLog records the messages logged at error level.
type errorLog struct {
	core.NopLogger
	msgs []string
}

func (l *errorLog) Error(msg string, _ ...interface{}) { l.msgs = append(l.msgs, msg) }

// brokenStore fails every write that would change the collection.
type brokenStore struct {
	*memstore.Store[Resource]
}

func (s brokenStore) Apply(fn func([]Resource) ([]Resource, error)) (collection.Snapshot[Resource], error) {
	cur := s.GetAll()
	if _, err := fn(cur.Items); err == collection.ErrSkip {
		return cur, nil
	}
	return cur, errors.New("resources unavailable")
}
