// Package engine orchestrates task queries: it turns caller criteria into
// filter constraints, runs them through the repo, and returns mapped tasks.
// Everything here is a read; failures surface to the caller untouched.
package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"thingslens/internal/config"
	"thingslens/internal/dates"
	"thingslens/internal/domain"
	"thingslens/internal/filter"
	"thingslens/internal/repo"
)

type Engine struct {
	DB         *sql.DB
	Repo       repo.Repo
	Classifier filter.Classifier
	Now        func() time.Time
}

func New(conn *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:   conn,
		Repo: repo.Repo{DB: conn},
		Classifier: filter.Classifier{
			Codec:       dates.Codec{OffsetDays: cfg.Dates.EncodeOffsetDays},
			SomedayArea: cfg.Lists.SomedayArea,
		},
		Now: time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Criteria selects tasks. Exactly one of List, Date, From/To, Query or ID
// is expected; the first populated field in that order wins.
type Criteria struct {
	List             string
	Date             string
	From, To         string
	Query            string
	In               string
	ID               string
	IncludeCompleted bool
}

// Query dispatches on the criteria kind. Used by the CLI and the API.
func (e Engine) Query(ctx context.Context, c Criteria) ([]domain.Task, error) {
	switch {
	case c.ID != "":
		task, err := e.Get(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return []domain.Task{task}, nil
	case c.Query != "":
		return e.Search(ctx, c.Query, c.In, c.IncludeCompleted)
	case c.From != "" || c.To != "":
		return e.TasksBetween(ctx, c.From, c.To, c.IncludeCompleted)
	case c.Date != "":
		return e.TasksOn(ctx, c.Date, c.IncludeCompleted)
	default:
		list := c.List
		if list == "" {
			list = "all"
		}
		return e.ListBucket(ctx, list, c.IncludeCompleted)
	}
}

// ListBucket returns the named list's tasks at the current moment.
func (e Engine) ListBucket(ctx context.Context, list string, includeCompleted bool) ([]domain.Task, error) {
	bucket, err := filter.ParseBucket(list)
	if err != nil {
		return nil, err
	}
	c, err := e.Classifier.ForBucket(bucket, e.now(), includeCompleted)
	if err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, c)
}

// TasksOn returns tasks scheduled on or carried into the given day.
func (e Engine) TasksOn(ctx context.Context, day string, includeCompleted bool) ([]domain.Task, error) {
	d, err := dates.Parse(day)
	if err != nil {
		return nil, filter.CriteriaError{Field: "date", Reason: err.Error()}
	}
	return e.Repo.ListTasks(ctx, e.Classifier.ForDate(d, includeCompleted))
}

// TasksBetween returns tasks scheduled or carried into [from, to] inclusive.
// Both endpoints are required and validated before any store access.
func (e Engine) TasksBetween(ctx context.Context, from, to string, includeCompleted bool) ([]domain.Task, error) {
	if from == "" {
		return nil, filter.CriteriaError{Field: "from", Reason: "required"}
	}
	if to == "" {
		return nil, filter.CriteriaError{Field: "to", Reason: "required"}
	}
	start, err := dates.Parse(from)
	if err != nil {
		return nil, filter.CriteriaError{Field: "from", Reason: err.Error()}
	}
	end, err := dates.Parse(to)
	if err != nil {
		return nil, filter.CriteriaError{Field: "to", Reason: err.Error()}
	}
	c, err := e.Classifier.ForRange(start, end, includeCompleted)
	if err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, c)
}

// Search matches a substring of title, notes, or both.
func (e Engine) Search(ctx context.Context, query, in string, includeCompleted bool) ([]domain.Task, error) {
	if query == "" {
		return nil, filter.CriteriaError{Field: "query", Reason: "required"}
	}
	c, err := e.Classifier.ForSearch(query, in, includeCompleted)
	if err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, c)
}

// Get looks a task up by identifier. A malformed identifier is a caller
// error; a well-formed identifier with no row is the not-found outcome.
func (e Engine) Get(ctx context.Context, id string) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, filter.CriteriaError{Field: "id", Reason: "not a valid task identifier"}
	}
	return e.Repo.GetTask(ctx, id)
}

// Lists returns the host's containers: visible areas plus open projects,
// areas first. Projects only when includeAreas is false.
func (e Engine) Lists(ctx context.Context, includeAreas bool) ([]domain.List, error) {
	projects, err := e.Repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if !includeAreas {
		return projects, nil
	}
	areas, err := e.Repo.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	return append(areas, projects...), nil
}

// FindList resolves an area or project by exact title, areas first.
func (e Engine) FindList(ctx context.Context, name string) (domain.List, error) {
	if name == "" {
		return domain.List{}, filter.CriteriaError{Field: "name", Reason: "required"}
	}
	return e.Repo.FindList(ctx, name)
}

// Tags returns all tag names in the store.
func (e Engine) Tags(ctx context.Context) ([]domain.Tag, error) {
	return e.Repo.ListTags(ctx)
}

// FindTag resolves a tag by exact title.
func (e Engine) FindTag(ctx context.Context, name string) (domain.Tag, error) {
	if name == "" {
		return domain.Tag{}, filter.CriteriaError{Field: "name", Reason: "required"}
	}
	return e.Repo.FindTag(ctx, name)
}
