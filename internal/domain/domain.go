package domain

import (
	"fmt"
	"time"

	"thingslens/internal/dates"
)

// Status is the host's task status code.
type Status int

const (
	StatusIncomplete Status = 0
	StatusCanceled   Status = 2
	StatusCompleted  Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusCanceled:
		return "canceled"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// TaskType is the host's task type code. Only actions participate in
// list filtering; projects and headings are containers.
type TaskType int

const (
	TypeAction  TaskType = 0
	TypeProject TaskType = 1
	TypeHeading TaskType = 2
)

func (tt TaskType) String() string {
	switch tt {
	case TypeAction:
		return "action"
	case TypeProject:
		return "project"
	case TypeHeading:
		return "heading"
	default:
		return fmt.Sprintf("type(%d)", int(tt))
	}
}

func (tt TaskType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + tt.String() + `"`), nil
}

// Start is the host's coarse scheduling bucket. It is set independently of
// the scheduled date; list membership consults both.
type Start int

const (
	StartNone     Start = 0
	StartToday    Start = 1
	StartUpcoming Start = 2
)

func (s Start) String() string {
	switch s {
	case StartNone:
		return "none"
	case StartToday:
		return "today"
	case StartUpcoming:
		return "upcoming"
	default:
		return fmt.Sprintf("start(%d)", int(s))
	}
}

// Task is a read-only view of one to-do row plus its joined lookups.
type Task struct {
	UUID   string   `json:"uuid"`
	Title  string   `json:"title"`
	Notes  string   `json:"notes,omitempty"`
	Status Status   `json:"status"`
	Type   TaskType `json:"type"`

	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`

	Start          Start       `json:"start"`
	StartBucket    *int64      `json:"start_bucket,omitempty"`
	Scheduled      *dates.Date `json:"scheduled,omitempty"`
	Deadline       *dates.Date `json:"deadline,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	TodayIndex     *int64      `json:"today_index,omitempty"`
	TodayReference *dates.Date `json:"today_reference,omitempty"`

	Area         *string `json:"area,omitempty"`
	AreaTitle    string  `json:"area_title,omitempty"`
	Project      *string `json:"project,omitempty"`
	ProjectTitle string  `json:"project_title,omitempty"`
	Heading      *string `json:"heading,omitempty"`

	Index              *int64 `json:"index,omitempty"`
	ChecklistCount     int64  `json:"checklist_count"`
	OpenChecklistCount int64  `json:"open_checklist_count"`

	Tags      []string        `json:"tags,omitempty"`
	Checklist []ChecklistItem `json:"checklist,omitempty"`
}

// List is a named container: an area, or a project (itself a task row).
type List struct {
	UUID    string `json:"uuid"`
	Title   string `json:"title"`
	Kind    string `json:"kind" enum:"area,project"`
	Visible bool   `json:"visible"`
}

type Tag struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
}

// ChecklistItem belongs to exactly one task, ordered by completion instant.
type ChecklistItem struct {
	Title  string `json:"title"`
	Status Status `json:"status"`
}
