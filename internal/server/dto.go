package server

import (
	"time"

	"thingslens/internal/domain"
)

// Response payloads

type TaskResponse struct {
	UUID   string `json:"uuid"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status" enum:"incomplete,canceled,completed"`
	Type   string `json:"type" enum:"action,project,heading"`

	CreatedAt  *string `json:"created_at,omitempty" format:"date-time"`
	ModifiedAt *string `json:"modified_at,omitempty" format:"date-time"`

	Start          string  `json:"start" enum:"none,today,upcoming"`
	Scheduled      *string `json:"scheduled,omitempty" format:"date"`
	Deadline       *string `json:"deadline,omitempty" format:"date"`
	CompletedAt    *string `json:"completed_at,omitempty" format:"date-time"`
	TodayIndex     *int64  `json:"today_index,omitempty"`
	TodayReference *string `json:"today_reference,omitempty" format:"date"`

	Area         *string `json:"area,omitempty"`
	AreaTitle    string  `json:"area_title,omitempty"`
	Project      *string `json:"project,omitempty"`
	ProjectTitle string  `json:"project_title,omitempty"`
	Heading      *string `json:"heading,omitempty"`

	ChecklistCount     int64                   `json:"checklist_count"`
	OpenChecklistCount int64                   `json:"open_checklist_count"`
	Tags               []string                `json:"tags,omitempty"`
	Checklist          []ChecklistItemResponse `json:"checklist,omitempty"`
}

type ChecklistItemResponse struct {
	Title  string `json:"title"`
	Status string `json:"status" enum:"incomplete,canceled,completed"`
}

type ListResponse struct {
	UUID    string `json:"uuid"`
	Title   string `json:"title"`
	Kind    string `json:"kind" enum:"area,project"`
	Visible bool   `json:"visible"`
}

type TagResponse struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
}

func taskResponse(t domain.Task) TaskResponse {
	resp := TaskResponse{
		UUID:               t.UUID,
		Title:              t.Title,
		Notes:              t.Notes,
		Status:             t.Status.String(),
		Type:               t.Type.String(),
		CreatedAt:          instantString(t.CreatedAt),
		ModifiedAt:         instantString(t.ModifiedAt),
		Start:              t.Start.String(),
		CompletedAt:        instantString(t.CompletedAt),
		TodayIndex:         t.TodayIndex,
		Area:               t.Area,
		AreaTitle:          t.AreaTitle,
		Project:            t.Project,
		ProjectTitle:       t.ProjectTitle,
		Heading:            t.Heading,
		ChecklistCount:     t.ChecklistCount,
		OpenChecklistCount: t.OpenChecklistCount,
		Tags:               t.Tags,
	}
	if t.Scheduled != nil {
		s := t.Scheduled.String()
		resp.Scheduled = &s
	}
	if t.Deadline != nil {
		s := t.Deadline.String()
		resp.Deadline = &s
	}
	if t.TodayReference != nil {
		s := t.TodayReference.String()
		resp.TodayReference = &s
	}
	for _, item := range t.Checklist {
		resp.Checklist = append(resp.Checklist, ChecklistItemResponse{
			Title:  item.Title,
			Status: item.Status.String(),
		})
	}
	return resp
}

func mapTasks(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return out
}

func listResponse(l domain.List) ListResponse {
	return ListResponse{UUID: l.UUID, Title: l.Title, Kind: l.Kind, Visible: l.Visible}
}

func mapLists(lists []domain.List) []ListResponse {
	out := make([]ListResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, listResponse(l))
	}
	return out
}

func mapTags(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{UUID: tag.UUID, Title: tag.Title})
	}
	return out
}

func instantString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
