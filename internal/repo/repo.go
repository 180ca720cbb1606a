package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"thingslens/internal/dates"
	"thingslens/internal/domain"
	"thingslens/internal/filter"
)

// Repo reads task views out of the store. It never writes.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const taskColumns = `t.uuid, t.title, t.notes, t.status, t.type,
	t.creationDate, t.userModificationDate, t.stopDate,
	t.start, t.startBucket, t.startDate, t.deadline,
	t.todayIndex, t.todayIndexReferenceDate,
	t.area, a.title AS areaTitle, t.project, p.title AS projectTitle, t.heading,
	t."index", t.checklistItemsCount, t.openChecklistItemsCount`

const taskJoins = `FROM TMTask t
	LEFT JOIN TMArea a ON t.area = a.uuid
	LEFT JOIN TMTask p ON t.project = p.uuid`

// Display order of the host: manual position first with unplaced rows last,
// then newest first.
const taskOrder = `ORDER BY t.todayIndex IS NULL, t.todayIndex, t.creationDate DESC`

// taskRow carries one scanned row before mapping.
type taskRow struct {
	uuid           string
	title          sql.NullString
	notes          sql.NullString
	status         int64
	taskType       int64
	creationDate   sql.NullFloat64
	modification   sql.NullFloat64
	stopDate       sql.NullFloat64
	start          int64
	startBucket    sql.NullInt64
	startDate      sql.NullInt64
	deadline       sql.NullInt64
	todayIndex     sql.NullInt64
	todayReference sql.NullInt64
	area           sql.NullString
	areaTitle      sql.NullString
	project        sql.NullString
	projectTitle   sql.NullString
	heading        sql.NullString
	index          sql.NullInt64
	checklistCount sql.NullInt64
	openChecklist  sql.NullInt64
}

func (r *taskRow) scan(s interface{ Scan(...any) error }) error {
	return s.Scan(&r.uuid, &r.title, &r.notes, &r.status, &r.taskType,
		&r.creationDate, &r.modification, &r.stopDate,
		&r.start, &r.startBucket, &r.startDate, &r.deadline,
		&r.todayIndex, &r.todayReference,
		&r.area, &r.areaTitle, &r.project, &r.projectTitle, &r.heading,
		&r.index, &r.checklistCount, &r.openChecklist)
}

// taskFromRow maps a scanned row plus its joined lookups to a Task. Pure:
// tags and checklist items are supplied by the caller, and packed date
// fields go through the codec here and nowhere else on the read path.
func taskFromRow(row taskRow, tags []string, checklist []domain.ChecklistItem) domain.Task {
	t := domain.Task{
		UUID:               row.uuid,
		Title:              row.title.String, // missing title stays "", never null
		Status:             domain.Status(row.status),
		Type:               domain.TaskType(row.taskType),
		Start:              domain.Start(row.start),
		AreaTitle:          row.areaTitle.String,
		ProjectTitle:       row.projectTitle.String,
		ChecklistCount:     row.checklistCount.Int64,
		OpenChecklistCount: row.openChecklist.Int64,
		Tags:               tags,
		Checklist:          checklist,
	}
	if row.notes.Valid {
		t.Notes = row.notes.String
	}
	t.CreatedAt = instant(row.creationDate)
	t.ModifiedAt = instant(row.modification)
	t.CompletedAt = instant(row.stopDate)
	t.Scheduled = packedDate(row.startDate)
	t.Deadline = packedDate(row.deadline)
	t.TodayReference = packedDate(row.todayReference)
	t.StartBucket = nullInt(row.startBucket)
	t.TodayIndex = nullInt(row.todayIndex)
	t.Index = nullInt(row.index)
	t.Area = nullStr(row.area)
	t.Project = nullStr(row.project)
	t.Heading = nullStr(row.heading)
	return t
}

func instant(v sql.NullFloat64) *time.Time {
	if !v.Valid || v.Float64 == 0 {
		return nil
	}
	ts := time.Unix(int64(v.Float64), 0).UTC()
	return &ts
}

func packedDate(v sql.NullInt64) *dates.Date {
	if !v.Valid {
		return nil
	}
	d, ok := dates.Decode(v.Int64)
	if !ok {
		return nil
	}
	return &d
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// ListTasks returns all tasks matching the constraint in display order,
// with tags and checklist items attached.
func (r Repo) ListTasks(ctx context.Context, c filter.Constraint) ([]domain.Task, error) {
	where := ""
	if len(c.Clauses) > 0 {
		where = "WHERE " + strings.Join(c.Clauses, " AND ")
	}
	query := "SELECT " + taskColumns + " " + taskJoins + " " + where + " " + taskOrder
	rows, err := r.DB.QueryContext(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scanned []taskRow
	for rows.Next() {
		var row taskRow
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		scanned = append(scanned, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(scanned))
	for _, row := range scanned {
		task, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		res = append(res, task)
	}
	return res, nil
}

// GetTask returns one task by identifier, trashed rows excluded.
func (r Repo) GetTask(ctx context.Context, uuid string) (domain.Task, error) {
	query := "SELECT " + taskColumns + " " + taskJoins + " WHERE t.uuid = ? AND t.trashed = 0"
	var row taskRow
	err := row.scan(r.DB.QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return domain.Task{}, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	return r.hydrate(ctx, row)
}

func (r Repo) hydrate(ctx context.Context, row taskRow) (domain.Task, error) {
	tags, err := r.TaskTags(ctx, row.uuid)
	if err != nil {
		return domain.Task{}, err
	}
	checklist, err := r.ChecklistItems(ctx, row.uuid)
	if err != nil {
		return domain.Task{}, err
	}
	return taskFromRow(row, tags, checklist), nil
}

// TaskTags returns the tag titles attached to a task. Unordered set.
func (r Repo) TaskTags(ctx context.Context, taskUUID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT tg.title FROM TMTag tg
		JOIN TMTaskTag tt ON tt.tags = tg.uuid
		WHERE tt.tasks = ?`, taskUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var title sql.NullString
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		tags = append(tags, title.String)
	}
	return tags, rows.Err()
}

// ChecklistItems returns a task's checklist ordered by completion instant.
func (r Repo) ChecklistItems(ctx context.Context, taskUUID string) ([]domain.ChecklistItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT title, status FROM TMChecklistItem
		WHERE task = ? ORDER BY stopDate`, taskUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ChecklistItem
	for rows.Next() {
		var title sql.NullString
		var status int64
		if err := rows.Scan(&title, &status); err != nil {
			return nil, err
		}
		items = append(items, domain.ChecklistItem{Title: title.String, Status: domain.Status(status)})
	}
	return items, rows.Err()
}

// ListAreas returns visible areas.
func (r Repo) ListAreas(ctx context.Context) ([]domain.List, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT uuid, title, visible FROM TMArea WHERE visible = 1 ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.List
	for rows.Next() {
		var l domain.List
		var title sql.NullString
		var visible int64
		if err := rows.Scan(&l.UUID, &title, &visible); err != nil {
			return nil, err
		}
		l.Title = title.String
		l.Kind = "area"
		l.Visible = visible == 1
		res = append(res, l)
	}
	return res, rows.Err()
}

// ListProjects returns open projects (task rows of the project type).
func (r Repo) ListProjects(ctx context.Context) ([]domain.List, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT uuid, title FROM TMTask
		WHERE type = ? AND trashed = 0 AND status = ? ORDER BY title`,
		int(domain.TypeProject), int(domain.StatusIncomplete))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.List
	for rows.Next() {
		var l domain.List
		var title sql.NullString
		if err := rows.Scan(&l.UUID, &title); err != nil {
			return nil, err
		}
		l.Title = title.String
		l.Kind = "project"
		l.Visible = true
		res = append(res, l)
	}
	return res, rows.Err()
}

// FindList resolves an area or project by exact title, areas first, the
// way the host resolves list names.
func (r Repo) FindList(ctx context.Context, name string) (domain.List, error) {
	var l domain.List
	var visible int64
	err := r.DB.QueryRowContext(ctx, `SELECT uuid, title, visible FROM TMArea WHERE title = ? AND visible = 1`, name).
		Scan(&l.UUID, &l.Title, &visible)
	if err == nil {
		l.Kind = "area"
		l.Visible = visible == 1
		return l, nil
	}
	if err != sql.ErrNoRows {
		return domain.List{}, err
	}
	err = r.DB.QueryRowContext(ctx, `SELECT uuid, title FROM TMTask
		WHERE type = ? AND title = ? AND trashed = 0 AND status = ?`,
		int(domain.TypeProject), name, int(domain.StatusIncomplete)).
		Scan(&l.UUID, &l.Title)
	if err == sql.ErrNoRows {
		return domain.List{}, ErrNotFound
	}
	if err != nil {
		return domain.List{}, err
	}
	l.Kind = "project"
	l.Visible = true
	return l, nil
}

// ListTags returns all tags ordered by title.
func (r Repo) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT uuid, title FROM TMTag ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		var title sql.NullString
		if err := rows.Scan(&tag.UUID, &title); err != nil {
			return nil, err
		}
		tag.Title = title.String
		res = append(res, tag)
	}
	return res, rows.Err()
}

// FindTag resolves a tag by exact title.
func (r Repo) FindTag(ctx context.Context, name string) (domain.Tag, error) {
	var tag domain.Tag
	err := r.DB.QueryRowContext(ctx, `SELECT uuid, title FROM TMTag WHERE title = ?`, name).
		Scan(&tag.UUID, &tag.Title)
	if err == sql.ErrNoRows {
		return domain.Tag{}, ErrNotFound
	}
	return tag, err
}
