package thingslenssdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Thingslens HTTP API client. Every call is a read.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Task represents the API task model (partial).
type Task struct {
	UUID         string   `json:"uuid"`
	Title        string   `json:"title"`
	Notes        string   `json:"notes,omitempty"`
	Status       string   `json:"status"`
	Type         string   `json:"type"`
	Start        string   `json:"start"`
	Scheduled    *string  `json:"scheduled,omitempty"`
	Deadline     *string  `json:"deadline,omitempty"`
	AreaTitle    string   `json:"area_title,omitempty"`
	ProjectTitle string   `json:"project_title,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// List is an area or a project.
type List struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

type Tag struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// TasksOptions selects which tasks to list. Zero value means the all list.
type TasksOptions struct {
	List             string
	Date             string
	From, To         string
	IncludeCompleted bool
}

// Tasks lists tasks by list name, day, or day range.
func (c *Client) Tasks(ctx context.Context, opts TasksOptions) ([]Task, error) {
	q := url.Values{}
	if opts.List != "" {
		q.Set("list", opts.List)
	}
	if opts.Date != "" {
		q.Set("date", opts.Date)
	}
	if opts.From != "" {
		q.Set("from", opts.From)
	}
	if opts.To != "" {
		q.Set("to", opts.To)
	}
	if opts.IncludeCompleted {
		q.Set("include_completed", "true")
	}
	endpoint := "v0/tasks"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Task
	err := c.do(ctx, endpoint, &resp)
	return resp, err
}

// Task fetches one task by identifier.
func (c *Client) Task(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, "v0/tasks/"+url.PathEscape(id), &resp)
	return resp, err
}

// Search matches a substring of title, notes, or both.
func (c *Client) Search(ctx context.Context, query, in string) ([]Task, error) {
	q := url.Values{"query": {query}}
	if in != "" {
		q.Set("in", in)
	}
	var resp []Task
	err := c.do(ctx, "v0/search?"+q.Encode(), &resp)
	return resp, err
}

// Lists returns areas and open projects.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var resp []List
	err := c.do(ctx, "v0/lists", &resp)
	return resp, err
}

// Tags returns all tags.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var resp []Tag
	err := c.do(ctx, "v0/tags", &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
