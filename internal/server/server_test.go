package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"thingslens/internal/config"
	"thingslens/internal/domain"
	"thingslens/internal/engine"
	"thingslens/internal/thingstest"
)

var serverNow = time.Date(2025, time.August, 30, 12, 0, 0, 0, time.UTC)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }

func newTestServer(t *testing.T, auth AuthConfig) *testServer {
	t.Helper()
	conn, _ := thingstest.Open(t)
	e := engine.New(conn, config.Default())
	e.Now = func() time.Time { return serverNow }

	codec := e.Classifier.Codec
	thingstest.InsertTask(t, conn, codec, thingstest.TaskSeed{
		UUID: "11111111-1111-1111-1111-111111111111", Title: "water plants", Start: domain.StartToday,
	})
	thingstest.InsertTask(t, conn, codec, thingstest.TaskSeed{
		UUID: "22222222-2222-2222-2222-222222222222", Title: "book flights", Start: domain.StartUpcoming,
	})

	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: auth})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func get(t *testing.T, client *http.Client, url string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/health", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, data)
	}
}

func TestListTasksByList(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/tasks?list=today", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var tasks []TaskResponse
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "water plants" {
		t.Fatalf("today = %+v", tasks)
	}
	if tasks[0].Start != "today" || tasks[0].Status != "incomplete" {
		t.Fatalf("task fields = %+v", tasks[0])
	}
}

func TestUnknownListIsBadRequest(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/tasks?list=logbook", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
	if envelope.Error.Details["field"] != "list" {
		t.Fatalf("details = %v", envelope.Error.Details)
	}
}

func TestReversedRangeIsBadRequest(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/tasks?from=2025-09-03&to=2025-09-02", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
}

func TestGetTask(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/tasks/11111111-1111-1111-1111-111111111111", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var task TaskResponse
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Title != "water plants" {
		t.Fatalf("task = %+v", task)
	}

	res, _ = get(t, srv.Client(), srv.URL+"/v0/tasks/99999999-9999-9999-9999-999999999999", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing task status %d", res.StatusCode)
	}
	res, _ = get(t, srv.Client(), srv.URL+"/v0/tasks/not-a-uuid", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed id status %d", res.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, AuthConfig{})
	res, data := get(t, srv.Client(), srv.URL+"/v0/search?query=flights", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var tasks []TaskResponse
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "book flights" {
		t.Fatalf("search = %+v", tasks)
	}
}

func TestAuthEnforcedWhenConfigured(t *testing.T) {
	secret := "test-secret"
	srv := newTestServer(t, AuthConfig{Secret: secret})

	res, _ := get(t, srv.Client(), srv.URL+"/v0/tasks", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status %d", res.StatusCode)
	}

	// Health stays open for probes.
	res, _ = get(t, srv.Client(), srv.URL+"/v0/health", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	res, data := get(t, srv.Client(), srv.URL+"/v0/tasks", map[string]string{"Authorization": "Bearer " + signed})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status %d: %s", res.StatusCode, data)
	}
}
