package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/db/dbtest"
	"github.com/zulandar/signalbox/internal/ingest"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	dir    *ingest.Dir
	now    time.Time
	key    string
}

func newTestServer(t *testing.T, mutate ...func(*StartOpts)) *testServer {
	t.Helper()
	dir, err := ingest.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := &testServer{t: t, db: dbtest.Open(t), dir: dir, now: time.Now().UTC()}
	opts := StartOpts{
		DB:        ts.db,
		IssuesDir: dir,
		Now:       func() time.Time { return ts.now },
	}
	for _, m := range mutate {
		m(&opts)
	}
	ts.key = opts.APIKey
	router, err := NewRouter(opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts.router = router
	return ts
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.key != "" {
		req.Header.Set(APIKeyHeader, ts.key)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// call performs a request, checks the status and decodes the JSON response
// into out when out is non-nil.
func (ts *testServer) call(method, path string, body interface{}, wantStatus int, out interface{}) {
	ts.t.Helper()
	w := ts.do(method, path, body)
	if w.Code != wantStatus {
		ts.t.Fatalf("%s %s: status = %d, want %d; body = %s", method, path, w.Code, wantStatus, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			ts.t.Fatalf("%s %s: decode %s: %v", method, path, w.Body.String(), err)
		}
	}
}

type idResp struct {
	ID string `json:"id"`
}

func (ts *testServer) createAgent(name string) string {
	ts.t.Helper()
	var a idResp
	ts.call(http.MethodPost, "/agents", map[string]interface{}{"agent_name": name}, http.StatusCreated, &a)
	return a.ID
}

func (ts *testServer) sendTo(senderID, content string, extra map[string]interface{}, recipients ...string) string {
	ts.t.Helper()
	body := map[string]interface{}{"content": content, "sender_id": senderID}
	for k, v := range extra {
		body[k] = v
	}
	var m idResp
	ts.call(http.MethodPost, "/messages", body, http.StatusCreated, &m)
	for _, r := range recipients {
		ts.call(http.MethodPost, "/message_recipients", map[string]interface{}{
			"message_id": m.ID, "recipient_id": r, "is_read": false,
		}, http.StatusCreated, nil)
	}
	return m.ID
}

type delivery struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	IsRead  bool       `json:"is_read"`
	ReadAt  *time.Time `json:"read_at"`
}
