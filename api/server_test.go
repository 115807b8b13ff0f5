package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stellarlinkco/benchkit/internal/config"
	"github.com/stellarlinkco/benchkit/internal/harness"
	"github.com/stellarlinkco/benchkit/internal/results"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *results.Store) {
	t.Helper()

	dataDir := t.TempDir()
	for _, f := range []string{"astronomy_test.csv", "virology_test.csv"} {
		if err := os.WriteFile(filepath.Join(dataDir, f), []byte("Q,a,b,c,d,A\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	st, err := results.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Benchmark.DataDir = dataDir
	cfg.Server.APIKey = apiKey

	srv, err := NewServer(cfg, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, st
}

func doRequest(t *testing.T, srv *Server, method, target, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func saveRun(t *testing.T, st *results.Store, topic, model string, correct int) int64 {
	t.Helper()
	id, err := st.SaveReport(context.Background(), &harness.Report{
		Topic:    topic,
		Provider: "anthropic",
		Model:    model,
		Shots:    5,
		Total:    2,
		Correct:  correct,
		Accuracy: float64(correct) / 2,
		Answers: []harness.Answer{
			{Index: 0, Predicted: "A", Expected: "A", Correct: true},
			{Index: 1, Predicted: "B", Expected: "C", Correct: correct == 2},
		},
		TotalTime: time.Second,
	})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	return id
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doRequest(t, srv, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestListTopics(t *testing.T) {
	srv, _ := newTestServer(t, "")

	w := doRequest(t, srv, http.MethodGet, "/api/topics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var body struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Topics) != 2 || body.Topics[0] != "astronomy" || body.Topics[1] != "virology" {
		t.Fatalf("topics: got %v", body.Topics)
	}
}

func TestGetRun(t *testing.T) {
	srv, st := newTestServer(t, "")
	id := saveRun(t, st, "astronomy", "model-a", 1)

	w := doRequest(t, srv, http.MethodGet, "/api/runs/"+strconv.FormatInt(id, 10), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body.String())
	}

	var run results.Run
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Topic != "astronomy" || len(run.Answers) != 2 {
		t.Fatalf("run: got %+v", run)
	}
}

func TestGetRun_Errors(t *testing.T) {
	srv, _ := newTestServer(t, "")

	if w := doRequest(t, srv, http.MethodGet, "/api/runs/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/runs/999", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing run: got %d", w.Code)
	}
}

func TestListRuns(t *testing.T) {
	srv, st := newTestServer(t, "")
	saveRun(t, st, "astronomy", "model-a", 2)
	saveRun(t, st, "virology", "model-a", 1)

	w := doRequest(t, srv, http.MethodGet, "/api/runs?topic=astronomy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var runs []results.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].Topic != "astronomy" {
		t.Fatalf("runs: got %+v", runs)
	}

	if w := doRequest(t, srv, http.MethodGet, "/api/runs?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got %d", w.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	srv, st := newTestServer(t, "")
	saveRun(t, st, "astronomy", "model-low", 1)
	saveRun(t, st, "astronomy", "model-high", 2)

	w := doRequest(t, srv, http.MethodGet, "/api/leaderboard?topic=astronomy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var runs []results.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 2 || runs[0].Model != "model-high" {
		t.Fatalf("leaderboard: got %+v", runs)
	}

	if w := doRequest(t, srv, http.MethodGet, "/api/leaderboard", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing topic: got %d", w.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, _ := newTestServer(t, "secret")

	if w := doRequest(t, srv, http.MethodGet, "/api/health", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: got %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/health", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: got %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/health", "secret"); w.Code != http.StatusOK {
		t.Fatalf("right key: got %d", w.Code)
	}
}
