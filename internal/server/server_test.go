package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/serializer"
	"github.com/tordrt/schemadesigner/internal/store"
	"github.com/tordrt/schemadesigner/internal/view"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	srv    *Server
	router *gin.Engine
	store  *store.Store
	users  schema.Table
	orders schema.Table
}

func newFixture(t *testing.T, gen *generator.Client) fixture {
	t.Helper()
	s := store.New()

	users, err := s.AddTable(schema.NewTable("users", 100, schema.NewColumn("id", schema.TypeInteger)))
	require.NoError(t, err)
	fk := schema.NewColumn("user_id", schema.TypeForeignKey)
	fk.Params = schema.ForeignKeyParams{TargetTableID: users.ID}
	orders, err := s.AddTable(schema.NewTable("orders", 500, fk, schema.NewColumn("amount", schema.TypeFloat)))
	require.NoError(t, err)
	_, err = s.AddRelationship(schema.NewRelationship(users.ID, users.Columns[0].ID, orders.ID, orders.Columns[0].ID))
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	engine := curve.NewEngine(s, curve.WithClock(now))
	srv := New(Config{AllowedOrigins: []string{"http://localhost:5173"}}, s, engine, gen, nil)
	t.Cleanup(func() { srv.Shutdown(t.Context()) })

	return fixture{srv: srv, router: srv.Router(), store: s, users: users, orders: orders}
}

// envelope decodes the response envelope with data left raw
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (f fixture) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestGetGraph(t *testing.T) {
	f := newFixture(t, nil)

	code, env := f.do(t, http.MethodGet, "/api/v1/graph", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	var v view.View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Len(t, v.Nodes, 2)
	require.Len(t, v.Edges, 1)
	assert.Equal(t, f.users.ID, v.Edges[0].Source)
}

func TestGestureAndUndo(t *testing.T) {
	f := newFixture(t, nil)

	code, env := f.do(t, http.MethodPost, "/api/v1/gestures", view.Gesture{Type: view.GestureAddTable})
	require.Equal(t, http.StatusOK, code)
	var added struct {
		Result view.Result `json:"result"`
		Graph  view.View   `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &added))
	require.NotNil(t, added.Result.Table)
	assert.Equal(t, "table_3", added.Result.Table.Name)
	assert.Len(t, added.Graph.Nodes, 3)

	code, env = f.do(t, http.MethodPost, "/api/v1/history/undo", nil)
	require.Equal(t, http.StatusOK, code)
	var travelled struct {
		Moved   bool      `json:"moved"`
		CanRedo bool      `json:"can_redo"`
		Graph   view.View `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &travelled))
	assert.True(t, travelled.Moved)
	assert.True(t, travelled.CanRedo)
	assert.Len(t, travelled.Graph.Nodes, 2)

	code, _ = f.do(t, http.MethodPost, "/api/v1/history/redo", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, f.store.Graph().Tables, 3)
}

func TestGestureErrors(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		gesture view.Gesture
		want    int
	}{
		{name: "unknown type", gesture: view.Gesture{Type: "explode"}, want: http.StatusBadRequest},
		{name: "missing table", gesture: view.Gesture{Type: view.GestureDeleteTable, TableID: "nope"}, want: http.StatusNotFound},
		{name: "constraint on foreign key", gesture: view.Gesture{
			Type: view.GestureEditConstraint, TableID: f.orders.ID, ColumnID: f.orders.Columns[0].ID,
		}, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, http.MethodPost, "/api/v1/gestures", tt.gesture)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, "error", env.Status)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestRenameTable(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/v1/tables/" + f.users.ID + "/name"

	code, env := f.do(t, http.MethodPut, path, gin.H{"name": "1users"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(env.Data), `"is_valid":false`)

	code, _ = f.do(t, http.MethodPut, path, gin.H{"name": "ORDERS"})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "names are unique regardless of case")

	code, _ = f.do(t, http.MethodPut, path, gin.H{"name": "customers"})
	require.Equal(t, http.StatusOK, code)
	g := f.store.Graph()
	tbl, ok := g.TableByName("customers")
	require.True(t, ok)
	assert.Equal(t, f.users.ID, tbl.ID)

	code, _ = f.do(t, http.MethodPut, "/api/v1/tables/missing/name", gin.H{"name": "x_table"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateRowCount(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/v1/tables/" + f.users.ID + "/row-count"

	code, env := f.do(t, http.MethodPut, path, gin.H{"row_count": 11_000_000})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, string(env.Data), `"is_valid":false`)
	g := f.store.Graph()
	tbl, _ := g.Table(f.users.ID)
	assert.Equal(t, int64(100), tbl.RowCount)

	code, env = f.do(t, http.MethodPut, path, gin.H{"row_count": 2_000_000})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, env.Message, "large counts come back with a warning")

	code, _ = f.do(t, http.MethodPut, path, gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConstraintLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	amount := f.orders.Columns[1]
	req := gin.H{
		"table_id":  f.orders.ID,
		"column_id": amount.ID,
		"preset":    "linear",
		"scale":     2,
	}

	code, env := f.do(t, http.MethodPost, "/api/v1/constraints/preview", req)
	require.Equal(t, http.StatusOK, code, env.Error)
	var preview struct {
		Constraint schema.OutcomeConstraint `json:"constraint"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	require.Len(t, preview.Constraint.Points, curve.DefaultPeriods)
	assert.Equal(t, 20000.0, preview.Constraint.Points[0].Value)
	assert.Empty(t, f.store.Constraints(), "preview does not store")

	code, _ = f.do(t, http.MethodPut, "/api/v1/constraints", req)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, f.store.Constraints(), 1)

	code, env = f.do(t, http.MethodGet, "/api/v1/schema", nil)
	require.Equal(t, http.StatusOK, code)
	var doc struct {
		OutcomeConstraints []json.RawMessage `json:"outcome_constraints"`
		OutcomeCurves      []json.RawMessage `json:"outcome_curves"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.Len(t, doc.OutcomeConstraints, 1)
	assert.Len(t, doc.OutcomeCurves, 1)

	path := "/api/v1/constraints/" + f.orders.ID + "/" + amount.ID
	code, _ = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConstraintRejects(t *testing.T) {
	f := newFixture(t, nil)
	amount := f.orders.Columns[1]

	tests := []struct {
		name string
		req  gin.H
		want int
	}{
		{name: "missing ids", req: gin.H{"preset": "flat"}, want: http.StatusBadRequest},
		{name: "non numeric column", req: gin.H{"table_id": f.orders.ID, "column_id": f.orders.Columns[0].ID}, want: http.StatusUnprocessableEntity},
		{name: "negative scale", req: gin.H{"table_id": f.orders.ID, "column_id": amount.ID, "scale": -1}, want: http.StatusUnprocessableEntity},
		{name: "unknown preset", req: gin.H{"table_id": f.orders.ID, "column_id": amount.ID, "preset": "zigzag"}, want: http.StatusUnprocessableEntity},
		{name: "bad unit", req: gin.H{"table_id": f.orders.ID, "column_id": amount.ID, "time_unit": "fortnight"}, want: http.StatusUnprocessableEntity},
		{name: "empty values", req: gin.H{"table_id": f.orders.ID, "column_id": amount.ID, "values": []float64{}}, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := f.do(t, http.MethodPut, "/api/v1/constraints", tt.req)
			assert.Equal(t, tt.want, code)
		})
	}
	assert.Empty(t, f.store.Constraints())
}

func TestJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"job_id":"j-42"}`))
	})
	mux.HandleFunc("GET /jobs/j-42", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"complete","progress":100}`))
	})
	mux.HandleFunc("GET /jobs/j-42/preview", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":[]}`))
	})
	mux.HandleFunc("GET /jobs/j-42/quality-report", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"score":1}`))
	})
	remote := httptest.NewServer(mux)
	defer remote.Close()

	f := newFixture(t, generator.New(remote.URL, generator.WithPollInterval(time.Millisecond)))

	code, env := f.do(t, http.MethodPost, "/api/v1/jobs", nil)
	require.Equal(t, http.StatusAccepted, code, env.Error)
	var job Job
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, "j-42", job.ID)

	require.Eventually(t, func() bool {
		j, err := f.srv.jobs.Get("j-42")
		return err == nil && j.Done
	}, 2*time.Second, 5*time.Millisecond)

	code, env = f.do(t, http.MethodGet, "/api/v1/jobs/j-42", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Empty(t, job.Error)
	require.NotNil(t, job.Report)
	assert.JSONEq(t, `{"score":1}`, string(job.Report.QualityReport))

	code, _ = f.do(t, http.MethodGet, "/api/v1/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestJobsRemoteFailure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer remote.Close()

	f := newFixture(t, generator.New(remote.URL))
	code, env := f.do(t, http.MethodPost, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Error, "overloaded")
}

func TestJobsWithoutGenerator(t *testing.T) {
	f := newFixture(t, nil)
	code, _ := f.do(t, http.MethodPost, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestShutdownStopsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"job_id":"slow"}`))
	})
	mux.HandleFunc("GET /jobs/slow", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running","progress":5}`))
	})
	remote := httptest.NewServer(mux)
	defer remote.Close()

	f := newFixture(t, generator.New(remote.URL, generator.WithPollInterval(time.Hour)))
	code, _ := f.do(t, http.MethodPost, "/api/v1/jobs", nil)
	require.Equal(t, http.StatusAccepted, code)

	done := make(chan struct{})
	go func() {
		f.srv.Shutdown(t.Context())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not stop the poll loop")
	}

	job, err := f.srv.jobs.Get("slow")
	require.NoError(t, err)
	assert.False(t, job.Done)

	code, _ = f.do(t, http.MethodPost, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/graph", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCloseDuringSubmission(t *testing.T) {
	submitting := make(chan struct{})
	release := make(chan struct{})
	var statusReads atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, _ *http.Request) {
		close(submitting)
		<-release
		_, _ = w.Write([]byte(`{"job_id":"late"}`))
	})
	mux.HandleFunc("GET /jobs/late", func(w http.ResponseWriter, _ *http.Request) {
		statusReads.Add(1)
		_, _ = w.Write([]byte(`{"status":"running","progress":5}`))
	})
	remote := httptest.NewServer(mux)
	defer remote.Close()

	tracker := NewJobTracker(generator.New(remote.URL, generator.WithPollInterval(time.Millisecond)), nil)

	type outcome struct {
		job Job
		err error
	}
	started := make(chan outcome, 1)
	go func() {
		job, err := tracker.Start(t.Context(), serializer.Document{Name: "shop"})
		started <- outcome{job, err}
	}()

	<-submitting
	tracker.Close()
	close(release)

	var got outcome
	select {
	case got = <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("start did not return after the submission completed")
	}
	assert.ErrorIs(t, got.err, ErrClosed)

	_, err := tracker.Get("late")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.Zero(t, statusReads.Load(), "a job submitted during shutdown is not followed")
}
