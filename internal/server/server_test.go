package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sql2nl/internal/testutil"
	"github.com/leapstack-labs/sql2nl/internal/translate"
	"github.com/leapstack-labs/sql2nl/pkg/explain"
	"github.com/leapstack-labs/sql2nl/pkg/predict"
)

type staticResolver struct {
	text string
	err  error
}

func (r staticResolver) Resolve(string) (predict.Predictor, error) {
	return predict.PredictorFunc(func(context.Context, string) (string, error) {
		return r.text, r.err
	}), nil
}

func newTestServer(t *testing.T, resolver predict.Resolver) *Server {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	return New(Config{
		Translator: translate.New(translate.Config{Resolver: resolver, Logger: logger}),
		Logger:     logger,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		resolver predict.Resolver
		body     string
		wantCode int
		wantJSON string
	}{
		{
			name:     "baseline",
			body:     `{"sql": "SELECT * FROM public.users LIMIT 5;"}`,
			wantCode: http.StatusOK,
			wantJSON: `{"explanation": "Reads from public.users. Selects all columns. Limits output to 5 rows.", "mode": "baseline"}`,
		},
		{
			name:     "empty sql",
			body:     `{"sql": "   "}`,
			wantCode: http.StatusOK,
			wantJSON: `{"explanation": "Empty SQL.", "mode": "baseline"}`,
		},
		{
			name:     "model success",
			resolver: staticResolver{text: "Lists five users."},
			body:     `{"sql": "SELECT * FROM public.users LIMIT 5;", "model": "t5-redshift"}`,
			wantCode: http.StatusOK,
			wantJSON: `{"explanation": "Lists five users.", "mode": "llm"}`,
		},
		{
			name:     "model failure falls back",
			resolver: staticResolver{err: errors.New("model is loading")},
			body:     `{"sql": "SELECT * FROM public.users LIMIT 5;", "model": "t5-redshift"}`,
			wantCode: http.StatusOK,
			wantJSON: `{"explanation": "Reads from public.users. Selects all columns. Limits output to 5 rows.", "mode": "baseline", "warning": "model is loading"}`,
		},
		{
			name:     "model requested but not configured",
			body:     `{"sql": "SELECT 1", "model": "t5-redshift"}`,
			wantCode: http.StatusOK,
			wantJSON: `{"explanation": "Reads from an unspecified table or source.", "mode": "baseline", "warning": "model inference is not configured"}`,
		},
		{
			name:     "missing sql",
			body:     `{"model": "x"}`,
			wantCode: http.StatusBadRequest,
			wantJSON: `{"error": "field \"sql\" is required"}`,
		},
		{
			name:     "empty body",
			body:     ``,
			wantCode: http.StatusBadRequest,
			wantJSON: `{"error": "request body is empty"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.resolver)
			rec := do(t, s, http.MethodPost, "/translate", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantJSON, rec.Body.String())
		})
	}
}

func TestTranslate_InvalidJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/translate", `{"sql": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
}

func TestTranslate_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"sql": "` + strings.Repeat("a", maxBodyBytes+10) + `"}`
	rec := do(t, s, http.MethodPost, "/translate", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestTranslate_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/translate", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExplain(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/explain", `{"sql": "SELECT id FROM svv_table_info\nWHERE size > 10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got explain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, explain.NormalizedQuery("SELECT id FROM svv_table_info WHERE size > 10"), got.Normalized)
	assert.Equal(t, []string{"svv_table_info"}, got.Features.Tables)
	assert.True(t, got.Features.HasWhere)
	assert.True(t, got.Features.HasSystemTables)
	assert.Equal(t,
		"Reads from svv_table_info. Selects: id. Filters rows with a WHERE clause. Queries Redshift system tables (SVV_/STL_/PG_).",
		got.Explanation)
	require.Len(t, got.Fragments, 4)
	assert.Equal(t, explain.KeySystemTables, got.Fragments[3].Key)
}

func TestRequestLogging(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	s := New(Config{Logger: logger})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := logs.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "path=/healthz")
	assert.Contains(t, out, "status=200")
}

func TestServeListener_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(Config{Logger: testutil.NewTestLogger(t), ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, DefaultReadHeaderTimeout, s.readHeaderTimeout)
	assert.Equal(t, DefaultShutdownTimeout, s.shutdownTimeout)
	assert.NotNil(t, s.translator)
}
