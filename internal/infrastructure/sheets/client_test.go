package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/resilience"
	"github.com/riskibarqy/team-sheet-sync/internal/usecase"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, srv *httptest.Server, cb resilience.CircuitBreakerConfig) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		TokenSource:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-123"}),
		Logger:         logging.NewNop(),
		CircuitBreaker: cb,
	})
}

func TestClientListWorksheets_CachesTitles(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/spreadsheets/sheet-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-123" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		if got := r.URL.Query().Get("fields"); got != "sheets.properties.title" {
			t.Errorf("unexpected fields: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Selection"}},{"properties":{"title":"01: Leek (A)"}}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	for i := 0; i < 3; i++ {
		titles, err := client.ListWorksheets(context.Background(), "sheet-1")
		if err != nil {
			t.Fatalf("list worksheets: %v", err)
		}
		if len(titles) != 2 || titles[1] != "01: Leek (A)" {
			t.Fatalf("unexpected titles: %v", titles)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one document fetch, got %d", calls.Load())
	}
}

func TestClientGetGrid_QuotesRangeAndStringifiesCells(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spreadsheets/sheet-1/values/'Bob''s XV'!A1:C3" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("majorDimension"); got != "ROWS" {
			t.Errorf("unexpected major dimension: %s", got)
		}
		_, _ = w.Write([]byte(`{"range":"x","values":[["Thirds"],[],["15",7,true]]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	grid, err := client.GetGrid(context.Background(), "sheet-1", "Bob's XV", "A1:C3")
	if err != nil {
		t.Fatalf("get grid: %v", err)
	}
	if grid.Cell(0, 0) != "Thirds" || grid.Cell(1, 0) != "" || grid.Cell(2, 1) != "7" || grid.Cell(2, 2) != "true" {
		t.Fatalf("unexpected grid: %#v", grid)
	}
}

func TestClientBatchGetGrids_OneRoundTripInRequestOrder(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/spreadsheets/sheet-1/values:batchGet" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		ranges := r.URL.Query()["ranges"]
		if len(ranges) != 2 || ranges[0] != "'Leek'!A1:AZ60" || ranges[1] != "'Crewe'!A1:AZ60" {
			t.Errorf("unexpected ranges: %v", ranges)
		}
		_, _ = w.Write([]byte(`{"valueRanges":[{"values":[["a"]]},{"values":[["b"]]}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	grids, err := client.BatchGetGrids(context.Background(), "sheet-1", []string{"'Leek'!A1:AZ60", "'Crewe'!A1:AZ60"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(grids) != 2 || grids[0].Cell(0, 0) != "a" || grids[1].Cell(0, 0) != "b" {
		t.Fatalf("unexpected grids: %#v", grids)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one round-trip, got %d", calls.Load())
	}
}

func TestClientGetGrid_SharedRequestSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		_, _ = w.Write([]byte(`{"range":"x","values":[["Thirds"]]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	ctx, cancel := context.WithCancel(context.Background())

	type outcome struct {
		grid usecase.Grid
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		grid, err := client.GetGrid(ctx, "sheet-1", "Leek", "A1:A1")
		first <- outcome{grid: grid, err: err}
	}()

	<-started
	second := make(chan outcome, 1)
	go func() {
		grid, err := client.GetGrid(context.Background(), "sheet-1", "Leek", "A1:A1")
		second <- outcome{grid: grid, err: err}
	}()
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	for name, ch := range map[string]chan outcome{"cancelled caller": first, "joined caller": second} {
		got := <-ch
		if got.err != nil {
			t.Fatalf("%s: unexpected error: %v", name, got.err)
		}
		if got.grid.Cell(0, 0) != "Thirds" {
			t.Fatalf("%s: unexpected grid: %#v", name, got.grid)
		}
	}
}

func TestClientGetGrid_ErrorEvictsDocumentCache(t *testing.T) {
	t.Parallel()

	var docCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/spreadsheets/sheet-1" {
			docCalls.Add(1)
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Selection"}}]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"backend"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	ctx := context.Background()
	if _, err := client.ListWorksheets(ctx, "sheet-1"); err != nil {
		t.Fatalf("list worksheets: %v", err)
	}
	_, err := client.GetGrid(ctx, "sheet-1", "Selection", "")
	if err == nil || !errors.Is(err, errSheetsTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, err := client.ListWorksheets(ctx, "sheet-1"); err != nil {
		t.Fatalf("list worksheets again: %v", err)
	}
	if docCalls.Load() != 2 {
		t.Fatalf("expected document refetch after failed read, got %d fetches", docCalls.Load())
	}
}

func TestClient_DoesNotRetryByDefault(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	if _, err := client.GetGrid(context.Background(), "sheet-1", "Selection", ""); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClient_MapsAuthAndNotFoundStatuses(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/spreadsheets/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: false})
	if _, err := client.ListWorksheets(context.Background(), "missing"); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.ListWorksheets(context.Background(), "locked"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = client.GetGrid(ctx, "sheet-1", "Selection", "")
	}
	_, err := client.GetGrid(ctx, "sheet-1", "Selection", "")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open circuit to skip the request, got %d calls", calls.Load())
	}
}

func TestClientIsAuthenticated(t *testing.T) {
	t.Parallel()

	if NewClient(ClientConfig{Logger: logging.NewNop()}).IsAuthenticated(context.Background()) {
		t.Fatalf("expected unauthenticated without token source")
	}
	client := NewClient(ClientConfig{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "a"}),
		Logger:      logging.NewNop(),
	})
	if !client.IsAuthenticated(context.Background()) {
		t.Fatalf("expected authenticated with static token")
	}
	if _, err := client.ListWorksheets(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty spreadsheet id")
	}
}

func TestNewTokenSource(t *testing.T) {
	t.Parallel()

	ts, err := NewTokenSource(context.Background(), CredentialsConfig{})
	if err != nil || ts != nil {
		t.Fatalf("expected nil token source without credentials, got %v %v", ts, err)
	}

	if _, err := NewTokenSource(context.Background(), CredentialsConfig{RefreshToken: "r"}); err == nil {
		t.Fatalf("expected error without client id")
	}

	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(`{"refresh_token":"r","client_id":"id","client_secret":"secret"}`), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	ts, err = NewTokenSource(context.Background(), CredentialsConfig{TokenFile: path})
	if err != nil || ts == nil {
		t.Fatalf("expected token source from file, got %v %v", ts, err)
	}

	ts, err = NewTokenSource(context.Background(), CredentialsConfig{TokenFile: filepath.Join(t.TempDir(), "absent.json")})
	if err != nil || ts != nil {
		t.Fatalf("expected missing token file to be ignored, got %v %v", ts, err)
	}
}
