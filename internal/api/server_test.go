package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ouro/internal/app"
	"ouro/internal/balance"
	"ouro/internal/config"
	"ouro/internal/game"
	"ouro/internal/store"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv   *Server
	sess  *game.Session
	dir   string
	clock *game.ManualClock
}

func newFixture(t *testing.T, token string) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := game.NewEngine(game.EngineOptions{Balance: balance.Default(), Seed: 3, Logger: logger})
	clock := game.NewManualClock(t0)
	sess := game.NewSession(eng, clock, game.NewMeta("api-test", t0))

	dir := t.TempDir()
	st, err := store.NewFileStore(dir, "")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	saver := app.NewSaver(st, 0, logger)
	srv := New(config.APIConfig{Token: token}, logger, sess, saver)
	return fixture{srv: srv, sess: sess, dir: dir, clock: clock}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status got=%d", rec.Code)
	}
}

func TestSnapshotAndBite(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/v1/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status got=%d", rec.Code)
	}
	var snap game.Snapshot
	decodeBody(t, rec, &snap)
	if snap.BPM <= 0 || len(snap.Offerings) == 0 {
		t.Fatalf("snapshot looks empty: %+v", snap)
	}

	at := t0.Add(time.Duration(2 * 60 / snap.BPM * float64(time.Second)))
	f.clock.Set(at)
	rec = f.do(t, http.MethodPost, "/v1/bite", `{"at":"`+at.Format(time.RFC3339Nano)+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bite status got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out game.BiteOutcome
	decodeBody(t, rec, &out)
	if out.Result != game.BitePerfect {
		t.Fatalf("bite on the beat got=%q", out.Result)
	}

	rec = f.do(t, http.MethodPost, "/v1/bite", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("bite without body status got=%d", rec.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "purchase needs id or slot", method: http.MethodPost, path: "/v1/purchase", body: `{}`, want: http.StatusBadRequest},
		{name: "unknown upgrade", method: http.MethodPost, path: "/v1/purchase", body: `{"id":"laser_eyes"}`, want: http.StatusNotFound},
		{name: "unknown field", method: http.MethodPost, path: "/v1/purchase", body: `{"sku":"x"}`, want: http.StatusBadRequest},
		{name: "empty slot", method: http.MethodPost, path: "/v1/purchase", body: `{"slot":9}`, want: http.StatusOK},
		{name: "unknown archetype", method: http.MethodPost, path: "/v1/archetype/select", body: `{"id":"hydra"}`, want: http.StatusNotFound},
		{name: "unknown ascension", method: http.MethodPost, path: "/v1/ascend", body: `{"purchases":{"nope":1}}`, want: http.StatusNotFound},
		{name: "starting length without knowledge", method: http.MethodPost, path: "/v1/meta/starting-length", want: http.StatusBadRequest},
		{name: "unlock unknown", method: http.MethodPost, path: "/v1/meta/unlock", body: `{"id":"laser_eyes"}`, want: http.StatusNotFound},
		{name: "wipe without confirm", method: http.MethodPost, path: "/v1/wipe", body: `{}`, want: http.StatusBadRequest},
		{name: "import garbage", method: http.MethodPost, path: "/v1/import", body: `not json`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status got=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPreconditionFailuresReportNotOK(t *testing.T) {
	f := newFixture(t, "")
	for _, path := range []string{"/v1/shed", "/v1/ascend", "/v1/golden/catch", "/v1/bargain/accept", "/v1/echo/accept", "/v1/archetype/accept"} {
		rec := f.do(t, http.MethodPost, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status got=%d", path, rec.Code)
		}
		var out struct {
			OK bool `json:"ok"`
		}
		decodeBody(t, rec, &out)
		if out.OK {
			t.Fatalf("%s should not succeed on a fresh run", path)
		}
	}
}

func TestSaveConflictsAfterForeignWipe(t *testing.T) {
	f := newFixture(t, "")
	if rec := f.do(t, http.MethodPost, "/v1/save", ""); rec.Code != http.StatusOK {
		t.Fatalf("save status got=%d body=%s", rec.Code, rec.Body.String())
	}

	other, err := store.NewFileStore(f.dir, "")
	if err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if _, err := other.Wipe(context.Background()); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	if rec := f.do(t, http.MethodPost, "/v1/save", ""); rec.Code != http.StatusConflict {
		t.Fatalf("stale save status got=%d want=409", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/reload", ""); rec.Code != http.StatusOK {
		t.Fatalf("reload status got=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/v1/save", ""); rec.Code != http.StatusOK {
		t.Fatalf("save after reload status got=%d", rec.Code)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodGet, "/v1/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status got=%d", rec.Code)
	}
	raw := rec.Body.String()

	if rec := f.do(t, http.MethodPost, "/v1/wipe", `{"confirm":true}`); rec.Code != http.StatusOK {
		t.Fatalf("wipe status got=%d body=%s", rec.Code, rec.Body.String())
	}
	if f.sess.Record().Meta.InstallID == "api-test" {
		t.Fatalf("wipe should assign a new install id")
	}
	if rec := f.do(t, http.MethodPost, "/v1/import", raw); rec.Code != http.StatusOK {
		t.Fatalf("import status got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := f.sess.Record().Meta.InstallID; got != "api-test" {
		t.Fatalf("imported install id got=%q", got)
	}
}

func TestTokenRequired(t *testing.T) {
	f := newFixture(t, "s3cret")
	if rec := f.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz must stay open, got=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/v1/snapshot", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status got=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status got=%d", rec.Code)
	}
}
