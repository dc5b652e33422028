package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type fakeGenerator struct {
	sql   string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateSQL(_ context.Context, question string) (string, error) {
	f.calls++
	return f.sql, f.err
}

func submit(t *testing.T, h http.Handler, question string) (*http.Response, string) {
	t.Helper()
	form := url.Values{"question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()
	body, _ := io.ReadAll(res.Body)
	return res, string(body)
}

func newTestServer(gen Generator) http.Handler {
	return NewServer(gen, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler()
}

func TestForm(t *testing.T) {
	h := newTestServer(&fakeGenerator{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"MegatuneDB", `name="question"`, "Generate SQL"} {
		if !strings.Contains(body, want) {
			t.Errorf("form is missing %q", want)
		}
	}
}

func TestSubmitBlankNeverGenerates(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t "} {
		gen := &fakeGenerator{sql: "SELECT 1;"}
		res, body := submit(t, newTestServer(gen), q)

		if gen.calls != 0 {
			t.Errorf("question %q: generator called %d times", q, gen.calls)
		}
		if res.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("question %q: status = %d", q, res.StatusCode)
		}
		if !strings.Contains(body, msgInvalid) || !strings.Contains(body, `class="banner error"`) {
			t.Errorf("question %q: validation banner missing", q)
		}
	}
}

func TestSubmitSuccess(t *testing.T) {
	gen := &fakeGenerator{sql: "SELECT * FROM log_data;"}
	res, body := submit(t, newTestServer(gen), "Display log data from the last 1 hour.")

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if !strings.Contains(body, `class="banner success"`) || !strings.Contains(body, msgSuccess) {
		t.Errorf("success banner missing")
	}
	if !strings.Contains(body, "readonly>SELECT * FROM log_data;</textarea>") {
		t.Errorf("generated sql missing from output:\n%s", body)
	}
}

func TestSubmitError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	res, body := submit(t, newTestServer(gen), "Count errors")

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if !strings.Contains(body, "An error occurred: model unavailable") {
		t.Errorf("error banner missing:\n%s", body)
	}
	if strings.Contains(body, "readonly>") {
		t.Errorf("no output area expected on error")
	}
}

func TestSubmitEscapesOutput(t *testing.T) {
	gen := &fakeGenerator{sql: "SELECT '<script>';"}
	_, body := submit(t, newTestServer(gen), "q")
	if strings.Contains(body, "<script>") {
		t.Errorf("output not escaped")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(&fakeGenerator{})
	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
	}
}
