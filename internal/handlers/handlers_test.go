package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quotedeck/quotedeck/internal/config"
	"github.com/quotedeck/quotedeck/internal/credential"
	"github.com/quotedeck/quotedeck/internal/models"
	"github.com/quotedeck/quotedeck/internal/providers"
	"github.com/quotedeck/quotedeck/internal/slideshow"
	"github.com/quotedeck/quotedeck/internal/storage"
)

type fakeText struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeText) GenerateText(_ context.Context, config providers.Config) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if config.ResponseSchema == nil {
		return "Courage in quiet places", nil
	}
	parts := make([]string, 10)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"quote":"quote %d","image_prompt":"scene %d"}`, i, i)
	}
	return `{"concepts":[` + strings.Join(parts, ",") + `]}`, nil
}

type fakeImages struct {
	data   []byte
	failOn string
}

func (f *fakeImages) GenerateImages(_ context.Context, req providers.ImageRequest) ([]providers.Image, error) {
	if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
		return nil, nil
	}
	return []providers.Image{{Data: f.data, MIMEType: "image/jpeg"}}, nil
}

type testEnv struct {
	store  *storage.SessionStore
	mux    http.Handler
	text   *fakeText
	images *fakeImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 36)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	svc, err := slideshow.New(config.Default())
	if err != nil {
		t.Fatalf("slideshow.New() error = %v", err)
	}

	env := &testEnv{
		store:  storage.New(time.Hour),
		text:   &fakeText{},
		images: &fakeImages{data: buf.Bytes()},
	}
	factory := func(_ context.Context, rawKey string) (*credential.Handle, error) {
		key := strings.TrimSpace(rawKey)
		if key == "" {
			return nil, &models.EmptyInputError{Field: "API key"}
		}
		if key == "bad" {
			return nil, &models.CredentialInitError{Err: fmt.Errorf("rejected")}
		}
		return credential.NewHandle(key, env.text, env.images), nil
	}

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>quotedeck</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.mux = New(env.store, svc, factory, staticDir).Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// login stores a credential and returns the session cookie
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/credential", `{"api_key":" good-key "}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("credential status = %d, body = %s", rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleCredential(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "blank key", body: `{"api_key":"   "}`, wantStatus: http.StatusBadRequest, wantError: "Please enter an API key."},
		{name: "client init failure", body: `{"api_key":"bad"}`, wantStatus: http.StatusBadRequest, wantError: "could not be used"},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest, wantError: "Invalid JSON"},
		{name: "valid key", body: `{"api_key":"good"}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/credential", tt.body, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			body := decode(t, rec)
			if tt.wantError != "" {
				if msg, _ := body["error"].(string); !strings.Contains(msg, tt.wantError) {
					t.Errorf("error = %q, want it to contain %q", msg, tt.wantError)
				}
				return
			}
			if body["status"] != "ready" || body["fingerprint"] != credential.Fingerprint("good") {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestHandleCredentialRejectedKeyClearsSession(t *testing.T) {
	for _, key := range []string{"bad", "   "} {
		t.Run(key, func(t *testing.T) {
			env := newTestEnv(t)
			cookie := env.login(t)

			body, _ := json.Marshal(map[string]string{"api_key": key})
			if rec := env.do(t, http.MethodPost, "/api/credential", string(body), cookie); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			state := decode(t, env.do(t, http.MethodGet, "/api/state", "", cookie))
			if state["has_credential"] != false {
				t.Errorf("state after rejected key = %v, want no credential", state)
			}
			rec := env.do(t, http.MethodPost, "/api/generate", `{"theme":"rivers"}`, cookie)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("generate after rejected key status = %d, want 401", rec.Code)
			}
			if env.text.calls != 0 {
				t.Errorf("text model called %d times with a cleared credential", env.text.calls)
			}
		})
	}
}

func TestHandleCredentialWhileLoading(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	before, _ := env.store.Get(cookie.Value)
	if _, err := env.store.Begin(cookie.Value); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/credential", `{"api_key":"other-key"}`, cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if after, _ := env.store.Get(cookie.Value); after.Handle != before.Handle {
		t.Error("credential in use by a running generation was replaced")
	}
}

func TestHandleCredentialMethod(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/credential", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleGenerate(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/generate", `{"theme":"The price of chasing dreams"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Pages != 10 || len(resp.Captions) != 10 {
		t.Errorf("pages = %d, captions = %d, want 10", resp.Pages, len(resp.Captions))
	}
	if resp.Filename != "the-price-of-chasing-dreams.pdf" {
		t.Errorf("filename = %q", resp.Filename)
	}

	preview := env.do(t, http.MethodGet, resp.PreviewURL, "", cookie)
	if preview.Code != http.StatusOK {
		t.Fatalf("preview status = %d", preview.Code)
	}
	if ct := preview.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := preview.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Errorf("preview Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(preview.Body.Bytes(), []byte("%PDF-")) {
		t.Error("preview body is not a PDF")
	}

	download := env.do(t, http.MethodGet, resp.DownloadURL, "", cookie)
	if cd := download.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, resp.Filename) {
		t.Errorf("download Content-Disposition = %q", cd)
	}

	if other := env.do(t, http.MethodGet, resp.PreviewURL, "", nil); other.Code != http.StatusNotFound {
		t.Errorf("document visible to another session: status %d", other.Code)
	}

	state := decode(t, env.do(t, http.MethodGet, "/api/state", "", cookie))
	if state["state"] != "idle" || state["has_credential"] != true {
		t.Errorf("state after generate = %v", state)
	}
}

func TestHandleGenerateClearsPriorDocuments(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	var first generateResponse
	rec := env.do(t, http.MethodPost, "/api/generate", `{"theme":"rivers"}`, cookie)
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}

	env.images.failOn = "scene 2"
	rec = env.do(t, http.MethodPost, "/api/generate", `{"theme":"mountains"}`, cookie)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	if old := env.do(t, http.MethodGet, first.PreviewURL, "", cookie); old.Code != http.StatusNotFound {
		t.Errorf("prior document still served: status %d", old.Code)
	}
}

func TestHandleGenerateFailures(t *testing.T) {
	tests := []struct {
		name       string
		login      bool
		busy       bool
		failOn     string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "no credential", body: `{"theme":"rivers"}`, wantStatus: http.StatusUnauthorized, wantError: "API key first"},
		{name: "blank theme without credential", body: `{"theme":" "}`, wantStatus: http.StatusBadRequest, wantError: "Please enter a theme."},
		{name: "blank theme", login: true, body: `{"theme":"  "}`, wantStatus: http.StatusBadRequest, wantError: "Please enter a theme."},
		{name: "busy", login: true, busy: true, body: `{"theme":"rivers"}`, wantStatus: http.StatusConflict, wantError: "already being generated"},
		{name: "image failure", login: true, failOn: "scene 7", body: `{"theme":"rivers"}`, wantStatus: http.StatusBadGateway, wantError: "Image 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.images.failOn = tt.failOn

			var cookie *http.Cookie
			if tt.login {
				cookie = env.login(t)
			}
			if tt.busy {
				if _, err := env.store.Begin(cookie.Value); err != nil {
					t.Fatal(err)
				}
			}

			rec := env.do(t, http.MethodPost, "/api/generate", tt.body, cookie)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if msg, _ := decode(t, rec)["error"].(string); !strings.Contains(msg, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.wantError)
			}

			if tt.name == "blank theme" && env.text.calls != 0 {
				t.Errorf("text model called %d times for a blank theme", env.text.calls)
			}
			if tt.login && !tt.busy {
				if s, _ := env.store.Get(cookie.Value); s.State != storage.StateIdle {
					t.Errorf("state = %q after failure, want idle", s.State)
				}
			}
		})
	}
}

func TestHandleSuggest(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/suggest", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status without credential = %d, want 401", rec.Code)
	}

	cookie := env.login(t)
	rec := env.do(t, http.MethodPost, "/api/suggest", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if theme := decode(t, rec)["theme"]; theme != "Courage in quiet places" {
		t.Errorf("theme = %v", theme)
	}
}

func TestHandleState(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/state", "", nil)
	state := decode(t, rec)
	if state["state"] != "idle" || state["has_credential"] != false {
		t.Errorf("fresh state = %v", state)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie on first contact")
	}
}

func TestHandleStatic(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "quotedeck"},
		{path: "/missing.js", wantStatus: http.StatusNotFound},
		{path: "/healthcheck", wantStatus: http.StatusOK, wantBody: "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body, tt.wantBody)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: &models.EmptyInputError{Field: "theme"}, want: http.StatusBadRequest},
		{err: &models.CredentialInitError{}, want: http.StatusBadRequest},
		{err: models.ErrNoCredential, want: http.StatusUnauthorized},
		{err: models.ErrBusy, want: http.StatusConflict},
		{err: &models.GenerationError{Message: "x"}, want: http.StatusBadGateway},
		{err: &models.ImageGenerationError{}, want: http.StatusBadGateway},
		{err: &models.LayoutError{}, want: http.StatusInternalServerError},
		{err: context.Canceled, want: http.StatusServiceUnavailable},
		{err: fmt.Errorf("other"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
