package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/fsm"
)

type fakeState struct {
	enabled bool
	hands   map[string]fsm.State
}

func (f fakeState) States() map[string]fsm.State { return f.hands }
func (f fakeState) Enabled() bool                { return f.enabled }

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
		assert.NotContains(t, response, "clients")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "method %s", method)
		}
	})

	t.Run("reports hub clients", func(t *testing.T) {
		s := New(Config{Hub: NewHub(testBounds, nil)})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, float64(0), response["clients"])
	})
}

func TestServer_State(t *testing.T) {
	t.Run("not registered without a source", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("reports per hand state", func(t *testing.T) {
		s := New(Config{State: fakeState{
			enabled: true,
			hands:   map[string]fsm.State{"Right": fsm.Armed, "Left": fsm.Disarmed},
		}})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var response stateResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.Enabled)
		assert.Equal(t, fsm.Armed, response.Hands["Right"])
		assert.Equal(t, fsm.Disarmed, response.Hands["Left"])
	})

	t.Run("empty hands encode as an object", func(t *testing.T) {
		s := New(Config{State: fakeState{}})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		assert.JSONEq(t, `{"enabled":false,"hands":{}}`, rec.Body.String())
	})

	t.Run("only allows GET method", func(t *testing.T) {
		s := New(Config{State: fakeState{}})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/state", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>overlay</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644))
	cssContent := "body { color: red; }"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644))

	s := New(Config{StaticDir: tmpDir})

	tests := []struct {
		name string
		path string
		code int
		body string
	}{
		{"serves index.html at root path", "/", http.StatusOK, testContent},
		{"serves static files", "/style.css", http.StatusOK, cssContent},
		{"returns 404 for non-existent files", "/nonexistent.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HTTPServer(t *testing.T) {
	s := New(Config{})
	hs := s.HTTPServer("127.0.0.1:0")
	assert.Equal(t, "127.0.0.1:0", hs.Addr)
	assert.Same(t, s, hs.Handler)
}
