package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	handler := Logger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/jobs", nil))

	line := buf.String()
	for _, want := range []string{
		`"method":"POST"`,
		`"path":"/v1/jobs"`,
		`"status":201`,
		`"bytes":7`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}
