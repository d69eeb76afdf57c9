package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBackendURL_ValidURLsAccepted(t *testing.T) {
	valid := []string{
		"https://api.example.com",
		"http://example.com:8080/path",
		"https://sub.domain.example.com",
		"http://8.8.8.8",
	}
	for _, u := range valid {
		assert.NoErrorf(t, ValidateBackendURL(u), "expected %s to be accepted", u)
	}
}

func TestValidateBackendURL_LocalhostBlocked(t *testing.T) {
	blocked := []string{
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://[::1]:8080",
		"http://0.0.0.0",
	}
	for _, u := range blocked {
		assert.Errorf(t, ValidateBackendURL(u), "expected %s to be blocked", u)
	}
}

func TestValidateBackendURL_PrivateIPsBlocked(t *testing.T) {
	blocked := []string{
		"http://10.0.0.1",
		"http://192.168.1.1",
		"http://172.16.0.1",
	}
	for _, u := range blocked {
		assert.Errorf(t, ValidateBackendURL(u), "expected %s to be blocked", u)
	}
}

func TestValidateBackendURL_CloudMetadataBlocked(t *testing.T) {
	assert.Error(t, ValidateBackendURL("http://169.254.169.254/latest/meta-data/"))
	assert.Error(t, ValidateBackendURL("http://metadata.google.internal"))
}

func TestValidateBackendURL_InvalidSchemeBlocked(t *testing.T) {
	assert.Error(t, ValidateBackendURL("ftp://example.com"))
	assert.Error(t, ValidateBackendURL("file:///etc/passwd"))
}

func TestValidateBackendURL_CarrierGradeNATAndBenchmarkingBlocked(t *testing.T) {
	assert.Error(t, ValidateBackendURL("http://100.64.0.1"))
	assert.Error(t, ValidateBackendURL("http://198.18.0.1"))
	assert.Error(t, ValidateBackendURL("http://192.0.2.1"))
}

func TestSecurityHeaders_Applied(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
}
