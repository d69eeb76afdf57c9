package v1

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/metamcp/metamcp/pkg/credential"
	"github.com/metamcp/metamcp/pkg/logger"
)

// AuthRoutes exposes POST /api/v1/auth/token.
type AuthRoutes struct {
	credentials *credential.Service
}

// NewAuthRoutes builds the auth routes over a credential service.
func NewAuthRoutes(credentials *credential.Service) *AuthRoutes {
	return &AuthRoutes{credentials: credentials}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// IssueToken handles POST /api/v1/auth/token.
func (a *AuthRoutes) IssueToken(w http.ResponseWriter, r *http.Request) error {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeUnauthorized(w, "Missing or invalid api_key")
		return nil
	}

	token, ttl, err := a.credentials.Authenticate(r.Context(), req.APIKey)
	if err != nil {
		logger.Warnf("token issuance failed: %v", err)
		writeUnauthorized(w, "Invalid or inactive credential")
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

// RequireBearer is the protected-route middleware: it verifies the
// Authorization header and stashes the credential subject in context.
// Per spec §4.2, malformed header / signature failure / revoked
// credential are distinguished only in logs; the response is a uniform
// 401 with a generic body.
func RequireBearer(credentials *credential.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				logger.Warnf("rejected request with missing/malformed Authorization header")
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			token := strings.TrimPrefix(header, prefix)

			subject, err := credentials.Validate(r.Context(), token)
			if err != nil {
				logger.Warnf("bearer validation failed: %v", err)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), subject)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             "unauthorized",
		"error_description": description,
	})
}
