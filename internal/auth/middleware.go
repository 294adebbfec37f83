package auth

import (
	"net/http"
	"strings"

	"github.com/nutriexpert/api/internal/config"
	"github.com/nutriexpert/api/internal/userctx"
)

// Middleware — middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// RequireAuth — middleware для защиты эндпоинтов
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.AuthRequired || isPublicPath(r.URL.Path, r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.authenticateHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		ctx := userctx.WithUserID(r.Context(), claims.UserID)
		ctx = userctx.WithRole(ctx, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (Claims, error) {
	if authHeader == "" {
		return Claims{}, ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Claims{}, ErrInvalidToken
	}

	return m.service.VerifyJWT(parts[1])
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// isPublicPath lists endpoints reachable without a token. Rule reads
// (list and per-id) and inference stay open: patients consult the
// advisor anonymously, as the original product allowed. Rule mutations
// share the /v1/rules prefix but use other methods, so they stay gated.
func isPublicPath(path, method string) bool {
	switch {
	case path == "/healthz":
		return true
	case strings.HasPrefix(path, "/v1/auth/register"), strings.HasPrefix(path, "/v1/auth/login"):
		return true
	case path == "/v1/infer":
		return true
	case method == http.MethodGet && (path == "/v1/rules" || strings.HasPrefix(path, "/v1/rules/")):
		return true
	}
	return false
}
