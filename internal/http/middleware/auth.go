package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arrabal/mapaderecursos/internal/auth"
	"github.com/arrabal/mapaderecursos/internal/http/respond"
)

type contextKey string

const (
	ContextKeyAdminID contextKey = "admin_id"
	ContextKeyRole    contextKey = "role"
)

// Auth valida el JWT de acceso e inyecta el administrador en el contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuth, "token ausente", nil)
				return
			}

			claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(token))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, respond.CodeAuth, "token inválido", nil)
				return
			}
			adminID, _ := claims.AdminID()

			ctx := context.WithValue(r.Context(), ContextKeyAdminID, adminID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin exige el papel de administrador.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(GetRole(r.Context()), auth.RoleAdmin) {
			respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "acceso restringido a administradores", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAdminID recupera el id del administrador autenticado.
func GetAdminID(ctx context.Context) int64 {
	val, _ := ctx.Value(ContextKeyAdminID).(int64)
	return val
}

func GetRole(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}

// WithAdmin prepara un contexto autenticado; lo usan las pruebas y los CLIs.
func WithAdmin(ctx context.Context, adminID int64) context.Context {
	ctx = context.WithValue(ctx, ContextKeyAdminID, adminID)
	return context.WithValue(ctx, ContextKeyRole, auth.RoleAdmin)
}
