package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"eukexpress-backend/internal/auth"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

type contextKey string

const (
	AdminIDKey  contextKey = "admin_id"
	UsernameKey contextKey = "username"
)

// AdminLookup loads the admin behind a token
type AdminLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Admin, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	admins     AdminLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, admins AdminLookup) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, admins: admins}
}

// Authenticate is a middleware that validates admin JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		id, err := uuid.Parse(claims.AdminID)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// Check the database so a deactivated admin is locked out at once
		admin, err := m.admins.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Admin not found")
			return
		}
		if !admin.IsActive {
			utils.Error(w, http.StatusForbidden, "Account suspended")
			return
		}

		ctx := context.WithValue(r.Context(), AdminIDKey, admin.ID)
		ctx = context.WithValue(ctx, UsernameKey, admin.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a websocket upgrade, so those may pass ?token= instead.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
	}
	return "", false
}

// AdminIDFromContext extracts the admin ID from request context
func AdminIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AdminIDKey).(uuid.UUID)
	return id, ok
}

// Actor is the username recorded in audit rows
func Actor(ctx context.Context) string {
	if u, ok := ctx.Value(UsernameKey).(string); ok && u != "" {
		return u
	}
	return "admin"
}
