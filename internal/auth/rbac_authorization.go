package auth

import (
	"net/http"

	"github.com/frahmantamala/project-ledger/internal"
	userDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/user"
	"github.com/frahmantamala/project-ledger/internal/transport"
)

// RBACAuthorization gates routes on the principal's role. Project scoping is
// left to the services.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: baseHandler}
}

func HasAnyRole(user *internal.User, roles ...string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

func (ra *RBACAuthorization) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := ra.CurrentUser(w, r)
			if !ok {
				return
			}

			if !HasAnyRole(user, roles...) {
				ra.Logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.WriteAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(userDatamodel.RoleAdmin)
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRole(userDatamodel.RoleAdmin, userDatamodel.RoleManager)
}
