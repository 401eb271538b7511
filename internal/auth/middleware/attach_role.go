package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

// ErrUnknownSubject is returned by a SubjectLookup when the principal no
// longer exists.
var ErrUnknownSubject = errors.New("unknown subject")

// SubjectLookup resolves the stored role of a token subject.
type SubjectLookup func(ctx context.Context, sub string) (role string, err error)

// AttachRoleFromStore replaces the role claim with the stored one so a
// deleted judge's token stops working. Admin tokens are not backed by a row
// and keep their claim.
func AttachRoleFromStore(lookup SubjectLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if rbac.RoleFromContext(ctx) == rbac.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			role, err := lookup(ctx, SubjectFromContext(ctx))
			switch {
			case errors.Is(err, ErrUnknownSubject):
				http.Error(w, "forbidden", http.StatusForbidden)
			case err != nil:
				http.Error(w, "role lookup failed", http.StatusInternalServerError)
			default:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			}
		})
	}
}
