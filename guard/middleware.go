package guard

import (
	"context"
	"net/http"

	"github.com/jrsteele09/backoffice-console/internal/utils"
	"github.com/jrsteele09/backoffice-console/profile"
	"github.com/rs/zerolog/log"
)

// ProfileSource yields the profile of the current session, fetching it when
// needed. *session.Store satisfies it.
type ProfileSource interface {
	Profile(ctx context.Context) (*profile.Profile, error)
}

type contextKey string

const contextKeyProfile contextKey = "profile"

// ProfileFromContext returns the profile the guard admitted, or nil
func ProfileFromContext(ctx context.Context) *profile.Profile {
	p, _ := ctx.Value(contextKeyProfile).(*profile.Profile)
	return p
}

// Middleware guards route. Denied requests are redirected with 303 and the
// view handler is never invoked.
func Middleware(src ProfileSource, route Route) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, err := src.Profile(r.Context())
			if err != nil {
				log.Debug().Err(err).Str("path", route.Path).Msg("no profile for guarded route")
				p = nil
			}

			switch d := route.Decide(p); d {
			case Allow:
				next(w, r.WithContext(context.WithValue(r.Context(), contextKeyProfile, p)))
			case RedirectLogin:
				http.Redirect(w, r, PathLogin, http.StatusSeeOther)
			default:
				log.Info().
					Str("path", route.Path).
					Str("role", string(p.Role)).
					Strs("permissions", utils.ToStringSlice([]profile.Permission(p.Permissions))).
					Msg("route denied")
				http.Redirect(w, r, PathUnauthorized, http.StatusSeeOther)
			}
		}
	}
}
