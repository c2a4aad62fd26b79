package middleware

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/diesel-log/userctx"
)

// Session keys
const (
	SessionUserID        = "user_id"
	SessionUserEmail     = "user_email"
	SessionUserNickname  = "user_nickname"
	SessionState         = "state"
	SessionRedirectAfter = "redirect_after_login"
)

// RequireAuth ensures the user is authenticated
// If not authenticated, redirects to /login and stores the intended destination
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		userID, _ := sess.Get(SessionUserID).(string)

		if userID == "" {
			// Only pages are worth returning to; streams and downloads go home
			if r.Method == http.MethodGet && r.URL.Path == "/" {
				sess.Set(SessionRedirectAfter, r.URL.RequestURI())
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		// Add user to request context for use in handlers and the store
		ctx := userctx.SetUserID(r.Context(), userID)
		if email, ok := sess.Get(SessionUserEmail).(string); ok && email != "" {
			ctx = userctx.SetUserEmail(ctx, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
