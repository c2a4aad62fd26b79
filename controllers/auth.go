package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"gitea.com/go-chi/session"
	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/authenticator"
	"github.com/blogem/diesel-log/middleware"
	"github.com/blogem/diesel-log/userctx"
)

// AuthController handles OpenID Connect sign-in
type AuthController struct {
	provider authenticator.Provider
	logger   logrus.FieldLogger
}

// NewAuthController creates a new auth controller
func NewAuthController(provider authenticator.Provider, logger logrus.FieldLogger) *AuthController {
	return &AuthController{provider: provider, logger: logger}
}

// Login initiates the authentication process
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	// Generate random state
	state, err := generateRandomState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the state in the session to validate in callback
	sess := session.GetSession(r)
	sess.Set(middleware.SessionState, state)

	http.Redirect(w, r, ac.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the redirect back from the identity provider
func (ac *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	// Verify state
	storedState, _ := sess.Get(middleware.SessionState).(string)
	if storedState == "" {
		http.Error(w, "State not found in session", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != storedState {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	// Exchange the code for a token
	token, err := ac.provider.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		ac.logger.WithError(err).Warn("Failed to exchange authorization code")
		http.Error(w, "Failed to exchange authorization code for a token: "+err.Error(), http.StatusUnauthorized)
		return
	}

	// Verify the ID token and extract profile information
	claims, err := ac.provider.GetClaims(r.Context(), token)
	if err != nil {
		ac.logger.WithError(err).Warn("Failed to verify ID token")
		http.Error(w, "Failed to verify ID Token: "+err.Error(), http.StatusInternalServerError)
		return
	}

	subject := claims.String("sub")
	if subject == "" {
		http.Error(w, "ID token has no subject", http.StatusUnauthorized)
		return
	}

	sess.Set(middleware.SessionUserID, subject)
	sess.Set(middleware.SessionUserEmail, claims.Email())
	sess.Set(middleware.SessionUserNickname, claims.DisplayName())
	sess.Delete(middleware.SessionState)

	ac.logger.WithField("user", claims.Email()).Info("User signed in")

	// Return to the page that asked for sign-in
	target := "/"
	if redirect, ok := sess.Get(middleware.SessionRedirectAfter).(string); ok && redirect != "" {
		target = redirect
		sess.Delete(middleware.SessionRedirectAfter)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout clears the session
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	for _, key := range []string{
		middleware.SessionUserID,
		middleware.SessionUserEmail,
		middleware.SessionUserNickname,
		middleware.SessionRedirectAfter,
	} {
		sess.Delete(key)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// currentUser names the signed-in operator for the page header
func currentUser(r *http.Request) string {
	if !userctx.IsSignedIn(r.Context()) {
		return ""
	}
	return userctx.GetUserEmail(r.Context())
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
