package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/auth"
	"github.com/nathasitm/portfolio-backend/util"
)

const sessionContextKey = "admin_session"

// SessionTokenHeader carries the opaque session token on API requests.
const SessionTokenHeader = "session-token"

// LoginPath is the browser entry point unauthenticated visitors are sent to.
const LoginPath = "/login"

func lookupSession(c *gin.Context, holder *auth.Holder) (auth.Session, bool) {
	token := c.GetHeader(SessionTokenHeader)
	if token == "" {
		// Browser navigations carry the token as a cookie instead.
		if cookie, err := c.Cookie(SessionTokenHeader); err == nil {
			token = cookie
		}
	}
	return holder.Current(c.Request.Context(), token)
}

// RouteGuard gates browser-facing protected routes. Unauthenticated visitors
// are redirected to the login entry point with the original query string
// preserved, which keeps the shareable "secret link" pattern working across
// the redirect. Authenticated visitors pass through without re-verifying
// entitlement against Discord; the session is trusted for its lifetime.
func RouteGuard(holder *auth.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := lookupSession(c, holder)
		if !ok {
			target := LoginPath
			if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
				target += "?" + rawQuery
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// SessionAuth guards JSON API routes: a missing or invalid session token
// yields 401 and an unauthorized-access security event.
func SessionAuth(holder *auth.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := lookupSession(c, holder)
		if !ok {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "missing or invalid session token")
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token missing or invalid",
				Err: fmt.Errorf("unauthorized"),
			})
			c.Abort()
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// GetSession returns the authenticated session placed in the context by
// RouteGuard or SessionAuth.
func GetSession(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return auth.Session{}, false
	}
	session, ok := v.(auth.Session)
	return session, ok
}
