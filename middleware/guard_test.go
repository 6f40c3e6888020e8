package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/auth"
	"github.com/nathasitm/portfolio-backend/util"
)

func newGuardedRouter(t *testing.T) (*gin.Engine, *auth.Holder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	holder := auth.NewHolder(auth.NewStore(nil), time.Minute)

	r := gin.New()
	r.GET("/admin", RouteGuard(holder), func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			t.Errorf("guard passed without placing the session in context")
		}
		c.JSON(http.StatusOK, gin.H{"username": session.Username})
	})
	r.GET("/api/private", SessionAuth(holder), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, holder
}

func loginTestSession(t *testing.T, holder *auth.Holder) string {
	t.Helper()
	token, err := holder.Login(context.Background(), auth.Session{
		Username:   "alice",
		ExternalID: "42",
		Role:       auth.AdminRole,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

func TestRouteGuardRedirectsPreservingQuery(t *testing.T) {
	r, _ := newGuardedRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin?pass=hunter2&tab=works", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?pass=hunter2&tab=works" {
		t.Errorf("Location = %q, want query string preserved", loc)
	}
}

func TestRouteGuardRedirectsWithoutQuery(t *testing.T) {
	r, _ := newGuardedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want bare login path", loc)
	}
}

func TestRouteGuardAllowsSessionCookie(t *testing.T) {
	r, holder := newGuardedRouter(t)
	token := loginTestSession(t, holder)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionTokenHeader, Value: token})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
}

func TestSessionAuthRejectsMissingToken(t *testing.T) {
	r, _ := newGuardedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/private", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp util.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Errorf("unauthorized response flagged success")
	}
}

func TestSessionAuthRejectsStaleToken(t *testing.T) {
	r, holder := newGuardedRouter(t)
	token := loginTestSession(t, holder)
	holder.Logout(context.Background(), token)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set(SessionTokenHeader, token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestSessionAuthAllowsHeaderToken(t *testing.T) {
	r, holder := newGuardedRouter(t)
	token := loginTestSession(t, holder)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set(SessionTokenHeader, token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
}
