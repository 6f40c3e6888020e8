package middleware

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/auth"
	"github.com/nathasitm/portfolio-backend/util"
)

func TestEndpointCallLoggerRecordsRequests(t *testing.T) {
	prev := util.GetSecurityLoggerForTest()
	var buf bytes.Buffer
	util.SetSecurityLoggerForTest(log.New(&buf, "", 0))
	t.Cleanup(func() { util.SetSecurityLoggerForTest(prev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(EndpointCallLogger())
	r.GET("/work", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/work?type=Video", nil)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "Event=ENDPOINT_CALL") {
		t.Errorf("endpoint call not logged: %s", out)
	}
	if !strings.Contains(out, "GET /work -> 200") {
		t.Errorf("method/path/status missing: %s", out)
	}
}

func TestEndpointCallLoggerEnrichesWithSession(t *testing.T) {
	prev := util.GetSecurityLoggerForTest()
	var buf bytes.Buffer
	util.SetSecurityLoggerForTest(log.New(&buf, "", 0))
	t.Cleanup(func() { util.SetSecurityLoggerForTest(prev) })

	holder := auth.NewHolder(auth.NewStore(nil), time.Minute)
	token, err := holder.Login(context.Background(), auth.Session{Username: "alice", ExternalID: "42", Role: auth.AdminRole})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", SessionAuth(holder), EndpointCallLogger(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(SessionTokenHeader, token)
	r.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "Username=alice") {
		t.Errorf("session identity missing from endpoint log: %s", out)
	}
}
