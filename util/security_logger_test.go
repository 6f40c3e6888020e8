package util

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/nathasitm/portfolio-backend/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func captureSecurityLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := GetSecurityLoggerForTest()
	var buf bytes.Buffer
	SetSecurityLoggerForTest(log.New(&buf, "[SECURITY] ", 0))
	t.Cleanup(func() { SetSecurityLoggerForTest(prev) })
	return &buf
}

func TestLogSecurityEventSanitizesFields(t *testing.T) {
	buf := captureSecurityLog(t)

	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Username:  "ali\nce",
		IP:        "203.0.113.1",
		UserAgent: strings.Repeat("a", 250),
		Message:   "Login failed:\r\ninjected",
	})

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("log entry spans multiple lines:\n%s", out)
	}
	if !strings.Contains(out, "Username=ali ce") {
		t.Errorf("newline in username not sanitized: %s", out)
	}
	if !strings.Contains(out, strings.Repeat("a", 200)+"...") {
		t.Errorf("long user agent not truncated: %s", out)
	}
}

func TestLogSecurityEventPersists(t *testing.T) {
	captureSecurityLog(t)
	if err := InitGeoIP(""); err != nil {
		t.Fatalf("InitGeoIP: %v", err)
	}

	db, err := gorm.Open(sqlite.Open("file:seclogtest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SecurityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	SetSecurityLoggerDB(db)
	t.Cleanup(func() { SetSecurityLoggerDB(nil) })

	LogLoginSuccess("42", "alice", "127.0.0.1", "test-agent")

	var entries []model.SecurityLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.EventType != string(EventLoginSuccess) {
		t.Errorf("EventType = %q", e.EventType)
	}
	if e.DiscordID != "42" || e.Username != "alice" {
		t.Errorf("identity not persisted: %+v", e)
	}
}

func TestLogSecurityEventWithoutDBDoesNotFail(t *testing.T) {
	buf := captureSecurityLog(t)
	SetSecurityLoggerDB(nil)

	LogLogout("42", "alice", "127.0.0.1", "test-agent")

	if !strings.Contains(buf.String(), "Event=LOGOUT") {
		t.Errorf("event not written to log: %s", buf.String())
	}
}
