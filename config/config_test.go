package config

import (
	"os"
	"testing"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	ResetConfigForTesting()
	t.Cleanup(ResetConfigForTesting)

	os.Setenv("APPNAME", "portfolio-backend")
	os.Setenv("APPENV", "test")
	os.Setenv("APPPORT", "8080")
	os.Setenv("DISCORD_CLIENT_ID", "client-1")
	os.Setenv("DISCORD_GUILD_ID", "guild-1")
	os.Setenv("DISCORD_ROLE_ID", "role-1")
	os.Setenv("LOGIN_PASS_KEY", "s3cret")
	os.Setenv("IP_LOOKUP_URL", "")
	os.Setenv("REPORT_TIMEZONE", "")

	cfg := LoadConfig()
	if cfg.AppName != "portfolio-backend" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("AppPort = %d", cfg.AppPort)
	}
	if cfg.DiscordClientID != "client-1" || cfg.DiscordGuildID != "guild-1" || cfg.DiscordRoleID != "role-1" {
		t.Errorf("discord config not loaded: %+v", cfg)
	}
	if cfg.LoginPassKey != "s3cret" {
		t.Errorf("LoginPassKey = %q", cfg.LoginPassKey)
	}
	if cfg.IPLookupURL != "https://ipapi.co/%s/json/" {
		t.Errorf("IPLookupURL default = %q", cfg.IPLookupURL)
	}
	if cfg.ReportTimezone != "Asia/Bangkok" {
		t.Errorf("ReportTimezone default = %q", cfg.ReportTimezone)
	}
}

func TestLoadConfigIsSingleton(t *testing.T) {
	ResetConfigForTesting()
	t.Cleanup(ResetConfigForTesting)

	os.Setenv("APPNAME", "first")
	first := LoadConfig()

	os.Setenv("APPNAME", "second")
	second := LoadConfig()

	if first != second {
		t.Errorf("LoadConfig returned distinct instances")
	}
	if second.AppName != "first" {
		t.Errorf("singleton re-read the environment: %q", second.AppName)
	}
}

func TestConnectRedisSkippedInTestEnv(t *testing.T) {
	ResetConfigForTesting()
	t.Cleanup(ResetConfigForTesting)
	os.Setenv("APPENV", "test")

	SetRedisClientForTesting(nil)
	rdb, err := ConnectRedis()
	if err != nil {
		t.Fatalf("ConnectRedis in test env: %v", err)
	}
	if rdb != nil {
		t.Errorf("ConnectRedis should not connect in the test environment")
	}
	if GetRedisClient() != nil {
		t.Errorf("GetRedisClient should be nil in the test environment")
	}
}
