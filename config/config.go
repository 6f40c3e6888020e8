package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	DBHost  string `json:"dbhost"`
	DBPort  uint16 `json:"dbport"`
	DBName  string `json:"dbname"`
	DBUser  string `json:"dbuser"`
	DBPass  string `json:"dbpass"`

	// Discord OAuth (implicit grant) and webhook reporting. Each value may be
	// absent; the consuming component decides how absence degrades.
	DiscordClientID   string `json:"discord_client_id"`
	DiscordGuildID    string `json:"discord_guild_id"`
	DiscordRoleID     string `json:"discord_role_id"`
	DiscordWebhookURL string `json:"discord_webhook_url"`

	// LoginPassKey is the static "secret link" query value checked by the
	// login entry point. Not a security boundary, only link-sharing obscurity.
	LoginPassKey string `json:"login_pass_key"`

	// IPLookupURL is a printf-style template receiving the client IP, e.g.
	// "https://ipapi.co/%s/json/". GeoIPDBPath optionally points at a local
	// GeoLite2 .mmdb used before falling back to the HTTP lookup.
	IPLookupURL    string `json:"ip_lookup_url"`
	GeoIPDBPath    string `json:"geoip_db_path"`
	ReportTimezone string `json:"report_timezone"`
}

var config *Config
var once sync.Once

// LoadConfig loads environment variables from a .env file when present and
// returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env file is fine in containerized deployments where the
		// environment is injected directly.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		config = &Config{
			AppName: os.Getenv("APPNAME"),
			AppEnv:  os.Getenv("APPENV"),
			AppPort: uint16(appPort),
			GinMode: os.Getenv("GINMODE"),
			DBHost:  os.Getenv("DBHOST"),
			DBPort:  uint16(dbPort),
			DBName:  os.Getenv("DBNAME"),
			DBUser:  os.Getenv("DBUSER"),
			DBPass:  os.Getenv("DBPASS"),

			DiscordClientID:   os.Getenv("DISCORD_CLIENT_ID"),
			DiscordGuildID:    os.Getenv("DISCORD_GUILD_ID"),
			DiscordRoleID:     os.Getenv("DISCORD_ROLE_ID"),
			DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

			LoginPassKey: os.Getenv("LOGIN_PASS_KEY"),

			IPLookupURL:    os.Getenv("IP_LOOKUP_URL"),
			GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
			ReportTimezone: os.Getenv("REPORT_TIMEZONE"),
		}

		if config.IPLookupURL == "" {
			config.IPLookupURL = "https://ipapi.co/%s/json/"
		}
		if config.ReportTimezone == "" {
			config.ReportTimezone = "Asia/Bangkok"
		}
	})
	return config
}

// ResetConfigForTesting clears the singleton so tests can reload with a
// different environment. Only for use in tests.
func ResetConfigForTesting() {
	config = nil
	once = sync.Once{}
}

// ConnectMySQL establishes a connection to a MySQL database using the
// configuration values.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
