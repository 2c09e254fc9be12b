package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("app_name", "Trojsten Graph")
	viper.SetDefault("http_host", "0.0.0.0")
	viper.SetDefault("http_port", "8000")
	viper.SetDefault("site_url", "http://localhost:8000")
	viper.SetDefault("cors_origins", "*")
	viper.SetDefault("debug", false)
	viper.SetDefault("log_level", "info")

	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", "5432")
	viper.SetDefault("db_user", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_database", "graph")
	viper.SetDefault("db_sslmode", "disable")

	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("jwt_ttl", 24*time.Hour)
	viper.SetDefault("jwt_remember_ttl", 30*24*time.Hour)
	viper.SetDefault("usecase_timeout", 10*time.Second)

	viper.SetDefault("smtp_host", "")
	viper.SetDefault("smtp_port", 587)
	viper.SetDefault("smtp_user", "")
	viper.SetDefault("smtp_password", "")
	viper.SetDefault("email_sender", "graph@localhost")

	viper.SetDefault("admin_email", "")
	viper.SetDefault("admin_password", "")
}

// Load reads an optional .env file and config file, then lets the
// environment override both. Keys map to upper case variables, so
// db_host is read from DB_HOST.
func Load(cfgFile string) error {
	if err := godotenv.Load(); err != nil {
		GetLogrusInstance().Debug("no .env file loaded")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	viper.AutomaticEnv()
	configureLogger(GetLogrusInstance())
	return nil
}

func GetAppName() string {
	return viper.GetString("app_name")
}

func IsDebug() bool {
	return viper.GetBool("debug")
}

// GetSiteURL is the public base URL used in mailed links.
func GetSiteURL() string {
	return strings.TrimRight(viper.GetString("site_url"), "/")
}

func GetCORSOrigins() string {
	return viper.GetString("cors_origins")
}

var ErrMissingJWTSecret = errors.New("jwt_secret is not set")

func GetJWTSecret() []byte {
	return []byte(viper.GetString("jwt_secret"))
}

// CheckJWTSecret fails when no signing key is configured. An empty HMAC key
// would let anyone sign tokens.
func CheckJWTSecret() error {
	if len(GetJWTSecret()) == 0 {
		return ErrMissingJWTSecret
	}
	return nil
}

// GetJWTTTL is the token lifetime, longer when the user asked to be
// remembered.
func GetJWTTTL(remember bool) time.Duration {
	if remember {
		return viper.GetDuration("jwt_remember_ttl")
	}
	return viper.GetDuration("jwt_ttl")
}

func GetUseCaseTimeout() time.Duration {
	return viper.GetDuration("usecase_timeout")
}

func GetAdminCredentials() (email, password string) {
	return viper.GetString("admin_email"), viper.GetString("admin_password")
}
