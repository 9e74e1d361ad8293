package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AuthConfig struct {
	AdminEmail        string
	AdminName         string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	JWTIssuer         string
	JWTDuration       time.Duration
}

type CSVConfig struct {
	Format         string
	MaxUploadBytes int64
	MaxRows        int
}

type Config struct {
	HTTPAddr string
	SeedPath string
	LogLevel string
	Auth     AuthConfig
	CSV      CSVConfig
}

// SetDefaults registers every key with its dev default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("seed.path", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("auth.admin_email", "admin@microteca.local")
	v.SetDefault("auth.admin_name", "MICROTECA Administrator")
	// dev default (change for demo / production)
	v.SetDefault("auth.admin_password", "microteca-dev")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", "microteca")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)

	v.SetDefault("csv.format", "naive")
	v.SetDefault("csv.max_upload_bytes", int64(5<<20))
	v.SetDefault("csv.max_rows", 20000)
}

// NewViper returns a viper instance with defaults and MICROTECA_* env
// overrides (auth.jwt_secret -> MICROTECA_AUTH_JWT_SECRET). A non-empty
// configFile is read as well.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("MICROTECA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr: strings.TrimSpace(v.GetString("http.addr")),
		SeedPath: strings.TrimSpace(v.GetString("seed.path")),
		LogLevel: strings.TrimSpace(v.GetString("log.level")),
		Auth: AuthConfig{
			AdminEmail:        strings.TrimSpace(v.GetString("auth.admin_email")),
			AdminName:         v.GetString("auth.admin_name"),
			AdminPassword:     v.GetString("auth.admin_password"),
			AdminPasswordHash: strings.TrimSpace(v.GetString("auth.admin_password_hash")),
			JWTSecret:         v.GetString("auth.jwt_secret"),
			JWTIssuer:         v.GetString("auth.jwt_issuer"),
			JWTDuration:       v.GetDuration("auth.jwt_ttl"),
		},
		CSV: CSVConfig{
			Format:         v.GetString("csv.format"),
			MaxUploadBytes: v.GetInt64("csv.max_upload_bytes"),
			MaxRows:        v.GetInt("csv.max_rows"),
		},
	}

	if cfg.Auth.AdminEmail == "" {
		return Config{}, fmt.Errorf("auth.admin_email is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.Auth.JWTDuration <= 0 {
		// fallback to 24h
		cfg.Auth.JWTDuration = 24 * time.Hour
	}
	return cfg, nil
}
