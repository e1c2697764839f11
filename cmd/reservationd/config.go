package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/internal/httpapi"
	"github.com/MarkoPoloResearchLab/tablebook/internal/notify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagDatabaseURL       = "database-url"
	flagStore             = "store"
	flagTimezone          = "timezone"
	flagListenAddr        = "listen-addr"
	flagGRPCListenAddr    = "grpc-listen-addr"
	flagAllowedOrigins    = "allowed-origins"
	flagSessionSigningKey = "session-signing-key"
	flagSessionIssuer     = "session-issuer"
	flagSessionCookie     = "session-cookie"
	flagSessionTTL        = "session-ttl"
	flagSecureCookie      = "secure-cookie"
	flagNotify            = "notify"
	flagNotifyTopic       = "notify-topic"
	flagRedisAddr         = "redis-addr"
	flagKafkaBrokers      = "kafka-brokers"
	flagMetrics           = "metrics"
	flagLoginID           = "login"
	flagPassword          = "password"
	envPrefix             = "TABLEBOOK"
	defaultDatabaseURL    = "sqlite:///tmp/tablebook.db"
	defaultTimezone       = "UTC"
	storeGorm             = "gorm"
	storePgx              = "pgx"
)

type storageConfig struct {
	DatabaseURL string
	Store       string
	Location    *time.Location
}

type serveConfig struct {
	Storage        storageConfig
	HTTP           httpapi.Config
	GRPCListenAddr string
	Notify         notify.Config
	MetricsEnabled bool
}

func addStorageFlags(flags *pflag.FlagSet) {
	flags.String(flagDatabaseURL, defaultDatabaseURL, "database URL (postgres://..., sqlite://path or a bare SQLite path)")
	flags.String(flagStore, storeGorm, "store implementation: gorm or pgx (pgx requires postgres)")
	flags.String(flagTimezone, defaultTimezone, "IANA time zone of the restaurant")
}

func addServeFlags(flags *pflag.FlagSet) {
	addStorageFlags(flags)
	flags.String(flagListenAddr, "", "HTTP listen address (default :8080)")
	flags.String(flagGRPCListenAddr, "", "gRPC listen address; empty disables the gRPC API")
	flags.String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	flags.String(flagSessionSigningKey, "", "HS256 key for manager sessions (required)")
	flags.String(flagSessionIssuer, "", "manager session issuer")
	flags.String(flagSessionCookie, "", "manager session cookie name")
	flags.Duration(flagSessionTTL, 0, "manager session lifetime (e.g. 8h)")
	flags.Bool(flagSecureCookie, false, "mark the session cookie Secure")
	flags.String(flagNotify, string(notify.BackendNone), "event publisher: none, channel, redis or kafka")
	flags.String(flagNotifyTopic, notify.DefaultTopic, "topic for reservation events")
	flags.String(flagRedisAddr, "", "Redis address for the redis publisher")
	flags.String(flagKafkaBrokers, "", "comma-separated Kafka brokers for the kafka publisher")
	flags.Bool(flagMetrics, true, "expose /metrics and count operations")
}

func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if bindErr != nil || flag.Name == "help" {
			return
		}
		bindErr = v.BindPFlag(flag.Name, flag)
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return v, nil
}

func loadStorageConfig(v *viper.Viper) (storageConfig, error) {
	cfg := storageConfig{
		DatabaseURL: strings.TrimSpace(v.GetString(flagDatabaseURL)),
		Store:       strings.ToLower(strings.TrimSpace(v.GetString(flagStore))),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.Store == "" {
		cfg.Store = storeGorm
	}
	if cfg.Store != storeGorm && cfg.Store != storePgx {
		return storageConfig{}, fmt.Errorf("%s must be %s or %s, got %q", flagStore, storeGorm, storePgx, cfg.Store)
	}
	timezone := strings.TrimSpace(v.GetString(flagTimezone))
	if timezone == "" {
		timezone = defaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return storageConfig{}, fmt.Errorf("%s: %w", flagTimezone, err)
	}
	cfg.Location = location
	return cfg, nil
}

func loadServeConfig(cmd *cobra.Command) (serveConfig, error) {
	v, err := newViper(cmd)
	if err != nil {
		return serveConfig{}, err
	}
	storage, err := loadStorageConfig(v)
	if err != nil {
		return serveConfig{}, err
	}
	cfg := serveConfig{
		Storage: storage,
		HTTP: httpapi.Config{
			ListenAddr:        strings.TrimSpace(v.GetString(flagListenAddr)),
			AllowedOrigins:    httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins)),
			SessionSigningKey: v.GetString(flagSessionSigningKey),
			SessionIssuer:     strings.TrimSpace(v.GetString(flagSessionIssuer)),
			SessionCookieName: strings.TrimSpace(v.GetString(flagSessionCookie)),
			SessionTTL:        v.GetDuration(flagSessionTTL),
			SecureCookie:      v.GetBool(flagSecureCookie),
		},
		GRPCListenAddr: strings.TrimSpace(v.GetString(flagGRPCListenAddr)),
		Notify: notify.Config{
			Backend:      notify.Backend(strings.ToLower(strings.TrimSpace(v.GetString(flagNotify)))),
			Topic:        strings.TrimSpace(v.GetString(flagNotifyTopic)),
			RedisAddr:    strings.TrimSpace(v.GetString(flagRedisAddr)),
			KafkaBrokers: splitList(v.GetString(flagKafkaBrokers)),
		},
		MetricsEnabled: v.GetBool(flagMetrics),
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return serveConfig{}, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
