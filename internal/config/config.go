package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/logging"
	"github.com/riskibarqy/team-sheet-sync/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	DBURL                      string
	DBMaxOpenConns             int
	CacheEnabled               bool
	CacheTTL                   time.Duration
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	SwaggerEnabled             bool
	InternalJobToken           string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	Sheets                     SheetsConfig
	Spond                      SpondConfig
	Sync                       SyncConfig
	AMQP                       AMQPConfig
	LogLevel                   logging.Level
}

// SheetsConfig holds the Google Sheets gateway settings.
type SheetsConfig struct {
	ClientID         string
	ClientSecret     string
	RefreshToken     string
	TokenFile        string
	BaseURL          string
	Timeout          time.Duration
	MaxRetries       int
	DocumentCacheTTL time.Duration
	DocumentCacheMax int
	Circuit          resilience.CircuitBreakerConfig
}

type SpondConfig struct {
	Enabled  bool
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Circuit  resilience.CircuitBreakerConfig
}

// Configured reports whether credentials are present for the provider.
func (c SpondConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

type SyncConfig struct {
	SelectionSheet       string
	HomeGround           string
	Schedule             string
	Timezone             string
	MaxWorkers           int
	RunOnStart           bool
	BootstrapSpreadsheet string
}

type AMQPConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

func Load() (Config, error) {
	if err := loadDotEnv(getEnv("APP_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	sheets, err := loadSheetsConfig()
	if err != nil {
		return Config{}, err
	}
	spond, err := loadSpondConfig()
	if err != nil {
		return Config{}, err
	}
	syncCfg, err := loadSyncConfig()
	if err != nil {
		return Config{}, err
	}
	amqpCfg, err := loadAMQPConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "team-sheet-sync"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		SwaggerEnabled:             swaggerEnabled,
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		Sheets:                     sheets,
		Spond:                      spond,
		Sync:                       syncCfg,
		AMQP:                       amqpCfg,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	dbMaxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	if dbMaxOpenConns < 1 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 1")
	}
	cfg.DBMaxOpenConns = dbMaxOpenConns

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func loadSheetsConfig() (SheetsConfig, error) {
	timeout, err := time.ParseDuration(getEnv("SHEETS_TIMEOUT", "20s"))
	if err != nil {
		return SheetsConfig{}, fmt.Errorf("parse SHEETS_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return SheetsConfig{}, fmt.Errorf("SHEETS_TIMEOUT must be > 0")
	}
	maxRetries, err := getEnvAsInt("SHEETS_MAX_RETRIES", 0)
	if err != nil {
		return SheetsConfig{}, fmt.Errorf("parse SHEETS_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return SheetsConfig{}, fmt.Errorf("SHEETS_MAX_RETRIES must be >= 0")
	}
	cacheTTL, err := time.ParseDuration(getEnv("SHEETS_DOCUMENT_CACHE_TTL", "5m"))
	if err != nil {
		return SheetsConfig{}, fmt.Errorf("parse SHEETS_DOCUMENT_CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return SheetsConfig{}, fmt.Errorf("SHEETS_DOCUMENT_CACHE_TTL must be > 0")
	}
	cacheMax, err := getEnvAsInt("SHEETS_DOCUMENT_CACHE_MAX", 64)
	if err != nil {
		return SheetsConfig{}, fmt.Errorf("parse SHEETS_DOCUMENT_CACHE_MAX: %w", err)
	}
	if cacheMax < 1 {
		return SheetsConfig{}, fmt.Errorf("SHEETS_DOCUMENT_CACHE_MAX must be >= 1")
	}
	circuit, err := loadCircuitConfig("SHEETS")
	if err != nil {
		return SheetsConfig{}, err
	}

	return SheetsConfig{
		ClientID:         strings.TrimSpace(getEnv("GOOGLE_CLIENT_ID", "")),
		ClientSecret:     strings.TrimSpace(getEnv("GOOGLE_CLIENT_SECRET", "")),
		RefreshToken:     strings.TrimSpace(getEnv("GOOGLE_REFRESH_TOKEN", "")),
		TokenFile:        strings.TrimSpace(getEnv("GOOGLE_TOKEN_FILE", "")),
		BaseURL:          strings.TrimSpace(getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com/v4")),
		Timeout:          timeout,
		MaxRetries:       maxRetries,
		DocumentCacheTTL: cacheTTL,
		DocumentCacheMax: cacheMax,
		Circuit:          circuit,
	}, nil
}

func loadSpondConfig() (SpondConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("SPOND_ENABLED", "false"))
	if err != nil {
		return SpondConfig{}, fmt.Errorf("parse SPOND_ENABLED: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("SPOND_TIMEOUT", "15s"))
	if err != nil {
		return SpondConfig{}, fmt.Errorf("parse SPOND_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return SpondConfig{}, fmt.Errorf("SPOND_TIMEOUT must be > 0")
	}
	circuit, err := loadCircuitConfig("SPOND")
	if err != nil {
		return SpondConfig{}, err
	}

	return SpondConfig{
		Enabled:  enabled,
		BaseURL:  strings.TrimSpace(getEnv("SPOND_BASE_URL", "https://api.spond.com")),
		Username: strings.TrimSpace(getEnv("SPOND_USERNAME", "")),
		Password: getEnv("SPOND_PASSWORD", ""),
		Timeout:  timeout,
		Circuit:  circuit,
	}, nil
}

func loadSyncConfig() (SyncConfig, error) {
	maxWorkers, err := getEnvAsInt("SYNC_MAX_WORKERS", 4)
	if err != nil {
		return SyncConfig{}, fmt.Errorf("parse SYNC_MAX_WORKERS: %w", err)
	}
	if maxWorkers < 1 {
		return SyncConfig{}, fmt.Errorf("SYNC_MAX_WORKERS must be >= 1")
	}
	runOnStart, err := strconv.ParseBool(getEnv("SYNC_RUN_ON_START", "false"))
	if err != nil {
		return SyncConfig{}, fmt.Errorf("parse SYNC_RUN_ON_START: %w", err)
	}
	timezone := strings.TrimSpace(getEnv("SYNC_TIMEZONE", "Europe/London"))
	if _, err := time.LoadLocation(timezone); err != nil {
		return SyncConfig{}, fmt.Errorf("parse SYNC_TIMEZONE: %w", err)
	}

	return SyncConfig{
		SelectionSheet:       strings.TrimSpace(getEnv("SYNC_SELECTION_SHEET", "Selection")),
		HomeGround:           strings.TrimSpace(getEnv("SYNC_HOME_GROUND", "")),
		Schedule:             strings.TrimSpace(getEnv("SYNC_SCHEDULE", "0 */6 * * *")),
		Timezone:             timezone,
		MaxWorkers:           maxWorkers,
		RunOnStart:           runOnStart,
		BootstrapSpreadsheet: strings.TrimSpace(getEnv("SYNC_BOOTSTRAP_SPREADSHEET_ID", "")),
	}, nil
}

func loadAMQPConfig() (AMQPConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("AMQP_ENABLED", "false"))
	if err != nil {
		return AMQPConfig{}, fmt.Errorf("parse AMQP_ENABLED: %w", err)
	}
	url := strings.TrimSpace(getEnv("AMQP_URL", ""))
	if enabled && url == "" {
		return AMQPConfig{}, fmt.Errorf("AMQP_URL is required when AMQP_ENABLED=true")
	}

	return AMQPConfig{
		Enabled:  enabled,
		URL:      url,
		Exchange: strings.TrimSpace(getEnv("AMQP_EXCHANGE", "team-sheet-sync")),
	}, nil
}

func loadCircuitConfig(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", strconv.FormatBool(defaults.Enabled)))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	openTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String()))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}

	cfg := resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}
	if err := cfg.Validate(); err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_CIRCUIT: %w", prefix, err)
	}
	return cfg, nil
}

// loadDotEnv populates the environment from path without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
