package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cashflow"
	"example.com/debt-planner/backend/internal/engine"
)

type Config struct {
	Env        string
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	AI         AIConfig
	Cache      CacheConfig
	Admin      AdminConfig
	Engine     engine.Settings
	Allocation AllocationConfig
	Cashflow   cashflow.Thresholds
}

type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenTTL     time.Duration
	ShareTokenTTL      time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

type AIConfig struct {
	Enabled            bool
	Provider           string
	APIKey             string
	BaseURL            string
	Model              string
	Timeout            time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxOutputTokens    int
}

type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

type AdminConfig struct {
	Emails []string
}

// AllocationConfig — пороги ставок и пресеты доходности для политики распределения.
type AllocationConfig struct {
	Thresholds allocation.Thresholds `yaml:"thresholds"`
	Presets    allocation.Presets    `yaml:"presets"`
}

// Tuning — параметры расчетов; формат YAML-файла ENGINE_CONFIG_FILE.
type Tuning struct {
	Engine     engine.Settings     `yaml:"engine"`
	Allocation AllocationConfig    `yaml:"allocation"`
	Cashflow   cashflow.Thresholds `yaml:"cashflow"`
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	simulateRateLimit, err := parseIntEnv("SIMULATE_RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return cfg, err
	}

	simulateRateBurst, err := parseIntEnv("SIMULATE_RATE_LIMIT_BURST", 20)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:               getEnv("SERVER_HOST", "0.0.0.0"),
		Port:               serverPort,
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		IdleTimeout:        idleTimeout,
		RateLimitPerMinute: simulateRateLimit,
		RateLimitBurst:     simulateRateBurst,
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	autoMigrate, err := parseBoolEnv("DB_AUTO_MIGRATE", true)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "planner"),
		Password:        getEnv("DB_PASSWORD", "planner"),
		Name:            getEnv("DB_NAME", "debt_planner"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
		AutoMigrate:     autoMigrate,
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return cfg, err
	}

	shareTTL, err := parseDurationEnv("JWT_SHARE_TTL", 30*24*time.Hour)
	if err != nil {
		return cfg, err
	}

	rateLimitPerMinute, err := parseIntEnv("AUTH_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return cfg, err
	}

	rateLimitBurst, err := parseIntEnv("AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "debt-planner"),
		AccessTokenTTL:     accessTTL,
		ShareTokenTTL:      shareTTL,
		RateLimitPerMinute: rateLimitPerMinute,
		RateLimitBurst:     rateLimitBurst,
	}

	aiTimeout, err := parseDurationEnv("AI_TIMEOUT", 20*time.Second)
	if err != nil {
		return cfg, err
	}

	aiRateLimitPerMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return cfg, err
	}

	aiRateLimitBurst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	aiMaxOutputTokens, err := parseIntEnv("AI_MAX_OUTPUT_TOKENS", 2048)
	if err != nil {
		return cfg, err
	}

	aiProvider := strings.ToLower(getEnv("AI_PROVIDER", "gemini"))
	defaultBaseURL := "https://api.groq.com/openai/v1"
	defaultModel := "llama-3.1-8b-instant"
	if aiProvider == "gemini" {
		defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
		defaultModel = "gemini-1.5-flash"
	}

	aiAPIKey := getEnv("AI_API_KEY", "")
	if aiAPIKey == "" && aiProvider == "gemini" {
		aiAPIKey = getEnv("GEMINI_API_KEY", "")
	}

	aiEnabled, err := parseBoolEnv("AI_ENABLED", aiAPIKey != "")
	if err != nil {
		return cfg, err
	}

	cfg.AI = AIConfig{
		Enabled:            aiEnabled,
		Provider:           aiProvider,
		APIKey:             aiAPIKey,
		BaseURL:            getEnv("AI_BASE_URL", defaultBaseURL),
		Model:              getEnv("AI_MODEL", defaultModel),
		Timeout:            aiTimeout,
		RateLimitPerMinute: aiRateLimitPerMinute,
		RateLimitBurst:     aiRateLimitBurst,
		MaxOutputTokens:    aiMaxOutputTokens,
	}

	redisAddr := getEnv("REDIS_ADDR", "")
	cacheEnabled, err := parseBoolEnv("CACHE_ENABLED", redisAddr != "")
	if err != nil {
		return cfg, err
	}

	redisDB, err := parseIndexEnv("REDIS_DB", 0)
	if err != nil {
		return cfg, err
	}

	cacheTTL, err := parseDurationEnv("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Cache = CacheConfig{
		Enabled:  cacheEnabled,
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
		TTL:      cacheTTL,
		Prefix:   getEnv("CACHE_PREFIX", "debt-planner"),
	}

	cfg.Admin = AdminConfig{
		Emails: parseCSVEnv("ADMIN_EMAILS"),
	}

	tune, err := LoadTuning(getEnv("ENGINE_CONFIG_FILE", ""))
	if err != nil {
		return cfg, err
	}

	maxMonths, err := parseIntEnv("ENGINE_MAX_MONTHS", tune.Engine.MaxMonths)
	if err != nil {
		return cfg, err
	}

	hybridThreshold, err := parseFloatEnv("ENGINE_HYBRID_BALANCE_THRESHOLD", tune.Engine.HybridBalanceThreshold)
	if err != nil {
		return cfg, err
	}

	safetyMargin, err := parseFloatEnv("CASHFLOW_SAFETY_MARGIN", tune.Cashflow.SafetyMargin)
	if err != nil {
		return cfg, err
	}

	cfg.Engine = tune.Engine
	cfg.Engine.MaxMonths = maxMonths
	cfg.Engine.HybridBalanceThreshold = hybridThreshold
	cfg.Allocation = tune.Allocation
	cfg.Cashflow = tune.Cashflow
	cfg.Cashflow.SafetyMargin = safetyMargin

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required when AI_ENABLED is true")
	}

	if c.AI.Provider != "gemini" && c.AI.Provider != "groq" {
		return fmt.Errorf("AI_PROVIDER must be gemini or groq")
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CACHE_ENABLED is true")
	}

	return c.Tuning().Validate()
}

// Tuning возвращает итоговые параметры расчетов с учетом переменных окружения.
func (c Config) Tuning() Tuning {
	return Tuning{Engine: c.Engine, Allocation: c.Allocation, Cashflow: c.Cashflow}
}

// Validate проверяет параметры движка, политики распределения и анализатора.
func (t Tuning) Validate() error {
	if err := t.Engine.Validate(); err != nil {
		return fmt.Errorf("engine settings: %w", err)
	}

	if err := t.Allocation.Thresholds.Validate(); err != nil {
		return fmt.Errorf("allocation settings: %w", err)
	}

	if err := t.Allocation.Presets.Validate(); err != nil {
		return fmt.Errorf("allocation presets: %w", err)
	}

	if err := t.Cashflow.Validate(); err != nil {
		return fmt.Errorf("cashflow settings: %w", err)
	}

	return nil
}

// DefaultTuning возвращает встроенные параметры расчетов.
func DefaultTuning() Tuning {
	return Tuning{
		Engine: engine.DefaultSettings(),
		Allocation: AllocationConfig{
			Thresholds: allocation.DefaultThresholds(),
			Presets:    allocation.DefaultPresets(),
		},
		Cashflow: cashflow.DefaultThresholds(),
	}
}

// LoadTuning читает YAML-файл поверх значений по умолчанию; отсутствующие ключи сохраняют дефолты.
// Пустой путь возвращает DefaultTuning.
func LoadTuning(path string) (Tuning, error) {
	tune := DefaultTuning()
	if path == "" {
		return tune, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tune, fmt.Errorf("read engine config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &tune); err != nil {
		return tune, fmt.Errorf("parse engine config %s: %w", path, err)
	}

	return tune, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

// parseIndexEnv допускает ноль, в отличие от parseIntEnv (номер базы Redis).
func parseIndexEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}

	return parsed, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}

	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
