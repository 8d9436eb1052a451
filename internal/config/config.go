package config

import (
	_ "embed"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// SourceKind identifies which backend holds the persisted face embeddings.
type SourceKind string

const (
	SourceSQLite   SourceKind = "sqlite"
	SourcePostgres SourceKind = "postgres"
	SourceMariaDB  SourceKind = "mariadb"
)

// Index modes for the match engine.
const (
	IndexExact = "exact"
	IndexHNSW  = "hnsw"
)

type Config struct {
	Database DatabaseConfig
	Match    MatchConfig
	Upload   UploadConfig
	Detector DetectorConfig
	Web      WebConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	URL          string // sqlite path, postgres:// URL or mysql:// DSN
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// Kind resolves the backend from the URL scheme. Anything that is not a
// PostgreSQL or MySQL URL is treated as a SQLite file.
func (c *DatabaseConfig) Kind() SourceKind {
	switch {
	case strings.HasPrefix(c.URL, "postgres://"), strings.HasPrefix(c.URL, "postgresql://"):
		return SourcePostgres
	case strings.HasPrefix(c.URL, "mysql://"):
		return SourceMariaDB
	default:
		return SourceSQLite
	}
}

// SQLitePath strips the optional sqlite:// or file: prefix.
func (c *DatabaseConfig) SQLitePath() string {
	p := strings.TrimPrefix(c.URL, "sqlite://")
	return strings.TrimPrefix(p, "file:")
}

// MySQLDSN returns the go-sql-driver DSN (the URL without its mysql:// scheme).
func (c *DatabaseConfig) MySQLDSN() string {
	return strings.TrimPrefix(c.URL, "mysql://")
}

type MatchConfig struct {
	EmbeddingDim  int           `yaml:"embedding_dim"`
	Threshold     float64       `yaml:"threshold"`
	Limit         int           `yaml:"limit"`
	Index         string        `yaml:"index"`
	TempFaceTTL   time.Duration `yaml:"-"`
	PurgeInterval time.Duration `yaml:"-"`
}

type tempFacesDefaults struct {
	TTL           time.Duration `yaml:"ttl"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type UploadConfig struct {
	MaxSize     int64 `yaml:"max_size"`
	MinFaceSize int   `yaml:"min_face_size"` // faces narrower or shorter than this are skipped
}

type DetectorConfig struct {
	URL string `yaml:"url"`
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

type defaults struct {
	Match     MatchConfig       `yaml:"match"`
	TempFaces tempFacesDefaults `yaml:"temp_faces"`
	Upload    UploadConfig      `yaml:"upload"`
	Detector  DetectorConfig    `yaml:"detector"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float. Negative values are
// accepted since similarity thresholds may be negative.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration ("30m") or a
// plain number of seconds ("1800").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func parseOrigins(s string) []string {
	var origins []string
	for o := range strings.SplitSeq(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	index := strings.ToLower(envString("MATCH_INDEX", d.Match.Index))
	if index != IndexHNSW {
		index = IndexExact
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          envString("DATABASE_URL", "data/database.db"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Match: MatchConfig{
			EmbeddingDim:  envInt("FACE_EMBEDDING_DIM", d.Match.EmbeddingDim),
			Threshold:     envFloat("MATCH_THRESHOLD", d.Match.Threshold),
			Limit:         envInt("MATCH_LIMIT", d.Match.Limit),
			Index:         index,
			TempFaceTTL:   envDuration("TEMP_FACE_TTL", d.TempFaces.TTL),
			PurgeInterval: envDuration("TEMP_FACE_PURGE_INTERVAL", d.TempFaces.PurgeInterval),
		},
		Upload: UploadConfig{
			MaxSize:     int64(envInt("MAX_UPLOAD_SIZE", int(d.Upload.MaxSize))),
			MinFaceSize: envInt("MIN_FACE_SIZE", d.Upload.MinFaceSize),
		},
		Detector: DetectorConfig{
			URL: envString("DETECTOR_URL", d.Detector.URL),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8000),
			AllowedOrigins: parseOrigins(os.Getenv("WEB_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
	}
}

// NewLogger builds the process logger from the log settings.
func (c *LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
