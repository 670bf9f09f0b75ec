// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the connection string, preferring DB_URL when set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogicSourceConfig is one "label=path" entry of APP_LOGIC_SOURCES. Columns
// maps a bare metric name to the full column name holding it in that source,
// as set through APP_LOGIC_COLUMNS.
type LogicSourceConfig struct {
	Logic   string
	Path    string
	Columns map[string]string
}

type AppConfig struct {
	DataDir             string
	LogicSources        []LogicSourceConfig
	LogicOrder          []string
	LeadTimePath        string
	VendorFrequencyPath string
	ReferenceSource     string // "file" or "postgres"
	DefaultLeadTimeDays *int // nil means the built-in default
	SafetyPolicy        string // "fixed_floor" or "lead_time"
	SafetyThreshold     float64
	LoadWorkers         int
}

type CacheConfig struct {
	Enabled              bool
	RedisURL             string
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	ComparisonTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket holding the extracts.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	AdminPort       string
}

var (
	once     sync.Once
	instance *Config
)

const defaultLogicSources = "Logic A=logic a.csv;Logic B=logic b.csv;Logic C=logic c.csv;Logic D=logic d.csv"

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("DB_URL", "")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "planning")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("APP_LOGIC_SOURCES", defaultLogicSources)
		viper.SetDefault("APP_LOGIC_COLUMNS", "")
		viper.SetDefault("APP_LOGIC_ORDER", "Logic A,Logic B,Logic C,Logic D")
		viper.SetDefault("APP_LEAD_TIME_PATH", "lead_time.csv")
		viper.SetDefault("APP_VENDOR_FREQUENCY_PATH", "vendor_frequency.csv")
		viper.SetDefault("APP_REFERENCE_SOURCE", "file")
		viper.SetDefault("APP_DEFAULT_LEAD_TIME_DAYS", 7)
		viper.SetDefault("APP_SAFETY_POLICY", "fixed_floor")
		viper.SetDefault("APP_SAFETY_THRESHOLD", 5.0)
		viper.SetDefault("APP_LOAD_WORKERS", 4)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_COMPARISON_TTL_SECONDS", 300)
		viper.SetDefault("S3_REGION", "us-east-1")
		viper.SetDefault("S3_USE_SSL", true)
		viper.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")
		viper.SetDefault("DRIVE_ADMIN_PORT", "8090")

		// Read from environment variables
		viper.AutomaticEnv()

		dataDir := viper.GetString("APP_DATA_DIR")
		ensureDir(dataDir)

		sources, err := ParseLogicSources(viper.GetString("APP_LOGIC_SOURCES"), dataDir)
		if err != nil {
			log.Fatalf("Invalid APP_LOGIC_SOURCES: %v", err)
		}
		if err := ParseLogicColumns(viper.GetString("APP_LOGIC_COLUMNS"), sources); err != nil {
			log.Fatalf("Invalid APP_LOGIC_COLUMNS: %v", err)
		}

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				URL:      viper.GetString("DB_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataDir:             dataDir,
				LogicSources:        sources,
				LogicOrder:          splitList(viper.GetString("APP_LOGIC_ORDER")),
				LeadTimePath:        ResolvePath(dataDir, viper.GetString("APP_LEAD_TIME_PATH")),
				VendorFrequencyPath: ResolvePath(dataDir, viper.GetString("APP_VENDOR_FREQUENCY_PATH")),
				ReferenceSource:     strings.ToLower(viper.GetString("APP_REFERENCE_SOURCE")),
				DefaultLeadTimeDays: intPtr(viper.GetInt("APP_DEFAULT_LEAD_TIME_DAYS")),
				SafetyPolicy:        strings.ToLower(viper.GetString("APP_SAFETY_POLICY")),
				SafetyThreshold:     viper.GetFloat64("APP_SAFETY_THRESHOLD"),
				LoadWorkers:         viper.GetInt("APP_LOAD_WORKERS"),
			},
			Cache: CacheConfig{
				Enabled:              viper.GetBool("CACHE_ENABLED"),
				RedisURL:             viper.GetString("REDIS_URL"),
				RedisHost:            viper.GetString("REDIS_HOST"),
				RedisPort:            viper.GetString("REDIS_PORT"),
				RedisPassword:        viper.GetString("REDIS_PASSWORD"),
				RedisDB:              viper.GetInt("REDIS_DB"),
				ComparisonTTLSeconds: viper.GetInt("CACHE_COMPARISON_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("S3_ENDPOINT"),
				AccessKey: viper.GetString("S3_ACCESS_KEY"),
				SecretKey: viper.GetString("S3_SECRET_KEY"),
				Bucket:    viper.GetString("S3_BUCKET"),
				Prefix:    viper.GetString("S3_PREFIX"),
				Region:    viper.GetString("S3_REGION"),
				UseSSL:    viper.GetBool("S3_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
				AdminPort:       viper.GetString("DRIVE_ADMIN_PORT"),
			},
			LogLevel: viper.GetString("LOG_LEVEL"),
		}
	})

	return instance
}

func intPtr(v int) *int { return &v }

// ParseLogicSources parses "Logic A=logic a.csv;Logic B=logic b.csv".
// Relative paths are resolved against dataDir. Order is preserved.
func ParseLogicSources(raw, dataDir string) ([]LogicSourceConfig, error) {
	var out []LogicSourceConfig
	seen := make(map[string]struct{})
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, path, ok := strings.Cut(entry, "=")
		label, path = strings.TrimSpace(label), strings.TrimSpace(path)
		if !ok || label == "" || path == "" {
			return nil, fmt.Errorf("entry %q must look like <logic>=<path>", entry)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("logic %q configured twice", label)
		}
		seen[label] = struct{}{}
		out = append(out, LogicSourceConfig{Logic: label, Path: ResolvePath(dataDir, path)})
	}
	return out, nil
}

// ParseLogicColumns parses column overrides such as
// "Logic A:New RL Qty=RL Qty Final;Logic A:Landed DOI=Landed" and attaches
// them to the matching sources.
func ParseLogicColumns(raw string, sources []LogicSourceConfig) error {
	byLabel := make(map[string]int, len(sources))
	for i, s := range sources {
		byLabel[s.Logic] = i
	}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, mapping, ok := strings.Cut(entry, ":")
		metric, column, ok2 := strings.Cut(mapping, "=")
		label = strings.TrimSpace(label)
		metric, column = strings.TrimSpace(metric), strings.TrimSpace(column)
		if !ok || !ok2 || label == "" || metric == "" || column == "" {
			return fmt.Errorf("entry %q must look like <logic>:<metric>=<column>", entry)
		}
		idx, known := byLabel[label]
		if !known {
			return fmt.Errorf("entry %q names logic %q which has no source", entry, label)
		}
		if sources[idx].Columns == nil {
			sources[idx].Columns = make(map[string]string)
		}
		if _, dup := sources[idx].Columns[metric]; dup {
			return fmt.Errorf("column for %s of %s configured twice", metric, label)
		}
		sources[idx].Columns[metric] = column
	}
	return nil
}

// ResolvePath joins relative paths onto dataDir. Empty stays empty.
func ResolvePath(dataDir, path string) string {
	if path == "" || filepath.IsAbs(path) || dataDir == "" {
		return path
	}
	return filepath.Join(dataDir, path)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
