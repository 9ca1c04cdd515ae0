package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Log    LogConfig
	Input  InputConfig
	Report ReportConfig
	Server ServerConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// InputConfig locates the identity and enrollment tables.
type InputConfig struct {
	BaseDir     string
	NamesFile   string
	CoursesFile string
}

// ReportConfig controls where and how the report is written.
type ReportConfig struct {
	OutputFile string
	Format     string
	Title      string
}

// ServerConfig configures the HTTP preview service.
type ServerConfig struct {
	Port           int
	APIPrefix      string
	AllowedOrigins []string
	MaxUploadBytes int64
	EnableDocs     bool
}

// Load reads configuration from the environment (and an optional .env file) without command-line flags.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags reads configuration, letting any flags that were explicitly set override the environment.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Input = InputConfig{
		BaseDir:     v.GetString("DATA_DIR"),
		NamesFile:   v.GetString("NAMES_FILE"),
		CoursesFile: v.GetString("COURSES_FILE"),
	}

	cfg.Report = ReportConfig{
		OutputFile: v.GetString("OUTPUT_FILE"),
		Format:     strings.ToLower(v.GetString("REPORT_FORMAT")),
		Title:      v.GetString("REPORT_TITLE"),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Server = ServerConfig{
		Port:           v.GetInt("PORT"),
		APIPrefix:      v.GetString("API_PREFIX"),
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxUploadBytes: maxUpload,
		EnableDocs:     v.GetBool("ENABLE_DOCS"),
	}

	return cfg, nil
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"names":     "NAMES_FILE",
	"courses":   "COURSES_FILE",
	"output":    "OUTPUT_FILE",
	"format":    "REPORT_FORMAT",
	"title":     "REPORT_TITLE",
	"data-dir":  "DATA_DIR",
	"log-level": "LOG_LEVEL",
	"port":      "PORT",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DATA_DIR", ".")
	v.SetDefault("NAMES_FILE", "NameFile.txt")
	v.SetDefault("COURSES_FILE", "CourseFile.txt")
	v.SetDefault("OUTPUT_FILE", "Output.txt")
	v.SetDefault("REPORT_FORMAT", "text")
	v.SetDefault("REPORT_TITLE", "Final Grades")

	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("ENABLE_DOCS", true)
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
