package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"neurodvach/utils"

	"gopkg.in/yaml.v2"
)

// Settings holds runtime configuration. It is built once at startup and never mutated.
type Settings struct {
	Port   string `yaml:"port"`
	DBFile string `yaml:"database_file"`

	Log    LogSettings    `yaml:"log"`
	AI     AISettings     `yaml:"ai"`
	Backup BackupSettings `yaml:"backup"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

type AISettings struct {
	APIKey        string `yaml:"api_key"`
	ModelID       string `yaml:"model_id"`
	ContextWindow int    `yaml:"context_window"`
	// DefaultKeyRPM caps requests per minute made with the shared key. Zero means unlimited.
	DefaultKeyRPM int `yaml:"default_key_rpm"`
	// Timeout bounds a single generation call, e.g. "90s".
	Timeout time.Duration `yaml:"timeout"`
}

type BackupSettings struct {
	Dir string     `yaml:"dir"`
	S3  S3Settings `yaml:"s3"`
}

type S3Settings struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Defaults returns the settings used when neither a file nor the environment says otherwise.
func Defaults() Settings {
	return Settings{
		Port:   DefaultPort,
		DBFile: DefaultDBFile,
		Log:    LogSettings{Level: "info", Format: "json"},
		AI: AISettings{
			ModelID:       DefaultModelID,
			ContextWindow: DefaultContextWindow,
			Timeout:       DefaultGenerationTimeout,
		},
		Backup: BackupSettings{
			Dir: "./backups",
			S3:  S3Settings{Region: "us-east-1", UseSSL: true},
		},
	}
}

// Load builds Settings from defaults, an optional YAML file and the environment, in that order.
func Load(path string) (*Settings, error) {
	s := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("can't unmarshal config file %s: %w", path, err)
		}
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	s.AI.APIKey = strings.TrimSpace(s.AI.APIKey)
	if s.AI.ModelID == "" {
		s.AI.ModelID = DefaultModelID
	}
	if s.AI.ContextWindow < 0 {
		return nil, fmt.Errorf("context window must not be negative, got %d", s.AI.ContextWindow)
	}
	if s.AI.DefaultKeyRPM < 0 {
		return nil, fmt.Errorf("default key rpm must not be negative, got %d", s.AI.DefaultKeyRPM)
	}
	if s.AI.Timeout <= 0 {
		return nil, fmt.Errorf("generation timeout must be positive, got %s", s.AI.Timeout)
	}
	return &s, nil
}

func (s *Settings) applyEnv() error {
	s.Port = utils.GetEnv("PORT", s.Port)
	s.DBFile = utils.GetEnv("DATABASE_FILE", s.DBFile)
	s.Log.Level = utils.GetEnv("NEURO_LOG_LEVEL", s.Log.Level)
	s.Log.Format = utils.GetEnv("NEURO_LOG_FORMAT", s.Log.Format)
	s.AI.APIKey = utils.GetEnv("GEMINI_API_KEY", s.AI.APIKey)
	s.AI.ModelID = utils.GetEnv("GEMINI_MODEL_ID", s.AI.ModelID)
	s.Backup.Dir = utils.GetEnv("NEURO_BACKUP_DIR", s.Backup.Dir)

	var err error
	if s.AI.ContextWindow, err = utils.GetEnvInt("NEURO_CONTEXT_WINDOW", s.AI.ContextWindow); err != nil {
		return err
	}
	if s.AI.DefaultKeyRPM, err = utils.GetEnvInt("NEURO_DEFAULT_KEY_RPM", s.AI.DefaultKeyRPM); err != nil {
		return err
	}
	if s.AI.Timeout, err = utils.GetEnvDuration("NEURO_GENERATION_TIMEOUT", s.AI.Timeout); err != nil {
		return err
	}

	s3 := &s.Backup.S3
	s3.Enabled = utils.GetEnvBool("NEURO_S3_ENABLED", s3.Enabled)
	s3.Endpoint = utils.GetEnv("NEURO_S3_ENDPOINT", s3.Endpoint)
	s3.AccessKey = utils.GetEnv("NEURO_S3_ACCESS_KEY", s3.AccessKey)
	s3.SecretKey = utils.GetEnv("NEURO_S3_SECRET_KEY", s3.SecretKey)
	s3.Bucket = utils.GetEnv("NEURO_S3_BUCKET", s3.Bucket)
	s3.Region = utils.GetEnv("NEURO_S3_REGION", s3.Region)
	s3.UseSSL = utils.GetEnvBool("NEURO_S3_USE_SSL", s3.UseSSL)
	return nil
}
