package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from defaults, an
// optional YAML file and ASSERTD_* environment variables, in
// increasing priority.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// ModelConfig holds the inference-core knobs.
type ModelConfig struct {
	ID            string        `mapstructure:"id"`
	Path          string        `mapstructure:"path"`
	TokenizerPath string        `mapstructure:"tokenizer_path"`
	OrtLibrary    string        `mapstructure:"ort_library"`
	MaxSeqLen     int           `mapstructure:"max_seq_len"`
	ForceCPU      bool          `mapstructure:"force_cpu"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. path selects an explicit config file;
// empty means ./config.yaml if present, else defaults and env only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("model.id", "bvanaken/clinical-assertion-negation-bert")
	v.SetDefault("model.path", "./models/clinical-assertion/model.onnx")
	v.SetDefault("model.tokenizer_path", "./models/clinical-assertion/tokenizer.json")
	v.SetDefault("model.ort_library", "")
	v.SetDefault("model.max_seq_len", 512)
	v.SetDefault("model.force_cpu", false)
	v.SetDefault("model.cache_ttl", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("ASSERTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
