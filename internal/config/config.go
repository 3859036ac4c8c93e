package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Backup struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Dir      string        `mapstructure:"dir"`
	Secret   string        `mapstructure:"secret"`
}

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	Secret     string `mapstructure:"secret"`
	DataDir    string `mapstructure:"data_dir"`
	Store      string `mapstructure:"store"` // "file" or "sqlite"
	SendBuffer int    `mapstructure:"send_buffer"`
	Backup     Backup `mapstructure:"backup"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./public")
	v.SetDefault("secret", "change-this-secret")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("store", "file")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", "5m")
	v.SetDefault("backup.dir", "./backups")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Backup.Secret == "" {
		cfg.Backup.Secret = cfg.Secret
	}
	return &cfg, nil
}
