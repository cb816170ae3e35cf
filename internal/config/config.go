package config

import (
	"github.com/spf13/viper"
)

// Config holds runtime settings. Flags win over environment variables, which
// win over defaults; the MYSQL_* variables are shared with the connector.
type Config struct {
	Host     string
	User     string
	Password string
	Database string
	Port     string

	Seed        string
	AutoConnect bool
	LogLevel    string
}

// Load reads configuration from the environment.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MYSQL_HOST", "localhost")
	v.SetDefault("MYSQL_USER", "root")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("SEEDGRAPH_SEED", "")
	v.SetDefault("SEEDGRAPH_AUTO_CONNECT", true)
	v.SetDefault("SEEDGRAPH_LOG_LEVEL", "info")

	return &Config{
		Host:        v.GetString("MYSQL_HOST"),
		User:        v.GetString("MYSQL_USER"),
		Password:    v.GetString("MYSQL_PASSWORD"),
		Database:    v.GetString("MYSQL_DATABASE"),
		Port:        v.GetString("MYSQL_PORT"),
		Seed:        v.GetString("SEEDGRAPH_SEED"),
		AutoConnect: v.GetBool("SEEDGRAPH_AUTO_CONNECT"),
		LogLevel:    v.GetString("SEEDGRAPH_LOG_LEVEL"),
	}
}
