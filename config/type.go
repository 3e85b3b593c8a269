package config

type Config struct {
	Port         int    `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`
	LogFile      string `mapstructure:"log_file"`
	RedisURL     string `mapstructure:"redis_url"`
	HistoryLimit int    `mapstructure:"history_limit"`
}
