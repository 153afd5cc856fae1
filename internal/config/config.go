package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Log         LogConfig          `yaml:"log"`
	Upstream    UpstreamConfig     `yaml:"upstream"`
	Resolver    ResolverConfig     `yaml:"resolver"`
	News        NewsConfig         `yaml:"news"`
	Store       StoreConfig        `yaml:"store"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type UpstreamConfig struct {
	TimeoutMs    int    `yaml:"timeout_ms"`
	SinaURL      string `yaml:"sina_url"`
	KlineCNURL   string `yaml:"kline_cn_url"`
	KlineUSURL   string `yaml:"kline_us_url"`
	KlineHKURL   string `yaml:"kline_hk_url"`
	YahooURL     string `yaml:"yahoo_url"`
	LookbackDays int    `yaml:"lookback_days"`
}

type ResolverConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type NewsConfig struct {
	Enabled       bool `yaml:"enabled"`
	TimeoutMs     int  `yaml:"timeout_ms"`
	StepDelayMs   int  `yaml:"step_delay_ms"`
	CycleSleepSec int  `yaml:"cycle_sleep_sec"`
}

type StoreConfig struct {
	Sqlite SqliteConfig `yaml:"sqlite"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type InstrumentConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Market    string `yaml:"market"`
	Sector    string `yaml:"sector"`
	SubSector string `yaml:"sub_sector"`
	SinaCode  string `yaml:"sina_code"`
	Ticker    string `yaml:"ticker"`
	Query     string `yaml:"query"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Upstream: UpstreamConfig{
			TimeoutMs:    5000,
			LookbackDays: 30,
		},
		Resolver: ResolverConfig{MaxConcurrent: 8},
		News: NewsConfig{
			Enabled:       true,
			TimeoutMs:     5000,
			StepDelayMs:   2000,
			CycleSleepSec: 900,
		},
		Store: StoreConfig{
			Sqlite: SqliteConfig{Path: "data/app.db"},
		},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("config has no instruments")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.Sqlite.Path = v
	}
	return nil
}
