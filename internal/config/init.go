package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Init prepares v: .env files, defaults, the config file and environment
// bindings. An empty cfgFile searches ./config.yaml and ./config/config.yaml;
// a missing file is not an error then.
func Init(v *viper.Viper, cfgFile string) error {
	if err := loadEnvFiles(); err != nil {
		return err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return bindEnvironmentVariables(v)
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
// Values left zero here are defaulted by the owning package.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "harvester",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":        "info",
		"format":       "json",
		"development":  false,
		"output_paths": []string{"stderr"},
	})

	v.SetDefault("fetcher", map[string]any{
		"user_agent":       "",
		"request_timeout":  "30s",
		"retry_delays":     []string{"2s", "5s"},
		"max_connections":  100,
		"keep_alive":       20,
		"max_redirects":    10,
		"max_body_bytes":   10 * 1024 * 1024,
		"rate_limit":       0,
		"rate_burst":       0,
		"respect_robots":   false,
		"robots_cache_ttl": "24h",
	})

	v.SetDefault("decoder", map[string]any{
		"min_confidence":   50,
		"disable_detector": false,
	})

	v.SetDefault("classifier", map[string]any{
		"mode":                "",
		"date_threshold":      5,
		"text_sample":         100000,
		"news_link_threshold": 0,
	})

	v.SetDefault("scope", map[string]any{
		"strict_host": false,
	})

	v.SetDefault("extractor", map[string]any{
		"min_title_chars":          4,
		"min_content_chars":        100,
		"min_container_chars":      200,
		"link_penalty":             20,
		"disable_title_refinement": false,
	})

	v.SetDefault("llm", map[string]any{
		"enabled":            true,
		"api_key":            "",
		"base_url":           "",
		"model":              "claude-3-5-haiku-latest",
		"temperature":        0.01,
		"max_tokens":         4096,
		"max_input_chars":    29999,
		"rate_limit_backoff": "60s",
		"request_timeout":    "120s",
	})

	v.SetDefault("crawl", map[string]any{
		"mode":              "",
		"max_depth":         3,
		"max_pages":         500,
		"smart_max_pages":   1000,
		"legacy_news_links": 3,
		"within_days":       0,
	})
}

// bindEnvironmentVariables maps the conventional variable names onto keys.
func bindEnvironmentVariables(v *viper.Viper) error {
	bindings := []struct {
		key  string
		envs []string
	}{
		{"app.environment", []string{"APP_ENV"}},
		{"app.debug", []string{"APP_DEBUG"}},
		{"logger.level", []string{"LOG_LEVEL"}},
		{"logger.format", []string{"LOG_FORMAT"}},
		{"llm.api_key", []string{"LLM_API_KEY", "ANTHROPIC_API_KEY"}},
		{"llm.base_url", []string{"LLM_API_BASE"}},
		{"llm.model", []string{"HTML_PARSE_MODEL"}},
	}
	for _, b := range bindings {
		args := append([]string{b.key}, b.envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", strings.Join(b.envs, ","), err)
		}
	}
	return nil
}
