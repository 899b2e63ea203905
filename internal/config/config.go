// Package config loads boilerwatch configuration from file, environment
// variables, and defaults using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TriggerConfig configures the action dispatch proxy.
type TriggerConfig struct {
	Listen        string         `mapstructure:"listen"`
	DefaultAction string         `mapstructure:"default_action"`
	Cooldowns     map[string]int `mapstructure:"cooldowns"` // action -> seconds
	Strict        bool           `mapstructure:"strict"`    // close the check/stamp race via SET NX
}

// CooldownFor returns the cooldown window for an action.
func (t TriggerConfig) CooldownFor(action string) (time.Duration, bool) {
	secs, ok := t.Cooldowns[action]
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// RedisConfig configures the shared cooldown store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GitHubConfig identifies the upstream repository_dispatch target.
type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	Owner   string        `mapstructure:"owner"`
	Repo    string        `mapstructure:"repo"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VaillantConfig holds myVaillant API credentials.
type VaillantConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Brand    string `mapstructure:"brand"`
	Country  string `mapstructure:"country"`
}

// PressureConfig holds alerting thresholds in bar.
type PressureConfig struct {
	Warning  float64 `mapstructure:"warning"`
	Critical float64 `mapstructure:"critical"`
}

// ReadingsConfig configures where poll results are logged.
type ReadingsConfig struct {
	Dir         string        `mapstructure:"dir"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	SinkType    string        `mapstructure:"sink_type"` // "csv" or "postgres"
	PostgresDSN string        `mapstructure:"postgres_dsn"`
}

// PushoverConfig configures push notifications.
type PushoverConfig struct {
	AppToken string `mapstructure:"app_token"`
	UserKeys string `mapstructure:"user_keys"` // comma separated
	Link     string `mapstructure:"link"`
}

// MQTTConfig configures the MQTT alert channel.
type MQTTConfig struct {
	Broker string `mapstructure:"broker"`
	Topic  string `mapstructure:"topic"`
}

// SMTPConfig configures the email alert channel.
type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// AlertsConfig groups the notification channels. A channel is enabled when
// its required fields are set.
type AlertsConfig struct {
	Pushover PushoverConfig `mapstructure:"pushover"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Vaillant VaillantConfig `mapstructure:"vaillant"`
	Pressure PressureConfig `mapstructure:"pressure"`
	Readings ReadingsConfig `mapstructure:"readings"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
}

// Load reads configuration from the optional file at configPath, the
// environment, and built-in defaults, in increasing order of precedence
// for the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")

	v.SetDefault("trigger.listen", ":8787")
	v.SetDefault("trigger.default_action", "log-data")
	v.SetDefault("trigger.cooldowns", map[string]int{
		"log-data": 600,
		"boost":    1800,
	})
	v.SetDefault("trigger.strict", false)

	// Every key needs a default (or an explicit BindEnv below), or
	// viper never resolves it from the environment.
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.timeout", "10s")

	v.SetDefault("vaillant.brand", "vaillant")
	v.SetDefault("vaillant.country", "poland")

	v.SetDefault("pressure.warning", 1.0)
	v.SetDefault("pressure.critical", 0.8)

	v.SetDefault("readings.dir", "data")
	v.SetDefault("readings.min_interval", "15m")
	v.SetDefault("readings.sink_type", "csv")
	v.SetDefault("readings.postgres_dsn", "")

	v.SetDefault("alerts.pushover.link", "")
	v.SetDefault("alerts.mqtt.broker", "")
	v.SetDefault("alerts.mqtt.topic", "home/boiler/alerts")
	v.SetDefault("alerts.smtp.host", "")
	v.SetDefault("alerts.smtp.port", 587)
	v.SetDefault("alerts.smtp.username", "")
	v.SetDefault("alerts.smtp.password", "")
	v.SetDefault("alerts.smtp.from", "")
	v.SetDefault("alerts.smtp.to", []string{})

	v.SetEnvPrefix("BOILERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The secrets keep the names the CI workflows already use.
	bindings := map[string][]string{
		"github.token":              {"GITHUB_TOKEN"},
		"vaillant.username":         {"VAILLANT_USERNAME"},
		"vaillant.password":         {"VAILLANT_PASSWORD"},
		"vaillant.brand":            {"VAILLANT_BRAND"},
		"vaillant.country":          {"VAILLANT_COUNTRY"},
		"alerts.pushover.app_token": {"PUSHOVER_APP_TOKEN"},
		"alerts.pushover.user_keys": {"PUSHOVER_USER_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks internal consistency. Credentials are deliberately not
// validated here: the trigger proxy reports a missing token per request,
// and the poller commands fail with a clear error on first use.
func (c *Config) Validate() error {
	if c.Trigger.DefaultAction == "" {
		return errors.New("trigger.default_action must not be empty")
	}
	if _, ok := c.Trigger.Cooldowns[c.Trigger.DefaultAction]; !ok {
		return fmt.Errorf("trigger.default_action %q has no cooldown entry", c.Trigger.DefaultAction)
	}
	for action, secs := range c.Trigger.Cooldowns {
		if secs <= 0 {
			return fmt.Errorf("cooldown for action %q must be positive, got %d", action, secs)
		}
	}
	if c.Pressure.Critical > c.Pressure.Warning {
		return fmt.Errorf("pressure.critical (%.2f) must not exceed pressure.warning (%.2f)",
			c.Pressure.Critical, c.Pressure.Warning)
	}
	switch c.Readings.SinkType {
	case "csv", "postgres":
	default:
		return fmt.Errorf("readings.sink_type must be \"csv\" or \"postgres\", got %q", c.Readings.SinkType)
	}
	if c.Readings.SinkType == "postgres" && c.Readings.PostgresDSN == "" {
		return errors.New("readings.postgres_dsn is required when sink_type is \"postgres\"")
	}
	return nil
}
