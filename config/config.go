// Package config loads the bridge configuration from a YAML file with
// BRIDGE_* environment variable overrides, and validates it before startup.
// Validation failures are configuration errors: the process refuses to start.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// NoticeFlags selects which IRC status events are surfaced on Slack.
type NoticeFlags struct {
	Join       bool `mapstructure:"join"`
	Leave      bool `mapstructure:"leave"`
	ChangeNick bool `mapstructure:"change_nick"`
	Modes      bool `mapstructure:"modes"`
}

// Config holds everything the bridge needs to run one IRC identity against
// one Slack workspace.
type Config struct {
	// IRC side
	Server         string `mapstructure:"server" validate:"required"`
	Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
	TLS            bool   `mapstructure:"tls"`
	ServerPassword string `mapstructure:"server_password"`
	Nickname       string `mapstructure:"nickname" validate:"required"`
	Username       string `mapstructure:"username"`

	// Slack side
	SlackToken string `mapstructure:"slack_token" validate:"required"`
	// SlackUser is the workspace handle of the human owner; IRC private
	// messages and error notices are delivered to their DM.
	SlackUser string `mapstructure:"slack_user" validate:"required"`

	// ChannelMapping maps Slack channel names to IRC channel names. The
	// IRC value may carry a join password ("#chan key").
	ChannelMapping map[string]string `mapstructure:"channel_mapping" validate:"required,min=1"`

	IRCStatusNotices NoticeFlags `mapstructure:"irc_status_notices"`

	// RememberRecipientsFor bounds the DM recipient memory.
	RememberRecipientsFor time.Duration `mapstructure:"remember_recipients_for" validate:"min=0"`

	// AutoSendCommands are raw IRC commands issued right after
	// registration, e.g. [["PRIVMSG", "NickServ", "IDENTIFY pass"]].
	AutoSendCommands [][]string `mapstructure:"auto_send_commands"`

	// AllowRawCommands lists IRC verbs Slack users may pass through
	// verbatim. Empty disables the pass-through.
	AllowRawCommands []string `mapstructure:"allow_raw_commands"`

	// IconURLFormat renders an avatar URL from an IRC nick for
	// impersonated Slack posts; one %s verb, empty disables icons.
	IconURLFormat string `mapstructure:"icon_url_format"`

	// HTTPAddr is the listen address of the ops HTTP server.
	HTTPAddr string `mapstructure:"http_addr"`
}

// Load reads the config file at path, overlays BRIDGE_* environment
// variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Username == "" {
		cfg.Username = cfg.Nickname
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 6667)
	v.SetDefault("remember_recipients_for", "10m")
	v.SetDefault("icon_url_format", "https://robohash.org/%s.png?size=48x48")
	v.SetDefault("http_addr", ":8080")
}
