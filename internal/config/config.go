// Package config resolves worked's settings from flags, environment and config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/joescharf/worked/internal/jira"
)

// EnvPrefix is prepended to every environment variable, e.g. JIRA_BASE_URL.
const EnvPrefix = "JIRA"

// ErrConfiguration is returned when required settings are missing or invalid.
var ErrConfiguration = errors.New("configuration error")

// Config holds the resolved settings for one process run.
type Config struct {
	BaseURL   string         `json:"base_url"`
	Email     string         `json:"email"`
	APIToken  string         `json:"api_token"`
	PageSize  int            `json:"page_size"`
	SearchAPI jira.SearchAPI `json:"search_api"`
	Timeout   time.Duration  `json:"timeout"`

	AnthropicAPIKey string `json:"anthropic_api_key"`
	AnthropicModel  string `json:"anthropic_model"`
}

// Key describes a config key for display purposes.
type Key struct {
	Key    string
	EnvVar string
	Secret bool
}

// Keys lists every setting shown by `worked config show`.
var Keys = []Key{
	{Key: "base_url", EnvVar: "JIRA_BASE_URL"},
	{Key: "email", EnvVar: "JIRA_EMAIL"},
	{Key: "api_token", EnvVar: "JIRA_API_TOKEN", Secret: true},
	{Key: "page_size", EnvVar: "JIRA_PAGE_SIZE"},
	{Key: "search_api", EnvVar: "JIRA_SEARCH_API"},
	{Key: "timeout", EnvVar: "JIRA_TIMEOUT"},
	{Key: "anthropic.api_key", EnvVar: "JIRA_ANTHROPIC_API_KEY", Secret: true},
	{Key: "anthropic.model", EnvVar: "JIRA_ANTHROPIC_MODEL"},
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", "")
	v.SetDefault("email", "")
	v.SetDefault("api_token", "")
	v.SetDefault("page_size", 100)
	v.SetDefault("search_api", string(jira.SearchLegacy))
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		BaseURL:         strings.TrimRight(strings.TrimSpace(v.GetString("base_url")), "/"),
		Email:           strings.TrimSpace(v.GetString("email")),
		APIToken:        strings.TrimSpace(v.GetString("api_token")),
		PageSize:        v.GetInt("page_size"),
		SearchAPI:       jira.SearchAPI(strings.ToLower(v.GetString("search_api"))),
		Timeout:         v.GetDuration("timeout"),
		AnthropicAPIKey: v.GetString("anthropic.api_key"),
		AnthropicModel:  v.GetString("anthropic.model"),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every missing or invalid setting at once.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL,
			validation.Required.Error("is required (set JIRA_BASE_URL, e.g. https://your-domain.atlassian.net)"),
			validation.By(absoluteURL)),
		validation.Field(&c.Email, validation.Required.Error("is required (set JIRA_EMAIL)")),
		validation.Field(&c.APIToken, validation.Required.Error("is required (set JIRA_API_TOKEN)")),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(jira.MaxPageSize)),
		validation.Field(&c.SearchAPI, validation.In(jira.SearchLegacy, jira.SearchEnhanced)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
