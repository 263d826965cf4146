package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"supportstudio/internal/api"
	"supportstudio/internal/conversation"
	"supportstudio/internal/session"
)

const (
	EnvPrefix         = "SUPPORT_STUDIO_"
	DefaultConfigFile = "support-studio.toml"

	ViewChatbot = "chatbot"
	ViewCopilot = "copilot"

	defaultCustomerMessage = "My order was supposed to arrive yesterday with express shipping but the tracking has not updated. Can you help?"
)

// Config is the full application configuration.
type Config struct {
	API struct {
		BaseURL string `koanf:"base_url" json:"base_url"`
	} `koanf:"api" json:"api"`

	Log struct {
		Level string `koanf:"level" json:"level"`
		File  string `koanf:"file" json:"file"`
	} `koanf:"log" json:"log"`

	UI struct {
		StartView string `koanf:"start_view" json:"start_view"`
		AltScreen bool   `koanf:"alt_screen" json:"alt_screen"`
	} `koanf:"ui" json:"ui"`

	Copilot struct {
		Topic           string        `koanf:"topic" json:"topic"`
		CustomerMessage string        `koanf:"customer_message" json:"customer_message"`
		Seed            []SeedMessage `koanf:"seed" json:"seed"`
	} `koanf:"copilot" json:"copilot"`

	Stub struct {
		Addr          string `koanf:"addr" json:"addr"`
		AllowedOrigin string `koanf:"allowed_origin" json:"allowed_origin"`
	} `koanf:"stub" json:"stub"`
}

type SeedMessage struct {
	Role    string `koanf:"role" json:"role"`
	Content string `koanf:"content" json:"content"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"api.base_url":             api.DefaultBaseURL,
		"log.level":                "info",
		"log.file":                 "support-studio.log",
		"ui.start_view":            ViewChatbot,
		"ui.alt_screen":            true,
		"copilot.topic":            string(session.TopicOrders),
		"copilot.customer_message": defaultCustomerMessage,
		"stub.addr":                "127.0.0.1:8000",
		"stub.allowed_origin":      "*",
	}
}

// Load builds the configuration from defaults, a TOML file, a .env file and
// SUPPORT_STUDIO_* environment variables, in that order.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./" + DefaultConfigFile, "$HOME/." + DefaultConfigFile}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// envKey maps SUPPORT_STUDIO_API_BASE_URL to api.base_url: the first segment
// after the prefix is the section, the rest is the key.
func envKey(s string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(trimmed, "_", ".", 1)
}

// Validate checks the fields the application cannot run without.
func Validate(cfg *Config) error {
	var errs []error

	base, err := url.Parse(strings.TrimSpace(cfg.API.BaseURL))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	case base.Scheme != "http" && base.Scheme != "https":
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", cfg.API.BaseURL))
	case base.Host == "":
		errs = append(errs, fmt.Errorf("api.base_url has no host: %q", cfg.API.BaseURL))
	}

	if level := strings.ToLower(strings.TrimSpace(cfg.Log.Level)); level == "" {
		errs = append(errs, errors.New("log.level is empty"))
	} else if _, err := zerolog.ParseLevel(level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch cfg.UI.StartView {
	case ViewChatbot, ViewCopilot:
	default:
		errs = append(errs, fmt.Errorf("ui.start_view must be %q or %q, got %q", ViewChatbot, ViewCopilot, cfg.UI.StartView))
	}

	if _, ok := session.ParseTopic(cfg.Copilot.Topic); !ok {
		errs = append(errs, fmt.Errorf("copilot.topic must be one of orders, returns, account or empty, got %q", cfg.Copilot.Topic))
	}

	for i, msg := range cfg.Copilot.Seed {
		if !conversation.Role(msg.Role).Valid() {
			errs = append(errs, fmt.Errorf("copilot.seed[%d]: role must be user or assistant, got %q", i, msg.Role))
		}
		if strings.TrimSpace(msg.Content) == "" {
			errs = append(errs, fmt.Errorf("copilot.seed[%d]: content is empty", i))
		}
	}

	return errors.Join(errs...)
}

// SeedConversation returns the configured copilot seed, or the built-in case
// when none is configured.
func (c *Config) SeedConversation() []conversation.Message {
	if len(c.Copilot.Seed) == 0 {
		return conversation.DefaultCopilotSeed()
	}
	out := make([]conversation.Message, 0, len(c.Copilot.Seed))
	for _, msg := range c.Copilot.Seed {
		out = append(out, conversation.Message{
			Role:    conversation.Role(msg.Role),
			Content: strings.TrimSpace(msg.Content),
		})
	}
	return out
}

func (c *Config) Topic() session.Topic {
	topic, _ := session.ParseTopic(c.Copilot.Topic)
	return topic
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# Support Studio configuration

[api]
base_url = "http://127.0.0.1:8000"

[log]
level = "info"
file = "support-studio.log"

[ui]
start_view = "chatbot"
alt_screen = true

[copilot]
topic = "orders"
customer_message = "My order was supposed to arrive yesterday with express shipping but the tracking has not updated. Can you help?"

[[copilot.seed]]
role = "user"
content = "Hi, I ordered headphones last week and they still have not arrived."

[[copilot.seed]]
role = "assistant"
content = "I am sorry to hear that. Can you please share your order number?"

[[copilot.seed]]
role = "user"
content = "The order number is #12345, and the tracking has not updated for 5 days."

[stub]
addr = "127.0.0.1:8000"
allowed_origin = "*"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}
