// Package config manages application configuration loaded from config.yaml
// and BOT_* environment variables, with defaults and struct validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings. BotInfo is populated at
// startup from getMe and is not read from the config file.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds settings for the Gemini AI client.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	ChatModel         string  `mapstructure:"chat_model" validate:"required"`
	VisionModel       string  `mapstructure:"vision_model" validate:"required"`
	ImageGenModel     string  `mapstructure:"image_gen_model" validate:"required"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens" validate:"min=1"`
	SystemInstruction string  `mapstructure:"system_instruction" validate:"required"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// BotConfig holds conversation and throttling limits.
type BotConfig struct {
	Mode               string        `mapstructure:"mode" validate:"oneof=auto polling webhook"`
	MaxHistory         int           `mapstructure:"max_history" validate:"min=1,max=200"`
	ContextMessages    int           `mapstructure:"context_messages" validate:"min=1,max=100"`
	MaxMessageLength   int           `mapstructure:"max_message_length" validate:"min=128,max=4096"`
	MaxImageSize       int           `mapstructure:"max_image_size" validate:"min=1024"`
	RateLimitMessages  int           `mapstructure:"rate_limit_messages" validate:"min=1"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" validate:"min=1s"`
	ConversationMaxAge time.Duration `mapstructure:"conversation_max_age" validate:"min=1m"`
}

// DatabaseConfig holds settings for the SQLite message archive.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// WebhookConfig holds settings for the HTTP server and webhook auto-setup.
type WebhookConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr" validate:"required"`
	BaseURL      string        `mapstructure:"base_url" validate:"omitempty,url"`
	SetupRetries int           `mapstructure:"setup_retries" validate:"min=1,max=10"`
	SetupWait    time.Duration `mapstructure:"setup_wait" validate:"min=0"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds user-facing reply texts.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"`
	Help             string `mapstructure:"help"`
	RateLimited      string `mapstructure:"rate_limited"`
	GeneralError     string `mapstructure:"general_error"`
	AIError          string `mapstructure:"ai_error"`
	HistoryCleared   string `mapstructure:"history_cleared"`
	ImagePrompt      string `mapstructure:"image_prompt"`
	ImageGenerating  string `mapstructure:"image_generating"`
	ImageGenFailed   string `mapstructure:"image_gen_failed"`
	ImageAnalyzing   string `mapstructure:"image_analyzing"`
	ImageInvalid     string `mapstructure:"image_invalid"`
	ImageAnalyzeFail string `mapstructure:"image_analyze_fail"`
}

// Config is the root application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoadConfig loads configuration from the given YAML file layered over
// defaults, applies BOT_* environment overrides, and validates the result.
// A missing config file is not an error; missing required secrets are.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
		// Missing config file is fine, defaults plus env cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("gemini.chat_model", "gemini-2.5-flash")
	v.SetDefault("gemini.vision_model", "gemini-2.5-pro")
	v.SetDefault("gemini.image_gen_model", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_output_tokens", 1000)
	v.SetDefault("gemini.system_instruction",
		"You are a helpful AI assistant in a Telegram bot. Provide concise, helpful responses. "+
			"Be friendly and conversational. If asked about your capabilities, mention that you can "+
			"analyze images and generate images using the /image command.")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 2)

	v.SetDefault("bot.mode", "auto")
	v.SetDefault("bot.max_history", 20)
	v.SetDefault("bot.context_messages", 10)
	v.SetDefault("bot.max_message_length", 4096)
	v.SetDefault("bot.max_image_size", 20*1024*1024)
	v.SetDefault("bot.rate_limit_messages", 10)
	v.SetDefault("bot.rate_limit_window", time.Minute)
	v.SetDefault("bot.conversation_max_age", 24*time.Hour)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("webhook.listen_addr", ":5000")
	v.SetDefault("webhook.setup_retries", 3)
	v.SetDefault("webhook.setup_wait", 5*time.Second)

	v.SetDefault("scheduler.tasks.idle_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.idle_sweep.schedule", "0 * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")

	v.SetDefault("messages.welcome",
		"Welcome! I'm an AI assistant. Chat with me, send a photo for analysis, or use /image <description> to generate one. In groups, mention @botname or reply to my messages.")
	v.SetDefault("messages.help",
		"Commands:\n/start - welcome message\n/help - this message\n/image <description> - generate an image\n/clear - clear conversation history\n/health - bot status\n/groupid - show chat or group ID\n\nIn groups, mention @botname or reply to one of my messages to get a response.")
	v.SetDefault("messages.rate_limited",
		"You're sending messages too quickly. Please wait a moment and try again.")
	v.SetDefault("messages.general_error",
		"I'm sorry, I encountered an error processing your message. Please try again.")
	v.SetDefault("messages.ai_error",
		"I'm experiencing some technical difficulties. Please try again later.")
	v.SetDefault("messages.history_cleared",
		"Conversation history cleared! Starting fresh.")
	v.SetDefault("messages.image_prompt",
		"Please provide a description for the image you want to generate, e.g. /image sunset over mountains.")
	v.SetDefault("messages.image_generating",
		"Generating your image... This may take a moment.")
	v.SetDefault("messages.image_gen_failed",
		"I couldn't generate an image right now. Please try again with a different prompt.")
	v.SetDefault("messages.image_analyzing",
		"Analyzing your image... Please wait.")
	v.SetDefault("messages.image_invalid",
		"The image is too large or in an unsupported format. Please send a smaller image in JPG, PNG or WebP format.")
	v.SetDefault("messages.image_analyze_fail",
		"I couldn't analyze this image. Please try with a different image.")
}
