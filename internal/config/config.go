// Package config provides configuration loading, validation, and management
// for the task bot. It handles reading from YAML files, BOT_* environment
// variables, setting default values, and validating parameters.
package config

import (
	"time"
)

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the admin user for privileged commands.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TaskConfig configures a single periodic background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps background task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// GeminiConfig configures the optional AI quick-capture feature. The feature
// is disabled when APIKey is empty.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	ModelName   string        `mapstructure:"model_name"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Instruction string        `mapstructure:"instruction"`
}

// Enabled reports whether the AI quick-capture feature is configured.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != ""
}

// MessagesConfig holds every user-facing text so deployments can localize it.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"`
	Help          string `mapstructure:"help"`
	NotAuthorized string `mapstructure:"not_authorized"`
	GeneralError  string `mapstructure:"general_error"`
	NotFound      string `mapstructure:"not_found"`
	InvalidNumber string `mapstructure:"invalid_number"`
	InvalidDate   string `mapstructure:"invalid_date"`
	NoTasks       string `mapstructure:"no_tasks"`
	NoReminders   string `mapstructure:"no_reminders"`
	FreeTextHint  string `mapstructure:"free_text_hint"`

	ReminderTask    string `mapstructure:"reminder_task"`
	ReminderDeleted string `mapstructure:"reminder_deleted"`
	ReminderGeneric string `mapstructure:"reminder_generic"`
}
