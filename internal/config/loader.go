package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow missing config file; env vars and defaults may be enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
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

// setDefaults sets default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	// Registered empty so the BOT_TELEGRAM_* env vars bind without a config file.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("database.path", "data/tasks.db")

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 3 * * *")
	v.SetDefault("scheduler.tasks.reconcile_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.reconcile_sweep.schedule", "*/15 * * * *")

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay", 2*time.Second)
	v.SetDefault("gemini.instruction", defaultGeminiInstruction)

	v.SetDefault("messages.welcome", "Hi! I'm your task bot. Use /menu or /help to get started.")
	v.SetDefault("messages.help", defaultHelpText)
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.general_error", "An error occurred. Please try again later.")
	v.SetDefault("messages.not_found", "Not found.")
	v.SetDefault("messages.invalid_number", "Invalid number.")
	v.SetDefault("messages.invalid_date", "Invalid date format. Use: YYYY-MM-DD HH:MM")
	v.SetDefault("messages.no_tasks", "You have no tasks.")
	v.SetDefault("messages.no_reminders", "You have no reminders.")
	v.SetDefault("messages.free_text_hint", "I didn't understand that. Use /help to see the available commands.")

	v.SetDefault("messages.reminder_task", "⏰ Reminder: %s")
	v.SetDefault("messages.reminder_deleted", "(deleted task)")
	v.SetDefault("messages.reminder_generic", "⏰ Scheduled reminder.")
}

const defaultHelpText = "/addtask <text> - add a task\n" +
	"/listtasks - list your tasks\n" +
	"/edittask <num> <text> - edit a task\n" +
	"/deletetask <num> - delete a task\n" +
	"/complete <num> - mark a task completed\n" +
	"/pending <num> - mark a task pending\n" +
	"/addreminder <YYYY-MM-DD HH:MM> [<task_id>] [daily|weekly] - create a reminder\n" +
	"/listreminders - list your reminders\n" +
	"/deletereminder <id> - delete a reminder\n" +
	"/menu - open the menu\n"

const defaultGeminiInstruction = "You extract a short actionable task from a user's free-form " +
	"message. Respond with the task text only, in the user's language, without commentary."
