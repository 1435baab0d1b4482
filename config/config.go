package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration in layers: .env for environment variables, then
// config.yaml, with environment variables overriding file settings. Missing
// files are fine; the defaults below carry a bare deployment.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No config.yaml found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}

func setDefaults() {
	// Posting
	viper.SetDefault("bot.contact", "@Yollovchi")
	viper.SetDefault("bot.adminChatId", 0)

	// Reposting
	viper.SetDefault("repost.intervalDays", 7)
	viper.SetDefault("repost.cron", "@daily")
	viper.SetDefault("repost.timezone", "Asia/Tashkent")
	viper.SetDefault("repost.atStartup", false)

	// Channel call retries
	viper.SetDefault("retry.maxAttempts", 3)
	viper.SetDefault("retry.baseDelaySeconds", 1)
	viper.SetDefault("retry.maxDelaySeconds", 30)

	// Retired-post cleanup
	viper.SetDefault("cleanup.enabled", false)
	viper.SetDefault("cleanup.retentionDays", 30)
}
