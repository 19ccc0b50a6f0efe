package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from a .env file, config.yaml and the
// environment. Environment variables override file settings of the same name.
func LoadConfig() {
	// Load environment variables from .env, ignoring a missing file.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	viper.SetConfigName("config") // Config file name (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // Look in the working directory
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// A missing config file is fine; environment variables and
			// defaults cover everything.
			log.Printf("Config file (config.yaml) not found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}

// setDefaults registers the skullboard defaults.
func setDefaults() {
	viper.SetDefault("skullboard.dbPath", "db/skullboard.sqlite")
	viper.SetDefault("skullboard.emoji", "\U0001F480") // 💀
	viper.SetDefault("skullboard.defaultThreshold", 3)
	viper.SetDefault("skullboard.backfillAtStartup", false)
}
