package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bot.
// Values are read by Viper from a config file or environment variables.
type Config struct {
	Telegram TelegramConfig  `mapstructure:"telegram"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Server   ServerConfig    `mapstructure:"server"`
	ForceSub []ChannelConfig `mapstructure:"force_sub"`
	Admins   AdminConfig     `mapstructure:"admins"`
	Files    FilesConfig     `mapstructure:"files"`
	Batch    BatchConfig     `mapstructure:"batch"`
	Delivery DeliveryConfig  `mapstructure:"delivery"`
}

type TelegramConfig struct {
	Token            string `mapstructure:"token"`
	StorageChannelID int64  `mapstructure:"storage_channel_id"`
	PrivacyMode      bool   `mapstructure:"privacy_mode"` // protect_content on outgoing copies
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"` // ops HTTP surface (health, stats)
}

// ChannelConfig is one force-subscription channel. Link is the invite URL
// shown on the join prompt; optional.
type ChannelConfig struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Link string `mapstructure:"link"`
}

type AdminConfig struct {
	IDs     []int64 `mapstructure:"ids"`
	OwnerID int64   `mapstructure:"owner_id"`
}

type FilesConfig struct {
	MaxSize           int64 `mapstructure:"max_size"` // bytes
	AutoDelete        bool  `mapstructure:"auto_delete"`
	AutoDeleteMinutes int   `mapstructure:"auto_delete_minutes"`
}

type BatchConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type DeliveryConfig struct {
	Pacing time.Duration `mapstructure:"pacing"` // wait between batch items
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to env vars: telegram.token -> TELEGRAM_TOKEN.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "sharebyte")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("telegram.privacy_mode", false)
	viper.SetDefault("files.max_size", int64(2000*1024*1024)) // 2 GB, the Bot API ceiling
	viper.SetDefault("files.auto_delete", false)
	viper.SetDefault("files.auto_delete_minutes", 60)
	viper.SetDefault("batch.session_ttl", "30m")
	viper.SetDefault("delivery.pacing", "1s")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No config file; env vars and defaults still apply.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// AdminIDs returns the admin set with the owner included.
func (c Config) AdminIDs() []int64 {
	ids := make([]int64, 0, len(c.Admins.IDs)+1)
	ids = append(ids, c.Admins.IDs...)
	if c.Admins.OwnerID != 0 {
		for _, id := range ids {
			if id == c.Admins.OwnerID {
				return ids
			}
		}
		ids = append(ids, c.Admins.OwnerID)
	}
	return ids
}
