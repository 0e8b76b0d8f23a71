package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`
	TrustedProxies    string `mapstructure:"TRUSTED_PROXIES"`

	// Gemini configuration.
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string `mapstructure:"GEMINI_MODEL"`
	GeminiVisionModel string `mapstructure:"GEMINI_VISION_MODEL"`

	// Lead analysis limits.
	RequestTimeoutSeconds      int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	ResultTTLMinutes           int    `mapstructure:"RESULT_TTL_MINUTES"`
	MaxImageBytes              int64  `mapstructure:"MAX_IMAGE_BYTES"`
	DefaultLanguage            string `mapstructure:"DEFAULT_LANGUAGE"`
	WebsiteFetchTimeoutSeconds int    `mapstructure:"WEBSITE_FETCH_TIMEOUT_SECONDS"`

	// Redis configuration. An empty address keeps everything in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	// Google Cloud Speech-to-Text.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	SpeechLanguage           string `mapstructure:"SPEECH_LANGUAGE"`

	// Cloudinary photo archive.
	ArchivePhotos       bool   `mapstructure:"ARCHIVE_PHOTOS"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
}

var AppConfig Config

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 60)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_VISION_MODEL", "gemini-2.5-flash")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 90)
	v.SetDefault("RESULT_TTL_MINUTES", 30)
	v.SetDefault("MAX_IMAGE_BYTES", 10*1024*1024)
	v.SetDefault("DEFAULT_LANGUAGE", "English")
	v.SetDefault("WEBSITE_FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("SPEECH_LANGUAGE", "en-US")
	v.SetDefault("ARCHIVE_PHOTOS", false)
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "leadlens/photos")
}

// LoadConfig reads config.yaml (if any) and the environment into AppConfig.
// A non-empty configFile takes precedence over the default lookup paths.
func LoadConfig(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Look for a config file named "config.yaml" in the current and "config" directory.
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}
	// Automatically use environment variables where available.
	viper.AutomaticEnv()
	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RequestTimeout bounds a single Gemini call.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 90 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ResultTTL is how long an analysis stays fetchable for share links and exports.
func (c Config) ResultTTL() time.Duration {
	if c.ResultTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ResultTTLMinutes) * time.Minute
}

func (c Config) WebsiteFetchTimeout() time.Duration {
	if c.WebsiteFetchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WebsiteFetchTimeoutSeconds) * time.Second
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	origins := splitList(c.AllowedOrigins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Proxies lists the addresses or CIDRs whose forwarding headers are believed.
// Nil means every request is keyed by its socket address.
func (c Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
