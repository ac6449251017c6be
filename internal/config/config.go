package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPPort string
	APIKey   string

	DatabaseURL string
	RedisURL    string

	ModelStore string
	ModelDir   string

	FREDAPIKey   string
	FREDSeriesID string
	ProviderRPS  float64

	OpenAIAPIKey string
	OpenAIModel  string

	TelegramBotToken string

	FeatureSet     string
	NewsWindowDays int
	NewsMaxItems   int
	InputCacheSecs int

	MLSearchTrials int
	MLSeed         int64
	MLMinTrainRows int

	RetrainQueueSize int
	RetrainOnScore   bool
	RetrainTickers   []string
	RetrainHourUTC   int
}

func Load() *Config {
	cfg := &Config{
		APIKey:           os.Getenv("API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		FREDAPIKey:       os.Getenv("FRED_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.HTTPPort = strings.TrimSpace(os.Getenv("HTTP_PORT"))
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY not set, retrain endpoint is unauthenticated")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.ModelStore = strings.ToLower(strings.TrimSpace(os.Getenv("MODEL_STORE")))
	switch cfg.ModelStore {
	case "":
		cfg.ModelStore = "file"
	case "file", "redis", "postgres":
	default:
		log.Printf("Warning: unsupported MODEL_STORE=%q, defaulting to file", cfg.ModelStore)
		cfg.ModelStore = "file"
	}
	if cfg.ModelStore == "postgres" && cfg.DatabaseURL == "" {
		log.Println("Warning: MODEL_STORE=postgres but DATABASE_URL not set, defaulting to file")
		cfg.ModelStore = "file"
	}

	cfg.ModelDir = strings.TrimSpace(os.Getenv("MODEL_DIR"))
	if cfg.ModelDir == "" {
		cfg.ModelDir = "./ml_models"
	}

	if cfg.FREDAPIKey == "" {
		log.Println("Warning: FRED_API_KEY not set, rate features will be zero")
	}
	cfg.FREDSeriesID = strings.TrimSpace(os.Getenv("FRED_SERIES_ID"))
	if cfg.FREDSeriesID == "" {
		cfg.FREDSeriesID = "DGS10"
	}

	cfg.ProviderRPS = 2
	if v := strings.TrimSpace(os.Getenv("PROVIDER_RPS")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.ProviderRPS = n
		}
	}

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, using lexicon sentiment")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.FeatureSet = strings.ToLower(strings.TrimSpace(os.Getenv("FEATURE_SET")))
	if cfg.FeatureSet != "legacy" {
		if cfg.FeatureSet != "" && cfg.FeatureSet != "full" {
			log.Printf("Warning: unsupported FEATURE_SET=%q, defaulting to full", cfg.FeatureSet)
		}
		cfg.FeatureSet = "full"
	}

	cfg.NewsWindowDays = 0
	if v := strings.TrimSpace(os.Getenv("NEWS_WINDOW_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.NewsWindowDays = n
		}
	}

	cfg.NewsMaxItems = 20
	if v := strings.TrimSpace(os.Getenv("NEWS_MAX_ITEMS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsMaxItems = n
		}
	}

	cfg.InputCacheSecs = 300
	if v := strings.TrimSpace(os.Getenv("INPUT_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.InputCacheSecs = n
		}
	}

	cfg.MLSearchTrials = 25
	if v := strings.TrimSpace(os.Getenv("ML_SEARCH_TRIALS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLSearchTrials = n
		}
	}

	cfg.MLSeed = 42
	if v := strings.TrimSpace(os.Getenv("ML_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MLSeed = n
		}
	}

	cfg.MLMinTrainRows = 100
	if v := strings.TrimSpace(os.Getenv("ML_MIN_TRAIN_ROWS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLMinTrainRows = n
		}
	}

	cfg.RetrainQueueSize = 16
	if v := strings.TrimSpace(os.Getenv("RETRAIN_QUEUE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetrainQueueSize = n
		}
	}

	cfg.RetrainOnScore = true
	if v := strings.TrimSpace(os.Getenv("RETRAIN_ON_SCORE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RetrainOnScore = b
		}
	}

	for _, t := range strings.Split(os.Getenv("RETRAIN_TICKERS"), ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			cfg.RetrainTickers = append(cfg.RetrainTickers, t)
		}
	}

	cfg.RetrainHourUTC = 2
	if v := strings.TrimSpace(os.Getenv("RETRAIN_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.RetrainHourUTC = n
		}
	}

	return cfg
}
