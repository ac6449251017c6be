package config

import "testing"

var allVars = []string{
	"HTTP_PORT", "API_KEY", "DATABASE_URL", "REDIS_URL", "MODEL_STORE", "MODEL_DIR",
	"FRED_API_KEY", "FRED_SERIES_ID", "PROVIDER_RPS", "OPENAI_API_KEY", "OPENAI_MODEL",
	"TELEGRAM_BOT_TOKEN", "FEATURE_SET", "NEWS_WINDOW_DAYS", "NEWS_MAX_ITEMS",
	"INPUT_CACHE_SECS", "ML_SEARCH_TRIALS", "ML_SEED", "ML_MIN_TRAIN_ROWS",
	"RETRAIN_QUEUE_SIZE", "RETRAIN_ON_SCORE", "RETRAIN_TICKERS", "RETRAIN_HOUR_UTC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.HTTPPort != "8080" || cfg.RedisURL != "localhost:6379" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ModelStore != "file" || cfg.ModelDir != "./ml_models" {
		t.Fatalf("unexpected model store defaults: %s %s", cfg.ModelStore, cfg.ModelDir)
	}
	if cfg.FREDSeriesID != "DGS10" || cfg.ProviderRPS != 2 || cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.FeatureSet != "full" || cfg.NewsWindowDays != 0 || cfg.NewsMaxItems != 20 || cfg.InputCacheSecs != 300 {
		t.Fatalf("unexpected feature defaults: %+v", cfg)
	}
	if cfg.MLSearchTrials != 25 || cfg.MLSeed != 42 || cfg.MLMinTrainRows != 100 {
		t.Fatalf("unexpected ML defaults: %+v", cfg)
	}
	if cfg.RetrainQueueSize != 16 || !cfg.RetrainOnScore || len(cfg.RetrainTickers) != 0 || cfg.RetrainHourUTC != 2 {
		t.Fatalf("unexpected retrain defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("MODEL_STORE", "Postgres")
	t.Setenv("FEATURE_SET", "legacy")
	t.Setenv("NEWS_WINDOW_DAYS", "30")
	t.Setenv("ML_SEARCH_TRIALS", "5")
	t.Setenv("ML_SEED", "7")
	t.Setenv("RETRAIN_ON_SCORE", "false")
	t.Setenv("RETRAIN_TICKERS", " aapl, msft ,,")
	t.Setenv("RETRAIN_HOUR_UTC", "23")
	t.Setenv("PROVIDER_RPS", "0.5")

	cfg := Load()
	if cfg.HTTPPort != "9090" || cfg.ModelStore != "postgres" || cfg.FeatureSet != "legacy" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NewsWindowDays != 30 || cfg.MLSearchTrials != 5 || cfg.MLSeed != 7 || cfg.ProviderRPS != 0.5 {
		t.Fatalf("unexpected numeric config: %+v", cfg)
	}
	if cfg.RetrainOnScore || cfg.RetrainHourUTC != 23 {
		t.Fatalf("unexpected retrain config: %+v", cfg)
	}
	if len(cfg.RetrainTickers) != 2 || cfg.RetrainTickers[0] != "AAPL" || cfg.RetrainTickers[1] != "MSFT" {
		t.Fatalf("unexpected tickers: %v", cfg.RetrainTickers)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "s3")
	t.Setenv("FEATURE_SET", "extended")
	t.Setenv("ML_SEARCH_TRIALS", "bad")
	t.Setenv("RETRAIN_HOUR_UTC", "24")
	t.Setenv("NEWS_MAX_ITEMS", "-1")

	cfg := Load()
	if cfg.ModelStore != "file" || cfg.FeatureSet != "full" {
		t.Fatalf("unexpected fallbacks: %+v", cfg)
	}
	if cfg.MLSearchTrials != 25 || cfg.RetrainHourUTC != 2 || cfg.NewsMaxItems != 20 {
		t.Fatalf("invalid values should fall back to defaults: %+v", cfg)
	}
}

func TestLoadPostgresStoreNeedsURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "postgres")

	if cfg := Load(); cfg.ModelStore != "file" {
		t.Fatalf("expected file store without DATABASE_URL, got %s", cfg.ModelStore)
	}
}
