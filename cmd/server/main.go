package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credtech/internal/bot"
	"credtech/internal/cache"
	"credtech/internal/config"
	"credtech/internal/db"
	"credtech/internal/handler"
	"credtech/internal/job"
	"credtech/internal/metrics"
	"credtech/internal/ml/explain"
	"credtech/internal/ml/features"
	"credtech/internal/ml/registry"
	"credtech/internal/ml/training"
	"credtech/internal/provider"
	"credtech/internal/scoring"
	"credtech/internal/sentiment"
	"credtech/internal/service"
	"credtech/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "credtech/docs"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initPostgresFunc  = db.InitPostgres
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newMarketDataFunc = func(tracer trace.Tracer, rps float64) service.MarketDataProvider {
		return provider.NewYahooProvider(tracer, rps)
	}
	newNewsProviderFunc = func(tracer trace.Tracer, rps float64) service.NewsProvider {
		return provider.NewRSSNewsProvider(tracer, rps)
	}
	startBackgroundFunc = func(ctx context.Context, worker *job.RetrainWorker, schedule *job.RetrainSchedule) {
		go worker.Start(ctx)
		go schedule.Start(ctx)
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           CredTech Scoring API
// @version         1.0
// @description     Explainable company stability scores from market, macro and news signals.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	metrics.Register()

	// Redis backs the input cache and optionally the model store; it is not required.
	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, continuing without input cache: %v", err)
	} else {
		defer rdb.Close()
	}

	var pool *pgxpool.Pool
	if cfg.ModelStore == "postgres" {
		pool, err = initPostgresFunc(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		defer pool.Close()
	}

	store, err := newModelStore(ctx, cfg, tracer, rdb, pool)
	if err != nil {
		log.Fatalf("failed to initialize model store: %v", err)
	}

	engine := features.NewEngine(newAnalyzer(cfg), features.Config{NewsWindowDays: cfg.NewsWindowDays})
	trainer := training.NewService(tracer, training.Config{
		Trials:  cfg.MLSearchTrials,
		Seed:    cfg.MLSeed,
		MinRows: cfg.MLMinTrainRows,
	})
	modelCache := registry.NewCache(tracer, store, trainer, cfg.FeatureSet)
	scorer := scoring.NewService(tracer, engine, modelCache, explain.NewExplainer(tracer), scoring.Config{FeatureSet: cfg.FeatureSet})

	var rates service.RateProvider
	if fred, err := provider.NewFREDProvider(tracer, cfg.FREDAPIKey, cfg.FREDSeriesID, cfg.ProviderRPS); err == nil {
		rates = fred
	} else {
		log.Printf("rate series disabled: %v", err)
	}

	var inputCache service.RedisClient
	if rdb != nil {
		inputCache = rdb
	}

	// The worker needs the service to retrain and the service needs the
	// worker to enqueue, so the worker calls back through scoreService.
	var scoreService *service.ScoreService
	worker := job.NewRetrainWorker(tracer, func(ctx context.Context, ticker string) error {
		return scoreService.RetrainTicker(ctx, ticker)
	}, cfg.RetrainQueueSize)
	scoreService = service.NewScoreService(
		tracer,
		newMarketDataFunc(tracer, cfg.ProviderRPS),
		rates,
		newNewsProviderFunc(tracer, cfg.ProviderRPS),
		scorer,
		worker,
		inputCache,
		service.ScoreServiceConfig{
			NewsMaxItems:   cfg.NewsMaxItems,
			InputCacheTTL:  time.Duration(cfg.InputCacheSecs) * time.Second,
			RetrainOnScore: cfg.RetrainOnScore,
		},
	)

	schedule := job.NewRetrainSchedule(tracer, worker, cfg.RetrainTickers, cfg.RetrainHourUTC)
	startBackgroundFunc(ctx, worker, schedule)

	startTelegramBotFunc(cfg.TelegramBotToken, scoreService)

	h := handler.New(tracer, scoreService, cfg.APIKey)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func newAnalyzer(cfg *config.Config) sentiment.Analyzer {
	lexicon := sentiment.NewLexiconAnalyzer()
	if cfg.OpenAIAPIKey == "" {
		return lexicon
	}
	a, err := sentiment.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, lexicon)
	if err != nil {
		log.Printf("OpenAI sentiment disabled: %v", err)
		return lexicon
	}
	return a
}

func newModelStore(ctx context.Context, cfg *config.Config, tracer trace.Tracer, rdb *redis.Client, pool *pgxpool.Pool) (registry.ArtifactStore, error) {
	switch cfg.ModelStore {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("MODEL_STORE=redis requires a reachable Redis")
		}
		return registry.NewRedisStore(tracer, rdb), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("MODEL_STORE=postgres requires DATABASE_URL")
		}
		store := registry.NewPostgresStore(pool, tracer)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("create model_artifacts table: %w", err)
		}
		return store, nil
	default:
		store, err := registry.NewFileStore(tracer, cfg.ModelDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
