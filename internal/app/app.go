// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/catalog/internal/attribute"
	"github.com/hitoshi/catalog/internal/auth"
	"github.com/hitoshi/catalog/internal/config"
	"github.com/hitoshi/catalog/internal/database"
	"github.com/hitoshi/catalog/internal/handler"
	"github.com/hitoshi/catalog/internal/logger"
	"github.com/hitoshi/catalog/internal/media"
	"github.com/hitoshi/catalog/internal/metrics"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/product"
	"github.com/hitoshi/catalog/internal/repository"
	"github.com/hitoshi/catalog/internal/security"
	"github.com/hitoshi/catalog/internal/user"
	"github.com/hitoshi/catalog/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// 期限切れトークンのクリーンアップジョブをバックグラウンドで実行する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	ingredientRepo := repository.NewPostgresIngredientRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. メディアストレージの初期化
	store, err := media.NewStorage(cfg.MediaDir)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}

	// 5. ドメインサービスの初期化
	sanitizer := security.NewDescriptionSanitizer()

	authService := auth.NewService(
		userRepo, tokenRepo,
		auth.ServiceConfig{TokenMaxAge: cfg.TokenMaxAge},
	)
	userService := user.NewService(userRepo, tokenRepo)
	productService := product.NewService(
		productRepo, tagRepo, ingredientRepo,
		sanitizer, store, media.Processor{}, collector,
	)
	tagService := attribute.NewTagService(tagRepo)
	ingredientService := attribute.NewIngredientService(ingredientRepo)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.UploadRate = rate.Limit(float64(cfg.RateLimitUpload) / 60.0)
	rateLimiterCfg.UploadBurst = cfg.RateLimitUpload

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenFinder:       tokenRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		RequestRecorder:   collector,
		Logger:            slog.Default(),

		AuthService: authService,

		ProductService: productService,
		ProductConfig: handler.ProductHandlerConfig{
			UploadMaxBytes: cfg.UploadMaxBytes,
		},

		TagService:        handler.NewTagServiceAdapter(tagService),
		IngredientService: handler.NewIngredientServiceAdapter(ingredientService),

		UserService: userService,

		MetricsHandler: metrics.Handler(registry),
		MediaDir:       cfg.MediaDir,
		HealthChecker:  db.Ping,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 期限切れトークンのクリーンアップジョブをバックグラウンドで実行
	cleanupJob := cleanup.NewCleanupJob(tokenRepo, slog.Default(), collector)
	go cleanupJob.RunLoop(ctx, cfg.TokenCleanupInterval)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
