package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenFinder       middleware.TokenFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RequestRecorder   middleware.RequestRecorder // nilの場合メトリクスは記録しない
	Logger            *slog.Logger               // nilの場合リクエストログは出力しない

	// 認証
	AuthService AuthServiceInterface

	// 商品
	ProductService ProductServiceInterface
	ProductConfig  ProductHandlerConfig

	// タグ・原材料
	TagService        AttributeServiceInterface
	IngredientService AttributeServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// メトリクス公開
	MetricsHandler http.Handler // nilの場合/metricsは公開しない

	// メディアファイル配信
	MediaDir string // 空の場合/media/*は公開しない

	// ヘルスチェック
	HealthChecker func() error // nilの場合は常に正常とみなす
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → Token → RateLimit(General)
//
// 登録・ログイン・ヘルスチェック・メトリクスは認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.RequestRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	productHandler := NewProductHandler(deps.ProductService, deps.ProductConfig)
	tagHandler := NewAttributeHandler(deps.TagService, model.NewTagNotFoundError)
	ingredientHandler := NewAttributeHandler(deps.IngredientService, model.NewIngredientNotFoundError)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	if deps.MediaDir != "" {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(deps.MediaDir)))
		r.Get("/media/*", fileServer.ServeHTTP)
	}

	// ユーザー登録とログイン
	r.Post("/api/users", authHandler.Register)
	r.Post("/api/users/token", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Token → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewTokenMiddleware(deps.TokenFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Delete("/me", userHandler.Withdraw)
			r.Post("/logout", authHandler.Logout)
		})

		// 商品管理
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Post("/", productHandler.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", productHandler.GetProduct)
				r.Put("/", productHandler.ReplaceProduct)
				r.Patch("/", productHandler.PatchProduct)
				r.Delete("/", productHandler.DeleteProduct)

				// POST /api/products/{id}/upload-image - 画像アップロード（専用レート制限を追加）
				r.With(deps.RateLimiter.UploadMiddleware()).Post("/upload-image", productHandler.UploadImage)
			})
		})

		// タグ管理
		r.Route("/api/tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", tagHandler.UpdateName)
				r.Delete("/", tagHandler.Delete)
			})
		})

		// 原材料管理
		r.Route("/api/ingredients", func(r chi.Router) {
			r.Get("/", ingredientHandler.List)
			r.Post("/", ingredientHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", ingredientHandler.UpdateName)
				r.Delete("/", ingredientHandler.Delete)
			})
		})
	})

	return r
}

// healthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// checkがエラーを返した場合は503を返す。
func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
				})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
