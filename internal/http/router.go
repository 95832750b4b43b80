package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/stocklane/stocklane/internal/auth"
	"github.com/stocklane/stocklane/internal/config"
	"github.com/stocklane/stocklane/internal/http/handlers"
	"github.com/stocklane/stocklane/internal/http/middlewares"
	"github.com/stocklane/stocklane/internal/observability"
	"github.com/stocklane/stocklane/internal/repo/postgres"
	"github.com/stocklane/stocklane/internal/storage"
)

// Multipart bodies carry up to a 2 MiB image plus the JSON data part.
const maxBodyBytes = 4 << 20

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, blobs storage.BlobStore, reg *prometheus.Registry, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(otelgin.Middleware("stocklane"))
	r.Use(prom.GinHandleMiddleware())

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// stored images are served straight off disk for the local backend;
	// the minio backend resolves URLs to the object endpoint instead
	if cfg.UploadBackend == "local" {
		r.Static("/uploads", cfg.UploadDir)
	}

	// wire up repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	productsRepo := postgres.NewProductsRepo(pool, prom)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	uploads := storage.NewUploads(blobs, prom)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	productsHandler := handlers.NewProductsHandler(productsRepo, uploads)

	authmw := middlewares.NewAuthMiddleware(jwtManager)

	// login and registration are the only open write endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middlewares.RequireJSON(), authHandler.Login)
		authGroup.GET("/me", authmw.RequireAuth(), authHandler.Me)
	}

	users := r.Group("/users", middlewares.RequireJSON())
	{
		users.POST("", usersHandler.CreateUser)
		users.GET("", usersHandler.ListUsers)
		users.GET("/:id", usersHandler.GetUserByID)
		users.PUT("/:id", usersHandler.UpdateUser)
		users.DELETE("/:id", usersHandler.DeleteUser)
	}

	// product payloads are multipart (data + optional image), so no
	// RequireJSON here
	products := r.Group("/products", authmw.RequireAuth())
	{
		products.POST("", productsHandler.CreateProduct)
		products.GET("", productsHandler.ListProducts)
		products.GET("/:id", productsHandler.GetProductByID)
		products.PUT("/:id", productsHandler.UpdateProduct)
		products.DELETE("/:id", productsHandler.DeleteProduct)
	}

	return r
}
