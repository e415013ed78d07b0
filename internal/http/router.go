package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sifriya/bookstore/internal/auth"
	"github.com/sifriya/bookstore/internal/config"
	"github.com/sifriya/bookstore/internal/http/handlers"
	"github.com/sifriya/bookstore/internal/http/middlewares"
	"github.com/sifriya/bookstore/internal/observability"
	"github.com/sifriya/bookstore/internal/repo/mongodb"
)

func NewRouter(log *slog.Logger, cfg config.Config, database *mongo.Database, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())

	if cfg.OTELEndpoint != "" {
		r.Use(otelgin.Middleware("bookstore-api"))
	}

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}

	r.Use(cors.New(corsCfg))

	// one global bucket for the daily request ceiling
	limiter := middlewares.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	r.Use(limiter.Middleware())

	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// health
	ping := func() error {
		if database == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return database.Client().Ping(ctx, nil)
	}

	// wire up repositories
	usersRepo := mongodb.NewUsersRepo(database, prom)
	booksRepo := mongodb.NewBooksRepo(database, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpire)
	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo, cfg.SessionMaxAge)

	// wire up handlers
	healthHandler := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	booksHandler := handlers.NewBooksHandler(booksRepo)
	favoritesHandler := handlers.NewFavoritesHandler(usersRepo, booksRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo, booksRepo)

	api := r.Group("/api")

	api.GET("/health", healthHandler.Health)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	books := api.Group("/books")
	books.GET("", booksHandler.ListBooks)
	books.GET("/:id", booksHandler.GetBookByID)
	books.POST("", authMW.RequireAuth(), authMW.RequireAdmin(), booksHandler.CreateBook)
	books.PUT("/:id", authMW.RequireAuth(), authMW.RequireAdmin(), booksHandler.UpdateBook)
	books.DELETE("/:id", authMW.RequireAuth(), authMW.RequireAdmin(), booksHandler.DeleteBook)

	favorites := api.Group("/favorites", authMW.RequireAuth())
	favorites.GET("", favoritesHandler.ListFavorites)
	favorites.POST("/:bookId", favoritesHandler.ToggleFavorite)

	users := api.Group("/users", authMW.RequireAuth())
	users.GET("", authMW.RequireAdmin(), usersHandler.ListUsers)
	users.GET("/:id", usersHandler.GetUser)
	users.PUT("/:id", authMW.RequireAdmin(), usersHandler.UpdateUserRole)
	users.DELETE("/:id", authMW.RequireAdmin(), usersHandler.DeleteUser)

	return r
}
