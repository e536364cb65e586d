package api

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"stagepass/internal/cache"
	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/external"
	"stagepass/internal/handlers"
	"stagepass/internal/messaging"
	"stagepass/internal/metrics"
	"stagepass/internal/middleware"
	"stagepass/internal/repository"
	"stagepass/internal/search"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// The cache is an optimization; the API runs without it
	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, running without cache", "error", err)
		valkeyClient = nil
	}

	var esClient *search.ElasticsearchClient
	if cfg.Elasticsearch.Enabled {
		esClient, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			log.Fatalf("Failed to connect to Elasticsearch: %v", err)
		}
	}

	imageStore := external.NewImageStoreClient(cfg.ImageStore)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, esClient, imageStore)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(metrics.Middleware())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey, s.config.LoginURL)

	api := s.router.Group("/api")
	// Принципал резолвится из Basic Auth, если он передан; сами роуты решают,
	// обязательна ли аутентификация
	api.Use(middleware.Auth(s.repos.Users, s.valkey))
	{
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
		}

		orders := api.Group("/orders")
		{
			// Purchase answers unauthenticated buyers with a login redirect
			orders.POST("", h.CreatePurchase)
			orders.GET("", middleware.RequireAuth(), h.ListOrders)
			orders.GET("/:id", middleware.RequireAuth(), h.GetTicket)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/events", h.AdminListEvents)
			admin.POST("/events", h.AdminCreateEvent)
			admin.GET("/events/:id", h.AdminGetEvent)
			admin.PUT("/events/:id", h.AdminUpdateEvent)
			admin.DELETE("/events/:id", h.AdminDeleteEvent)
			admin.POST("/events/:id/banner", h.AdminUploadBanner)

			admin.POST("/orders", h.AdminCreateOrder)

			admin.GET("/users", h.AdminListUsers)
			admin.POST("/users", h.AdminCreateUser)

			admin.GET("/stats", h.AdminStats)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stagepass-api",
		"version": "1.0.0",
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
