package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tableizer/api/internal/config"
	"tableizer/api/internal/mail"
	"tableizer/api/internal/middleware"
	"tableizer/api/internal/ocr"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/service"
	"tableizer/api/internal/storage"
)

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	accounts   *service.AccountService
	uploads    *service.UploadService
	extraction *service.ExtractionService
	db         *pgxpool.Pool
	cache      *redis.Client
	store      *storage.ObjectStore
	users      *repository.UserRepository
	images     *repository.ImageRepository
	revoked    *repository.RevocationRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)
	revokedRepo := repository.NewRevocationRepository(cache)
	producer := queue.NewProducer(cache, cfg.Worker.Stream)
	extractor := ocr.NewClient(cfg.OCR)
	mailer := mail.NewLogSender(log)

	accounts := service.NewAccountService(userRepo, revokedRepo, mailer, cfg, log)
	uploads := service.NewUploadService(imageRepo, store, extractor, producer, cfg, log)
	extraction := service.NewExtractionService(imageRepo, store, extractor, producer, &http.Client{Timeout: cfg.OCR.Timeout}, log)

	return HandlerSet{
		log:        log,
		cfg:        cfg,
		accounts:   accounts,
		uploads:    uploads,
		extraction: extraction,
		db:         db,
		cache:      cache,
		store:      store,
		users:      userRepo,
		images:     imageRepo,
		revoked:    revokedRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/reset", h.RequestPasswordReset)
		auth.POST("/reset/confirm", h.ResetPassword)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users, h.revoked))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.PATCH("/me", h.UpdateProfile)
	}

	users := v1.Group("/users")
	users.Use(middleware.Auth(h.cfg, h.users, h.revoked))
	users.GET("/:username", h.GetProfile)

	images := v1.Group("/images")
	images.Use(middleware.Auth(h.cfg, h.users, h.revoked))
	images.POST("", h.UploadImage)
	images.GET("", h.ListImages)
	images.DELETE("", h.DeleteAllImages)
	images.POST("/examples", h.SeedExample)
	images.GET("/:token", h.GetImage)
	images.POST("/:token/extract", h.ExtractTable)
	images.DELETE("/:token", h.DeleteImage)
	images.DELETE("/:token/table", h.DeleteTable)
}
