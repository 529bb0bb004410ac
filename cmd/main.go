package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aula-backend/config"
	httpDelivery "aula-backend/internal/delivery/http"
	"aula-backend/internal/domain"
	"aula-backend/internal/events"
	"aula-backend/internal/repository"
	"aula-backend/internal/seed"
	"aula-backend/internal/usecase"
	"aula-backend/pkg/logger"
	"aula-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to databases
	db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}()

	if err := config.AutoMigrate(db.PG); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if err := config.EnsureIndexes(ctx, db.Mongo); err != nil {
		log.Fatal("mongo index setup failed", "error", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.PG)
	diplomaRepo := repository.NewDiplomaRepository(db.PG)
	courseRepo := repository.NewCourseRepository(db.Mongo)
	enrollmentRepo := repository.NewEnrollmentRepository(db.Mongo)
	attemptRepo := repository.NewExamAttemptRepository(db.Mongo)
	notificationRepo := repository.NewNotificationRepository(db.Mongo)

	if cfg.Cache.URL != "" {
		client, err := repository.NewRedisClient(ctx, cfg.Cache.URL)
		if err != nil {
			log.Warn("course cache disabled", "error", err)
		} else {
			defer func(c *redis.Client) { _ = c.Close() }(client)
			courseRepo = repository.NewCachedCourseRepository(courseRepo, client, cfg.Cache.TTL, log.With("component", "course_cache"))
			log.Info("course cache enabled", "ttl", cfg.Cache.TTL)
		}
	}

	storage := mustMediaStorage(ctx, cfg, db, log)
	courseIndex := newCourseIndex(cfg, log)

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("event publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	// Initialize usecases
	jwt := utils.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	maxUpload := int64(cfg.Media.MaxUploadMB) << 20

	authUsecase := usecase.NewAuthUsecase(userRepo, jwt, log.With("component", "auth"))
	userUsecase := usecase.NewUserUsecase(userRepo, log.With("component", "users"))
	courseUsecase := usecase.NewCourseUsecase(courseRepo, courseIndex, log.With("component", "courses"))
	notificationUsecase := usecase.NewNotificationUsecase(notificationRepo)
	diplomaUsecase := usecase.NewDiplomaUsecase(diplomaRepo, userRepo, courseRepo, enrollmentRepo, storage, log.With("component", "diplomas"))
	enrollmentUsecase := usecase.NewEnrollmentUsecase(courseRepo, enrollmentRepo, attemptRepo, notificationUsecase, publisher, log.With("component", "enrollments"))
	examUsecase := usecase.NewExamUsecase(courseRepo, enrollmentRepo, attemptRepo, diplomaUsecase, notificationUsecase, publisher, log.With("component", "exams"))
	mediaUsecase := usecase.NewMediaUsecase(storage, maxUpload, log.With("component", "media"))
	reportUsecase := usecase.NewReportUsecase(courseRepo, enrollmentRepo, attemptRepo, userRepo, log.With("component", "reports"))

	// Seed demo data
	if err := seedCatalog(ctx, cfg, userUsecase, courseUsecase, log); err != nil {
		log.Error("seeding failed", "error", err)
	}

	if len(cfg.Elasticsearch.Addresses) > 0 {
		if n, err := courseUsecase.Reindex(ctx); err != nil {
			log.Warn("search reindex failed", "error", err)
		} else {
			log.Info("search index rebuilt", "courses", n)
		}
	}

	// Initialize handlers
	fileHandler := httpDelivery.NewFileHandler(mediaUsecase, diplomaUsecase, enrollmentUsecase, log)
	apiHandler := httpDelivery.NewHandler(
		authUsecase,
		userUsecase,
		courseUsecase,
		enrollmentUsecase,
		examUsecase,
		diplomaUsecase,
		notificationUsecase,
		reportUsecase,
		fileHandler,
		log,
	)
	router := httpDelivery.InitRouter(apiHandler, fileHandler, httpDelivery.RouterConfig{
		JWT:            jwt,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: 32 << 20,
		Log:            log.With("component", "http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", "port", cfg.Server.Port, "api", "/api/v1")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func mustMediaStorage(ctx context.Context, cfg *config.Config, db *config.Database, log *logger.Logger) domain.MediaStorage {
	if cfg.Media.Backend == "minio" {
		storage, err := repository.NewMinioStorage(ctx, repository.MinioOptions{
			Endpoint:  cfg.Media.MinioEndpoint,
			AccessKey: cfg.Media.MinioAccess,
			SecretKey: cfg.Media.MinioSecret,
			Bucket:    cfg.Media.MinioBucket,
			UseSSL:    cfg.Media.MinioUseSSL,
		})
		if err != nil {
			log.Fatal("minio storage unavailable", "error", err)
		}
		log.Info("media backend", "backend", "minio", "bucket", cfg.Media.MinioBucket)
		return storage
	}

	storage, err := repository.NewGridFSStorage(db.Mongo)
	if err != nil {
		log.Fatal("gridfs storage unavailable", "error", err)
	}
	log.Info("media backend", "backend", "gridfs")
	return storage
}

func newCourseIndex(cfg *config.Config, log *logger.Logger) domain.CourseIndex {
	if len(cfg.Elasticsearch.Addresses) == 0 {
		return repository.NewNoopCourseIndex()
	}
	idx, err := repository.NewElasticCourseIndex(repository.ElasticOptions{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Index:     cfg.Elasticsearch.Index,
	})
	if err != nil {
		log.Warn("search index disabled, falling back to mongo search", "error", err)
		return repository.NewNoopCourseIndex()
	}
	log.Info("search index enabled", "index", cfg.Elasticsearch.Index)
	return idx
}

// seedCatalog loads SEED_FILE when set; outside production the built-in demo
// catalog is used instead.
func seedCatalog(ctx context.Context, cfg *config.Config, users domain.UserUsecase, courses domain.CourseUsecase, log *logger.Logger) error {
	var (
		catalog *seed.Catalog
		err     error
	)
	switch {
	case cfg.SeedFile != "":
		catalog, err = seed.Load(cfg.SeedFile)
	case !cfg.IsProduction():
		catalog, err = seed.Demo()
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return seed.NewSeeder(users, courses, log.With("component", "seed")).Run(ctx, catalog)
}
