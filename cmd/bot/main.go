package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"

	"sharebyte/internal/api"
	"sharebyte/internal/bot"
	"sharebyte/internal/config"
	"sharebyte/internal/queue"
	mongorepo "sharebyte/internal/repository/mongo"
	"sharebyte/internal/service"
	"sharebyte/internal/transport"
	"sharebyte/internal/worker"
)

func main() {
	log.Println("Starting ShareByte bot...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.Telegram.Token == "" {
		log.Fatal("FATAL: telegram.token is not set")
	}
	if cfg.Telegram.StorageChannelID == 0 {
		log.Fatal("FATAL: telegram.storage_channel_id is not set")
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongorepo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongorepo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongorepo.EnsureFileIndexes(ctx, appDB.Collection("files"))
		mongorepo.EnsureBatchIndexes(ctx, appDB.Collection("batches"))
		mongorepo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		log.Println("Index creation process completed.")
	}()

	// --- Telegram API ---
	tgAPI, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.Token, tgbotapi.APIEndpoint, transport.NewHTTPClient())
	if err != nil {
		log.Fatalf("FATAL: Failed to create Telegram client: %v", err)
	}
	messenger := transport.NewTelegram(tgAPI, cfg.Telegram.PrivacyMode)

	// --- Repositories ---
	fileRepo := mongorepo.NewMongoFileRepository(appDB)
	batchRepo := mongorepo.NewMongoBatchRepository(appDB)
	userRepo := mongorepo.NewMongoUserRepository(appDB)

	// --- Task Queue ---
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()
	scheduler := queue.NewScheduler(queueClient)

	// --- Services ---
	admins := service.NewAdmins(cfg.AdminIDs(), cfg.Admins.OwnerID)
	registry := service.NewRegistry(fileRepo, batchRepo, userRepo, admins)

	channels := make([]service.Channel, 0, len(cfg.ForceSub))
	for _, ch := range cfg.ForceSub {
		channels = append(channels, service.Channel{ID: ch.ID, Name: ch.Name, Link: ch.Link})
	}
	gate := service.NewGate(channels, messenger, admins)

	delivery := service.NewDelivery(registry, messenger, scheduler, cfg.Telegram.StorageChannelID, cfg.Delivery.Pacing)
	sessions := service.NewSessions(cfg.Batch.SessionTTL)
	broadcast := service.NewBroadcast(userRepo, messenger, cfg.Delivery.Pacing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Sweep(ctx)

	// --- Auto-Delete Worker ---
	queueServer := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 5})
	processor := worker.NewProcessor(registry, messenger)
	go func() {
		if err := queueServer.Run(processor.Handler()); err != nil {
			log.Fatalf("FATAL: Task queue server error: %v", err)
		}
	}()

	// --- Ops HTTP Server ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	api.SetupRoutes(router, registry, func(ctx context.Context) error {
		return mongorepo.Ping(ctx, dbClient)
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Printf("Ops server starting on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// --- Bot Loop ---
	b := bot.New(tgAPI, messenger, cfg, registry, gate, delivery, sessions, broadcast, userRepo, admins)
	go b.Run(ctx)

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	cancel()
	queueServer.Shutdown()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Ops server forced to shutdown: %v", err)
	}

	log.Println("Bot exiting.")
}
