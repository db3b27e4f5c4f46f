package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/api"
	"resilience-alerting/internal/config"
	"resilience-alerting/internal/db"
	"resilience-alerting/internal/dispatch"
	"resilience-alerting/internal/escalation"
	"resilience-alerting/internal/insights"
	"resilience-alerting/internal/logging"
	"resilience-alerting/internal/models"
	"resilience-alerting/internal/providers"
	"resilience-alerting/internal/service"
	"resilience-alerting/internal/stream"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	// Wire the dispatcher channels and the escalation tracker
	dispatcher := dispatch.New(
		providers.NewEmailSender(cfg),
		providers.NewSMSSender(cfg),
		providers.NewTelegramSender(cfg, logger),
		logger,
	)
	tracker := escalation.NewTracker(db.NewEscalationStore(dbConn), logger)

	// Initialize the alert pipeline
	svc := service.New(dbConn, logger, cfg, dispatcher, tracker)
	var wg sync.WaitGroup
	svc.Start(&wg)

	// Subscribe to the change stream for every watched table
	ctx, cancel := context.WithCancel(context.Background())
	subs := subscribeAll(ctx, cfg, svc, logger)

	// Start API server
	router := api.NewRouter(dbConn, logger, cfg, svc, dispatcher, insights.New(cfg, logger))
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	for _, sub := range subs {
		sub.Close()
	}
	svc.Stop()
	wg.Wait()
	logger.Infof("Service stopped")
}

func subscribeAll(ctx context.Context, cfg config.Config, svc *service.Service, logger *logrus.Logger) []*stream.Subscription {
	var subs []*stream.Subscription
	for _, table := range models.WatchedTables {
		source := stream.NewKafkaSource(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, table, cfg.Kafka.GroupID)
		sub, err := stream.Subscribe(ctx, source, stream.Options{
			Table:   table,
			Enabled: true,
			Callbacks: stream.Callbacks{
				OnInsert: svc.HandleEvent,
				OnUpdate: svc.HandleEvent,
				OnDelete: svc.HandleEvent,
			},
		}, logger)
		if err != nil {
			logger.Errorf("Subscription for table %s failed: %v", table, err)
			continue
		}
		subs = append(subs, sub)
	}
	return subs
}
