package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"srms/internal/auth"
	"srms/internal/notify"
	"srms/internal/result"
	"srms/internal/server"
	"srms/internal/shared"
	"srms/internal/student"
)

func main() {
	log.Println("INFO: Starting Student Result Management Server...")

	// 1. Load Configuration
	shared.LoadEnv(".env")
	config, err := shared.LoadAppConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if shared.IsDevelopment(config) {
		shared.PrintConfig(config)
	}

	// 2. Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	if err := shared.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("FATAL: Failed to create indexes: %v", err)
	}

	// 3. Wire Notification Fan-Out
	var notifier notify.Notifier = notify.Noop{}
	if config.NATS.URL != "" {
		natsNotifier, err := notify.NewNATSNotifier(config.NATS.URL, config.NATS.Subject)
		if err != nil {
			log.Printf("WARN: NATS unavailable, notifications disabled: %v", err)
		} else {
			defer natsNotifier.Close()
			notifier = natsNotifier
		}
	}

	// 4. Initialize Services and Routes
	services := &server.Services{
		Auth:     auth.NewService(db, config),
		Results:  result.NewService(db, notifier),
		Students: student.NewService(db),
	}
	router := server.SetupRoutes(config, services)

	// 5. Configure Server
	httpServer := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: Server listening on port %s", config.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server shutdown failed: %v", err)
	}

	log.Println("INFO: Server stopped.")
}
