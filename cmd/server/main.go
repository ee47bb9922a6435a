package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/api"
	"github.com/davidmns/finsync/internal/catalog"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/database"
	"github.com/davidmns/finsync/internal/repository"
	"github.com/davidmns/finsync/internal/service"
	"github.com/davidmns/finsync/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply pending migrations
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Unlock the encrypted columns. Without a password the vault stays
	// locked and credential operations fail until a restart provides one.
	v := vault.New()
	if cfg.Database.Password != "" {
		if err := v.Unlock(db, cfg.Database.Password); err != nil {
			log.Fatalf("Failed to unlock vault: %v", err)
		}
	} else {
		log.Println("No DB_PASSWORD set, credential store stays locked")
	}

	// Create repositories
	repos := service.Repositories{
		Entities:      repository.NewEntityRepository(db),
		Credentials:   repository.NewCredentialsRepository(db, v),
		Sessions:      repository.NewSessionRepository(db, v),
		FetchRecords:  repository.NewFetchRecordRepository(db),
		Positions:     repository.NewPositionRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Contributions: repository.NewContributionRepository(db),
		Historic:      repository.NewHistoricRepository(db),
		VirtualData:   repository.NewVirtualImportRepository(db),
	}
	uow := repository.NewUnitOfWork(db)

	// Seed the native entity catalog
	cat := catalog.Native()
	if err := cat.Seed(context.Background(), repos.Entities); err != nil {
		log.Fatalf("Failed to seed entity catalog: %v", err)
	}

	adapters := adapter.NewRegistry()
	locks := service.NewLockRegistry()

	scrape := func() config.ScrapeConfig { return cfg.Scrape }
	virtual := func() config.VirtualConfig { return cfg.Virtual }

	// Create services
	systemService := service.NewSystemService(db)
	fetchService := service.NewFetchService(uow, repos, cat, adapters, locks, scrape)
	loginService := service.NewLoginService(uow, repos, cat, adapters, locks, scrape)
	virtualService := service.NewVirtualService(uow, repos, locks, virtual)
	dataService := service.NewDataService(repos, cat)

	// Start the periodic fetch-all scheduler
	scheduler := service.NewSchedulerService(fetchService)
	if err := scheduler.Start(cfg.Scrape.CronSpec); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(systemService, fetchService, loginService, virtualService, dataService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
