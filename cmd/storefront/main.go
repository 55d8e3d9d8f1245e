package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-api-io/api/config"
	"storefront-api-io/api/internal/container"
	"storefront-api-io/api/internal/indexer"
	"storefront-api-io/api/internal/routers"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	client, err := util.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Println("Failed to disconnect from MongoDB:", err)
		}
	}()

	redisClient, err := util.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer redisClient.Close()

	db := client.Database(cfg.DBName)

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := indexer.StorefrontMigrations(indexer.NewMigrationManager(db)).Run(migrateCtx); err != nil {
			cancel()
			log.Fatal("Failed to migrate database: ", err)
		}
		if _, err := indexer.StorefrontIndexes(indexer.NewManager(db)).Create(migrateCtx); err != nil {
			log.Println("Index creation finished with errors:", err)
		}
		cancel()
	}

	sc, err := container.NewServiceContainer(cfg, client, db, redisClient)
	if err != nil {
		log.Fatal("Failed to build services: ", err)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      routers.InitRoute(sc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server..")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}
}
