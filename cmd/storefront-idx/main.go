package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"storefront-api-io/api/config"
	"storefront-api-io/api/internal/indexer"
	"storefront-api-io/api/pkg/util"
)

func main() {
	var (
		action      = flag.String("action", "create", "Action: migrate, create, drop, list, stats, status")
		uri         = flag.String("uri", "", "MongoDB URI (defaults to env DATABASE_URL)")
		dbName      = flag.String("db", "", "Database name (defaults to env DB_NAME)")
		collection  = flag.String("collection", "", "Collection name (for list/stats)")
		timeout     = flag.Duration("timeout", 60*time.Second, "Operation timeout")
		continueErr = flag.Bool("continue-on-error", true, "Continue on error")
		skipExists  = flag.Bool("skip-if-exists", true, "Skip existing indexes")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if *uri != "" {
		cfg.DatabaseURL = *uri
	}
	if *dbName != "" {
		cfg.DBName = *dbName
	}

	client, err := util.ConnectDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Println("Failed to disconnect:", err)
		}
	}()

	db := client.Database(cfg.DBName)
	manager := indexer.StorefrontIndexes(indexer.NewManager(db, &indexer.Options{
		Timeout:         *timeout,
		ContinueOnError: *continueErr,
		SkipIfExists:    *skipExists,
	}))
	migrations := indexer.StorefrontMigrations(indexer.NewMigrationManager(db))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *action {
	case "migrate":
		err := migrations.Run(ctx)
		if *jsonOutput {
			outputJSON(map[string]any{"success": err == nil, "error": errorString(err)})
			return
		}
		if err != nil {
			log.Fatal("Migration failed: ", err)
		}
		fmt.Println("Migrations applied")

	case "status":
		statuses, err := migrations.Status(ctx)
		if err != nil {
			log.Fatal("Failed to read migration status: ", err)
		}
		if *jsonOutput {
			outputJSON(statuses)
			return
		}
		for _, s := range statuses {
			state := "ok"
			if !s.Success {
				state = "FAILED: " + s.Error
			}
			fmt.Printf("  %s  %s  %s\n", s.Version, s.AppliedAt.Format(time.RFC3339), state)
		}

	case "create":
		if !*jsonOutput {
			fmt.Printf("Creating indexes in database: %s\n", cfg.DBName)
		}

		result, err := manager.Create(ctx)
		if *jsonOutput {
			outputJSON(map[string]any{
				"success": err == nil,
				"result":  result,
				"error":   errorString(err),
			})
			return
		}
		if err != nil {
			log.Printf("Index creation completed with errors: %v", err)
		}
		fmt.Printf("\nResults:\n")
		fmt.Printf("  Success: %d\n", result.SuccessCount)
		fmt.Printf("  Failed: %d\n", result.FailedCount)
		fmt.Printf("  Duration: %v\n", result.Duration)
		if len(result.Failures) > 0 {
			fmt.Printf("\nFailures:\n")
			for _, f := range result.Failures {
				fmt.Printf("  - %s.%s: %v\n", f.Collection, f.IndexName, f.Error)
			}
		}

	case "drop":
		collections := flag.Args()
		if !*jsonOutput {
			fmt.Printf("Dropping indexes in database: %s\n", cfg.DBName)
		}

		err := manager.Drop(ctx, collections...)
		if *jsonOutput {
			outputJSON(map[string]any{"success": err == nil, "error": errorString(err)})
			return
		}
		if err != nil {
			log.Fatal("Failed to drop indexes: ", err)
		}
		fmt.Println("Indexes dropped successfully")

	case "list":
		if *collection == "" {
			log.Fatal("Collection name required for list action (-collection flag)")
		}

		indexes, err := manager.List(ctx, *collection)
		if err != nil {
			log.Fatal("Failed to list indexes: ", err)
		}
		if *jsonOutput {
			outputJSON(indexes)
			return
		}
		fmt.Printf("Indexes for collection %s:\n", *collection)
		for _, idx := range indexes {
			if name, ok := idx["name"].(string); ok {
				fmt.Printf("  - %s\n", name)
				if key, ok := idx["key"]; ok {
					fmt.Printf("    Keys: %v\n", key)
				}
				if unique, ok := idx["unique"].(bool); ok && unique {
					fmt.Printf("    Unique: true\n")
				}
			}
		}

	case "stats":
		stats := map[string][]indexer.IndexStats{}
		if *collection == "" {
			stats, err = manager.StatsAll(ctx)
		} else {
			stats[*collection], err = manager.Stats(ctx, *collection)
		}
		if err != nil {
			log.Fatal("Failed to get stats: ", err)
		}
		if *jsonOutput {
			outputJSON(stats)
			return
		}
		for coll, collStats := range stats {
			fmt.Printf("\n=== %s ===\n", coll)
			for _, stat := range collStats {
				fmt.Printf("  %s:\n", stat.Name)
				fmt.Printf("    Accesses: %d\n", stat.Accesses)
				fmt.Printf("    Since: %v\n", stat.Since)
				if stat.Building {
					fmt.Printf("    Status: BUILDING\n")
				}
			}
		}

	default:
		fmt.Printf("Unknown action: %s\n", *action)
		fmt.Println("Available actions: migrate, create, drop, list, stats, status")
		os.Exit(1)
	}
}

func outputJSON(data any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Fatal("Failed to encode JSON: ", err)
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
