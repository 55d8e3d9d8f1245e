package indexer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, m.options.Timeout)
}

func (m *Manager) Create(ctx context.Context) (*Result, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result := &Result{
		Failures: []FailureDetail{},
	}

	for _, def := range m.indexes {
		name := indexNameOf(def)
		if m.options.SkipIfExists && name != "" {
			exists, err := m.indexExists(ctx, def.Collection, name)
			if err == nil && exists {
				log.Printf("Index %s on %s already exists, skipping", name, def.Collection)
				result.SuccessCount++
				continue
			}
		}

		indexName, err := m.db.Collection(def.Collection).Indexes().CreateOne(ctx, def.Index)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				log.Printf("Warning: cannot create unique index %s on %s due to duplicate data", name, def.Collection)
			} else {
				log.Printf("Failed to create index on %s: %v", def.Collection, err)
			}

			result.FailedCount++
			result.Failures = append(result.Failures, FailureDetail{
				Collection: def.Collection,
				IndexName:  name,
				Error:      err,
				Message:    err.Error(),
			})

			if !m.options.ContinueOnError {
				result.Duration = time.Since(start)
				return result, err
			}
			continue
		}

		log.Printf("Created index %s on collection %s", indexName, def.Collection)
		result.SuccessCount++
	}

	result.Duration = time.Since(start)

	if result.FailedCount > 0 {
		return result, fmt.Errorf("%d indexes failed to create", result.FailedCount)
	}

	return result, nil
}

// Drop removes every index except _id on the given collections, or on all
// collections with registered definitions when none are given.
func (m *Manager) Drop(ctx context.Context, collections ...string) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	targets := collections
	if len(targets) == 0 {
		targets = m.collections()
	}

	for _, collName := range targets {
		if _, err := m.db.Collection(collName).Indexes().DropAll(ctx); err != nil {
			if !m.options.ContinueOnError {
				return fmt.Errorf("failed to drop indexes for %s: %w", collName, err)
			}
			log.Printf("Failed to drop indexes for %s: %v", collName, err)
			continue
		}
		log.Printf("Dropped all indexes for collection %s", collName)
	}

	return nil
}

func (m *Manager) List(ctx context.Context, collection string) ([]bson.M, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var indexes []bson.M
	if err = cursor.All(ctx, &indexes); err != nil {
		return nil, err
	}

	return indexes, nil
}

func (m *Manager) indexExists(ctx context.Context, collection, indexName string) (bool, error) {
	indexes, err := m.List(ctx, collection)
	if err != nil {
		return false, err
	}

	for _, idx := range indexes {
		if name, ok := idx["name"].(string); ok && name == indexName {
			return true, nil
		}
	}

	return false, nil
}

func (m *Manager) LoadFromDefinitions(definitions []IndexDefinition) *Manager {
	m.indexes = append(m.indexes, definitions...)
	return m
}

func (m *Manager) Clear() *Manager {
	m.indexes = []IndexDefinition{}
	return m
}

// collections returns the distinct collection names with definitions, sorted.
func (m *Manager) collections() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, def := range m.indexes {
		if !seen[def.Collection] {
			seen[def.Collection] = true
			out = append(out, def.Collection)
		}
	}
	sort.Strings(out)
	return out
}

func indexNameOf(def IndexDefinition) string {
	if def.Index.Options != nil && def.Index.Options.Name != nil {
		return *def.Index.Options.Name
	}
	return ""
}
