package indexer

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// indexUsage mirrors one document emitted by the $indexStats stage.
type indexUsage struct {
	Name     string `bson:"name"`
	Host     string `bson:"host"`
	Building bool   `bson:"building"`
	Accesses struct {
		Ops   int64     `bson:"ops"`
		Since time.Time `bson:"since"`
	} `bson:"accesses"`
}

func (u indexUsage) stats() IndexStats {
	return IndexStats{
		Name:     u.Name,
		Accesses: u.Accesses.Ops,
		Since:    u.Accesses.Since.UTC(),
		Host:     u.Host,
		Building: u.Building,
	}
}

// Stats reports per-index usage counters for one collection, sorted by
// index name.
func (m *Manager) Stats(ctx context.Context, collection string) ([]IndexStats, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cursor, err := m.db.Collection(collection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$indexStats", Value: bson.D{}}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "index stats for %s", collection)
	}
	defer cursor.Close(ctx)

	var rows []indexUsage
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "decoding index stats for %s", collection)
	}

	out := make([]IndexStats, len(rows))
	for i, row := range rows {
		out[i] = row.stats()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// StatsAll runs Stats for every collection that has a registered index.
// With ContinueOnError set, an unreadable collection reports no rows.
func (m *Manager) StatsAll(ctx context.Context) (map[string][]IndexStats, error) {
	all := make(map[string][]IndexStats)
	for _, collection := range m.collections() {
		stats, err := m.Stats(ctx, collection)
		switch {
		case err == nil:
			all[collection] = stats
		case m.options.ContinueOnError:
			all[collection] = []IndexStats{}
		default:
			return nil, err
		}
	}
	return all, nil
}
