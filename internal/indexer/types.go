package indexer

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IndexDefinition struct {
	Collection string
	Index      mongo.IndexModel
}

type Manager struct {
	db      *mongo.Database
	indexes []IndexDefinition
	options *Options
}

type Options struct {
	Timeout         time.Duration
	ContinueOnError bool
	SkipIfExists    bool
}

type Result struct {
	SuccessCount int
	FailedCount  int
	Failures     []FailureDetail
	Duration     time.Duration
}

type FailureDetail struct {
	Collection string
	IndexName  string
	Error      error `json:"-"`
	Message    string
}

type IndexStats struct {
	Name     string
	Accesses int64
	Since    time.Time
	Host     string
	Building bool
}

// Migration is a one-off data fix. Up must be safe to re-run because a
// failed migration is retried on the next start.
type Migration struct {
	Version     string
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
}

type MigrationStatus struct {
	Version   string    `bson:"version" json:"version"`
	AppliedAt time.Time `bson:"applied_at" json:"appliedAt"`
	Success   bool      `bson:"success" json:"success"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:         60 * time.Second,
		ContinueOnError: true,
		SkipIfExists:    true,
	}
}

func NewManager(db *mongo.Database, opts ...*Options) *Manager {
	o := DefaultOptions()
	if len(opts) > 0 && opts[0] != nil {
		o = opts[0]
	}

	return &Manager{
		db:      db,
		indexes: []IndexDefinition{},
		options: o,
	}
}

// Definitions returns the registered index definitions.
func (m *Manager) Definitions() []IndexDefinition {
	return m.indexes
}

func (m *Manager) AddIndex(collection string, index mongo.IndexModel) *Manager {
	m.indexes = append(m.indexes, IndexDefinition{
		Collection: collection,
		Index:      index,
	})
	return m
}

// AddCompoundIndex adds an ascending index over fields. A name is derived
// when opts carries none so that SkipIfExists can find it.
func (m *Manager) AddCompoundIndex(collection string, fields []string, opts ...*options.IndexOptions) *Manager {
	keys := bson.D{}
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: 1})
	}

	indexOpts := options.Index()
	if len(opts) > 0 && opts[0] != nil {
		indexOpts = opts[0]
	}
	if indexOpts.Name == nil {
		indexOpts.SetName(IndexName(collection, fields))
	}

	return m.AddIndex(collection, mongo.IndexModel{
		Keys:    keys,
		Options: indexOpts,
	})
}

// IndexName builds the name used for an ascending index, e.g.
// carts_userId_product_id.
func IndexName(collection string, fields []string) string {
	name := collection
	for _, f := range fields {
		name += "_" + f
	}
	return name
}
