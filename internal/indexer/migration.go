package indexer

import (
	"context"
	"sort"
	"time"

	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ledgerCollection keeps one row per migration attempt. Only rows with
// success:true mark a version as applied, and the partial unique index
// allows at most one of those per version.
const ledgerCollection = "_migrations"

type MigrationManager struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrationManager(db *mongo.Database) *MigrationManager {
	return &MigrationManager{db: db}
}

func (mm *MigrationManager) AddMigration(migration Migration) *MigrationManager {
	mm.migrations = append(mm.migrations, migration)
	return mm
}

// Run applies every migration the ledger has no successful row for, oldest
// version first, and stops at the first one that fails.
func (mm *MigrationManager) Run(ctx context.Context) error {
	plan, err := mm.plan()
	if err != nil {
		return err
	}

	ledger := mm.db.Collection(ledgerCollection)
	if err := ensureLedgerIndex(ctx, ledger); err != nil {
		return err
	}

	done, err := appliedVersions(ctx, ledger)
	if err != nil {
		return err
	}

	for _, m := range plan {
		if done[m.Version] {
			util.LogInfof("migration %s: already applied", m.Version)
			continue
		}
		if err := mm.apply(ctx, ledger, m); err != nil {
			return err
		}
	}
	return nil
}

// plan orders the registered migrations by version. Blank or repeated
// versions and missing Up steps are registration mistakes and abort the run.
func (mm *MigrationManager) plan() ([]Migration, error) {
	plan := append([]Migration(nil), mm.migrations...)
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Version < plan[j].Version })

	for i, m := range plan {
		switch {
		case m.Version == "":
			return nil, errors.New("migration registered without a version")
		case m.Up == nil:
			return nil, errors.Errorf("migration %s has no Up step", m.Version)
		case i > 0 && plan[i-1].Version == m.Version:
			return nil, errors.Errorf("migration %s registered twice", m.Version)
		}
	}
	return plan, nil
}

func ensureLedgerIndex(ctx context.Context, ledger *mongo.Collection) error {
	_, err := ledger.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "version", Value: 1}},
		Options: options.Index().
			SetName("version_success").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"success": true}),
	})
	return errors.Wrap(err, "creating migration ledger index")
}

func appliedVersions(ctx context.Context, ledger *mongo.Collection) (map[string]bool, error) {
	versions, err := ledger.Distinct(ctx, "version", bson.M{"success": true})
	if err != nil {
		return nil, errors.Wrap(err, "reading migration ledger")
	}

	done := make(map[string]bool, len(versions))
	for _, v := range versions {
		if version, ok := v.(string); ok {
			done[version] = true
		}
	}
	return done, nil
}

// apply runs one migration and writes its outcome to the ledger. A failed
// attempt is still recorded, with the error text, so Status can show it.
func (mm *MigrationManager) apply(ctx context.Context, ledger *mongo.Collection, m Migration) error {
	util.LogInfof("migration %s: %s", m.Version, m.Description)

	start := time.Now()
	upErr := m.Up(ctx, mm.db)
	entry := MigrationStatus{
		Version:   m.Version,
		AppliedAt: time.Now().UTC(),
		Success:   upErr == nil,
	}

	if upErr != nil {
		entry.Error = upErr.Error()
		if _, err := ledger.InsertOne(ctx, entry); err != nil {
			util.LogErrorf(err, "migration %s: recording the failure", m.Version)
		}
		return errors.Wrapf(upErr, "migration %s", m.Version)
	}

	if _, err := ledger.InsertOne(ctx, entry); err != nil {
		return errors.Wrapf(err, "recording migration %s", m.Version)
	}
	util.LogInfof("migration %s: done in %s", m.Version, time.Since(start).Round(time.Millisecond))
	return nil
}

// Status returns the whole ledger, failed attempts included, grouped by
// version in the order they happened.
func (mm *MigrationManager) Status(ctx context.Context) ([]MigrationStatus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}, {Key: "applied_at", Value: 1}})
	cursor, err := mm.db.Collection(ledgerCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "reading migration ledger")
	}
	defer cursor.Close(ctx)

	entries := []MigrationStatus{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "decoding migration ledger")
	}
	return entries, nil
}
