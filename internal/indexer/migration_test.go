package indexer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func noop(context.Context, *mongo.Database) error { return nil }

func TestMigrationPlanOrdersByVersion(t *testing.T) {
	mm := NewMigrationManager(nil).
		AddMigration(Migration{Version: "0003_c", Up: noop}).
		AddMigration(Migration{Version: "0001_a", Up: noop}).
		AddMigration(Migration{Version: "0002_b", Up: noop})

	plan, err := mm.plan()
	require.NoError(t, err)

	versions := []string{}
	for _, m := range plan {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{"0001_a", "0002_b", "0003_c"}, versions)
	assert.Equal(t, "0003_c", mm.migrations[0].Version, "registration order is left alone")
}

func TestMigrationPlanRejectsBadRegistrations(t *testing.T) {
	tests := []struct {
		name       string
		migrations []Migration
		want       string
	}{
		{"blank version", []Migration{{Up: noop}}, "without a version"},
		{"missing up", []Migration{{Version: "0001_a"}}, "no Up step"},
		{"duplicate", []Migration{{Version: "0001_a", Up: noop}, {Version: "0001_a", Up: noop}}, "registered twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm := NewMigrationManager(nil)
			for _, m := range tt.migrations {
				mm.AddMigration(m)
			}
			_, err := mm.plan()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func ledgerCommands(mt *mtest.T) []string {
	out := []string{}
	for _, evt := range mt.GetAllStartedEvents() {
		out = append(out, evt.CommandName+" "+evt.Command.Lookup(evt.CommandName).StringValue())
	}
	return out
}

func TestMigrationRunSkipsAppliedVersions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("pending only", func(mt *mtest.T) {
		ran := []string{}
		record := func(version string) func(context.Context, *mongo.Database) error {
			return func(context.Context, *mongo.Database) error {
				ran = append(ran, version)
				return nil
			}
		}

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"0001_a"}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		mm := NewMigrationManager(mt.DB).
			AddMigration(Migration{Version: "0002_b", Up: record("0002_b")}).
			AddMigration(Migration{Version: "0001_a", Up: record("0001_a")})

		require.NoError(mt, mm.Run(context.Background()))
		assert.Equal(mt, []string{"0002_b"}, ran)
		assert.Equal(mt, []string{
			"createIndexes _migrations",
			"distinct _migrations",
			"insert _migrations",
		}, ledgerCommands(mt))

		recorded := mt.GetAllStartedEvents()[2].Command
		assert.Equal(mt, "0002_b", recorded.Lookup("documents", "0", "version").StringValue())
		assert.True(mt, recorded.Lookup("documents", "0", "success").Boolean())
	})

	mt.Run("failure is recorded and stops the run", func(mt *mtest.T) {
		laterRan := false
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		mm := NewMigrationManager(mt.DB).
			AddMigration(Migration{Version: "0001_a", Up: func(context.Context, *mongo.Database) error {
				return errors.New("bad cart row")
			}}).
			AddMigration(Migration{Version: "0002_b", Up: func(context.Context, *mongo.Database) error {
				laterRan = true
				return nil
			}})

		err := mm.Run(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "migration 0001_a")
		assert.False(mt, laterRan)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 3)
		recorded := events[2].Command
		assert.False(mt, recorded.Lookup("documents", "0", "success").Boolean())
		assert.Equal(mt, "bad cart row", recorded.Lookup("documents", "0", "error").StringValue())
	})
}
