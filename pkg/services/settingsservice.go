package services

import (
	"context"
	"strings"
	"time"

	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsServiceImpl struct {
	settingsCollection *mongo.Collection
}

func NewSettingsService(db *mongo.Database) SettingsService {
	return &SettingsServiceImpl{
		settingsCollection: util.GetCollection(db, common.SettingsCollectionName),
	}
}

// GetInviteCode returns the stored invite code, or "" when none is set.
func (s *SettingsServiceImpl) GetInviteCode(ctx context.Context) (string, error) {
	var setting models.Setting
	err := s.settingsCollection.FindOne(ctx, bson.M{"_id": models.AdminInviteCodeKey}).Decode(&setting)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingsServiceImpl) SetInviteCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return util.Invalidf("invite code must not be empty")
	}

	_, err := s.settingsCollection.UpdateOne(ctx,
		bson.M{"_id": models.AdminInviteCodeKey},
		bson.M{"$set": bson.M{"value": code, "modifiedAt": time.Now()}},
		options.Update().SetUpsert(true))
	return errors.Wrap(err, "store invite code")
}

// ClearInviteCode removes the stored code. Registration then falls back to
// the ADMIN_INVITE_CODE environment value.
func (s *SettingsServiceImpl) ClearInviteCode(ctx context.Context) error {
	_, err := s.settingsCollection.DeleteOne(ctx, bson.M{"_id": models.AdminInviteCodeKey})
	return errors.Wrap(err, "clear invite code")
}
