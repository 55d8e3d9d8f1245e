package services

import (
	"context"
	"strings"
	"time"

	"storefront-api-io/api/internal"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userService struct {
	userCollection  *mongo.Collection
	settingsService SettingsService
	envInviteCode   string
	cache           *internal.CachePublisher
}

// NewUserService builds the user service. envInviteCode is the fallback
// admin invite code used when none is stored in settings.
func NewUserService(db *mongo.Database, settingsService SettingsService, envInviteCode string, cache *internal.CachePublisher) UserService {
	return &userService{
		userCollection:  util.GetCollection(db, common.UserCollectionName),
		settingsService: settingsService,
		envInviteCode:   envInviteCode,
		cache:           cache,
	}
}

// Register creates an account. The first account is an admin; later ones
// are admins only when they present the current invite code. Two
// simultaneous first registrations may both become admin.
func (s *userService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}

	email := models.NormalizeEmail(req.Email)
	digest, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	count, err := s.userCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	storedCode, err := s.settingsService.GetInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		Id:             primitive.NewObjectID(),
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		PasswordDigest: digest,
		IsAdmin:        GrantsAdmin(count, strings.TrimSpace(req.Invite), storedCode, s.envInviteCode),
		CreatedAt:      now,
	}

	if _, err := s.userCollection.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return nil, util.Conflictf("an account with email %s already exists", email)
		}
		return nil, errors.Wrap(err, "insert user")
	}

	if user.IsAdmin {
		util.LogInfof("user %s registered as admin", user.Id.Hex())
	}
	return &user, nil
}

// Authenticate checks credentials and records the login. Unknown emails and
// wrong passwords produce the same error.
func (s *userService) Authenticate(ctx context.Context, req models.UserAuthRequest) (*models.User, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}

	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"email": models.NormalizeEmail(req.Email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(util.ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, err
	}

	if err := util.CheckPassword(user.PasswordDigest, req.Password); err != nil {
		return nil, errors.Wrap(util.ErrUnauthorized, "invalid email or password")
	}

	err = s.userCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": user.Id},
		bson.M{
			"$set": bson.M{"lastLogin": time.Now()},
			"$inc": bson.M{"loginCounts": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		util.LogErrorf(err, "record login of %s", user.Id.Hex())
	}

	s.cache.Notify(ctx, internal.CacheInvalidateUser, user.Id.Hex())
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("user %s", userID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
