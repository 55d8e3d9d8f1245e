package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/util"

	"github.com/cloudinary/cloudinary-go"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultImageContentType = "application/octet-stream"

// ImageURL is the public route serving an image id.
func ImageURL(imageID string) string {
	return "/v1/images/" + imageID
}

func parseImageID(imageID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(imageID))
	if err != nil {
		return primitive.NilObjectID, util.Invalidf("image id %q is not valid", imageID)
	}
	return id, nil
}

// GridFSImageStore keeps images in the GridFS bucket of the main database.
type GridFSImageStore struct {
	db         *mongo.Database
	bucketName string
}

func NewGridFSImageStore(db *mongo.Database) *GridFSImageStore {
	return &GridFSImageStore{db: db, bucketName: common.ImageBucketName}
}

// bucket opens the GridFS bucket and applies the context deadline, since
// bucket operations take deadlines instead of contexts.
func (s *GridFSImageStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucketName))
	if err != nil {
		return nil, errors.Wrap(err, "open image bucket")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (s *GridFSImageStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = defaultImageContentType
	}

	id := primitive.NewObjectID()
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if err := bucket.UploadFromStreamWithID(id, id.Hex(), bytes.NewReader(data), uploadOpts); err != nil {
		return "", errors.Wrap(err, "store image")
	}
	return id.Hex(), nil
}

func (s *GridFSImageStore) Fetch(ctx context.Context, imageID string) ([]byte, string, error) {
	id, err := parseImageID(imageID)
	if err != nil {
		return nil, "", err
	}

	var file struct {
		Metadata struct {
			ContentType string `bson:"contentType"`
		} `bson:"metadata"`
	}
	err = s.db.Collection(s.bucketName+".files").FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", util.NotFoundf("image %s", imageID)
	}
	if err != nil {
		return nil, "", err
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStream(id, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", util.NotFoundf("image %s", imageID)
		}
		return nil, "", errors.Wrap(err, "read image")
	}

	contentType := file.Metadata.ContentType
	if contentType == "" {
		contentType = defaultImageContentType
	}
	return buf.Bytes(), contentType, nil
}

// Delete removes the image. Deleting a missing image is not an error.
func (s *GridFSImageStore) Delete(ctx context.Context, imageID string) error {
	id, err := parseImageID(imageID)
	if err != nil {
		return err
	}
	bucket, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := bucket.Delete(id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return errors.Wrap(err, "delete image")
	}
	return nil
}

func (s *GridFSImageStore) URL(imageID string) string {
	return ImageURL(imageID)
}

// CloudinaryImageStore keeps images in a Cloudinary folder. Image ids are the
// last segment of the Cloudinary public id so that they fit in a route
// parameter.
type CloudinaryImageStore struct {
	cld        *cloudinary.Cloudinary
	folder     string
	httpClient *http.Client
}

func NewCloudinaryImageStore(cld *cloudinary.Cloudinary, folder string) *CloudinaryImageStore {
	return &CloudinaryImageStore{
		cld:        cld,
		folder:     strings.Trim(folder, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CloudinaryImageStore) publicID(imageID string) string {
	if s.folder == "" {
		return imageID
	}
	return s.folder + "/" + imageID
}

func (s *CloudinaryImageStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	id := primitive.NewObjectID().Hex()
	if _, err := util.ImageUploadHelper(ctx, s.cld, s.folder, id, bytes.NewReader(data)); err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	return id, nil
}

// Fetch resolves the delivery URL and streams the bytes back so that both
// backends serve images from the same route.
func (s *CloudinaryImageStore) Fetch(ctx context.Context, imageID string) ([]byte, string, error) {
	if _, err := parseImageID(imageID); err != nil {
		return nil, "", err
	}

	url, err := util.ImageAssetHelper(ctx, s.cld, s.publicID(imageID))
	if err != nil {
		return nil, "", util.NotFoundf("image %s: %v", imageID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", util.NotFoundf("image %s", imageID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, common.MAX_IMAGE_SIZE+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (s *CloudinaryImageStore) Delete(ctx context.Context, imageID string) error {
	if _, err := parseImageID(imageID); err != nil {
		return err
	}
	result, err := util.ImageDeletionHelper(ctx, s.cld, s.publicID(imageID))
	if err != nil {
		return errors.Wrap(err, "delete image")
	}
	if result != "ok" && result != "not found" {
		util.LogWarning("cloudinary destroy returned " + result + " for " + imageID)
	}
	return nil
}

func (s *CloudinaryImageStore) URL(imageID string) string {
	return ImageURL(imageID)
}
