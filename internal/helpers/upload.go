package helpers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

// ReadImageUploads reads the "images" files of a multipart form. Files are
// read concurrently; the result keeps the form order.
func ReadImageUploads(c *gin.Context) ([]models.ImageUpload, error) {
	if err := c.Request.ParseMultipartForm(common.MAX_IMAGE_SIZE); err != nil {
		return nil, util.Invalidf("failed to parse multipart form: %v", err)
	}

	files := c.Request.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, util.Invalidf("no images uploaded")
	}
	if len(files) > common.IMAGE_COUNT {
		return nil, util.Invalidf("at most %d images per upload", common.IMAGE_COUNT)
	}

	var (
		uploads = make([]models.ImageUpload, len(files))
		errs    = make([]error, len(files))
		wg      sync.WaitGroup
	)

	for i, fileHeader := range files {
		wg.Add(1)
		go func(index int, fh *multipart.FileHeader) {
			defer wg.Done()
			uploads[index], errs[index] = readImage(fh)
		}(i, fileHeader)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
	}
	return uploads, nil
}

func readImage(fh *multipart.FileHeader) (models.ImageUpload, error) {
	if fh.Size > common.MAX_IMAGE_SIZE {
		return models.ImageUpload{}, util.Invalidf("%s is larger than %d bytes", fh.Filename, common.MAX_IMAGE_SIZE)
	}

	file, err := fh.Open()
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("error opening %s: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, common.MAX_IMAGE_SIZE+1))
	if err != nil {
		return models.ImageUpload{}, fmt.Errorf("error reading %s: %w", fh.Filename, err)
	}
	if len(data) > common.MAX_IMAGE_SIZE {
		return models.ImageUpload{}, util.Invalidf("%s is larger than %d bytes", fh.Filename, common.MAX_IMAGE_SIZE)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return models.ImageUpload{}, util.Invalidf("%s is not an image (%s)", fh.Filename, contentType)
	}

	upload := models.ImageUpload{Filename: fh.Filename, ContentType: contentType, Data: data}
	if err := common.Validate.Struct(&upload); err != nil {
		return models.ImageUpload{}, util.Invalidf("%v", err)
	}
	return upload, nil
}
