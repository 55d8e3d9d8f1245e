package controllers

import (
	"net/http"

	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type ImageController struct {
	images services.ImageStore
}

func InitImageController(images services.ImageStore) *ImageController {
	return &ImageController{images: images}
}

// ServeImage streams image bytes. Image ids are never reused, so responses
// may be cached for a long time.
func (ic *ImageController) ServeImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		data, contentType, err := ic.images.Fetch(ctx, c.Param("imageid"))
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Data(http.StatusOK, contentType, data)
	}
}
