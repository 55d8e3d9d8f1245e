package util

import (
	"log"

	"github.com/gin-gonic/gin"
)

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func HandleSuccess(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, SuccessResponse{
		Status:  statusCode,
		Message: message,
		Data:    data,
		Meta:    nil,
	})
}

func HandleSuccessMeta(c *gin.Context, statusCode int, message string, data, meta any) {
	c.JSON(statusCode, SuccessResponse{
		Status:  statusCode,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Status int    `json:"status"`
}

func HandleError(c *gin.Context, statusCode int, err error) {
	log.Printf("error: %v", err)
	c.JSON(statusCode, ErrorResponse{
		Error:  err.Error(),
		Status: statusCode,
	})
}

// HandleServiceError responds with the status code derived from the error
// taxonomy. Internal errors are logged but not echoed to the client.
func HandleServiceError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= 500 {
		log.Printf("internal error: %v", err)
		c.JSON(status, ErrorResponse{
			Error:  "internal server error",
			Status: status,
		})
		return
	}
	HandleError(c, status, err)
}

type PaginationArgs struct {
	Sort  string
	Limit int
	Skip  int
}

type Pagination struct {
	Limit int   `json:"limit"`
	Skip  int   `json:"skip"`
	Count int64 `json:"count"`
}
