package models

// ImageUpload is a single file read from a multipart request.
type ImageUpload struct {
	Filename    string `validate:"required"`
	ContentType string `validate:"required"`
	Data        []byte `validate:"required"`
}
