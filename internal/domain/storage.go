package domain

import (
	"context"
	"io"
)

// FileStore uploads files to object storage and returns a public URL. Keys are
// scoped per user with a random component.
type FileStore interface {
	Upload(ctx context.Context, userID, filename, contentType string, body io.Reader) (publicURL string, err error)
}
