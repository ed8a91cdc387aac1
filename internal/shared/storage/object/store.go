package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Save places an object under a scope directory with a collision-free name
// and returns the storage key; SaveWithKey writes to an exact key, used for
// derived artifacts stored next to their source document.
type ObjectStore interface {
	Save(ctx context.Context, scope string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// URL returns a client-resolvable location for a stored object.
	URL(ctx context.Context, storageKey string) (string, error)
}
