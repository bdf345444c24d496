// Package media talks to the external object-storage service that hosts
// avatars and cover images. The workflow hands it a local file path produced
// by the multipart layer and receives back a public URL.
package media

import "context"

// Store is the narrow interface the session workflow depends on.
type Store interface {
	// Upload pushes the file at localPath to object storage and returns its
	// public URL. The local file is removed whether or not the upload
	// succeeded.
	Upload(ctx context.Context, localPath string) (string, error)

	// Delete removes a previously uploaded object by its public URL. Callers
	// treat failures as best-effort: log and move on.
	Delete(ctx context.Context, url string) error
}
