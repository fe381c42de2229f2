// SPDX-License-Identifier: MIT
// Package storage moves rendered artifacts in and out of persistent
// object storage. Only the commit pipeline uses it.
package storage

import "context"

// Store is the object-storage collaborator. Upload writes under a key;
// Promote atomically renames a temp key to its final key, which is how
// the pipeline guarantees readers never observe a partial artifact.
type Store interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Promote(ctx context.Context, tempKey, finalKey string) error
	Delete(ctx context.Context, key string) error
}
