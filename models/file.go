package models

import "time"

// FileMetadata describes one stored file. StoredName is the opaque on-disk
// (or object-store) identifier; the user-supplied name is never used for
// storage. Size is the plaintext length recorded before encryption — the
// ciphertext blob is longer by a fixed nonce/tag overhead, so the two must
// never be assumed equal.
type FileMetadata struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	StoredName   string    `json:"-"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}
