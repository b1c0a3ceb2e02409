package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// NewID returns an opaque identifier for posts and media assets.
func NewID() (string, error) {
	return gonanoid.New(16)
}
