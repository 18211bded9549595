package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewID returns a new nanoid, panicking only on a broken entropy source.
// Documents, segments, entities, relationships, and analyses all use these.
func NewID() string {
	id, err := gonanoid.New()
	if err != nil {
		panic(err)
	}
	return id
}
