// Package mapstore persists route map images in a content-addressed
// store keyed by the route they depict. Repeated requests for the same
// (origin, destination, driving) triple reuse the same object, so the
// store doubles as a cross-session cache of map downloads.
package mapstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Store is the persistence contract for map images.
// Implementations must tolerate concurrent callers.
type Store interface {
	// Put stores data under ref, overwriting any existing object.
	Put(ctx context.Context, ref string, data []byte) error

	// Open returns a reader for the object stored under ref.
	// Returns an error wrapping fs.ErrNotExist semantics when absent;
	// callers should treat any error as a miss.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Exists reports whether an object is stored under ref.
	Exists(ctx context.Context, ref string) (bool, error)
}

// Ref derives the content-addressed object name for a route map.
// The name is a hash of the normalized origin, destination, and driving
// flag; origin and destination are not interchangeable, but letter case
// and surrounding whitespace are ignored.
func Ref(origin, destination string, driving bool) string {
	key := fmt.Sprintf("%s|%s|%t", normalize(origin), normalize(destination), driving)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8]) + ".png"
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
