package schema

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidProjectName = errors.New("invalid project name")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrIndexConflict      = errors.New("index conflicts with an existing definition")
)

// IndexError reports a failed index build on a collection.
type IndexError struct {
	Collection string
	Index      string
	Err        error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("create index %s on %s: %v", e.Index, e.Collection, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// IsDuplicateKey reports whether err is a uniqueness violation, from either
// the in-memory catalog or the MongoDB server.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDuplicateKey) || mongo.IsDuplicateKeyError(err)
}

// errorKind buckets an error for the schema_errors_total metric.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidProjectName):
		return "invalid_input"
	case IsDuplicateKey(err):
		return "duplicate_key"
	case errors.Is(err, ErrIndexConflict):
		return "index_conflict"
	}
	return "database"
}
