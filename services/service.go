// Package services implements the storage facade of nimbusdrive: the
// namespace engine for folders, the upload/content path for files, and the
// authentication flows. Every caller-facing operation is scoped by the
// owner's id; absent and not-owned objects are indistinguishable.
package services

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nimbusdrive/common"
)

func nowUTC() time.Time { return time.Now().UTC() }

// parseID converts a hex object id. Malformed ids are an invalid argument,
// not a lookup miss.
func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, common.ErrInvalidArgument)
	}
	return objID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
