package util

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var hexObjectIDPattern = regexp.MustCompile(`[0-9a-fA-F]{24}`)

// LenientObjectID scans s for the first 24-hex substring and parses it.
// Inputs such as "ObjectId('...')" or "/products/<id>/" are accepted. The
// all-zero id is never a valid reference.
func LenientObjectID(s string) (primitive.ObjectID, bool) {
	match := hexObjectIDPattern.FindString(s)
	if match == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(match)
	if err != nil || id.IsZero() {
		return primitive.NilObjectID, false
	}
	return id, true
}

// LenientObjectIDs parses every value leniently and drops the ones that do
// not contain an id. Duplicates are removed, first occurrence wins.
func LenientObjectIDs(values []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(values))
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		id, ok := LenientObjectID(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
