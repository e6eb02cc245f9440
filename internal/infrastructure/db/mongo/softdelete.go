package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/t2m/license-platform/internal/core/domain"
)

// Soft deletion is enforced here, centrally: every repository read builds
// its filter through scoped/notDeleted, and deletes only ever set the flag.
// No repository composes a raw read filter by hand, so a new query path
// cannot leak soft-deleted documents.

// notDeleted extends filter to exclude soft-deleted documents.
func notDeleted(filter bson.M) bson.M {
	filter["is_deleted"] = bson.M{"$ne": true}
	return filter
}

// scoped applies the soft-delete exclusion unless the caller explicitly
// opted into deleted records (admin restore/audit paths only).
func scoped(filter bson.M, includeDeleted bool) bson.M {
	if includeDeleted {
		return filter
	}
	return notDeleted(filter)
}

type actorDoc struct {
	ID    string `bson:"id"`
	Email string `bson:"email"`
}

func toActorDoc(a domain.ActorRef) actorDoc {
	return actorDoc{ID: a.ID, Email: a.Email}
}

// softDeleteByID flags the document and records who deleted it. The record
// stays in storage for audit and restore.
func softDeleteByID(ctx context.Context, coll *mongo.Collection, id string, actor domain.ActorRef) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := coll.UpdateOne(ctx, notDeleted(bson.M{"_id": oid}), bson.M{"$set": bson.M{
		"is_deleted": true,
		"deleted_at": now,
		"deleted_by": toActorDoc(actor),
		"updated_at": now,
	}})
	if err != nil {
		return storageErr("soft delete", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// restoreByID clears the deletion flag and audit fields.
func restoreByID(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "is_deleted": true},
		bson.M{
			"$set":   bson.M{"is_deleted": false, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"deleted_at": "", "deleted_by": ""},
		})
	if err != nil {
		return storageErr("restore", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// objectID parses a hex id. Malformed ids behave like absent documents so
// the API cannot distinguish "bad id" from "no such record".
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// storageErr classifies driver failures. Absent documents become ErrNotFound;
// everything else is a transient storage problem surfaced as ErrUnavailable
// for the HTTP layer to decide on retry or backoff. No retry happens here.
func storageErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}
