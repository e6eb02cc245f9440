package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/t2m/license-platform/internal/core/domain"
)

// SessionStore keeps each user's refresh tokens inside the user document's
// tokens array. Every mutation is a single conditional update, which MongoDB
// applies atomically per document — that single-document atomicity is what
// serializes concurrent session changes for one user without any
// application-side locking. Operations on different users touch different
// documents and never contend.
type SessionStore struct {
	coll *mongo.Collection
	cap  int
}

// NewSessionStore creates the store over the users collection. A cap <= 0
// falls back to 2, the platform default.
func NewSessionStore(db *mongo.Database, cap int) *SessionStore {
	if cap <= 0 {
		cap = 2
	}
	return &SessionStore{coll: db.Collection(usersCollection), cap: cap}
}

// Add appends token and trims the array to the last cap entries in the same
// update. Appending and evicting can never be observed separately.
func (s *SessionStore) Add(ctx context.Context, userID, token string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx,
		notDeleted(bson.M{"_id": oid}),
		bson.M{"$push": bson.M{"tokens": bson.M{
			"$each":  bson.A{token},
			"$slice": -s.cap,
		}}})
	if err != nil {
		return storageErr("add session", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Rotate replaces the first occurrence of old with new in place. The old
// token is part of the match filter, so of two concurrent rotations of the
// same token exactly one can match; the other sees false and must be
// rejected by the caller.
func (s *SessionStore) Rotate(ctx context.Context, userID, old, new string) (bool, error) {
	oid, err := objectID(userID)
	if err != nil {
		return false, err
	}
	res, err := s.coll.UpdateOne(ctx,
		notDeleted(bson.M{"_id": oid, "tokens": old}),
		bson.M{"$set": bson.M{"tokens.$": new}})
	if err != nil {
		return false, storageErr("rotate session", err)
	}
	return res.ModifiedCount == 1, nil
}

// Remove pulls the token from the array. Pulling an absent token matches the
// document and modifies nothing, which is exactly the idempotent-logout
// contract.
func (s *SessionStore) Remove(ctx context.Context, userID, token string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	if _, err := s.coll.UpdateOne(ctx,
		notDeleted(bson.M{"_id": oid}),
		bson.M{"$pull": bson.M{"tokens": token}}); err != nil {
		return storageErr("remove session", err)
	}
	return nil
}

// Contains reports whether token is a live session of userID.
func (s *SessionStore) Contains(ctx context.Context, userID, token string) (bool, error) {
	oid, err := objectID(userID)
	if err != nil {
		return false, err
	}
	n, err := s.coll.CountDocuments(ctx, notDeleted(bson.M{"_id": oid, "tokens": token}))
	if err != nil {
		return false, storageErr("check session", err)
	}
	return n > 0, nil
}

// PruneExpired walks users holding sessions and pulls every token isLive
// rejects. Each pull is atomic per user; a token added between read and pull
// is simply not considered this round.
func (s *SessionStore) PruneExpired(ctx context.Context, isLive func(token string) bool) error {
	cur, err := s.coll.Find(ctx,
		notDeleted(bson.M{"tokens.0": bson.M{"$exists": true}}))
	if err != nil {
		return storageErr("scan sessions", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var d struct {
			ID     interface{} `bson:"_id"`
			Tokens []string    `bson:"tokens"`
		}
		if err := cur.Decode(&d); err != nil {
			return storageErr("decode sessions", err)
		}

		var dead bson.A
		for _, t := range d.Tokens {
			if !isLive(t) {
				dead = append(dead, t)
			}
		}
		if len(dead) == 0 {
			continue
		}
		if _, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": d.ID},
			bson.M{"$pull": bson.M{"tokens": bson.M{"$in": dead}}}); err != nil {
			return storageErr("prune sessions", err)
		}
	}
	return cur.Err()
}
