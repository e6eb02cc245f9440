package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/ports"
)

const usersCollection = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	Phone        string             `bson:"phone,omitempty"`
	PasswordHash string             `bson:"password"`
	RoleID       string             `bson:"role_id"`
	Tokens       []string           `bson:"tokens"`
	CreatedAt    time.Time          `bson:"created_at"`
	CreatedBy    actorDoc           `bson:"created_by,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	UpdatedBy    actorDoc           `bson:"updated_by,omitempty"`
	IsDeleted    bool               `bson:"is_deleted"`
	DeletedAt    *time.Time         `bson:"deleted_at,omitempty"`
	DeletedBy    *actorDoc          `bson:"deleted_by,omitempty"`
}

func (d userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Name:         d.Name,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		RoleID:       d.RoleID,
		Sessions:     d.Tokens,
		AuditStamps: domain.AuditStamps{
			CreatedAt: d.CreatedAt,
			CreatedBy: domain.ActorRef(d.CreatedBy),
			UpdatedAt: d.UpdatedAt,
			UpdatedBy: domain.ActorRef(d.UpdatedBy),
			IsDeleted: d.IsDeleted,
			DeletedAt: d.DeletedAt,
		},
	}
	if d.DeletedBy != nil {
		ref := domain.ActorRef(*d.DeletedBy)
		u.DeletedBy = &ref
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	doc := userDoc{
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID,
		Tokens:       []string{},
		CreatedAt:    u.CreatedAt,
		CreatedBy:    toActorDoc(u.CreatedBy),
		UpdatedAt:    u.UpdatedAt,
		IsDeleted:    false,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, storageErr("insert user", err)
	}

	created := *u
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	created.Sessions = []string{}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, notDeleted(bson.M{"_id": oid}))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, notDeleted(bson.M{"email": email}))
}

// FindByRefreshToken resolves a token's owner by session membership. Tokens
// held by soft-deleted users do not resolve: deletion invalidates sessions.
func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findOne(ctx, notDeleted(bson.M{"tokens": token}))
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.User, int64, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"email": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}
	query = scoped(query, filter.IncludeDeleted)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storageErr("count users", err)
	}

	opts := options.Find().
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, storageErr("list users", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var d userDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, storageErr("decode user", err)
		}
		users = append(users, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, storageErr("list users", err)
	}
	return users, total, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, input ports.UpdateUserInput, actor domain.ActorRef) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{
		"updated_at": time.Now().UTC(),
		"updated_by": toActorDoc(actor),
	}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Phone != nil {
		set["phone"] = *input.Phone
	}
	if input.RoleID != nil {
		set["role_id"] = *input.RoleID
	}

	res, err := r.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": oid}), bson.M{"$set": set})
	if err != nil {
		return storageErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error {
	return softDeleteByID(ctx, r.coll, id, actor)
}

func (r *UserRepository) Restore(ctx context.Context, id string) error {
	return restoreByID(ctx, r.coll, id)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, storageErr("find user", err)
	}
	return d.toDomain(), nil
}

// EnsureIndexes creates the users indexes. Email uniqueness applies only to
// live documents so a deleted account's address can be registered again.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_deleted": false}),
		},
		{Keys: bson.D{{Key: "tokens", Value: 1}}},
		{Keys: bson.D{{Key: "role_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
