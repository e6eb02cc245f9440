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

const rolesCollection = "roles"

type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(rolesCollection)}
}

type roleDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description,omitempty"`
	IsActive      bool               `bson:"is_active"`
	PermissionIDs []string           `bson:"permissions"`
	CreatedAt     time.Time          `bson:"created_at"`
	CreatedBy     actorDoc           `bson:"created_by,omitempty"`
	UpdatedAt     time.Time          `bson:"updated_at"`
	UpdatedBy     actorDoc           `bson:"updated_by,omitempty"`
	IsDeleted     bool               `bson:"is_deleted"`
	DeletedAt     *time.Time         `bson:"deleted_at,omitempty"`
	DeletedBy     *actorDoc          `bson:"deleted_by,omitempty"`
}

func (d roleDoc) toDomain() *domain.Role {
	r := &domain.Role{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		IsActive:      d.IsActive,
		PermissionIDs: d.PermissionIDs,
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
		r.DeletedBy = &ref
	}
	return r
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	doc := roleDoc{
		Name:          role.Name,
		Description:   role.Description,
		IsActive:      role.IsActive,
		PermissionIDs: role.PermissionIDs,
		CreatedAt:     role.CreatedAt,
		CreatedBy:     toActorDoc(role.CreatedBy),
		UpdatedAt:     role.UpdatedAt,
		IsDeleted:     false,
	}
	if doc.PermissionIDs == nil {
		doc.PermissionIDs = []string{}
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, storageErr("insert role", err)
	}

	created := *role
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, notDeleted(bson.M{"_id": oid}))
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, notDeleted(bson.M{"name": name}))
}

func (r *RoleRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Role, int64, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	query = scoped(query, filter.IncludeDeleted)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storageErr("count roles", err)
	}

	opts := options.Find().
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, storageErr("list roles", err)
	}
	defer cur.Close(ctx)

	var roles []*domain.Role
	for cur.Next(ctx) {
		var d roleDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, storageErr("decode role", err)
		}
		roles = append(roles, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, storageErr("list roles", err)
	}
	return roles, total, nil
}

func (r *RoleRepository) Update(ctx context.Context, id string, input ports.UpdateRoleInput, actor domain.ActorRef) error {
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
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.IsActive != nil {
		set["is_active"] = *input.IsActive
	}
	if input.PermissionIDs != nil {
		set["permissions"] = *input.PermissionIDs
	}

	res, err := r.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": oid}), bson.M{"$set": set})
	if err != nil {
		return storageErr("update role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error {
	return softDeleteByID(ctx, r.coll, id, actor)
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var d roleDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, storageErr("find role", err)
	}
	return d.toDomain(), nil
}

// EnsureIndexes creates the roles indexes; name uniqueness covers only live
// documents.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_deleted": false}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
