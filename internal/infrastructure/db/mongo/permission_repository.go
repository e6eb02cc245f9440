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

const permissionsCollection = "permissions"

type PermissionRepository struct {
	coll *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{coll: db.Collection(permissionsCollection)}
}

type permissionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Method    string             `bson:"method"`
	Path      string             `bson:"api_path"`
	Module    string             `bson:"module,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	CreatedBy actorDoc           `bson:"created_by,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at"`
	UpdatedBy actorDoc           `bson:"updated_by,omitempty"`
	IsDeleted bool               `bson:"is_deleted"`
	DeletedAt *time.Time         `bson:"deleted_at,omitempty"`
	DeletedBy *actorDoc          `bson:"deleted_by,omitempty"`
}

func (d permissionDoc) toDomain() domain.Permission {
	p := domain.Permission{
		ID:     d.ID.Hex(),
		Name:   d.Name,
		Method: d.Method,
		Path:   d.Path,
		Module: d.Module,
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
		p.DeletedBy = &ref
	}
	return p
}

func (r *PermissionRepository) Create(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	doc := permissionDoc{
		Name:      p.Name,
		Method:    p.Method,
		Path:      p.Path,
		Module:    p.Module,
		CreatedAt: p.CreatedAt,
		CreatedBy: toActorDoc(p.CreatedBy),
		UpdatedAt: p.UpdatedAt,
		IsDeleted: false,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicatePermission
		}
		return nil, storageErr("insert permission", err)
	}

	created := *p
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var d permissionDoc
	if err := r.coll.FindOne(ctx, notDeleted(bson.M{"_id": oid})).Decode(&d); err != nil {
		return nil, storageErr("find permission", err)
	}
	p := d.toDomain()
	return &p, nil
}

// FindByIDs returns the live permissions among ids. Unknown and soft-deleted
// references are dropped silently: a role pointing at a deleted permission
// simply grants less, it does not break resolution.
func (r *PermissionRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Permission, error) {
	oids := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Permission{}, nil
	}

	cur, err := r.coll.Find(ctx, notDeleted(bson.M{"_id": bson.M{"$in": oids}}))
	if err != nil {
		return nil, storageErr("find permissions", err)
	}
	defer cur.Close(ctx)

	perms := []domain.Permission{}
	for cur.Next(ctx) {
		var d permissionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, storageErr("decode permission", err)
		}
		perms = append(perms, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr("find permissions", err)
	}
	return perms, nil
}

func (r *PermissionRepository) FindByMethodAndPath(ctx context.Context, method, path string) (*domain.Permission, error) {
	var d permissionDoc
	if err := r.coll.FindOne(ctx, notDeleted(bson.M{"method": method, "api_path": path})).Decode(&d); err != nil {
		return nil, storageErr("find permission", err)
	}
	p := d.toDomain()
	return &p, nil
}

func (r *PermissionRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Permission, int64, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"api_path": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}
	query = scoped(query, filter.IncludeDeleted)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storageErr("count permissions", err)
	}

	opts := options.Find().
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit)).
		SetSort(bson.D{{Key: "module", Value: 1}, {Key: "api_path", Value: 1}})

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, storageErr("list permissions", err)
	}
	defer cur.Close(ctx)

	var perms []*domain.Permission
	for cur.Next(ctx) {
		var d permissionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, storageErr("decode permission", err)
		}
		p := d.toDomain()
		perms = append(perms, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, storageErr("list permissions", err)
	}
	return perms, total, nil
}

func (r *PermissionRepository) Update(ctx context.Context, id string, input ports.UpdatePermissionInput, actor domain.ActorRef) error {
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
	if input.Method != nil {
		set["method"] = *input.Method
	}
	if input.Path != nil {
		set["api_path"] = *input.Path
	}
	if input.Module != nil {
		set["module"] = *input.Module
	}

	res, err := r.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": oid}), bson.M{"$set": set})
	if err != nil {
		return storageErr("update permission", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PermissionRepository) SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error {
	return softDeleteByID(ctx, r.coll, id, actor)
}

// EnsureIndexes creates the permissions indexes; the method+path pair is
// unique among live documents.
func (r *PermissionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "method", Value: 1}, {Key: "api_path", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_deleted": false}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
