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

const productsCollection = "products"

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

type productDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Price          float64            `bson:"price"`
	MonthsDuration int                `bson:"months_duration"`
	IsActive       bool               `bson:"is_active"`
	CreatedAt      time.Time          `bson:"created_at"`
	CreatedBy      actorDoc           `bson:"created_by,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at"`
	UpdatedBy      actorDoc           `bson:"updated_by,omitempty"`
	IsDeleted      bool               `bson:"is_deleted"`
	DeletedAt      *time.Time         `bson:"deleted_at,omitempty"`
	DeletedBy      *actorDoc          `bson:"deleted_by,omitempty"`
}

func (d productDoc) toDomain() *domain.Product {
	p := &domain.Product{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Price:          d.Price,
		MonthsDuration: d.MonthsDuration,
		IsActive:       d.IsActive,
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

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	doc := productDoc{
		Name:           p.Name,
		Price:          p.Price,
		MonthsDuration: p.MonthsDuration,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      toActorDoc(p.CreatedBy),
		UpdatedAt:      p.UpdatedAt,
		IsDeleted:      false,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, storageErr("insert product", err)
	}

	created := *p
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var d productDoc
	if err := r.coll.FindOne(ctx, notDeleted(bson.M{"_id": oid})).Decode(&d); err != nil {
		return nil, storageErr("find product", err)
	}
	return d.toDomain(), nil
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, int64, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	query = scoped(query, filter.IncludeDeleted)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storageErr("count products", err)
	}

	opts := options.Find().
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit)).
		SetSort(bson.D{{Key: "price", Value: 1}})

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, storageErr("list products", err)
	}
	defer cur.Close(ctx)

	var products []*domain.Product
	for cur.Next(ctx) {
		var d productDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, storageErr("decode product", err)
		}
		products = append(products, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, storageErr("list products", err)
	}
	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, id string, input ports.UpdateProductInput, actor domain.ActorRef) error {
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
	if input.Price != nil {
		set["price"] = *input.Price
	}
	if input.MonthsDuration != nil {
		set["months_duration"] = *input.MonthsDuration
	}
	if input.IsActive != nil {
		set["is_active"] = *input.IsActive
	}

	res, err := r.coll.UpdateOne(ctx, notDeleted(bson.M{"_id": oid}), bson.M{"$set": set})
	if err != nil {
		return storageErr("update product", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id string, actor domain.ActorRef) error {
	return softDeleteByID(ctx, r.coll, id, actor)
}
