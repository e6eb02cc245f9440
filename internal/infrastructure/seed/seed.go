// Package seed provisions the initial permission graph, system roles, the
// administrator account and the sample product catalogue on first boot.
// Each collection is only touched when it is empty, so re-running the seeder
// against a populated database is a no-op.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/t2m/license-platform/internal/core/domain"
	"github.com/t2m/license-platform/internal/core/service"
)

type permissionSeed struct {
	Name   string
	Method string
	Path   string
	Module string
}

// initPermissions is the permission graph for the API surface. CTV (the
// collaborator role) receives only the product read permissions.
var initPermissions = []permissionSeed{
	{"Create user", "POST", "/v1/users", "USERS"},
	{"List users", "GET", "/v1/users", "USERS"},
	{"Get user", "GET", "/v1/users/:id", "USERS"},
	{"Update user", "PATCH", "/v1/users/:id", "USERS"},
	{"Delete user", "DELETE", "/v1/users/:id", "USERS"},
	{"Restore user", "POST", "/v1/users/:id/restore", "USERS"},

	{"Create role", "POST", "/v1/roles", "ROLES"},
	{"List roles", "GET", "/v1/roles", "ROLES"},
	{"Get role", "GET", "/v1/roles/:id", "ROLES"},
	{"Update role", "PATCH", "/v1/roles/:id", "ROLES"},
	{"Delete role", "DELETE", "/v1/roles/:id", "ROLES"},

	{"Create permission", "POST", "/v1/permissions", "PERMISSIONS"},
	{"List permissions", "GET", "/v1/permissions", "PERMISSIONS"},
	{"Get permission", "GET", "/v1/permissions/:id", "PERMISSIONS"},
	{"Update permission", "PATCH", "/v1/permissions/:id", "PERMISSIONS"},
	{"Delete permission", "DELETE", "/v1/permissions/:id", "PERMISSIONS"},

	{"Create product", "POST", "/v1/products", "PRODUCTS"},
	{"List products", "GET", "/v1/products", "PRODUCTS"},
	{"Get product", "GET", "/v1/products/:id", "PRODUCTS"},
	{"Update product", "PATCH", "/v1/products/:id", "PRODUCTS"},
	{"Delete product", "DELETE", "/v1/products/:id", "PRODUCTS"},
}

var ctvPermissionPaths = map[string]bool{
	"GET /v1/products":     true,
	"GET /v1/products/:id": true,
}

type productSeed struct {
	Name           string
	Price          float64
	MonthsDuration int
}

var initProducts = []productSeed{
	{"FREE", 0, 999},
	{"BASIC", 990000, 12},
	{"PRO", 1990000, 12},
	{"PREMIUM", 2990000, 12},
}

// Seeder provisions initial documents directly against the database.
type Seeder struct {
	db  *mongo.Database
	log zerolog.Logger
}

func New(db *mongo.Database, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run seeds permissions, roles, the admin user and products, in dependency
// order. adminPassword must be non-empty when the users collection is empty.
func (s *Seeder) Run(ctx context.Context, adminEmail, adminPassword string) error {
	permIDs, ctvIDs, err := s.seedPermissions(ctx)
	if err != nil {
		return err
	}
	roleIDs, err := s.seedRoles(ctx, permIDs, ctvIDs)
	if err != nil {
		return err
	}
	if err := s.seedAdmin(ctx, adminEmail, adminPassword, roleIDs[domain.RoleAdmin]); err != nil {
		return err
	}
	return s.seedProducts(ctx)
}

func (s *Seeder) seedPermissions(ctx context.Context) (all []string, ctv []string, err error) {
	coll := s.db.Collection("permissions")

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, nil, fmt.Errorf("seed permissions: %w", err)
	}
	if n == 0 {
		now := time.Now().UTC()
		docs := make([]interface{}, 0, len(initPermissions))
		for _, p := range initPermissions {
			docs = append(docs, bson.M{
				"name":       p.Name,
				"method":     p.Method,
				"api_path":   p.Path,
				"module":     p.Module,
				"created_at": now,
				"updated_at": now,
				"is_deleted": false,
			})
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return nil, nil, fmt.Errorf("seed permissions: %w", err)
		}
		s.log.Info().Int("count", len(docs)).Msg("seeded permissions")
	}

	cur, err := coll.Find(ctx, bson.M{"is_deleted": false})
	if err != nil {
		return nil, nil, fmt.Errorf("seed permissions: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var d struct {
			ID     primitive.ObjectID `bson:"_id"`
			Method string             `bson:"method"`
			Path   string             `bson:"api_path"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, nil, fmt.Errorf("seed permissions: %w", err)
		}
		all = append(all, d.ID.Hex())
		if ctvPermissionPaths[d.Method+" "+d.Path] {
			ctv = append(ctv, d.ID.Hex())
		}
	}
	return all, ctv, cur.Err()
}

func (s *Seeder) seedRoles(ctx context.Context, allPerms, ctvPerms []string) (map[string]string, error) {
	coll := s.db.Collection("roles")

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	if n == 0 {
		now := time.Now().UTC()
		docs := []interface{}{
			bson.M{
				"name":        domain.RoleAdmin,
				"description": "Full administrative access",
				"is_active":   true,
				"permissions": allPerms,
				"created_at":  now, "updated_at": now, "is_deleted": false,
			},
			bson.M{
				"name":        domain.RoleUser,
				"description": "Authenticated end user, no administrative permissions",
				"is_active":   true,
				"permissions": []string{},
				"created_at":  now, "updated_at": now, "is_deleted": false,
			},
			bson.M{
				"name":        domain.RoleCollaborator,
				"description": "Collaborator with product catalogue access",
				"is_active":   true,
				"permissions": ctvPerms,
				"created_at":  now, "updated_at": now, "is_deleted": false,
			},
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return nil, fmt.Errorf("seed roles: %w", err)
		}
		s.log.Info().Msg("seeded system roles")
	}

	ids := make(map[string]string, 3)
	for _, name := range []string{domain.RoleAdmin, domain.RoleUser, domain.RoleCollaborator} {
		var d struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := coll.FindOne(ctx, bson.M{"name": name, "is_deleted": false}).Decode(&d); err != nil {
			return nil, fmt.Errorf("seed roles: find %s: %w", name, err)
		}
		ids[name] = d.ID.Hex()
	}
	return ids, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, email, password, adminRoleID string) error {
	coll := s.db.Collection("users")

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		return fmt.Errorf("seed admin: INIT_PASSWORD is required on first boot")
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	now := time.Now().UTC()
	if _, err := coll.InsertOne(ctx, bson.M{
		"email":      email,
		"name":       "Administrator",
		"password":   hash,
		"role_id":    adminRoleID,
		"tokens":     []string{},
		"created_at": now,
		"updated_at": now,
		"is_deleted": false,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("seeded administrator account")
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context) error {
	coll := s.db.Collection("products")

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(initProducts))
	for _, p := range initProducts {
		docs = append(docs, bson.M{
			"name":            p.Name,
			"price":           p.Price,
			"months_duration": p.MonthsDuration,
			"is_active":       true,
			"created_at":      now,
			"updated_at":      now,
			"is_deleted":      false,
		})
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	s.log.Info().Int("count", len(docs)).Msg("seeded product catalogue")
	return nil
}
