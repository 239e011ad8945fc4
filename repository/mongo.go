package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/samandartukhtayev/graphql-user-service/models"
)

// CollectionProvider hands out collection handles, connecting on first use
type CollectionProvider interface {
	Collection(ctx context.Context, name string) (*mongo.Collection, error)
}

// userDocument is the stored shape of a user
type userDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name *string            `bson:"name,omitempty"`
	Age  *int32             `bson:"age,omitempty"`
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:   d.ID.Hex(),
		Name: d.Name,
		Age:  d.Age,
	}
}

// MongoUserRepository stores users as documents in a MongoDB collection
type MongoUserRepository struct {
	provider   CollectionProvider
	collection string
}

// NewMongoUserRepository creates a repository over the named collection
func NewMongoUserRepository(provider CollectionProvider, collection string) *MongoUserRepository {
	return &MongoUserRepository{
		provider:   provider,
		collection: collection,
	}
}

func (r *MongoUserRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	return r.provider.Collection(ctx, r.collection)
}

// List returns every user in the collection
func (r *MongoUserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.find(ctx, bson.D{})
}

// SearchByName returns users whose name contains name, ignoring case
func (r *MongoUserRepository) SearchByName(ctx context.Context, name string) ([]*models.User, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	return r.find(ctx, filter)
}

func (r *MongoUserRepository) find(ctx context.Context, filter any) ([]*models.User, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

// GetByID finds a user by its ObjectID hex string
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

// Create inserts a new user and returns it with the generated id
func (r *MongoUserRepository) Create(ctx context.Context, name string, age int32) (*models.User, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	result, err := coll.InsertOne(ctx, userDocument{Name: &name, Age: &age})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}

	return &models.User{ID: oid.Hex(), Name: &name, Age: &age}, nil
}

// Update sets the supplied fields and returns the updated user
func (r *MongoUserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toModel(), nil
}

// Delete removes a user, reporting whether exactly one document was deleted
func (r *MongoUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidID
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return result.DeletedCount == 1, nil
}

// Ping checks that the collection can be queried
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	err = coll.FindOne(ctx, bson.D{}).Err()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return nil
}
