package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoCatalog stores products in a MongoDB collection. Stock adjustments are single-document
// conditional updates, which MongoDB applies atomically.
type MongoCatalog struct {
	Collection *mongo.Collection
}

// NewMongoCatalog creates a catalog on the "products" collection of the given database
func NewMongoCatalog(client *mongo.Client, database string) *MongoCatalog {
	return &MongoCatalog{Collection: client.Database(database).Collection("products")}
}

// Get loads one product document
func (s *MongoCatalog) Get(ctx context.Context, id string) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc models.ProductDocument
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, models.ProductNotFound(id)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("find product %s: %w", id, err)
	}
	return doc.ToProduct()
}

// List loads every product ordered by barcode
func (s *MongoCatalog) List(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	cursor, err := s.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var doc models.ProductDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p, err := doc.ToProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

// Upsert replaces the product document, inserting it when absent
func (s *MongoCatalog) Upsert(ctx context.Context, p models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p.ToDocument(), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// AdjustStock applies delta with a single conditional $inc
func (s *MongoCatalog) AdjustStock(ctx context.Context, id string, delta int64) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := checkDelta(id, 0, delta); err != nil {
		return models.Product{}, err
	}
	filter := bson.M{"_id": id}
	switch {
	case delta < 0:
		filter["stock"] = bson.M{"$gte": -delta}
	case delta > 0:
		filter["stock"] = bson.M{"$lte": math.MaxInt64 - delta}
	}
	var doc models.ProductDocument
	err := s.Collection.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"stock": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// either the product is gone or the guard on stock rejected the update
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return models.Product{}, getErr
		}
		if delta > 0 {
			return models.Product{}, models.InvalidQuantity(id)
		}
		return models.Product{}, models.InsufficientStock(id, current.Stock)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("adjust stock %s: %w", id, err)
	}
	p, err := doc.ToProduct()
	if err != nil {
		// a product whose price cannot be read must not keep the adjustment
		if _, undoErr := s.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock": -delta}}); undoErr != nil {
			return models.Product{}, fmt.Errorf("undo adjust stock %s: %w", id, undoErr)
		}
		return models.Product{}, err
	}
	return p, nil
}

// Price returns the stored price
func (s *MongoCatalog) Price(ctx context.Context, id string) (decimal.Decimal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

// Remove deletes the product document
func (s *MongoCatalog) Remove(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", id, err)
	}
	return result.DeletedCount > 0, nil
}

var _ Catalog = (*MongoCatalog)(nil)
