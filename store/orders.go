package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-marketplace/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrOrderNotFound is returned when a receipt id is unknown
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository records committed receipts.
type OrderRepository interface {
	Save(ctx context.Context, r models.OrderReceipt) error
	Get(ctx context.Context, id string) (models.OrderReceipt, error)
	// List returns receipts newest first.
	List(ctx context.Context) ([]models.OrderReceipt, error)
}

// MemoryOrderRepository keeps receipts in process memory
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.OrderReceipt
}

// NewMemoryOrderRepository creates an empty repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]models.OrderReceipt)}
}

// Save records a receipt. Order ids are unique.
func (r *MemoryOrderRepository) Save(_ context.Context, receipt models.OrderReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[receipt.OrderID]; ok {
		return fmt.Errorf("order %s already recorded", receipt.OrderID)
	}
	r.orders[receipt.OrderID] = receipt
	return nil
}

// Get returns the receipt or ErrOrderNotFound
func (r *MemoryOrderRepository) Get(_ context.Context, id string) (models.OrderReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	receipt, ok := r.orders[id]
	if !ok {
		return models.OrderReceipt{}, ErrOrderNotFound
	}
	return receipt, nil
}

// List returns receipts newest first
func (r *MemoryOrderRepository) List(_ context.Context) ([]models.OrderReceipt, error) {
	r.mu.RLock()
	out := make([]models.OrderReceipt, 0, len(r.orders))
	for _, receipt := range r.orders {
		out = append(out, receipt)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MongoOrderRepository stores receipts in the "orders" collection
type MongoOrderRepository struct {
	Collection *mongo.Collection
}

// NewMongoOrderRepository stores receipts in the orders collection
func NewMongoOrderRepository(client *mongo.Client, database string) *MongoOrderRepository {
	return &MongoOrderRepository{Collection: client.Database(database).Collection("orders")}
}

// Save inserts the receipt document
func (r *MongoOrderRepository) Save(ctx context.Context, receipt models.OrderReceipt) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := r.Collection.InsertOne(ctx, receipt.ToDocument()); err != nil {
		return fmt.Errorf("insert order %s: %w", receipt.OrderID, err)
	}
	return nil
}

// Get returns the receipt or ErrOrderNotFound
func (r *MongoOrderRepository) Get(ctx context.Context, id string) (models.OrderReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc models.OrderDocument
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.OrderReceipt{}, ErrOrderNotFound
	}
	if err != nil {
		return models.OrderReceipt{}, fmt.Errorf("find order %s: %w", id, err)
	}
	return doc.ToReceipt()
}

// List returns receipts newest first
func (r *MongoOrderRepository) List(ctx context.Context) ([]models.OrderReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.OrderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]models.OrderReceipt, 0, len(docs))
	for _, doc := range docs {
		receipt, err := doc.ToReceipt()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", doc.ID, err)
		}
		orders = append(orders, receipt)
	}
	return orders, nil
}

var (
	_ OrderRepository = (*MemoryOrderRepository)(nil)
	_ OrderRepository = (*MongoOrderRepository)(nil)
)
