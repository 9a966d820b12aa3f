package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

// TransactionRepository implements ports.TransactionRepository using MongoDB.
type TransactionRepository struct {
	coll *mongo.Collection
}

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{coll: db.Collection(collectionTransactions)}
}

type mongoTransaction struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	UserID        string               `bson:"user_id"`
	Type          string               `bson:"type"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Currency      string               `bson:"currency,omitempty"`
	WalletAddress string               `bson:"wallet_address,omitempty"`
	Reason        string               `bson:"reason,omitempty"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (mt *mongoTransaction) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:            mt.ID.Hex(),
		UserID:        mt.UserID,
		Type:          domain.TransactionType(mt.Type),
		Amount:        fromDecimal128(mt.Amount),
		Currency:      mt.Currency,
		WalletAddress: mt.WalletAddress,
		Reason:        mt.Reason,
		Status:        domain.TransactionStatus(mt.Status),
		CreatedAt:     mt.CreatedAt.UTC(),
		UpdatedAt:     mt.UpdatedAt.UTC(),
	}
}

// Create inserts the transaction and writes the generated id back onto tx.
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return err
	}

	doc := mongoTransaction{
		ID:            primitive.NewObjectID(),
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        amount,
		Currency:      tx.Currency,
		WalletAddress: tx.WalletAddress,
		Reason:        tx.Reason,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	tx.ID = doc.ID.Hex()
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}

	var mt mongoTransaction
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return mt.toDomain(), nil
}

// TransitionStatus atomically sets the new status only while the stored
// status still equals from; a second caller matches nothing.
func (r *TransactionRepository) TransitionStatus(
	ctx context.Context,
	id string,
	from, to domain.TransactionStatus,
	at time.Time,
) (*domain.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}

	filter, update := transitionDocs(oid, from, to, at)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mt mongoTransaction
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mt)
	if err == nil {
		return mt.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("transition transaction: %w", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w (expected %s)", domain.ErrInvalidTransition, from)
}

func transitionDocs(oid primitive.ObjectID, from, to domain.TransactionStatus, at time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(to), "updated_at": at.UTC()}}
	return filter, update
}

func (r *TransactionRepository) List(ctx context.Context, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	cur, err := r.coll.Find(ctx, filter, findLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoTransaction
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]*domain.Transaction, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
