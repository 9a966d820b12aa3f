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

type PlanRepository struct {
	coll *mongo.Collection
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

func NewPlanRepository(db *mongo.Database) *PlanRepository {
	return &PlanRepository{coll: db.Collection(collectionPlans)}
}

type mongoPlan struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	MinAmount    primitive.Decimal128 `bson:"min_amount"`
	MaxAmount    primitive.Decimal128 `bson:"max_amount"`
	DailyProfit  primitive.Decimal128 `bson:"daily_profit"`
	DurationDays int                  `bson:"duration_days"`
	Status       string               `bson:"status"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func (mp *mongoPlan) toDomain() *domain.Plan {
	return &domain.Plan{
		ID:           mp.ID.Hex(),
		Name:         mp.Name,
		MinAmount:    fromDecimal128(mp.MinAmount),
		MaxAmount:    fromDecimal128(mp.MaxAmount),
		DailyProfit:  fromDecimal128(mp.DailyProfit),
		DurationDays: mp.DurationDays,
		Status:       domain.PlanStatus(mp.Status),
		CreatedAt:    mp.CreatedAt.UTC(),
	}
}

func (r *PlanRepository) Create(ctx context.Context, p *domain.Plan) error {
	minAmount, err := toDecimal128(p.MinAmount)
	if err != nil {
		return err
	}
	maxAmount, err := toDecimal128(p.MaxAmount)
	if err != nil {
		return err
	}
	// Daily profit is a rate and keeps its own precision.
	daily, err := primitive.ParseDecimal128(p.DailyProfit.String())
	if err != nil {
		return fmt.Errorf("encode daily profit: %w", err)
	}

	doc := mongoPlan{
		ID:           primitive.NewObjectID(),
		Name:         p.Name,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		DailyProfit:  daily,
		DurationDays: p.DurationDays,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*domain.Plan, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPlanNotFound
	}

	var mp mongoPlan
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "min_amount", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"status": string(domain.PlanActive)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPlan
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}

	out := make([]*domain.Plan, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

type InvestmentRepository struct {
	coll *mongo.Collection
}

var _ ports.InvestmentRepository = (*InvestmentRepository)(nil)

func NewInvestmentRepository(db *mongo.Database) *InvestmentRepository {
	return &InvestmentRepository{coll: db.Collection(collectionInvestments)}
}

type mongoInvestment struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    string               `bson:"user_id"`
	PlanID    string               `bson:"plan_id"`
	Amount    primitive.Decimal128 `bson:"amount"`
	StartDate time.Time            `bson:"start_date"`
	IsActive  bool                 `bson:"is_active"`
	CreatedAt time.Time            `bson:"created_at"`
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	amount, err := toDecimal128(inv.Amount)
	if err != nil {
		return err
	}

	doc := mongoInvestment{
		ID:        primitive.NewObjectID(),
		UserID:    inv.UserID,
		PlanID:    inv.PlanID,
		Amount:    amount,
		StartDate: inv.StartDate,
		IsActive:  inv.IsActive,
		CreatedAt: inv.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	inv.ID = doc.ID.Hex()
	return nil
}

func (r *InvestmentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Investment, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, findLimit(0))
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoInvestment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode investments: %w", err)
	}

	out := make([]*domain.Investment, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Investment{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			PlanID:    d.PlanID,
			Amount:    fromDecimal128(d.Amount),
			StartDate: d.StartDate.UTC(),
			IsActive:  d.IsActive,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}
