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

type ChatRepository struct {
	coll *mongo.Collection
}

var _ ports.ChatRepository = (*ChatRepository)(nil)

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{coll: db.Collection(collectionChat)}
}

type mongoChatMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	AdminID       string             `bson:"admin_id,omitempty"`
	Content       string             `bson:"content"`
	AdminResponse *string            `bson:"admin_response"`
	Status        string             `bson:"status"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (mc *mongoChatMessage) toDomain() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:            mc.ID.Hex(),
		UserID:        mc.UserID,
		AdminID:       mc.AdminID,
		Content:       mc.Content,
		AdminResponse: mc.AdminResponse,
		Status:        domain.ChatStatus(mc.Status),
		CreatedAt:     mc.CreatedAt.UTC(),
		UpdatedAt:     mc.UpdatedAt.UTC(),
	}
}

func (r *ChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	doc := mongoChatMessage{
		ID:            primitive.NewObjectID(),
		UserID:        msg.UserID,
		Content:       msg.Content,
		AdminResponse: msg.AdminResponse,
		Status:        string(msg.Status),
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}

func (r *ChatRepository) FindByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	var mc mongoChatMessage
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find chat message: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *ChatRepository) Reply(ctx context.Context, id, adminID, response string, at time.Time) (*domain.ChatMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	filter, update := replyDocs(oid, adminID, response, at)
	msg, err := r.findAndUpdate(ctx, filter, update)
	if !errors.Is(err, domain.ErrMessageNotFound) {
		return msg, err
	}

	// Nothing matched: either the message is gone or it already has a reply.
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrAlreadyReplied
}

// replyDocs builds a filter that only matches unanswered messages, so a
// response is attached at most once.
func replyDocs(oid primitive.ObjectID, adminID, response string, at time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": oid, "status": bson.M{"$ne": string(domain.ChatReplied)}}
	update := bson.M{"$set": bson.M{
		"admin_id":       adminID,
		"admin_response": response,
		"status":         string(domain.ChatReplied),
		"updated_at":     at.UTC(),
	}}
	return filter, update
}

func (r *ChatRepository) MarkRead(ctx context.Context, id string, at time.Time) (*domain.ChatMessage, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	filter := bson.M{"_id": oid, "status": string(domain.ChatUnread)}
	update := bson.M{"$set": bson.M{"status": string(domain.ChatRead), "updated_at": at.UTC()}}
	msg, err := r.findAndUpdate(ctx, filter, update)
	if errors.Is(err, domain.ErrMessageNotFound) {
		// Already read or replied: report the stored state.
		return r.FindByID(ctx, id)
	}
	return msg, err
}

func (r *ChatRepository) List(ctx context.Context, f ports.ChatFilter) ([]*domain.ChatMessage, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	cur, err := r.coll.Find(ctx, filter, findLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoChatMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}

	out := make([]*domain.ChatMessage, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ChatRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*domain.ChatMessage, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mc mongoChatMessage
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("update chat message: %w", err)
	}
	return mc.toDomain(), nil
}
