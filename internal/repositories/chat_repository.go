package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"entity-chat-service/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	// ErrVersionConflict means the chat was saved by someone else since it was loaded.
	ErrVersionConflict = errors.New("chat version conflict")
)

// ChatRepository abstracts chat aggregate persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error)
	ListActiveChatsForUser(ctx context.Context, userID string, entityType models.EntityType) ([]models.Chat, error)
	SaveChat(ctx context.Context, chat *models.Chat) error
}

// ChatRepo is a MongoDB implementation of ChatRepository. The whole aggregate is
// one document, so every save is atomic for that chat.
type ChatRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewChatRepo constructs a ChatRepo over the given collection.
func NewChatRepo(coll *mongo.Collection) *ChatRepo {
	return &ChatRepo{coll: coll, timeout: 5 * time.Second}
}

// CreateChat inserts a new chat at version 1.
func (r *ChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.Version = 1
	normalize(chat)

	_, err := r.coll.InsertOne(ctx, chat)
	return err
}

// GetChat loads the full aggregate by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var chat models.Chat
	if err := r.coll.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	normalize(&chat)
	return &chat, nil
}

// ListActiveChatsForUser returns the active chats userID participates in, most
// recently active first. An empty entityType matches every entity.
func (r *ChatRepo) ListActiveChatsForUser(ctx context.Context, userID string, entityType models.EntityType) ([]models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"participants.user": userID, "isActive": true}
	if entityType != "" {
		filter["entityType"] = entityType
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastActivity", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	chats := []models.Chat{}
	for cur.Next(ctx) {
		var chat models.Chat
		if err := cur.Decode(&chat); err != nil {
			return nil, err
		}
		normalize(&chat)
		chats = append(chats, chat)
	}
	return chats, cur.Err()
}

// SaveChat replaces the stored aggregate if it still carries the version chat
// was loaded with, then advances the version.
func (r *ChatRepo) SaveChat(ctx context.Context, chat *models.Chat) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	expected := chat.Version
	next := *chat
	next.Version = expected + 1
	next.UpdatedAt = time.Now().UTC()
	normalize(&next)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": chat.ID, "version": expected}, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	*chat = next
	return nil
}

// normalize keeps arrays as arrays in the stored document.
func normalize(chat *models.Chat) {
	if chat.Participants == nil {
		chat.Participants = []models.Participant{}
	}
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}
	for i := range chat.Messages {
		if chat.Messages[i].IsRead == nil {
			chat.Messages[i].IsRead = []models.ReadReceipt{}
		}
	}
}
