package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkeye/Office/internal/domain"
)

const (
	decorationsColl = "decorations"
	chatColl        = "chat_history"

	connectTimeout = 5 * time.Second
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo dials MongoDB and verifies the connection with a ping. Callers
// fall back to Disabled when this fails.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("db", dbName).Msg("connected")
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

func (m *Mongo) LoadDecorations(ctx context.Context, room domain.RoomName) (*domain.Decoration, error) {
	coll := m.db.Collection(decorationsColl)

	// First read for this room creates the default document. $setOnInsert
	// with an upsert keeps the document unique per room even when two first
	// reads race; a plain find-then-insert would leave two copies.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var dec domain.Decoration
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"room": room},
		bson.M{"$setOnInsert": domain.EmptyDecoration(room)},
		opts,
	).Decode(&dec)
	if err != nil {
		return nil, fmt.Errorf("load decorations: %w", err)
	}
	return &dec, nil
}

func (m *Mongo) SaveDecorations(ctx context.Context, dec *domain.Decoration) (*domain.Decoration, error) {
	coll := m.db.Collection(decorationsColl)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved domain.Decoration
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"room": dec.Room},
		bson.M{"$set": dec},
		opts,
	).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("save decorations: %w", err)
	}
	return &saved, nil
}

func (m *Mongo) AppendChat(ctx context.Context, msg domain.ChatMessage) error {
	if _, err := m.db.Collection(chatColl).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("append chat: %w", err)
	}
	return nil
}

func (m *Mongo) ChatHistory(ctx context.Context, room domain.RoomName, limit int64) ([]domain.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := m.db.Collection(chatColl).Find(ctx, bson.M{"room": room}, opts)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.ChatMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("chat history decode: %w", err)
	}
	return out, nil
}

func (m *Mongo) UpdateTranslation(ctx context.Context, messageID, translation string, fresh bool) (bool, error) {
	res, err := m.db.Collection(chatColl).UpdateOne(ctx,
		bson.M{"messageId": messageID},
		bson.M{"$set": bson.M{
			"translation":      translation,
			"isNewTranslation": fresh,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("update translation: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
