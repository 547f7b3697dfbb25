// Package mongo implements vector.VectorStore on MongoDB. Vectors are stored
// as plain documents and similarity is computed client side with a cosine
// scan, which keeps the backend free of any Atlas-only search features.
package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

// Config holds MongoDB store configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns default MongoDB configuration.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "docqa",
		Collection: "chunks",
	}
}

type chunkDoc struct {
	ID        string    `bson:"_id"`
	Text      string    `bson:"text"`
	Source    string    `bson:"source"`
	Page      string    `bson:"page"`
	Vector    []float32 `bson:"vector"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store implements vector.VectorStore using a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to MongoDB and binds the chunk collection.
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}

	return &Store{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}, nil
}

// AddEmbeddings upserts the batch with one ordered bulk write. Upserts are
// keyed by embedding ID, so a retried batch converges instead of duplicating.
func (s *Store) AddEmbeddings(ctx context.Context, embeddings []*vector.Embedding) error {
	for i, emb := range embeddings {
		if emb == nil {
			return fmt.Errorf("embedding %d is nil", i)
		}
		if emb.ID == "" {
			return fmt.Errorf("embedding %d has empty ID", i)
		}
		if len(emb.Vector) == 0 {
			return fmt.Errorf("embedding %q has empty vector", emb.ID)
		}
	}
	if len(embeddings) == 0 {
		return nil
	}

	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(embeddings))
	for _, emb := range embeddings {
		doc := chunkDoc{
			ID:        emb.ID,
			Text:      emb.Text,
			Source:    emb.Source,
			Page:      emb.Page,
			Vector:    emb.Vector,
			CreatedAt: now,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": emb.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk write embeddings: %w", err)
	}
	return nil
}

// Search scans the collection and ranks by cosine similarity, best first.
// Documents with a different vector dimension are skipped.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find embeddings: %w", err)
	}
	defer cursor.Close(ctx)

	type scored struct {
		embedding  *vector.Embedding
		similarity float32
	}
	var results []scored
	for cursor.Next(ctx) {
		var doc chunkDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		if len(doc.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{
			embedding: &vector.Embedding{
				ID:     doc.ID,
				Text:   doc.Text,
				Source: doc.Source,
				Page:   doc.Page,
				Vector: doc.Vector,
			},
			similarity: vector.CosineSimilarity(queryVector, doc.Vector),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}
	out := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].embedding
	}
	return out, nil
}

// DeleteEmbedding removes an embedding by ID.
func (s *Store) DeleteEmbedding(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("embedding %s: %w", id, docqaerrors.ErrNotFound)
	}
	return nil
}

// Clear removes all embeddings.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// Count returns the number of embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return int(count), nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ vector.VectorStore = (*Store)(nil)
