// Package mongostore реализует основное документное хранилище на MongoDB.
// Документ коллекции адресуется полем _id, запись сливается через $set.
package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store документное хранилище поверх базы MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB и проверяет соединение.
func New(ctx context.Context, uri, database string) (*Store, error) {
	const op = "mongostore.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close закрывает соединение с MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping проверяет соединение.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// GetDocument возвращает документ в виде JSON без поля _id.
func (s *Store) GetDocument(ctx context.Context, collection, id string) ([]byte, bool, error) {
	const op = "mongostore.GetDocument"

	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	delete(doc, "_id")

	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return data, true, nil
}

// MergeDocument записывает поля doc поверх существующего документа, создавая его при отсутствии.
func (s *Store) MergeDocument(ctx context.Context, collection, id string, doc any) error {
	const op = "mongostore.MergeDocument"

	fields, err := toBSON(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(fields) == 0 {
		return nil
	}

	_, err = s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AppendToArray добавляет value в массив field.
func (s *Store) AppendToArray(ctx context.Context, collection, id, field string, value any) error {
	const op = "mongostore.AppendToArray"

	wrapped, err := toBSON(map[string]any{"v": value})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{field: wrapped["v"]}},
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// toBSON переводит значение в документ через JSON, чтобы соблюсти json-теги моделей.
func toBSON(v any) (bson.M, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(data, false, &m); err != nil {
		return nil, err
	}
	return m, nil
}
