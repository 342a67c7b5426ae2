package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// GetDocument возвращает jsonb-документ коллекции. ok == false, если документа нет.
func (s *Storage) GetDocument(ctx context.Context, collection, id string) ([]byte, bool, error) {
	const op = "storage.GetDocument"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var doc []byte
	err := s.DB.QueryRowContext(ctx, `SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return doc, true, nil
}

// MergeDocument сливает поля doc с существующим документом.
// Поля верхнего уровня, которых нет в doc, сохраняются.
func (s *Storage) MergeDocument(ctx context.Context, collection, id string, doc any) error {
	const op = "storage.MergeDocument"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO documents (collection, id, doc)
			  VALUES ($1, $2, $3::jsonb)
			  ON CONFLICT (collection, id)
			  DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query, collection, id, string(data)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AppendToArray добавляет value в конец массива field документа.
// Документ и массив создаются, если их ещё нет.
func (s *Storage) AppendToArray(ctx context.Context, collection, id, field string, value any) error {
	const op = "storage.AppendToArray"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO documents (collection, id, doc)
			  VALUES ($1, $2, jsonb_build_object($3::text, jsonb_build_array($4::jsonb)))
			  ON CONFLICT (collection, id)
			  DO UPDATE SET doc = jsonb_set(
			          documents.doc,
			          ARRAY[$3::text],
			          COALESCE(documents.doc -> $3::text, '[]'::jsonb) || jsonb_build_array($4::jsonb)),
			      updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query, collection, id, field, string(data)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
