package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

const (
	// Collection коллекция основного хранилища с артефактами.
	Collection = "content"
	// RealtimeNamespace префикс пути артефактов во вторичном хранилище.
	RealtimeNamespace = "nst_content"
)

// Documents основное документное хранилище с merge-семантикой записи.
type Documents interface {
	GetDocument(ctx context.Context, collection, id string) ([]byte, bool, error)
	MergeDocument(ctx context.Context, collection, id string, doc any) error
}

// Realtime вторичное хранилище значений по путям.
type Realtime interface {
	Get(ctx context.Context, path string) ([]byte, bool, error)
	Set(ctx context.Context, path string, value any) error
}

// DocumentStore уровень основного хранилища. Ключи санитизируются,
// запись сливается с существующим документом и получает метку updatedAt.
type DocumentStore struct {
	docs Documents
	now  func() time.Time
}

// NewDocumentStore создаёт DocumentStore поверх docs.
func NewDocumentStore(docs Documents) *DocumentStore {
	return &DocumentStore{docs: docs, now: time.Now}
}

func (s *DocumentStore) Name() string { return "primary" }

func (s *DocumentStore) Get(ctx context.Context, key string) (*models.ContentArtifact, bool, error) {
	const op = "content.DocumentStore.Get"

	raw, found, err := s.docs.GetDocument(ctx, Collection, Sanitize(key))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}
	var a models.ContentArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &a, true, nil
}

func (s *DocumentStore) Set(ctx context.Context, key string, artifact *models.ContentArtifact) error {
	const op = "content.DocumentStore.Set"

	fields, err := toFields(artifact)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fields["updatedAt"] = s.now().UTC().Format(time.RFC3339)

	if err := s.docs.MergeDocument(ctx, Collection, Sanitize(key), fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RealtimeStore уровень вторичного хранилища под путём nst_content/<ключ>.
type RealtimeStore struct {
	rt Realtime
}

// NewRealtimeStore создаёт RealtimeStore поверх rt.
func NewRealtimeStore(rt Realtime) *RealtimeStore {
	return &RealtimeStore{rt: rt}
}

func (s *RealtimeStore) Name() string { return "secondary" }

// Path путь артефакта во вторичном хранилище.
func Path(key string) string {
	return RealtimeNamespace + "/" + Sanitize(key)
}

func (s *RealtimeStore) Get(ctx context.Context, key string) (*models.ContentArtifact, bool, error) {
	const op = "content.RealtimeStore.Get"

	raw, found, err := s.rt.Get(ctx, Path(key))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, false, nil
	}
	var a models.ContentArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &a, true, nil
}

// Set сливает артефакт с сохранённым значением, незаданные поля не затираются.
func (s *RealtimeStore) Set(ctx context.Context, key string, artifact *models.ContentArtifact) error {
	const op = "content.RealtimeStore.Set"

	if artifact == nil {
		return fmt.Errorf("%s: nil artifact", op)
	}
	existing, found, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	merged := *artifact
	if found {
		merged = existing.Merge(*artifact)
	}
	if err := s.rt.Set(ctx, Path(key), &merged); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// toFields раскладывает артефакт в набор верхнеуровневых полей документа.
// Пустые поля отбрасываются тегами omitempty и не затирают сохранённые значения.
func toFields(artifact *models.ContentArtifact) (map[string]any, error) {
	if artifact == nil {
		return nil, errors.New("nil artifact")
	}
	raw, err := json.Marshal(artifact)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
