package content

import (
	"context"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// Store один уровень хранения контента.
// Get возвращает found == false без ошибки, если ключа нет.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) (*models.ContentArtifact, bool, error)
	Set(ctx context.Context, key string, artifact *models.ContentArtifact) error
}

// Invalidator уровень, из которого можно удалить запись.
type Invalidator interface {
	Delete(ctx context.Context, key string) error
}
