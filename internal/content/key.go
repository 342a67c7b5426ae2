package content

import (
	"strings"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

const keyPrefix = "content"

var sanitizer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
)

// Key строит составной ключ артефакта:
// content_{board}_{classLevel}[-{stream}]_{subject}_{chapterId}_{contentType}.
// Сегмент потока есть у 11 и 12 классов всегда, запросы без потока
// для них отклоняются до построения ключа.
func Key(req models.ContentRequest) string {
	class := req.ClassLevel
	if req.IsSenior() {
		class += "-" + req.Stream
	}
	return strings.Join([]string{
		keyPrefix,
		req.Board,
		class,
		req.Subject,
		req.ChapterID,
		string(req.Type),
	}, "_")
}

// Sanitize заменяет символы, запрещённые в ключах удалённых хранилищ.
func Sanitize(key string) string {
	return sanitizer.Replace(key)
}
