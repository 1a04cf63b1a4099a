package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/shaiso/testgen/internal/domain"
)

// FileStore сохраняет батчи как JSON файлы <dir>/<batchId>.
type FileStore struct {
	dir string
}

// NewFileStore создаёт хранилище в каталоге dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path возвращает путь артефакта батча.
func (s *FileStore) Path(id domain.BatchID) string {
	return filepath.Join(s.dir, string(id))
}

// Save атомарно записывает батч и возвращает путь артефакта.
// Недостающие каталоги создаются.
func (s *FileStore) Save(ctx context.Context, id domain.BatchID, cases []domain.TestCase) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if cases == nil {
		cases = []domain.TestCase{}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal batch %s: %w", id, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create batch dir: %w", err)
	}

	path := s.Path(id)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write batch %s: %w", id, err)
	}
	return path, nil
}
