package localdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/ingest"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// ReadingSource watches a local drop directory for CSV files. New files
// are picked up through fsnotify events and queued until the next
// FetchNew call; files already present at startup are queued immediately.
type ReadingSource struct {
	dir string
	log *logger.Logger

	mu        sync.Mutex
	pending   map[string]struct{}
	processed map[string]struct{}
}

func NewReadingSource(dir string, log *logger.Logger) (*ReadingSource, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("drop directory is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat drop directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("drop path is not a directory: %s", dir)
	}

	s := &ReadingSource{
		dir:       dir,
		log:       log,
		pending:   make(map[string]struct{}),
		processed: make(map[string]struct{}),
	}

	if err := s.scanExisting(); err != nil {
		return nil, err
	}

	return s, nil
}

// Name возвращает имя источника для логов и метрик
func (s *ReadingSource) Name() string {
	return "localdir:" + s.dir
}

// Watch запускает fsnotify цикл до отмены контекста. Каждый Write/Create
// события по .csv файлу ставит файл в очередь; разбор происходит в
// FetchNew, чтобы не читать файл посреди записи.
func (s *ReadingSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.log.Info("Watching drop directory", "dir", s.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".csv") {
				continue
			}
			s.enqueue(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("Watcher error", err, "dir", s.dir)
		}
	}
}

// FetchNew разбирает файлы, поставленные в очередь watcher'ом
func (s *ReadingSource) FetchNew(_ context.Context) ([]port.ReadingBatch, error) {
	paths := s.drain()
	if len(paths) == 0 {
		return nil, nil
	}

	batches := make([]port.ReadingBatch, 0, len(paths))
	for _, path := range paths {
		batch, err := s.parseFile(path)
		if err != nil {
			// Битый файл не возвращаем в очередь
			s.log.Error("Failed to process dropped file, skipping", err, "path", path)
			continue
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

// scanExisting ставит в очередь файлы, лежавшие в директории до старта
func (s *ReadingSource) scanExisting() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read drop directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		s.enqueue(filepath.Join(s.dir, entry.Name()))
	}

	return nil
}

// parseFile читает и разбирает один файл
func (s *ReadingSource) parseFile(path string) (port.ReadingBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return port.ReadingBatch{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ingest.ParseReadings(path, f)
}

func (s *ReadingSource) enqueue(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.processed[path]; done {
		return
	}
	s.pending[path] = struct{}{}
}

// drain забирает очередь и помечает файлы обработанными
func (s *ReadingSource) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.pending))
	for path := range s.pending {
		paths = append(paths, path)
		s.processed[path] = struct{}{}
	}
	s.pending = make(map[string]struct{})

	sort.Strings(paths)
	return paths
}
