package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// WatchMachineThresholds следит за файлом порогов и перечитывает его при
// каждой записи. Если reload не удался (например, битый YAML), ошибка
// логируется и прежние пороги остаются активными.
func WatchMachineThresholds(ctx context.Context, path string, target *MachineThresholds, log *logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log.Info("Watching machine thresholds file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Редакторы часто сохраняют через rename (atomic save),
			// поэтому ловим и Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			reloaded, err := LoadMachineThresholds(path, target.fallback)
			if err != nil {
				log.Error("Thresholds reload failed, keeping previous values", err, "path", path)
				continue
			}

			target.Replace(reloaded)
			log.Info("Machine thresholds reloaded", "path", path)

			// Пере-добавляем файл на случай, если atomic save заменил inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Thresholds watcher error", err)
		}
	}
}
