package template

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadFunc is invoked with a template's name whenever its file is
// created or written under the store's directory.
type ReloadFunc func(name string)

// Watch hot-reloads the store's directory: every create/write event on a
// *.json file (other than one beginning with "_") invokes onReload with
// that template's name, supplementing spec.md §6's static load-once
// templates with the source's mutable template lifecycle (§9.2). Runs
// until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, log zerolog.Logger, onReload ReloadFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name, ok := templateNameFromPath(ev.Name)
			if !ok {
				continue
			}
			log.Info().Str("template", name).Msg("template file changed, reloading")
			onReload(name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("template watcher error")
		}
	}
}

func templateNameFromPath(path string) (string, bool) {
	base := path[strings.LastIndexByte(path, '/')+1:]
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	stem := strings.TrimSuffix(base, ".json")
	if strings.HasPrefix(stem, "_") {
		return "", false
	}
	return stem, true
}
