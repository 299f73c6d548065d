package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Notify watches the parent directories of paths and signals on the
// returned channel whenever one of the paths is written, created, removed or
// renamed. Signals are coalesced: a pending one is not duplicated. The
// channel is closed once ctx is done.
func Notify(ctx context.Context, paths []string, log logrus.FieldLogger) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		p = filepath.Clean(p)
		tracked[p] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			// a missing dir is skipped, not fatal
			log.WithError(err).WithField("dir", d).Warn("Cannot watch directory")
		}
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if _, ok := tracked[filepath.Clean(ev.Name)]; !ok {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
					!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				log.WithField("path", ev.Name).WithField("op", ev.Op.String()).Debug("Tracked file changed")
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("Watcher error")
			}
		}
	}()
	return out, nil
}
