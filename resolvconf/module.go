package resolvconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/safing/portbase/log"
	"github.com/safing/portbase/modules"

	"github.com/safing/resolvd/netenv"
	"github.com/safing/resolvd/resolver"
)

var (
	module     *modules.Module
	reconciler *Reconciler

	reconcileTrigger = make(chan struct{}, 1)
	rewatchTrigger   = make(chan struct{}, 1)
)

func init() {
	module = modules.Register("resolvconf", prep, start, nil, "resolver", "netenv")
}

func prep() error {
	return prepConfig()
}

func start() error {
	reconciler = NewReconciler(resolver.Servers(), resolver.SearchDomains())

	// republish after network change
	err := module.RegisterEventHook(
		"netenv",
		netenv.NetworkChangedEvent,
		"export resolv.conf",
		func(_ context.Context, _ interface{}) error {
			TriggerReconcile()
			return nil
		},
	)
	if err != nil {
		return err
	}

	// republish after config change, the source path may have moved
	err = module.RegisterEventHook(
		"config",
		"config change",
		"export resolv.conf",
		func(_ context.Context, _ interface{}) error {
			triggerRewatch()
			TriggerReconcile()
			return nil
		},
	)
	if err != nil {
		return err
	}

	module.StartServiceWorker("resolv.conf exporter", 0, exportWorker)
	module.StartServiceWorker("resolv.conf watcher", 10*time.Second, watchSystemConfig)

	// fallback for missed events
	module.NewTask("export resolv.conf", func(_ context.Context, _ *modules.Task) error {
		TriggerReconcile()
		return nil
	}).Repeat(1 * time.Minute)

	// initial export
	TriggerReconcile()

	return nil
}

// TriggerReconcile queues a reconcile and export cycle. All triggers
// funnel into a single worker, so at most one cycle is in flight at any
// time.
func TriggerReconcile() {
	select {
	case reconcileTrigger <- struct{}{}:
	default:
	}
}

func triggerRewatch() {
	select {
	case rewatchTrigger <- struct{}{}:
	default:
	}
}

func exportWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reconcileTrigger:
		}

		reconciler.applyConfig()

		if err := os.MkdirAll(filepath.Dir(exportPath()), 0o755); err != nil {
			log.Warningf("resolvconf: failed to create export directory: %s", err)
			notifyExportFailed(err)
			continue
		}

		if err := reconciler.WriteResolvConf(); err != nil {
			log.Warningf("resolvconf: failed to export resolver configuration: %s", err)
			notifyExportFailed(err)
			continue
		}

		resetExportFailedNotification()
	}
}

// watchSystemConfig triggers reconciliation when the system resolver
// configuration file changes. The parent directory is watched instead of
// the file itself, as network managers usually replace the file instead
// of writing it in place.
func watchSystemConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	sourcePath := filepath.Clean(systemConfigPath())
	if err := watcher.Add(filepath.Dir(sourcePath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(sourcePath), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rewatchTrigger:
			newPath, err := rewatchSource(watcher, sourcePath, filepath.Clean(systemConfigPath()))
			if err != nil {
				log.Warningf("resolvconf: failed to watch new source path: %s", err)
				continue
			}
			if newPath != sourcePath {
				sourcePath = newPath
				TriggerReconcile()
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == sourcePath {
				TriggerReconcile()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warningf("resolvconf: watcher error: %s", err)
		}
	}
}

// rewatchSource moves the watch to the directory of newPath. The old
// directory is only unwatched when the directories actually differ, the
// source file may just have been renamed within it.
func rewatchSource(watcher *fsnotify.Watcher, oldPath, newPath string) (string, error) {
	if newPath == oldPath {
		return oldPath, nil
	}

	oldDir := filepath.Dir(oldPath)
	newDir := filepath.Dir(newPath)
	if newDir != oldDir {
		if err := watcher.Add(newDir); err != nil {
			return oldPath, err
		}
		if err := watcher.Remove(oldDir); err != nil {
			log.Warningf("resolvconf: failed to unwatch %s: %s", oldDir, err)
		}
	}

	return newPath, nil
}
