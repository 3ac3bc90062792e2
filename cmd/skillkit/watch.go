package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/packager"
	"github.com/anyt-io/notebook/pkg/presenter"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	DebounceTime int `mapstructure:"debounce"`
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		DebounceTime: 300,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

func setWatchDefaults() {
	viper.SetDefault("watch.debounce", NewWatchConfig().DebounceTime)
}

var watchCmd = withTracing(&cobra.Command{
	Use:   "watch <skill-dir>",
	Short: "Re-validate a skill whenever its files change",
	Long: `Validate a skill, then keep watching its directory tree and validate it
again after every change. Dependency and cache folders are not watched.
Press Ctrl+C to stop.

Examples:
  skillkit watch skills/pdf-tools --debounce 500`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Watch.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			return errReported
		}

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", args[0])
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			presenter.Error(errors.Errorf("Not a directory: %s", dir), "")
			return errReported
		}

		presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", dir))
		return runWatch(cmd.Context(), dir, &cfg.Watch, presenter.Verdict)
	},
})

func init() {
	watchCmd.Flags().IntP("debounce", "d", NewWatchConfig().DebounceTime, "Debounce time in milliseconds for file change events")
	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
}

// runWatch validates dir once, then again after each burst of filesystem
// changes, until ctx is cancelled
func runWatch(ctx context.Context, dir string, config *WatchConfig, report func(valid bool, message string)) error {
	log := logger.G(ctx).WithField("skill_dir", dir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir, dir); err != nil {
		return errors.Wrap(err, "failed to watch directories")
	}

	report(skills.Validate(ctx, dir))

	delay := time.Duration(config.DebounceTime) * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(dir, event.Name)
			if err != nil || packager.IsExcluded(filepath.ToSlash(rel)) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, dir, event.Name); err != nil {
						log.WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			log.WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("change detected")

			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			report(skills.Validate(ctx, dir))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("error watching files")
			presenter.Warning(fmt.Sprintf("File watcher error: %v", err))
		}
	}
}

// watchTree adds root and every non-excluded directory below it to the watcher
func watchTree(watcher *fsnotify.Watcher, skillDir, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(skillDir, path); err == nil && rel != "." && packager.IsExcluded(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
