package usecases

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/ports"
)

// DefaultSettleDelay is how long a dropped file must stay unchanged before
// it is sent.
const DefaultSettleDelay = 500 * time.Millisecond

// DropResult describes what happened to one dropped file.
type DropResult struct {
	Path      string
	User      entities.UiMessage
	Assistant entities.UiMessage
	Err       error
}

// DropFolder sends every document dropped into a directory as its own turn,
// with no typed text. Files are handled one at a time, in the order they
// settle.
type DropFolder struct {
	watcher ports.FileWatcher
	loader  ports.AttachmentLoader
	conv    *Conversation
	settle  time.Duration
	logger  *zap.Logger
}

// NewDropFolder wires a watcher and loader to a conversation.
func NewDropFolder(watcher ports.FileWatcher, loader ports.AttachmentLoader, conv *Conversation, settle time.Duration, logger *zap.Logger) *DropFolder {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DropFolder{
		watcher: watcher,
		loader:  loader,
		conv:    conv,
		settle:  settle,
		logger:  logger,
	}
}

// Run watches dir until ctx is done, calling onResult after each file.
func (d *DropFolder) Run(ctx context.Context, dir string, onResult func(DropResult)) error {
	events, err := d.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	d.logger.Info("watching drop folder", zap.String("dir", dir))

	// path -> time of last create/write
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(d.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Operation {
			case ports.FileCreated, ports.FileModified:
				pending[ev.Path] = time.Now()
			case ports.FileDeleted:
				delete(pending, ev.Path)
			}
		case now := <-ticker.C:
			for _, path := range settled(pending, now, d.settle) {
				delete(pending, path)
				res := d.send(ctx, path)
				if onResult != nil {
					onResult(res)
				}
			}
		}
	}
}

// settled returns the paths quiet for at least delay, oldest first.
func settled(pending map[string]time.Time, now time.Time, delay time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= delay {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return pending[ready[i]].Before(pending[ready[j]])
	})
	return ready
}

func (d *DropFolder) send(ctx context.Context, path string) DropResult {
	res := DropResult{Path: path}

	att, err := d.loader.Load(ctx, path)
	if err != nil {
		d.logger.Warn("skipping dropped file", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}

	if err := d.conv.SetDraft(""); err != nil {
		res.Err = err
		return res
	}
	if err := d.conv.Attach(att); err != nil {
		res.Err = err
		return res
	}

	if err := d.conv.Submit(ctx); err != nil {
		d.logger.Warn("dropped file not sent", zap.String("path", path), zap.Error(err))
		// The next file brings its own attachment.
		_ = d.conv.Detach()
		res.Err = err
		return res
	}

	msgs := d.conv.Snapshot().Messages
	res.User, res.Assistant = msgs[len(msgs)-2], msgs[len(msgs)-1]
	d.logger.Info("dropped file sent", zap.String("path", path), zap.String("intent", res.Assistant.Intent))
	return res
}
