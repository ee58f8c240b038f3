package notify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Local is an in-process Notifier: registered one-shot triggers are
// persisted to a JSON file under the workspace and a tick loop fires
// the due ones through a Sender. This is the daemon's stand-in for an
// OS notification center.
type Local struct {
	storePath string
	sender    Sender
	log       *zap.SugaredLogger

	mu      sync.Mutex
	pending []Pending
	granted bool
}

func NewLocal(storePath string, sender Sender, log *zap.SugaredLogger) *Local {
	return &Local{storePath: storePath, sender: sender, log: log}
}

// Start loads the persisted pending list and runs the fire loop until
// ctx is done.
func (l *Local) Start(ctx context.Context) error {
	if err := l.load(); err != nil {
		l.log.Warnf("[local] failed to load pending notifications: %v", err)
	}
	l.mu.Lock()
	n := len(l.pending)
	l.mu.Unlock()
	l.log.Infof("[local] started with %d pending notifications", n)

	go l.tickLoop(ctx)
	return nil
}

func (l *Local) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.fireDue(ctx, time.Now())
		case <-ctx.Done():
			l.log.Infof("[local] stopped")
			return
		}
	}
}

// fireDue delivers every pending notification whose fire time has
// arrived. Fired entries are removed whether delivery succeeded or
// not: triggers are one-shot.
func (l *Local) fireDue(ctx context.Context, now time.Time) {
	l.mu.Lock()
	var due []Pending
	remaining := l.pending[:0]
	for _, p := range l.pending {
		if !p.FireAt.After(now) {
			due = append(due, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	l.pending = remaining
	if len(due) > 0 {
		l.saveLocked()
	}
	l.mu.Unlock()

	for _, p := range due {
		if err := l.sender.Send(ctx, p.Content); err != nil {
			l.log.Errorf("[local] deliver %s (%s): %v", p.ID, p.Content.Title, err)
			continue
		}
		l.log.Infof("[local] fired %s: %s", p.ID, p.Content.Title)
	}
}

func (l *Local) RequestPermission(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.granted = true
	return true, nil
}

func (l *Local) Schedule(ctx context.Context, content Content, fireAt time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := Pending{ID: uuid.NewString(), Content: content, FireAt: fireAt}
	l.pending = append(l.pending, p)
	l.saveLocked()
	return p.ID, nil
}

func (l *Local) Cancel(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, p := range l.pending {
		if p.ID == id {
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			l.saveLocked()
			return nil
		}
	}
	// Already fired or never existed; cancelling is a no-op.
	return nil
}

func (l *Local) CancelAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	l.saveLocked()
	return nil
}

func (l *Local) Scheduled(ctx context.Context) ([]Pending, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Pending, len(l.pending))
	copy(out, l.pending)
	return out, nil
}

func (l *Local) load() error {
	data, err := os.ReadFile(l.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return json.Unmarshal(data, &l.pending)
}

func (l *Local) saveLocked() {
	if err := os.MkdirAll(filepath.Dir(l.storePath), 0o755); err != nil {
		l.log.Errorf("[local] ensure dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(l.pending, "", "  ")
	if err != nil {
		l.log.Errorf("[local] marshal pending: %v", err)
		return
	}
	if err := os.WriteFile(l.storePath, data, 0o644); err != nil {
		l.log.Errorf("[local] persist pending: %v", err)
	}
}
