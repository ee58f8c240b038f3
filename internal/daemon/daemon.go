// Package daemon wires the whole service together: store, scheduler,
// local notifier, control RPC and the nightly reschedule job.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/config"
	"github.com/stellarlinkco/keepsake/internal/kv"
	"github.com/stellarlinkco/keepsake/internal/lifecycle"
	"github.com/stellarlinkco/keepsake/internal/model"
	"github.com/stellarlinkco/keepsake/internal/notify"
	"github.com/stellarlinkco/keepsake/internal/rpc"
	"github.com/stellarlinkco/keepsake/internal/store"
)

type Daemon struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	store *store.Store
	local *notify.Local
	sched *notify.Scheduler
	coord *lifecycle.Coordinator
	rpc   *rpc.Server
	cron  *cron.Cron

	signalChan chan os.Signal // test seam
}

func New(cfg *config.Config, log *zap.SugaredLogger) (*Daemon, error) {
	kvs, err := kv.OpenDisk(filepath.Join(cfg.Workspace, "store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st := store.New(kvs, log)

	var sender notify.Sender
	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, log)
		if err != nil {
			log.Warnf("[daemon] telegram unavailable, delivering to log: %v", err)
			sender = notify.NewLogSender(log)
		} else {
			sender = tg
		}
	} else {
		sender = notify.NewLogSender(log)
	}

	local := notify.NewLocal(filepath.Join(cfg.Workspace, "notifications.json"), sender, log)
	sched := notify.NewScheduler(local, log, notify.WithHour(cfg.Notify.Hour))
	coord := lifecycle.New(st, sched, log)

	server := rpc.NewServer(log)
	rpc.RegisterEventHandlers(server, coord)
	rpc.RegisterSettingsHandlers(server, st)
	rpc.RegisterNotifyHandlers(server, local)

	return &Daemon{
		cfg:   cfg,
		log:   log,
		store: st,
		local: local,
		sched: sched,
		coord: coord,
		rpc:   server,
	}, nil
}

// Run starts every component and blocks until ctx is done or a
// shutdown signal arrives. On the way out pending changes are flushed.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.local.Start(ctx); err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}
	if err := d.rpc.Start(ctx, d.cfg.RPCAddr()); err != nil {
		return err
	}

	// Occurrences roll over at midnight; recompute and reregister
	// every trigger shortly after.
	d.cron = cron.New()
	if _, err := d.cron.AddFunc("30 0 * * *", d.rescheduleAll); err != nil {
		return fmt.Errorf("register nightly job: %w", err)
	}
	d.cron.Start()

	// Reconcile whatever happened while the daemon was down.
	d.rescheduleAll()

	sig := d.signalChan
	if sig == nil {
		sig = make(chan os.Signal, 1)
	}
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	d.log.Infof("[daemon] running")
	select {
	case <-ctx.Done():
	case s := <-sig:
		d.log.Infof("[daemon] received %s, shutting down", s)
	}

	d.coord.OnSuspend()
	if d.cron != nil {
		d.cron.Stop()
	}
	return nil
}

// rescheduleAll reloads the collection and rebuilds every event's
// notifications from scratch, persisting the fresh identifiers.
func (d *Daemon) rescheduleAll() {
	ctx := context.Background()
	events := d.coord.OnResume()

	for _, ev := range events {
		ids := d.sched.RescheduleEvent(ctx, ev)
		events = d.store.UpdateEventByID(ev.ID, model.Patch{NotificationIDs: &ids}, events)
	}
	d.log.Infof("[daemon] rescheduled notifications for %d events", len(events))
}
