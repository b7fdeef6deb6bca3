package service

import (
	"context"
	"sync"
	"time"

	"taxdesk/internal/logger"
	"taxdesk/internal/port"
)

// NotificationKind selects the email template of a notification.
type NotificationKind int

const (
	NotifyDocumentStatus NotificationKind = iota + 1
	NotifyFilingStatus
)

// Notification is one queued status email.
type Notification struct {
	Kind   NotificationKind
	Notice port.StatusNotice
}

// Notifier accepts status notifications. Delivery is best effort: Notify
// never blocks the caller and never reports a delivery failure.
type Notifier interface {
	Notify(n Notification)
}

// NotificationConfig holds settings for the notification dispatcher.
type NotificationConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// NotificationDispatcher delivers queued notifications on a fixed pool of workers.
type NotificationDispatcher struct {
	sender port.EmailSender
	cfg    NotificationConfig
	log    *logger.Logger
	queue  chan Notification
	wg     sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher. Call Start to begin delivery.
func NewNotificationDispatcher(sender port.EmailSender, cfg NotificationConfig, log *logger.Logger) *NotificationDispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &NotificationDispatcher{
		sender: sender,
		cfg:    cfg,
		log:    log.With("component", "notification_dispatcher"),
		queue:  make(chan Notification, cfg.QueueSize),
	}
}

// Notify enqueues n, dropping it with a warning when the queue is full.
func (d *NotificationDispatcher) Notify(n Notification) {
	if n.Notice.ToEmail == "" {
		return
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping", "subject", n.Notice.Subject, "status", n.Notice.Status)
	}
}

// Start runs the workers until ctx is canceled. Notifications already queued
// at cancellation are still delivered; Start returns once they are.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.log.Info("started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.work(ctx)
		}()
	}

	<-ctx.Done()
	d.log.Info("shutting down, draining queue", "pending", len(d.queue))
	d.wg.Wait()
	d.log.Info("shutdown complete")
}

func (d *NotificationDispatcher) work(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-ctx.Done():
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) deliver(n Notification) {
	// Fresh context so queued mail still goes out during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	var err error
	switch n.Kind {
	case NotifyDocumentStatus:
		err = d.sender.SendDocumentStatusEmail(ctx, n.Notice)
	case NotifyFilingStatus:
		err = d.sender.SendFilingStatusEmail(ctx, n.Notice)
	default:
		d.log.Warn("unknown notification kind", "kind", int(n.Kind))
		return
	}
	if err != nil {
		d.log.Error("notification failed", "subject", n.Notice.Subject, "status", n.Notice.Status, "error", err)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
