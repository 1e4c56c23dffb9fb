// Package dispatch turns scheduler ticks into greetings and fans them out to
// every subscriber.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"timely-greeter/metrics"
	"timely-greeter/timezone"
)

// Defaults for Config fields left zero.
const (
	DefaultCron        = "* * * * *"
	DefaultSendTimeout = 10 * time.Second
	DefaultQueueSize   = 16
)

// Scheduler reports the zones that became due at now.
type Scheduler interface {
	Tick(now time.Time) []string
}

// Subscribers lists the current recipients.
type Subscribers interface {
	Snapshot() []int64
}

// Sender delivers one message or sticker to one chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendSticker(ctx context.Context, chatID int64, fileID string) error
}

// Greeting is a composed message waiting for delivery.
type Greeting struct {
	At    time.Time
	Text  string
	Zones []string
}

// Config holds the loop's collaborators and settings.
type Config struct {
	Scheduler   Scheduler
	Subscribers Subscribers
	Sender      Sender
	Logger      *slog.Logger
	Now         func() time.Time // Defaults to time.Now
	Cron        string           // Tick cadence; defaults to every minute
	StickerID   string           // Sent before each greeting when set
	SendTimeout time.Duration
	QueueSize   int
}

// Loop ticks the scheduler on a cron cadence and delivers greetings from a
// bounded queue on a separate goroutine, so slow sends never delay a tick.
type Loop struct {
	scheduler   Scheduler
	subscribers Subscribers
	sender      Sender
	logger      *slog.Logger
	now         func() time.Time
	queue       chan Greeting
	cron        string
	stickerID   string
	sendTimeout time.Duration
}

// New validates cfg and creates a loop.
func New(cfg Config) (*Loop, error) {
	if cfg.Scheduler == nil || cfg.Subscribers == nil || cfg.Sender == nil || cfg.Logger == nil {
		return nil, errors.New("scheduler, subscribers, sender and logger are required")
	}
	if cfg.Cron == "" {
		cfg.Cron = DefaultCron
	}
	if !gronx.IsValid(cfg.Cron) {
		return nil, fmt.Errorf("invalid cron expression: %q", cfg.Cron)
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Loop{
		scheduler:   cfg.Scheduler,
		subscribers: cfg.Subscribers,
		sender:      cfg.Sender,
		logger:      cfg.Logger,
		now:         cfg.Now,
		queue:       make(chan Greeting, cfg.QueueSize),
		cron:        cfg.Cron,
		stickerID:   cfg.StickerID,
		sendTimeout: cfg.SendTimeout,
	}, nil
}

// Run ticks once immediately, then on every cron tick, until ctx is cancelled.
// It returns after the delivery goroutine has stopped.
func (l *Loop) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for g := range l.queue {
			l.Deliver(ctx, g)
		}
	}()

	l.logger.Info("Dispatch loop started", "cron", l.cron, "queue_size", cap(l.queue))
	l.Tick(ctx, l.now())

	for ctx.Err() == nil {
		next, err := gronx.NextTickAfter(l.cron, l.now(), false)
		if err != nil {
			l.logger.Error("Failed to compute next tick", "cron", l.cron, "error", err)
			next = l.now().Add(time.Minute)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
			l.Tick(ctx, l.now())
		}
	}

	close(l.queue)
	wg.Wait()
	l.logger.Info("Dispatch loop stopped")
	return nil
}

// Tick asks the scheduler which zones are due and queues the greeting.
// It blocks while the queue is full.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	zones := l.scheduler.Tick(now)
	if len(zones) == 0 {
		return
	}
	metrics.ZonesGreeted.Add(float64(len(zones)))

	text, ok := timezone.Compose(zones)
	if !ok {
		return
	}
	l.logger.Info("Zones due for greeting", "zones", zones, "text", text)

	select {
	case l.queue <- Greeting{At: now, Text: text, Zones: zones}:
	case <-ctx.Done():
		l.logger.Warn("Greeting dropped on shutdown", "text", text)
	}
}

// Deliver sends g to every current subscriber: the sticker first when one is
// configured, then the text. A failed send is logged and the next recipient
// is tried.
func (l *Loop) Deliver(ctx context.Context, g Greeting) {
	recipients := l.subscribers.Snapshot()
	start := time.Now()
	var failed int

	for i, chatID := range recipients {
		if ctx.Err() != nil {
			l.logger.Warn("Delivery interrupted", "text", g.Text, "remaining", len(recipients)-i)
			return
		}
		if l.stickerID != "" {
			if !l.send(ctx, "sticker", chatID, func(ctx context.Context) error {
				return l.sender.SendSticker(ctx, chatID, l.stickerID)
			}) {
				failed++
			}
		}
		if !l.send(ctx, "message", chatID, func(ctx context.Context) error {
			return l.sender.SendMessage(ctx, chatID, g.Text)
		}) {
			failed++
		}
	}

	l.logger.Info("Greeting delivered",
		"text", g.Text,
		"recipients", len(recipients),
		"failed_sends", failed,
		"duration_ms", time.Since(start).Milliseconds())
}

func (l *Loop) send(ctx context.Context, kind string, chatID int64, fn func(context.Context) error) bool {
	sendCtx, cancel := context.WithTimeout(ctx, l.sendTimeout)
	defer cancel()

	if err := fn(sendCtx); err != nil {
		metrics.Sends.WithLabelValues(kind, "error").Inc()
		l.logger.Warn("Failed to send greeting", "kind", kind, "chat_id", chatID, "error", err)
		return false
	}
	metrics.Sends.WithLabelValues(kind, "ok").Inc()
	return true
}
