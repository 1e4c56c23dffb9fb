// Package poll long-polls the messaging API for inbound messages and turns
// them into subscribe and unsubscribe operations.
package poll

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"timely-greeter/metrics"
	"timely-greeter/pkg/greeter"
)

// Replies sent to users.
const (
	ReplySubscribed   = "I'll greet you when it's morning. :)"
	ReplyAlready      = "You are already being greeted! Chill. :P"
	ReplyUnsubscribed = "OK, I won't greet you anymore. :'("
)

// Defaults for the long-poll loop.
const (
	DefaultTimeout = 20 * time.Second
	DefaultBackoff = 500 * time.Millisecond
)

// Source fetches inbound updates with id >= offset.
type Source interface {
	Updates(ctx context.Context, offset int64, timeout time.Duration) ([]greeter.Update, error)
}

// Registry is the subscriber set the poller mutates.
type Registry interface {
	Add(ctx context.Context, id int64) bool
	Remove(ctx context.Context, id int64) bool
}

// Replier answers the sender of a message.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// WatermarkStore persists the last processed update id.
type WatermarkStore interface {
	LoadWatermark(ctx context.Context) (int64, error)
	SaveWatermark(ctx context.Context, id int64) error
}

// Option configures a Poller.
type Option func(*Poller)

// WithTimeout sets how long each long-poll request may wait on the server.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithBackoff sets the pause after a failed request.
func WithBackoff(d time.Duration) Option {
	return func(p *Poller) { p.backoff = d }
}

// Poller consumes updates in id order and keeps the watermark.
type Poller struct {
	source    Source
	registry  Registry
	replier   Replier
	store     WatermarkStore
	logger    *slog.Logger
	watermark atomic.Int64
	timeout   time.Duration
	backoff   time.Duration
}

// New creates a poller.
func New(source Source, registry Registry, replier Replier, store WatermarkStore, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		registry: registry,
		replier:  replier,
		store:    store,
		logger:   logger,
		timeout:  DefaultTimeout,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watermark returns the highest update id processed so far.
func (p *Poller) Watermark() int64 {
	return p.watermark.Load()
}

// Run loads the stored watermark and polls until ctx is cancelled.
// Failed requests are retried after a fixed backoff; they never end the loop.
func (p *Poller) Run(ctx context.Context) error {
	wm, err := p.store.LoadWatermark(ctx)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	p.watermark.Store(wm)
	metrics.Watermark.Set(float64(wm))
	p.logger.Info("Update poller started", "watermark", wm, "timeout", p.timeout.String())

	for ctx.Err() == nil {
		batch, err := p.source.Updates(ctx, p.Watermark()+1, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			metrics.PollErrors.Inc()
			p.logger.Warn("Failed to fetch updates, backing off",
				"offset", p.Watermark()+1,
				"backoff", p.backoff.String(),
				"error", err)
			select {
			case <-ctx.Done():
			case <-time.After(p.backoff):
			}
			continue
		}
		p.Process(ctx, batch)
	}

	p.logger.Info("Update poller stopped", "watermark", p.Watermark())
	return nil
}

// Process handles one batch in ascending id order and persists the watermark
// if it advanced.
func (p *Poller) Process(ctx context.Context, batch []greeter.Update) {
	if len(batch) == 0 {
		return
	}

	sorted := slices.SortedFunc(slices.Values(batch), func(a, b greeter.Update) int {
		return cmp.Compare(a.ID, b.ID)
	})

	start := p.Watermark()
	for _, u := range sorted {
		if u.ID > p.Watermark() {
			p.watermark.Store(u.ID)
		}
		if u.Message == nil {
			metrics.UpdatesProcessed.WithLabelValues("ignored").Inc()
			p.logger.Debug("Update without message skipped", "update_id", u.ID)
			continue
		}
		p.route(ctx, u.Message)
	}

	wm := p.Watermark()
	if wm <= start {
		return
	}
	metrics.Watermark.Set(float64(wm))
	if err := p.store.SaveWatermark(ctx, wm); err != nil {
		p.logger.Error("Failed to save update watermark", "update_id", wm, "error", err)
	}
}

func (p *Poller) route(ctx context.Context, msg *greeter.Message) {
	p.logger.Info("Message received",
		"chat_id", msg.ChatID,
		"username", msg.Username,
		"text", msg.Text())

	if text, ok := msg.Payload.(greeter.Text); ok && string(text) == greeter.StopCommand {
		if !p.registry.Remove(ctx, msg.ChatID) {
			metrics.UpdatesProcessed.WithLabelValues("noop").Inc()
			return
		}
		metrics.UpdatesProcessed.WithLabelValues("unsubscribed").Inc()
		p.reply(ctx, msg.ChatID, ReplyUnsubscribed)
		return
	}

	// Any other message, text or not, is a subscribe request.
	if p.registry.Add(ctx, msg.ChatID) {
		metrics.UpdatesProcessed.WithLabelValues("subscribed").Inc()
		p.reply(ctx, msg.ChatID, ReplySubscribed)
		return
	}
	metrics.UpdatesProcessed.WithLabelValues("already").Inc()
	p.reply(ctx, msg.ChatID, ReplyAlready)
}

func (p *Poller) reply(ctx context.Context, chatID int64, text string) {
	if err := p.replier.SendMessage(ctx, chatID, text); err != nil {
		p.logger.Warn("Failed to send reply", "chat_id", chatID, "error", err)
	}
}
