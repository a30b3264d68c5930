// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/core/effects"
	"github.com/example/logitrack/internal/metrics"
	"github.com/example/logitrack/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place notification I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with fire-and-forget fan-out.
// Every publish and page runs on its own goroutine, detached from the caller's
// cancellation and bounded by timeout. Failures are logged and counted, never returned.
type DefaultEffectExecutor struct {
	publishers []secondary.EventPublisher
	pagers     map[string]secondary.Pager
	logger     *zap.Logger
	timeout    time.Duration
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(logger *zap.Logger, timeout time.Duration, publishers []secondary.EventPublisher, pagers []secondary.Pager) *DefaultEffectExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	byType := make(map[string]secondary.Pager, len(pagers))
	for _, p := range pagers {
		byType[p.ContactType()] = p
	}
	return &DefaultEffectExecutor{
		publishers: publishers,
		pagers:     byType,
		logger:     logger.Named("notify"),
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Execute dispatches a slice of effects and returns without waiting for delivery.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

// Wait blocks until every dispatched delivery has finished.
func (e *DefaultEffectExecutor) Wait() {
	e.wg.Wait()
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.NotifyEffect:
		return e.executeNotify(ctx, typed)
	case effects.PageEffect:
		e.executePage(ctx, typed)
		return nil
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.executeLog(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeNotify(ctx context.Context, eff effects.NotifyEffect) error {
	data, err := json.Marshal(eff.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eff.Event, err)
	}

	event := secondary.Event{
		ID:        uuid.NewString(),
		Channel:   eff.Channel,
		Name:      eff.Event,
		Timestamp: e.now(),
		Data:      data,
	}

	for _, p := range e.publishers {
		e.goDetached(ctx, func(ctx context.Context) {
			if err := p.Publish(ctx, event); err != nil {
				metrics.NotificationsFailed.WithLabelValues(p.Name()).Inc()
				e.logger.Warn("failed to publish escalation event",
					zap.String("sink", p.Name()),
					zap.String("event", event.Name),
					zap.String("event_id", event.ID),
					zap.Error(err),
				)
				return
			}
			metrics.NotificationsSent.WithLabelValues(p.Name()).Inc()
		})
	}
	return nil
}

func (e *DefaultEffectExecutor) executePage(ctx context.Context, eff effects.PageEffect) {
	pager, ok := e.pagers[eff.ContactType]
	if !ok {
		metrics.PagesFailed.WithLabelValues(eff.ContactType).Inc()
		e.logger.Warn("no pager configured for contact type",
			zap.String("contact_type", eff.ContactType),
			zap.String("contact_id", eff.ContactID),
		)
		return
	}

	page := secondary.Page{
		ContactID:     eff.ContactID,
		UserID:        eff.UserID,
		UserName:      eff.UserName,
		Email:         eff.Email,
		PushToken:     eff.PushToken,
		ShipmentID:    eff.ShipmentID,
		AttemptNumber: eff.AttemptNumber,
		Subject:       eff.Subject,
		Body:          eff.Body,
	}

	e.goDetached(ctx, func(ctx context.Context) {
		if err := pager.Page(ctx, page); err != nil {
			metrics.PagesFailed.WithLabelValues(eff.ContactType).Inc()
			e.logger.Warn("failed to page escalation contact",
				zap.String("contact_type", eff.ContactType),
				zap.String("contact_id", eff.ContactID),
				zap.String("shipment_id", eff.ShipmentID),
				zap.Error(err),
			)
			return
		}
		metrics.PagesSent.WithLabelValues(eff.ContactType).Inc()
	})
}

func (e *DefaultEffectExecutor) executeLog(eff effects.LogEffect) {
	fields := make([]zap.Field, 0, len(eff.Fields))
	for k, v := range eff.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, fields...)
	case "warn":
		e.logger.Warn(eff.Message, fields...)
	case "error":
		e.logger.Error(eff.Message, fields...)
	default:
		e.logger.Info(eff.Message, fields...)
	}
}

// goDetached runs fn after the request that caused it may have finished.
func (e *DefaultEffectExecutor) goDetached(ctx context.Context, fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		fn(ctx)
	}()
}
