package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
)

//nolint:lll // by design
// see https://betterprogramming.pub/how-to-broadcast-messages-in-go-using-channels-b68f42bdf32e

type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListeners   atomic.Int64
	sendTimeout    time.Duration
	registration   metric.Registration
	l              *log.Logger
}

type Option[T any] func(*broadcastServer[T])

// WithSendTimeout sets how long a slow listener may block a message
// before it is skipped for that listener.
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	select {
	case b.addListener <- ch:
	case <-b.ctx.Done():
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.ctx.Done():
	}
}

func (b *broadcastServer[T]) Close() {
	b.l.Debug("Closing broadcast server",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	if b.registration != nil {
		if err := b.registration.Unregister(); err != nil {
			b.l.Warn("could not unregister metrics", log.ErrorField(err))
		}
	}
	b.cancel()
}

//nolint:whitespace // false positive
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		sendTimeout:    50 * time.Millisecond,
		l:              log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.setupMetrics()
	go b.serve()
	return b
}

//nolint:funlen // readability
func (b *broadcastServer[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("ftd.broadcast")
	type data struct {
		name  string
		desc  string
		value *atomic.Int64
	}
	gauges := make(map[metric.Int64ObservableGauge]*atomic.Int64)
	instruments := make([]metric.Observable, 0, 4)
	for _, d := range []*data{
		{"ftd.broadcast.rcv", "Number of received messages", &b.numRcv},
		{"ftd.broadcast.snd", "Number of sent messages", &b.numSnd},
		{"ftd.broadcast.skip", "Number of skipped messages", &b.numSkip},
		{"ftd.broadcast.listener", "Number of listeners", &b.numListeners},
	} {
		g, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"))
		if err != nil {
			b.l.Error("failed to create metric",
				log.String("metric", d.name), log.ErrorField(err))
			continue
		}
		gauges[g] = d.value
		instruments = append(instruments, g)
	}
	attrs := metric.WithAttributes(attribute.String("name", b.name))
	reg, err := meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			for g, v := range gauges {
				o.ObserveInt64(g, v.Load(), attrs)
			}
			return nil
		}, instruments...)
	if err != nil {
		b.l.Error("failed to register metrics callback",
			log.String("name", b.name), log.ErrorField(err))
		return
	}
	b.registration = reg
}

func (b *broadcastServer[T]) serve() {
	defer func() {
		b.l.Debug("Closing listeners", log.String("name", b.name))
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListeners.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListeners.Store(int64(len(b.listeners)))
		case msg, ok := <-b.source:
			if !ok {
				return
			}
			b.numRcv.Add(1)
			b.dispatch(msg)
		}
	}
}

func (b *broadcastServer[T]) dispatch(msg T) {
	for _, listener := range b.listeners {
		select {
		case listener <- msg:
			b.numSnd.Add(1)
		case <-time.After(b.sendTimeout):
			b.numSkip.Add(1)
			b.l.Debug("skipping listener", log.String("name", b.name),
				log.String("msg", fmt.Sprintf("%v", msg)))
		}
	}
}
