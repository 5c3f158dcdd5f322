package sessionauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher moves sink latency off the request path. Events are queued
// on a bounded channel and delivered in order by one goroutine. After close
// the queue is drained and further events are ignored.
//
// Emit holds sending for reading while it checks closing and sends; the loop
// takes it for writing before the final drain, so every event that made it
// into the queue is delivered.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	dropIfFull bool

	sending  sync.RWMutex
	stop     chan struct{}
	stopped  chan struct{}
	closing  atomic.Bool
	stopOnce sync.Once
	dropped  atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		dropIfFull: cfg.DropIfFull,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer close(d.stopped)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.sending.Lock()
			d.drain()
			d.sending.Unlock()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *auditDispatcher) deliver(event AuditEvent) {
	d.sink.Emit(context.Background(), event)
}

// Emit queues event and reports whether it was accepted. A full queue either
// counts a drop (dropIfFull) or blocks until there is room, ctx ends, or the
// dispatcher closes. An event turned away by a concurrent close is counted
// as dropped.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) bool {
	if d == nil {
		return false
	}

	d.sending.RLock()
	defer d.sending.RUnlock()
	if d.closing.Load() {
		return false
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
			return true
		case <-d.stop:
		default:
		}
		d.dropped.Add(1)
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
		return true
	case <-ctx.Done():
		return false
	case <-d.stop:
		d.dropped.Add(1)
		return false
	}
}

func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closing.Store(true)
		close(d.stop)
	})
	<-d.stopped
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
