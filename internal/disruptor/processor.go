package disruptor

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rishav/order-matching-engine/internal/events"
	"github.com/rishav/order-matching-engine/internal/logging"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/orders"
)

// EventProcessor processes commands from the ring buffer in a single
// thread.
//
// Design:
// - Single goroutine for deterministic, sequential processing
// - Reads from ring buffer using spin-wait
// - Calls the matching engine (single-threaded, no locks needed)
// - Logs a diagnostic event per command
// - Sends responses back to producers via channels
type EventProcessor struct {
	rb      *RingBuffer
	engine  *matching.Engine
	logger  logging.Logger
	running atomic.Bool

	tradeOffset int

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewEventProcessor creates a new event processor. A nil logger is
// replaced with logging.Nop{}.
func NewEventProcessor(rb *RingBuffer, engine *matching.Engine, logger logging.Logger) *EventProcessor {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &EventProcessor{
		rb:           rb,
		engine:       engine,
		logger:       logger,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins processing commands from the ring buffer.
func (p *EventProcessor) Start() {
	p.running.Store(true)
	go p.processLoop()
}

// processLoop is the main command processing loop (single goroutine).
//
// This loop maintains determinism by processing commands sequentially
// in sequence number order. It never uses locks, relying on the
// single-threaded nature for correctness.
func (p *EventProcessor) processLoop() {
	defer close(p.shutdownDone)

	nextSequence := uint64(1) // Start at 1 (0 is initial state)

	for p.running.Load() {
		index := nextSequence & p.rb.indexMask
		slot := &p.rb.slots[index]

		for {
			available := atomic.LoadUint64(&slot.SequenceNum)
			if available == nextSequence {
				break
			}

			select {
			case <-p.shutdownCh:
				return
			default:
				runtime.Gosched()
			}
		}

		p.processRequest(slot)

		atomic.StoreUint64(&p.rb.gatingSequence, nextSequence)
		nextSequence++
	}
}

// processRequest processes a single command from the ring buffer.
func (p *EventProcessor) processRequest(slot *RingBufferSlot) {
	req := slot.Request
	responseCh := slot.ResponseCh

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("event processor panic", "panic", r)
			select {
			case responseCh <- &CommandResponse{Error: fmt.Errorf("internal error: %v", r)}:
			default:
			}
		}
	}()

	cmd := req.Command
	p.engine.Process(cmd)
	stats := p.engine.LastStats()

	p.logCommand(cmd)
	p.logFills()

	select {
	case responseCh <- &CommandResponse{Stats: stats}:
	default:
		p.logger.Warn("failed to send command response", "order_id", cmd.OrderID)
	}
}

// logCommand emits a structured diagnostic event for cmd.
func (p *EventProcessor) logCommand(cmd matching.Command) {
	var kind events.Kind
	switch cmd.Kind {
	case matching.KindAdd:
		kind = events.KindAdd
	case matching.KindModify:
		kind = events.KindModify
	case matching.KindCancel:
		kind = events.KindCancel
	}

	ev := events.CommandEvent{
		Kind:      kind,
		OrderID:   cmd.OrderID,
		Side:      cmd.Side,
		Shares:    cmd.Shares,
		Price:     cmd.Price,
		Timestamp: orders.Now(),
	}
	p.logger.Debug("command processed", "kind", ev.Kind.String(), "order_id", ev.OrderID)
}

// logFills emits a structured FillEvent for every trade the command
// just processed executed, reading them off the engine's trade log by
// offset so nothing is logged twice across calls.
func (p *EventProcessor) logFills() {
	trades, next := p.engine.ReadNewTrades(p.tradeOffset)
	p.tradeOffset = next

	for _, tr := range trades {
		ev := events.FillEvent{
			Price:       tr.Price,
			Volume:      tr.Volume,
			AggressorID: tr.AggressorID,
			PassiveID:   tr.PassiveID,
			Timestamp:   tr.Timestamp,
		}
		p.logger.Debug("fill", "kind", events.KindFill.String(), "price", ev.Price, "volume", ev.Volume, "aggressor_id", ev.AggressorID, "passive_id", ev.PassiveID)
	}
}

// Shutdown stops the event processor: it waits for the processing
// goroutine to finish the command in flight and exit. Commands still
// queued in the ring buffer are not processed.
func (p *EventProcessor) Shutdown() {
	p.logger.Info("shutting down event processor")

	p.running.Store(false)
	close(p.shutdownCh)

	<-p.shutdownDone

	p.logger.Info("event processor shutdown complete")
}
