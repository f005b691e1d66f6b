// Package events defines the diagnostic event vocabulary emitted by the
// matching engine's command loop. These are structured-logging records,
// not a durable audit log - there is no persistence layer (see
// internal/matching's trade log for the one piece of history the engine
// actually keeps: trades, readable by offset).
package events

import (
	"github.com/rishav/order-matching-engine/internal/orders"
)

// Kind identifies which command produced an event.
type Kind uint8

const (
	KindAdd Kind = iota + 1
	KindModify
	KindCancel
	KindFill
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindModify:
		return "MODIFY"
	case KindCancel:
		return "CANCEL"
	case KindFill:
		return "FILL"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent records one add/modify/cancel command for structured
// logging at the call site (internal/disruptor's processor).
type CommandEvent struct {
	Kind      Kind
	OrderID   uint64
	Side      orders.Side
	Shares    uint64
	Price     int64
	Timestamp int64
}

// FillEvent records one trade execution for structured logging.
type FillEvent struct {
	Price       int64
	Volume      uint64
	AggressorID uint64
	PassiveID   uint64
	Timestamp   int64
}
