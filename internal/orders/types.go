// Package orders defines the core order and trade types shared by the
// price-level tree, the matching engine, the generator, and the stream
// formatter.
//
// Key design decisions carried over from the teacher module:
//
// 1. Fixed-Point Arithmetic: prices are stored as int64 in cents (1/100
//    of a dollar) to avoid floating-point errors in the hot matching
//    path. Decimal parsing/formatting at the process boundary is done by
//    internal/price; nothing here ever compares floats.
//
// 2. Time Representation: timestamps use nanoseconds since Unix epoch
//    (int64) for high precision without the overhead of time.Time.
package orders

import (
	"fmt"
	"time"
)

// Side represents which side of the book an order rests on.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side, used when an aggressor walks the
// opposing book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// Order represents a single live limit order resting in the book.
//
// Only limit orders exist in this engine (marketable limits match on
// arrival, see internal/matching); there are no market/IOC/FOK variants
// and no per-account bookkeeping, since the book is single-symbol and
// the matching core is agnostic to who owns an order.
type Order struct {
	// ID is the unique identifier assigned by the caller (file upload
	// line, generator, or session command). Never reassigned.
	ID uint64

	// Side is fixed for the lifetime of the order; modify reuses the
	// same side (price-time priority is intentionally lost, not side).
	Side Side

	// Shares is the remaining (unfilled) quantity. >0 while the order
	// is live; the order is removed the instant this reaches zero.
	Shares uint64

	// Price is the limit price in cents (fixed-point, two decimal
	// digits when rendered).
	Price int64

	// Timestamp is when the order was accepted, nanoseconds since
	// epoch. Not used for ordering (the FIFO queue position is what
	// establishes time priority) - only for diagnostics/logging.
	Timestamp int64
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{ID:%d, %s %d@%d}", o.ID, o.Side, o.Shares, o.Price)
}

// Trade records one execution between an aggressor and a passive
// (resting) order. Always priced at the passive order's level price.
type Trade struct {
	Price       int64
	Volume      uint64
	AggressorID uint64
	PassiveID   uint64
	Timestamp   int64
}

func (t *Trade) String() string {
	return fmt.Sprintf("Trade{price:%d, volume:%d, aggressor:%d, passive:%d}",
		t.Price, t.Volume, t.AggressorID, t.PassiveID)
}

// Now returns the current time in nanoseconds since epoch.
func Now() int64 {
	return time.Now().UnixNano()
}
