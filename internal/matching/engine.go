// Package matching implements the order matching engine: add/modify/
// cancel against a single order book, the cross-and-match protocol that
// executes trades against resting liquidity, and the Stats Collector
// (per-command rebalance/trade counters plus a growable trade log with
// an offset-based read contract).
//
// Architecture: Single-Threaded Core (LMAX Disruptor Pattern)
//
// Why single-threaded?
// 1. Determinism: the same command sequence always produces the same
//    book state and trade log.
// 2. No locks: eliminates contention on the hot path.
// 3. Simplicity: no race conditions to debug.
//
// Commands reach the Engine one at a time, either serialized by the ring
// buffer in internal/disruptor or issued directly by a single driver
// goroutine (the generator, cmd/client); no method may be called
// concurrently from more than one goroutine.
package matching

import (
	"github.com/rishav/order-matching-engine/internal/orderbook"
	"github.com/rishav/order-matching-engine/internal/orders"
)

// Kind identifies which of the three engine operations a Command
// carries out. There are no market/IOC/FOK variants - every order is a
// limit order that rests in the book if it doesn't fully cross.
type Kind int

const (
	KindAdd Kind = iota
	KindModify
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindModify:
		return "MODIFY"
	case KindCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Command is a single unit of work fed to the engine: add a new order,
// modify a live order's shares/price, or cancel a live order.
type Command struct {
	Kind Kind

	OrderID uint64

	// Add fields.
	Side   orders.Side
	Shares uint64
	Price  int64

	// Modify fields (OrderID above identifies which order).
	NewShares uint64
	NewPrice  int64
}

// Stats is the Stats Collector snapshot produced after processing one
// command: how many AVL rotations the price-level tree performed, and
// how many trades were executed, both reset to zero at the start of
// every command.
type Stats struct {
	Rebalances uint64
	Trades     int
}

// Engine owns the single order book and the trade log. Every public
// method represents one command and resets the per-command counters
// before doing any work.
type Engine struct {
	book   *orderbook.Book
	trades []orders.Trade

	lastStats Stats
}

// NewEngine creates a new matching engine with an empty book.
func NewEngine() *Engine {
	return &Engine{book: orderbook.NewBook()}
}

// Book exposes the underlying order book, e.g. for the stream formatter
// to sample top-of-book levels.
func (e *Engine) Book() *orderbook.Book {
	return e.book
}

// LastStats returns the Stats Collector snapshot for the most recently
// processed command.
func (e *Engine) LastStats() Stats {
	e.lastStats.Rebalances = e.book.Rebalances
	return e.lastStats
}

// Process dispatches cmd to the matching operation it names.
func (e *Engine) Process(cmd Command) {
	switch cmd.Kind {
	case KindAdd:
		e.Add(cmd.OrderID, cmd.Side, cmd.Shares, cmd.Price)
	case KindModify:
		e.Modify(cmd.OrderID, cmd.NewShares, cmd.NewPrice)
	case KindCancel:
		e.Cancel(cmd.OrderID)
	}
}

// Add inserts a new limit order. A duplicate id (already live in the
// order index) is a silent no-op - the whole command is ignored, per
// the engine's duplicate-add policy. Any portion of the order that
// crosses the opposite side's resting liquidity trades immediately; any
// remainder rests in the book at price.
func (e *Engine) Add(id uint64, side orders.Side, shares uint64, price int64) {
	e.beginCommand()

	if e.book.Contains(id) {
		return
	}
	if shares == 0 {
		return
	}

	order := &orders.Order{
		ID:        id,
		Side:      side,
		Shares:    shares,
		Price:     price,
		Timestamp: orders.Now(),
	}

	e.crossAndMatch(order)

	if order.Shares > 0 {
		level := e.book.EnsureLevel(side, price)
		e.book.AppendOrder(level, order)
	}
}

// Cancel removes a live order from the book. Unknown id is a silent
// no-op.
func (e *Engine) Cancel(id uint64) {
	e.beginCommand()
	e.book.RemoveOrder(id)
}

// Modify changes a live order's shares and/or price. Because price-time
// priority is keyed by queue position, a modify is implemented as a
// cancel followed by a re-add at the tail of the (possibly new) price
// level - the order loses its place in the queue even if only shares
// changed. Unknown id is a silent no-op. The replacement re-crosses
// against the book, so a modify that walks the price through the spread
// can execute trades just like an add.
func (e *Engine) Modify(id uint64, newShares uint64, newPrice int64) {
	e.beginCommand()

	order, ok := e.book.GetOrder(id)
	if !ok {
		return
	}
	side := order.Side
	e.book.RemoveOrder(id)

	if newShares == 0 {
		return
	}

	replacement := &orders.Order{
		ID:        id,
		Side:      side,
		Shares:    newShares,
		Price:     newPrice,
		Timestamp: orders.Now(),
	}

	e.crossAndMatch(replacement)

	if replacement.Shares > 0 {
		level := e.book.EnsureLevel(side, newPrice)
		e.book.AppendOrder(level, replacement)
	}
}

// beginCommand resets the per-command Stats Collector counters. Must be
// called exactly once at the top of every public Add/Modify/Cancel.
func (e *Engine) beginCommand() {
	e.book.Rebalances = 0
	e.lastStats = Stats{}
}

// crossAndMatch walks the opposite side of the book from best price
// inward, executing trades against resting (passive) orders while
// order's limit price still crosses and it still has shares remaining.
//
// Two exits per price level, mirroring the source's
// limit_order_as_market_order / market_order_helper:
//   - full consumption: the resting head order's entire remaining size
//     is taken, the head is popped (and the level deleted from the tree
//     if now empty), and the loop continues at the same or next level.
//   - partial-fill exit: order has fewer shares left than the resting
//     head needs, so only part of the head is taken, the head stays at
//     the front of the queue with its size reduced, and order is now
//     fully filled (loop exits naturally, shares == 0).
//
// Every trade is priced at the passive (resting) order's price, never
// the aggressor's limit price - price improvement always runs in the
// aggressor's favor.
func (e *Engine) crossAndMatch(order *orders.Order) {
	opposite := order.Side.Opposite()

	for order.Shares > 0 {
		level := e.book.BestLevel(opposite)
		if level == nil {
			break
		}
		if !crosses(order.Side, order.Price, level.Price) {
			break
		}

		head := level.Head()
		if head == nil {
			break
		}
		maker := head.Order

		if order.Shares >= maker.Shares {
			fillQty := maker.Shares
			e.recordTrade(level.Price, fillQty, order.ID, maker.ID)
			order.Shares -= fillQty
			e.book.PopLevelHead(level)
		} else {
			fillQty := order.Shares
			e.recordTrade(level.Price, fillQty, order.ID, maker.ID)
			level.ReduceHeadBy(fillQty)
			order.Shares = 0
		}
	}
}

// crosses reports whether an order resting/arriving on side at price
// would trade against a resting level at levelPrice: a bid crosses asks
// priced at or below it, an ask crosses bids priced at or above it.
func crosses(side orders.Side, price int64, levelPrice int64) bool {
	if side == orders.SideBid {
		return levelPrice <= price
	}
	return levelPrice >= price
}

// recordTrade appends a trade to the log and updates the per-command
// Stats Collector trade counter.
func (e *Engine) recordTrade(price int64, volume uint64, aggressorID, passiveID uint64) {
	e.trades = append(e.trades, orders.Trade{
		Price:       price,
		Volume:      volume,
		AggressorID: aggressorID,
		PassiveID:   passiveID,
		Timestamp:   orders.Now(),
	})
	e.lastStats.Trades++
}

// Rebalances returns the AVL rotation count accumulated so far by the
// price-level tree during the current (or most recently completed)
// command.
func (e *Engine) Rebalances() uint64 {
	return e.book.Rebalances
}

// ReadNewTrades returns every trade recorded at or after offset, plus
// the offset a caller should pass next time to pick up where it left
// off (len(trades)). Offsets are stable - trades are only ever
// appended, never mutated or removed, so a stale offset simply yields
// the same slice it would have on the first call plus whatever was
// appended since.
func (e *Engine) ReadNewTrades(offset int) ([]orders.Trade, int) {
	if offset >= len(e.trades) {
		return nil, len(e.trades)
	}
	return e.trades[offset:], len(e.trades)
}

// TradeCount returns the total number of trades ever executed.
func (e *Engine) TradeCount() int {
	return len(e.trades)
}
