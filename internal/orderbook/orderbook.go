package orderbook

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rishav/order-matching-engine/internal/orders"
)

// randomLiveIDThreshold mirrors the source's hardcoded 10_000: the
// generator is only allowed to draw a uniformly random live order id
// once the book holds more than this many live orders. Below the
// threshold, random cancel/modify falls back to an add (see
// internal/generator).
const randomLiveIDThreshold = 10_000

// Book is a single-symbol limit order book: two AVL trees of price
// levels (bids descending, asks ascending), an order index for O(1)
// id->order lookup, a live-id set for the generator's uniform random
// selection, and the two book-edge cursors (highest bid, lowest ask)
// cached for O(1) access on the hot path.
//
//	                    Book
//	                        |
//	       .----------------+----------------.
//	       |                                  |
//	    Bids (AVLTree)                  Asks (AVLTree)
//	    descending=true                 descending=false
//	       |                                  |
//	    PriceLevel                       PriceLevel
//	    (sorted high->low)                (sorted low->high)
//	       |                                  |
//	    OrderQueue                        OrderQueue
//	    (FIFO linked list)                (FIFO linked list)
type Book struct {
	Bids *AVLTree // buy orders, sorted by price descending
	Asks *AVLTree // sell orders, sorted by price ascending

	orders  map[uint64]*OrderNode // order id -> node, for O(1) cancel
	liveIDs map[uint64]struct{}   // kept in lockstep with orders

	// Rebalances is reset to zero at the start of every engine command
	// (internal/matching) and accumulates the AVL rotations performed
	// during that single command.
	Rebalances uint64
}

// NewBook creates a new, empty order book.
func NewBook() *Book {
	return &Book{
		Bids:    NewAVLTree(true),
		Asks:    NewAVLTree(false),
		orders:  make(map[uint64]*OrderNode),
		liveIDs: make(map[uint64]struct{}),
	}
}

// tree returns the tree for the given side.
func (b *Book) tree(side orders.Side) *AVLTree {
	if side == orders.SideBid {
		return b.Bids
	}
	return b.Asks
}

// HighestBid returns the best (highest) live bid price and whether one
// exists. O(1).
func (b *Book) HighestBid() (int64, bool) {
	lvl := b.Bids.Min()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// LowestAsk returns the best (lowest) live ask price and whether one
// exists. O(1).
func (b *Book) LowestAsk() (int64, bool) {
	lvl := b.Asks.Min()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// BestLevel returns the book-edge PriceLevel on the given side, or nil.
func (b *Book) BestLevel(side orders.Side) *PriceLevel {
	return b.tree(side).Min()
}

// GetOrder looks up a live order by id. O(1).
func (b *Book) GetOrder(id uint64) (*orders.Order, bool) {
	node, ok := b.orders[id]
	if !ok {
		return nil, false
	}
	return node.Order, true
}

// Contains reports whether id names a live order.
func (b *Book) Contains(id uint64) bool {
	_, ok := b.orders[id]
	return ok
}

// EnsureLevel returns the price level at price on side, inserting a new
// (empty) one into the tree if none exists yet. Insertion counts toward
// Rebalances.
func (b *Book) EnsureLevel(side orders.Side, price int64) *PriceLevel {
	t := b.tree(side)
	level := t.Get(price)
	if level != nil {
		return level
	}
	level = NewPriceLevel(price, side)
	t.Insert(level, &b.Rebalances)
	return level
}

// AppendOrder appends order to level's FIFO queue and indexes it in the
// order map and live-id set. Does not touch the tree.
func (b *Book) AppendOrder(level *PriceLevel, order *orders.Order) {
	node := level.Append(order)
	b.orders[order.ID] = node
	b.liveIDs[order.ID] = struct{}{}
}

// RemoveOrder splices order id out of its level's queue, deletes the
// level from the tree if it becomes empty (counting toward Rebalances
// and shifting the book-edge cursor), and removes the order from the
// index. No-op if id is not live (spec: cancel/modify of unknown id is
// a silent no-op).
func (b *Book) RemoveOrder(id uint64) {
	node, ok := b.orders[id]
	if !ok {
		return
	}

	level := node.level
	side := level.Side
	level.Remove(node)

	delete(b.orders, id)
	delete(b.liveIDs, id)

	if level.IsEmpty() {
		b.tree(side).Delete(level.Price, &b.Rebalances)
	}
}

// PopLevelHead removes and returns the head order of level (used by the
// matching engine's full-consumption loop), deleting the level from the
// tree if it becomes empty as a result. Removes the popped order from
// the index.
func (b *Book) PopLevelHead(level *PriceLevel) *orders.Order {
	node := level.PopFront()
	if node == nil {
		return nil
	}
	delete(b.orders, node.Order.ID)
	delete(b.liveIDs, node.Order.ID)

	if level.IsEmpty() {
		b.tree(level.Side).Delete(level.Price, &b.Rebalances)
	}
	return node.Order
}

// TopN returns up to n (price, aggregate volume) pairs for side, in
// best-price-first order: reverse-in-order for bids, in-order for asks.
func (b *Book) TopN(side orders.Side, n int) []PriceVolume {
	result := make([]PriceVolume, 0, n)
	b.tree(side).ForEach(func(level *PriceLevel) bool {
		if len(result) >= n {
			return false
		}
		result = append(result, PriceVolume{Price: level.Price, Volume: level.AggVolume})
		return len(result) < n
	})
	return result
}

// PriceVolume is a (price, aggregate volume) pair for one side of a
// PriceLevels sample.
type PriceVolume struct {
	Price  int64
	Volume uint64
}

// LiveOrderCount returns the number of currently live orders.
func (b *Book) LiveOrderCount() int {
	return len(b.orders)
}

// RandomLiveOrderID returns a uniformly-selected live order id. Per the
// source, selection is only offered once the live set exceeds
// randomLiveIDThreshold; below that, the second return value is false
// and callers fall back to issuing an add instead.
func (b *Book) RandomLiveOrderID() (uint64, bool) {
	if len(b.liveIDs) <= randomLiveIDThreshold {
		return 0, false
	}
	// Go map iteration order is randomized per-process; draw the first
	// key reached after skipping a random number of entries so repeated
	// calls don't all land on the same bucket-order id.
	skip := rand.Intn(len(b.liveIDs))
	i := 0
	for id := range b.liveIDs {
		if i == skip {
			return id, true
		}
		i++
	}
	return 0, false
}

// BidLevels returns the number of distinct bid price levels.
func (b *Book) BidLevels() int { return b.Bids.Size() }

// AskLevels returns the number of distinct ask price levels.
func (b *Book) AskLevels() int { return b.Asks.Size() }

// String returns a human-readable snapshot of the top 5 levels on each
// side, for debugging.
func (b *Book) String() string {
	var sb strings.Builder
	sb.WriteString("=== Order Book ===\n")

	asks := b.TopN(orders.SideAsk, 5)
	sb.WriteString("ASKS:\n")
	for i := len(asks) - 1; i >= 0; i-- {
		lvl := asks[i]
		sb.WriteString(fmt.Sprintf("  %d: %d shares\n", lvl.Price, lvl.Volume))
	}

	bid, hasBid := b.HighestBid()
	ask, hasAsk := b.LowestAsk()
	if hasBid && hasAsk {
		sb.WriteString(fmt.Sprintf("--- spread: %d ---\n", ask-bid))
	} else {
		sb.WriteString("--- no spread ---\n")
	}

	bids := b.TopN(orders.SideBid, 5)
	sb.WriteString("BIDS:\n")
	for _, lvl := range bids {
		sb.WriteString(fmt.Sprintf("  %d: %d shares\n", lvl.Price, lvl.Volume))
	}

	return sb.String()
}
