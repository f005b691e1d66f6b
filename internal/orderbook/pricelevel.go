// Package orderbook implements the price-level tree: two AVL trees keyed
// by price (bids descending, asks ascending), an intrusive FIFO queue of
// orders at each price level, and the order index + book-edge cursors
// that together form the Book.
package orderbook

import (
	"github.com/rishav/order-matching-engine/internal/orders"
)

// OrderNode is a node in the doubly-linked list of orders at a price
// level. A doubly-linked list gives O(1) removal from anywhere in the
// queue, which is what makes O(1) cancel-by-id possible.
type OrderNode struct {
	Order *orders.Order
	prev  *OrderNode
	next  *OrderNode
	level *PriceLevel // back-pointer for O(1) removal
}

// Next returns the next node in the queue.
func (n *OrderNode) Next() *OrderNode {
	return n.next
}

// PriceLevel represents all live orders at a single price on one side.
//
//	Price Level 150.25:
//	  Head -> [Order1: 100 shares] <-> [Order2: 50 shares] <- Tail
//	  AggVolume: 150 shares
type PriceLevel struct {
	Price     int64       // price in cents
	Side      orders.Side // which side this level belongs to
	head      *OrderNode  // first order (oldest, highest priority)
	tail      *OrderNode  // last order (newest, lowest priority)
	count     int         // number of orders at this level
	AggVolume uint64      // sum of remaining shares of all live orders here
}

// NewPriceLevel creates a new empty price level.
func NewPriceLevel(price int64, side orders.Side) *PriceLevel {
	return &PriceLevel{Price: price, Side: side}
}

// Count returns the number of orders at this price level.
func (pl *PriceLevel) Count() int {
	return pl.count
}

// IsEmpty returns true if there are no orders at this level.
func (pl *PriceLevel) IsEmpty() bool {
	return pl.count == 0
}

// Head returns the first order node (highest priority).
func (pl *PriceLevel) Head() *OrderNode {
	return pl.head
}

// Append adds an order to the tail of the queue (lowest priority at this
// price). Returns the OrderNode so the caller can index it for O(1)
// cancellation. Time complexity: O(1).
func (pl *PriceLevel) Append(order *orders.Order) *OrderNode {
	node := &OrderNode{Order: order, level: pl}

	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}

	pl.count++
	pl.AggVolume += order.Shares
	return node
}

// Remove splices a node out of the queue. Time complexity: O(1).
func (pl *PriceLevel) Remove(node *OrderNode) {
	if node == nil {
		return
	}

	pl.AggVolume -= node.Order.Shares
	pl.count--

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	node.level = nil
}

// PopFront removes and returns the first order node (highest priority).
// Returns nil if the level is empty. Time complexity: O(1).
func (pl *PriceLevel) PopFront() *OrderNode {
	if pl.head == nil {
		return nil
	}

	node := pl.head
	pl.AggVolume -= node.Order.Shares
	pl.count--

	pl.head = node.next
	if pl.head != nil {
		pl.head.prev = nil
	} else {
		pl.tail = nil
	}

	node.next = nil
	node.level = nil

	return node
}

// ReduceHeadBy partially fills the head order by shares, adjusting the
// level's aggregate volume to match. The head stays in the queue (its
// position is unchanged, only its remaining size shrinks).
func (pl *PriceLevel) ReduceHeadBy(shares uint64) {
	if pl.head == nil {
		return
	}
	pl.head.Order.Shares -= shares
	pl.AggVolume -= shares
}

// Orders returns a slice of all orders at this level (for debugging /
// stream sampling). Note: this allocates, use sparingly.
func (pl *PriceLevel) Orders() []*orders.Order {
	result := make([]*orders.Order, 0, pl.count)
	for node := pl.head; node != nil; node = node.next {
		result = append(result, node.Order)
	}
	return result
}
