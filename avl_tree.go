package lob

import (
	"github.com/shopspring/decimal"
)

// AVL price-level tree with arena-based memory management.
// One tree orders each side of the book: the bid tree's best level is its
// maximum price, the ask tree's best is its minimum. Nodes are Limits in
// the shared limit arena, linked by int32 handles.
//
// Two rules keep handles stable for everything else holding one:
//  1. Slots only move by arena growth, so a node pointer is never held
//     across an alloc; the code re-indexes through at() instead.
//  2. Removal unlinks nodes structurally. The two-children case splices
//     the in-order successor node into the removed node's position rather
//     than copying payloads between slots.
type priceLevelTree struct {
	arena *limitArena
	root  int32
	side  Side
	count int
}

func newPriceLevelTree(arena *limitArena, side Side) priceLevelTree {
	return priceLevelTree{
		arena: arena,
		root:  nullIndex,
		side:  side,
	}
}

func (t *priceLevelTree) at(idx int32) *Limit {
	return &t.arena.slots[idx]
}

func (t *priceLevelTree) len() int {
	return t.count
}

// alloc creates a fresh leaf level for price.
func (t *priceLevelTree) alloc(price decimal.Decimal, parent int32) int32 {
	return t.arena.alloc(Limit{
		Price:  price,
		Side:   t.side,
		head:   nullIndex,
		tail:   nullIndex,
		parent: parent,
		left:   nullIndex,
		right:  nullIndex,
		height: 1,
	})
}

func (t *priceLevelTree) height(h int32) int32 {
	if h == nullIndex {
		return 0
	}
	return t.at(h).height
}

func (t *priceLevelTree) updateHeight(h int32) {
	lh, rh := t.height(t.at(h).left), t.height(t.at(h).right)
	if lh > rh {
		t.at(h).height = lh + 1
	} else {
		t.at(h).height = rh + 1
	}
}

// balanceFactor is left height minus right height; AVL keeps it in
// {-1, 0, 1} for every node.
func (t *priceLevelTree) balanceFactor(h int32) int32 {
	return t.height(t.at(h).left) - t.height(t.at(h).right)
}

// rotateLeft performs a left rotation.
//
//	  |              |
//	  h              x
//	 / \    =>      / \
//	a   x          h   c
//	   / \        / \
//	  b   c      a   b
func (t *priceLevelTree) rotateLeft(h int32) int32 {
	x := t.at(h).right
	t.at(h).right = t.at(x).left
	if t.at(x).left != nullIndex {
		t.at(t.at(x).left).parent = h
	}
	t.at(x).left = h
	t.at(x).parent = t.at(h).parent
	t.at(h).parent = x
	t.updateHeight(h)
	t.updateHeight(x)
	return x
}

// rotateRight performs a right rotation.
//
//	    |          |
//	    h          x
//	   / \   =>   / \
//	  x   c      a   h
//	 / \            / \
//	a   b          b   c
func (t *priceLevelTree) rotateRight(h int32) int32 {
	x := t.at(h).left
	t.at(h).left = t.at(x).right
	if t.at(x).right != nullIndex {
		t.at(t.at(x).right).parent = h
	}
	t.at(x).right = h
	t.at(x).parent = t.at(h).parent
	t.at(h).parent = x
	t.updateHeight(h)
	t.updateHeight(x)
	return x
}

// rebalance restores the AVL shape at h after one insertion or removal
// below it and returns the subtree's new root.
func (t *priceLevelTree) rebalance(h int32) int32 {
	t.updateHeight(h)
	switch bf := t.balanceFactor(h); {
	case bf > 1:
		if t.balanceFactor(t.at(h).left) < 0 {
			t.at(h).left = t.rotateLeft(t.at(h).left)
		}
		return t.rotateRight(h)
	case bf < -1:
		if t.balanceFactor(t.at(h).right) > 0 {
			t.at(h).right = t.rotateRight(t.at(h).right)
		}
		return t.rotateLeft(h)
	}
	return h
}

// findOrCreate returns the handle of the level holding price, inserting a
// new leaf with standard AVL rebalancing when the price is unseen.
func (t *priceLevelTree) findOrCreate(price decimal.Decimal) (int32, bool) {
	root, idx, created := t.insert(t.root, nullIndex, price)
	t.root = root
	if created {
		t.count++
	}
	return idx, created
}

// insert descends to price's position in the subtree h, whose parent link
// is parent. It returns the subtree's (possibly rotated) root, the handle
// of the found-or-created node, and whether it was created.
//
// The arena can grow inside the recursion, so child handles are captured
// from the return value and slots are always re-indexed after the call;
// a compound assignment into t.at(h) here would write through a stale
// address once append moves the backing array.
func (t *priceLevelTree) insert(h, parent int32, price decimal.Decimal) (int32, int32, bool) {
	if h == nullIndex {
		idx := t.alloc(price, parent)
		return idx, idx, true
	}

	cmp := price.Cmp(t.at(h).Price)
	if cmp == 0 {
		return h, h, false
	}

	if cmp < 0 {
		child, idx, created := t.insert(t.at(h).left, h, price)
		t.at(h).left = child
		if !created {
			return h, idx, false
		}
		return t.rebalance(h), idx, true
	}

	child, idx, created := t.insert(t.at(h).right, h, price)
	t.at(h).right = child
	if !created {
		return h, idx, false
	}
	return t.rebalance(h), idx, true
}

// find returns the handle of the level holding price, or nullIndex.
func (t *priceLevelTree) find(price decimal.Decimal) int32 {
	h := t.root
	for h != nullIndex {
		cmp := price.Cmp(t.at(h).Price)
		if cmp < 0 {
			h = t.at(h).left
		} else if cmp > 0 {
			h = t.at(h).right
		} else {
			return h
		}
	}
	return nullIndex
}

// remove deletes the level holding price and releases its slot. Only
// empty levels are ever removed, so the freed slot has no orders pointing
// back into it.
func (t *priceLevelTree) remove(price decimal.Decimal) bool {
	root, removed := t.delete(t.root, nullIndex, price)
	t.root = root
	if removed == nullIndex {
		return false
	}
	t.arena.release(removed)
	t.count--
	return true
}

// delete unlinks the node holding price from the subtree h and returns
// the subtree's new root plus the unlinked handle (nullIndex on a miss).
// Standard AVL deletion: heights and rotations are repaired on the way
// back up.
func (t *priceLevelTree) delete(h, parent int32, price decimal.Decimal) (int32, int32) {
	if h == nullIndex {
		return nullIndex, nullIndex
	}

	cmp := price.Cmp(t.at(h).Price)
	if cmp < 0 {
		child, removed := t.delete(t.at(h).left, h, price)
		t.at(h).left = child
		if removed == nullIndex {
			return h, nullIndex
		}
		return t.rebalance(h), removed
	}
	if cmp > 0 {
		child, removed := t.delete(t.at(h).right, h, price)
		t.at(h).right = child
		if removed == nullIndex {
			return h, nullIndex
		}
		return t.rebalance(h), removed
	}

	// At most one child: lift it into h's place.
	if t.at(h).left == nullIndex || t.at(h).right == nullIndex {
		child := t.at(h).left
		if child == nullIndex {
			child = t.at(h).right
		}
		if child != nullIndex {
			t.at(child).parent = parent
		}
		return child, h
	}

	// Two children: splice the in-order successor out of the right subtree
	// and move the successor node itself into h's position. No payload is
	// copied between slots, so handles held elsewhere stay valid.
	newRight, succ := t.deleteMin(t.at(h).right, h)
	t.at(succ).left = t.at(h).left
	t.at(t.at(h).left).parent = succ
	t.at(succ).right = newRight
	if newRight != nullIndex {
		t.at(newRight).parent = succ
	}
	t.at(succ).parent = parent
	return t.rebalance(succ), h
}

// deleteMin unlinks the minimum node of the subtree h and returns the
// subtree's new root plus the unlinked handle. The node is detached, not
// freed: delete reuses it as the transplant.
func (t *priceLevelTree) deleteMin(h, parent int32) (int32, int32) {
	if t.at(h).left == nullIndex {
		r := t.at(h).right
		if r != nullIndex {
			t.at(r).parent = parent
		}
		return r, h
	}
	child, min := t.deleteMin(t.at(h).left, h)
	t.at(h).left = child
	return t.rebalance(h), min
}

// first returns the best level on this side: the maximum price for bids,
// the minimum for asks. nullIndex when the side is empty.
func (t *priceLevelTree) first() int32 {
	h := t.root
	if h == nullIndex {
		return nullIndex
	}
	if t.side == Buy {
		for t.at(h).right != nullIndex {
			h = t.at(h).right
		}
		return h
	}
	for t.at(h).left != nullIndex {
		h = t.at(h).left
	}
	return h
}

// next steps from h toward the worse price: descending for bids,
// ascending for asks. Returns nullIndex past the last level.
func (t *priceLevelTree) next(h int32) int32 {
	if t.side == Buy {
		return t.predecessor(h)
	}
	return t.successor(h)
}

func (t *priceLevelTree) successor(h int32) int32 {
	if t.at(h).right != nullIndex {
		h = t.at(h).right
		for t.at(h).left != nullIndex {
			h = t.at(h).left
		}
		return h
	}
	p := t.at(h).parent
	for p != nullIndex && h == t.at(p).right {
		h = p
		p = t.at(p).parent
	}
	return p
}

func (t *priceLevelTree) predecessor(h int32) int32 {
	if t.at(h).left != nullIndex {
		h = t.at(h).left
		for t.at(h).right != nullIndex {
			h = t.at(h).right
		}
		return h
	}
	p := t.at(h).parent
	for p != nullIndex && h == t.at(p).left {
		h = p
		p = t.at(p).parent
	}
	return p
}

// inOrderPrices returns all prices in ascending order (for testing/debugging).
func (t *priceLevelTree) inOrderPrices() []decimal.Decimal {
	result := make([]decimal.Decimal, 0, t.count)
	t.inOrder(t.root, &result)
	return result
}

func (t *priceLevelTree) inOrder(h int32, result *[]decimal.Decimal) {
	if h == nullIndex {
		return
	}
	t.inOrder(t.at(h).left, result)
	*result = append(*result, t.at(h).Price)
	t.inOrder(t.at(h).right, result)
}
