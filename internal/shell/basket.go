package shell

import (
	"context"
	"sync"
)

// MemoryBasket is an in-process Basket implementation.
type MemoryBasket struct {
	mu    sync.Mutex
	lines []BasketLine
}

// NewMemoryBasket builds a basket holding the given lines.
func NewMemoryBasket(lines ...BasketLine) *MemoryBasket {
	return &MemoryBasket{lines: lines}
}

// Add appends a line to the basket.
func (b *MemoryBasket) Add(line BasketLine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
}

// Snapshot returns a copy of the current lines with the running total.
func (b *MemoryBasket) Snapshot() BasketSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := BasketSnapshot{Lines: make([]BasketLine, len(b.lines))}
	copy(snapshot.Lines, b.lines)
	for _, line := range b.lines {
		snapshot.TotalPrice += float64(line.Quantity) * line.UnitPrice
	}
	return snapshot
}

// Clear empties the basket.
func (b *MemoryBasket) Clear(context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
