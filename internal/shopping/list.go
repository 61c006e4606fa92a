// Package shopping merges recipe ingredient lines into a single shopping
// list and renders it as the downloadable plain-text report.
//
// Lines are grouped by ingredient name. Amounts of the same name are summed;
// the unit of a group is the unit of the first line seen for that name, since
// units are opaque labels and never converted. Groups keep the order in which
// their names were first encountered.
package shopping

import "math"

// Line is one ingredient line contributed by a recipe in the cart.
type Line struct {
	Name   string
	Unit   string
	Amount int
}

// Item is one merged entry of the shopping list.
type Item struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Unit   string `json:"measurement_unit"`
}

// List accumulates lines into merged items. The zero value is ready to use.
type List struct {
	index map[string]int
	items []Item
}

// Add merges one line into the list.
func (l *List) Add(line Line) {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[line.Name]; ok {
		l.items[i].Amount = addSaturating(l.items[i].Amount, line.Amount)
		return
	}
	l.index[line.Name] = len(l.items)
	l.items = append(l.items, Item{Name: line.Name, Amount: line.Amount, Unit: line.Unit})
}

// addSaturating sums non-negative amounts, clamping at math.MaxInt.
func addSaturating(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

// AddAll merges lines in order.
func (l *List) AddAll(lines []Line) {
	for _, line := range lines {
		l.Add(line)
	}
}

// Len returns the number of distinct ingredient names.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the merged items in first-seen order.
func (l *List) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Merge is a convenience wrapper: it merges lines and returns the items.
func Merge(lines []Line) []Item {
	var l List
	l.AddAll(lines)
	return l.Items()
}
