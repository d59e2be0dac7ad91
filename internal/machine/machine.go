// Package machine models the vending machine itself: a fixed grid of
// size-typed slots and the pure inventory logic for stocking and selling.
package machine

import (
	"fmt"
	"sort"
	"strings"
)

// Size classifies items and slots. An item only fits slots of its size.
type Size string

const (
	SizeSmall Size = "small"
	SizeLarge Size = "large"
)

// Item is a product the business buys and sells. Identity is the name;
// the size never changes once the item exists.
type Item struct {
	Name  string
	Size  Size
	Price float64 // selling price
	Cost  float64 // average acquisition cost per unit
}

// Slot is one position in the machine grid.
type Slot struct {
	Item        *Item
	Quantity    int
	MaxCapacity int
	SizeType    Size
}

const (
	rows        = 4
	cols        = 3
	slotCap     = 10
	smallRows   = 2 // rows 0..smallRows-1 hold small items, the rest large
)

// Machine is the fixed slot grid. Rows 0-1 take small items, rows 2-3
// large items, three columns each, ten units per slot.
type Machine struct {
	slots map[string]*Slot
}

// New creates an empty machine.
func New() *Machine {
	m := &Machine{slots: make(map[string]*Slot, rows*cols)}
	for r := 0; r < rows; r++ {
		size := SizeSmall
		if r >= smallRows {
			size = SizeLarge
		}
		for c := 0; c < cols; c++ {
			m.slots[slotID(r, c)] = &Slot{MaxCapacity: slotCap, SizeType: size}
		}
	}
	return m
}

func slotID(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

// Slot returns the slot with the given id, or nil if it does not exist.
func (m *Machine) Slot(id string) *Slot {
	return m.slots[id]
}

// SlotIDs returns all slot ids in stable sorted order.
func (m *Machine) SlotIDs() []string {
	ids := make([]string, 0, len(m.slots))
	for id := range m.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CanStock reports whether the item may go into the slot: the sizes must
// match and the slot must be empty or already hold the same product.
func (m *Machine) CanStock(id string, item *Item) bool {
	slot, ok := m.slots[id]
	if !ok {
		return false
	}
	if slot.SizeType != item.Size {
		return false
	}
	return slot.Item == nil || slot.Item.Name == item.Name
}

// Stock adds quantity units of item to the slot. Returns false without
// mutating anything if the slot is incompatible or capacity would be
// exceeded. Repeated calls accumulate quantity.
func (m *Machine) Stock(id string, item *Item, quantity int) bool {
	if quantity <= 0 || !m.CanStock(id, item) {
		return false
	}
	slot := m.slots[id]
	if slot.Quantity+quantity > slot.MaxCapacity {
		return false
	}
	slot.Item = item
	slot.Quantity += quantity
	return true
}

// Sell removes up to quantity units from the slot, clamped to what is
// present. Returns the item and the units actually sold, or ok=false if
// the slot is empty or unknown. A slot emptied by the sale clears its
// item reference.
func (m *Machine) Sell(id string, quantity int) (item *Item, sold int, ok bool) {
	slot, exists := m.slots[id]
	if !exists || slot.Item == nil || slot.Quantity <= 0 {
		return nil, 0, false
	}

	sold = quantity
	if sold > slot.Quantity {
		sold = slot.Quantity
	}
	item = slot.Item
	slot.Quantity -= sold
	if slot.Quantity == 0 {
		slot.Item = nil
	}
	return item, sold, true
}

// AvailableSlots returns ids of slots of the given size that still have
// room, sorted.
func (m *Machine) AvailableSlots(size Size) []string {
	var out []string
	for _, id := range m.SlotIDs() {
		slot := m.slots[id]
		if slot.SizeType != size {
			continue
		}
		if slot.Item == nil || slot.Quantity < slot.MaxCapacity {
			out = append(out, id)
		}
	}
	return out
}

// DistinctProducts counts distinct product names currently stocked.
func (m *Machine) DistinctProducts() int {
	seen := make(map[string]bool)
	for _, slot := range m.slots {
		if slot.Item != nil && slot.Quantity > 0 {
			seen[slot.Item.Name] = true
		}
	}
	return len(seen)
}

// TotalUnits counts all units currently in the machine.
func (m *Machine) TotalUnits() int {
	total := 0
	for _, slot := range m.slots {
		total += slot.Quantity
	}
	return total
}

// Render draws the machine as an ASCII diagram for logs.
func (m *Machine) Render() string {
	var b strings.Builder
	b.WriteString("+----------- VENDING MACHINE -----------+\n")
	for r := 0; r < rows; r++ {
		if r == 0 || r == smallRows {
			label := "SMALL ITEMS"
			if r == smallRows {
				label = "LARGE ITEMS"
			}
			fmt.Fprintf(&b, "|  %-11s                          |\n", label)
		}
		b.WriteString("|  ")
		for c := 0; c < cols; c++ {
			slot := m.slots[slotID(r, c)]
			content := "EMPTY"
			if slot.Item != nil {
				name := slot.Item.Name
				if len(name) > 7 {
					name = name[:7]
				}
				content = fmt.Sprintf("%s(%d)", name, slot.Quantity)
			}
			fmt.Fprintf(&b, "[%-10s]", content)
		}
		b.WriteString("  |\n")
	}
	b.WriteString("+---------------------------------------+")
	return b.String()
}
