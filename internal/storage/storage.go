// Package storage manages the backroom inventory behind the vending
// machine: weighted-average costing of received stock and the pending
// delivery queue.
package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vendsim/internal/machine"
)

// AnchorHour is the hour of day at which deliveries arrive and day
// boundaries are drawn.
const AnchorHour = 6

// Record tracks one product held in storage. AvgUnitCost is the
// quantity-weighted mean of every batch added since the record was
// created; the record is deleted when quantity reaches zero.
type Record struct {
	Item        *machine.Item
	Quantity    int
	AvgUnitCost float64
}

// DeliveryItem is one line of a scheduled shipment.
type DeliveryItem struct {
	Name     string  `json:"name"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// PendingDelivery is a scheduled shipment that has not yet arrived.
type PendingDelivery struct {
	ArrivalTime time.Time
	Supplier    string
	Items       []DeliveryItem
	Reference   string
}

// System is the backroom storage.
type System struct {
	records map[string]*Record
	pending []PendingDelivery
}

// New creates an empty storage system.
func New() *System {
	return &System{records: make(map[string]*Record)}
}

// AddItems adds a batch to storage, creating the product record on first
// sight and recomputing the weighted average unit cost. Returns the
// batch's total cost (quantity x unitCost) for accounting.
func (s *System) AddItems(name string, size machine.Size, quantity int, unitCost float64) float64 {
	rec, ok := s.records[name]
	if !ok {
		rec = &Record{Item: &machine.Item{Name: name, Size: size, Cost: unitCost}}
		s.records[name] = rec
	}

	total := rec.Quantity + quantity
	if total > 0 {
		rec.AvgUnitCost = (rec.AvgUnitCost*float64(rec.Quantity) + unitCost*float64(quantity)) / float64(total)
	}
	rec.Quantity = total
	rec.Item.Cost = rec.AvgUnitCost

	return unitCost * float64(quantity)
}

// RemoveItems takes quantity units out of storage, for example when
// stocking the machine. Returns false without mutation if there is not
// enough on hand. The record is deleted when it hits zero.
func (s *System) RemoveItems(name string, quantity int) bool {
	rec, ok := s.records[name]
	if !ok || rec.Quantity < quantity {
		return false
	}
	rec.Quantity -= quantity
	if rec.Quantity == 0 {
		delete(s.records, name)
	}
	return true
}

// Quantity returns the units of a product in storage, zero if absent.
func (s *System) Quantity(name string) int {
	if rec, ok := s.records[name]; ok {
		return rec.Quantity
	}
	return 0
}

// Item returns the Item for a product, or nil if absent.
func (s *System) Item(name string) *machine.Item {
	if rec, ok := s.records[name]; ok {
		return rec.Item
	}
	return nil
}

// UpdatePrice sets the selling price for a stored product.
func (s *System) UpdatePrice(name string, price float64) bool {
	rec, ok := s.records[name]
	if !ok {
		return false
	}
	rec.Item.Price = price
	return true
}

// ItemsBySize returns all stored items of the given size.
func (s *System) ItemsBySize(size machine.Size) []*machine.Item {
	var out []*machine.Item
	for _, name := range s.names() {
		if rec := s.records[name]; rec.Item.Size == size {
			out = append(out, rec.Item)
		}
	}
	return out
}

// TotalValue is the cost value of everything in storage.
func (s *System) TotalValue() float64 {
	total := 0.0
	for _, rec := range s.records {
		total += float64(rec.Quantity) * rec.AvgUnitCost
	}
	return total
}

// Empty reports whether storage holds nothing.
func (s *System) Empty() bool {
	return len(s.records) == 0
}

// PendingCount returns the number of deliveries not yet arrived.
func (s *System) PendingCount() int {
	return len(s.pending)
}

func (s *System) names() []string {
	out := make([]string, 0, len(s.records))
	for name := range s.records {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ScheduleDelivery queues a shipment to arrive days from now at the
// anchor hour. Item data is taken as-is; bad lines are skipped later at
// arrival time. Returns the scheduled arrival time.
func (s *System) ScheduleDelivery(now time.Time, items []DeliveryItem, days int, supplier, reference string) time.Time {
	if supplier == "" {
		supplier = "Unknown Supplier"
	}
	arrival := time.Date(now.Year(), now.Month(), now.Day(), AnchorHour, 0, 0, 0, now.Location()).
		AddDate(0, 0, days)

	s.pending = append(s.pending, PendingDelivery{
		ArrivalTime: arrival,
		Supplier:    supplier,
		Items:       items,
		Reference:   reference,
	})
	return arrival
}

// ProcessArrivals moves every delivery whose arrival time has passed
// into storage and drops it from the pending queue. Lines with missing
// names or non-positive quantities are skipped. If onArrival is
// non-nil it is called once per delivery with a human-readable notice.
// Safe to call every day; with nothing due it returns zero cost and
// performs no mutation.
func (s *System) ProcessArrivals(now time.Time, onArrival func(supplier, reference, body string)) float64 {
	if len(s.pending) == 0 {
		return 0
	}

	totalCost := 0.0
	var remaining []PendingDelivery

	for _, d := range s.pending {
		if d.ArrivalTime.After(now) {
			remaining = append(remaining, d)
			continue
		}

		deliveryCost := 0.0
		var lines []string
		for _, it := range d.Items {
			if it.Quantity <= 0 || it.Name == "" {
				continue
			}
			size := machine.Size(it.Size)
			if size != machine.SizeLarge {
				size = machine.SizeSmall
			}
			deliveryCost += s.AddItems(it.Name, size, it.Quantity, it.UnitCost)
			lines = append(lines, fmt.Sprintf("- %s (%s) x%d @ $%.2f", it.Name, size, it.Quantity, it.UnitCost))
		}
		totalCost += deliveryCost

		if onArrival != nil {
			var b strings.Builder
			fmt.Fprintf(&b, "Delivery has arrived from %s.\n", d.Supplier)
			if d.Reference != "" {
				fmt.Fprintf(&b, "Reference: %s\n", d.Reference)
			}
			fmt.Fprintf(&b, "Arrival Time (UTC): %s\n\nItems:\n", d.ArrivalTime.Format("2006-01-02 15:04"))
			for _, line := range lines {
				b.WriteString(line)
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "\nTotal billed on delivery: $%.2f", deliveryCost)
			onArrival(d.Supplier, d.Reference, b.String())
		}
	}

	s.pending = remaining
	return totalCost
}

// Report formats the storage contents for the agent: large items first,
// then small, alphabetical within each size.
func (s *System) Report() string {
	if s.Empty() {
		return "Storage is currently empty. No items in backroom inventory."
	}

	names := s.names()
	sort.SliceStable(names, func(i, j int) bool {
		a, b := s.records[names[i]], s.records[names[j]]
		if a.Item.Size != b.Item.Size {
			return a.Item.Size == machine.SizeLarge
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	b.WriteString("STORAGE INVENTORY REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	for _, name := range names {
		rec := s.records[name]
		value := float64(rec.Quantity) * rec.AvgUnitCost
		fmt.Fprintf(&b, "  [%-5s] %-20s %3d units @ $%.2f/unit (Value: $%s)\n",
			strings.ToUpper(string(rec.Item.Size)), name, rec.Quantity, rec.AvgUnitCost,
			humanize.CommafWithDigits(value, 2))
	}
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Total Product Types: %d\n", len(s.records))
	fmt.Fprintf(&b, "Total Inventory Value: $%s", humanize.CommafWithDigits(s.TotalValue(), 2))
	if len(s.pending) > 0 {
		fmt.Fprintf(&b, "\nPending Deliveries: %d", len(s.pending))
	}
	return b.String()
}
