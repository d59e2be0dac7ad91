package machine

import "testing"

func TestNewMachineLayout(t *testing.T) {
	m := New()
	ids := m.SlotIDs()
	if len(ids) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(ids))
	}
	if m.Slot("0-0").SizeType != SizeSmall {
		t.Fatal("row 0 should be small")
	}
	if m.Slot("3-2").SizeType != SizeLarge {
		t.Fatal("row 3 should be large")
	}
	if m.Slot("0-0").MaxCapacity != 10 {
		t.Fatalf("expected capacity 10, got %d", m.Slot("0-0").MaxCapacity)
	}
}

func TestStockSizeMismatch(t *testing.T) {
	m := New()
	large := &Item{Name: "Water", Size: SizeLarge, Price: 2}
	if m.Stock("0-0", large, 5) {
		t.Fatal("large item must not stock into a small slot")
	}
	if m.Slot("0-0").Quantity != 0 {
		t.Fatal("failed stock must not mutate")
	}
}

func TestStockAccumulatesAndRespectsCapacity(t *testing.T) {
	m := New()
	cola := &Item{Name: "Cola", Size: SizeSmall, Price: 2}

	if !m.Stock("0-0", cola, 6) {
		t.Fatal("first stock failed")
	}
	if !m.Stock("0-0", cola, 4) {
		t.Fatal("second stock failed")
	}
	if m.Slot("0-0").Quantity != 10 {
		t.Fatalf("expected 10, got %d", m.Slot("0-0").Quantity)
	}
	if m.Stock("0-0", cola, 1) {
		t.Fatal("stocking past capacity must fail")
	}
	if m.Slot("0-0").Quantity != 10 {
		t.Fatal("failed stock must not mutate")
	}
}

func TestStockDifferentItemInOccupiedSlot(t *testing.T) {
	m := New()
	cola := &Item{Name: "Cola", Size: SizeSmall}
	chips := &Item{Name: "Chips", Size: SizeSmall}

	m.Stock("0-0", cola, 3)
	if m.CanStock("0-0", chips) {
		t.Fatal("occupied slot must only take the same product")
	}
	if m.Stock("0-0", chips, 1) {
		t.Fatal("stocking a different product must fail")
	}
}

func TestSellClampsToAvailable(t *testing.T) {
	m := New()
	cola := &Item{Name: "Cola", Size: SizeSmall, Price: 2}
	m.Stock("0-0", cola, 3)

	item, sold, ok := m.Sell("0-0", 5)
	if !ok {
		t.Fatal("sell failed")
	}
	if sold != 3 {
		t.Fatalf("expected 3 sold, got %d", sold)
	}
	if item.Name != "Cola" {
		t.Fatalf("wrong item: %s", item.Name)
	}
	if m.Slot("0-0").Item != nil {
		t.Fatal("emptied slot must clear its item")
	}
}

func TestSellFromEmptySlot(t *testing.T) {
	m := New()
	if _, _, ok := m.Sell("0-0", 1); ok {
		t.Fatal("selling from an empty slot must signal nothing to sell")
	}
	if _, _, ok := m.Sell("9-9", 1); ok {
		t.Fatal("selling from an unknown slot must signal nothing to sell")
	}
}

func TestDistinctProducts(t *testing.T) {
	m := New()
	cola := &Item{Name: "Cola", Size: SizeSmall}
	water := &Item{Name: "Water", Size: SizeLarge}

	m.Stock("0-0", cola, 2)
	m.Stock("0-1", cola, 2)
	m.Stock("2-0", water, 2)

	if got := m.DistinctProducts(); got != 2 {
		t.Fatalf("expected 2 distinct products, got %d", got)
	}
	if got := m.TotalUnits(); got != 6 {
		t.Fatalf("expected 6 units, got %d", got)
	}
}

func TestAvailableSlots(t *testing.T) {
	m := New()
	cola := &Item{Name: "Cola", Size: SizeSmall}
	m.Stock("0-0", cola, 10)

	small := m.AvailableSlots(SizeSmall)
	for _, id := range small {
		if id == "0-0" {
			t.Fatal("full slot must not be available")
		}
	}
	if len(small) != 5 {
		t.Fatalf("expected 5 available small slots, got %d", len(small))
	}
	if len(m.AvailableSlots(SizeLarge)) != 6 {
		t.Fatal("all large slots should be available")
	}
}
