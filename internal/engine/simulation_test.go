package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/talgya/vendsim/internal/machine"
	"github.com/talgya/vendsim/internal/storage"
)

var testStart = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

type memLogger struct {
	entries []float64
}

func (m *memLogger) LogState(simulationID string, ts time.Time, balance float64) error {
	m.entries = append(m.entries, balance)
	return nil
}

func newTestSim(log StateLogger) *Simulation {
	return New(Config{Seed: 7, Start: testStart, Log: log})
}

func TestThreeIdleDays(t *testing.T) {
	log := &memLogger{}
	sim := newTestSim(log)

	for i := 0; i < 3; i++ {
		sim.WaitForNextDay()
	}

	if math.Abs(sim.Balance-494.00) > 1e-9 {
		t.Fatalf("expected balance 494.00 after 3 idle days, got %.2f", sim.Balance)
	}
	if len(log.entries) != 3 {
		t.Fatalf("expected exactly 3 log entries, got %d", len(log.entries))
	}
	if sim.DaysPassed() != 3 {
		t.Fatalf("expected 3 days passed, got %d", sim.DaysPassed())
	}
}

func TestConstructionDoesNotChargeFee(t *testing.T) {
	sim := newTestSim(nil)
	if sim.Balance != StartingBalance {
		t.Fatalf("cold start must not charge the fee, balance %.2f", sim.Balance)
	}
	if sim.DaysPassed() != 0 {
		t.Fatal("no rollover may fire at construction")
	}
}

func TestRolloverFiresOncePerCrossing(t *testing.T) {
	sim := newTestSim(nil)

	// Many intra-day advances: no rollover.
	day := testStart
	for hour := 7; hour < 24; hour += 3 {
		sim.AdvanceTo(time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC))
	}
	if sim.DaysPassed() != 0 {
		t.Fatalf("intra-day advances fired %d rollovers", sim.DaysPassed())
	}

	// Crossing the anchor fires exactly once.
	sim.AdvanceTo(day.AddDate(0, 0, 1).Add(2 * time.Hour))
	if sim.DaysPassed() != 1 {
		t.Fatalf("expected exactly 1 rollover, got %d", sim.DaysPassed())
	}

	// Re-advancing to the same instant is a no-op.
	sim.AdvanceTo(day.AddDate(0, 0, 1).Add(2 * time.Hour))
	if sim.DaysPassed() != 1 {
		t.Fatal("repeated advance to the same time must not re-fire rollover")
	}
}

func TestMultiDayJumpFiresEachCrossing(t *testing.T) {
	sim := newTestSim(nil)

	sim.AdvanceTo(testStart.AddDate(0, 0, 4))
	if sim.DaysPassed() != 4 {
		t.Fatalf("a 4-day jump must fire 4 rollovers, got %d", sim.DaysPassed())
	}
	if math.Abs(sim.Balance-(StartingBalance-4*DailyFee)) > 1e-9 {
		t.Fatalf("expected 4 fee deductions, balance %.2f", sim.Balance)
	}
}

func TestDeliveryArrivesIntoStorage(t *testing.T) {
	sim := newTestSim(nil)

	sim.Storage.ScheduleDelivery(sim.Now(),
		[]storage.DeliveryItem{{Name: "Cola", Size: "small", Quantity: 20, UnitCost: 1.00}},
		2, "VendCorp", "PO-1")

	sim.WaitForNextDay()
	if sim.Storage.Quantity("Cola") != 0 {
		t.Fatal("delivery arrived a day early")
	}

	sim.WaitForNextDay()
	if sim.Storage.Quantity("Cola") != 20 {
		t.Fatalf("expected 20 units after 2 days, got %d", sim.Storage.Quantity("Cola"))
	}
	if got := sim.Storage.Item("Cola").Cost; math.Abs(got-1.00) > 1e-9 {
		t.Fatalf("expected avg unit cost 1.00, got %.2f", got)
	}
	if sim.Storage.PendingCount() != 0 {
		t.Fatal("pending list must be empty after arrival")
	}

	// Two fees plus the $20 delivery bill.
	want := StartingBalance - 2*DailyFee - 20.00
	if math.Abs(sim.Balance-want) > 1e-9 {
		t.Fatalf("expected balance %.2f, got %.2f", want, sim.Balance)
	}

	// The delivery notice lands in the inbox.
	read := sim.ReadEmail()
	if !strings.Contains(read, "VendCorp") || !strings.Contains(read, "Cola") {
		t.Fatalf("expected a delivery notice, got %q", read)
	}
	if sim.ReadEmail() != "No unread emails." {
		t.Fatal("second read should find nothing unread")
	}
}

func TestSalesCreditBalance(t *testing.T) {
	sim := newTestSim(nil)

	cola := &machine.Item{Name: "Cola", Size: machine.SizeSmall, Price: 2.00}
	if !sim.Machine.Stock("0-0", cola, 10) {
		t.Fatal("stock failed")
	}

	sim.WaitForNextDay()

	sold := 10 - sim.Machine.TotalUnits()
	if sold <= 0 {
		t.Fatal("expected some units to sell at the reference price")
	}
	want := StartingBalance - DailyFee + float64(sold)*2.00
	if math.Abs(sim.Balance-want) > 1e-9 {
		t.Fatalf("expected balance %.2f for %d units sold, got %.2f", want, sold, sim.Balance)
	}
}

func TestSupplierRepliesArriveNextDay(t *testing.T) {
	sim := newTestSim(nil)

	sim.SendEmail("sales@vendcorp.com", "Bulk cola order", "20 units please")
	if sim.Mail.UnreadCount() != 0 {
		t.Fatal("sending mail must not create unread inbox mail")
	}

	sim.WaitForNextDay()

	read := sim.ReadEmail()
	if !strings.Contains(read, "Re: Bulk cola order") {
		t.Fatalf("expected a supplier reply, got %q", read)
	}
}

func TestDayReportContents(t *testing.T) {
	sim := newTestSim(nil)
	sim.WaitForNextDay()

	report := sim.LastReport()
	for _, want := range []string{"Balance: $", "Weather: ", "Day 1", "Unread emails:"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestToolMessages(t *testing.T) {
	sim := newTestSim(nil)

	msg := sim.WaitForNextDay()
	if !strings.Contains(msg, "Moved day forward to") {
		t.Fatalf("unexpected wait message: %q", msg)
	}

	msg = sim.SendEmail("a@b.com", "Hi", "body")
	if !strings.Contains(msg, "sent_001") {
		t.Fatalf("send message should carry the id: %q", msg)
	}

	if got := sim.CheckStorage(); !strings.Contains(got, "empty") {
		t.Fatalf("expected empty storage report, got %q", got)
	}
}
