// Package engine owns the simulation state and the day-cycle state
// machine. All balance, time, inventory and mailbox mutation funnels
// through the Simulation so its invariants hold no matter what the
// agent does.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/vendsim/internal/economy"
	"github.com/talgya/vendsim/internal/email"
	"github.com/talgya/vendsim/internal/machine"
	"github.com/talgya/vendsim/internal/storage"
	"github.com/talgya/vendsim/internal/weather"
)

const (
	// StartingBalance is the cash the business opens with.
	StartingBalance = 500.0
	// DailyFee is the flat operating fee deducted at each rollover.
	DailyFee = 2.0
	// AnchorHour defines the day boundary: rollover fires when
	// simulated time crosses this hour of day.
	AnchorHour = storage.AnchorHour
)

// StateLogger receives append-only balance snapshots. Satisfied by
// persistence.DB; may be nil to disable logging.
type StateLogger interface {
	LogState(simulationID string, ts time.Time, balance float64) error
}

// Config assembles a simulation.
type Config struct {
	Seed     int64
	Start    time.Time // any instant; the clock anchors to its day
	Location string    // location context for demand analysis
	Analyst  economy.Analyst
	Supplier email.Inference
	Search   email.Searcher
	Log      StateLogger
}

// Simulation is the complete business state.
type Simulation struct {
	ID      string
	Balance float64

	Machine *machine.Machine
	Storage *storage.System
	Mail    *email.System
	Econ    *economy.Model

	weather   *weather.Process
	responder *email.Responder
	log       StateLogger

	currentTime time.Time
	condition   weather.Condition
	daysPassed  int
	lastAnchor  time.Time // most recent anchor crossing already processed
	lastReport  string
}

// New creates a simulation anchored at the start day's anchor hour.
// The starting anchor counts as already processed: constructing the
// simulation never charges the daily fee, which makes the cold-start
// fee suppression explicit rather than inferred from message counts.
func New(cfg Config) *Simulation {
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	anchor := time.Date(start.Year(), start.Month(), start.Day(), AnchorHour, 0, 0, 0, time.UTC)

	s := &Simulation{
		ID:          uuid.NewString(),
		Balance:     StartingBalance,
		Machine:     machine.New(),
		Storage:     storage.New(),
		Mail:        email.NewSystem(""),
		weather:     weather.NewProcess(cfg.Seed),
		log:         cfg.Log,
		currentTime: anchor,
		condition:   weather.Sunny,
		lastAnchor:  anchor,
	}
	s.Econ = economy.NewModel(cfg.Analyst, cfg.Location)
	s.responder = email.NewResponder(s.Mail, cfg.Supplier, cfg.Search,
		func(days int, supplier, reference string, items []storage.DeliveryItem) time.Time {
			return s.Storage.ScheduleDelivery(s.currentTime, items, days, supplier, reference)
		})
	s.lastReport = s.buildReport(anchor, 0, 0)

	slog.Info("simulation created",
		"id", s.ID,
		"start", anchor.Format("2006-01-02 15:04"),
		"balance", s.Balance,
	)
	return s
}

// Now returns the current simulated time.
func (s *Simulation) Now() time.Time { return s.currentTime }

// Condition returns today's weather.
func (s *Simulation) Condition() weather.Condition { return s.condition }

// DaysPassed returns how many rollovers have fired.
func (s *Simulation) DaysPassed() int { return s.daysPassed }

// LastReport returns the most recent day report for the agent context.
func (s *Simulation) LastReport() string { return s.lastReport }

// AdvanceTo moves the simulated clock forward, firing rollover exactly
// once per anchor crossing even when the jump spans several days.
// Moving backwards is a no-op.
func (s *Simulation) AdvanceTo(target time.Time) {
	if target.Before(s.currentTime) {
		return
	}
	for {
		next := s.lastAnchor.AddDate(0, 0, 1)
		if next.After(target) {
			break
		}
		s.currentTime = next
		s.rollover(next)
		s.lastAnchor = next
	}
	s.currentTime = target
}

// WaitForNextDay advances to the next day's anchor hour, triggering
// exactly one rollover, and reports the new time.
func (s *Simulation) WaitForNextDay() string {
	next := s.lastAnchor.AddDate(0, 0, 1)
	s.AdvanceTo(next)
	return fmt.Sprintf("Moved day forward to %s", next.Format("2006-01-02 15:04 UTC"))
}

// SendEmail files an order email from the agent.
func (s *Simulation) SendEmail(recipient, subject, body string) string {
	id := s.Mail.Send(s.currentTime, recipient, subject, body, email.TypeOrder)
	return fmt.Sprintf("Email sent to %s with subject '%s' (ID: %s)", recipient, subject, id)
}

// ReadEmail returns all unread mail formatted for the agent, marking it
// read.
func (s *Simulation) ReadEmail() string {
	return s.Mail.UnreadForAgent()
}

// CheckStorage returns the backroom inventory report.
func (s *Simulation) CheckStorage() string {
	return s.Storage.Report()
}

// rollover applies one day boundary in fixed order: fee, weather,
// arrivals, supplier responses, sales, report. Each step leaves state
// consistent so an aborted report never corrupts applied mutations.
func (s *Simulation) rollover(at time.Time) {
	// 1. Operating fee.
	s.Balance -= DailyFee

	// 2. Weather transition.
	s.condition = s.weather.Next(at.Month(), s.condition)

	// 3. Matured deliveries: stock arrives, cost is billed, notices land
	// in the inbox.
	deliveryCost := s.Storage.ProcessArrivals(at, func(supplier, reference, body string) {
		subject := fmt.Sprintf("Delivery from %s", supplier)
		if reference != "" {
			subject += fmt.Sprintf(" (ref %s)", reference)
		}
		s.Mail.Receive(at, supplier, subject, body, email.TypeNotice)
	})
	s.Balance -= deliveryCost

	// 4. Suppliers answer yesterday's mail.
	s.responder.GenerateResponses(at)

	// 5. The day's sales.
	revenue, units := s.Econ.Settle(s.Machine, s.condition, at)
	s.Balance += revenue

	s.daysPassed++
	s.lastReport = s.buildReport(at, revenue, units)

	if s.log != nil {
		if err := s.log.LogState(s.ID, at, s.Balance); err != nil {
			slog.Error("balance log failed", "error", err)
		}
	}

	slog.Info("day rollover",
		"date", at.Format("2006-01-02"),
		"weather", s.condition,
		"balance", fmt.Sprintf("%.2f", s.Balance),
		"revenue", fmt.Sprintf("%.2f", revenue),
		"units_sold", units,
		"delivery_cost", fmt.Sprintf("%.2f", deliveryCost),
		"unread", s.Mail.UnreadCount(),
	)
}

// buildReport composes the structured day report for the agent's next
// context.
func (s *Simulation) buildReport(at time.Time, revenue float64, units int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s %d, %d (Day %d)\n",
		at.Weekday(), at.Month(), at.Day(), at.Year(), s.daysPassed)
	fmt.Fprintf(&b, "Weather: %s (%s), %.1fC\n",
		s.condition, weather.SeasonForMonth(at.Month()), s.weather.Temperature(at))
	fmt.Fprintf(&b, "Balance: $%s\n", humanize.CommafWithDigits(s.Balance, 2))
	if units > 0 {
		fmt.Fprintf(&b, "Yesterday's sales: %d units, $%s revenue\n",
			units, humanize.CommafWithDigits(revenue, 2))
	}
	fmt.Fprintf(&b, "Products in machine: %d distinct, %d units\n",
		s.Machine.DistinctProducts(), s.Machine.TotalUnits())
	fmt.Fprintf(&b, "Unread emails: %d", s.Mail.UnreadCount())
	return b.String()
}
