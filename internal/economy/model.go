// Package economy converts the machine's pricing and inventory state
// into daily unit sales. Demand parameters per product come from the
// inference collaborator once per run; everything after that is a pure
// function of price, variety, weather and calendar.
package economy

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/vendsim/internal/machine"
	"github.com/talgya/vendsim/internal/weather"
)

// Analyst produces text completions for demand analysis.
type Analyst interface {
	Complete(system, prompt string, maxTokens int) (string, error)
}

// Params are the per-item demand parameters.
type Params struct {
	Elasticity     float64 // negative: price above reference cuts sales
	ReferencePrice float64
	BaseSales      int // expected daily units at the reference price
}

// Model holds the demand parameter cache and settlement logic.
type Model struct {
	ai      Analyst
	context string // location context fed to the analyst prompt
	cache   map[string]Params
}

// NewModel creates an economic model. ai may be nil; every item then
// uses the deterministic fallback parameters.
func NewModel(ai Analyst, context string) *Model {
	if context == "" {
		context = "Standard office building vending machine"
	}
	return &Model{ai: ai, context: context, cache: make(map[string]Params)}
}

// fallbackParams is used whenever analysis is unavailable or unparseable.
func fallbackParams(price float64) Params {
	return Params{Elasticity: -1.0, ReferencePrice: price, BaseSales: 10}
}

const analystPrompt = `You are an economics expert analyzing customer behavior for a vending machine item.

CONTEXT: %s

ITEM TO ANALYZE:
- Name: %s
- Current Price: $%.2f
- Size Category: %s

Calculate these three values for this specific item:

1. PRICE_ELASTICITY: How sensitive customers are to price changes (-2.0 to -0.1, more negative = more sensitive)
2. REFERENCE_PRICE: What customers expect to pay for this item (in dollars)
3. BASE_SALES: Daily sales volume at reference price (units per day, realistic numbers)

Return ONLY three numbers separated by commas in this format:
price_elasticity,reference_price,base_sales

Example: -1.2,2.50,15

Response:`

// ParamsFor returns demand parameters for an item, consulting the
// analyst on first sight and caching for the rest of the run.
func (m *Model) ParamsFor(item *machine.Item) Params {
	if p, ok := m.cache[item.Name]; ok {
		return p
	}

	p := fallbackParams(item.Price)
	if m.ai != nil {
		prompt := fmt.Sprintf(analystPrompt, m.context, item.Name, item.Price, item.Size)
		resp, err := m.ai.Complete("", prompt, 128)
		if err != nil {
			slog.Warn("demand analysis failed, using fallback", "item", item.Name, "error", err)
		} else if parsed, ok := parseParams(resp); ok {
			p = parsed
		} else {
			slog.Warn("demand analysis unparseable, using fallback", "item", item.Name, "response", resp)
		}
	}

	m.cache[item.Name] = p
	return p
}

// parseParams reads the "elasticity,reference,base" triple.
func parseParams(resp string) (Params, bool) {
	parts := strings.Split(strings.TrimSpace(resp), ",")
	if len(parts) != 3 {
		return Params{}, false
	}
	elasticity, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	reference, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	base, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return Params{}, false
	}
	return Params{Elasticity: elasticity, ReferencePrice: reference, BaseSales: base}, true
}

// BaseExpectedSales applies reference-price elasticity to the base
// volume: base * (1 + elasticity * (price-ref)/ref), floored at zero.
func BaseExpectedSales(p Params, price float64) int {
	if p.ReferencePrice <= 0 {
		return maxInt(0, p.BaseSales)
	}
	diff := (price - p.ReferencePrice) / p.ReferencePrice
	expected := float64(p.BaseSales) * (1 + p.Elasticity*diff)
	return maxInt(0, int(math.Round(expected)))
}

// ChoiceMultiplier scales demand by product variety. Peaks near ten
// distinct products, bounded below by 0.5 at both extremes.
func ChoiceMultiplier(distinct int) float64 {
	n := float64(distinct)
	sig := 1 / (1 + math.Exp(-0.5*(n-10)))

	var mult float64
	if distinct <= 10 {
		mult = 0.5 + 0.5*sig
	} else {
		mult = sig * math.Exp(-0.1*(n-10))
	}
	if mult < 0.5 {
		mult = 0.5
	}
	return mult
}

// monthMultiplier: seasonal demand, peaking midsummer, lowest in the
// post-holiday slump.
var monthMultiplier = [13]float64{0,
	0.80, // January
	0.85, // February
	0.90, // March
	0.95, // April
	1.00, // May
	1.10, // June
	1.20, // July
	1.20, // August
	1.05, // September
	0.95, // October
	0.90, // November
	1.00, // December
}

// weekdayMultiplier indexed by time.Weekday (Sunday first).
var weekdayMultiplier = [7]float64{
	1.15, // Sunday
	0.85, // Monday
	0.90, // Tuesday
	0.95, // Wednesday
	1.00, // Thursday
	1.10, // Friday
	1.25, // Saturday
}

// MonthMultiplier returns the seasonal demand factor for a month.
func MonthMultiplier(m time.Month) float64 {
	return monthMultiplier[m]
}

// WeekdayMultiplier returns the day-of-week demand factor.
func WeekdayMultiplier(d time.Weekday) float64 {
	return weekdayMultiplier[d]
}

// ExpectedDailySales composes the elasticity base with the variety,
// weather, month and weekday multipliers.
func (m *Model) ExpectedDailySales(item *machine.Item, distinct int, cond weather.Condition, day time.Time) int {
	p := m.ParamsFor(item)
	base := float64(BaseExpectedSales(p, item.Price))

	expected := base *
		ChoiceMultiplier(distinct) *
		weather.SalesMultiplier(cond) *
		MonthMultiplier(day.Month()) *
		WeekdayMultiplier(day.Weekday())

	return maxInt(0, int(math.Round(expected)))
}

// Settle runs one day of sales against the machine, slot by slot in
// stable order, never selling more than a slot holds. Returns the
// revenue to credit and the units moved.
func (m *Model) Settle(vm *machine.Machine, cond weather.Condition, day time.Time) (revenue float64, units int) {
	distinct := vm.DistinctProducts()

	for _, id := range vm.SlotIDs() {
		slot := vm.Slot(id)
		if slot.Item == nil || slot.Quantity == 0 {
			continue
		}

		want := m.ExpectedDailySales(slot.Item, distinct, cond, day)
		if want == 0 {
			continue
		}

		item, sold, ok := vm.Sell(id, want)
		if !ok {
			continue
		}
		revenue += float64(sold) * item.Price
		units += sold

		slog.Debug("slot settled",
			"slot", id,
			"item", item.Name,
			"expected", want,
			"sold", sold,
			"price", item.Price,
		)
	}
	return revenue, units
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
