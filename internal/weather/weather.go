// Package weather generates daily weather for the simulation: a
// seasonal Markov chain over four conditions, plus a smooth temperature
// curve used for report flavor.
package weather

import (
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Condition is a daily weather state.
type Condition string

const (
	Sunny  Condition = "sunny"
	Cloudy Condition = "cloudy"
	Rainy  Condition = "rainy"
	Snowy  Condition = "snowy"
)

// Season names follow the meteorological calendar.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// SeasonForMonth maps a calendar month to its season.
func SeasonForMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// conditions in a fixed order so transition sampling is deterministic
// for a given rng state.
var conditions = []Condition{Sunny, Cloudy, Rainy, Snowy}

var seasonalBase = map[Season]map[Condition]float64{
	Winter: {Sunny: 0.2, Cloudy: 0.4, Rainy: 0.2, Snowy: 0.2},
	Spring: {Sunny: 0.4, Cloudy: 0.3, Rainy: 0.3, Snowy: 0.0},
	Summer: {Sunny: 0.6, Cloudy: 0.2, Rainy: 0.2, Snowy: 0.0},
	Fall:   {Sunny: 0.3, Cloudy: 0.4, Rainy: 0.3, Snowy: 0.0},
}

// persistenceBonus makes yesterday's weather more likely to continue.
const persistenceBonus = 0.3

// TransitionProbabilities returns the next-day distribution given the
// season and the previous day's condition. Probabilities sum to 1.
func TransitionProbabilities(season Season, previous Condition) map[Condition]float64 {
	probs := make(map[Condition]float64, len(conditions))
	for c, p := range seasonalBase[season] {
		probs[c] = p
	}

	if _, ok := probs[previous]; ok {
		for c := range probs {
			probs[c] *= 1.0 - persistenceBonus
		}
		probs[previous] += persistenceBonus
	}

	total := 0.0
	for _, p := range probs {
		total += p
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs
}

// Process advances weather day by day from a seeded random source.
type Process struct {
	rng   *rand.Rand
	noise opensimplex.Noise
}

// NewProcess creates a weather process. The same seed always yields the
// same weather sequence.
func NewProcess(seed int64) *Process {
	return &Process{
		rng:   rand.New(rand.NewSource(seed)),
		noise: opensimplex.NewNormalized(seed + 1),
	}
}

// Next samples the next day's condition from the seasonal transition
// distribution.
func (p *Process) Next(month time.Month, previous Condition) Condition {
	probs := TransitionProbabilities(SeasonForMonth(month), previous)

	roll := p.rng.Float64()
	acc := 0.0
	for _, c := range conditions {
		acc += probs[c]
		if roll < acc {
			return c
		}
	}
	return conditions[len(conditions)-1]
}

// monthly mean temperatures in celsius, indexed by time.Month.
var monthlyMeanTemp = [13]float64{0, 2, 3, 8, 13, 18, 22, 26, 25, 20, 14, 8, 4}

// Temperature returns a deterministic daily temperature: the monthly
// mean plus a smooth noise term. Flavor for reports only; demand never
// reads it.
func (p *Process) Temperature(t time.Time) float64 {
	day := float64(t.Year())*366 + float64(t.YearDay())
	wobble := p.noise.Eval2(day*0.15, 0)*10 - 5
	return monthlyMeanTemp[t.Month()] + wobble
}

// SalesMultiplier scales daily demand by condition. Unknown conditions
// are neutral.
func SalesMultiplier(c Condition) float64 {
	switch c {
	case Sunny:
		return 1.10
	case Rainy:
		return 0.85
	case Cloudy:
		return 1.00
	case Snowy:
		return 0.75
	default:
		return 1.00
	}
}
