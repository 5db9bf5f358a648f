package metrics

import (
	"fmt"
	"math"
)

// Narrator phrases per-period summaries. Noun names the population and Verb
// the event, e.g. "orders" / "refunded".
type Narrator struct {
	Noun string
	Verb string
}

// DefaultNarrator uses generic wording.
var DefaultNarrator = Narrator{Noun: "records", Verb: "flagged"}

// NarrativeSummary describes one period with the default wording.
func NarrativeSummary(period string, total, events int64, rate Rate) (string, error) {
	return DefaultNarrator.Summary(period, total, events, rate)
}

// Summary renders a one-line description of a period.
func (n Narrator) Summary(period string, total, events int64, rate Rate) (string, error) {
	if total < 0 {
		return "", negativeInput("total", total)
	}
	if events < 0 {
		return "", negativeInput("events", events)
	}
	noun, verb := n.words()

	switch {
	case total == 0:
		return fmt.Sprintf("%s: no %s in this period", period, noun), nil
	case rate.Kind() == RateAnomaly:
		// "1 of every N" would claim N < 1, so the raw counts are stated.
		return fmt.Sprintf("%s: %d %s against %d %s (%s)", period, events, verb, total, noun, rate.Display()), nil
	case events == 0:
		return fmt.Sprintf("%s: 0 %s (%s rate)", period, verb, rate.Display()), nil
	}

	every := math.RoundToEven(float64(total) / float64(events))
	return fmt.Sprintf("%s: 1 of every %.0f %s %s (%s rate)", period, every, noun, verb, rate.Display()), nil
}

func (n Narrator) words() (string, string) {
	noun, verb := n.Noun, n.Verb
	if noun == "" {
		noun = DefaultNarrator.Noun
	}
	if verb == "" {
		verb = DefaultNarrator.Verb
	}
	return noun, verb
}
