package bot

import (
	"github.com/rs/zerolog/log"
)

// Category buckets the loop's failure counters, one per external concern.
type Category string

const (
	CatMarketData      Category = "market_data"
	CatStrategy        Category = "strategy"
	CatExecution       Category = "execution"
	CatPositionClosing Category = "position_closing"
	CatGeneral         Category = "general"
)

// Categories in dashboard display order.
var Categories = []Category{CatMarketData, CatStrategy, CatExecution, CatPositionClosing, CatGeneral}

// ErrorCounters tracks consecutive failures per category and escalates to a
// warning once a category passes its threshold. Success resets the category.
type ErrorCounters struct {
	counts     map[Category]int
	thresholds map[Category]int
}

func NewErrorCounters() *ErrorCounters {
	return &ErrorCounters{
		counts: make(map[Category]int),
		thresholds: map[Category]int{
			CatMarketData:      5,
			CatStrategy:        3,
			CatExecution:       3,
			CatPositionClosing: 3,
			CatGeneral:         3,
		},
	}
}

// Fail records one failure, logs it, and warns when the consecutive count
// reaches the category threshold.
func (c *ErrorCounters) Fail(cat Category, err error) {
	c.counts[cat]++
	n := c.counts[cat]

	log.Error().Err(err).Str("category", string(cat)).Int("attempt", n).Msg("cycle step failed")

	if th := c.thresholds[cat]; th > 0 && n >= th {
		log.Warn().Str("category", string(cat)).Int("consecutive", n).Msg("multiple consecutive failures, check connectivity and configuration")
	}
}

// Reset clears the category on success.
func (c *ErrorCounters) Reset(cat Category) {
	c.counts[cat] = 0
}

// Count returns the current consecutive-failure count for a category.
func (c *ErrorCounters) Count(cat Category) int {
	return c.counts[cat]
}
