package market

import (
	"fmt"

	"github.com/ecotrade/pricefeed/pkg/models"
)

// adviceFor classifies a flagship instrument's 24h move into a simple
// annotation. Priorities order competing insights within one tick.
func adviceFor(name string, percent float64) models.Insight {
	switch {
	case percent > 1.0:
		return models.Insight{
			Message:  fmt.Sprintf("%s is surging!", name),
			Color:    "green",
			Priority: 100,
		}
	case percent < -1.0:
		return models.Insight{
			Message:  fmt.Sprintf("%s is dropping!", name),
			Color:    "red",
			Priority: 90,
		}
	default:
		return models.Insight{
			Message:  fmt.Sprintf("%s is stable.", name),
			Color:    "grey",
			Priority: 10,
		}
	}
}
