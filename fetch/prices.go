package fetch

import (
	"fmt"
	"time"

	"github.com/dnldd/datavis/shared"
	"github.com/tidwall/gjson"
)

// parsePricePairs parses [unix milliseconds, price] pairs into a price series ordered by time.
func parsePricePairs(pairs []gjson.Result, market string) (*shared.PriceSeries, error) {
	points := make([]shared.PricePoint, 0, len(pairs))

	for idx := range pairs {
		pair := pairs[idx].Array()
		if len(pair) < 2 {
			return nil, fmt.Errorf("price pair at index %d has %d elements, expected 2", idx, len(pair))
		}
		if pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
			return nil, fmt.Errorf("price pair at index %d is not numeric: %s", idx, pairs[idx].Raw)
		}

		points = append(points, shared.PricePoint{
			Date:  time.UnixMilli(pair[0].Int()).UTC(),
			Value: pair[1].Float(),
		})
	}

	shared.SortPricePoints(points)

	series, err := shared.NewPriceSeries(market, points)
	if err != nil {
		return nil, fmt.Errorf("creating %s price series: %w", market, err)
	}

	return series, nil
}
