package oddsfeed

import (
	"fmt"

	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

const h2hMarket = "h2h"

// Transform maps The Odds API payload into ingestion payloads. Only h2h
// markets are considered; every bookmaker's prices for an event are
// flattened into one outcome set. Events without any h2h outcome are
// skipped, and one malformed event never aborts the rest.
func Transform(apiEvents []APIEvent, logger *zap.Logger) []types.EventPayload {
	payloads := make([]types.EventPayload, 0, len(apiEvents))

	for i := range apiEvents {
		ev := &apiEvents[i]

		outcomes := []types.OutcomePayload{}
		for _, bookmaker := range ev.Bookmakers {
			for _, market := range bookmaker.Markets {
				if market.Key != h2hMarket {
					continue
				}
				for _, outcome := range market.Outcomes {
					outcomes = append(outcomes, types.OutcomePayload{
						Bookmaker: bookmaker.Title,
						Label:     outcome.Name,
						Price:     outcome.Price,
						Link:      fmt.Sprintf("https://%s.com", bookmaker.Key),
					})
				}
			}
		}

		if len(outcomes) == 0 {
			logger.Warn("event-without-outcomes-skipped",
				zap.String("external-id", ev.ID),
				zap.String("sport", ev.SportTitle))
			continue
		}

		payloads = append(payloads, types.EventPayload{
			ExternalID: ev.ID,
			Name:       fmt.Sprintf("%s vs %s", ev.HomeTeam, ev.AwayTeam),
			Category:   ev.SportTitle,
			Outcomes:   outcomes,
		})
	}

	return payloads
}
