package openmeteo

import (
	"context"
	"time"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/logger"
)

// Source implements contracts.WeatherSource over the archive API with a
// synthetic fallback
type Source struct {
	client *Client // nil disables the live API
	logger *logger.Logger
}

// NewSource creates a weather source. A nil client always uses synthetic data.
func NewSource(client *Client, log *logger.Logger) *Source {
	return &Source{client: client, logger: log}
}

var _ contracts.WeatherSource = (*Source)(nil)

// Weather returns live records for every supported state that could be
// fetched. If none could, it returns synthetic records for all states.
func (s *Source) Weather(ctx context.Context, start, end time.Time, states []string) ([]contracts.WeatherRecord, error) {
	var records []contracts.WeatherRecord

	if s.client != nil {
		for _, state := range states {
			loc, ok := Locations[state]
			if !ok {
				continue
			}

			fetched, err := s.client.Fetch(ctx, state, loc, start, end)
			if err != nil {
				s.logger.WithError(err).WithField("state", state).Warn("Weather fetch failed")
				continue
			}
			records = append(records, fetched...)
		}
	}

	if len(records) > 0 {
		s.logger.WithField("records", len(records)).Debug("Loaded live weather")
		return records, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.WithField("states", states).Warn("Using synthetic weather")
	return Synthetic(start, end, states), nil
}
