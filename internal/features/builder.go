package features

import (
	"errors"
	"fmt"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/logger"
)

// ErrEmptyPanel is returned when there are no rows to engineer
var ErrEmptyPanel = errors.New("features: empty panel")

// Builder turns observation rows into the engineered panel
// ⭐ SSOT: every derived feature column is created here
type Builder struct {
	logger   *logger.Logger
	holidays *cal.BusinessCalendar
}

// NewBuilder creates a builder using the US federal holiday calendar
func NewBuilder(log *logger.Logger) *Builder {
	holidays := cal.NewBusinessCalendar()
	holidays.AddHoliday(us.Holidays...)

	return &Builder{
		logger:   log.Component("features"),
		holidays: holidays,
	}
}

// BuildFromObservations is Build over FromObservations(obs)
func (b *Builder) BuildFromObservations(obs []contracts.Observation, weather []contracts.WeatherRecord, customers []contracts.CustomerProfile) (*Panel, error) {
	return b.Build(FromObservations(obs), weather, customers)
}

// Build returns a new engineered panel; p is not modified. Each stage only
// adds columns that are absent, so building an engineered panel again
// returns it unchanged. Weather and customer enrichment are optional: when
// their input is empty or the stage fails, their columns are not added.
func (b *Builder) Build(p *Panel, weather []contracts.WeatherRecord, customers []contracts.CustomerProfile) (*Panel, error) {
	if p == nil || p.Len() == 0 {
		return nil, ErrEmptyPanel
	}

	// Quantiles and fills depend on row order
	out := p.sortByDateLocation()

	if err := b.addPromotionFeatures(out); err != nil {
		return nil, fmt.Errorf("promotion features: %w", err)
	}

	b.addCalendarFeatures(out)

	if len(weather) > 0 {
		out = b.optional("weather", out, func(p *Panel) error {
			return b.addWeatherFeatures(p, weather)
		})
	}

	b.addInteractionFeatures(out)

	if len(customers) > 0 {
		out = b.optional("customer", out, func(p *Panel) error {
			return b.addCustomerFeatures(p, customers)
		})
	}

	out.fillNaN()

	b.logger.WithFields(map[string]interface{}{
		"rows":    out.Len(),
		"columns": out.Width(),
	}).Debug("Features built")

	return out, nil
}

// optional runs stage on a copy of p and returns the copy on success. On
// error or panic it logs and returns p untouched.
func (b *Builder) optional(name string, p *Panel, stage func(*Panel) error) (result *Panel) {
	staged := p.Clone()

	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("stage", name).WithField("panic", fmt.Sprint(r)).Warn("Feature stage panicked, skipping")
			result = p
		}
	}()

	if err := stage(staged); err != nil {
		b.logger.WithField("stage", name).WithError(err).Warn("Feature stage failed, skipping")
		return p
	}
	return staged
}

// addInteractionFeatures adds promotion interactions for whichever flags exist
func (b *Builder) addInteractionFeatures(p *Panel) {
	pairs := []struct {
		name, flag string
	}{
		{ColWeekendPromotion, ColIsWeekend},
		{ColHolidayPromotion, ColIsHoliday},
		{ColRainyPromotion, ColIsRainy},
		{ColHotPromotion, ColIsHot},
	}

	promo := p.col(ColHasPromotion)
	for _, pair := range pairs {
		if p.Has(pair.name) || !p.Has(pair.flag) {
			continue
		}
		flag := p.col(pair.flag)
		v := make([]float64, p.Len())
		for i := range v {
			v[i] = flag[i] * promo[i]
		}
		p.add(pair.name, v)
	}
}
