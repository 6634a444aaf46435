package service

import (
	"time"

	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/metrics"
	"github.com/mmynk/pms/internal/models"
)

// Option configures the services.
type Option func(*options)

type options struct {
	now       func() time.Time
	loc       *time.Location
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func newOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		loc:       time.UTC,
		publisher: events.LogPublisher{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the property's time zone, which decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithPublisher sets where domain events go after commit.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithMetrics sets the Prometheus collectors to update.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// today is the current calendar date at the property.
func (o options) today() time.Time {
	return models.DateOf(o.now(), o.loc)
}

func (o options) event(eventType string) events.Event {
	return events.New(eventType, o.now())
}
