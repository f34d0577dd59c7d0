package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-compare/internal/weather"
)

// runTimeout bounds a single monitor run.
const runTimeout = 30 * time.Second

// Report is the outcome of polling one saved location.
type Report struct {
	Name                string
	Period              string
	Temperature         int
	TemperatureUnit     string
	PrecipitationChance float64
	Err                 error
}

// Scheduler periodically fetches forecasts for every saved location and logs
// a one-line summary per location.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	interval  time.Duration
	logger    *zap.SugaredLogger
}

// New creates a new Scheduler. An interval of zero disables it.
func New(service *weather.Service, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Infow("monitor disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Infow("monitor started", "interval", s.interval.String())
	return nil
}

// RunOnce polls every saved location concurrently. Failures are logged and
// reported but never stop the run.
func (s *Scheduler) RunOnce(ctx context.Context) []Report {
	store := s.service.Store()
	if store == nil {
		return nil
	}
	names := store.Names(ctx)
	if len(names) == 0 {
		s.logger.Debugw("monitor: no saved locations")
		return nil
	}

	reports := make([]Report, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = s.poll(ctx, store, name)
		}()
	}
	wg.Wait()

	for _, r := range reports {
		if r.Err != nil {
			s.logger.Warnw("monitor: forecast failed", "location", r.Name, "error", r.Err)
			continue
		}
		s.logger.Infow("monitor: forecast",
			"location", r.Name,
			"period", r.Period,
			"temperature", r.Temperature,
			"unit", r.TemperatureUnit,
			"precipitation", r.PrecipitationChance,
		)
	}
	return reports
}

func (s *Scheduler) poll(ctx context.Context, store weather.LocationStore, name string) Report {
	r := Report{Name: name}
	coords, ok := store.Get(ctx, name)
	if !ok {
		// Removed between Names and Get.
		r.Err = weather.NewError(weather.ErrNotFound, 0, "Location not found", nil)
		return r
	}

	forecast, err := s.service.Forecast(ctx, coords.Lat, coords.Lon)
	if err != nil {
		r.Err = err
		return r
	}
	if len(forecast.Forecast) == 0 {
		r.Err = weather.NewError(weather.ErrInvalidResponse, 0, "No daytime periods in forecast", nil)
		return r
	}

	first := forecast.Forecast[0]
	r.Period = first.Name
	r.Temperature = first.Temperature
	r.TemperatureUnit = first.TemperatureUnit
	r.PrecipitationChance = first.PrecipitationChance()
	return r
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
