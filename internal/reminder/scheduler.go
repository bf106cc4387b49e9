package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

// SettingsSource supplies the current reminder cadence and sleep window.
type SettingsSource interface {
	Settings(ctx context.Context) (hydration.Settings, error)
}

// DelayAdvisor adjusts the base reminder interval from observed
// patterns. Optional; the scheduler falls back to the raw interval.
type DelayAdvisor interface {
	SmartDelay(ctx context.Context, baseMinutes int) int
}

// Due is the payload published on the reminder.due topic. DelayMinutes
// is the delay the timer was actually armed with, advisor adjustments
// and sleep-window pushes included.
type Due struct {
	At           time.Time `json:"at"`
	ChimeEnabled bool      `json:"chime_enabled"`
	DelayMinutes int       `json:"delay_minutes"`
}

// Scheduler drives the reminder cycle with a single re-armed timer.
// Each cycle asks settings (and the advisor, when present) for the next
// delay; logging a drink, snoozing, or dismissing re-arms the timer.
// Reminders due inside the sleep window are suppressed and rechecked.
type Scheduler struct {
	settings SettingsSource
	advisor  DelayAdvisor
	bus      plugin.EventBus
	cfg      ReminderConfig
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	nextAt   time.Time
	armed    time.Duration  // Delay the pending timer was armed with
	override *time.Duration // One-shot delay from a snooze

	rearm  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a reminder scheduler. advisor may be nil.
func NewScheduler(settings SettingsSource, advisor DelayAdvisor, bus plugin.EventBus, cfg ReminderConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		settings: settings,
		advisor:  advisor,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		rearm:    make(chan struct{}, 1),
	}
}

// Start launches the scheduler loop.
func (s *Scheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.run()
}

// Stop terminates the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Next returns when the next reminder will fire.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAt
}

// Reschedule discards the pending timer and computes a fresh delay.
// Called when a drink is logged or settings change.
func (s *Scheduler) Reschedule() {
	select {
	case s.rearm <- struct{}{}:
	default:
	}
}

// Snooze delays the next reminder by the given number of minutes.
func (s *Scheduler) Snooze(minutes int) time.Time {
	d := time.Duration(minutes) * time.Minute
	s.mu.Lock()
	s.override = &d
	s.mu.Unlock()
	s.Reschedule()

	at := s.now().Add(d)
	if s.bus != nil {
		s.bus.PublishAsync(s.ctx, plugin.Event{
			Topic:   TopicReminderSnoozed,
			Source:  "reminder",
			Payload: at,
		})
	}
	return at
}

// Dismiss acknowledges the current reminder and restarts a full cycle.
func (s *Scheduler) Dismiss() {
	s.Reschedule()
	if s.bus != nil {
		s.bus.PublishAsync(s.ctx, plugin.Event{
			Topic:   TopicReminderDismissed,
			Source:  "reminder",
			Payload: s.now(),
		})
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		delay := s.nextDelay()
		timer := time.NewTimer(delay)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-s.rearm:
			timer.Stop()
		case <-timer.C:
			s.fire()
		}
	}
}

// nextDelay computes how long to wait before the next reminder and
// records the scheduled fire time. A pending snooze override wins;
// otherwise the settings interval (advisor-adjusted) applies, pushed
// past the sleep window when it would land inside it.
func (s *Scheduler) nextDelay() time.Duration {
	now := s.now()

	s.mu.Lock()
	override := s.override
	s.override = nil
	s.mu.Unlock()

	if override != nil {
		s.setNext(now.Add(*override), *override)
		return *override
	}

	cfg, err := s.settings.Settings(s.ctx)
	if err != nil {
		s.logger.Warn("failed to load settings, using fallback interval", zap.Error(err))
		s.setNext(now.Add(s.cfg.FallbackInterval), s.cfg.FallbackInterval)
		return s.cfg.FallbackInterval
	}

	base := cfg.ReminderIntervalMin
	if s.advisor != nil {
		base = s.advisor.SmartDelay(s.ctx, base)
	}

	fireAt := now.Add(time.Duration(base) * time.Minute)
	if inSleepWindow(fireAt, cfg.SleepStartHour, cfg.SleepEndHour) {
		fireAt = wakeTime(fireAt, cfg.SleepEndHour)
		s.logger.Debug("reminder pushed past sleep window", zap.Time("fire_at", fireAt))
	}

	delay := fireAt.Sub(now)
	s.setNext(fireAt, delay)
	return delay
}

func (s *Scheduler) setNext(at time.Time, delay time.Duration) {
	s.mu.Lock()
	s.nextAt = at
	s.armed = delay
	s.mu.Unlock()
}

// fire publishes the due event unless the clock has drifted into the
// sleep window since scheduling, in which case it stays quiet and the
// loop rechecks after the configured interval.
func (s *Scheduler) fire() {
	now := s.now()

	cfg, err := s.settings.Settings(s.ctx)
	if err == nil && inSleepWindow(now, cfg.SleepStartHour, cfg.SleepEndHour) {
		remindersSuppressed.Inc()
		s.logger.Debug("reminder suppressed during sleep window")
		s.mu.Lock()
		d := s.cfg.SuppressedRecheck
		s.override = &d
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	armed := s.armed
	s.mu.Unlock()

	remindersFired.Inc()
	s.logger.Info("reminder due", zap.Time("at", now))
	if s.bus != nil {
		s.bus.PublishAsync(s.ctx, plugin.Event{
			Topic:  TopicReminderDue,
			Source: "reminder",
			Payload: Due{
				At:           now,
				ChimeEnabled: err == nil && cfg.ChimeEnabled,
				DelayMinutes: int(armed.Minutes()),
			},
		})
	}
}

// inSleepWindow reports whether t falls inside the [start, end) hour
// window, which may cross midnight. Equal hours mean no window.
func inSleepWindow(t time.Time, startHour, endHour int) bool {
	if startHour == endHour {
		return false
	}
	h := t.Hour()
	if startHour < endHour {
		return h >= startHour && h < endHour
	}
	return h >= startHour || h < endHour
}

// wakeTime returns the next top of the end hour at or after t.
func wakeTime(t time.Time, endHour int) time.Time {
	wake := time.Date(t.Year(), t.Month(), t.Day(), endHour, 0, 0, 0, t.Location())
	if wake.Before(t) {
		wake = wake.AddDate(0, 0, 1)
	}
	return wake
}
