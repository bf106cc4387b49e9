package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

type fakeSettings struct {
	s   hydration.Settings
	err error
}

func (f *fakeSettings) Settings(context.Context) (hydration.Settings, error) {
	return f.s, f.err
}

type fakeAdvisor struct {
	delay int
}

func (f *fakeAdvisor) SmartDelay(_ context.Context, _ int) int {
	return f.delay
}

// captureBus records published events for inspection.
type captureBus struct {
	mu     sync.Mutex
	events []plugin.Event
}

func (b *captureBus) Publish(_ context.Context, e plugin.Event) error {
	b.PublishAsync(nil, e)
	return nil
}

func (b *captureBus) PublishAsync(_ context.Context, e plugin.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *captureBus) Subscribe(string, plugin.EventHandler) func() { return func() {} }
func (b *captureBus) SubscribeAll(plugin.EventHandler) func()      { return func() {} }

func (b *captureBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Topic
	}
	return out
}

func newTestScheduler(src SettingsSource, advisor DelayAdvisor, bus plugin.EventBus, now time.Time) *Scheduler {
	s := NewScheduler(src, advisor, bus, DefaultConfig(), zap.NewNop())
	s.now = func() time.Time { return now }
	s.ctx = context.Background()
	return s
}

func daySettings() hydration.Settings {
	s := hydration.DefaultSettings()
	s.ReminderIntervalMin = 45
	s.SleepStartHour = 22
	s.SleepEndHour = 7
	return s
}

func TestInSleepWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

	tests := []struct {
		name       string
		t          time.Time
		start, end int
		want       bool
	}{
		{"midnight crossing, late evening", at(23), 22, 7, true},
		{"midnight crossing, early morning", at(3), 22, 7, true},
		{"midnight crossing, start hour", at(22), 22, 7, true},
		{"midnight crossing, end hour is awake", at(7), 22, 7, false},
		{"midnight crossing, midday", at(14), 22, 7, false},
		{"same day window, inside", at(2), 1, 5, true},
		{"same day window, outside", at(6), 1, 5, false},
		{"same day window, end hour is awake", at(5), 1, 5, false},
		{"equal hours means no window", at(13), 13, 13, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inSleepWindow(tt.t, tt.start, tt.end); got != tt.want {
				t.Errorf("inSleepWindow(%v, %d, %d) = %v, want %v", tt.t.Hour(), tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestWakeTime(t *testing.T) {
	early := time.Date(2026, 3, 10, 2, 30, 0, 0, time.Local)
	if got := wakeTime(early, 7); got.Day() != 10 || got.Hour() != 7 {
		t.Errorf("wakeTime before end hour = %v, want 07:00 same day", got)
	}

	late := time.Date(2026, 3, 10, 23, 15, 0, 0, time.Local)
	if got := wakeTime(late, 7); got.Day() != 11 || got.Hour() != 7 {
		t.Errorf("wakeTime after end hour = %v, want 07:00 next day", got)
	}
}

func TestNextDelayUsesSettingsInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, nil, now)

	if got := s.nextDelay(); got != 45*time.Minute {
		t.Fatalf("nextDelay = %v, want 45m", got)
	}
	if want := now.Add(45 * time.Minute); !s.Next().Equal(want) {
		t.Errorf("Next = %v, want %v", s.Next(), want)
	}
}

func TestNextDelayConsultsAdvisor(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	s := newTestScheduler(&fakeSettings{s: daySettings()}, &fakeAdvisor{delay: 30}, nil, now)

	if got := s.nextDelay(); got != 30*time.Minute {
		t.Fatalf("nextDelay with advisor = %v, want 30m", got)
	}
}

func TestNextDelayFallsBackOnSettingsError(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	s := newTestScheduler(&fakeSettings{err: errors.New("db gone")}, nil, nil, now)

	if got := s.nextDelay(); got != DefaultConfig().FallbackInterval {
		t.Fatalf("nextDelay = %v, want fallback %v", got, DefaultConfig().FallbackInterval)
	}
}

func TestNextDelaySnoozeOverrideWinsOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, &captureBus{}, now)

	s.Snooze(5)
	if got := s.nextDelay(); got != 5*time.Minute {
		t.Fatalf("nextDelay after snooze = %v, want 5m", got)
	}
	// The override is one-shot; the next cycle returns to the interval.
	if got := s.nextDelay(); got != 45*time.Minute {
		t.Fatalf("nextDelay second call = %v, want 45m", got)
	}
}

func TestNextDelayPushedPastSleepWindow(t *testing.T) {
	// 21:45 plus a 45 minute interval lands at 22:30, inside the
	// 22:00-07:00 sleep window, so the reminder waits until 07:00.
	now := time.Date(2026, 3, 10, 21, 45, 0, 0, time.Local)
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, nil, now)

	s.nextDelay()
	next := s.Next()
	if next.Hour() != 7 || next.Day() != 11 {
		t.Fatalf("Next = %v, want 07:00 on the next day", next)
	}
}

func TestFirePublishesDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	bus := &captureBus{}
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, bus, now)

	s.nextDelay()
	s.fire()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	e := bus.events[0]
	if e.Topic != TopicReminderDue {
		t.Errorf("topic = %q, want %q", e.Topic, TopicReminderDue)
	}
	due, ok := e.Payload.(Due)
	if !ok {
		t.Fatalf("payload is %T, want Due", e.Payload)
	}
	if !due.At.Equal(now) {
		t.Errorf("due.At = %v, want %v", due.At, now)
	}
	if !due.ChimeEnabled {
		t.Error("expected chime enabled from default settings")
	}
	if due.DelayMinutes != 45 {
		t.Errorf("due.DelayMinutes = %d, want 45", due.DelayMinutes)
	}
}

func TestFirePublishesAdvisorAdjustedDelay(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	bus := &captureBus{}
	s := newTestScheduler(&fakeSettings{s: daySettings()}, &fakeAdvisor{delay: 30}, bus, now)

	s.nextDelay()
	s.fire()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	due, ok := bus.events[0].Payload.(Due)
	if !ok {
		t.Fatalf("payload is %T, want Due", bus.events[0].Payload)
	}
	if due.DelayMinutes != 30 {
		t.Errorf("due.DelayMinutes = %d, want the armed delay 30", due.DelayMinutes)
	}
}

func TestFireSuppressedDuringSleepWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.Local)
	bus := &captureBus{}
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, bus, now)

	s.fire()

	if got := bus.topics(); len(got) != 0 {
		t.Fatalf("published %v during sleep window, want nothing", got)
	}
	// The suppressed fire schedules a recheck instead.
	if got := s.nextDelay(); got != DefaultConfig().SuppressedRecheck {
		t.Errorf("recheck delay = %v, want %v", got, DefaultConfig().SuppressedRecheck)
	}
}

func TestSnoozePublishesAndReturnsTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	bus := &captureBus{}
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, bus, now)

	at := s.Snooze(10)
	if want := now.Add(10 * time.Minute); !at.Equal(want) {
		t.Errorf("Snooze returned %v, want %v", at, want)
	}
	if got := bus.topics(); len(got) != 1 || got[0] != TopicReminderSnoozed {
		t.Errorf("published %v, want [%s]", got, TopicReminderSnoozed)
	}
}

func TestDismissPublishes(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	bus := &captureBus{}
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, bus, now)

	s.Dismiss()
	if got := bus.topics(); len(got) != 1 || got[0] != TopicReminderDismissed {
		t.Errorf("published %v, want [%s]", got, TopicReminderDismissed)
	}
}

func TestRescheduleNeverBlocks(t *testing.T) {
	s := newTestScheduler(&fakeSettings{s: daySettings()}, nil, nil, time.Now())
	// No loop is draining the channel; repeated calls must still return.
	for i := 0; i < 10; i++ {
		s.Reschedule()
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(&fakeSettings{s: daySettings()}, nil, &captureBus{}, DefaultConfig(), zap.NewNop())
	s.Start()
	s.Reschedule()
	s.Stop()
}
