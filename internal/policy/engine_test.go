package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kidcan/agent/internal/domain"
)

// wednesdayAt returns a known Wednesday at the given clock time.
// 2024-01-03 is a Wednesday.
func wednesdayAt(hour, min int) time.Time {
	return time.Date(2024, 1, 3, hour, min, 0, 0, time.UTC)
}

func TestShouldBlock_ManualEnabled(t *testing.T) {
	e := NewEngine(nil)
	now := wednesdayAt(12, 0)

	assert.False(t, e.ShouldBlock("com.example.game", now))

	e.SetBlockingEnabled(true)
	assert.True(t, e.ShouldBlock("com.example.game", now))

	e.SetBlockingEnabled(false)
	assert.False(t, e.ShouldBlock("com.example.game", now))
}

func TestShouldBlock_SnoozeOverridesEverything(t *testing.T) {
	e := NewEngine(nil)
	e.SetBlockingEnabled(true)
	e.SetSchedule([]domain.TimeWindow{
		{DayOfWeek: 3, StartMinute: 0, EndMinute: 1439},
	})

	e.Snooze(time.Hour)
	assert.False(t, e.ShouldBlock("com.example.game", time.Now()))
	assert.False(t, e.ShouldBlock("com.anything.else", time.Now()))
}

func TestShouldBlock_SnoozeDoesNotStack(t *testing.T) {
	e := NewEngine(nil)
	e.SetBlockingEnabled(true)

	e.Snooze(time.Hour)
	e.Snooze(time.Millisecond) // overwrites, does not extend

	time.Sleep(5 * time.Millisecond)
	assert.True(t, e.ShouldBlock("com.example.game", time.Now()))
}

func TestShouldBlock_AllowListsWin(t *testing.T) {
	e := NewEngine([]string{"com.google.android.dialer"})
	e.SetBlockingEnabled(true)
	now := wednesdayAt(12, 0)

	assert.False(t, e.ShouldBlock("com.google.android.dialer", now))
	assert.False(t, e.ShouldBlock("com.android.systemui", now))
	assert.False(t, e.ShouldBlock("com.android.settings", now))
	assert.True(t, e.ShouldBlock("com.example.game", now))
}

func TestShouldBlock_ScheduleWindow(t *testing.T) {
	e := NewEngine(nil)
	// Wed 09:00-10:00
	e.SetSchedule([]domain.TimeWindow{
		{DayOfWeek: 3, StartMinute: 540, EndMinute: 600},
	})

	assert.True(t, e.ShouldBlock("com.example.game", wednesdayAt(9, 30)))
	// Ends are inclusive.
	assert.True(t, e.ShouldBlock("com.example.game", wednesdayAt(9, 0)))
	assert.True(t, e.ShouldBlock("com.example.game", wednesdayAt(10, 0)))
	assert.False(t, e.ShouldBlock("com.example.game", wednesdayAt(10, 1)))
	assert.False(t, e.ShouldBlock("com.example.game", wednesdayAt(8, 59)))
	// Thursday 09:30 is outside a Wednesday window.
	thu := wednesdayAt(9, 30).AddDate(0, 0, 1)
	assert.False(t, e.ShouldBlock("com.example.game", thu))
}

func TestShouldBlock_ManualOrScheduleUnion(t *testing.T) {
	e := NewEngine(nil)
	e.SetSchedule([]domain.TimeWindow{
		{DayOfWeek: 3, StartMinute: 540, EndMinute: 600},
	})

	// Outside the window but manual on: still blocked.
	e.SetBlockingEnabled(true)
	assert.True(t, e.ShouldBlock("com.example.game", wednesdayAt(15, 0)))
}

func TestSetSchedule_ReplacesWholesale(t *testing.T) {
	e := NewEngine(nil)
	e.SetSchedule([]domain.TimeWindow{
		{DayOfWeek: 3, StartMinute: 540, EndMinute: 600},
	})
	e.SetSchedule(nil)

	assert.False(t, e.ShouldBlock("com.example.game", wednesdayAt(9, 30)))
}

func TestISOWeekday(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday.
	for i := 0; i < 7; i++ {
		d := time.Date(2024, 1, 1+i, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, i+1, domain.ISOWeekday(d))
	}
}

type fakeApps struct {
	dialer, sms string
}

func (f fakeApps) DefaultDialerPackage() string { return f.dialer }
func (f fakeApps) DefaultSMSPackage() string    { return f.sms }

func TestDefaultWhitelist(t *testing.T) {
	wl := DefaultWhitelist(fakeApps{dialer: "com.oem.dialer", sms: "com.google.android.apps.messaging"})

	assert.Contains(t, wl, "com.oem.dialer")
	assert.Contains(t, wl, "com.android.dialer")
	assert.Contains(t, wl, "com.google.android.contacts")

	// Platform default that duplicates a candidate is not added twice.
	count := 0
	for _, pkg := range wl {
		if pkg == "com.google.android.apps.messaging" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDefaultWhitelist_NilProvider(t *testing.T) {
	wl := DefaultWhitelist(nil)
	assert.NotEmpty(t, wl)
}
