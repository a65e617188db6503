package room

import (
	"time"
)

// TimerScheduler fires each armed deadline once, grace after its FireAt.
// Timers are never cancelled; the room drops fires that no longer match the
// open question.
type TimerScheduler struct {
	grace time.Duration
	now   func() time.Time
	fire  func(Deadline)
}

func NewTimerScheduler(grace time.Duration, now func() time.Time, fire func(Deadline)) *TimerScheduler {
	if now == nil {
		now = time.Now
	}
	return &TimerScheduler{grace: grace, now: now, fire: fire}
}

func (s *TimerScheduler) Arm(deadline Deadline) {
	wait := deadline.FireAt.Sub(s.now()) + s.grace
	if wait < 0 {
		wait = 0
	}
	time.AfterFunc(wait, func() {
		s.fire(deadline)
	})
}
