package jobs

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedThrottle spaces the starts of each key Period/Limit apart, so no window
// of length Period ever holds more than Limit starts of one key.
type KeyedThrottle struct {
	cfg      Throttle
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewKeyedThrottle(cfg Throttle) *KeyedThrottle {
	return &KeyedThrottle{
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (t *KeyedThrottle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[key]
	if !ok {
		every := t.cfg.Period / time.Duration(t.cfg.Limit)
		l = rate.NewLimiter(rate.Every(every), 1)
		t.limiters[key] = l
	}
	return l
}

// Reserve books the next slot for key and returns how long the caller has to
// wait before using it. Slots of one key are handed out in call order.
func (t *KeyedThrottle) Reserve(key string) time.Duration {
	r := t.limiter(key).ReserveN(t.now(), 1)
	return r.DelayFrom(t.now())
}
