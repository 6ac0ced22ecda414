package quota

import (
	"context"
	"errors"
	"sync"
	"time"

	"content-pipeline/config"
)

// ErrDailyQuotaExceeded is returned by Acquire once the per-day budget is spent.
var ErrDailyQuotaExceeded = errors.New("llm daily quota exceeded")

const dayLayout = "2006-01-02"

// Limiter 는 LLM 호출에 대한 분당/일일 한도를 관리한다.
// 호출마다 다음 슬롯을 먼저 예약하고 그 시각까지 기다리는 방식이다.
// 프로세스 단위 인메모리 상태이며, 재시작되면 초기화된다.
type Limiter struct {
	mu sync.Mutex

	dailyLimit int
	interval   time.Duration

	day  string
	used int
	// next 는 다음 호출이 시작될 수 있는 가장 이른 시각이다.
	next time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter 는 llm_quota 설정으로 Limiter 를 생성한다. 0 이하인 값은 해당 방향의 제한을 두지 않는다.
func NewLimiter(q config.LLMQuotaConfig) *Limiter {
	l := &Limiter{now: time.Now, sleep: sleepCtx}
	if q.RequestsPerDay > 0 {
		l.dailyLimit = q.RequestsPerDay
	}
	if q.RequestsPerMinute > 0 {
		l.interval = time.Minute / time.Duration(q.RequestsPerMinute)
	}
	return l
}

// slot is one reserved call start.
type slot struct {
	start time.Time
	wait  time.Duration
}

// Acquire reserves the next call slot and waits for it.
// If ctx ends while waiting, the slot is handed back when no later caller depends on it.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := l.reserve()
	if err != nil {
		return err
	}
	if s.wait <= 0 {
		return nil
	}
	if err := l.sleep(ctx, s.wait); err != nil {
		l.release(s)
		return err
	}
	return nil
}

func (l *Limiter) reserve() (slot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	start := now
	if l.next.After(start) {
		start = l.next
	}

	// 일일 한도는 호출이 실제로 시작되는 날 기준으로 센다
	if key := start.Format(dayLayout); key != l.day {
		l.day = key
		l.used = 0
	}
	if l.dailyLimit > 0 && l.used >= l.dailyLimit {
		return slot{}, ErrDailyQuotaExceeded
	}

	l.used++
	if l.interval > 0 {
		l.next = start.Add(l.interval)
	}
	return slot{start: start, wait: start.Sub(now)}, nil
}

func (l *Limiter) release(s slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval > 0 && !l.next.Equal(s.start.Add(l.interval)) {
		return
	}
	l.next = s.start
	if s.start.Format(dayLayout) == l.day && l.used > 0 {
		l.used--
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
