package reconcile

import (
	"sync"
	"time"
)

// Clock выдает метки времени записи (epoch ms). Каждая следующая метка
// строго больше предыдущей, даже если системные часы перевели назад.
type Clock struct {
	now  func() time.Time
	last int64      // последняя выданная или наблюденная метка
	mu   sync.Mutex // мьютекс для потокобезопасности
}

// NewClock создает часы поверх системного времени.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource создает часы с заданным источником времени.
// Используется для тестирования.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now возвращает текущее время, а если оно не больше последней метки,
// последнюю метку + 1.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe учитывает метку, полученную от remote: последующие локальные
// записи получат метку строго больше нее.
func (c *Clock) Observe(remote int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.last {
		c.last = remote
	}
}

// Last возвращает последнюю метку без ее изменения.
func (c *Clock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last
}
