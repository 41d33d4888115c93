package health

import (
	"context"
	"runtime"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	CheckPass       = "pass"
	CheckFail       = "fail"

	// Threshold is the slowest database read still considered healthy.
	Threshold    = 1000 * time.Millisecond
	probeTimeout = 5 * time.Second
)

// Prober performs one lightweight read against the backend.
type Prober interface {
	Probe(ctx context.Context) error
}

type Check struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
	Error        string `json:"error,omitempty"`
}

type Checks struct {
	Database Check `json:"database"`
	API      Check `json:"api"`
}

type Memory struct {
	HeapAlloc  uint64 `json:"heapAlloc"`
	HeapSys    uint64 `json:"heapSys"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

type Report struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    Checks    `json:"checks"`
	Uptime    float64   `json:"uptime"`
	Memory    Memory    `json:"memory"`
	Version   string    `json:"version"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

type Checker struct {
	db      Prober
	version string
	started time.Time
	now     func() time.Time
}

func NewChecker(db Prober, version string) *Checker {
	return &Checker{db: db, version: version, started: time.Now(), now: time.Now}
}

// Run probes the database once. The report is healthy only when the read
// succeeded and took less than Threshold; the database check itself reflects
// only the read error.
func (c *Checker) Run(ctx context.Context) Report {
	start := c.now()

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := c.db.Probe(probeCtx)
	cancel()

	dbElapsed := c.now().Sub(start)

	database := Check{Status: CheckPass, ResponseTime: dbElapsed.Milliseconds()}
	if err != nil {
		database.Status = CheckFail
		database.Error = err.Error()
	}

	status := StatusHealthy
	if err != nil || dbElapsed >= Threshold {
		status = StatusUnhealthy
	}

	end := c.now()
	return Report{
		Status:    status,
		Timestamp: end.UTC(),
		Checks: Checks{
			Database: database,
			API:      Check{Status: CheckPass, ResponseTime: end.Sub(start).Milliseconds()},
		},
		Uptime:  end.Sub(c.started).Seconds(),
		Memory:  readMemory(),
		Version: c.version,
	}
}

func readMemory() Memory {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Memory{
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}
