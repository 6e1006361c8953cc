package watcher

import (
	"context"
	"log"
	"time"
)

// Poller calls poll on a fixed interval. Remote datasets have no file to
// watch, so they are re-fetched on a schedule instead.
type Poller struct {
	name     string
	interval time.Duration
	poll     func()
}

// NewPoller creates a poller; intervals below one second are raised to one second
func NewPoller(name string, interval time.Duration, poll func()) *Poller {
	if interval < time.Second {
		interval = time.Second
	}
	return &Poller{name: name, interval: interval, poll: poll}
}

// Interval returns the effective polling interval
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls until ctx is done
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Printf("Started polling loop for %s (interval=%s)", p.name, p.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Stopping polling loop for %s", p.name)
			return ctx.Err()
		case <-ticker.C:
			p.poll()
		}
	}
}
