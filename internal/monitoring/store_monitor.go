// Package monitoring runs background checks on the service's dependencies.
package monitoring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ActionSystemHealth is broadcast to global subscribers when store health changes.
const ActionSystemHealth = "system.health"

const checkTimeout = 5 * time.Second

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Notifier publishes activity to websocket subscribers.
type Notifier interface {
	Notify(topic, action string, payload interface{})
}

// HealthEvent is the payload of a health change broadcast.
type HealthEvent struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
}

// StoreMonitor pings the store on a cron schedule and announces health changes.
type StoreMonitor struct {
	store    Pinger
	notifier Notifier
	topic    string
	cron     *cron.Cron
	healthy  atomic.Bool
}

// NewStoreMonitor creates a monitor that checks the store on schedule, a
// standard cron expression or descriptor such as "@every 30s". Changes are
// published to topic.
func NewStoreMonitor(store Pinger, notifier Notifier, topic, schedule string) (*StoreMonitor, error) {
	m := &StoreMonitor{
		store:    store,
		notifier: notifier,
		topic:    topic,
		cron:     cron.New(),
	}
	m.healthy.Store(true)
	if _, err := m.cron.AddFunc(schedule, func() { m.Check(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid health check schedule %q: %w", schedule, err)
	}
	return m, nil
}

// Start runs a first check and then starts the schedule.
func (m *StoreMonitor) Start() {
	log.Info().Msg("Starting store health monitor...")
	m.Check(context.Background())
	m.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish.
func (m *StoreMonitor) Stop() {
	<-m.cron.Stop().Done()
	log.Info().Msg("Stopped store health monitor.")
}

// Healthy reports the result of the last check.
func (m *StoreMonitor) Healthy() bool {
	return m.healthy.Load()
}

// Check pings the store once and returns whether it is reachable.
func (m *StoreMonitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	err := m.store.Ping(ctx)
	healthy := err == nil
	if m.healthy.Swap(healthy) == healthy {
		return healthy
	}

	if healthy {
		log.Info().Msg("Store is reachable again")
	} else {
		log.Error().Err(err).Msg("Store health check failed")
	}
	m.notifier.Notify(m.topic, ActionSystemHealth, HealthEvent{Healthy: healthy, CheckedAt: time.Now().UTC()})
	return healthy
}
