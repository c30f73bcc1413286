// Package monitor runs the controller's cooperative main loop.
//
// Everything the loop mutates (sensor health through the bank, the persisted
// counters, the timer stamps, the last reading) is reached through a single
// Monitor and touched only from the goroutine calling Step or Run.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/console"
	"github.com/thatsimonsguy/envmon/internal/datadog"
	"github.com/thatsimonsguy/envmon/internal/indicator"
	"github.com/thatsimonsguy/envmon/internal/light"
	"github.com/thatsimonsguy/envmon/internal/model"
	"github.com/thatsimonsguy/envmon/internal/persist"
	"github.com/thatsimonsguy/envmon/internal/sensor"
	"github.com/thatsimonsguy/envmon/internal/serialport"
	"github.com/thatsimonsguy/envmon/internal/watchdog"
)

const readyLine = "SYSTEM_READY"

type Settings struct {
	HealthCheckInterval time.Duration
	HeartbeatInterval   time.Duration
	WatchdogInterval    time.Duration
	Quantum             time.Duration
	PulseEvery          uint32
	PulseLength         time.Duration
	CalibrationWindow   time.Duration
	CalibrationPeriod   time.Duration
	CaseInsensitive     bool
}

// Deps are the collaborators the loop drives. Now, Sleep and FreeMemory
// default to the real clock and runtime when nil.
type Deps struct {
	Bank       *sensor.Bank
	Store      *persist.Store
	Link       serialport.Link
	Lux        light.Converter
	LED        indicator.LED
	Metrics    *datadog.Metrics
	Now        func() time.Time
	Sleep      func(time.Duration)
	FreeMemory func() uint64
}

// runContext is the state that would otherwise be global: the record loaded
// at boot, readiness, loop count and the timer stamps.
type runContext struct {
	status        model.PersistedStatus
	loaded        bool // false after a failed load; nothing is saved until the next boot
	ready         bool
	loops         uint32
	bootMillis    uint32
	runtimeAtBoot uint32
	timers        model.TimerState
	last          model.Reading
}

type Monitor struct {
	settings Settings
	deps     Deps
	epoch    time.Time
	dog      *watchdog.Watchdog
	console  *console.Dispatcher
	out      io.Writer
	rx       []byte

	ctx runContext
}

func New(settings Settings, deps Deps) *Monitor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	if deps.FreeMemory == nil {
		deps.FreeMemory = FreeMemory
	}
	if deps.LED == nil {
		deps.LED = indicator.Nop{}
	}

	m := &Monitor{
		settings: settings,
		deps:     deps,
		epoch:    deps.Now(),
		out:      deps.Link,
		rx:       make([]byte, 64),
	}
	m.dog = watchdog.New(millis(settings.WatchdogInterval), 0)
	m.console = console.New(m.out, console.Options{CaseInsensitive: settings.CaseInsensitive})
	m.registerCommands()
	return m
}

func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}

// now returns milliseconds since the Monitor was created. It wraps after
// about 49 days; every comparison goes through model.Elapsed.
func (m *Monitor) now() uint32 {
	return uint32(m.deps.Now().Sub(m.epoch) / time.Millisecond)
}

func (m *Monitor) uptime(now uint32) uint32 {
	return (now - m.ctx.bootMillis) / 1000
}

func (m *Monitor) emit(format string, args ...any) {
	fmt.Fprintf(m.out, format+"\n", args...)
}

// Ready reports whether the boot sequence has completed since the last reset.
func (m *Monitor) Ready() bool {
	return m.ctx.ready
}

func (m *Monitor) Status() model.PersistedStatus {
	return m.ctx.status
}

func (m *Monitor) Loops() uint32 {
	return m.ctx.loops
}

// Boot loads the persisted record, counts the boot, initializes the sensors
// and announces readiness. Storage errors are logged; the loop runs anyway.
func (m *Monitor) Boot() {
	status, err := m.deps.Store.Load()
	m.ctx.loaded = err == nil
	if err != nil {
		log.Error().Err(err).Msg("Failed to load persisted status, running without persistence until next boot")
	}
	status.ResetCount++

	failed := m.deps.Bank.Initialize()
	status.SensorFailures += uint32(failed)

	m.ctx.status = status
	m.save("boot")

	now := m.now()
	m.ctx.bootMillis = now
	m.ctx.runtimeAtBoot = status.TotalRuntime
	m.ctx.loops = 0
	m.ctx.timers = model.TimerState{Watchdog: now, HealthCheck: now, Heartbeat: now}
	m.ctx.last = model.Reading{}
	m.dog.Service(now)

	m.emit(readyLine)
	m.emit(readyLine)
	m.ctx.ready = true

	m.reportHealth()
	log.Info().
		Uint32("reset_count", status.ResetCount).
		Uint32("sensor_failures", status.SensorFailures).
		Uint32("total_runtime", status.TotalRuntime).
		Int("failed_sensors", failed).
		Msg("Boot sequence complete")
}

// Step runs one iteration of the main loop.
func (m *Monitor) Step() {
	// 1. watchdog
	if m.ctx.ready {
		now := m.now()
		if m.dog.ShouldFire(now) {
			m.watchdogReinit()
			m.dog.Service(m.now())
		}
	}

	// 2. console input
	m.drain()

	// 3. a RESET or the first iteration
	if !m.ctx.ready {
		m.Boot()
		return
	}

	now := m.now()

	// 4. health check
	if model.Elapsed(now, m.ctx.timers.HealthCheck, millis(m.settings.HealthCheckInterval)) {
		m.ctx.timers.HealthCheck = now
		m.healthCheck()
	}

	// 5. heartbeat
	if model.Elapsed(now, m.ctx.timers.Heartbeat, millis(m.settings.HeartbeatInterval)) {
		m.ctx.timers.Heartbeat = now
		m.heartbeat(m.out)
	}

	// 6. reading cycle
	m.ctx.loops++
	r := m.deps.Bank.ReadAll()
	r.Timestamp = m.uptime(now)
	r.Lux = m.deps.Lux.ToLux(r.LightRaw)
	m.ctx.last = r
	m.ctx.status.LightReadings++
	m.emit("%s", FormatFrame(r, m.ctx.loops))
	m.deps.Metrics.Reading(r)

	// 7. liveness blink
	if m.settings.PulseEvery > 0 && m.ctx.loops%m.settings.PulseEvery == 0 {
		indicator.Pulse(m.deps.LED, m.settings.PulseLength, m.deps.Sleep)
	}

	// 8.
	m.deps.Sleep(m.settings.Quantum)

	// 9.
	now = m.now()
	m.updateRuntime(now)
	m.dog.Service(now)
}

// Run steps until ctx is cancelled, then checkpoints the runtime counter.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info().Msg("Starting monitor loop")
	for {
		select {
		case <-ctx.Done():
			if m.ctx.ready {
				m.updateRuntime(m.now())
				m.save("shutdown")
			}
			log.Info().Uint32("loops", m.ctx.loops).Msg("Monitor loop stopped")
			return nil
		default:
		}
		m.Step()
	}
}

func (m *Monitor) drain() {
	for {
		n, err := m.deps.Link.ReadAvailable(m.rx)
		m.console.Write(m.rx[:n])
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn().Err(err).Msg("Failed to read console input")
			}
			return
		}
		if n < len(m.rx) {
			return
		}
	}
}

func (m *Monitor) watchdogReinit() {
	log.Warn().Msg("Watchdog fired, reinitializing sensors")
	m.emit("WATCHDOG:REINIT")
	m.deps.Metrics.Count("watchdog.reinit", 1)

	before := m.healthSnapshot()
	failed := m.deps.Bank.Initialize()
	changed := m.healthSnapshot() != before
	m.ctx.status.SensorFailures += uint32(failed)
	if failed > 0 || changed {
		m.updateRuntime(m.now())
		m.save("watchdog")
	}
	m.reportHealth()
}

func (m *Monitor) healthCheck() {
	if !m.reconnect() {
		return
	}
	m.emit("HEALTH_CHECK:RECOVERED")
}

// reconnect retries FAILED sensors and persists when any health changed.
func (m *Monitor) reconnect() bool {
	changed := m.deps.Bank.Reconnect()
	if changed {
		m.deps.Metrics.Count("sensor.recovered", 1)
		m.updateRuntime(m.now())
		m.save("reconnect")
		m.reportHealth()
	}
	return changed
}

func (m *Monitor) updateRuntime(now uint32) {
	m.ctx.status.TotalRuntime = m.ctx.runtimeAtBoot + m.uptime(now)
}

func (m *Monitor) save(checkpoint string) {
	if !m.ctx.loaded {
		log.Warn().Str("checkpoint", checkpoint).Msg("Persisted status was not loaded, skipping save")
		return
	}
	if err := m.deps.Store.Save(m.ctx.status); err != nil {
		log.Error().Err(err).Str("checkpoint", checkpoint).Msg("Failed to persist status")
		return
	}
	m.ctx.status.Initialized = true
	log.Debug().Str("checkpoint", checkpoint).Msg("Persisted status")
}

func (m *Monitor) healthSnapshot() [2]model.Health {
	return [2]model.Health{m.deps.Bank.Humidity.Health(), m.deps.Bank.Pressure.Health()}
}

func (m *Monitor) reportHealth() {
	m.deps.Metrics.Health("aht20", m.deps.Bank.Humidity.Health())
	m.deps.Metrics.Health("bmp280", m.deps.Bank.Pressure.Health())
}

// FreeMemory estimates memory obtained from the OS but not in use by the heap
// or goroutine stacks.
func FreeMemory() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	used := ms.HeapInuse + ms.StackInuse
	if used > ms.Sys {
		return 0
	}
	return ms.Sys - used
}
