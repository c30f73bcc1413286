package monitor

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

func (m *Monitor) registerCommands() {
	m.console.Handle("PING", func(w io.Writer) {
		fmt.Fprintln(w, "PONG")
	})
	m.console.Handle("STATUS", m.status)
	m.console.Handle("RESET", m.reset)
	m.console.Handle("RECONNECT", func(w io.Writer) {
		changed := 0
		if m.reconnect() {
			changed = 1
		}
		fmt.Fprintf(w, "RECONNECT:DONE,CHANGED:%d\n", changed)
	})
	m.console.Handle("HEARTBEAT", m.heartbeat)
	m.console.Handle("INFO", m.info)
	m.console.Handle("LIGHT_CAL", m.calibrateLight)
}

func (m *Monitor) status(w io.Writer) {
	now := m.now()
	fmt.Fprintln(w, FormatStatus(
		m.deps.Bank.Humidity.Health(),
		m.deps.Bank.Pressure.Health(),
		m.ctx.loops,
		m.uptime(now),
		m.deps.FreeMemory(),
	))
}

func (m *Monitor) heartbeat(w io.Writer) {
	now := m.now()
	fmt.Fprintln(w, FormatHeartbeat(m.ctx.loops, m.deps.FreeMemory(), m.uptime(now), m.ctx.last.Lux))
}

// reset returns the loop to the booting state. The runtime accrued so far is
// saved first so the reboot does not lose it.
func (m *Monitor) reset(w io.Writer) {
	log.Warn().Msg("Reset requested from console")
	fmt.Fprintln(w, "RESETTING")
	if m.ctx.ready {
		m.updateRuntime(m.now())
		m.save("reset")
	}
	m.ctx.ready = false
}

func (m *Monitor) info(w io.Writer) {
	s := m.ctx.status
	fmt.Fprintln(w, "=== SYSTEM INFO ===")
	fmt.Fprintf(w, "TOTAL_RUNTIME:%d\n", s.TotalRuntime)
	fmt.Fprintf(w, "RESET_COUNT:%d\n", s.ResetCount)
	fmt.Fprintf(w, "SENSOR_FAILURES:%d\n", s.SensorFailures)
	fmt.Fprintf(w, "LIGHT_READINGS:%d\n", s.LightReadings)
	fmt.Fprintf(w, "UPTIME:%d\n", m.uptime(m.now()))
	fmt.Fprintf(w, "LOOPS:%d\n", m.ctx.loops)
	fmt.Fprintf(w, "FREE_RAM:%d\n", m.deps.FreeMemory())
	fmt.Fprintln(w, "===================")
}

// calibrateLight blocks for the whole calibration window.
func (m *Monitor) calibrateLight(w io.Writer) {
	fmt.Fprintln(w, "LIGHT_CAL:START")
	cal := m.deps.Lux.Calibrate(
		m.deps.Bank.Light.Read,
		m.settings.CalibrationWindow,
		m.settings.CalibrationPeriod,
		m.deps.Now,
		m.deps.Sleep,
	)
	log.Info().
		Uint16("min", cal.Min).
		Uint16("max", cal.Max).
		Float32("mean", cal.Mean).
		Int("samples", cal.Samples).
		Msg("Light calibration finished")
	fmt.Fprintf(w, "LIGHT_CAL:MIN:%d,MAX:%d,AVG:%.2f,LUX:%.2f\n", cal.Min, cal.Max, cal.Mean, cal.Lux)
}
