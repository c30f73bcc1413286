package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thatsimonsguy/envmon/internal/model"
)

// FormatFrame renders the DATA line. I2C fields of a sensor that was not
// read, or whose values were rejected, are the literal 0.
func FormatFrame(r model.Reading, loops uint32) string {
	var b strings.Builder
	b.WriteString("DATA:")
	b.WriteString(strconv.FormatUint(uint64(r.Timestamp), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(uint64(loops), 10))
	b.WriteByte(',')
	b.WriteString(field(r.TempA, r.HumidityValid))
	b.WriteByte(',')
	b.WriteString(field(r.Humidity, r.HumidityValid))
	b.WriteByte(',')
	b.WriteString(field(r.TempB, r.PressureValid))
	b.WriteByte(',')
	b.WriteString(field(r.Pressure, r.PressureValid))
	fmt.Fprintf(&b, ",%d,%d,%.2f", r.GasRaw, r.LightRaw, r.Lux)
	return b.String()
}

func field(v float64, valid bool) string {
	if !valid {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func FormatHeartbeat(loops uint32, free uint64, uptime uint32, lux float32) string {
	return fmt.Sprintf("HEARTBEAT:%d,RAM:%d,UPTIME:%d,LIGHT:%.2f", loops, free, uptime, lux)
}

func FormatStatus(humidity, pressure model.Health, loops, uptime uint32, free uint64) string {
	return fmt.Sprintf("AHT20:%s,BMP280:%s,TEMT6000:OK,LOOPS:%d,UPTIME:%d,RAM:%d",
		okOrFail(humidity), okOrFail(pressure), loops, uptime, free)
}

func okOrFail(h model.Health) string {
	if h == model.HealthOK {
		return "OK"
	}
	return "FAIL"
}
