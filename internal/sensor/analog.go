package sensor

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// IIOChannel reads a raw ADC count from a Linux IIO sysfs attribute such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type IIOChannel struct {
	Name string
	Path string
}

func (c IIOChannel) Read() uint16 {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		log.Error().Err(err).Str("channel", c.Name).Msg("failed to read analog channel")
		return 0
	}

	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		log.Error().Err(err).Str("channel", c.Name).Msg("failed to parse analog channel value")
		return 0
	}

	switch {
	case raw < 0:
		return 0
	case raw > 0xFFFF:
		return 0xFFFF
	}
	return uint16(raw)
}
