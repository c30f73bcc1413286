package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/logging"
	"github.com/thatsimonsguy/envmon/internal/reader"
	"github.com/thatsimonsguy/envmon/internal/serialport"
)

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(string) error {
	*v++
	return nil
}

func (v verbosity) level() zerolog.Level {
	switch {
	case v > 1:
		return zerolog.DebugLevel
	case v == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	var v verbosity
	port := flag.String("port", getEnv("ARDUINO_PORT", "/dev/arduino"), "Serial port of the controller")
	baud := flag.Int("baud", getEnvInt("ARDUINO_BAUD", 9600), "Baud rate")
	useMQTT := flag.Bool("mqtt", false, "Publish every line to MQTT")
	mqttHost := flag.String("mqtt-host", getEnv("MQTT_HOST", "localhost"), "MQTT broker host")
	mqttPort := flag.Int("mqtt-port", getEnvInt("MQTT_PORT", 1883), "MQTT broker port")
	topic := flag.String("topic", getEnv("MQTT_TOPIC", "sensors/raw"), "MQTT topic for raw lines")
	flag.Var(&v, "v", "Verbosity, repeat for more (-v -v)")
	flag.Parse()

	// stdout carries the data lines, logs go to stderr
	logging.Init(v.level(), "", true)

	r := &reader.Reader{
		Out: os.Stdout,
		Open: func() (io.ReadCloser, error) {
			return serialport.OpenStream(*port, *baud, 2*time.Second)
		},
	}

	if *useMQTT {
		pub, err := reader.NewMQTTPublisher(*mqttHost, *mqttPort, *topic)
		if err != nil {
			log.Error().Err(err).Msg("MQTT disabled")
		} else {
			defer pub.Close()
			r.Publisher = pub
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", *port).Int("baud", *baud).Msg("Starting serial reader")
	if err := r.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Reader exited with error")
	}
}
