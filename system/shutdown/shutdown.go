package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/indicator"
)

// ExitFunc is swapped out in tests.
var ExitFunc = os.Exit

// Shutdown turns the status LED off and exits.
func Shutdown(led indicator.LED, code int) {
	if led != nil {
		if err := led.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release status LED")
		} else {
			log.Info().Msg("Status LED released")
		}
	}
	ExitFunc(code)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(nil, 1)
}
