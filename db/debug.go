package db

import (
	"fmt"
	"io"

	"github.com/thatsimonsguy/envmon/internal/persist"
)

func ShowStatusCLI(dbPath string, out io.Writer) error {
	n, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer n.Close()

	block := make([]byte, persist.BlockSize)
	if err := n.ReadBlock(block); err != nil {
		return err
	}

	status, ok := persist.Decode(block)
	if !ok {
		fmt.Fprintln(out, "NVRAM is uninitialized (sentinel not set)")
		return nil
	}

	fmt.Fprintf(out, "Resets:          %d\n", status.ResetCount)
	fmt.Fprintf(out, "Sensor failures: %d\n", status.SensorFailures)
	fmt.Fprintf(out, "Light readings:  %d\n", status.LightReadings)
	fmt.Fprintf(out, "Total runtime:   %d s\n", status.TotalRuntime)
	if at, err := n.LastWrite(); err == nil {
		fmt.Fprintf(out, "Last write:      %s\n", at.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func ClearStatusCLI(dbPath string) error {
	n, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer n.Close()
	return n.Erase()
}
