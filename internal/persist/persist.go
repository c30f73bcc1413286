// Package persist keeps the operational counters in a fixed-layout block at
// offset 0 of a non-volatile medium.
package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/model"
)

const (
	// Marker is the first-boot sentinel. Erased (0xFF) and zeroed media
	// both read as uninitialized.
	Marker byte = 0xA5

	// BlockSize is the size of the on-medium record.
	BlockSize = 20
)

// Medium is the raw non-volatile storage. Both calls move exactly
// len(p) bytes starting at offset 0.
type Medium interface {
	ReadBlock(p []byte) error
	WriteBlock(p []byte) error
}

type Store struct {
	medium Medium
}

func New(m Medium) *Store {
	return &Store{medium: m}
}

// Load reads the record. Uninitialized storage is reset to zeroed counters
// with the sentinel set and written back before returning.
func (s *Store) Load() (model.PersistedStatus, error) {
	var block [BlockSize]byte
	if err := s.medium.ReadBlock(block[:]); err != nil {
		return model.PersistedStatus{}, fmt.Errorf("read status block: %w", err)
	}

	status, ok := Decode(block[:])
	if ok {
		return status, nil
	}

	log.Warn().Msg("Status storage uninitialized, writing defaults")
	status = model.PersistedStatus{Initialized: true}
	if err := s.Save(status); err != nil {
		return model.PersistedStatus{}, err
	}
	return status, nil
}

// Save writes the full record unconditionally.
func (s *Store) Save(status model.PersistedStatus) error {
	status.Initialized = true
	block := Encode(status)
	if err := s.medium.WriteBlock(block[:]); err != nil {
		return fmt.Errorf("write status block: %w", err)
	}
	return nil
}

func Encode(status model.PersistedStatus) [BlockSize]byte {
	var b [BlockSize]byte
	if status.Initialized {
		b[0] = Marker
	}
	binary.LittleEndian.PutUint32(b[4:], status.TotalRuntime)
	binary.LittleEndian.PutUint32(b[8:], status.ResetCount)
	binary.LittleEndian.PutUint32(b[12:], status.SensorFailures)
	binary.LittleEndian.PutUint32(b[16:], status.LightReadings)
	return b
}

// Decode returns false when the sentinel does not match.
func Decode(b []byte) (model.PersistedStatus, bool) {
	if len(b) < BlockSize || b[0] != Marker {
		return model.PersistedStatus{}, false
	}
	return model.PersistedStatus{
		Initialized:    true,
		TotalRuntime:   binary.LittleEndian.Uint32(b[4:]),
		ResetCount:     binary.LittleEndian.Uint32(b[8:]),
		SensorFailures: binary.LittleEndian.Uint32(b[12:]),
		LightReadings:  binary.LittleEndian.Uint32(b[16:]),
	}, true
}
