package persist

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// FileMedium stores the block in an image file. Writes go through a
// temporary file and a rename so a power cut never leaves a torn block.
type FileMedium struct {
	path string
}

func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

func (f *FileMedium) ReadBlock(p []byte) error {
	for i := range p {
		p[i] = 0
	}

	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.ReadFull(file, p); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	return nil
}

func (f *FileMedium) WriteBlock(p []byte) error {
	tmpPath := f.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := file.Write(p); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	file.Close()

	return os.Rename(tmpPath, f.path)
}

// MemoryMedium starts erased (all 0xFF), like a fresh EEPROM.
type MemoryMedium struct {
	data   [BlockSize]byte
	Writes int
}

func NewMemoryMedium() *MemoryMedium {
	m := &MemoryMedium{}
	for i := range m.data {
		m.data[i] = 0xFF
	}
	return m
}

func (m *MemoryMedium) ReadBlock(p []byte) error {
	if len(p) > len(m.data) {
		return fmt.Errorf("block of %d bytes exceeds medium size %d", len(p), len(m.data))
	}
	copy(p, m.data[:])
	return nil
}

func (m *MemoryMedium) WriteBlock(p []byte) error {
	if len(p) > len(m.data) {
		return fmt.Errorf("block of %d bytes exceeds medium size %d", len(p), len(m.data))
	}
	copy(m.data[:], p)
	m.Writes++
	return nil
}
