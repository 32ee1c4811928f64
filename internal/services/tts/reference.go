package tts

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"dubber/internal/fileutil"
)

// Default reference tone parameters. XTTS refuses to run without some voice
// reference, so a synthetic tone keeps fully-offline runs from crashing when
// no speaker WAV is configured.
const (
	referenceSampleRate = 22050
	referenceSeconds    = 3
	referenceFrequency  = 440.0
)

// EnsureDefaultReference writes a sine-tone reference WAV at path unless one
// already exists, and returns the path.
func EnsureDefaultReference(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("default reference: %w", err)
	}
	if err := writeSineWAV(path); err != nil {
		return "", fmt.Errorf("default reference: %w", err)
	}
	return path, nil
}

// writeSineWAV emits a mono 16-bit PCM WAV holding a constant sine tone.
func writeSineWAV(path string) error {
	frames := referenceSampleRate * referenceSeconds
	dataSize := frames * 2

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, referenceSampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, referenceSampleRate*2) // byte rate
	buf = binary.LittleEndian.AppendUint16(buf, 2)                     // block align
	buf = binary.LittleEndian.AppendUint16(buf, 16)                    // bits per sample

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	for i := 0; i < frames; i++ {
		sample := int16(32767.0 * math.Sin(2.0*math.Pi*referenceFrequency*float64(i)/referenceSampleRate))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
	}

	return os.WriteFile(path, buf, 0o644)
}
