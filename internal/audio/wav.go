// Package audio wraps raw float32 samples into self-contained playable
// containers. Every frame carries its own decodable header so a receiver can
// play each fragment independently, without reassembling the stream.
package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

const (
	waveFormatIEEEFloat = 3
	bytesPerSample      = 4 // float32
)

// EncodeWAV encodes mono float32 samples into a standalone RIFF/WAVE
// container (IEEE float format). Deterministic and stateless: identical
// inputs produce identical bytes.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail
	_ = writeWAV(&buf, samples, sampleRate)
	return buf.Bytes()
}

// writeWAV writes the container: RIFF header, an 18-byte fmt sub-chunk
// (format 3 requires the cbSize field), the fact sub-chunk non-PCM formats
// carry, and the sample data.
func writeWAV(w io.Writer, samples []float32, sampleRate int) error {
	dataSize := len(samples) * bytesPerSample
	// "WAVE" + fmt(8+18) + fact(8+4) + data header(8) + data
	riffSize := 4 + 26 + 12 + 8 + dataSize

	// RIFF header
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(riffSize)); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return err
	}

	// fmt sub-chunk
	if _, err := w.Write([]byte("fmt ")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(18)); err != nil { // sub-chunk size
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(waveFormatIEEEFloat)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil { // mono
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(sampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(sampleRate*bytesPerSample)); err != nil { // byte rate
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(bytesPerSample)); err != nil { // block align
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(32)); err != nil { // bits per sample
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil { // cbSize
		return err
	}

	// fact sub-chunk
	if _, err := w.Write([]byte("fact")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(4)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(samples))); err != nil {
		return err
	}

	// data sub-chunk
	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dataSize)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

// ConcatWithSilence joins chunks of samples into one continuous buffer,
// inserting gap of silence between consecutive chunks. Used by the batch
// synthesis path.
func ConcatWithSilence(chunks [][]float32, sampleRate int, gap time.Duration) []float32 {
	if len(chunks) == 0 {
		return nil
	}

	silenceSamples := int(gap.Seconds() * float64(sampleRate))
	total := silenceSamples * (len(chunks) - 1)
	for _, c := range chunks {
		total += len(c)
	}

	out := make([]float32, 0, total)
	for i, c := range chunks {
		if i > 0 {
			out = append(out, make([]float32, silenceSamples)...)
		}
		out = append(out, c...)
	}
	return out
}

// Duration returns the playback duration of a sample buffer.
func Duration(sampleCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second))
}
