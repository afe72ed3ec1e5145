package media

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV holds decoded 16-bit PCM audio. Samples are interleaved across
// channels in frame order.
type WAV struct {
	SampleRate  int
	NumChannels int
	Samples     []int16
}

// ErrUnsupportedWAV is returned for WAV files that are not plain 16-bit PCM.
var ErrUnsupportedWAV = errors.New("unsupported WAV format: expected 16-bit PCM")

// DurationMS returns the audio duration in milliseconds.
func (w *WAV) DurationMS() int64 {
	if w.SampleRate == 0 || w.NumChannels == 0 {
		return 0
	}
	frames := len(w.Samples) / w.NumChannels
	return int64(frames) * 1000 / int64(w.SampleRate)
}

// Clone returns a deep copy, so tone insertion never mutates caller audio.
func (w *WAV) Clone() *WAV {
	samples := make([]int16, len(w.Samples))
	copy(samples, w.Samples)
	return &WAV{SampleRate: w.SampleRate, NumChannels: w.NumChannels, Samples: samples}
}

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	pcmFormatCode   = 1
)

// DecodeWAV parses a RIFF/WAVE byte stream. Only uncompressed 16-bit PCM is
// accepted; anything else returns ErrUnsupportedWAV.
func DecodeWAV(data []byte) (*WAV, error) {
	if len(data) < riffHeaderSize ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE stream")
	}

	var (
		wav       WAV
		sawFormat bool
		sawData   bool
	)

	offset := riffHeaderSize
	for offset+chunkHeaderSize <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + chunkHeaderSize
		if body+chunkLen > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, errors.New("malformed fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate := binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != pcmFormatCode || bits != 16 {
				return nil, ErrUnsupportedWAV
			}
			if channels == 0 || sampleRate == 0 {
				return nil, errors.New("malformed fmt chunk")
			}
			wav.NumChannels = int(channels)
			wav.SampleRate = int(sampleRate)
			sawFormat = true

		case "data":
			wav.Samples = make([]int16, chunkLen/2)
			for i := range wav.Samples {
				wav.Samples[i] = int16(binary.LittleEndian.Uint16(data[body+2*i : body+2*i+2]))
			}
			sawData = true
		}

		// Chunks are word-aligned; odd-length chunks carry a pad byte.
		offset = body + chunkLen
		if chunkLen%2 == 1 {
			offset++
		}
	}

	if !sawFormat || !sawData {
		return nil, errors.New("missing fmt or data chunk")
	}
	return &wav, nil
}

// EncodeWAV serializes 16-bit PCM audio back into a RIFF/WAVE byte stream.
func EncodeWAV(w *WAV) []byte {
	dataLen := len(w.Samples) * 2
	byteRate := w.SampleRate * w.NumChannels * 2
	blockAlign := w.NumChannels * 2

	buf := make([]byte, riffHeaderSize+chunkHeaderSize+16+chunkHeaderSize+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)-8))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(w.NumChannels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(w.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i, s := range w.Samples {
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], uint16(s))
	}

	return buf
}
