package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAV_RoundTrip(t *testing.T) {
	original := &WAV{
		SampleRate:  8000,
		NumChannels: 2,
		Samples:     []int16{0, 100, -100, 32767, -32768, 1, 2, 3},
	}

	decoded, err := DecodeWAV(EncodeWAV(original))

	require.NoError(t, err)
	assert.Equal(t, original.SampleRate, decoded.SampleRate)
	assert.Equal(t, original.NumChannels, decoded.NumChannels)
	assert.Equal(t, original.Samples, decoded.Samples)
}

func TestDecodeWAV_NotRIFF(t *testing.T) {
	_, err := DecodeWAV([]byte("definitely not audio"))
	assert.Error(t, err)
}

func TestDecodeWAV_UnsupportedBitDepth(t *testing.T) {
	data := EncodeWAV(&WAV{SampleRate: 8000, NumChannels: 1, Samples: []int16{1, 2}})
	// Rewrite bits-per-sample from 16 to 8.
	data[34] = 8

	_, err := DecodeWAV(data)
	assert.ErrorIs(t, err, ErrUnsupportedWAV)
}

func TestDecodeWAV_TruncatedData(t *testing.T) {
	data := EncodeWAV(&WAV{SampleRate: 8000, NumChannels: 1, Samples: []int16{1, 2, 3, 4}})
	_, err := DecodeWAV(data[:len(data)-3])
	assert.Error(t, err)
}

func TestWAV_DurationMS(t *testing.T) {
	w := &WAV{SampleRate: 1000, NumChannels: 2, Samples: make([]int16, 3000)}
	assert.Equal(t, int64(1500), w.DurationMS())
}

func TestWAV_CloneIsIndependent(t *testing.T) {
	w := &WAV{SampleRate: 8000, NumChannels: 1, Samples: []int16{1, 2, 3}}
	c := w.Clone()
	c.Samples[0] = 99
	assert.Equal(t, int16(1), w.Samples[0])
}
