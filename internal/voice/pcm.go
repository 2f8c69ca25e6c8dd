package voice

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDecode marks malformed synthesized audio. Playback is aborted and the
// speaking state reset; decode failures are never retried.
var ErrDecode = errors.New("malformed audio payload")

// DecodeBase64PCM decodes a base64 payload of 16-bit little-endian PCM into
// normalized float samples.
func DecodeBase64PCM(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return DecodePCM(raw)
}

// DecodePCM converts raw s16le bytes into float samples in [-1.0, 1.0] by
// dividing each 16-bit value by 32768.
func DecodePCM(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", ErrDecode, len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}
