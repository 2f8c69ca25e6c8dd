package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	audio string
	err   error
}

func (s *fakeSynth) Synthesize(_ context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.audio, nil
}

// blockingSink plays until its context is cancelled, recording each start.
type blockingSink struct {
	mu       sync.Mutex
	started  chan struct{}
	finished int
}

func newBlockingSink() *blockingSink {
	return &blockingSink{started: make(chan struct{}, 8)}
}

func (s *blockingSink) Play(ctx context.Context, samples []float32, sampleRate int) error {
	s.started <- struct{}{}
	<-ctx.Done()
	s.mu.Lock()
	s.finished++
	s.mu.Unlock()
	return ctx.Err()
}

func validAudio(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte{0x00, 0x40, 0x00, 0xC0})
}

func TestSpeak_ReturnsPayloadAndPlays(t *testing.T) {
	var got []float32
	var rate int
	sink := sinkFunc(func(_ context.Context, samples []float32, sampleRate int) error {
		got, rate = samples, sampleRate
		return nil
	})
	player := NewPlayer(&fakeSynth{audio: validAudio(t)}, sink, 24000)
	defer player.Stop()

	audio, err := player.Speak(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, validAudio(t), audio)
	player.Stop()
	require.Len(t, got, 2)
	assert.Equal(t, 24000, rate)
}

func TestSpeak_InterruptsInFlightPlayback(t *testing.T) {
	sink := newBlockingSink()
	player := NewPlayer(&fakeSynth{audio: validAudio(t)}, sink, 24000)
	defer player.Stop()

	_, err := player.Speak(context.Background(), "first")
	require.NoError(t, err)
	<-sink.started
	assert.True(t, player.Speaking())

	_, err = player.Speak(context.Background(), "second")
	require.NoError(t, err)
	<-sink.started

	sink.mu.Lock()
	finished := sink.finished
	sink.mu.Unlock()
	assert.Equal(t, 1, finished, "first playback was cancelled before the second started")
}

func TestSpeak_SynthesisErrorIsSurfaced(t *testing.T) {
	player := NewPlayer(&fakeSynth{err: errors.New("tts down")}, NopSink{}, 24000)

	_, err := player.Speak(context.Background(), "hello")

	require.Error(t, err)
	assert.False(t, player.Speaking())
}

func TestSpeak_DecodeErrorIsSurfaced(t *testing.T) {
	player := NewPlayer(&fakeSynth{audio: "@@not-base64@@"}, NopSink{}, 24000)

	_, err := player.Speak(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.False(t, player.Speaking())
}

func TestStop_IsIdempotent(t *testing.T) {
	sink := newBlockingSink()
	player := NewPlayer(&fakeSynth{audio: validAudio(t)}, sink, 24000)

	_, err := player.Speak(context.Background(), "hello")
	require.NoError(t, err)
	<-sink.started

	player.Stop()
	assert.False(t, player.Speaking())
	player.Stop()
}

func TestSpeaking_FalseAfterPlaybackEnds(t *testing.T) {
	player := NewPlayer(&fakeSynth{audio: validAudio(t)}, NopSink{}, 24000)

	_, err := player.Speak(context.Background(), "hello")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !player.Speaking() },
		time.Second, 5*time.Millisecond)
}

type sinkFunc func(ctx context.Context, samples []float32, sampleRate int) error

func (f sinkFunc) Play(ctx context.Context, samples []float32, sampleRate int) error {
	return f(ctx, samples, sampleRate)
}
