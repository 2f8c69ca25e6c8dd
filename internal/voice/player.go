package voice

import (
	"context"
	"log"
	"sync"

	"github.com/rvallejo/pinboard/internal/metrics"
)

// Sink receives decoded audio for output. Play blocks until the samples are
// consumed or ctx is cancelled.
type Sink interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// NopSink discards samples. Used when no audio device is wired up, so speech
// synthesis can still be exercised end to end.
type NopSink struct{}

func (NopSink) Play(ctx context.Context, samples []float32, sampleRate int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Player synthesizes reply text and plays it through a sink. At most one
// utterance plays at a time; starting a new one interrupts the current one
// first.
type Player struct {
	synth      Synthesizer
	sink       Sink
	sampleRate int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(synth Synthesizer, sink Sink, sampleRate int) *Player {
	if sink == nil {
		sink = NopSink{}
	}
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	return &Player{synth: synth, sink: sink, sampleRate: sampleRate}
}

// Speak synthesizes text, interrupts any in-flight playback, and plays the
// result. It returns the base64 PCM payload so callers can also forward the
// audio to clients. Playback runs in the background; synthesis and decode
// errors are returned synchronously.
func (p *Player) Speak(ctx context.Context, text string) (string, error) {
	audio, err := p.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	samples, err := DecodeBase64PCM(audio)
	if err != nil {
		return "", err
	}
	metrics.RecordSynthesis()

	p.Stop()

	playCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if err := p.sink.Play(playCtx, samples, p.sampleRate); err != nil && playCtx.Err() == nil {
			log.Printf("Audio playback failed: %v", err)
		}
	}()

	return audio, nil
}

// Stop interrupts in-flight playback and waits for it to wind down. Calling
// Stop with nothing playing is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Speaking reports whether an utterance is currently playing.
func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
