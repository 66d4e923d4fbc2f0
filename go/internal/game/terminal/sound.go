package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

const (
	passFreq     = 880.0
	passDuration = 60 * time.Millisecond
	failFreq     = 220.0
	failDuration = 180 * time.Millisecond
)

// Tones plays a short high beep for a pass and a lower, longer one for a fail
type Tones struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	closed bool
}

// NewTones initializes the speaker
func NewTones() (*Tones, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	t := &Tones{mixer: &beep.Mixer{}}
	speaker.Play(t.mixer)
	return t, nil
}

func (t *Tones) Pass() { t.play(passFreq, passDuration) }
func (t *Tones) Fail() { t.play(failFreq, failDuration) }

func (t *Tones) play(freq float64, d time.Duration) {
	s, err := tone(freq, d)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	speaker.Lock()
	t.mixer.Add(s)
	speaker.Unlock()
}

// Close silences pending tones and releases the audio device
func (t *Tones) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	speaker.Clear()
	speaker.Close()
}

// tone is a sine wave of the given frequency cut to d
func tone(freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil, fmt.Errorf("sine tone %.0fHz: %w", freq, err)
	}
	return beep.Take(sampleRate.N(d), sine), nil
}
