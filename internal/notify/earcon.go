// Package notify plays short acknowledgement tones through the system
// speaker, independent of the synthesis pipeline. The wake earcon gives the
// user immediate feedback while the greeting is still being synthesized.
package notify

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const earconSampleRate = beep.SampleRate(44100)

var (
	initOnce sync.Once
	initErr  error
)

// Wake plays a rising two-tone chirp and blocks until it finishes.
func Wake() error {
	initOnce.Do(func() {
		initErr = speaker.Init(earconSampleRate, earconSampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return initErr
	}

	done := make(chan bool)
	speaker.Play(beep.Seq(
		tone(880, 90*time.Millisecond),
		tone(1320, 130*time.Millisecond),
		beep.Callback(func() {
			done <- true
		}),
	))
	<-done
	return nil
}

// tone is a fixed-length sine streamer at the earcon sample rate.
func tone(freq float64, duration time.Duration) beep.Streamer {
	total := earconSampleRate.N(duration)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			value := 0.25 * math.Sin(2*math.Pi*freq*float64(pos)/float64(earconSampleRate))
			samples[i][0], samples[i][1] = value, value
			pos++
			n++
		}
		return n, true
	})
}
