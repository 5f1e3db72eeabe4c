package orchestration

import (
	"testing"

	"github.com/tomazic/vela-core/core/audio"
)

func TestCaptureExposesClientEncoding(t *testing.T) {
	configured := newCapture(&scriptedCapture{})
	info, ok := configured.encoding()
	if !ok {
		t.Fatalf("expected a configured capture to expose its encoding")
	}
	if info.SampleRate != audio.DefaultSampleRate || info.Format.Name() != audio.DefaultFormat {
		t.Fatalf("unexpected encoding %s/%d", info.Format.Name(), info.SampleRate)
	}
}

func TestCaptureWithoutClientHasNoEncoding(t *testing.T) {
	if _, ok := newCapture(nil).encoding(); ok {
		t.Fatalf("expected no encoding without a client")
	}
}
