package aplay

import (
	"os"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteTempWAVProducesValidFile(t *testing.T) {
	client := &Client{tempFiles: map[string]struct{}{}}

	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = 0.5
	}

	path, err := client.writeTempWAV(samples, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open written file: %v", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		t.Fatalf("expected a valid wav file")
	}
	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode wav: %v", err)
	}
	if len(buffer.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buffer.Data))
	}
}

func TestCloseRemovesTrackedTempFiles(t *testing.T) {
	client := &Client{tempFiles: map[string]struct{}{}}

	path, err := client.writeTempWAV([]float32{0.1, 0.2}, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be removed on close")
	}
}
