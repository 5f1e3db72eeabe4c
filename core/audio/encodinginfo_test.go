package audio

import "testing"

func TestEncodingFormatByteSize(t *testing.T) {
	testCases := []struct {
		format   encodingFormat
		expected int
	}{
		{EncodingLinear16, 2},
		{EncodingMulaw, 1},
		{EncodingALaw, 1},
		{encodingFormat("opus"), -1},
	}

	for _, testCase := range testCases {
		if got := testCase.format.ByteSize(); got != testCase.expected {
			t.Fatalf("expected %s byte size %d, got %d", testCase.format.Name(), testCase.expected, got)
		}
	}
}

func TestEncodingInfoIsZero(t *testing.T) {
	if !(EncodingInfo{}).IsZero() {
		t.Fatalf("expected the zero value to report zero")
	}
	if !(EncodingInfo{SampleRate: DefaultSampleRate}).IsZero() {
		t.Fatalf("expected a missing format to report zero")
	}
	if !(EncodingInfo{Format: EncodingLinear16}).IsZero() {
		t.Fatalf("expected a missing sample rate to report zero")
	}
	if GetDefaultEncodingInfo().IsZero() {
		t.Fatalf("expected the default encoding to be usable")
	}
}
