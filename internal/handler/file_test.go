package handler

import "testing"

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name      string
		header    string
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"full range", "bytes=0-999", 0, 999, false},
		{"middle", "bytes=200-499", 200, 499, false},
		{"open ended", "bytes=500-", 500, 999, false},
		{"suffix", "bytes=-100", 900, 999, false},
		{"suffix larger than resource", "bytes=-5000", 0, 999, false},
		{"end clamped to size", "bytes=900-5000", 900, 999, false},
		{"start past end of resource", "bytes=1000-", 0, 0, true},
		{"inverted", "bytes=500-200", 0, 0, true},
		{"multi-range unsupported", "bytes=0-1,5-9", 0, 0, true},
		{"wrong unit", "items=0-10", 0, 0, true},
		{"garbage", "bytes=abc-def", 0, 0, true},
		{"empty suffix", "bytes=-", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseRange(tt.header, size)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseRange(%q) = %d-%d, want error", tt.header, start, end)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange(%q): %v", tt.header, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("parseRange(%q) = %d-%d, want %d-%d", tt.header, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
