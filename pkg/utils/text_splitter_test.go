package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{name: "short text single chunk", text: "hello", chunkSize: 100, overlap: 10, wantChunks: 1},
		{name: "exact fit", text: strings.Repeat("a", 100), chunkSize: 100, overlap: 10, wantChunks: 1},
		{name: "two chunks", text: strings.Repeat("a", 150), chunkSize: 100, overlap: 10, wantChunks: 2},
		{name: "overlap larger than chunk falls back", text: strings.Repeat("a", 250), chunkSize: 100, overlap: 100, wantChunks: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if len([]rune(c)) > tt.chunkSize {
					t.Errorf("chunk %d length %d exceeds chunk size %d", i, len(c), tt.chunkSize)
				}
			}
		})
	}
}

func TestSplitTextOverlapPreserved(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30) // 300 chars
	chunks := SplitText(text, 100, 20)

	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-20:]
		if !strings.HasPrefix(chunks[i], prevTail) {
			t.Errorf("chunk %d does not start with the previous chunk's tail", i)
		}
	}
}

func TestSplitTextUnicode(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 50)
	chunks := SplitText(text, 100, 10)
	if strings.Join(chunks, "") == "" {
		t.Fatal("no chunks produced")
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Errorf("chunk %d has %d runes, want <= 100", i, len([]rune(c)))
		}
	}
}
