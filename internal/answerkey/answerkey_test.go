package answerkey

import (
	"errors"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		letters   string
		questions int
		want      []int
		wantErr   bool
	}{
		{"simple", "ABCDE", 5, []int{0, 1, 2, 3, 4}, false},
		{"lowercase", "abcde", 5, []int{0, 1, 2, 3, 4}, false},
		{"mixed case", "AbCdE", 5, []int{0, 1, 2, 3, 4}, false},
		{"separators dropped", "A,B C-D.E", 5, []int{0, 1, 2, 3, 4}, false},
		{"single question", "C", 1, []int{2}, false},
		{"too few answers", "ABC", 5, nil, true},
		{"too many answers", "ABCDEA", 5, nil, true},
		{"invalid letters only", "XYZ", 3, nil, true},
		{"empty input", "", 1, nil, true},
		{"zero questions", "A", 0, nil, true},
		{"count above max", strings.Repeat("A", 61), 61, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Encode(tt.letters, tt.questions)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Encode(%q, %d): expected error, got %v", tt.letters, tt.questions, key)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode(%q, %d): %v", tt.letters, tt.questions, err)
			}
			if len(key) != len(tt.want) {
				t.Fatalf("expected %d indices, got %d", len(tt.want), len(key))
			}
			for i := range key {
				if key[i] != tt.want[i] {
					t.Errorf("index %d: expected %d, got %d", i, tt.want[i], key[i])
				}
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// decode(encode(s, n)) == uppercase(s) for letter strings over A-E.
	inputs := []string{"A", "abcde", "EDCBA", "AAABBB", strings.Repeat("ABCDE", 12)}
	for _, s := range inputs {
		key, err := Encode(s, len(s))
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		if got := key.String(); got != strings.ToUpper(s) {
			t.Errorf("round trip of %q: got %q", s, got)
		}
	}
}

func TestKeyString(t *testing.T) {
	key := Key{0, 4, 2}
	if got := key.String(); got != "AEC" {
		t.Errorf("expected AEC, got %q", got)
	}
	if got := Key(nil).String(); got != "" {
		t.Errorf("expected empty string for nil key, got %q", got)
	}
}
