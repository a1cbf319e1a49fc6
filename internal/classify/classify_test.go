package classify_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vigilynx/vigilynx/internal/classify"
	"github.com/vigilynx/vigilynx/internal/model"
)

func TestDetect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  model.InputType
	}{
		{"httpsURL", "https://example.com/login?next=/home", model.InputURL},
		{"httpURL", "http://sub.example.co.uk/path", model.InputURL},
		{"schemelessHost", "example.com", model.InputURL},
		{"md5Hash", "d41d8cd98f00b204e9800998ecf8427e", model.InputHash},
		{"sha1Hash", "da39a3ee5e6b4b0d3255bfef95601890afd80709", model.InputHash},
		{"sha256Hash", strings.Repeat("ab", 32), model.InputHash},
		{"upperHexHash", strings.ToUpper(strings.Repeat("ab", 32)), model.InputHash},
		{"privateIP", "192.168.1.1", model.InputIP},
		{"publicIP", "8.8.8.8", model.InputIP},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := classify.Detect(tt.input)
			if err != nil {
				t.Fatalf("Detect(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Detect(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectRejects(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"",
		"   ",
		"not a valid anything!!",
		"abcdef0123456789",                  // hex, but not a digest length
		strings.Repeat("a", 63),             // 63 hex chars
		"999.999.999.999",                   // structurally an IP, octets out of range
		"256.1.1.1",
		"1.2.3",
	}

	for _, in := range inputs {
		if _, err := classify.Detect(in); !errors.Is(err, classify.ErrUnrecognizedInput) {
			t.Errorf("Detect(%q) = %v, want ErrUnrecognizedInput", in, err)
		}
	}
}

// Digest detection is purely length-based: every 32/40/64-char hex string is
// a hash, and no other hex length is.
func TestDetectHashLengths(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 70; n++ {
		in := strings.Repeat("f", n)
		got, err := classify.Detect(in)
		isDigestLen := n == 32 || n == 40 || n == 64
		if isDigestLen {
			if err != nil || got != model.InputHash {
				t.Errorf("Detect(%d hex chars) = %v, %v; want Hash", n, got, err)
			}
		} else if err == nil && got == model.InputHash {
			t.Errorf("Detect(%d hex chars) classified as Hash", n)
		}
	}
}
