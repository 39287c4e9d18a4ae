package wisp

import (
	"errors"
	"math/rand"
	"testing"
)

func assertRGBEqual(t *testing.T, got, want []byte, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := 0; i < len(want); i += 4 {
		for j := 0; j < 3; j++ {
			if got[i+j] != want[i+j] {
				t.Fatalf("%s: byte %d = %d, want %d", label, i+j, got[i+j], want[i+j])
			}
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		codec *Codec
	}{
		{name: "zstd", codec: New()},
		{name: "lz4", codec: NewWithEntropy(LZ4{})},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(5))
			prev := randomFrame(rng, 4096)
			curr := randomFrame(rng, 4096)

			comp, err := tc.codec.Compress(prev, curr)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if len(comp) == 0 {
				t.Fatalf("Compress returned empty payload")
			}

			buf := append([]byte(nil), prev...)
			if err := tc.codec.Decompress(buf, comp); err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			assertRGBEqual(t, buf, curr, "reconstructed frame")
		})
	}
}

func TestCodec_GeometryErrors(t *testing.T) {
	if _, err := Compress(make([]byte, 8), make([]byte, 16)); !errors.Is(err, ErrFrameMismatch) {
		t.Fatalf("err = %v, want ErrFrameMismatch", err)
	}
	if _, err := Compress(make([]byte, 4), make([]byte, 4)); !errors.Is(err, ErrUnalignedFrame) {
		t.Fatalf("err = %v, want ErrUnalignedFrame", err)
	}
}

// Chained animation: every frame is encoded against its predecessor, with the
// last frame wrapping around as predecessor of the first, then all deltas are
// applied in sequence onto one buffer.
func TestCodec_ChainedFrames(t *testing.T) {
	const (
		trials    = 10
		frames    = 20
		frameSize = 4000
	)
	rng := rand.New(rand.NewSource(17))

	for trial := 0; trial < trials; trial++ {
		original := make([][]byte, frames)
		for i := range original {
			original[i] = randomFrame(rng, frameSize)
		}

		compressed := make([][]byte, 0, frames)
		comp, err := Compress(original[frames-1], original[0])
		if err != nil {
			t.Fatalf("trial %d: Compress wrap-around: %v", trial, err)
		}
		compressed = append(compressed, comp)
		for i := 1; i < frames; i++ {
			comp, err := Compress(original[i-1], original[i])
			if err != nil {
				t.Fatalf("trial %d: Compress frame %d: %v", trial, i, err)
			}
			compressed = append(compressed, comp)
		}

		buf := append([]byte(nil), original[frames-1]...)
		for i := 0; i < frames; i++ {
			if err := Decompress(buf, compressed[i]); err != nil {
				t.Fatalf("trial %d: Decompress frame %d: %v", trial, i, err)
			}
			for j := 0; j < frameSize; j += 4 {
				for k := 0; k < 3; k++ {
					if buf[j+k] != original[i][j+k] {
						t.Fatalf("trial %d frame %d: byte %d = %d, want %d",
							trial, i, j+k, buf[j+k], original[i][j+k])
					}
				}
			}
		}
	}
}

func TestDecompress_Malformed(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	prev := randomFrame(rng, 1024)
	curr := randomFrame(rng, 1024)

	for _, tc := range []struct {
		name  string
		codec *Codec
	}{
		{name: "zstd", codec: New()},
		{name: "lz4", codec: NewWithEntropy(LZ4{})},
	} {
		t.Run(tc.name, func(t *testing.T) {
			comp, err := tc.codec.Compress(prev, curr)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}

			buf := make([]byte, 1024)

			if err := tc.codec.Decompress(buf, nil); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("empty input: err = %v, want ErrCorruptPayload", err)
			}
			if err := tc.codec.Decompress(buf, comp[:3]); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("prefix only: err = %v, want ErrCorruptPayload", err)
			}
			if err := tc.codec.Decompress(buf, comp[:len(comp)/2]); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("truncated body: err = %v, want ErrCorruptPayload", err)
			}

			// Declared length no longer matches the decoded output.
			lied := append([]byte(nil), comp...)
			lied[0]++
			if err := tc.codec.Decompress(buf, lied); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("length mismatch: err = %v, want ErrCorruptPayload", err)
			}

			// Oversized declared length must be rejected before allocating.
			huge := append([]byte(nil), comp...)
			huge[0], huge[1], huge[2], huge[3] = 0xFF, 0xFF, 0xFF, 0xFF
			if err := tc.codec.Decompress(buf, huge); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("huge length: err = %v, want ErrCorruptPayload", err)
			}

			garbage := randomFrame(rng, len(comp))
			garbage[0], garbage[1], garbage[2], garbage[3] = 16, 0, 0, 0
			if err := tc.codec.Decompress(buf, garbage); !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("garbage body: err = %v, want ErrCorruptPayload", err)
			}
		})
	}
}

// Coders are not wire-compatible with each other; mixing them must fail, not
// produce garbage pixels.
func TestEntropyCoders_NotInterchangeable(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	prev := randomFrame(rng, 512)
	curr := randomFrame(rng, 512)

	zc, err := New().Compress(prev, curr)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	buf := append([]byte(nil), prev...)
	if err := NewWithEntropy(LZ4{}).Decompress(buf, zc); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("lz4 decoding zstd payload: err = %v, want ErrCorruptPayload", err)
	}
}
