package wisp

import "errors"

// Frame geometry constants. A pixel is 4 bytes (RGBA); change detection works
// on pairs of two consecutive pixels, and one header byte covers 8 pairs.
const (
	pairBytes     = 8
	payloadBytes  = 6
	pairsPerGroup = 8
)

var (
	ErrFrameMismatch  = errors.New("wisp: previous and current frames differ in length")
	ErrUnalignedFrame = errors.New("wisp: frame length is not a whole number of pixel pairs")
	ErrTruncatedDelta = errors.New("wisp: delta stream shorter than its headers require")
	ErrFrameTooSmall  = errors.New("wisp: frame buffer too small for recorded pixels")
	ErrCorruptPayload = errors.New("wisp: corrupt compressed payload")
)

// EncodeDelta computes the sparse difference between two frames of equal
// length. The stream is a sequence of groups: one header byte covering 8
// pixel pairs (bit 0x80>>i set when pair group_base+i changed in any RGB
// channel of either pixel), followed by 6 bytes [R1 G1 B1 R2 G2 B2] of the
// current frame for every set bit, in bit order. Alpha is never compared and
// never stored. Identical frames produce headers only, one per started group
// of 8 pairs; zero-length input produces a zero-length stream.
func EncodeDelta(prev, curr []byte) ([]byte, error) {
	if len(prev) != len(curr) {
		return nil, ErrFrameMismatch
	}
	if len(prev)%pairBytes != 0 {
		return nil, ErrUnalignedFrame
	}

	out := make([]byte, 0, len(prev)/pairBytes+pairsPerGroup)
	// Scratch for one full group so the hot loop never reallocates.
	payload := make([]byte, 0, pairsPerGroup*payloadBytes)

	var header byte
	k := 0
	for i := 0; i < len(prev); i += pairBytes {
		if prev[i] != curr[i] || prev[i+1] != curr[i+1] || prev[i+2] != curr[i+2] ||
			prev[i+4] != curr[i+4] || prev[i+5] != curr[i+5] || prev[i+6] != curr[i+6] {
			payload = append(payload,
				curr[i], curr[i+1], curr[i+2],
				curr[i+4], curr[i+5], curr[i+6])
			header |= 0x80 >> k
		}
		k++
		if k == pairsPerGroup {
			out = append(out, header)
			out = append(out, payload...)
			header = 0
			payload = payload[:0]
			k = 0
		}
	}
	// Partial trailing group, flushed even when all-zero so the stream ends
	// on a header for every started group.
	if k > 0 {
		out = append(out, header)
		out = append(out, payload...)
	}
	return out, nil
}

// ApplyDelta mutates buf, assumed to hold the frame the delta was encoded
// against, into the encoded frame's RGB data. Alpha bytes in buf are left as
// they are. The stream is self-describing and is consumed to its end; a
// stream whose payload runs short of its header bits, or whose pixel indices
// land past the end of buf, is rejected without touching memory out of range.
func ApplyDelta(buf, delta []byte) error {
	var pairs [pairsPerGroup]int

	pos := 0
	pix := 0 // absolute pixel index; every header bit covers 2 pixels
	for pos < len(delta) {
		header := delta[pos]
		pos++

		n := 0
		for j := 0; j < pairsPerGroup; j++ {
			if header&(0x80>>j) != 0 {
				pairs[n] = pix
				n++
			}
			pix += 2
		}

		if len(delta)-pos < n*payloadBytes {
			return ErrTruncatedDelta
		}
		for _, p := range pairs[:n] {
			off := p * 4
			if off+pairBytes > len(buf) {
				return ErrFrameTooSmall
			}
			buf[off+0] = delta[pos+0]
			buf[off+1] = delta[pos+1]
			buf[off+2] = delta[pos+2]
			buf[off+4] = delta[pos+3]
			buf[off+5] = delta[pos+4]
			buf[off+6] = delta[pos+5]
			pos += payloadBytes
		}
	}
	return nil
}
