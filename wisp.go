// Package wisp compresses animated-wallpaper frames by storing only the
// pixels that changed since the previous frame and entropy-coding the result.
//
// Frames are raw RGBA buffers (4 bytes per pixel, row-major); the alpha
// channel is dropped on encode and left untouched on decode — nobody renders
// a transparent wallpaper. Both directions are byte-exact on the RGB
// channels. The codec is stateless and holds no buffer between calls;
// callers own every buffer they pass in.
package wisp

// Codec binds the delta stage to one entropy coder. The zero value is not
// usable; construct with New or NewWithEntropy.
type Codec struct {
	entropy EntropyCoder
}

// New returns a codec with the default zstd entropy coder.
func New() *Codec {
	return &Codec{entropy: Zstd{}}
}

// NewWithEntropy returns a codec using e as its entropy stage. Compressed
// frames are only decodable by a codec built with the same coder.
func NewWithEntropy(e EntropyCoder) *Codec {
	return &Codec{entropy: e}
}

// Compress encodes the difference from prev to curr and entropy-codes it.
// Both frames must have the same length, a whole number of pixel pairs.
func (c *Codec) Compress(prev, curr []byte) ([]byte, error) {
	delta, err := EncodeDelta(prev, curr)
	if err != nil {
		return nil, err
	}
	return c.entropy.Compress(delta), nil
}

// Decompress applies a compressed delta onto buf in place. buf must hold the
// frame the delta was encoded against and the caller must have exclusive
// write access to it for the duration of the call.
func (c *Codec) Decompress(buf, compressed []byte) error {
	delta, err := c.entropy.Decompress(compressed)
	if err != nil {
		return err
	}
	return ApplyDelta(buf, delta)
}

var defaultCodec = New()

// Compress is Codec.Compress with the default zstd entropy coder.
func Compress(prev, curr []byte) ([]byte, error) {
	return defaultCodec.Compress(prev, curr)
}

// Decompress is Codec.Decompress with the default zstd entropy coder.
func Decompress(buf, compressed []byte) error {
	return defaultCodec.Decompress(buf, compressed)
}
