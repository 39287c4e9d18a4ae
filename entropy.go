package wisp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// EntropyCoder is the general-purpose lossless stage wrapped around the delta
// stream. The block layout is shared by all coders: a 4-byte little-endian
// decompressed length, then the coder's own framed bytes. The block carries
// no coder tag, so both ends of a connection must be built with the same
// coder.
type EntropyCoder interface {
	Compress(src []byte) []byte
	Decompress(src []byte) ([]byte, error)
}

const sizePrefixLen = 4

// Declared lengths beyond this are rejected outright; the prefix comes from
// the wire and must not drive allocation on its own.
const maxDeclaredSize = 1 << 30

func mustNewZstdEncoder() *zstd.Encoder {
	// Fastest level: this runs once per frame of every active animation,
	// and the delta stream is already sparse.
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithLowerEncoderMem(true),
		// A zero-length delta stream (empty frame pair) must still produce a
		// decodable frame.
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(maxDeclaredSize),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

// Shared coder state; EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder = mustNewZstdEncoder()
	zstdDecoder = mustNewZstdDecoder()
)

// Zstd is the default entropy coder.
type Zstd struct{}

func (Zstd) Compress(src []byte) []byte {
	out := make([]byte, sizePrefixLen, sizePrefixLen+len(src)/4+64)
	binary.LittleEndian.PutUint32(out, uint32(len(src)))
	return zstdEncoder.EncodeAll(src, out)
}

func (Zstd) Decompress(src []byte) ([]byte, error) {
	want, body, err := splitSizePrefix(src)
	if err != nil {
		return nil, err
	}
	plain, err := zstdDecoder.DecodeAll(body, make([]byte, 0, want))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptPayload, err)
	}
	if len(plain) != want {
		return nil, fmt.Errorf("%w: declared %d bytes, decoded %d", ErrCorruptPayload, want, len(plain))
	}
	return plain, nil
}

// LZ4 trades some compression ratio for cheaper per-frame CPU. The frame
// format is used rather than raw blocks so incompressible input still
// round-trips.
type LZ4 struct{}

func (LZ4) Compress(src []byte) []byte {
	var prefix [sizePrefixLen]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(src)))

	var buf bytes.Buffer
	buf.Grow(sizePrefixLen + len(src)/4 + 64)
	buf.Write(prefix[:])

	// Writes into a bytes.Buffer cannot fail.
	w := lz4.NewWriter(&buf)
	_, _ = w.Write(src)
	_ = w.Close()
	return buf.Bytes()
}

func (LZ4) Decompress(src []byte) ([]byte, error) {
	want, body, err := splitSizePrefix(src)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, want)
	r := lz4.NewReader(bytes.NewReader(body))
	if _, err := io.ReadFull(r, plain); err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptPayload, err)
	}
	// The stream must end exactly at the declared length.
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing bytes past declared length %d", ErrCorruptPayload, want)
	}
	return plain, nil
}

func splitSizePrefix(src []byte) (int, []byte, error) {
	if len(src) < sizePrefixLen {
		return 0, nil, fmt.Errorf("%w: missing size prefix", ErrCorruptPayload)
	}
	want := binary.LittleEndian.Uint32(src)
	if want > maxDeclaredSize {
		return 0, nil, fmt.Errorf("%w: declared length %d too large", ErrCorruptPayload, want)
	}
	return int(want), src[sizePrefixLen:], nil
}
