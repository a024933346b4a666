package localfs

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
)

// zstd frames always start with this magic number
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// minCompressSize is the payload size below which compression is not attempted
const minCompressSize = 128

type compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCompressor() (*compressor, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, err
	}

	return &compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// compress returns data unchanged when compression does not pay off
func (c *compressor) compress(data []byte) []byte {
	if c == nil || len(data) < minCompressSize {
		return data
	}

	compressed := c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data
	}
	return compressed
}

// decompress accepts both compressed and plain payloads
func (c *compressor) decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	if c == nil {
		// a plain store may still read what a compressing one wrote
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, nil)
	}
	return c.decoder.DecodeAll(data, nil)
}

func (c *compressor) close() {
	if c == nil {
		return
	}
	c.encoder.Close()
	c.decoder.Close()
}
