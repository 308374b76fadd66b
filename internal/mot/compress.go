package mot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/danmuck/mot/internal/protocol/param"
	"github.com/klauspost/compress/gzip"
)

// CompressBody compresses body with the given algorithm.
func CompressBody(body []byte, t param.CompressionType) ([]byte, error) {
	switch t {
	case param.CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return nil, fmt.Errorf("mot: gzip body: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("mot: gzip body: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("mot: unsupported compression %s", t)
	}
}

// DecodedBody returns the body with any signalled compression removed.
func (o *Object) DecodedBody() ([]byte, error) {
	p, ok := o.Parameter(param.KindCompression)
	if !ok {
		return o.body, nil
	}
	c, ok := p.(param.Compression)
	if !ok {
		return nil, fmt.Errorf("mot: compression kind carried by %T", p)
	}
	switch c.Type {
	case param.CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(o.body))
		if err != nil {
			return nil, fmt.Errorf("mot: gunzip body: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("mot: gunzip body: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("mot: unsupported compression %s", c.Type)
	}
}
