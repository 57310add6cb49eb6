package backup

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// gzipCompress compresses an artifact before checksum and upload. The ".gz"
// suffix on the artifact name marks compressed output.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
