package shield

import (
	"errors"
	"io"
)

// ErrTooLarge is returned by LimitedReadAll when the reader holds more than
// the allowed number of bytes.
var ErrTooLarge = errors.New("shield: content exceeds size limit")

// LimitedReadAll reads at most maxBytes from r. It returns ErrTooLarge
// instead of a truncated read when r holds more.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
