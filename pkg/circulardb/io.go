package circulardb

import "github.com/dsully/circulardb/internal/pio"

// preadAt reads exactly len(buf) bytes from the file at the given offset.
func (hd *Handle) preadAt(buf []byte, off int64) error {
	if hd.file == nil {
		return ErrClosed
	}

	_, err := pio.ReadAt(hd.file, buf, off)

	return asIOError("read", err)
}

// pwriteAt writes all of buf to the file at the given offset.
func (hd *Handle) pwriteAt(buf []byte, off int64) error {
	if !hd.writable {
		return ErrReadOnly
	}

	if hd.file == nil {
		return ErrClosed
	}

	_, err := pio.WriteAt(hd.file, buf, off)

	return asIOError("write", err)
}
