// Package pio provides positioned file I/O: reads and writes at an explicit
// offset that do not move (and are not affected by) the file's seek cursor.
//
// A CircularDB file is read and written from multiple logical positions
// (header, wrapped record ranges) that may interleave across goroutines or
// separate handles on the same descriptor; seek-then-read/write would race
// against a concurrent seek. Pread/Pwrite give each call its own offset.
package pio

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ReadAt reads len(buf) bytes from f at off, retrying on short reads the
// same way io.ReadFull does, until buf is full, EOF, or an error.
func ReadAt(f *os.File, buf []byte, off int64) (int, error) {
	total := 0

	for total < len(buf) {
		n, err := unix.Pread(int(f.Fd()), buf[total:], off+int64(total))
		if n > 0 {
			total += n
		}

		if err != nil {
			return total, err
		}

		if n == 0 {
			if total == 0 {
				return 0, io.EOF
			}

			return total, io.ErrUnexpectedEOF
		}
	}

	return total, nil
}

// WriteAt writes all of buf to f at off, retrying on short writes.
func WriteAt(f *os.File, buf []byte, off int64) (int, error) {
	total := 0

	for total < len(buf) {
		n, err := unix.Pwrite(int(f.Fd()), buf[total:], off+int64(total))
		if n > 0 {
			total += n
		}

		if err != nil {
			return total, err
		}

		if n == 0 {
			return total, io.ErrShortWrite
		}
	}

	return total, nil
}
