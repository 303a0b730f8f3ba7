package circulardb

import (
	"fmt"
	"os"

	"github.com/dsully/circulardb/internal/pio"
)

// Handle is an open CircularDB file. See the package doc comment for the
// concurrency contract.
type Handle struct {
	file     *os.File
	path     string
	writable bool
	synced   bool
	h        *header
}

// Create creates a new CircularDB file at path and returns a writable
// Handle. It fails if path already exists; use Open to reopen an existing
// database.
func Create(path string, opts CreateOptions) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, asIOError("create", err)
	}

	h := newHeaderFromOptions(opts)

	hd := &Handle{file: f, path: path, writable: true, h: h}

	if err := hd.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)

		return nil, err
	}

	hd.synced = true

	return hd, nil
}

// newHeaderFromOptions fills in defaults for any zero-valued CreateOptions
// field, mirroring the original library's cdb_generate_header behavior.
func newHeaderFromOptions(opts CreateOptions) *header {
	units := opts.Units
	if units == "" {
		units = defaultUnits
	}

	maxRecords := opts.MaxRecords
	if maxRecords == 0 {
		maxRecords = defaultMaxRecords
	}

	interval := opts.Interval
	if interval == 0 {
		interval = defaultInterval
	}

	recordType := opts.Type
	if recordType == 0 {
		recordType = TypeGauge
	}

	return &header{
		name:        opts.Name,
		desc:        opts.Desc,
		units:       units,
		recordType:  recordType,
		minValue:    opts.MinValue,
		maxValue:    opts.MaxValue,
		maxRecords:  maxRecords,
		interval:    interval,
		startRecord: 0,
		numRecords:  0,
	}
}

// Open opens an existing CircularDB file. Pass writable=true to allow
// WriteRecords, DiscardRange, and UpdateRecords.
func Open(path string, writable bool) (*Handle, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, asIOError("open", err)
	}

	hd := &Handle{file: f, path: path, writable: writable}

	if err := hd.readHeader(); err != nil {
		f.Close()

		return nil, err
	}

	return hd, nil
}

// Free closes the underlying file descriptor. A Handle must not be used
// after Free.
func (hd *Handle) Free() error {
	if hd.file == nil {
		return nil
	}

	err := hd.file.Close()
	hd.file = nil

	return asIOError("close", err)
}

// Info returns a snapshot of the current header.
func (hd *Handle) Info() Info {
	h := hd.h

	return Info{
		Name:        h.name,
		Desc:        h.desc,
		Units:       h.units,
		Type:        h.recordType,
		MinValue:    h.minValue,
		MaxValue:    h.maxValue,
		MaxRecords:  h.maxRecords,
		Interval:    h.interval,
		StartRecord: h.startRecord,
		NumRecords:  h.numRecords,
	}
}

// readHeader loads the header from disk, validating the token and version.
func (hd *Handle) readHeader() error {
	if hd.file == nil {
		return ErrClosed
	}

	buf := make([]byte, headerSize)
	if _, err := pio.ReadAt(hd.file, buf, 0); err != nil {
		return asIOError("read header", err)
	}

	if !hasValidToken(buf) {
		return ErrBadToken
	}

	h, err := decodeHeader(buf)
	if err != nil {
		return err
	}

	if !hasValidVersion(h) {
		return ErrBadVersion
	}

	// The header's stored numRecords is advisory: a crash between a record
	// write and the next header flush can leave it stale. Recompute it from
	// the file's actual size so a reopened database reflects what is really
	// on disk, clamped to the ring's capacity in case the file was truncated
	// or extended out from under us.
	fi, err := hd.file.Stat()
	if err != nil {
		return asIOError("stat", err)
	}

	n := (fi.Size() - int64(headerSize)) / int64(recordSize)

	switch {
	case n < 0:
		n = 0
	case uint64(n) > h.maxRecords:
		n = int64(h.maxRecords)
	}

	h.numRecords = uint64(n)

	hd.h = h
	hd.synced = true

	return nil
}

// writeHeader persists the in-memory header to disk.
func (hd *Handle) writeHeader() error {
	if !hd.writable {
		return ErrReadOnly
	}

	if hd.file == nil {
		return ErrClosed
	}

	buf := encodeHeader(hd.h)
	if _, err := pio.WriteAt(hd.file, buf, 0); err != nil {
		return asIOError("write header", err)
	}

	hd.synced = true

	return nil
}

// requireSynced returns ErrSanity if the in-memory header has diverged from
// disk without being flushed; this is a programming-error guard, not an
// expected runtime condition.
func (hd *Handle) requireSynced() error {
	if !hd.synced {
		return fmt.Errorf("%w: header not synced before operation", ErrSanity)
	}

	return nil
}
