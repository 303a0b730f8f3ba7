// Package circulardb implements a fixed-capacity, file-backed time-series
// store.
//
// A CircularDB is a single file: a fixed header followed by a ring buffer of
// equally-sized records (a timestamp and a double value). Once the ring is
// full, the oldest record is overwritten by the newest - the file never
// grows beyond its declared capacity.
//
// # Basic Usage
//
//	h, err := circulardb.Create("metrics.cdb", circulardb.CreateOptions{
//	    Name:         "requests",
//	    MaxRecords:   500,
//	    Units:        "per sec",
//	    Type:         circulardb.TypeCounter,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer h.Free()
//
//	n, err := h.WriteRecords([]circulardb.Record{{Time: 1700000000, Value: 10}})
//
//	recs, rng, err := h.ReadRecords(circulardb.Request{Cooked: true})
//
// # Concurrency
//
// A Handle is single-writer, serial-reader: it owns one file descriptor and
// one in-memory header image, and none of its methods are safe for
// concurrent use from multiple goroutines. Two writers on the same file
// (through separate handles, in the same or different processes) are
// undefined behavior; this package does not provide cross-process locking.
// A reader using a separate handle on the same file may observe a partially
// written wrap, which is tolerated: header-derived bounds always describe a
// consistent prefix of the ring.
//
// # Error Handling
//
// Errors are sentinel values in this package (ErrBadToken, ErrBadVersion,
// ErrReadOnly, ErrInvMax, ErrTimeRange, ErrSanity, ErrNoRecords, ErrNoMem,
// ErrInterpDriver, ErrInterpFollower) plus wrapped I/O errors. Use
// [errors.Is] to classify them.
package circulardb
