package circulardb

// ring.go implements the mapping between a logical record index (0 is the
// oldest live record, numRecords-1 is the newest) and its physical slot
// within the file's fixed-capacity ring.
//
// A negative logical index counts from the end: -1 is the newest record,
// matching the original library's convention for "last N records" requests.

// physicalForLogical maps a logical index to its physical slot number
// (0-based, relative to the start of the record area). A negative n is
// resolved against numRecords first.
func physicalForLogical(h *header, n int64) uint64 {
	if h.maxRecords == 0 {
		return 0
	}

	if n < 0 {
		n += int64(h.numRecords)
	}

	phys := (int64(h.startRecord) + n) % int64(h.maxRecords)
	if phys < 0 {
		phys += int64(h.maxRecords)
	}

	return uint64(phys)
}

// recordOffset returns the byte offset of physical slot phys within the
// file, i.e. past the fixed header.
func recordOffset(phys uint64) int64 {
	return headerSize + int64(phys)*recordSize
}

// readRecordAt reads the record at logical index n.
func (hd *Handle) readRecordAt(n int64) (Record, error) {
	phys := physicalForLogical(hd.h, n)

	buf := make([]byte, recordSize)
	if err := hd.preadAt(buf, recordOffset(phys)); err != nil {
		return Record{}, err
	}

	return decodeRecord(buf), nil
}

// timeForLogical returns the timestamp of logical record n, skipping
// forward over any never-written or corrupted (Time <= 0) records, mirroring
// _time_for_logical_record in the original implementation.
func (hd *Handle) timeForLogical(n int64) (int64, error) {
	for i := n; i < int64(hd.h.numRecords); i++ {
		rec, err := hd.readRecordAt(i)
		if err != nil {
			return 0, err
		}

		if rec.Time > 0 {
			return rec.Time, nil
		}
	}

	return 0, ErrNoRecords
}
