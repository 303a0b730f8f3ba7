package circulardb

import "sort"

// WriteRecords appends records to the database in order, overwriting the
// oldest record once the ring is full. Records should be in increasing time
// order; this is not enforced. The time search behind ranged reads assumes
// ascending times: where a record's successor is not later than it, the
// search stops at that record, so a range over out-of-order data may start
// or end at the wrong record.
func (hd *Handle) WriteRecords(recs []Record) (int, error) {
	if !hd.writable {
		return 0, ErrReadOnly
	}

	if hd.h.maxRecords == 0 {
		return 0, ErrInvMax
	}

	if err := hd.requireSynced(); err != nil {
		return 0, err
	}

	// flushedAtWrap tracks whether this batch has already persisted the
	// header at its wrap point. If the ring entered this call already full,
	// there is no tail/wrap split within the batch: every record overwrites,
	// so only the final flush below applies.
	flushedAtWrap := hd.h.numRecords == hd.h.maxRecords

	for _, rec := range recs {
		if err := hd.appendOne(rec); err != nil {
			return 0, err
		}

		if !flushedAtWrap && hd.h.numRecords == hd.h.maxRecords {
			// The ring just reached capacity inside this batch: persist
			// start_record now, before any further record in the batch
			// begins overwriting the oldest slots, so a crash partway
			// through the wrap still leaves a header consistent with what
			// made it to disk.
			if err := hd.writeHeader(); err != nil {
				return 0, err
			}

			flushedAtWrap = true
		}
	}

	if err := hd.writeHeader(); err != nil {
		return 0, err
	}

	return len(recs), nil
}

// appendOne writes a single record to the next physical slot and advances
// the header's ring bookkeeping in memory, without flushing the header.
func (hd *Handle) appendOne(rec Record) error {
	h := hd.h

	phys := (h.startRecord + h.numRecords) % h.maxRecords

	buf := encodeRecord(rec)
	if err := hd.pwriteAt(buf, recordOffset(phys)); err != nil {
		return err
	}

	if h.numRecords < h.maxRecords {
		h.numRecords++
	} else {
		h.startRecord = (h.startRecord + 1) % h.maxRecords
	}

	hd.synced = false

	return nil
}

// UpdateRecords overwrites the value of every live record whose time
// exactly matches t. It locates the first such record with a binary
// search, then steps backward to the earliest run of equal timestamps
// (timestamps are not required to be unique) before overwriting forward,
// matching the original implementation's update semantics.
func (hd *Handle) UpdateRecords(t int64, value float64) (int, error) {
	if !hd.writable {
		return 0, ErrReadOnly
	}

	if hd.h.numRecords == 0 {
		return 0, ErrNoRecords
	}

	n, err := hd.logicalForTime(t)
	if err != nil {
		return 0, err
	}

	for n > 0 {
		prevTime, err := hd.timeForLogical(n - 1)
		if err != nil {
			break
		}

		if prevTime != t {
			break
		}

		n--
	}

	updated := 0

	for n < int64(hd.h.numRecords) {
		rt, err := hd.timeForLogical(n)
		if err != nil {
			return updated, err
		}

		if rt != t {
			break
		}

		phys := physicalForLogical(hd.h, n)
		if err := hd.pwriteAt(encodeRecord(Record{Time: t, Value: value}), recordOffset(phys)); err != nil {
			return updated, err
		}

		updated++
		n++
	}

	return updated, nil
}

// DiscardRange tombstones every live record with start <= time <= end by
// overwriting its value with NaN, in place, at the record's own logical
// slot; the record's time is left untouched, so it is still found by a
// later time-ranged read (with a NaN value) and still excluded from
// statistics. (An earlier variant of this library wrote every tombstone to
// a single fixed offset, which corrupted the ring; this implementation
// writes each tombstone at the record's own physical slot.)
func (hd *Handle) DiscardRange(start, end int64) (int, error) {
	if !hd.writable {
		return 0, ErrReadOnly
	}

	if end != 0 && start != 0 && end < start {
		return 0, ErrTimeRange
	}

	discarded := 0

	for n := int64(0); n < int64(hd.h.numRecords); n++ {
		rec, err := hd.readRecordAt(n)
		if err != nil {
			return discarded, err
		}

		if start != 0 && rec.Time < start {
			continue
		}

		if end != 0 && rec.Time > end {
			continue
		}

		phys := physicalForLogical(hd.h, n)
		if err := hd.pwriteAt(encodeRecord(Record{Time: rec.Time, Value: nan()}), recordOffset(phys)); err != nil {
			return discarded, err
		}

		discarded++
	}

	return discarded, nil
}

// sortRecordsByTime sorts recs in place by ascending time.
func sortRecordsByTime(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Time < recs[j].Time })
}
