package circulardb

// logicalForTime finds the logical index of the first live record whose
// time is >= reqTime, using the same recursive binary search as
// _logical_record_for_time in the original implementation.
func (hd *Handle) logicalForTime(reqTime int64) (int64, error) {
	if hd.h.numRecords == 0 {
		return 0, ErrNoRecords
	}

	return hd.searchLogicalForTime(reqTime, 0, int64(hd.h.numRecords)-1, true)
}

// searchLogicalForTime is the recursive step. lo and hi are logical indices
// bracketing reqTime; first indicates whether this is the initial call,
// which uses fractional extrapolation for its pivot instead of a plain
// midpoint. Every step applies these checks, in order, before recursing:
//
//   - reqTime == 0 means "no particular time requested": return lo.
//   - A search space of 1 or 2 records: return hi.
//   - reqTime <= time_at(lo): lo is already the best answer.
//   - lo is the last record: nothing past it to consider, return lo.
//   - The sequence is non-monotone at lo (the next distinctly-timed record's
//     time doesn't exceed lo's): return lo rather than trust a bad pivot.
//   - reqTime <= time_at(next): next is the answer.
//
// Only once none of these apply does it compute a pivot and recurse.
func (hd *Handle) searchLogicalForTime(reqTime, lo, hi int64, first bool) (int64, error) {
	if reqTime == 0 {
		return lo, nil
	}

	if hi-lo <= 1 {
		return hi, nil
	}

	numRecs := int64(hd.h.numRecords)

	startTime, err := hd.timeForLogical(lo)
	if err != nil {
		return 0, err
	}

	if reqTime <= startTime {
		return lo, nil
	}

	if lo+1 >= numRecs {
		return lo, nil
	}

	// Walk forward from lo to the next record whose time actually differs
	// from startTime (timeForLogical already skips corrupted/unwritten
	// slots; this additionally skips a run of records sharing lo's time).
	next := lo
	nextTime := startTime

	for nextTime == startTime {
		next++

		if next >= numRecs {
			break
		}

		nextTime, err = hd.timeForLogical(next)
		if err != nil {
			return 0, err
		}
	}

	delta := nextTime - startTime

	switch {
	case delta <= 0:
		return lo, nil
	case reqTime <= nextTime:
		return next, nil
	}

	var pivot int64

	if first {
		pivot = (reqTime-startTime)/delta - 1
	} else {
		pivot = lo + (hi-lo)/2
	}

	pivot %= numRecs
	if pivot < 0 {
		pivot += numRecs
	}

	pivotTime, err := hd.timeForLogical(pivot)
	if err != nil {
		return 0, err
	}

	if reqTime >= pivotTime {
		lo = pivot
	} else {
		hi = pivot
	}

	return hd.searchLogicalForTime(reqTime, lo, hi, false)
}
