package circulardb

// cook runs the cooking pipeline over raw, in order:
//
//  1. Counter differencing: for a TypeCounter database, record i (i>=1)
//     becomes records[i].Value - records[i-1].Value if both are finite and
//     the difference is non-negative, else NaN (a descending counter means
//     the source wrapped or was reset). Record 0 only serves as the
//     baseline for record 1 and is dropped.
//  2. Unit rate scaling: if the database's Units parse as a rate (e.g.
//     "per sec"), every record i>=1 with dt = time[i]-time[i-1] > 0 has its
//     value divided by dt and multiplied by the unit's scale factor. This
//     applies to gauges and counters alike, and also drops record 0 (it
//     only exists to provide a baseline time/value for record 1). When
//     both counter differencing and rate scaling apply, scaling operates
//     on the already-differenced value.
//  3. Min/max gating: a finite cooked value outside [MinValue, MaxValue]
//     becomes NaN, unless MinValue == MaxValue == 0, which disables
//     gating.
//  4. Step averaging: if req.Step > 1, cooked records are grouped into
//     fixed-size windows of req.Step and each window is replaced by one
//     record: the mean of the window's times and the mean of its values,
//     treating NaN as zero.
//  5. Count trimming: positive req.Count keeps the last req.Count records;
//     negative keeps the first -req.Count. This only runs as part of
//     cooking; an uncooked read is not retrimmed here.
func (hd *Handle) cook(raw []Record, req Request) ([]Record, error) {
	h := hd.h

	pairwise := differencePairwise(raw, h.recordType, scaleFactor(h.units))

	gated := gateMinMax(pairwise, h.minValue, h.maxValue)

	averaged := gated
	if req.Step > 1 {
		averaged = stepAverage(gated, req.Step)
	}

	return trimByCountSigned(averaged, req.Count), nil
}

// differencePairwise implements cook steps 1 and 2 in a single pass, since
// both operate record-by-record against the previous raw record and both
// drop record 0. If the database is a gauge and units don't parse as a
// rate, this is the identity: raw is returned unchanged.
func differencePairwise(raw []Record, recordType RecordType, factor float64) []Record {
	needsPairwise := recordType == TypeCounter || factor != 0

	if !needsPairwise {
		return raw
	}

	if len(raw) < 2 {
		return nil
	}

	out := make([]Record, len(raw)-1)

	for i := 1; i < len(raw); i++ {
		var v float64

		if recordType == TypeCounter {
			d := raw[i].Value - raw[i-1].Value
			if isFiniteVal(raw[i].Value) && isFiniteVal(raw[i-1].Value) && d >= 0 {
				v = d
			} else {
				v = nan()
			}
		} else {
			v = raw[i].Value
		}

		dt := raw[i].Time - raw[i-1].Time
		if factor != 0 && dt > 0 && isFiniteVal(v) {
			v = factor * v / float64(dt)
		}

		out[i-1] = Record{Time: raw[i].Time, Value: v}
	}

	return out
}

// gateMinMax turns any finite value outside [min, max] into NaN. A
// database with min == max == 0 has gating disabled, since that is not a
// usable bound (every value would be rejected otherwise).
func gateMinMax(recs []Record, min, max float64) []Record {
	if min == 0 && max == 0 {
		return recs
	}

	out := make([]Record, len(recs))

	for i, r := range recs {
		if isFiniteVal(r.Value) && (r.Value < min || r.Value > max) {
			out[i] = Record{Time: r.Time, Value: nan()}
		} else {
			out[i] = r
		}
	}

	return out
}

// stepAverage groups recs into fixed-size windows of step records and
// replaces each window with a single record: the mean of the window's
// times and the mean of its values, treating NaN as zero. A trailing
// partial window (fewer than step records) is still averaged and emitted.
func stepAverage(recs []Record, step int64) []Record {
	if step <= 1 || len(recs) == 0 {
		return recs
	}

	out := make([]Record, 0, (int64(len(recs))+step-1)/step)

	for i := 0; i < len(recs); i += int(step) {
		end := i + int(step)
		if end > len(recs) {
			end = len(recs)
		}

		window := recs[i:end]

		var timeSum int64

		var valueSum float64

		for _, r := range window {
			timeSum += r.Time

			if isFiniteVal(r.Value) {
				valueSum += r.Value
			}
		}

		out = append(out, Record{
			Time:  timeSum / int64(len(window)),
			Value: valueSum / float64(len(window)),
		})
	}

	return out
}

// trimByCountSigned applies the cooker's final count trim: positive keeps
// the last count records, negative keeps the first -count, zero is a
// no-op. It is only applied when the slab already has at least |count|
// records.
func trimByCountSigned(recs []Record, count int64) []Record {
	if count == 0 || int64(len(recs)) < abs64(count) {
		return recs
	}

	if count > 0 {
		return recs[int64(len(recs))-count:]
	}

	return recs[:-count]
}
