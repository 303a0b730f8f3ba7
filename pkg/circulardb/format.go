package circulardb

import "encoding/binary"

// On-disk layout. A CircularDB file is a fixed header, exactly headerSize
// bytes, followed by maxRecords records of recordSize bytes each, starting
// immediately after the header. Multi-byte fields are little-endian; this
// package does not support reading a big-endian-written file.
//
//	offset  size  field
//	0       4     token    "CDB\x00"
//	4       6     version  "1.1.1" + NUL
//	10      128   name     NUL-padded UTF-8
//	138     512   desc     NUL-padded UTF-8
//	650     64    units    NUL-padded UTF-8, e.g. "per sec" or "absolute"
//	714     2     pad
//	716     4     type     int32: TypeGauge | TypeCounter
//	720     8     minValue float64
//	728     8     maxValue float64
//	736     8     maxRecords uint64
//	744     4     interval int32 (seconds)
//	748     4     pad
//	752     8     startRecord uint64 (physical index of the oldest record)
//	760     8     numRecords uint64 (count of live records, <= maxRecords)
const (
	offToken       = 0
	offVersion     = 4
	offName        = 10
	offDesc        = 138
	offUnits       = 650
	offType        = 716
	offMinValue    = 720
	offMaxValue    = 728
	offMaxRecords  = 736
	offInterval    = 744
	offStartRecord = 752
	offNumRecords  = 760

	headerSize = 768

	tokenSize   = 4
	versionSize = 6
	nameSize    = 128
	descSize    = 512
	unitsSize   = 64

	// recordSize is sizeof(int64) + sizeof(float64): an 8-byte Unix
	// timestamp (seconds) followed by an 8-byte IEEE-754 value.
	recordSize = 16
)

const (
	magicToken    = "CDB\x00"
	formatVersion = "1.1.1"

	defaultUnits      = "absolute"
	defaultMaxRecords = 105120
	defaultInterval   = 300
)

// RecordType distinguishes a gauge (an instantaneous reading, stored as-is)
// from a counter (a monotonically increasing total, differenced into a rate
// during cooking).
type RecordType int32

const (
	// TypeGauge values are not differenced by cooking; they are still
	// rate-scaled when the database's units parse as a rate, and subject to
	// min/max gating and step-averaging.
	TypeGauge RecordType = 2

	// TypeCounter values are successive differences during cooking: each
	// cooked value is v[i]-v[i-1]; when the database's units parse as a
	// rate it is further divided by t[i]-t[i-1] and multiplied by the
	// units' scale factor.
	TypeCounter RecordType = 4
)

func (t RecordType) String() string {
	switch t {
	case TypeGauge:
		return "gauge"
	case TypeCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// header is the decoded in-memory image of the fixed file header. Field
// names mirror the on-disk layout above, not Go naming conventions for
// exported API (see CreateOptions/Info for the public-facing shape).
type header struct {
	token       [tokenSize]byte
	version     [versionSize]byte
	name        string
	desc        string
	units       string
	recordType  RecordType
	minValue    float64
	maxValue    float64
	maxRecords  uint64
	interval    int32
	startRecord uint64
	numRecords  uint64
}

// encodeHeader serializes h into a headerSize-byte buffer.
func encodeHeader(h *header) []byte {
	buf := make([]byte, headerSize)

	copy(buf[offToken:offToken+tokenSize], magicToken)
	copy(buf[offVersion:offVersion+versionSize], formatVersion)
	putFixedString(buf[offName:offName+nameSize], h.name)
	putFixedString(buf[offDesc:offDesc+descSize], h.desc)
	putFixedString(buf[offUnits:offUnits+unitsSize], h.units)

	binary.LittleEndian.PutUint32(buf[offType:], uint32(h.recordType))
	binary.LittleEndian.PutUint64(buf[offMinValue:], floatBits(h.minValue))
	binary.LittleEndian.PutUint64(buf[offMaxValue:], floatBits(h.maxValue))
	binary.LittleEndian.PutUint64(buf[offMaxRecords:], h.maxRecords)
	binary.LittleEndian.PutUint32(buf[offInterval:], uint32(h.interval))
	binary.LittleEndian.PutUint64(buf[offStartRecord:], h.startRecord)
	binary.LittleEndian.PutUint64(buf[offNumRecords:], h.numRecords)

	return buf
}

// decodeHeader parses a headerSize-byte buffer into a header. It does not
// validate the token or version; callers check those explicitly so they can
// return the specific ErrBadToken/ErrBadVersion sentinels.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, ErrSanity
	}

	h := &header{}

	copy(h.token[:], buf[offToken:offToken+tokenSize])
	copy(h.version[:], buf[offVersion:offVersion+versionSize])
	h.name = getFixedString(buf[offName : offName+nameSize])
	h.desc = getFixedString(buf[offDesc : offDesc+descSize])
	h.units = getFixedString(buf[offUnits : offUnits+unitsSize])

	h.recordType = RecordType(binary.LittleEndian.Uint32(buf[offType:]))
	h.minValue = bitsFloat(binary.LittleEndian.Uint64(buf[offMinValue:]))
	h.maxValue = bitsFloat(binary.LittleEndian.Uint64(buf[offMaxValue:]))
	h.maxRecords = binary.LittleEndian.Uint64(buf[offMaxRecords:])
	h.interval = int32(binary.LittleEndian.Uint32(buf[offInterval:]))
	h.startRecord = binary.LittleEndian.Uint64(buf[offStartRecord:])
	h.numRecords = binary.LittleEndian.Uint64(buf[offNumRecords:])

	return h, nil
}

// hasValidToken reports whether buf begins with the CircularDB magic.
func hasValidToken(buf []byte) bool {
	if len(buf) < tokenSize {
		return false
	}

	return string(buf[offToken:offToken+tokenSize]) == magicToken
}

// hasValidVersion reports whether h carries a version this package can read.
// There is a single on-disk format today, so this is an exact match.
func hasValidVersion(h *header) bool {
	return getFixedString(h.version[:]) == formatVersion
}

// encodeRecord serializes a single (time, value) pair.
func encodeRecord(r Record) []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.Time))
	binary.LittleEndian.PutUint64(buf[8:16], floatBits(r.Value))

	return buf
}

// decodeRecord parses a single recordSize-byte record.
func decodeRecord(buf []byte) Record {
	return Record{
		Time:  int64(binary.LittleEndian.Uint64(buf[0:8])),
		Value: bitsFloat(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

func putFixedString(dst []byte, s string) {
	clear(dst)
	n := copy(dst, s)
	_ = n
}

func getFixedString(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}

	return string(src[:n])
}
