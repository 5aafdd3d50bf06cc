package engine

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/campusops/triagecore/api/schemas"
)

// Fingerprint hashes the normalized form of an input. Two inputs that
// normalize identically hash identically, so callers can use the value as a
// cache key or as an audit handle tying a persisted result back to what was
// scored. The encoding is versioned implicitly by the scoring config
// version, which is mixed into the hash.
func (e *Engine) Fingerprint(in schemas.PriorityInput) (uint64, error) {
	norm, err := e.Normalize(in)
	if err != nil {
		return 0, err
	}

	// Fixed-order canonical encoding. Strings are length-prefixed so field
	// boundaries cannot alias; the timestamp keeps its zone offset because
	// the local clock feeds the urgency sub-score.
	buf := make([]byte, 0, 128)
	buf = appendString(buf, e.cfg.Version)
	buf = appendString(buf, string(norm.Category))
	buf = appendInt(buf, *norm.Severity)
	buf = appendString(buf, norm.Description)
	buf = appendString(buf, norm.BuildingID)
	buf = appendString(buf, norm.RoomID)
	buf = appendString(buf, string(norm.BuildingType))
	buf = appendBool(buf, *norm.IsTeachingSpace)
	buf = appendInt(buf, *norm.Occupancy)

	if t := *norm.ReportedAt; t.IsZero() {
		buf = appendInt(buf, 0)
		buf = appendInt(buf, 0)
	} else {
		_, offset := t.Zone()
		buf = appendInt(buf, int(t.UnixNano()))
		buf = appendInt(buf, offset)
	}

	buf = appendBool(buf, *norm.BlocksAccess)
	buf = appendBool(buf, *norm.SafetyRisk)
	buf = appendBool(buf, *norm.CriticalInfrastructure)
	buf = appendBool(buf, *norm.AffectsAcademics)
	buf = appendBool(buf, *norm.ExamPeriod)
	buf = appendBool(buf, *norm.CurrentSemester)
	buf = appendBool(buf, *norm.IsRecurring)
	buf = appendInt(buf, *norm.PreviousOccurrences)
	buf = appendInt(buf, int(norm.Defaulted))

	return xxh3.Hash(buf), nil
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func appendInt(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint64(b, uint64(int64(v)))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}
