package dates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind tags which representation a DateLike carries.
type Kind uint8

const (
	KindNone Kind = iota
	KindNative
	KindEpoch
	KindISO
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindEpoch:
		return "epoch"
	case KindISO:
		return "iso"
	default:
		return "none"
	}
}

// DateLike is any date representation that reaches the service: a Go time, a
// wire timestamp ({seconds, nanoseconds}) or a string. Only the Normalizer
// looks inside it.
type DateLike struct {
	kind    Kind
	native  time.Time
	seconds int64
	nanos   int64
	value   string
}

// Native wraps a time.Time.
func Native(t time.Time) DateLike {
	return DateLike{kind: KindNative, native: t}
}

// Epoch wraps a wire timestamp expressed as seconds and nanoseconds since the Unix epoch.
func Epoch(seconds, nanos int64) DateLike {
	return DateLike{kind: KindEpoch, seconds: seconds, nanos: nanos}
}

// ISO wraps a date string (ISO-8601, date-only, or slash separated).
func ISO(value string) DateLike {
	return DateLike{kind: KindISO, value: value}
}

// Kind reports the representation.
func (d DateLike) Kind() Kind { return d.kind }

// IsZero reports whether no date was supplied at all.
func (d DateLike) IsZero() bool { return d.kind == KindNone }

func (d DateLike) String() string {
	switch d.kind {
	case KindNative:
		return d.native.Format(time.RFC3339Nano)
	case KindEpoch:
		return fmt.Sprintf("epoch(%d.%09d)", d.seconds, d.nanos)
	case KindISO:
		return d.value
	default:
		return ""
	}
}

// FromAny converts loosely typed values (spreadsheet cells, BSON values,
// decoded JSON) into a DateLike. Unknown shapes become an ISO value holding
// their printed form so they go through the normal fallback path.
func FromAny(v any) DateLike {
	switch val := v.(type) {
	case nil:
		return DateLike{}
	case DateLike:
		return val
	case time.Time:
		return Native(val)
	case *time.Time:
		if val == nil {
			return DateLike{}
		}
		return Native(*val)
	case primitive.DateTime:
		return Native(val.Time())
	case primitive.Timestamp:
		return Epoch(int64(val.T), 0)
	case string:
		if strings.TrimSpace(val) == "" {
			return DateLike{}
		}
		return ISO(val)
	case int:
		return epochFromNumber(float64(val))
	case int32:
		return epochFromNumber(float64(val))
	case int64:
		return epochFromNumber(float64(val))
	case float64:
		return epochFromNumber(val)
	case map[string]any:
		if d, ok := epochFromMap(val); ok {
			return d
		}
		return ISO(fmt.Sprint(val))
	default:
		return ISO(fmt.Sprint(val))
	}
}

const (
	// Numbers above this are treated as milliseconds rather than seconds.
	millisThreshold = 1e11
	// Beyond this a float no longer converts to int64 milliseconds.
	maxEpochNumber = 9e18
)

// epochFromNumber reads seconds or milliseconds. Non-finite and huge values
// are kept as text so the Normalizer treats them as unreadable.
func epochFromNumber(n float64) DateLike {
	if math.IsNaN(n) || math.Abs(n) > maxEpochNumber {
		return ISO(strconv.FormatFloat(n, 'g', -1, 64))
	}
	if n > millisThreshold || n < -millisThreshold {
		ms := int64(n)
		return Epoch(ms/1000, (ms%1000)*int64(time.Millisecond))
	}
	sec := int64(n)
	return Epoch(sec, int64((n-float64(sec))*1e9))
}

func epochFromMap(m map[string]any) (DateLike, bool) {
	var secRaw any
	for _, key := range []string{"seconds", "_seconds"} {
		if v, ok := m[key]; ok {
			secRaw = v
			break
		}
	}
	if secRaw == nil {
		return DateLike{}, false
	}
	sec, ok := toInt64(secRaw)
	if !ok {
		return DateLike{}, false
	}
	var nanos int64
	for _, key := range []string{"nanoseconds", "_nanoseconds"} {
		if v, ok := m[key]; ok {
			nanos, _ = toInt64(v)
			break
		}
	}
	return Epoch(sec, nanos), true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// UnmarshalJSON accepts null, strings, epoch numbers and timestamp objects.
// It never fails: unrecognized payloads are kept as text and resolved by the
// Normalizer's fallback.
func (d *DateLike) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = DateLike{}
		return nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*d = ISO(string(trimmed))
		return nil
	}

	switch val := raw.(type) {
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			*d = ISO(val.String())
			return nil
		}
		*d = epochFromNumber(f)
	case map[string]any:
		if parsed, ok := epochFromMap(val); ok {
			*d = parsed
			return nil
		}
		*d = ISO(string(trimmed))
	default:
		*d = FromAny(val)
	}
	return nil
}

// MarshalJSON writes the value back in its own representation.
func (d DateLike) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case KindNative:
		return json.Marshal(d.native.Format(time.RFC3339Nano))
	case KindEpoch:
		return json.Marshal(map[string]int64{"seconds": d.seconds, "nanoseconds": d.nanos})
	case KindISO:
		return json.Marshal(d.value)
	default:
		return []byte("null"), nil
	}
}
