package mongodb

import (
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/herd/internal/domain/dates"
)

var timeType = reflect.TypeOf(time.Time{})

// newRegistry is the default registry plus a time.Time decoder that also
// reads dates written by older clients: strings, epoch numbers, BSON
// timestamps and {seconds, nanoseconds} documents.
func newRegistry(clock *dates.Normalizer) *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeDecoder(timeType, timeDecoder(clock))
	return reg
}

func timeDecoder(clock *dates.Normalizer) bsoncodec.ValueDecoderFunc {
	return func(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
		if !val.CanSet() || val.Type() != timeType {
			return bsoncodec.ValueDecoderError{Name: "timeDecoder", Types: []reflect.Type{timeType}, Received: val}
		}
		t, err := readTime(clock, vr)
		if err != nil {
			return err
		}
		val.Set(reflect.ValueOf(t))
		return nil
	}
}

// readTime keeps BSON datetimes exact. Every other shape is a calendar date
// and goes through the Normalizer, which never fails.
func readTime(clock *dates.Normalizer, vr bsonrw.ValueReader) (time.Time, error) {
	var raw any
	switch kind := vr.Type(); kind {
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case bsontype.Null:
		return time.Time{}, vr.ReadNull()
	case bsontype.Undefined:
		return time.Time{}, vr.ReadUndefined()
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return time.Time{}, err
		}
		raw = s
	case bsontype.Int32:
		n, err := vr.ReadInt32()
		if err != nil {
			return time.Time{}, err
		}
		raw = n
	case bsontype.Int64:
		n, err := vr.ReadInt64()
		if err != nil {
			return time.Time{}, err
		}
		raw = n
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return time.Time{}, err
		}
		raw = f
	case bsontype.Timestamp:
		t, i, err := vr.ReadTimestamp()
		if err != nil {
			return time.Time{}, err
		}
		raw = primitive.Timestamp{T: t, I: i}
	case bsontype.EmbeddedDocument:
		doc, err := bsonrw.Copier{}.CopyDocumentToBytes(vr)
		if err != nil {
			return time.Time{}, err
		}
		var m bson.M
		if err := bson.Unmarshal(doc, &m); err != nil {
			return time.Time{}, fmt.Errorf("decode date document: %w", err)
		}
		raw = map[string]any(m)
	default:
		if err := vr.Skip(); err != nil {
			return time.Time{}, err
		}
		raw = kind.String()
	}
	return clock.Normalize(dates.FromAny(raw)), nil
}
