package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
)

var codecNow = time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)

func decodeHealth(t *testing.T, clock *dates.Normalizer, doc bson.D) models.HealthRecord {
	t.Helper()

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		t.Fatalf("NewDecoder returned error: %v", err)
	}
	dec.SetRegistry(newRegistry(clock))

	var out models.HealthRecord
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("Expected legacy document to decode, got %v", err)
	}
	return out
}

func TestDecodeLegacyDates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	clock := dates.NewNormalizer(time.UTC, zap.New(core)).WithClock(func() time.Time { return codecNow })

	jan10 := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date any
		want time.Time
	}{
		{"slash string", "2024/01/10", jan10},
		{"iso string", "2024-01-10T08:00:00Z", jan10},
		{"timestamp document", bson.D{{Key: "seconds", Value: jan10.Unix() + 3600}, {Key: "nanoseconds", Value: int32(0)}}, jan10},
		{"exported timestamp document", bson.D{{Key: "_seconds", Value: int32(jan10.Unix())}, {Key: "_nanoseconds", Value: int32(0)}}, jan10},
		{"epoch millis", jan10.UnixMilli(), jan10},
		{"epoch seconds double", float64(jan10.Unix()), jan10},
		{"bson timestamp", primitive.Timestamp{T: uint32(jan10.Unix())}, jan10},
		{"unreadable string", "someday", today},
		{"wrong type", true, today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeHealth(t, clock, bson.D{
				{Key: "_id", Value: "h1"},
				{Key: "animalId", Value: "a1"},
				{Key: "date", Value: tt.date},
			})
			if !got.Date.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got.Date)
			}
			if got.AnimalID != "a1" {
				t.Errorf("Expected the rest of the document decoded, got %+v", got)
			}
		})
	}

	if logs.FilterMessage("unreadable date, falling back to today").Len() != 2 {
		t.Errorf("Expected 2 fallback warnings, got %d", logs.Len())
	}
}

func TestDecodeKeepsDateTimesExact(t *testing.T) {
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return codecNow })
	at := time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

	got := decodeHealth(t, clock, bson.D{
		{Key: "_id", Value: "h1"},
		{Key: "date", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "nextDoseDate", Value: nil},
	})

	if !got.Date.Equal(at) {
		t.Errorf("Expected %s, got %s", at, got.Date)
	}
	if got.NextDoseDate != nil {
		t.Errorf("Expected null next dose to stay nil, got %v", got.NextDoseDate)
	}
}

func TestDecodeLegacyPointerDate(t *testing.T) {
	clock := dates.NewNormalizer(time.UTC, nil).WithClock(func() time.Time { return codecNow })

	got := decodeHealth(t, clock, bson.D{
		{Key: "_id", Value: "h1"},
		{Key: "date", Value: "2024-01-10"},
		{Key: "nextDoseDate", Value: "2024/1/24"},
	})

	if got.NextDoseDate == nil || got.NextDoseDate.Format(dates.ISOLayout) != "2024-01-24" {
		t.Errorf("Expected next dose 2024-01-24, got %v", got.NextDoseDate)
	}
}
