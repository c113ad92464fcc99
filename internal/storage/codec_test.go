package storage

import (
	"errors"
	"testing"

	"nkscape/internal/model"
)

func TestRunSummaryCodecRoundTrip(t *testing.T) {
	summary := model.RunSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		ID: "run-7",
		Parameters: model.RunParameters{
			N: 4, K: 3, P: 5, Rho: 0.9, Network: "ring", Deg: 2,
		},
		FinalPerformance: 0.81,
	}

	data, err := EncodeRunSummary(summary)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRunSummary(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "run-7" || decoded.Parameters.Rho != 0.9 || decoded.FinalPerformance != 0.81 {
		t.Fatalf("round trip: %+v", decoded)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	summary := model.RunSummary{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 99, CodecVersion: CurrentCodecVersion},
		ID:              "run-8",
	}
	data, err := EncodeRunSummary(summary)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeRunSummary(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}
