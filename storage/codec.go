package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pthm-cable/warren/telemetry"
)

const CurrentSchemaVersion = 1

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrNotInitialized  = errors.New("store is not initialized")
)

func EncodeRun(r RunRecord) ([]byte, error) {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = CurrentSchemaVersion
	}
	return json.Marshal(r)
}

func DecodeRun(data []byte) (RunRecord, error) {
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return RunRecord{}, err
	}
	if run.SchemaVersion != CurrentSchemaVersion {
		return RunRecord{}, fmt.Errorf("%w: run schema=%d", ErrVersionMismatch, run.SchemaVersion)
	}
	return run, nil
}

func EncodeWindow(s telemetry.WindowStats) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeWindow(data []byte) (telemetry.WindowStats, error) {
	var stats telemetry.WindowStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return telemetry.WindowStats{}, err
	}
	return stats, nil
}
