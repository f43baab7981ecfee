package storage

import (
	"encoding/json"
	"errors"

	"symreg/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersions stamps a record with the versions this build writes.
func CurrentVersions() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeEquation(r model.EquationRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeEquation(data []byte) (model.EquationRecord, error) {
	var record model.EquationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.EquationRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.EquationRecord{}, err
	}
	return record, nil
}

func EncodeFitTrace(r model.FitTraceRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeFitTrace(data []byte) (model.FitTraceRecord, error) {
	var record model.FitTraceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.FitTraceRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.FitTraceRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
