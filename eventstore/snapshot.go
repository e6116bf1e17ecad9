package eventstore

import (
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidSnapshotJSON is returned when snapshot JSON data is malformed or invalid.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrEmptyProjectionType is returned when an empty projection type is provided.
	ErrEmptyProjectionType = errors.New("projection type must not be empty")

	// ErrEmptySnapshotKey is returned when an empty snapshot key is provided.
	ErrEmptySnapshotKey = errors.New("snapshot key must not be empty")

	// ErrSavingSnapshotFailed is returned when the snapshot save operation fails.
	ErrSavingSnapshotFailed = errors.New("saving snapshot failed")

	// ErrLoadingSnapshotFailed is returned when the snapshot load operation fails.
	ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")
)

// Snapshot represents a stored projection state together with the global offset of the last event
// it contains. Restoring a snapshot and streaming the events after GlobalOffset yields the same state
// as a full replay.
type Snapshot struct {
	ProjectionType string           // Type of projection (e.g., "ReservationReadModel")
	Key            string           // Distinguishes several snapshots of the same projection type
	GlobalOffset   GlobalOffsetUint // Last event offset folded into Data
	Data           json.RawMessage  // Serialized projection state as JSON
	CreatedAt      time.Time        // When this snapshot was created/updated
}

// Validate ensures the snapshot has valid data for storage operations.
func (s Snapshot) Validate() error {
	if s.ProjectionType == "" {
		return ErrEmptyProjectionType
	}

	if s.Key == "" {
		return ErrEmptySnapshotKey
	}

	if !jsoniter.ConfigFastest.Valid(s.Data) {
		return ErrInvalidSnapshotJSON
	}

	return nil
}

// BuildSnapshot creates a new Snapshot with validation.
func BuildSnapshot(
	projectionType string,
	key string,
	globalOffset GlobalOffsetUint,
	data json.RawMessage,
) (Snapshot, error) {

	snapshot := Snapshot{
		ProjectionType: projectionType,
		Key:            key,
		GlobalOffset:   globalOffset,
		Data:           data,
		CreatedAt:      time.Now(),
	}

	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}

	return snapshot, nil
}
