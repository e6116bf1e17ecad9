package projection

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	SnapshotProjectionType = "ReservationReadModel"
	SnapshotKey            = "default"
)

var (
	// ErrSnapshotLoadFailed is returned when the snapshot store could not be read.
	ErrSnapshotLoadFailed = errors.New("snapshot load failed")

	// ErrSnapshotDeserializationFailed is returned when a stored snapshot does not decode into State.
	ErrSnapshotDeserializationFailed = errors.New("snapshot deserialization failed")

	// ErrJSONSerializationFailed is returned when the state does not encode to JSON.
	ErrJSONSerializationFailed = errors.New("JSON serialization failed")

	// ErrSnapshotBuildFailed is returned when the snapshot build fails.
	ErrSnapshotBuildFailed = errors.New("snapshot build failed")

	// ErrSnapshotSaveFailed is returned when snapshot save fails.
	ErrSnapshotSaveFailed = errors.New("snapshot save failed")
)

func loadSnapshot(ctx context.Context, store eventstore.SnapshotStore) (State, bool, error) {
	snapshot, err := store.LoadSnapshot(ctx, SnapshotProjectionType, SnapshotKey)
	if err != nil {
		return State{}, false, errors.Join(ErrSnapshotLoadFailed, err)
	}

	if snapshot == nil {
		return State{}, false, nil
	}

	var state State
	if err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(snapshot.Data, &state); err != nil {
		return State{}, false, errors.Join(ErrSnapshotDeserializationFailed, err)
	}

	// The snapshot row knows its offset even if the payload was written by an older version.
	if state.Checkpoint < snapshot.GlobalOffset {
		state.Checkpoint = snapshot.GlobalOffset
	}

	return state, true, nil
}

func saveSnapshot(ctx context.Context, store eventstore.SnapshotStore, state State) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(state)
	if err != nil {
		return errors.Join(ErrJSONSerializationFailed, err)
	}

	snapshot, err := eventstore.BuildSnapshot(SnapshotProjectionType, SnapshotKey, state.Checkpoint, data)
	if err != nil {
		return errors.Join(ErrSnapshotBuildFailed, err)
	}

	if err = store.SaveSnapshot(ctx, snapshot); err != nil {
		return errors.Join(ErrSnapshotSaveFailed, err)
	}

	return nil
}
