package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeStore tracks read/apply calls against an in-memory value.
type fakeStore struct {
	value      string
	reads      int
	applies    int
	readErr    error
	applyErr   error
	applyNoop  bool
}

func (f *fakeStore) read(context.Context) (string, error) {
	f.reads++
	return f.value, f.readErr
}

func (f *fakeStore) apply(_ context.Context, declared string) error {
	f.applies++
	if f.applyErr != nil {
		return f.applyErr
	}
	if !f.applyNoop {
		f.value = declared
	}
	return nil
}

func (f *fakeStore) op(name, declared string) Op[string] {
	return Op[string]{Name: name, Declared: declared, Read: f.read, Apply: f.apply}
}

func TestReconcileInSync(t *testing.T) {
	store := &fakeStore{value: "ext4"}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), false)

	require.Equal(t, StatusOK, res.Status)
	require.False(t, res.Changed)
	require.Empty(t, res.Changes)
	require.Zero(t, store.applies)
}

func TestReconcileAppliesAndVerifies(t *testing.T) {
	store := &fakeStore{value: "xfs"}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), false)

	require.Equal(t, StatusOK, res.Status)
	require.True(t, res.Changed)
	require.Equal(t, 1, store.applies)
	require.Equal(t, 2, store.reads)
	require.Equal(t, Change{Old: "xfs", New: "ext4"}, res.Changes["value"])
}

func TestReconcileIdempotent(t *testing.T) {
	store := &fakeStore{value: "xfs"}
	op := store.op("/dev/sda", "ext4")

	first := Reconcile(context.Background(), op, false)
	second := Reconcile(context.Background(), op, false)

	require.True(t, first.Changed)
	require.Equal(t, StatusOK, second.Status)
	require.False(t, second.Changed)
	require.Equal(t, 1, store.applies)
}

func TestReconcileDryRunNeverApplies(t *testing.T) {
	store := &fakeStore{value: "xfs"}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), true)

	require.Equal(t, StatusPending, res.Status)
	require.False(t, res.Changed)
	require.Zero(t, store.applies)
	require.Equal(t, Change{Old: "xfs", New: "ext4"}, res.Changes["value"])

	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	require.Contains(t, string(encoded), `"result":null`)
}

func TestReconcileReadError(t *testing.T) {
	store := &fakeStore{readErr: errors.New("device gone")}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), false)

	require.Equal(t, StatusFailed, res.Status)
	require.Contains(t, res.Comment, "device gone")
	require.Zero(t, store.applies)
}

func TestReconcileApplyError(t *testing.T) {
	store := &fakeStore{value: "xfs", applyErr: errors.New("mkfs exited 1")}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), false)

	require.Equal(t, StatusFailed, res.Status)
	require.Contains(t, res.Comment, "mkfs exited 1")
}

func TestReconcileDetectsIneffectiveApply(t *testing.T) {
	store := &fakeStore{value: "xfs", applyNoop: true}

	res := Reconcile(context.Background(), store.op("/dev/sda", "ext4"), false)

	require.Equal(t, StatusFailed, res.Status)
	require.False(t, res.Changed)
	require.Contains(t, res.Comment, "after apply")
}

func TestReconcileCustomMessages(t *testing.T) {
	store := &fakeStore{value: "absent"}
	op := store.op("reporting", "present")
	op.Messages = Messages{
		Applied: "Database reporting has been added",
		Pending: "Database reporting is set to be added",
	}

	pending := Reconcile(context.Background(), op, true)
	require.Equal(t, "Database reporting is set to be added", pending.Comment)

	applied := Reconcile(context.Background(), op, false)
	require.Equal(t, "Database reporting has been added", applied.Comment)
}

func TestStatusJSONRoundTrip(t *testing.T) {
	cases := []struct {
		status  Status
		encoded string
	}{
		{StatusOK, "true"},
		{StatusFailed, "false"},
		{StatusPending, "null"},
	}
	for _, tc := range cases {
		data, err := json.Marshal(tc.status)
		require.NoError(t, err)
		require.Equal(t, tc.encoded, string(data))

		var decoded Status
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, tc.status, decoded)
	}

	var invalid Status
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &invalid))
}
