package codec

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := group.Envelope{
		ID:      uuid.New(),
		From:    3,
		Message: types.Message{Timestamp: 1 << 40, Sender: 3, Kind: types.KindRelease},
	}
	targets := []types.PeerID{1, 2, 300}

	got, gotTargets, err := UnmarshalEnvelope(MarshalEnvelope(env, targets))
	require.NoError(t, err)
	assert.Equal(t, env, got)
	assert.Equal(t, targets, gotTargets)

	_, gotTargets, err = UnmarshalEnvelope(MarshalEnvelope(env, nil))
	require.NoError(t, err)
	assert.Empty(t, gotTargets)
}

func TestIDsRoundTrip(t *testing.T) {
	ids, err := UnmarshalIDs(MarshalIDs([]types.PeerID{4, 5, 6}))
	require.NoError(t, err)
	assert.Equal(t, []types.PeerID{4, 5, 6}, ids)

	ids, err = UnmarshalIDs(MarshalIDs(nil))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestUnknownFieldsAreSkipped tests forward compatibility
func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := MarshalMessage(types.Message{Timestamp: 9, Sender: 2, Kind: types.KindAllow})
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	m, err := UnmarshalMessage(b)
	require.NoError(t, err)
	assert.Equal(t, types.Message{Timestamp: 9, Sender: 2, Kind: types.KindAllow}, m)
}

func TestMalformedInput(t *testing.T) {
	_, err := UnmarshalMessage([]byte{0x08})
	assert.ErrorIs(t, err, types.ErrMalformedMessage, "truncated varint")

	_, err = UnmarshalMessage(MarshalMessage(types.Message{Timestamp: 1, Sender: 1, Kind: types.Kind(9)}))
	assert.ErrorIs(t, err, types.ErrUnknownKind)

	_, _, err = UnmarshalEnvelope(nil)
	assert.ErrorIs(t, err, types.ErrMalformedMessage, "envelope without message")

	var b []byte
	b = protowire.AppendTag(b, envID, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2, 3})
	_, _, err = UnmarshalEnvelope(b)
	assert.ErrorIs(t, err, types.ErrMalformedMessage, "short uuid")
}
