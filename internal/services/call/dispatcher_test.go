package call

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasu-devs/Vaani/internal/domain"
)

// fakeRoomAPI records provisioning calls in order.
type fakeRoomAPI struct {
	ops          []string
	metadata     string
	deleteErr    error
	createErr    error
	sipErr       error
	roomMetadata string
}

func (f *fakeRoomAPI) DeleteRoomIfExists(ctx context.Context, roomName string) error {
	f.ops = append(f.ops, "delete:"+roomName)
	return f.deleteErr
}

func (f *fakeRoomAPI) CreateRoomWithMetadata(ctx context.Context, roomName, metadata string) error {
	f.ops = append(f.ops, "create:"+roomName)
	f.metadata = metadata
	return f.createErr
}

func (f *fakeRoomAPI) CreateSIPParticipant(ctx context.Context, roomName, trunkID, phoneNumber, identity string) (string, error) {
	f.ops = append(f.ops, "sip:"+roomName+":"+trunkID+":"+identity)
	if f.sipErr != nil {
		return "", f.sipErr
	}
	return "PA_123", nil
}

func (f *fakeRoomAPI) RoomMetadata(ctx context.Context, roomName string) (string, bool, error) {
	return f.roomMetadata, f.roomMetadata != "", nil
}

func TestRoomNameForPhone(t *testing.T) {
	assert.Equal(t, "call-15551234567", RoomNameForPhone("+15551234567"))
	assert.Equal(t, "call-15551234567", RoomNameForPhone("15551234567"))
}

func TestDispatchRequiresTrunk(t *testing.T) {
	d := NewDispatcher(&fakeRoomAPI{}, "")

	session, err := d.Dispatch(context.Background(), "+15551234567", "")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrTrunkNotConfigured)
}

func TestDispatchProvisionsCleanRoom(t *testing.T) {
	rooms := &fakeRoomAPI{}
	d := NewDispatcher(rooms, "ST_trunk")

	session, err := d.Dispatch(context.Background(), "+15551234567", `{"debtor_name":"Alice","debt_amount":"900"}`)
	require.NoError(t, err)

	// Stale state is wiped before the fresh room is created, and the SIP leg
	// is dispatched last.
	assert.Equal(t, []string{
		"delete:call-15551234567",
		"create:call-15551234567",
		"sip:call-15551234567:ST_trunk:user-+15551234567",
	}, rooms.ops)

	assert.Equal(t, "call-15551234567", session.RoomName)
	assert.Equal(t, "PA_123", session.ParticipantID)
	assert.Equal(t, "Alice", session.Configuration.DebtorName)
	assert.False(t, session.StartedAt.IsZero())

	// The room metadata carries the fully resolved configuration.
	var meta domain.CallConfiguration
	require.NoError(t, json.Unmarshal([]byte(rooms.metadata), &meta))
	assert.Equal(t, "Alice", meta.DebtorName)
	assert.Equal(t, "900", meta.DebtAmount)
	assert.NotEmpty(t, meta.AgentName)
}

func TestDispatchTwiceTargetsSameRoom(t *testing.T) {
	rooms := &fakeRoomAPI{}
	d := NewDispatcher(rooms, "ST_trunk")

	_, err := d.Dispatch(context.Background(), "+15551234567", "")
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), "+15551234567", "")
	require.NoError(t, err)

	// Retrying the same number reuses the identifier but always wipes the
	// previous room first, so nothing leaks between attempts.
	assert.Equal(t, "delete:call-15551234567", rooms.ops[0])
	assert.Equal(t, "delete:call-15551234567", rooms.ops[3])
}

func TestDispatchWrapsProvisioningFailures(t *testing.T) {
	cause := errors.New("upstream down")

	for name, rooms := range map[string]*fakeRoomAPI{
		"delete": {deleteErr: cause},
		"create": {createErr: cause},
		"sip":    {sipErr: cause},
	} {
		t.Run(name, func(t *testing.T) {
			d := NewDispatcher(rooms, "ST_trunk")

			_, err := d.Dispatch(context.Background(), "+15551234567", "")

			var dispatchErr *DispatchError
			require.ErrorAs(t, err, &dispatchErr)
			assert.ErrorIs(t, err, cause)
		})
	}
}
