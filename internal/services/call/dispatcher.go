package call

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// RoomAPI is the slice of the room-hosting service the dispatcher and the
// session path depend on. DeleteRoomIfExists must treat a missing room as
// success; every other failure is an error.
type RoomAPI interface {
	DeleteRoomIfExists(ctx context.Context, roomName string) error
	CreateRoomWithMetadata(ctx context.Context, roomName, metadata string) error
	CreateSIPParticipant(ctx context.Context, roomName, trunkID, phoneNumber, identity string) (participantID string, err error)
	RoomMetadata(ctx context.Context, roomName string) (metadata string, found bool, err error)
}

// Dispatcher provisions an isolated room per call and initiates the outbound
// leg through the configured SIP trunk.
type Dispatcher struct {
	rooms   RoomAPI
	trunkID string
}

// NewDispatcher creates a dispatcher bound to one outbound trunk.
func NewDispatcher(rooms RoomAPI, trunkID string) *Dispatcher {
	return &Dispatcher{rooms: rooms, trunkID: trunkID}
}

// RoomNameForPhone derives the room identifier deterministically from the
// destination number, so retries for the same number target the same room.
func RoomNameForPhone(phoneNumber string) string {
	return fmt.Sprintf("call-%s", strings.TrimPrefix(phoneNumber, "+"))
}

// Dispatch places an outbound call. overridesJSON carries per-call
// configuration overrides in the room metadata wire format; it participates
// in resolution with the usual precedence.
//
// The sequence is deliberately delete-then-create: wiping any pre-existing
// room guarantees no stale metadata or stale participants leak into the new
// attempt, and the metadata is written in the same call that creates the
// room so there is never a window where the room exists without it.
func (d *Dispatcher) Dispatch(ctx context.Context, phoneNumber, overridesJSON string) (*CallSession, error) {
	if d.trunkID == "" {
		return nil, ErrTrunkNotConfigured
	}

	cfg := ResolveConfiguration(overridesJSON)
	roomName := RoomNameForPhone(phoneNumber)

	metadata, err := json.Marshal(cfg)
	if err != nil {
		return nil, &DispatchError{Op: "encode metadata", Err: err}
	}

	logger.Base().Info("dispatching outbound call",
		zap.String("phone_number", phoneNumber),
		zap.String("room_name", roomName))

	if err := d.rooms.DeleteRoomIfExists(ctx, roomName); err != nil {
		return nil, &DispatchError{Op: "delete stale room", Err: err}
	}

	if err := d.rooms.CreateRoomWithMetadata(ctx, roomName, string(metadata)); err != nil {
		return nil, &DispatchError{Op: "create room", Err: err}
	}

	identity := fmt.Sprintf("user-%s", phoneNumber)
	participantID, err := d.rooms.CreateSIPParticipant(ctx, roomName, d.trunkID, phoneNumber, identity)
	if err != nil {
		return nil, &DispatchError{Op: "create sip participant", Err: err}
	}

	logger.Base().Info("call initiated",
		zap.String("room_name", roomName),
		zap.String("participant_id", participantID))

	return &CallSession{
		RoomName:      roomName,
		ParticipantID: participantID,
		Configuration: cfg,
		StartedAt:     time.Now(),
	}, nil
}
