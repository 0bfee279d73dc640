package livekit

import (
	"context"
	"errors"
	"fmt"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/twitchtv/twirp"
	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// Client implements the room-hosting service operations the gateway needs on
// top of the LiveKit server APIs.
type Client struct {
	rooms *lksdk.RoomServiceClient
	sip   *lksdk.SIPClient
}

// NewClient creates the LiveKit API client from the gateway configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateLiveKit(); err != nil {
		return nil, err
	}
	return &Client{
		rooms: lksdk.NewRoomServiceClient(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret),
		sip:   lksdk.NewSIPClient(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret),
	}, nil
}

// DeleteRoomIfExists removes a room, treating "not found" as success. Used to
// guarantee a clean slate before re-provisioning a call room.
func (c *Client) DeleteRoomIfExists(ctx context.Context, roomName string) error {
	_, err := c.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: roomName})
	if err != nil {
		var terr twirp.Error
		if errors.As(err, &terr) && terr.Code() == twirp.NotFound {
			return nil
		}
		return fmt.Errorf("failed to delete room %s: %w", roomName, err)
	}
	logger.Base().Info("deleted stale room", zap.String("room_name", roomName))
	return nil
}

// CreateRoomWithMetadata creates a fresh room carrying the serialized call
// configuration. The metadata rides in the creation call itself so the room
// never exists without it.
func (c *Client) CreateRoomWithMetadata(ctx context.Context, roomName, metadata string) error {
	_, err := c.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:     roomName,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", roomName, err)
	}
	return nil
}

// CreateSIPParticipant dials the destination number into the room through the
// given outbound trunk and returns the participant id.
func (c *Client) CreateSIPParticipant(ctx context.Context, roomName, trunkID, phoneNumber, identity string) (string, error) {
	info, err := c.sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		SipTrunkId:          trunkID,
		SipCallTo:           phoneNumber,
		RoomName:            roomName,
		ParticipantIdentity: identity,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create sip participant: %w", err)
	}
	return info.ParticipantId, nil
}

// RoomMetadata fetches the authoritative metadata written at room creation.
// found is false when the room does not exist.
func (c *Client) RoomMetadata(ctx context.Context, roomName string) (string, bool, error) {
	resp, err := c.rooms.ListRooms(ctx, &livekit.ListRoomsRequest{Names: []string{roomName}})
	if err != nil {
		return "", false, fmt.Errorf("failed to list rooms: %w", err)
	}
	for _, room := range resp.Rooms {
		if room.Name == roomName {
			return room.Metadata, true, nil
		}
	}
	return "", false, nil
}
