package livekit

import (
	"context"
	"fmt"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/internal/prompts"
	"github.com/vasu-devs/Vaani/internal/services/call"
	"github.com/vasu-devs/Vaani/internal/services/risk"
	"github.com/vasu-devs/Vaani/internal/storage"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// DialogueRunner owns the live conversation: turn-taking, speech and the
// transcript entry stream. The gateway only hands it the room plus the
// resolved prompts, and snapshots its transcript at finalize time.
type DialogueRunner interface {
	call.TranscriptSource
	Start(ctx context.Context, room *lksdk.Room, cfg domain.CallConfiguration, systemPrompt, greeting string) error
}

// NullDialogue is the placeholder runner used when no dialogue engine is
// wired. Calls complete with an empty transcript.
type NullDialogue struct{}

func (NullDialogue) Start(ctx context.Context, room *lksdk.Room, cfg domain.CallConfiguration, systemPrompt, greeting string) error {
	return nil
}

func (NullDialogue) Snapshot() []domain.TranscriptEntry { return nil }

// SessionRunner drives one call session end to end: it joins the provisioned
// room as the agent participant, overlays the authoritative room metadata
// onto the dispatched configuration, hands the conversation to the dialogue
// runner, and funnels every termination signal into the session's finalizer.
type SessionRunner struct {
	cfg         *config.Config
	rooms       call.RoomAPI
	registry    *call.Registry
	analyzer    *risk.Analyzer
	store       *storage.RecordStore
	newDialogue func() DialogueRunner
}

// NewSessionRunner wires the runner. newDialogue is invoked once per session;
// pass nil to run with NullDialogue.
func NewSessionRunner(cfg *config.Config, rooms call.RoomAPI, registry *call.Registry, analyzer *risk.Analyzer, store *storage.RecordStore, newDialogue func() DialogueRunner) *SessionRunner {
	if newDialogue == nil {
		newDialogue = func() DialogueRunner { return NullDialogue{} }
	}
	return &SessionRunner{
		cfg:         cfg,
		rooms:       rooms,
		registry:    registry,
		analyzer:    analyzer,
		store:       store,
		newDialogue: newDialogue,
	}
}

// Run connects the agent to the session's room and returns once the session
// is live. Finalization happens in the background on the first termination
// signal; ctx cancellation is covered by the registry's shutdown pass.
func (r *SessionRunner) Run(ctx context.Context, session *call.CallSession) error {
	dialogue := r.newDialogue()
	finalizer := call.NewSessionFinalizer(session.RoomName, config.FinalizeTimeout, r.pipeline(session, dialogue))

	roomCallback := &lksdk.RoomCallback{
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			logger.Base().Info("participant disconnected",
				zap.String("participant_identity", rp.Identity()),
				zap.String("room_name", session.RoomName))
			finalizer.Trigger()
		},
		OnDisconnected: func() {
			logger.Base().Info("room disconnected", zap.String("room_name", session.RoomName))
			finalizer.Trigger()
		},
	}

	room, err := lksdk.ConnectToRoom(r.cfg.LiveKitURL, lksdk.ConnectInfo{
		APIKey:              r.cfg.LiveKitAPIKey,
		APISecret:           r.cfg.LiveKitAPISecret,
		RoomName:            session.RoomName,
		ParticipantIdentity: fmt.Sprintf("agent-%s", session.RoomName),
	}, roomCallback)
	if err != nil {
		return fmt.Errorf("failed to connect to room %s: %w", session.RoomName, err)
	}

	// Second resolution pass: the metadata written at room creation is the
	// source of truth and may differ from what dispatch saw. Best-effort; a
	// fetch failure keeps the dispatched configuration.
	if metadata, found, err := r.rooms.RoomMetadata(ctx, session.RoomName); err != nil {
		logger.Base().Warn("failed to fetch room metadata, keeping dispatched configuration",
			zap.String("room_name", session.RoomName), zap.Error(err))
	} else if found && metadata != "" {
		session.Configuration = call.OverlayConfiguration(session.Configuration, metadata)
		logger.Base().Info("configuration refreshed from room metadata",
			zap.String("room_name", session.RoomName),
			zap.String("debtor_name", session.Configuration.DebtorName))
	}

	r.registry.Add(session.RoomName, finalizer)
	finalizer.Start(ctx)

	go func() {
		<-finalizer.Done()
		room.Disconnect()
		r.registry.Remove(session.RoomName)
	}()

	systemPrompt := prompts.BuildCollectionAgentPrompt(session.Configuration)
	greeting := prompts.BuildGreeting(session.Configuration)
	if err := dialogue.Start(ctx, room, session.Configuration, systemPrompt, greeting); err != nil {
		// The call can still finalize with whatever transcript exists.
		logger.Base().Error("dialogue runner failed to start",
			zap.String("room_name", session.RoomName), zap.Error(err))
	}

	logger.Base().Info("session live",
		zap.String("room_name", session.RoomName),
		zap.String("participant_id", session.ParticipantID))
	return nil
}

// pipeline builds the post-call pipeline closure for one session: snapshot,
// then analyze, then persist, exactly once.
func (r *SessionRunner) pipeline(session *call.CallSession, source call.TranscriptSource) call.PipelineFunc {
	return func(ctx context.Context) error {
		entries := source.Snapshot()
		text := domain.FlattenTranscript(entries, session.Configuration)
		assessment := r.analyzer.Analyze(ctx, text, session.Configuration)

		recordID, err := r.store.Persist(ctx, session.Configuration, entries, assessment)
		if err != nil {
			return err
		}
		logger.Base().Info("post-call pipeline complete",
			zap.String("room_name", session.RoomName),
			zap.String("record_id", recordID))
		return nil
	}
}
