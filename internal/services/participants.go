package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/embeddings"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/outbox"
	"github.com/confera/matching-service/internal/store"
	"github.com/confera/matching-service/internal/visibility"
)

// ParticipantService manages the attendee roster and its visibility-gated
// projections.
type ParticipantService struct {
	store store.Store
}

func NewParticipantService(s store.Store) *ParticipantService {
	return &ParticipantService{store: s}
}

// Register adds a participant to an event roster and queues profile indexing
// plus the attendance graph sync.
func (s *ParticipantService) Register(ctx context.Context, p *model.Participant) (*model.Participant, error) {
	if err := validateParticipant(p); err != nil {
		return nil, err
	}
	ev, err := s.store.Events().GetByID(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(ev.EndTime) {
		return nil, model.NewValidationError("eventId", "event has concluded")
	}

	out, err := s.store.Participants().Register(ctx, p)
	if err != nil {
		return nil, err
	}
	s.enqueueProfileSync(ctx, out)
	return out, nil
}

// Update mutates visibility, intents, lookingFor/offering and profile
// attributes. Allowed until the event concludes.
func (s *ParticipantService) Update(ctx context.Context, p *model.Participant) (*model.Participant, error) {
	if err := validateParticipant(p); err != nil {
		return nil, err
	}
	ev, err := s.store.Events().GetByID(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(ev.EndTime) {
		return nil, model.NewValidationError("eventId", "event has concluded")
	}

	out, err := s.store.Participants().Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.enqueueProfileSync(ctx, out)
	return out, nil
}

// Withdraw removes a participant from the roster and queues removal of the
// indexed profile vector.
func (s *ParticipantService) Withdraw(ctx context.Context, eventID, participantID string) error {
	if err := s.store.Participants().Withdraw(ctx, eventID, participantID); err != nil {
		return err
	}
	payload := map[string]interface{}{"participantId": participantID, "eventId": eventID}
	if err := s.store.Outbox().Enqueue(ctx, outbox.OpDeleteProfile, participantID, payload); err != nil {
		log.Error().Err(err).Str("participantId", participantID).Msg("profile delete enqueue failed")
	}
	return nil
}

// Get returns one participant record.
func (s *ParticipantService) Get(ctx context.Context, eventID, participantID string) (*model.Participant, error) {
	return s.store.Participants().GetByID(ctx, eventID, participantID)
}

// Roster returns the event attendees the viewer may see, per the visibility
// gate: ghosts hidden, friends-only filtered by the viewer's connections.
func (s *ParticipantService) Roster(ctx context.Context, eventID, viewerID string) ([]*model.Participant, error) {
	roster, err := s.store.Participants().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	contactIDs, err := s.store.Participants().Connections(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	contacts := make(map[string]bool, len(contactIDs))
	for _, id := range contactIDs {
		contacts[id] = true
	}
	return visibility.HumanVisible(viewerID, contacts, roster), nil
}

func (s *ParticipantService) enqueueProfileSync(ctx context.Context, p *model.Participant) {
	profile := map[string]interface{}{
		"participantId": p.ParticipantID,
		"eventId":       p.EventID,
		"profileText":   embeddings.ProfileText(p),
	}
	if err := s.store.Outbox().Enqueue(ctx, outbox.OpUpsertProfile, p.ParticipantID, profile); err != nil {
		log.Error().Err(err).Str("participantId", p.ParticipantID).Msg("profile index enqueue failed")
	}

	attendance := map[string]interface{}{
		"participantId": p.ParticipantID,
		"eventId":       p.EventID,
		"lookingFor":    p.LookingFor,
		"offering":      p.Offering,
		"visibility":    string(p.Visibility),
	}
	if err := s.store.Outbox().Enqueue(ctx, outbox.OpSyncAttendance, p.ParticipantID, attendance); err != nil {
		log.Error().Err(err).Str("participantId", p.ParticipantID).Msg("attendance sync enqueue failed")
	}
}

func validateParticipant(p *model.Participant) error {
	if p.ParticipantID == "" {
		return model.NewValidationError("participantId", "must not be empty")
	}
	if p.EventID == "" {
		return model.NewValidationError("eventId", "must not be empty")
	}
	if p.Visibility != "" && !p.Visibility.Known() {
		return model.NewValidationError("visibility", "unknown visibility mode")
	}
	return nil
}
