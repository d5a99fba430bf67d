package service

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "exhub-store-bot/internal/common/errors"
	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/features/giveaway/store"
	"exhub-store-bot/internal/platform/backend"
	"exhub-store-bot/internal/utils/random"
)

// RemoteBackend mirrors giveaway events to the web backend. Every call
// is best-effort; failures never block the local lifecycle.
type RemoteBackend interface {
	Enabled() bool
	Create(ctx context.Context, req backend.CreateRequest) (*backend.CreateResult, error)
	Join(ctx context.Context, remoteID string, p backend.Participant) (*backend.JoinResult, error)
	End(ctx context.Context, remoteID string) (*backend.EndResult, error)
}

// Notifier drives the chat-facing presentation of a giveaway. The
// engine treats every method as best-effort and logs failures.
type Notifier interface {
	// PublishAnnouncement posts the giveaway announcement and returns the
	// message id that becomes the record id.
	PublishAnnouncement(ctx context.Context, g *models.Giveaway) (string, error)
	// RefreshAnnouncement re-renders the announcement with the current
	// entrant count.
	RefreshAnnouncement(ctx context.Context, g *models.Giveaway, entrantCount int) error
	// PublishResults edits the announcement to its ended form and posts
	// the winner message.
	PublishResults(ctx context.Context, g *models.Giveaway) error
}

// Resolver turns a raw user id into a display identity.
type Resolver interface {
	ResolveMember(ctx context.Context, guildID, userID string) (models.EntrantDetail, error)
}

// Engine owns every giveaway record and is the single serialization
// point for lifecycle transitions. Chat handlers and timers call in
// from their own goroutines; the mutex guarantees the end transition
// runs at most once per giveaway.
type Engine struct {
	mu      sync.Mutex
	records map[string]*models.Giveaway

	store    store.Store
	remote   RemoteBackend
	notifier Notifier
	resolver Resolver
	sched    *Scheduler

	now func() time.Time
}

func NewEngine(st store.Store, remote RemoteBackend, notifier Notifier, resolver Resolver) *Engine {
	e := &Engine{
		records:  make(map[string]*models.Giveaway),
		store:    st,
		remote:   remote,
		notifier: notifier,
		resolver: resolver,
		now:      time.Now,
	}
	e.sched = NewScheduler(e.endFromTimer)
	return e
}

// Restore loads the persisted records and re-arms a timer for every
// giveaway that has not ended. Overdue giveaways end after the grace
// delay rather than immediately.
func (e *Engine) Restore() error {
	records, err := e.store.LoadAll()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.records = records
	e.mu.Unlock()

	active := 0
	for _, rec := range records {
		if rec.Ended {
			continue
		}
		e.sched.Arm(rec)
		active++
	}

	logger.Info().
		Int("total", len(records)).
		Int("active", active).
		Msg("Restored giveaways from store")
	return nil
}

// Shutdown cancels every pending timer and writes a final snapshot.
func (e *Engine) Shutdown() {
	e.sched.StopAll()
	if err := e.save(); err != nil {
		logger.Error().Err(err).Msg("Failed to save giveaways on shutdown")
	}
}

// Get returns the record for id.
func (e *Engine) Get(id string) (*models.Giveaway, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[id]
	if !ok {
		return nil, apperrors.NewGiveawayNotFoundError(id)
	}
	return rec, nil
}

// Active returns all non-ended records.
func (e *Engine) Active() []*models.Giveaway {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.Giveaway, 0, len(e.records))
	for _, rec := range e.records {
		if !rec.Ended {
			out = append(out, rec)
		}
	}
	return out
}

// Create validates the request, publishes the announcement, persists
// the Active record under the announcement message id, arms its timer
// and kicks off backend registration in the background.
func (e *Engine) Create(ctx context.Context, in models.GiveawayCreate) (*models.Giveaway, error) {
	prize := strings.TrimSpace(in.Prize)
	if prize == "" {
		return nil, apperrors.NewValidationError("prize", "must not be empty")
	}
	if in.WinnersCount < 1 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWinners,
			"winners count must be at least 1")
	}
	duration, err := models.ParseDuration(in.DurationText)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDuration,
			"invalid duration: "+in.DurationText)
	}
	if duration < models.MinDuration {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDuration,
			"duration must be at least one minute")
	}

	now := e.now()
	rec := &models.Giveaway{
		GuildID:      in.GuildID,
		ChannelID:    in.ChannelID,
		Prize:        prize,
		Description:  strings.TrimSpace(in.Description),
		WinnersCount: in.WinnersCount,
		HostID:       in.HostID,
		CreatedAt:    now.UnixMilli(),
		EndAt:        now.Add(duration).UnixMilli(),
		Entrants:     []string{},
	}

	messageID, err := e.notifier.PublishAnnouncement(ctx, rec)
	if err != nil {
		return nil, apperrors.NewPresentationError("failed to publish giveaway announcement", err)
	}
	rec.ID = messageID

	e.mu.Lock()
	e.records[rec.ID] = rec
	e.mu.Unlock()

	if err := e.save(); err != nil {
		logger.Error().Err(err).Str("giveaway_id", rec.ID).Msg("Failed to save new giveaway")
	}
	e.sched.Arm(rec)

	go e.registerRemote(rec.ID)

	logger.Info().
		Str("giveaway_id", rec.ID).
		Str("prize", rec.Prize).
		Int("winners", rec.WinnersCount).
		Time("end_at", rec.EndsAt()).
		Msg("Giveaway created")
	return rec, nil
}

// registerRemote registers the giveaway with the backend and patches
// the record with the remote id and summary URL on success.
func (e *Engine) registerRemote(id string) {
	if e.remote == nil || !e.remote.Enabled() {
		return
	}

	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok || rec.Ended {
		e.mu.Unlock()
		return
	}
	req := backend.CreateRequest{
		GuildID:      rec.GuildID,
		ChannelID:    rec.ChannelID,
		MessageID:    rec.ID,
		Prize:        rec.Prize,
		Description:  rec.Description,
		WinnersCount: rec.WinnersCount,
		HostID:       rec.HostID,
		EndAt:        rec.EndAt,
	}
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := e.remote.Create(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Backend registration failed, staying local-only")
		return
	}

	// A giveaway that ended while the registration round trip was in
	// flight stays local-only; patching it now would race the result
	// presentation.
	e.mu.Lock()
	if rec, ok := e.records[id]; ok && !rec.Ended {
		rec.RemoteGiveawayID = res.GiveawayID
		if res.SummaryURL != "" {
			rec.RemoteSummaryURL = res.SummaryURL
		}
	}
	e.mu.Unlock()

	if err := e.save(); err != nil {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to save remote registration")
	}
}

// Join records a participant. Joining an ended or unknown giveaway is a
// silent no-op, as is a duplicate join. Returns the entrant count to
// display, preferring the backend's authoritative count when the mirror
// call succeeds.
func (e *Engine) Join(ctx context.Context, id, userID string) int {
	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok || rec.Ended {
		e.mu.Unlock()
		return 0
	}
	if !rec.AddEntrant(userID) {
		count := len(rec.Entrants)
		e.mu.Unlock()
		return count
	}
	count := len(rec.Entrants)
	remoteID := rec.RemoteGiveawayID
	e.mu.Unlock()

	if e.remote != nil && e.remote.Enabled() && remoteID != "" {
		detail := e.resolveDetail(ctx, rec.GuildID, userID)
		res, err := e.remote.Join(ctx, remoteID, backend.Participant{
			ID:          detail.ID,
			Username:    detail.Username,
			DisplayName: detail.DisplayName,
		})
		if err != nil {
			logger.Warn().Err(err).Str("giveaway_id", id).Msg("Backend join mirror failed")
		} else if res.ParticipantsCount > 0 {
			count = res.ParticipantsCount
		}
	}

	if err := e.save(); err != nil {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to save giveaway join")
	}
	if err := e.notifier.RefreshAnnouncement(ctx, rec, count); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Failed to refresh entrant count")
	}
	return count
}

// Leave removes a participant. Leaving an ended or unknown giveaway, or
// one the user never joined, is a silent no-op.
func (e *Engine) Leave(ctx context.Context, id, userID string) int {
	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok || rec.Ended {
		e.mu.Unlock()
		return 0
	}
	if !rec.RemoveEntrant(userID) {
		count := len(rec.Entrants)
		e.mu.Unlock()
		return count
	}
	count := len(rec.Entrants)
	e.mu.Unlock()

	if err := e.save(); err != nil {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to save giveaway leave")
	}
	if err := e.notifier.RefreshAnnouncement(ctx, rec, count); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Failed to refresh entrant count")
	}
	return count
}

func (e *Engine) endFromTimer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := e.End(ctx, id, ""); err != nil && !apperrors.IsCode(err, apperrors.ErrCodeGiveawayNotFound) {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Timer-driven end failed")
	}
}

// End runs the terminal transition. The first caller wins: the ended
// flag flips under the mutex, so a timer and a manual end racing on the
// same id produce exactly one set of winners. Ending an already ended
// giveaway returns the record unchanged.
func (e *Engine) End(ctx context.Context, id, endedBy string) (*models.Giveaway, error) {
	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok {
		e.mu.Unlock()
		return nil, apperrors.NewGiveawayNotFoundError(id)
	}
	if rec.Ended {
		e.mu.Unlock()
		return rec, nil
	}
	rec.Ended = true
	rec.EndedAt = e.now().UnixMilli()
	rec.EndedBy = endedBy
	entrants := rec.DistinctEntrants()
	remoteID := rec.RemoteGiveawayID
	winnersCount := rec.WinnersCount
	e.mu.Unlock()

	e.sched.Cancel(id)

	var endRes *backend.EndResult
	if e.remote != nil && e.remote.Enabled() && remoteID != "" {
		var err error
		endRes, err = e.remote.End(ctx, remoteID)
		if err != nil {
			logger.Warn().Err(err).Str("giveaway_id", id).Msg("Backend end failed, selecting winners locally")
			endRes = nil
		}
	}

	winners, entrantsDetail := e.resolveOutcome(ctx, rec, entrants, winnersCount, endRes)

	e.mu.Lock()
	rec.Winners = winners
	rec.EntrantsDetail = entrantsDetail
	if endRes != nil && endRes.SummaryURL != "" {
		rec.RemoteSummaryURL = endRes.SummaryURL
	}
	e.mu.Unlock()

	if err := e.notifier.PublishResults(ctx, rec); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("Failed to publish giveaway results")
	}

	if err := e.save(); err != nil {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("Failed to save ended giveaway")
	}

	logger.Info().
		Str("giveaway_id", id).
		Int("entrants", len(entrants)).
		Int("winners", len(winners)).
		Str("ended_by", endedBy).
		Msg("Giveaway ended")
	return rec, nil
}

// resolveOutcome picks the winner set and the entrant snapshot. Backend
// winners are taken verbatim when present; otherwise winners are drawn
// locally with a crypto-rand shuffle over the distinct entrant set.
func (e *Engine) resolveOutcome(ctx context.Context, rec *models.Giveaway, entrants []string, winnersCount int, endRes *backend.EndResult) ([]models.EntrantDetail, []models.EntrantDetail) {
	var winners []models.EntrantDetail

	if endRes != nil && len(endRes.Winners) > 0 {
		winners = participantsToDetails(endRes.Winners)
	} else {
		ids, err := random.Pick(entrants, winnersCount)
		if err != nil {
			logger.Error().Err(err).Str("giveaway_id", rec.ID).Msg("Winner shuffle failed, using first entrants")
			n := winnersCount
			if n > len(entrants) {
				n = len(entrants)
			}
			ids = entrants[:n]
		}
		winners = make([]models.EntrantDetail, 0, len(ids))
		for _, id := range ids {
			winners = append(winners, e.resolveDetail(ctx, rec.GuildID, id))
		}
	}

	var entrantsDetail []models.EntrantDetail
	if endRes != nil && len(endRes.Participants) > 0 {
		entrantsDetail = participantsToDetails(endRes.Participants)
	} else {
		entrantsDetail = make([]models.EntrantDetail, 0, len(entrants))
		for _, id := range entrants {
			entrantsDetail = append(entrantsDetail, e.resolveDetail(ctx, rec.GuildID, id))
		}
	}

	return winners, entrantsDetail
}

// resolveDetail looks up a display identity, falling back to the raw id
// when the resolver fails.
func (e *Engine) resolveDetail(ctx context.Context, guildID, userID string) models.EntrantDetail {
	if e.resolver == nil {
		return models.EntrantDetail{ID: userID, Username: userID}
	}
	detail, err := e.resolver.ResolveMember(ctx, guildID, userID)
	if err != nil {
		logger.Debug().Err(err).Str("user_id", userID).Msg("Failed to resolve member, using raw id")
		return models.EntrantDetail{ID: userID, Username: userID}
	}
	return detail
}

// save writes the full snapshot. Callers hold no lock; save takes it,
// deep-copies every record, and releases it before touching the store,
// so marshalling never reads a slice another handler is appending to.
func (e *Engine) save() error {
	e.mu.Lock()
	snapshot := make(map[string]*models.Giveaway, len(e.records))
	for id, rec := range e.records {
		snapshot[id] = rec.Clone()
	}
	e.mu.Unlock()

	if err := e.store.SaveAll(snapshot); err != nil {
		return apperrors.NewStorageError("failed to save giveaways", err)
	}
	return nil
}

func participantsToDetails(ps []backend.Participant) []models.EntrantDetail {
	out := make([]models.EntrantDetail, 0, len(ps))
	for _, p := range ps {
		out = append(out, models.EntrantDetail{
			ID:          p.ID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
		})
	}
	return out
}
