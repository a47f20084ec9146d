// Package confession implements the submission orchestrator and the
// moderation gate: the write path from raw text to a published (or
// queued) post, plus the admin operations that move posts between
// states.
package confession

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"confide/internal/broadcast"
	"confide/internal/database"
	"confide/internal/database/boltstore"
	"confide/internal/metrics"
	"confide/internal/models"
	"confide/internal/ratelimit"
	"confide/internal/screening"
	"confide/internal/tracing"
	"confide/internal/trending"
)

// EventPostNew is the event name broadcast when a post becomes public,
// either on immediate approval or after an admin approves it.
const EventPostNew = "post:new"

// minContentLength is the minimum trimmed submission length.
const minContentLength = 5

// Service coordinates the rate limiter, screener, store, and
// broadcaster for every write, and serves the read paths that share the
// visibility rule.
type Service struct {
	store       database.Store
	limiter     *ratelimit.Limiter
	broadcaster *broadcast.Broadcaster

	// audit is optional; when unset admin actions simply aren't logged.
	audit *boltstore.AuditStore
}

// NewService creates the orchestrator.
func NewService(store database.Store, limiter *ratelimit.Limiter, broadcaster *broadcast.Broadcaster) *Service {
	return &Service{
		store:       store,
		limiter:     limiter,
		broadcaster: broadcaster,
	}
}

// SetAudit configures the admin audit trail.
func (s *Service) SetAudit(audit *boltstore.AuditStore) {
	s.audit = audit
}

// SubmitResult is the outcome of one accepted submission.
type SubmitResult struct {
	Status    models.ModerationStatus
	Post      *models.Post
	RateLimit ratelimit.Result
}

// Submit runs the full pipeline: validate, rate-limit, screen, persist,
// gate, and (for approved posts) broadcast. Pending posts are persisted
// but hidden until an admin approves them. Identical resubmissions
// create distinct posts; deduplication is deliberately absent.
func (s *Service) Submit(ctx context.Context, token, text string, category models.Category) (*SubmitResult, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minContentLength {
		// Validation failures never consume rate-limit quota.
		return nil, validationErr("confession content too short")
	}

	rl := s.limiter.Check(token)
	if !rl.Allowed {
		metrics.RateLimitedTotal.Inc()
		return nil, &Error{
			Kind:    KindRateLimited,
			Message: "too many confessions, try again later",
			ResetAt: rl.ResetAt,
		}
	}

	_, screenSpan := tracing.SubmitSpan(ctx, "screen", string(category))
	result := screening.Screen(trimmed)
	screenSpan.End()

	persistCtx, persistSpan := tracing.SubmitSpan(ctx, "persist", string(category))
	defer persistSpan.End()

	identity, err := s.store.GetOrCreateIdentity(persistCtx, token, newAlias())
	if err != nil {
		tracing.EndWithError(persistSpan, err)
		return nil, storageErr("failed to resolve identity", err)
	}

	sentiment := result.Sentiment
	post := &models.Post{
		ID:        uuid.NewString(),
		Content:   result.Cleaned,
		Category:  category,
		Sentiment: &sentiment,
		AuthorID:  identity.ID,
		Alias:     identity.Alias,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePost(persistCtx, post); err != nil {
		// Not retried: a create is not idempotent, and masking the
		// failure with a retry could duplicate the post.
		tracing.EndWithError(persistSpan, err)
		return nil, storageErr("failed to store confession", err)
	}

	status := models.StatusApproved
	if result.Flagged {
		status = models.StatusPending
		rec := &models.ModerationRecord{
			ID:        uuid.NewString(),
			PostID:    post.ID,
			Reason:    "profanity detected",
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.CreateModerationRecord(persistCtx, rec); err != nil {
			tracing.EndWithError(persistSpan, err)
			return nil, storageErr("failed to queue confession for review", err)
		}
		post.Pending = true
		metrics.ModerationQueuedTotal.Inc()
		log.Info().Str("post_id", post.ID).Msg("confession held for moderation")
	} else {
		// Publish failures drop the slow subscriber, never the submit.
		sent := s.broadcaster.Publish(EventPostNew, models.EventFromPost(post), post.Category)
		metrics.BroadcastEventsTotal.WithLabelValues(EventPostNew).Inc()
		log.Debug().Str("post_id", post.ID).Int("subscribers", sent).Msg("confession broadcast")
	}

	metrics.SubmissionsTotal.WithLabelValues(string(status)).Inc()

	return &SubmitResult{Status: status, Post: post, RateLimit: rl}, nil
}

// Vote records a +1/-1 vote for the voter behind token. Revotes update
// in place; the post's counters always reflect each voter's latest
// value exactly once. The vote path carries no rate limit.
func (s *Service) Vote(ctx context.Context, token, postID string, value int) (*models.Vote, error) {
	if value != 1 && value != -1 {
		return nil, validationErr("value must be 1 (upvote) or -1 (downvote)")
	}
	if postID == "" {
		return nil, validationErr("postId is required")
	}

	identity, err := s.store.GetOrCreateIdentity(ctx, token, newAlias())
	if err != nil {
		return nil, storageErr("failed to resolve identity", err)
	}

	vote, err := s.store.UpsertVote(ctx, identity.ID, postID, value)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFoundErr("confession not found")
	}
	if err != nil {
		return nil, storageErr("failed to record vote", err)
	}

	if value == 1 {
		metrics.VotesTotal.WithLabelValues("upvote").Inc()
	} else {
		metrics.VotesTotal.WithLabelValues("downvote").Inc()
	}
	return vote, nil
}

// Feed returns visible posts, newest first. Category "" or "all" means
// no filter.
func (s *Service) Feed(ctx context.Context, category string, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	posts, err := s.store.ListVisiblePosts(ctx, filterCategory(category), limit)
	if err != nil {
		return nil, storageErr("failed to fetch confessions", err)
	}
	return posts, nil
}

// Trending returns the top posts by time-decayed score. It fetches
// twice the requested limit of visible posts as the candidate set, ranks
// them, and truncates.
func (s *Service) Trending(ctx context.Context, category string, limit int) ([]trending.Ranked, error) {
	if limit <= 0 {
		limit = 10
	}
	posts, err := s.store.ListVisiblePosts(ctx, filterCategory(category), limit*2)
	if err != nil {
		return nil, storageErr("failed to fetch confessions", err)
	}

	ranked := trending.Rank(posts, time.Now())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Approve resolves a pending post's moderation record and broadcasts it
// exactly once. This is the only path by which a pending post becomes
// visible.
func (s *Service) Approve(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFoundErr("confession not found")
	}
	if err != nil {
		return nil, storageErr("failed to fetch confession", err)
	}
	if post.IsDeleted {
		return nil, notFoundErr("confession not found")
	}

	if err := s.store.ResolveModerationRecord(ctx, postID); err != nil {
		return nil, storageErr("failed to resolve moderation record", err)
	}

	sent := s.broadcaster.Publish(EventPostNew, models.EventFromPost(post), post.Category)
	metrics.BroadcastEventsTotal.WithLabelValues(EventPostNew).Inc()
	metrics.ModerationApprovedTotal.Inc()
	log.Info().Str("post_id", postID).Int("subscribers", sent).Msg("confession approved and broadcast")

	s.logAudit(boltstore.ActionApprovePost, postID, "")
	return post, nil
}

// Delete soft-deletes a post and removes any moderation record.
// Idempotent for already-deleted posts.
func (s *Service) Delete(ctx context.Context, postID string) error {
	err := s.store.SoftDeletePost(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		return notFoundErr("confession not found")
	}
	if err != nil {
		return storageErr("failed to delete confession", err)
	}

	metrics.PostsDeletedTotal.Inc()
	s.logAudit(boltstore.ActionDeletePost, postID, "soft delete")
	return nil
}

// ListPending returns the moderation queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]database.PendingPost, error) {
	pending, err := s.store.ListPendingPosts(ctx)
	if err != nil {
		return nil, storageErr("failed to fetch pending confessions", err)
	}
	return pending, nil
}

// ListAll is the paged admin view. Rows and total are fetched
// concurrently.
func (s *Service) ListAll(ctx context.Context, page, limit int) ([]*models.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	var posts []*models.Post
	var total int

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.store.ListAllPosts(gCtx, page, limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountPosts(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, storageErr("failed to fetch confessions", err)
	}

	return posts, total, nil
}

// AuditLog returns recent admin actions, newest first.
func (s *Service) AuditLog(limit int) ([]boltstore.AuditEntry, error) {
	if s.audit == nil {
		return nil, nil
	}
	entries, err := s.audit.ListActions(limit)
	if err != nil {
		return nil, storageErr("failed to fetch audit log", err)
	}
	return entries, nil
}

func (s *Service) logAudit(action boltstore.Action, postID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogAction(boltstore.AuditEntry{Action: action, PostID: postID, Detail: detail}); err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("failed to write audit entry")
	}
}

func filterCategory(category string) models.Category {
	if category == "" || category == "all" {
		return ""
	}
	return models.Category(category)
}

const aliasAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newAlias generates a pseudonymous author alias like "anon_x4T9qZ".
func newAlias() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = aliasAlphabet[int(b)%len(aliasAlphabet)]
	}
	return "anon_" + string(buf)
}
