// Package moderation implements the video block, appeal and resolution workflow.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/internal/db"
	"github.com/vitrine-craques/video-moderation-go/internal/metrics"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
	"github.com/vitrine-craques/video-moderation-go/internal/validation"
	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

// Operation names used in logs and metrics.
const (
	OpBlock         = "block"
	OpUnblock       = "unblock"
	OpFileAppeal    = "file_appeal"
	OpResolveAppeal = "resolve_appeal"
)

// Listing limits for the admin video listing.
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Store is the transactional persistence the engine depends on.
// Methods called inside WithTx run on the transaction carried by ctx.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	GetVideoForUpdate(ctx context.Context, id string) (*models.Video, error)
	UpdateVideoModeration(ctx context.Context, video *models.Video) error
	ListUserIDsByRoles(ctx context.Context, roles []models.Role) ([]string, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	CreateNotificationsSkipDuplicates(ctx context.Context, ns []*models.Notification) ([]*models.Notification, error)
	ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int, error)
	ModerationSummary(ctx context.Context) (*models.ModerationSummary, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error)
}

// NotificationPublisher delivers committed notifications to downstream consumers.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// VisibilityCache tracks which videos are blocked. Writes carry the video's
// moderation version and implementations ignore versions older than the last
// one applied.
type VisibilityCache interface {
	MarkBlocked(ctx context.Context, videoID string, version int64) error
	MarkPublic(ctx context.Context, videoID string, version int64) error
	IsBlocked(ctx context.Context, videoID string) (bool, error)
}

// Engine applies moderation transitions. Each transition and the notifications it
// produces are written in a single store transaction.
type Engine struct {
	store     Store
	validator *validation.Validator
	publisher NotificationPublisher
	cache     VisibilityCache
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithPublisher publishes notifications after each committed transition.
func WithPublisher(p NotificationPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithCache keeps a blocked-video cache in sync with committed transitions.
func WithCache(c VisibilityCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics records transition outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Store, validator *validation.Validator, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Block hides a video and notifies its owner. Blocking an already blocked video
// replaces the reason and discards any appeal.
func (e *Engine) Block(ctx context.Context, videoID string, admin models.Actor, reason string) (*models.Video, error) {
	reason, err := e.validator.ValidateBlockReason(reason)
	if err != nil {
		return nil, e.fail(OpBlock, videoID, validationError(err))
	}

	var (
		video   *models.Video
		created []*models.Notification
	)
	err = e.store.WithTx(ctx, func(ctx context.Context) error {
		v, err := e.lockVideo(ctx, videoID)
		if err != nil {
			return err
		}

		v.Block(reason, admin.UserID, e.timestamp())
		if err := e.store.UpdateVideoModeration(ctx, v); err != nil {
			return fmt.Errorf("update video: %w", err)
		}

		n := models.NewNotification(v.UserID, models.NotificationVideoBlock,
			"Um dos seus vídeos foi bloqueado",
			fmt.Sprintf("O vídeo \"%s\" foi bloqueado pela moderação. Motivo: %s", v.Title, reason),
			map[string]any{"videoId": v.ID},
		)
		if err := e.store.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		video, created = v, []*models.Notification{n}
		return nil
	})
	if err != nil {
		return nil, e.fail(OpBlock, videoID, err)
	}

	e.succeed(ctx, OpBlock, video, created)
	e.syncCache(ctx, video)
	return video, nil
}

// Unblock makes a video public again and notifies its owner.
func (e *Engine) Unblock(ctx context.Context, videoID string, admin models.Actor) (*models.Video, error) {
	var (
		video   *models.Video
		created []*models.Notification
	)
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		v, err := e.lockVideo(ctx, videoID)
		if err != nil {
			return err
		}

		v.Unblock(e.timestamp())
		if err := e.store.UpdateVideoModeration(ctx, v); err != nil {
			return fmt.Errorf("update video: %w", err)
		}

		n := models.NewNotification(v.UserID, models.NotificationVideoAppealUpdate,
			"Vídeo liberado",
			fmt.Sprintf("O vídeo \"%s\" voltou a ficar disponível na plataforma.", v.Title),
			map[string]any{"videoId": v.ID},
		)
		if err := e.store.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		video, created = v, []*models.Notification{n}
		return nil
	})
	if err != nil {
		return nil, e.fail(OpUnblock, videoID, err)
	}

	logger.Log.Debug("Video unblocked", zap.String("videoId", videoID), zap.String("adminId", admin.UserID))
	e.succeed(ctx, OpUnblock, video, created)
	e.syncCache(ctx, video)
	return video, nil
}

// FileAppeal records the owner's appeal against a block and notifies every administrator.
// Videos owned by someone else are reported as not found.
func (e *Engine) FileAppeal(ctx context.Context, videoID string, caller models.Actor, message string) (*models.Video, error) {
	message, err := e.validator.ValidateAppealMessage(message)
	if err != nil {
		return nil, e.fail(OpFileAppeal, videoID, validationError(err))
	}

	var (
		video   *models.Video
		created []*models.Notification
	)
	err = e.store.WithTx(ctx, func(ctx context.Context) error {
		v, err := e.lockVideo(ctx, videoID)
		if err != nil {
			return err
		}
		if v.UserID != caller.UserID {
			return &NotFoundError{VideoID: videoID}
		}

		if err := v.FileAppeal(message, e.timestamp()); err != nil {
			return conflictError(err)
		}
		if err := e.store.UpdateVideoModeration(ctx, v); err != nil {
			return fmt.Errorf("update video: %w", err)
		}

		adminIDs, err := e.store.ListUserIDsByRoles(ctx, models.AdminRoles)
		if err != nil {
			return fmt.Errorf("list administrators: %w", err)
		}

		dedupeKey := fmt.Sprintf("appeal:%s:%s", v.ID, v.AppealAt.Format(time.RFC3339Nano))
		notifications := make([]*models.Notification, 0, len(adminIDs))
		for _, adminID := range unique(adminIDs) {
			n := models.NewNotification(adminID, models.NotificationVideoAppealUpdate,
				"Nova contestação de vídeo",
				fmt.Sprintf("O vídeo \"%s\" recebeu uma contestação do proprietário. Analise o pedido.", v.Title),
				map[string]any{"videoId": v.ID},
			)
			n.DedupeKey = &dedupeKey
			notifications = append(notifications, n)
		}

		created, err = e.store.CreateNotificationsSkipDuplicates(ctx, notifications)
		if err != nil {
			return fmt.Errorf("create notifications: %w", err)
		}

		video = v
		return nil
	})
	if err != nil {
		return nil, e.fail(OpFileAppeal, videoID, err)
	}

	e.succeed(ctx, OpFileAppeal, video, created)
	return video, nil
}

// ResolveAppeal applies an administrator decision to the video's pending appeal
// and notifies the owner.
func (e *Engine) ResolveAppeal(ctx context.Context, videoID string, admin models.Actor, decision models.Decision, response string) (*models.Video, error) {
	response, err := e.validator.ValidateDecision(decision, response)
	if err != nil {
		return nil, e.fail(OpResolveAppeal, videoID, validationError(err))
	}

	var (
		video   *models.Video
		created []*models.Notification
	)
	err = e.store.WithTx(ctx, func(ctx context.Context) error {
		v, err := e.lockVideo(ctx, videoID)
		if err != nil {
			return err
		}

		if err := v.ResolveAppeal(decision, response, admin.UserID, e.timestamp()); err != nil {
			return conflictError(err)
		}
		if err := e.store.UpdateVideoModeration(ctx, v); err != nil {
			return fmt.Errorf("update video: %w", err)
		}

		title := "Contestação aceita"
		message := fmt.Sprintf("Sua contestação do vídeo \"%s\" foi aceita. O vídeo voltou a ficar disponível.", v.Title)
		if decision == models.DecisionReject {
			title = "Contestação analisada"
			message = fmt.Sprintf("Sua contestação do vídeo \"%s\" foi analisada, mas o bloqueio foi mantido. Resposta: %s", v.Title, response)
		}

		n := models.NewNotification(v.UserID, models.NotificationVideoAppealUpdate, title, message,
			map[string]any{"videoId": v.ID, "decision": string(decision)},
		)
		if err := e.store.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		video, created = v, []*models.Notification{n}
		return nil
	})
	if err != nil {
		return nil, e.fail(OpResolveAppeal, videoID, err)
	}

	e.succeed(ctx, OpResolveAppeal, video, created)
	e.syncCache(ctx, video)
	return video, nil
}

// ListVideos returns one page of the admin moderation listing.
func (e *Engine) ListVideos(ctx context.Context, filter models.VideoFilter) (*models.VideoPage, error) {
	switch filter.Status {
	case "":
		filter.Status = models.VideoStatusAll
	case models.VideoStatusAll, models.VideoStatusBlocked, models.VideoStatusAppeal:
	default:
		return nil, &ValidationError{Field: "status", Message: `must be one of "all", "blocked", "appeal"`}
	}

	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 1 {
		return nil, &ValidationError{Field: "page", Message: "must be at least 1"}
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit < 1 || filter.Limit > MaxPageSize {
		return nil, &ValidationError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}
	if filter.Page > math.MaxInt/filter.Limit {
		return nil, &ValidationError{Field: "page", Message: "is too large"}
	}

	items, total, err := e.store.ListVideos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	return &models.VideoPage{
		Items:      items,
		Page:       filter.Page,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// Summary returns the moderation dashboard counters.
func (e *Engine) Summary(ctx context.Context) (*models.ModerationSummary, error) {
	summary, err := e.store.ModerationSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("moderation summary: %w", err)
	}
	return summary, nil
}

// ListNotifications returns the caller's notifications, newest first.
func (e *Engine) ListNotifications(ctx context.Context, userID string, limit, offset int) (*models.NotificationPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := e.store.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return &models.NotificationPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Visibility reports whether a video is public or blocked. A cached block answers
// directly; anything else is read from the store.
func (e *Engine) Visibility(ctx context.Context, videoID string) (models.VisibilityStatus, error) {
	if e.cache != nil {
		blocked, err := e.cache.IsBlocked(ctx, videoID)
		if err != nil {
			logger.Log.Warn("Blocked video cache unavailable, reading from store",
				zap.String("videoId", videoID),
				zap.Error(err),
			)
		} else if blocked {
			return models.VisibilityBlocked, nil
		}
	}

	video, err := e.store.GetVideo(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", &NotFoundError{VideoID: videoID}
		}
		return "", fmt.Errorf("get video: %w", err)
	}

	return video.VisibilityStatus, nil
}

func (e *Engine) lockVideo(ctx context.Context, videoID string) (*models.Video, error) {
	v, err := e.store.GetVideoForUpdate(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, &NotFoundError{VideoID: videoID}
		}
		return nil, fmt.Errorf("load video: %w", err)
	}
	return v, nil
}

// timestamp is truncated to the store's precision so returned values match persisted ones.
func (e *Engine) timestamp() time.Time {
	return e.now().Truncate(time.Microsecond)
}

func (e *Engine) fail(op, videoID string, err error) error {
	outcome := metrics.OutcomeError

	var (
		notFound *NotFoundError
		invalid  *ValidationError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		outcome = metrics.OutcomeNotFound
	case errors.As(err, &invalid):
		outcome = metrics.OutcomeValidation
	case errors.As(err, &conflict):
		outcome = metrics.OutcomeConflict
	default:
		err = fmt.Errorf("%s: %w", op, err)
	}

	e.metrics.ObserveTransition(op, outcome)
	if outcome != metrics.OutcomeError {
		logger.Log.Info("Moderation operation rejected",
			zap.String("operation", op),
			zap.String("videoId", videoID),
			zap.String("outcome", outcome),
			zap.String("reason", err.Error()),
		)
	}
	return err
}

// succeed runs the post-commit effects. They never change the operation's result.
func (e *Engine) succeed(ctx context.Context, op string, video *models.Video, created []*models.Notification) {
	e.metrics.ObserveTransition(op, metrics.OutcomeSuccess)

	logger.Log.Info("Moderation operation completed",
		zap.String("operation", op),
		zap.String("videoId", video.ID),
		zap.String("visibilityStatus", string(video.VisibilityStatus)),
		zap.Int("notifications", len(created)),
	)

	for _, n := range created {
		e.metrics.AddNotifications(string(n.Type), 1)
		if e.publisher == nil {
			continue
		}
		if err := e.publisher.PublishNotification(ctx, n); err != nil {
			e.metrics.IncPublishFailures()
			logger.Log.Warn("Failed to publish notification",
				zap.String("notificationId", n.ID.String()),
				zap.String("userId", n.UserID),
				zap.Error(err),
			)
		}
	}
}

func (e *Engine) syncCache(ctx context.Context, video *models.Video) {
	if e.cache == nil {
		return
	}

	var err error
	if video.IsBlocked() {
		err = e.cache.MarkBlocked(ctx, video.ID, video.ModerationVersion)
	} else {
		err = e.cache.MarkPublic(ctx, video.ID, video.ModerationVersion)
	}
	if err != nil {
		logger.Log.Warn("Failed to update blocked video cache",
			zap.String("videoId", video.ID),
			zap.Error(err),
		)
	}
}

func validationError(err error) error {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return &ValidationError{Message: err.Error()}
}

func conflictError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotBlocked):
		return &ConflictError{Code: CodeNotBlocked, Message: "Este vídeo não está bloqueado."}
	case errors.Is(err, models.ErrAppealPending):
		return &ConflictError{Code: CodeAppealPending, Message: "Já existe uma contestação em análise."}
	case errors.Is(err, models.ErrNoPendingAppeal):
		return &ConflictError{Code: CodeNoPendingAppeal, Message: "Este vídeo não possui uma contestação pendente."}
	}
	return err
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
