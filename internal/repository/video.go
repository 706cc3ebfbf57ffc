package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vitrine-craques/video-moderation-go/internal/db"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

const videoColumns = `
	id, user_id, title, visibility_status,
	block_reason, blocked_at, blocked_by_admin_id,
	block_appeal_status, block_appeal_message, block_appeal_at,
	block_appeal_response, block_appeal_resolved_at,
	likes_count, created_at, updated_at, moderation_version`

// CreateUser inserts a user with the given profile role.
func (r *Repository) CreateUser(ctx context.Context, id, name, email string, role models.Role) error {
	query := `INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)`
	_, err := r.conn(ctx).Exec(ctx, query, id, name, email, string(role))
	return db.WrapError(err, "create user")
}

// ListUserIDsByRoles returns the ids of every user whose role is in roles.
func (r *Repository) ListUserIDsByRoles(ctx context.Context, roles []models.Role) ([]string, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT id FROM users WHERE role = ANY($1) ORDER BY id`, names)
	if err != nil {
		return nil, db.WrapError(err, "list users by role")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.WrapError(err, "scan user id")
		}
		ids = append(ids, id)
	}
	return ids, db.WrapError(rows.Err(), "iterate users")
}

// CreateVideo inserts a video. New videos are always public with no moderation history.
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (id, user_id, title, visibility_status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + videoColumns

	created, err := scanVideo(r.conn(ctx).QueryRow(ctx, query,
		video.ID, video.UserID, video.Title, string(models.VisibilityPublic),
	))
	if err != nil {
		return db.WrapError(err, "create video")
	}

	*video = *created
	return nil
}

// GetVideo retrieves a video by id.
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get video")
	}
	return video, nil
}

// GetVideoForUpdate retrieves a video and locks its row until the surrounding
// transaction ends. Concurrent callers block and then observe the committed state.
func (r *Repository) GetVideoForUpdate(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 FOR UPDATE`

	video, err := scanVideo(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get video for update")
	}
	return video, nil
}

// UpdateVideoModeration persists the visibility, block and appeal fields of a video
// and stores the bumped moderation version back on it.
func (r *Repository) UpdateVideoModeration(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET visibility_status = $2,
		    block_reason = $3,
		    blocked_at = $4,
		    blocked_by_admin_id = $5,
		    block_appeal_status = $6,
		    block_appeal_message = $7,
		    block_appeal_at = $8,
		    block_appeal_response = $9,
		    block_appeal_resolved_at = $10,
		    updated_at = $11,
		    moderation_version = moderation_version + 1
		WHERE id = $1
		RETURNING moderation_version
	`

	var appealStatus *string
	if video.AppealStatus != nil {
		s := string(*video.AppealStatus)
		appealStatus = &s
	}

	err := r.conn(ctx).QueryRow(ctx, query,
		video.ID,
		string(video.VisibilityStatus),
		video.BlockReason,
		video.BlockedAt,
		video.BlockedByAdminID,
		appealStatus,
		video.AppealMessage,
		video.AppealAt,
		video.AppealResponse,
		video.AppealResolvedAt,
		video.UpdatedAt,
	).Scan(&video.ModerationVersion)
	if err != nil {
		return db.WrapError(err, "update video moderation")
	}
	return nil
}

// ListVideos returns one page of videos for the moderation listing, newest first.
// Search matches the video title or the owner's name or e-mail, case-insensitively.
func (r *Repository) ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int, error) {
	var (
		conditions []string
		args       []any
	)

	switch filter.Status {
	case models.VideoStatusBlocked:
		args = append(args, string(models.VisibilityBlocked))
		conditions = append(conditions, fmt.Sprintf("visibility_status = $%d", len(args)))
	case models.VideoStatusAppeal:
		args = append(args, string(models.AppealPending))
		conditions = append(conditions, fmt.Sprintf("block_appeal_status = $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		conditions = append(conditions, fmt.Sprintf(`(title ILIKE $%[1]d ESCAPE '\' OR user_id IN (
			SELECT id FROM users WHERE name ILIKE $%[1]d ESCAPE '\' OR email ILIKE $%[1]d ESCAPE '\'))`, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM videos`+where, args...).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count videos")
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM videos%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		videoColumns, where, len(args)-1, len(args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.WrapError(err, "list videos")
	}
	defer rows.Close()

	videos := make([]*models.Video, 0, filter.Limit)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, db.WrapError(err, "scan video")
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.WrapError(err, "iterate videos")
	}

	return videos, total, nil
}

// ListBlockedVideoVersions returns the moderation version of every blocked video,
// keyed by id (for cache loading).
func (r *Repository) ListBlockedVideoVersions(ctx context.Context) (map[string]int64, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, moderation_version FROM videos WHERE visibility_status = $1`,
		string(models.VisibilityBlocked),
	)
	if err != nil {
		return nil, db.WrapError(err, "list blocked videos")
	}
	defer rows.Close()

	versions := make(map[string]int64)
	for rows.Next() {
		var (
			id      string
			version int64
		)
		if err := rows.Scan(&id, &version); err != nil {
			return nil, db.WrapError(err, "scan blocked video")
		}
		versions[id] = version
	}
	return versions, db.WrapError(rows.Err(), "iterate blocked videos")
}

// ModerationSummary counts all videos, blocked videos and pending appeals.
func (r *Repository) ModerationSummary(ctx context.Context) (*models.ModerationSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE visibility_status = $1),
		       COUNT(*) FILTER (WHERE block_appeal_status = $2)
		FROM videos
	`

	var s models.ModerationSummary
	err := r.conn(ctx).QueryRow(ctx, query, string(models.VisibilityBlocked), string(models.AppealPending)).
		Scan(&s.TotalVideos, &s.BlockedVideos, &s.PendingVideoAppeals)
	if err != nil {
		return nil, db.WrapError(err, "moderation summary")
	}
	return &s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in the value.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var (
		v            models.Video
		visibility   string
		appealStatus *string
	)

	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Title,
		&visibility,
		&v.BlockReason,
		&v.BlockedAt,
		&v.BlockedByAdminID,
		&appealStatus,
		&v.AppealMessage,
		&v.AppealAt,
		&v.AppealResponse,
		&v.AppealResolvedAt,
		&v.LikesCount,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.ModerationVersion,
	)
	if err != nil {
		return nil, err
	}

	v.VisibilityStatus = models.VisibilityStatus(visibility)
	if appealStatus != nil {
		s := models.AppealStatus(*appealStatus)
		v.AppealStatus = &s
	}

	return &v, nil
}
