package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vitrine-craques/video-moderation-go/pkg/logger"
)

const (
	blockedVideosSetKey  = "moderation:blocked_videos"
	videoVersionsHashKey = "moderation:video_versions"
	visibilityBlockedArg = "1"
	visibilityPublicArg  = "0"
)

// setVisibility applies a visibility change only when its version is newer than
// the last one recorded for the video.
// KEYS[1] blocked set, KEYS[2] version hash.
// ARGV[1] video id, ARGV[2] version, ARGV[3] "1" to block or "0" to make public.
var setVisibility = redis.NewScript(`
local current = redis.call('HGET', KEYS[2], ARGV[1])
if current and tonumber(current) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
if ARGV[3] == '1' then
	redis.call('SADD', KEYS[1], ARGV[1])
else
	redis.call('SREM', KEYS[1], ARGV[1])
end
return 1
`)

// BlockedVideoSource lists the moderation version of every blocked video.
type BlockedVideoSource interface {
	ListBlockedVideoVersions(ctx context.Context) (map[string]int64, error)
}

// BlockedVideoCache keeps the ids of blocked videos in a Redis set so public
// visibility checks for blocked videos skip the database. Writes carry the
// video's moderation version and stale ones are dropped, so concurrent
// transitions settle on the last committed state.
type BlockedVideoCache struct {
	redisClient *redis.Client
	source      BlockedVideoSource
}

// NewBlockedVideoCache creates a new BlockedVideoCache.
func NewBlockedVideoCache(redisClient *redis.Client, source BlockedVideoSource) *BlockedVideoCache {
	return &BlockedVideoCache{
		redisClient: redisClient,
		source:      source,
	}
}

// LoadFromDB replaces the cached set with the blocked videos in the database.
// It should be called on startup.
func (c *BlockedVideoCache) LoadFromDB(ctx context.Context) error {
	versions, err := c.source.ListBlockedVideoVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load blocked videos from database: %w", err)
	}

	pipe := c.redisClient.TxPipeline()
	pipe.Del(ctx, blockedVideosSetKey, videoVersionsHashKey)
	if len(versions) > 0 {
		members := make([]interface{}, 0, len(versions))
		fields := make([]interface{}, 0, 2*len(versions))
		for id, version := range versions {
			members = append(members, id)
			fields = append(fields, id, version)
		}
		pipe.SAdd(ctx, blockedVideosSetKey, members...)
		pipe.HSet(ctx, videoVersionsHashKey, fields...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to load blocked videos into Redis: %w", err)
	}

	logger.Log.Info("Loaded blocked videos into cache", zap.Int("count", len(versions)))
	return nil
}

// IsBlocked checks whether a video id is in the blocked set.
func (c *BlockedVideoCache) IsBlocked(ctx context.Context, videoID string) (bool, error) {
	result, err := c.redisClient.SIsMember(ctx, blockedVideosSetKey, videoID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if video is blocked: %w", err)
	}
	return result, nil
}

// MarkBlocked adds a video id to the blocked set unless a newer version was
// already applied. Call after the block commits.
func (c *BlockedVideoCache) MarkBlocked(ctx context.Context, videoID string, version int64) error {
	if err := c.apply(ctx, videoID, version, visibilityBlockedArg); err != nil {
		return fmt.Errorf("failed to add video to blocked cache: %w", err)
	}
	return nil
}

// MarkPublic removes a video id from the blocked set unless a newer version was
// already applied. Call after the unblock commits.
func (c *BlockedVideoCache) MarkPublic(ctx context.Context, videoID string, version int64) error {
	if err := c.apply(ctx, videoID, version, visibilityPublicArg); err != nil {
		return fmt.Errorf("failed to remove video from blocked cache: %w", err)
	}
	return nil
}

func (c *BlockedVideoCache) apply(ctx context.Context, videoID string, version int64, visibility string) error {
	applied, err := setVisibility.Run(ctx, c.redisClient,
		[]string{blockedVideosSetKey, videoVersionsHashKey},
		videoID, strconv.FormatInt(version, 10), visibility,
	).Int()
	if err != nil {
		return err
	}
	if applied == 0 {
		logger.Log.Debug("Skipped stale blocked video cache write",
			zap.String("videoId", videoID),
			zap.Int64("version", version),
		)
	}
	return nil
}

// Count returns the number of blocked videos in the cache.
func (c *BlockedVideoCache) Count(ctx context.Context) (int64, error) {
	count, err := c.redisClient.SCard(ctx, blockedVideosSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get blocked videos count: %w", err)
	}
	return count, nil
}

// Ping checks the Redis connection.
func (c *BlockedVideoCache) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}
