package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	presenceKey     = "presence:group:%d"
	presenceNameKey = "presence:group:%d:names"
)

// RedisPresenceStore 共享存储实现, 多实例部署时使用
// ZSET member 为 userID, score 为最后活跃时间(毫秒); 昵称放在伴生 HASH
type RedisPresenceStore struct {
	rdb redis.Cmdable
	log loggerv2.Logger
	ttl time.Duration
	now func() time.Time
}

var _ PresenceService = (*RedisPresenceStore)(nil)

func NewRedisPresenceStore(rdb redis.Cmdable, log loggerv2.Logger, ttl time.Duration) *RedisPresenceStore {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &RedisPresenceStore{
		rdb: rdb,
		log: log,
		ttl: ttl,
		now: time.Now,
	}
}

// Touch 记录/刷新在线状态并返回在线人数, 顺带清理该小组的过期成员
func (s *RedisPresenceStore) Touch(ctx context.Context, groupID, userID uint64, displayName string) (int64, error) {
	now := s.now()
	key := fmt.Sprintf(presenceKey, groupID)
	nameKey := fmt.Sprintf(presenceNameKey, groupID)
	member := strconv.FormatUint(userID, 10)

	err := s.rdb.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return 0, fmt.Errorf("Touch failed at zadd presence: %w", err)
	}
	// 空昵称视为纯活跃信号, 不覆盖已有昵称
	if displayName != "" {
		if err = s.rdb.HSet(ctx, nameKey, member, displayName).Err(); err != nil {
			return 0, fmt.Errorf("Touch failed at hset display name: %w", err)
		}
	}

	cutoff := strconv.FormatInt(now.Add(-s.ttl).UnixMilli(), 10)

	// 顺带清理, 失败只记日志, 下次 Touch 或 reaper 会兜底
	if err = s.rdb.ZRemRangeByScore(ctx, key, "0", "("+cutoff).Err(); err != nil {
		s.log.WarnContext(ctx, "Touch prune expired members failed",
			logger.Error(err),
			logger.Uint64("group_id", groupID))
	}

	// 小组整体沉寂后由 redis 过期兜底回收
	s.rdb.Expire(ctx, key, s.ttl)
	s.rdb.Expire(ctx, nameKey, s.ttl)

	count, err := s.rdb.ZCount(ctx, key, cutoff, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("Touch failed at zcount presence: %w", err)
	}
	return count, nil
}

// ListOnline 过期与否在读取时按 score 判定, 不依赖清理是否及时
func (s *RedisPresenceStore) ListOnline(ctx context.Context, groupID uint64) ([]model.PresenceEntry, error) {
	now := s.now()
	key := fmt.Sprintf(presenceKey, groupID)
	nameKey := fmt.Sprintf(presenceNameKey, groupID)
	cutoff := strconv.FormatInt(now.Add(-s.ttl).UnixMilli(), 10)

	members, err := s.rdb.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: cutoff,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("ListOnline failed at zrevrangebyscore presence: %w", err)
	}
	if len(members) == 0 {
		return []model.PresenceEntry{}, nil
	}

	fields := make([]string, 0, len(members))
	for _, z := range members {
		fields = append(fields, z.Member.(string))
	}
	names, err := s.rdb.HMGet(ctx, nameKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("ListOnline failed at hmget display names: %w", err)
	}

	entries := make([]model.PresenceEntry, 0, len(members))
	for i, z := range members {
		userID, errParse := strconv.ParseUint(fields[i], 10, 64)
		if errParse != nil {
			s.log.WarnContext(ctx, "ListOnline skip malformed member",
				logger.String("member", fields[i]),
				logger.Error(errParse))
			continue
		}
		displayName := ""
		if i < len(names) && names[i] != nil {
			displayName, _ = names[i].(string)
		}
		entries = append(entries, model.PresenceEntry{
			UserID:       userID,
			DisplayName:  displayName,
			LastActiveAt: time.UnixMilli(int64(z.Score)),
		})
	}
	return entries, nil
}

func (s *RedisPresenceStore) Remove(ctx context.Context, groupID, userID uint64) error {
	key := fmt.Sprintf(presenceKey, groupID)
	nameKey := fmt.Sprintf(presenceNameKey, groupID)
	member := strconv.FormatUint(userID, 10)

	if err := s.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("Remove failed at zrem presence: %w", err)
	}
	if err := s.rdb.HDel(ctx, nameKey, member).Err(); err != nil {
		return fmt.Errorf("Remove failed at hdel display name: %w", err)
	}
	return nil
}

// PruneExpired 扫描所有小组键, 移除过期成员及其昵称
func (s *RedisPresenceStore) PruneExpired(ctx context.Context) (int64, error) {
	var (
		pruned int64
		cursor uint64
	)
	cutoff := strconv.FormatInt(s.now().Add(-s.ttl).UnixMilli(), 10)

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, "presence:group:*", 100).Result()
		if err != nil {
			return pruned, fmt.Errorf("PruneExpired failed at scan presence keys: %w", err)
		}
		for _, key := range keys {
			if len(key) > 6 && key[len(key)-6:] == ":names" {
				continue
			}
			expired, errInternal := s.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
				Min: "0",
				Max: "(" + cutoff,
			}).Result()
			if errInternal != nil {
				s.log.WarnContext(ctx, "PruneExpired list expired members failed",
					logger.Error(errInternal),
					logger.String("key", key))
				continue
			}
			if len(expired) == 0 {
				continue
			}
			if errInternal = s.rdb.ZRemRangeByScore(ctx, key, "0", "("+cutoff).Err(); errInternal != nil {
				s.log.WarnContext(ctx, "PruneExpired remove expired members failed",
					logger.Error(errInternal),
					logger.String("key", key))
				continue
			}
			s.rdb.HDel(ctx, key+":names", expired...)
			pruned += int64(len(expired))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return pruned, nil
}
