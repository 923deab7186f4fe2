package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// LocalPresenceStore 进程内降级实现, Redis 探活失败时启用
// 对调用方与 RedisPresenceStore 行为一致, 仅在多实例部署下丧失跨实例可见性
type LocalPresenceStore struct {
	mu     sync.RWMutex
	groups map[uint64]*localGroupPresence
	log    loggerv2.Logger
	ttl    time.Duration
	now    func() time.Time
}

// 每个小组持有独立的锁, 互不相关的小组不会互相竞争
type localGroupPresence struct {
	mu      sync.Mutex
	entries map[uint64]*model.PresenceEntry
}

var _ PresenceService = (*LocalPresenceStore)(nil)

func NewLocalPresenceStore(log loggerv2.Logger, ttl time.Duration) *LocalPresenceStore {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &LocalPresenceStore{
		groups: make(map[uint64]*localGroupPresence),
		log:    log,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *LocalPresenceStore) group(groupID uint64) *localGroupPresence {
	s.mu.RLock()
	g, ok := s.groups[groupID]
	s.mu.RUnlock()
	if ok {
		return g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok = s.groups[groupID]; ok {
		return g
	}
	g = &localGroupPresence{entries: make(map[uint64]*model.PresenceEntry)}
	s.groups[groupID] = g
	return g
}

func (s *LocalPresenceStore) Touch(_ context.Context, groupID, userID uint64, displayName string) (int64, error) {
	now := s.now()
	cutoff := now.Add(-s.ttl)
	g := s.group(groupID)

	g.mu.Lock()
	defer g.mu.Unlock()

	// 空昵称视为纯活跃信号, 不覆盖已有昵称
	if displayName == "" {
		if prev, ok := g.entries[userID]; ok {
			displayName = prev.DisplayName
		}
	}
	g.entries[userID] = &model.PresenceEntry{
		UserID:       userID,
		DisplayName:  displayName,
		LastActiveAt: now,
	}

	// 恰好等于 TTL 的还算在线, 过期判定是严格大于
	var count int64
	for id, entry := range g.entries {
		if !entry.LastActiveAt.Before(cutoff) {
			count++
			continue
		}
		delete(g.entries, id)
	}
	return count, nil
}

func (s *LocalPresenceStore) ListOnline(_ context.Context, groupID uint64) ([]model.PresenceEntry, error) {
	cutoff := s.now().Add(-s.ttl)
	g := s.group(groupID)

	g.mu.Lock()
	defer g.mu.Unlock()

	entries := make([]model.PresenceEntry, 0, len(g.entries))
	for _, entry := range g.entries {
		if !entry.LastActiveAt.Before(cutoff) {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastActiveAt.Equal(entries[j].LastActiveAt) {
			return entries[i].LastActiveAt.After(entries[j].LastActiveAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

func (s *LocalPresenceStore) Remove(_ context.Context, groupID, userID uint64) error {
	g := s.group(groupID)

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, userID)
	return nil
}

func (s *LocalPresenceStore) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.RLock()
	groups := make([]*localGroupPresence, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	s.mu.RUnlock()

	var pruned int64
	for _, g := range groups {
		g.mu.Lock()
		for id, entry := range g.entries {
			if entry.LastActiveAt.Before(cutoff) {
				delete(g.entries, id)
				pruned++
			}
		}
		g.mu.Unlock()
	}
	if pruned > 0 {
		s.log.InfoContext(ctx, "pruned expired presence entries", logger.Int64("count", pruned))
	}
	return pruned, nil
}
