package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	DefaultRingSize         = 100
	DefaultSubscriberBuffer = 16
)

type ChannelEventType string

const (
	ChannelEventMessage   ChannelEventType = "message"
	ChannelEventStandings ChannelEventType = "standings"
)

// ChannelEvent 作用域内推送的事件信封: 聊天消息或重算后的榜单
type ChannelEvent struct {
	Type      ChannelEventType     `json:"type"`
	Message   *model.Message       `json:"message,omitempty"`
	Standings []model.StandingsRow `json:"standings,omitempty"`
}

// LiveBroadcaster 供其他组件向作用域推送事件(榜单台账在 Accepted 后推榜单)
type LiveBroadcaster interface {
	Broadcast(scope model.Scope, evt ChannelEvent)
}

type MessageService interface {
	// Publish 追加到作用域环形缓冲并通知所有监听者; 持久化尽力而为,
	// 失败时返回 degraded=true 而不是错误, 实时投递不受影响
	Publish(ctx context.Context, scope model.Scope, senderID uint64, content string) (*model.Message, bool, error)
	// Recent 按时间正序返回最近 limit 条; 冷启动时回源持久化存储并预热缓冲
	Recent(ctx context.Context, scope model.Scope, limit int) ([]model.Message, error)
	// Subscribe 注册监听者, Cancel 返回后保证不再有任何投递
	Subscribe(scope model.Scope) *Subscription
	// TrimDurable 清理给定时刻之前的持久化消息, 由定时任务驱动
	TrimDurable(ctx context.Context, before time.Time) (int64, error)

	LiveBroadcaster
}

type MessageServiceImpl struct {
	repo     MessageRepository
	log      loggerv2.Logger
	ringSize int
	subBuf   int
	now      func() time.Time

	mu     sync.RWMutex
	scopes map[string]*scopeChannel
}

// 作用域各自持锁, 发布顺序即同作用域内的投递顺序
type scopeChannel struct {
	mu   sync.Mutex
	ring []model.Message
	warm bool
	subs map[*Subscription]struct{}
}

var _ MessageService = (*MessageServiceImpl)(nil)

func NewMessageService(repo MessageRepository, log loggerv2.Logger, ringSize, subscriberBuffer int) MessageService {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = DefaultSubscriberBuffer
	}
	return &MessageServiceImpl{
		repo:     repo,
		log:      log,
		ringSize: ringSize,
		subBuf:   subscriberBuffer,
		now:      time.Now,
		scopes:   make(map[string]*scopeChannel),
	}
}

func (s *MessageServiceImpl) scope(key string) *scopeChannel {
	s.mu.RLock()
	sc, ok := s.scopes[key]
	s.mu.RUnlock()
	if ok {
		return sc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok = s.scopes[key]; ok {
		return sc
	}
	sc = &scopeChannel{subs: make(map[*Subscription]struct{})}
	s.scopes[key] = sc
	return sc
}

func (s *MessageServiceImpl) Publish(ctx context.Context, scope model.Scope, senderID uint64, content string) (*model.Message, bool, error) {
	msg := model.Message{
		ID:          uuid.NewString(),
		GroupID:     scope.GroupID,
		ChallengeID: scope.ChallengeID,
		SenderID:    senderID,
		Content:     content,
		SentAt:      s.now(),
	}

	sc := s.scope(scope.Key())
	sc.mu.Lock()
	sc.appendLocked(msg, s.ringSize)
	s.fanOutLocked(ctx, sc, ChannelEvent{Type: ChannelEventMessage, Message: &msg})
	sc.mu.Unlock()

	// 持久化与实时投递互相独立: 丢一条可由用户重发弥补, 阻塞直播不可接受
	degraded := false
	if err := s.repo.SaveMessage(ctx, &msg); err != nil {
		degraded = true
		s.log.ErrorContext(ctx, "Publish durable write failed, serving degraded",
			logger.Error(err),
			logger.String("message_id", msg.ID),
			logger.String("scope", scope.Key()))
	}
	return &msg, degraded, nil
}

func (s *MessageServiceImpl) Recent(ctx context.Context, scope model.Scope, limit int) ([]model.Message, error) {
	sc := s.scope(scope.Key())

	sc.mu.Lock()
	if sc.warm {
		res := sc.tailLocked(limit)
		sc.mu.Unlock()
		return res, nil
	}
	sc.mu.Unlock()

	// 冷启动: 锁外回源, 避免数据库往返阻塞该作用域的发布
	loaded, err := s.repo.LoadRecentMessages(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent failed at load durable messages: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.warm {
		sc.ring = append(sc.ring[:0], loaded...)
		if len(sc.ring) > s.ringSize {
			sc.ring = sc.ring[len(sc.ring)-s.ringSize:]
		}
		sc.warm = true
		return sc.tailLocked(limit), nil
	}

	// 回源期间有新发布, 合并后以时间序截尾
	merged := mergeMessages(loaded, sc.ring)
	if len(merged) > s.ringSize {
		merged = merged[len(merged)-s.ringSize:]
	}
	sc.ring = merged
	return sc.tailLocked(limit), nil
}

func (s *MessageServiceImpl) Subscribe(scope model.Scope) *Subscription {
	sc := s.scope(scope.Key())
	ch := make(chan ChannelEvent, s.subBuf)
	sub := &Subscription{
		C:     ch,
		ch:    ch,
		scope: sc,
	}

	sc.mu.Lock()
	sc.subs[sub] = struct{}{}
	sc.mu.Unlock()
	return sub
}

func (s *MessageServiceImpl) Broadcast(scope model.Scope, evt ChannelEvent) {
	sc := s.scope(scope.Key())
	sc.mu.Lock()
	s.fanOutLocked(context.Background(), sc, evt)
	sc.mu.Unlock()
}

func (s *MessageServiceImpl) TrimDurable(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.DeleteMessagesBefore(ctx, before)
}

// fanOutLocked 调用方需持有 sc.mu; 慢消费者不回压发布方, 缓冲满则丢弃并记日志
func (s *MessageServiceImpl) fanOutLocked(ctx context.Context, sc *scopeChannel, evt ChannelEvent) {
	for sub := range sc.subs {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			s.log.WarnContext(ctx, "subscriber buffer full, event dropped",
				logger.String("event_type", string(evt.Type)))
		}
		sub.mu.Unlock()
	}
}

func (sc *scopeChannel) appendLocked(msg model.Message, ringSize int) {
	sc.ring = append(sc.ring, msg)
	if len(sc.ring) > ringSize {
		sc.ring = sc.ring[len(sc.ring)-ringSize:]
	}
	sc.warm = true
}

func (sc *scopeChannel) tailLocked(limit int) []model.Message {
	if limit > len(sc.ring) {
		limit = len(sc.ring)
	}
	res := make([]model.Message, limit)
	copy(res, sc.ring[len(sc.ring)-limit:])
	return res
}

// mergeMessages 按 SentAt 归并两段时间正序消息, 以 ID 去重(回源结果可能与缓冲重叠)
func mergeMessages(a, b []model.Message) []model.Message {
	seen := make(map[string]struct{}, len(a)+len(b))
	res := make([]model.Message, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next model.Message
		switch {
		case i >= len(a):
			next = b[j]
			j++
		case j >= len(b):
			next = a[i]
			i++
		case a[i].SentAt.After(b[j].SentAt):
			next = b[j]
			j++
		default:
			next = a[i]
			i++
		}
		if _, ok := seen[next.ID]; ok {
			continue
		}
		seen[next.ID] = struct{}{}
		res = append(res, next)
	}
	return res
}

// Subscription 单个监听者. Cancel 与投递通过 per-subscription 锁互斥,
// Cancel 返回后即使有并发 Publish 也不会再投递
type Subscription struct {
	C <-chan ChannelEvent

	mu     sync.Mutex
	closed bool
	ch     chan ChannelEvent
	scope  *scopeChannel
}

func (s *Subscription) Cancel() {
	s.scope.mu.Lock()
	delete(s.scope.subs, s)
	s.scope.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
