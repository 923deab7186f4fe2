package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_live/model"
)

type fakeMessageRepo struct {
	mu       sync.Mutex
	saved    []model.Message
	failSave bool
	loaded   []model.Message
	loadErr  error
}

func (r *fakeMessageRepo) SaveMessage(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errors.New("durable store down")
	}
	r.saved = append(r.saved, *msg)
	return nil
}

func (r *fakeMessageRepo) LoadRecentMessages(_ context.Context, _ model.Scope, limit int) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if limit > len(r.loaded) {
		limit = len(r.loaded)
	}
	return r.loaded[len(r.loaded)-limit:], nil
}

func (r *fakeMessageRepo) DeleteMessagesBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []model.Message
	var deleted int64
	for _, m := range r.saved {
		if m.SentAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.saved = kept
	return deleted, nil
}

func newTestMessageService(repo MessageRepository, ringSize int) MessageService {
	return NewMessageService(repo, newTestLogger(), ringSize, 4)
}

func TestMessagePublishAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeMessageRepo{}
	svc := newTestMessageService(repo, 10)
	scope := model.GroupScope(1)

	msg1, degraded, err := svc.Publish(ctx, scope, 100, "hello")
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.NotEmpty(t, msg1.ID)

	_, _, err = svc.Publish(ctx, scope, 101, "world")
	require.NoError(t, err)

	list, err := svc.Recent(ctx, scope, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content)
	assert.Equal(t, "world", list[1].Content)

	// 持久化副本同步写入
	assert.Len(t, repo.saved, 2)
}

func TestMessageRingEviction(t *testing.T) {
	ctx := context.Background()
	svc := newTestMessageService(&fakeMessageRepo{}, 3)
	scope := model.GroupScope(1)

	for _, content := range []string{"a", "b", "c", "d", "e"} {
		_, _, err := svc.Publish(ctx, scope, 100, content)
		require.NoError(t, err)
	}

	list, err := svc.Recent(ctx, scope, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Content)
	assert.Equal(t, "e", list[2].Content)
}

func TestMessageScopeIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newTestMessageService(&fakeMessageRepo{}, 10)
	groupScope := model.GroupScope(1)
	challengeScope := model.ChallengeScope(1, 7)

	_, _, err := svc.Publish(ctx, groupScope, 100, "group chat")
	require.NoError(t, err)
	_, _, err = svc.Publish(ctx, challengeScope, 100, "challenge chat")
	require.NoError(t, err)

	groupList, err := svc.Recent(ctx, groupScope, 10)
	require.NoError(t, err)
	require.Len(t, groupList, 1)
	assert.Equal(t, "group chat", groupList[0].Content)

	challengeList, err := svc.Recent(ctx, challengeScope, 10)
	require.NoError(t, err)
	require.Len(t, challengeList, 1)
	assert.Equal(t, "challenge chat", challengeList[0].Content)
}

func TestMessageSubscribeDelivery(t *testing.T) {
	ctx := context.Background()
	svc := newTestMessageService(&fakeMessageRepo{}, 10)
	scope := model.GroupScope(1)

	sub := svc.Subscribe(scope)
	other := svc.Subscribe(model.GroupScope(2))
	defer other.Cancel()

	_, _, err := svc.Publish(ctx, scope, 100, "hello")
	require.NoError(t, err)

	select {
	case evt := <-sub.C:
		assert.Equal(t, ChannelEventMessage, evt.Type)
		require.NotNil(t, evt.Message)
		assert.Equal(t, "hello", evt.Message.Content)
	case <-time.After(time.Second):
		t.Fatal("expected delivery to subscriber")
	}

	// 其他作用域的监听者收不到
	select {
	case <-other.C:
		t.Fatal("unexpected delivery to other scope")
	default:
	}

	sub.Cancel()
	_, _, err = svc.Publish(ctx, scope, 100, "after cancel")
	require.NoError(t, err)

	// Cancel 后通道关闭且不再投递
	evt, ok := <-sub.C
	assert.False(t, ok, "channel should be closed, got %+v", evt)
}

func TestMessageDegradedPublish(t *testing.T) {
	ctx := context.Background()
	repo := &fakeMessageRepo{failSave: true}
	svc := newTestMessageService(repo, 10)
	scope := model.GroupScope(1)

	sub := svc.Subscribe(scope)
	defer sub.Cancel()

	msg, degraded, err := svc.Publish(ctx, scope, 100, "still live")
	require.NoError(t, err)
	assert.True(t, degraded)

	// 降级不影响实时投递与环形缓冲
	select {
	case evt := <-sub.C:
		assert.Equal(t, msg.ID, evt.Message.ID)
	case <-time.After(time.Second):
		t.Fatal("expected delivery despite durable failure")
	}

	list, err := svc.Recent(ctx, scope, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMessageRecentColdStart(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	repo := &fakeMessageRepo{
		loaded: []model.Message{
			{ID: "m1", GroupID: 1, Content: "old-1", SentAt: base.Add(-2 * time.Minute)},
			{ID: "m2", GroupID: 1, Content: "old-2", SentAt: base.Add(-time.Minute)},
		},
	}
	svc := newTestMessageService(repo, 10)

	list, err := svc.Recent(ctx, model.GroupScope(1), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "old-1", list[0].Content)
	assert.Equal(t, "old-2", list[1].Content)

	// 预热后的发布追加在持久化历史之后
	_, _, err = svc.Publish(ctx, model.GroupScope(1), 100, "new")
	require.NoError(t, err)
	list, err = svc.Recent(ctx, model.GroupScope(1), 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[2].Content)
}

func TestMessageTrimDurable(t *testing.T) {
	ctx := context.Background()
	repo := &fakeMessageRepo{}
	svc := newTestMessageService(repo, 10)

	_, _, err := svc.Publish(ctx, model.GroupScope(1), 100, "old enough")
	require.NoError(t, err)

	deleted, err := svc.TrimDurable(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMergeMessages(t *testing.T) {
	base := time.Now()
	a := []model.Message{
		{ID: "1", SentAt: base},
		{ID: "2", SentAt: base.Add(time.Second)},
	}
	b := []model.Message{
		{ID: "2", SentAt: base.Add(time.Second)},
		{ID: "3", SentAt: base.Add(2 * time.Second)},
	}

	merged := mergeMessages(a, b)
	require.Len(t, merged, 3)
	assert.Equal(t, "1", merged[0].ID)
	assert.Equal(t, "2", merged[1].ID)
	assert.Equal(t, "3", merged[2].ID)
}
