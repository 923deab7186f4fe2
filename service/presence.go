package service

import (
	"context"
	"time"

	"github.com/to404hanga/online_judge_live/model"
)

// 在线状态 TTL, 距最后一次活跃信号超过该时长即视为离线
const DefaultPresenceTTL = 5 * time.Minute

// PresenceService 小组在线状态. 成员可能不辞而别(崩溃/断网), 正确性只依赖
// TTL 过期 + 活跃刷新, 不依赖显式的离开信号; Remove 只是尽力而为的优化.
// 共享存储(Redis)和进程内两种实现行为一致, 选择哪个是启动时的运维决策
type PresenceService interface {
	// Touch 记录/刷新操作人的在线状态, 返回该小组 TTL 内的在线人数
	Touch(ctx context.Context, groupID, userID uint64, displayName string) (int64, error)
	// ListOnline 返回未过期成员, 按最后活跃时间降序
	ListOnline(ctx context.Context, groupID uint64) ([]model.PresenceEntry, error)
	// Remove 优雅断开时显式移除, 失败不致命
	Remove(ctx context.Context, groupID, userID uint64) error
	// PruneExpired 清理过期条目以约束内存, 由定时任务驱动, 返回清理条数
	PruneExpired(ctx context.Context) (int64, error)
}
