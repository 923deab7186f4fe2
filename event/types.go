package event

import json "github.com/bytedance/sonic"

const AcceptanceTopic = "challenge_acceptance_topic"

// AcceptanceMessage 首次通过某题时投递, 供下游(邮件通知/报表)消费
type AcceptanceMessage struct {
	ChallengeID uint64 `json:"challenge_id"`
	UserID      uint64 `json:"user_id"`
	ProblemID   uint64 `json:"problem_id"`
	Points      int    `json:"points"`
	AcceptedAt  int64  `json:"accepted_at"` // 单位: 毫秒
}

func (m *AcceptanceMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
