package server

import (
	"sync/atomic"
)

// GameMetrics 记录服务运行期的关键指标（用于监控与调试）
type GameMetrics struct {
	Joins            int64 // 建立的连接数
	Leaves           int64 // 断开的连接数
	MovesAccepted    int64 // 合法移动
	MovesRejected    int64 // 撞墙或越界
	InvalidFrames    int64 // 无法解析或未知的帧
	UnknownPlayer    int64 // 指向已离开玩家的请求
	Wins             int64 // 通关次数
	Regenerations    int64 // 地牢重新生成次数
	BroadcastDropped int64 // 因发送队列满被丢弃的消息数
}

func (m *GameMetrics) IncJoins()            { atomic.AddInt64(&m.Joins, 1) }
func (m *GameMetrics) IncLeaves()           { atomic.AddInt64(&m.Leaves, 1) }
func (m *GameMetrics) IncAccepted()         { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *GameMetrics) IncRejected()         { atomic.AddInt64(&m.MovesRejected, 1) }
func (m *GameMetrics) IncInvalidFrames()    { atomic.AddInt64(&m.InvalidFrames, 1) }
func (m *GameMetrics) IncUnknownPlayer()    { atomic.AddInt64(&m.UnknownPlayer, 1) }
func (m *GameMetrics) IncWins()             { atomic.AddInt64(&m.Wins, 1) }
func (m *GameMetrics) IncRegenerations()    { atomic.AddInt64(&m.Regenerations, 1) }
func (m *GameMetrics) IncBroadcastDropped() { atomic.AddInt64(&m.BroadcastDropped, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *GameMetrics) Snapshot() map[string]any {
	return map[string]any{
		"joins":             atomic.LoadInt64(&m.Joins),
		"leaves":            atomic.LoadInt64(&m.Leaves),
		"moves_accepted":    atomic.LoadInt64(&m.MovesAccepted),
		"moves_rejected":    atomic.LoadInt64(&m.MovesRejected),
		"invalid_frames":    atomic.LoadInt64(&m.InvalidFrames),
		"unknown_player":    atomic.LoadInt64(&m.UnknownPlayer),
		"wins":              atomic.LoadInt64(&m.Wins),
		"regenerations":     atomic.LoadInt64(&m.Regenerations),
		"broadcast_dropped": atomic.LoadInt64(&m.BroadcastDropped),
	}
}
