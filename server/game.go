package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dungeonrace/dungeon"
	"dungeonrace/hiscore"
)

var errNoGenerator = errors.New("game server requires a dungeon generator")

// Sender 单个连接的发送端；Enqueue 不阻塞，队列满或已关闭时返回 false
type Sender interface {
	Enqueue(b []byte) bool
	Close()
}

// Config 组装 GameServer 所需的依赖
type Config struct {
	Generator   dungeon.Generator
	Dungeon     dungeon.Options
	Leaderboard *hiscore.Leaderboard
	Clock       func() time.Time
}

// GameServer 权威世界状态：地牢会话、玩家表与排行榜。
// 所有修改都在 mu 内串行执行；存储读写在排行榜协程中进行，不占用 mu。
type GameServer struct {
	mu       sync.Mutex
	sessions *dungeon.Manager
	opts     dungeon.Options
	roster   *Roster
	conns    map[string]Sender
	board    *hiscore.Leaderboard
	now      func() time.Time
	metrics  *GameMetrics
}

// NewGameServer 生成首个地牢；参数错误或无法生成时返回错误，调用方应拒绝启动
func NewGameServer(c *Config) (*GameServer, error) {
	if c.Generator == nil {
		return nil, errNoGenerator
	}
	if err := c.Dungeon.Validate(); err != nil {
		return nil, err
	}
	now := c.Clock
	if now == nil {
		now = time.Now
	}
	board := c.Leaderboard
	if board == nil {
		board = hiscore.NewLeaderboard(hiscore.NewMemoryStore(), Log)
	}

	g := &GameServer{
		sessions: dungeon.NewManager(c.Generator, dungeon.WithClock(now)),
		opts:     c.Dungeon,
		roster:   NewRoster(),
		conns:    make(map[string]Sender),
		board:    board,
		now:      now,
		metrics:  &GameMetrics{},
	}
	s, err := g.sessions.Regenerate(c.Dungeon)
	if err != nil {
		return nil, fmt.Errorf("initial dungeon: %w", err)
	}
	g.logSession(s)
	board.OnChange(g.broadcastHiscores)
	return g, nil
}

// Join 玩家加入：向新连接发送地牢与排行榜，再向所有人广播玩家表
func (g *GameServer) Join(id string, conn Sender) PlayerState {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions.Current()
	p := g.roster.Join(id, s.Start)
	if conn != nil {
		g.conns[id] = conn
		g.sendTo(conn, MsgDungeonData, newDungeonData(s))
		g.sendTo(conn, MsgHiscoreData, hiscoreEntries(g.board.Snapshot()))
	}
	g.metrics.IncJoins()
	g.broadcast(MsgPlayerData, g.roster.Snapshot())
	Log.Infow("player connected", "id", id, "name", p.Name, "players", g.roster.Len())
	return p.state()
}

// Leave 移除玩家并广播；重复调用为空操作
func (g *GameServer) Leave(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if conn, ok := g.conns[id]; ok {
		delete(g.conns, id)
		conn.Close()
	}
	if !g.roster.Leave(id) {
		return
	}
	g.metrics.IncLeaves()
	g.broadcast(MsgPlayerData, g.roster.Snapshot())
	Log.Infow("player disconnected", "id", id, "players", g.roster.Len())
}

// Rename 修改显示名并广播
func (g *GameServer) Rename(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.roster.Rename(id, name) {
		g.metrics.IncUnknownPlayer()
		return
	}
	g.broadcast(MsgPlayerData, g.roster.Snapshot())
}

// Move 校验并执行一步移动。无论成功与否都广播玩家表；
// 落在终点时记录成绩、重新生成地牢并让所有玩家回到新起点。
func (g *GameServer) Move(id string, dir Direction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if dx, dy := dir.Offset(); dx == 0 && dy == 0 {
		g.metrics.IncInvalidFrames()
		return false
	}
	p, ok := g.roster.Get(id)
	if !ok {
		g.metrics.IncUnknownPlayer()
		return false
	}

	s := g.sessions.Current()
	accepted := applyMove(p, dir, s)
	if accepted {
		g.metrics.IncAccepted()
	} else {
		g.metrics.IncRejected()
	}
	g.broadcast(MsgPlayerData, g.roster.Snapshot())

	if accepted && p.Pos == s.End {
		g.win(p, s)
	}
	return accepted
}

// applyMove 目标在界内且不是墙才移动；只有成功时才更新朝向
func applyMove(p *Player, dir Direction, s *dungeon.Session) bool {
	dx, dy := dir.Offset()
	next := p.Pos.Add(dx, dy)
	if !s.InBounds(next) || s.At(next).IsWall() {
		return false
	}
	p.Pos = next
	p.Facing = dir
	return true
}

func (g *GameServer) win(p *Player, s *dungeon.Session) {
	elapsed := g.now().Sub(s.CreatedAt)
	label := FormatElapsed(elapsed)
	g.metrics.IncWins()
	rec := g.board.Record(p.Name, label)
	Log.Infow("dungeon cleared", "id", p.ID, "name", p.Name, "timeTaken", label, "ms", elapsed.Milliseconds(), "entryId", rec.ID)

	g.restart(s)
}

// restart 生成新地牢，所有玩家（不只是胜者）回到起点并广播。
// 生成失败时保留当前地牢重开。调用方持有 mu。
func (g *GameServer) restart(prev *dungeon.Session) {
	next, err := g.sessions.Regenerate(g.opts)
	if err != nil {
		Log.Errorw("regenerate dungeon failed, replaying current level", "error", err)
		next = prev
	} else {
		g.metrics.IncRegenerations()
		g.logSession(next)
	}
	g.roster.ResetAll(next.Start)
	g.broadcast(MsgDungeonData, newDungeonData(next))
	g.broadcast(MsgPlayerData, g.roster.Snapshot())
}

// Regenerate 立即换一张新地牢（管理接口）
func (g *GameServer) Regenerate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restart(g.sessions.Current())
}

// FormatElapsed 格式化为 分:秒:毫秒，整除取余，不补零，例如 5:3:7
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d:%d:%d", ms/60000, (ms/1000)%60, ms%1000)
}

// Options 当前生成参数
func (g *GameServer) Options() dungeon.Options {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts
}

// SetOptions 更新生成参数，下一次重新生成时生效
func (g *GameServer) SetOptions(opts dungeon.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.opts = opts
	g.mu.Unlock()
	return nil
}

// Session 当前地牢会话的副本，修改它不会影响游戏
func (g *GameServer) Session() *dungeon.Session {
	return g.sessions.Current().Clone()
}

// Players 玩家表快照
func (g *GameServer) Players() []PlayerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roster.Snapshot()
}

// Metrics 运行指标
func (g *GameServer) Metrics() *GameMetrics { return g.metrics }

// broadcastHiscores 排行榜刷新后的回调，重新进入临界区广播
func (g *GameServer) broadcastHiscores(records []hiscore.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcast(MsgHiscoreData, hiscoreEntries(records))
}

// broadcast 将消息广播给所有连接（非阻塞，满则丢弃）
func (g *GameServer) broadcast(msgType string, v any) {
	b, err := encodeMessage(msgType, v)
	if err != nil {
		Log.Errorw("encode broadcast failed", "type", msgType, "error", err)
		return
	}
	for _, c := range g.conns {
		if !c.Enqueue(b) {
			g.metrics.IncBroadcastDropped()
		}
	}
}

func (g *GameServer) sendTo(c Sender, msgType string, v any) {
	b, err := encodeMessage(msgType, v)
	if err != nil {
		Log.Errorw("encode message failed", "type", msgType, "error", err)
		return
	}
	if !c.Enqueue(b) {
		g.metrics.IncBroadcastDropped()
	}
}

func (g *GameServer) logSession(s *dungeon.Session) {
	Log.Infow("new dungeon started",
		"width", s.Width, "height", s.Height, "rooms", len(s.Rooms),
		"start", s.Start, "end", s.End, "createdAt", s.CreatedAt)
	if s.SingleRoom() {
		Log.Warnw("dungeon has a single room, start equals end", "rooms", len(s.Rooms))
	}
}
