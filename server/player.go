package server

import (
	"fmt"
	"strings"

	"dungeonrace/dungeon"
)

// Direction 移动方向（服务端权威解释客户端“意图”）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// ParseDirection 解析 "up"/"down"/"left"/"right"，其它返回 false
func ParseDirection(token string) (Direction, bool) {
	switch strings.ToLower(token) {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	}
	return DirNone, false
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "none"
}

// Offset 单位位移
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Facing string `json:"facing"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// Player 服务端权威的玩家状态
type Player struct {
	ID     string
	Pos    dungeon.Point
	Facing Direction
	Name   string
}

func (p *Player) state() PlayerState {
	return PlayerState{X: p.Pos.X, Y: p.Pos.Y, Facing: p.Facing.String(), ID: p.ID, Name: p.Name}
}

// Roster 在线玩家表，按加入顺序广播。
// 自身不加锁，只能在 GameServer 的临界区内访问。
type Roster struct {
	players map[string]*Player
	order   []string
	joined  int // 累计连接数，用于默认名，永不重置
}

func NewRoster() *Roster {
	return &Roster{players: make(map[string]*Player)}
}

// Join 在起点创建玩家，面朝下，默认名 "Player N"；重复 id 返回已有玩家
func (r *Roster) Join(id string, start dungeon.Point) *Player {
	if p, ok := r.players[id]; ok {
		return p
	}
	r.joined++
	p := &Player{ID: id, Pos: start, Facing: DirDown, Name: fmt.Sprintf("Player %d", r.joined)}
	r.players[id] = p
	r.order = append(r.order, id)
	return p
}

// Leave 移除玩家，不存在时返回 false
func (r *Roster) Leave(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename 覆盖显示名，不做任何校验
func (r *Roster) Rename(id, name string) bool {
	p, ok := r.players[id]
	if !ok {
		return false
	}
	p.Name = name
	return true
}

func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Roster) Len() int { return len(r.players) }

// ResetAll 所有玩家回到起点并面朝下
func (r *Roster) ResetAll(start dungeon.Point) {
	for _, p := range r.players {
		p.Pos = start
		p.Facing = DirDown
	}
}

// Snapshot 按加入顺序导出
func (r *Roster) Snapshot() []PlayerState {
	out := make([]PlayerState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].state())
	}
	return out
}
