package server

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"dungeonrace/dungeon"
	"dungeonrace/hiscore"
)

// 两个相邻房间，中间只有上方一条走廊：起点 (2,2)，终点 (5,2)
var twoRooms = []string{
	"#######",
	"#22.33#",
	"#22#33#",
	"#######",
}

// 与 twoRooms 尺寸不同的第二张图：起点 (1,1)，终点 (6,1)
var longHall = []string{
	"########",
	"#2....3#",
	"########",
}

// 没有外墙的一行：用于越界检查，起点 (1,0)，终点 (3,0)
var openRow = []string{
	"22.3",
}

var anyOptions = dungeon.Options{Width: 20, Height: 20, Rooms: 7, RoomSize: 8}

// parseLayout '#' 墙，'.' 走廊，数字为房间编号
func parseLayout(rows []string) *dungeon.Layout {
	l := dungeon.NewLayout(len(rows[0]), len(rows))
	type box struct{ x1, y1, x2, y2 int }
	boxes := map[int]*box{}
	for y, row := range rows {
		for x, ch := range row {
			switch {
			case ch == '#':
				l.Grid[y][x] = dungeon.Wall
			case ch == '.':
				l.Grid[y][x] = dungeon.Corridor
			case ch >= '2' && ch <= '9':
				id := int(ch - '0')
				l.Grid[y][x] = dungeon.Cell(id)
				b, ok := boxes[id]
				if !ok {
					boxes[id] = &box{x, y, x, y}
					continue
				}
				b.x1, b.y1 = min(b.x1, x), min(b.y1, y)
				b.x2, b.y2 = max(b.x2, x), max(b.y2, y)
			}
		}
	}
	ids := make([]int, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b := boxes[id]
		l.Rooms = append(l.Rooms, dungeon.NewRoom(id, b.x1, b.y1, b.x2-b.x1+1, b.y2-b.y1+1))
		l.NextRoomID = id + 1
	}
	l.RoomSize = 2
	return l
}

// scriptedGenerator 依次返回给定布局，循环使用
type scriptedGenerator struct {
	mu      sync.Mutex
	layouts [][]string
	calls   int
}

func (g *scriptedGenerator) Generate(dungeon.Options) (*dungeon.Layout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l := parseLayout(g.layouts[g.calls%len(g.layouts)])
	g.calls++
	return l, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeConn 记录收到的消息
type fakeConn struct {
	mu     sync.Mutex
	msgs   []Envelope
	full   bool
	closed bool
}

func (c *fakeConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		panic(err)
	}
	c.msgs = append(c.msgs, env)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.Type
	}
	return out
}

func (c *fakeConn) count(msgType string) int {
	n := 0
	for _, t := range c.types() {
		if t == msgType {
			n++
		}
	}
	return n
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.msgs = nil
	c.mu.Unlock()
}

// last 解码最近一条指定类型的消息
func (c *fakeConn) last(t *testing.T, msgType string, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == msgType {
			if err := json.Unmarshal(c.msgs[i].Data, v); err != nil {
				t.Fatalf("decode %q: %v", msgType, err)
			}
			return
		}
	}
	t.Fatalf("no %q message received; got %v", msgType, c.msgs)
}

type testGame struct {
	*GameServer
	clock *fakeClock
	gen   *scriptedGenerator
	board *hiscore.Leaderboard
	store *hiscore.MemoryStore
}

func newTestGame(t *testing.T, layouts ...[]string) *testGame {
	t.Helper()
	clock := newFakeClock()
	gen := &scriptedGenerator{layouts: layouts}
	store := hiscore.NewMemoryStore()
	board := hiscore.NewLeaderboard(store, nil)
	g, err := NewGameServer(&Config{
		Generator:   gen,
		Dungeon:     anyOptions,
		Leaderboard: board,
		Clock:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewGameServer: %v", err)
	}
	return &testGame{GameServer: g, clock: clock, gen: gen, board: board, store: store}
}

func (g *testGame) player(t *testing.T, id string) PlayerState {
	t.Helper()
	for _, p := range g.Players() {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("player %q not in roster", id)
	return PlayerState{}
}

// place 直接设置玩家位置（同包测试）
func (g *testGame) place(id string, pos dungeon.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.roster.Get(id); ok {
		p.Pos = pos
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
