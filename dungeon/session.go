package dungeon

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Session 一局完整的地牢：布局、起点、终点与开局时间。
// 发布后不再修改，重新生成时整体替换。
type Session struct {
	*Layout
	Start     Point
	End       Point
	CreatedAt time.Time
}

// SingleRoom 起点与终点重合的简单关卡
func (s *Session) SingleRoom() bool { return s.Start == s.End }

// Manager 持有当前会话，替换对并发读者是原子的
type Manager struct {
	gen     Generator
	now     func() time.Time
	current atomic.Pointer[Session]
}

// ManagerOption 可选配置
type ManagerOption func(*Manager)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager 创建会话管理器；首个会话需调用 Regenerate
func NewManager(gen Generator, opts ...ManagerOption) *Manager {
	m := &Manager{gen: gen, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Regenerate 生成新布局，起点取 2 号房间中心，终点取最后一个房间中心，然后整体发布
func (m *Manager) Regenerate(opts Options) (*Session, error) {
	layout, err := m.gen.Generate(opts)
	if err != nil {
		return nil, fmt.Errorf("generate dungeon: %w", err)
	}
	if len(layout.Rooms) == 0 {
		return nil, ErrNoRooms
	}

	first, ok := layout.Room(FirstRoomID)
	if !ok {
		return nil, fmt.Errorf("%w: room %d missing", ErrNoRooms, FirstRoomID)
	}
	last, ok := layout.Room(layout.NextRoomID - 1)
	if !ok {
		return nil, fmt.Errorf("%w: last room %d missing", ErrNoRooms, layout.NextRoomID-1)
	}

	s := &Session{
		Layout:    layout,
		Start:     first.Center(),
		End:       last.Center(),
		CreatedAt: m.now(),
	}
	m.current.Store(s)
	return s, nil
}

// Current 当前会话；Regenerate 成功前为 nil
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// Clone 深拷贝，供游戏循环以外的调用方只读使用
func (s *Session) Clone() *Session {
	l := *s.Layout
	l.Grid = make([][]Cell, len(s.Grid))
	for y, row := range s.Grid {
		l.Grid[y] = append([]Cell(nil), row...)
	}
	l.Rooms = append([]Room(nil), s.Rooms...)
	c := *s
	c.Layout = &l
	return &c
}
