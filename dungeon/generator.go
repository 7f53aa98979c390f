package dungeon

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// 生成相关错误，均属于配置错误，启动阶段应直接失败
var (
	ErrInvalidOptions = errors.New("invalid dungeon options")
	ErrNoRooms        = errors.New("generator placed no rooms")
)

const (
	minDimension = 3  // 网格最小宽高（含一圈外墙）
	minRoomSide  = 2  // 房间最小边长
	placeTries   = 30 // 每个房间的随机摆放尝试次数
)

// Options 地牢生成参数
type Options struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Rooms    int `json:"rooms"`
	RoomSize int `json:"roomSize"`
}

// Validate 检查参数是否合法，房间至少要能放进外墙以内
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Rooms <= 0 || o.RoomSize <= 0 {
		return fmt.Errorf("%w: all values must be positive, got %+v", ErrInvalidOptions, o)
	}
	if o.Width < minDimension || o.Height < minDimension {
		return fmt.Errorf("%w: grid %dx%d smaller than %dx%d", ErrInvalidOptions, o.Width, o.Height, minDimension, minDimension)
	}
	lo, _ := o.roomSideRange()
	if lo > o.Width-2 || lo > o.Height-2 {
		return fmt.Errorf("%w: rooms of side %d do not fit in %dx%d", ErrInvalidOptions, lo, o.Width, o.Height)
	}
	return nil
}

// roomSideRange 房间边长取值区间 [RoomSize/2, RoomSize]
func (o Options) roomSideRange() (int, int) {
	lo := max(minRoomSide, o.RoomSize/2)
	if o.RoomSize < minRoomSide {
		lo = 1
	}
	hi := max(lo, o.RoomSize)
	return lo, hi
}

// Generator 迷宫生成算法的适配接口，游戏逻辑只依赖它
type Generator interface {
	Generate(opts Options) (*Layout, error)
}

// GeneratorFunc 允许普通函数充当 Generator
type GeneratorFunc func(opts Options) (*Layout, error)

func (f GeneratorFunc) Generate(opts Options) (*Layout, error) { return f(opts) }

// RoomGenerator 随机摆放互不重叠的矩形房间，并用 L 形走廊把每个房间连到上一个房间。
// 同一种子得到相同结果；非并发安全，由调用方串行使用。
type RoomGenerator struct {
	rnd *rand.Rand
}

// NewGenerator 创建生成器，seed 为 0 时使用当前时间
func NewGenerator(seed int64) *RoomGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RoomGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate 尽力生成 opts.Rooms 个房间，空间不足时房间数可能更少
func (g *RoomGenerator) Generate(opts Options) (*Layout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l := NewLayout(opts.Width, opts.Height)
	l.RoomSize = opts.RoomSize

	lo, hi := opts.roomSideRange()
	maxW := min(hi, opts.Width-2)
	maxH := min(hi, opts.Height-2)

	for len(l.Rooms) < opts.Rooms {
		room, ok := g.place(l, lo, maxW, maxH)
		if !ok {
			break
		}
		g.carveRoom(l, room)
		if n := len(l.Rooms); n > 1 {
			g.carveCorridor(l, l.Rooms[n-2].Center(), room.Center())
		}
	}

	if len(l.Rooms) == 0 {
		return nil, fmt.Errorf("%w: %+v", ErrNoRooms, opts)
	}
	return l, nil
}

// place 在外墙以内寻找一个与已有房间至少间隔一格的位置
func (g *RoomGenerator) place(l *Layout, lo, maxW, maxH int) (Room, bool) {
	for try := 0; try < placeTries; try++ {
		w := lo + g.rnd.Intn(maxW-lo+1)
		h := lo + g.rnd.Intn(maxH-lo+1)
		x := 1 + g.rnd.Intn(l.Width-w-1)
		y := 1 + g.rnd.Intn(l.Height-h-1)
		candidate := NewRoom(l.NextRoomID, x, y, w, h)

		free := true
		for _, r := range l.Rooms {
			if candidate.overlaps(r, 1) {
				free = false
				break
			}
		}
		if free {
			return candidate, true
		}
	}
	return Room{}, false
}

func (g *RoomGenerator) carveRoom(l *Layout, r Room) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			l.Grid[y][x] = Cell(r.ID)
		}
	}
	l.Rooms = append(l.Rooms, r)
	l.NextRoomID = r.ID + 1
}

// carveCorridor 随机先横后竖或先竖后横；只挖墙，不覆盖房间
func (g *RoomGenerator) carveCorridor(l *Layout, from, to Point) {
	if g.rnd.Intn(2) == 0 {
		carveH(l, from.X, to.X, from.Y)
		carveV(l, from.Y, to.Y, to.X)
	} else {
		carveV(l, from.Y, to.Y, from.X)
		carveH(l, from.X, to.X, to.Y)
	}
}

func carveH(l *Layout, x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		if l.Grid[y][x].IsWall() {
			l.Grid[y][x] = Corridor
		}
	}
}

func carveV(l *Layout, y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		if l.Grid[y][x].IsWall() {
			l.Grid[y][x] = Corridor
		}
	}
}
