package dungeon

// Cell 网格单元：0 为墙，1 为走廊，>=2 为对应编号的房间
type Cell int

const (
	Wall     Cell = 0
	Corridor Cell = 1

	// FirstRoomID 第一个生成房间的编号
	FirstRoomID = 2
)

// IsWall 是否为墙（不可通行）
func (c Cell) IsWall() bool { return c == Wall }

// RoomID 返回房间编号，非房间单元返回 0
func (c Cell) RoomID() int {
	if c >= FirstRoomID {
		return int(c)
	}
	return 0
}

// Point 网格坐标，x 为列，y 为行
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add 按偏移量平移
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Room 生成的矩形房间
type Room struct {
	ID int `json:"id"`
	W  int `json:"w"`
	H  int `json:"h"`
	X  int `json:"x"`
	Y  int `json:"y"`
	CX int `json:"cx"`
	CY int `json:"cy"`
}

// NewRoom 由左上角与尺寸构造房间，中心点向下取整
func NewRoom(id, x, y, w, h int) Room {
	return Room{ID: id, X: x, Y: y, W: w, H: h, CX: x + w/2, CY: y + h/2}
}

// Center 房间中心点
func (r Room) Center() Point { return Point{X: r.CX, Y: r.CY} }

// Contains 点是否在房间内
func (r Room) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// overlaps 两个房间在扩展 margin 格后是否相交
func (r Room) overlaps(o Room, margin int) bool {
	return r.X-margin < o.X+o.W && o.X < r.X+r.W+margin &&
		r.Y-margin < o.Y+o.H && o.Y < r.Y+r.H+margin
}

// Layout 生成器的原始输出：网格、房间列表与下一个房间编号
type Layout struct {
	Width      int
	Height     int
	Grid       [][]Cell // [y][x]
	Rooms      []Room   // 按生成顺序
	RoomSize   int      // 生成时使用的平均房间尺寸
	NextRoomID int      // 最后一个房间编号 + 1
}

// NewLayout 创建全部为墙的网格
func NewLayout(width, height int) *Layout {
	grid := make([][]Cell, height)
	for y := range grid {
		grid[y] = make([]Cell, width)
	}
	return &Layout{Width: width, Height: height, Grid: grid, NextRoomID: FirstRoomID}
}

// InBounds 点是否在网格内
func (l *Layout) InBounds(p Point) bool {
	return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height
}

// At 返回单元类型，越界视为墙
func (l *Layout) At(p Point) Cell {
	if !l.InBounds(p) {
		return Wall
	}
	return l.Grid[p.Y][p.X]
}

// Walkable 点在界内且不是墙
func (l *Layout) Walkable(p Point) bool {
	return !l.At(p).IsWall()
}

// Room 按编号查找房间
func (l *Layout) Room(id int) (Room, bool) {
	for _, r := range l.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}
