package dungeon

import (
	"errors"
	"testing"
)

var referenceOptions = Options{Width: 20, Height: 20, Rooms: 7, RoomSize: 8}

// reachable 从 start 出发 BFS，返回可到达的非墙单元
func reachable(l *Layout, start Point) map[Point]bool {
	seen := map[Point]bool{start: true}
	queue := []Point{start}
	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range dirs {
			next := cur.Add(d[0], d[1])
			if seen[next] || !l.Walkable(next) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

func TestGenerateRoomIDsSequential(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		l, err := NewGenerator(seed).Generate(referenceOptions)
		if err != nil {
			t.Fatalf("seed=%d: unexpected error: %v", seed, err)
		}
		if len(l.Rooms) == 0 || len(l.Rooms) > referenceOptions.Rooms {
			t.Fatalf("seed=%d: expected 1..%d rooms, got %d", seed, referenceOptions.Rooms, len(l.Rooms))
		}
		for i, r := range l.Rooms {
			if r.ID != FirstRoomID+i {
				t.Fatalf("seed=%d: room %d has id %d, want %d", seed, i, r.ID, FirstRoomID+i)
			}
			if !r.Contains(r.Center()) {
				t.Fatalf("seed=%d: room %d center %+v outside room", seed, r.ID, r.Center())
			}
		}
		if last := l.Rooms[len(l.Rooms)-1]; l.NextRoomID != last.ID+1 {
			t.Fatalf("seed=%d: NextRoomID=%d, last room id=%d", seed, l.NextRoomID, last.ID)
		}
	}
}

func TestGenerateGridShape(t *testing.T) {
	l, err := NewGenerator(7).Generate(referenceOptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Grid) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(l.Grid))
	}
	for y, row := range l.Grid {
		if len(row) != 20 {
			t.Fatalf("row %d: expected 20 cells, got %d", y, len(row))
		}
	}
	// 外圈始终是墙
	for x := 0; x < l.Width; x++ {
		if !l.Grid[0][x].IsWall() || !l.Grid[l.Height-1][x].IsWall() {
			t.Fatalf("border column %d not wall", x)
		}
	}
	for y := 0; y < l.Height; y++ {
		if !l.Grid[y][0].IsWall() || !l.Grid[y][l.Width-1].IsWall() {
			t.Fatalf("border row %d not wall", y)
		}
	}
}

// TestGenerateAllCellsConnected 每个非墙单元都能从起点房间到达
func TestGenerateAllCellsConnected(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		l, err := NewGenerator(seed).Generate(referenceOptions)
		if err != nil {
			t.Fatalf("seed=%d: unexpected error: %v", seed, err)
		}
		first, _ := l.Room(FirstRoomID)
		last, _ := l.Room(l.NextRoomID - 1)
		seen := reachable(l, first.Center())
		if !seen[last.Center()] {
			t.Fatalf("seed=%d: end %+v unreachable from start %+v", seed, last.Center(), first.Center())
		}
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				p := Point{X: x, Y: y}
				if l.Walkable(p) && !seen[p] {
					t.Fatalf("seed=%d: walkable cell %+v is orphaned", seed, p)
				}
			}
		}
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	a, err := NewGenerator(42).Generate(referenceOptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewGenerator(42).Generate(referenceOptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for y := range a.Grid {
		for x := range a.Grid[y] {
			if a.Grid[y][x] != b.Grid[y][x] {
				t.Fatalf("grids differ at (%d,%d): %d vs %d", x, y, a.Grid[y][x], b.Grid[y][x])
			}
		}
	}
	if len(a.Rooms) != len(b.Rooms) {
		t.Fatalf("room counts differ: %d vs %d", len(a.Rooms), len(b.Rooms))
	}
}

func TestGenerateRejectsInvalidOptions(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"zero width", Options{Width: 0, Height: 20, Rooms: 7, RoomSize: 8}},
		{"negative rooms", Options{Width: 20, Height: 20, Rooms: -1, RoomSize: 8}},
		{"zero room size", Options{Width: 20, Height: 20, Rooms: 7, RoomSize: 0}},
		{"too small grid", Options{Width: 2, Height: 2, Rooms: 1, RoomSize: 1}},
		{"rooms do not fit", Options{Width: 5, Height: 5, Rooms: 1, RoomSize: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerator(1).Generate(tc.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestGenerateSmallestGrid(t *testing.T) {
	l, err := NewGenerator(3).Generate(Options{Width: 3, Height: 3, Rooms: 4, RoomSize: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Rooms) != 1 {
		t.Fatalf("expected exactly 1 room in a 3x3 grid, got %d", len(l.Rooms))
	}
	if got := l.Grid[1][1]; got != Cell(FirstRoomID) {
		t.Fatalf("expected center cell to be room %d, got %d", FirstRoomID, got)
	}
}
