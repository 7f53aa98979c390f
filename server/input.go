package server

import (
	"encoding/json"
	"errors"

	"dungeonrace/dungeon"
	"dungeonrace/hiscore"
)

// 消息类型名，与浏览器客户端约定
const (
	MsgDungeonData    = "dungeon data"
	MsgHiscoreData    = "hiscore data"
	MsgPlayerData     = "player data"
	MsgMove           = "move"
	MsgUsernameUpdate = "username update"
)

var errBadFrame = errors.New("malformed frame")

// Envelope 所有 WebSocket 文本帧的外层结构
// 示例：{"type":"move","data":"up"}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DungeonPayload 地牢网格的线上格式
type DungeonPayload struct {
	Maze       [][]dungeon.Cell `json:"maze"`
	H          int              `json:"h"`
	W          int              `json:"w"`
	Rooms      []dungeon.Room   `json:"rooms"`
	RoomSize   int              `json:"roomSize"`
	LastRoomID int              `json:"_lastRoomId"`
}

// DungeonData "dungeon data" 消息体
type DungeonData struct {
	Dungeon       DungeonPayload `json:"dungeon"`
	StartingPoint dungeon.Point  `json:"startingPoint"`
	EndingPoint   dungeon.Point  `json:"endingPoint"`
}

func newDungeonData(s *dungeon.Session) DungeonData {
	return DungeonData{
		Dungeon: DungeonPayload{
			Maze:       s.Grid,
			H:          s.Height,
			W:          s.Width,
			Rooms:      s.Rooms,
			RoomSize:   s.RoomSize,
			LastRoomID: s.NextRoomID,
		},
		StartingPoint: s.Start,
		EndingPoint:   s.End,
	}
}

// Command 解析后的客户端请求
type Command struct {
	Type      string
	Direction Direction // MsgMove
	Name      string    // MsgUsernameUpdate
}

// encodeMessage 打包为 {"type":..., "data":...}
func encodeMessage(msgType string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

// decodeCommand 严格按类型解析入站帧；未知类型、非字符串载荷、非法方向都视为无效
func decodeCommand(payload []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Command{}, errBadFrame
	}
	var text string
	if err := json.Unmarshal(env.Data, &text); err != nil {
		return Command{}, errBadFrame
	}
	switch env.Type {
	case MsgMove:
		dir, ok := ParseDirection(text)
		if !ok {
			return Command{}, errBadFrame
		}
		return Command{Type: MsgMove, Direction: dir}, nil
	case MsgUsernameUpdate:
		return Command{Type: MsgUsernameUpdate, Name: text}, nil
	}
	return Command{}, errBadFrame
}

func hiscoreEntries(records []hiscore.Record) []hiscore.Record {
	if records == nil {
		return []hiscore.Record{}
	}
	return records
}
