package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供地牢生成参数的读取与更新，新参数在下一次生成时生效
// GET /admin/config   返回当前配置
// POST /admin/config  以 JSON 载荷更新部分字段；"regenerate": true 立即换图
func (g *GameServer) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		Width      *int  `json:"width,omitempty"`
		Height     *int  `json:"height,omitempty"`
		Rooms      *int  `json:"rooms,omitempty"`
		RoomSize   *int  `json:"roomSize,omitempty"`
		Regenerate *bool `json:"regenerate,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, g.Options())
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		opts := g.Options()
		if body.Width != nil {
			opts.Width = *body.Width
		}
		if body.Height != nil {
			opts.Height = *body.Height
		}
		if body.Rooms != nil {
			opts.Rooms = *body.Rooms
		}
		if body.RoomSize != nil {
			opts.RoomSize = *body.RoomSize
		}
		if err := g.SetOptions(opts); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.Regenerate != nil && *body.Regenerate {
			g.Regenerate()
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "options": opts})
		Log.Infow("config updated", "width", opts.Width, "height", opts.Height, "rooms", opts.Rooms, "roomSize", opts.RoomSize)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (g *GameServer) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	s := g.Session()
	payload := map[string]any{
		"players":         len(g.Players()),
		"hiscores":        g.board.Len(),
		"session_created": s.CreatedAt,
		"rooms":           len(s.Rooms),
		"metrics":         g.metrics.Snapshot(),
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
