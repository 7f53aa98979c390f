package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dungeonrace/config"
	"dungeonrace/dungeon"
	"dungeonrace/hiscore"
	"dungeonrace/server"
)

// 入口：加载配置，连接排行榜存储，生成首个地牢，启动 HTTP + WebSocket 服务
func main() {
	cfg := config.Load()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8081")
	flag.Parse()

	// zap 日志写入文件（带滚动）并输出到控制台
	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()
	log := server.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)
	board := hiscore.NewLeaderboard(store, log.Named("hiscore"), hiscore.WithRefreshInterval(cfg.HiscoreRefresh))
	if records, err := board.Load(ctx); err != nil {
		// 存储暂不可用不阻止启动，排行榜先为空
		log.Errorw("initial hiscore load failed", "error", err)
	} else {
		log.Infow("hiscores loaded", "count", len(records))
	}
	boardDone := make(chan struct{})
	go func() {
		board.Run(ctx)
		close(boardDone)
	}()

	game, err := server.NewGameServer(&server.Config{
		Generator: dungeon.NewGenerator(cfg.DungeonSeed),
		Dungeon: dungeon.Options{
			Width:    cfg.DungeonWidth,
			Height:   cfg.DungeonHeight,
			Rooms:    cfg.DungeonRooms,
			RoomSize: cfg.DungeonRoomSize,
		},
		Leaderboard: board,
	})
	if err != nil {
		// 配置错误：不能带着坏地牢接受连接
		log.Fatalw("invalid dungeon configuration", "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", game.HandleWS)
	// 静态资源：浏览器客户端
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", game.HandleAdminConfig)
	mux.HandleFunc("/metrics", game.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Infof("Dungeon server listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	<-boardDone
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// openStore 配置了 MYSQL_ADDR 时使用 MySQL，否则使用内存存储
func openStore(ctx context.Context, cfg config.Config) hiscore.Store {
	log := server.Log
	if cfg.MySQLAddr == "" {
		log.Warn("MYSQL_ADDR not set, hiscores are kept in memory only")
		return hiscore.NewMemoryStore()
	}

	store, err := hiscore.OpenMySQL(hiscore.MySQLConfig{
		Addr:     cfg.MySQLAddr,
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Database: cfg.MySQLDatabase,
	})
	if err != nil {
		// DSN 非法属于配置错误
		log.Fatalw("open hiscore store", "error", err)
	}
	// 数据库暂不可达不阻止启动：排行榜先为空，恢复后由下一次写入或定期刷新补上
	if err := store.Ping(ctx); err != nil {
		log.Warnw("hiscore store unreachable, continuing with an empty leaderboard", "addr", cfg.MySQLAddr, "error", err)
		return store
	}
	if cfg.HiscoreMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			log.Errorw("prepare hiscore schema", "error", err)
		}
	}
	return store
}
