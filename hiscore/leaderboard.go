package hiscore

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize    = 64
	defaultStoreTimeout = 5 * time.Second
)

// Leaderboard 排行榜缓存：读走内存，写经后台协程落库后整体刷新
type Leaderboard struct {
	store   Store
	log     *zap.SugaredLogger
	timeout time.Duration
	refresh time.Duration

	mu       sync.RWMutex
	records  []Record
	next     int // 下一个预留的 entryId
	onChange func([]Record)

	jobs chan Record
}

// Option 排行榜可选配置
type Option func(*Leaderboard)

// WithRefreshInterval 定期从存储重新加载，0 表示关闭
func WithRefreshInterval(d time.Duration) Option {
	return func(l *Leaderboard) { l.refresh = d }
}

// WithQueueSize 待写队列容量
func WithQueueSize(n int) Option {
	return func(l *Leaderboard) { l.jobs = make(chan Record, n) }
}

// WithStoreTimeout 单次存储调用的超时
func WithStoreTimeout(d time.Duration) Option {
	return func(l *Leaderboard) { l.timeout = d }
}

func NewLeaderboard(store Store, log *zap.SugaredLogger, opts ...Option) *Leaderboard {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	l := &Leaderboard{
		store:   store,
		log:     log,
		timeout: defaultStoreTimeout,
		jobs:    make(chan Record, defaultQueueSize),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// OnChange 缓存内容变化后回调（在后台协程中执行）
func (l *Leaderboard) OnChange(fn func([]Record)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Load 从存储读取全部记录并整体替换缓存；失败时缓存保持不变
func (l *Leaderboard) Load(ctx context.Context) ([]Record, error) {
	records, err := l.store.All(ctx)
	if err != nil {
		return nil, err
	}
	l.replace(records)
	return slices.Clone(records), nil
}

// Snapshot 当前缓存副本
func (l *Leaderboard) Snapshot() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Len 缓存条数
func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Record 预留 entryId 并排队异步写入，不阻塞调用方。
// entryId 等于写入时的缓存长度；前一条尚未落库时顺延。
func (l *Leaderboard) Record(username, timeTaken string) Record {
	l.mu.Lock()
	r := Record{Username: username, TimeTaken: timeTaken, ID: max(l.next, len(l.records))}
	l.next = r.ID + 1
	l.mu.Unlock()

	select {
	case l.jobs <- r:
	default:
		l.log.Warnw("hiscore queue full, dropping record", "username", r.Username, "timeTaken", r.TimeTaken, "id", r.ID)
	}
	return r
}

// Run 后台写入协程：串行处理写入与定期刷新，ctx 结束时写完剩余队列后返回
func (l *Leaderboard) Run(ctx context.Context) {
	var tick <-chan time.Time
	if l.refresh > 0 {
		ticker := time.NewTicker(l.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			l.drain()
			return
		case r := <-l.jobs:
			l.write(r)
		case <-tick:
			l.reload()
		}
	}
}

func (l *Leaderboard) drain() {
	for {
		select {
		case r := <-l.jobs:
			l.write(r)
		default:
			return
		}
	}
}

func (l *Leaderboard) write(r Record) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.store.Insert(ctx, r); err != nil {
		l.log.Errorw("hiscore insert failed", "id", r.ID, "username", r.Username, "error", err)
		return
	}
	l.log.Infow("hiscore added", "id", r.ID, "username", r.Username, "timeTaken", r.TimeTaken)
	l.reload()
}

func (l *Leaderboard) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	records, err := l.store.All(ctx)
	if err != nil {
		l.log.Errorw("hiscore reload failed, keeping cached records", "error", err)
		return
	}
	if !l.replace(records) {
		return
	}
	l.mu.RLock()
	fn := l.onChange
	l.mu.RUnlock()
	if fn != nil {
		fn(slices.Clone(records))
	}
}

// replace 整体替换缓存，返回内容是否变化
func (l *Leaderboard) replace(records []Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := !slices.Equal(l.records, records)
	l.records = records
	l.next = max(l.next, len(records))
	return changed
}
