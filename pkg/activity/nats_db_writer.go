// 文件: pkg/activity/nats_db_writer.go
// 浏览事件 NATS 写入器
//
// 监听 NATS 浏览事件，逐条原子 upsert。
// 本地开发量小，不做批量缓冲

package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"rym.com/pkg/nats"
)

// natsWriterQueue 队列名，多实例间负载均衡
const natsWriterQueue = "activity-db-writer"

// NatsDBWriter NATS 浏览事件写入器
type NatsDBWriter struct {
	repo ActivityRepository
	conn *nats.Conn

	stats struct {
		ReceivedCount int64
		WrittenCount  int64
		ErrorCount    int64
	}
	mu sync.Mutex
}

// NewNatsDBWriter 创建 NATS 写入器
func NewNatsDBWriter(repo ActivityRepository, natsURL string) (*NatsDBWriter, error) {
	conn, err := nats.Dial(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsDBWriter{repo: repo, conn: conn}, nil
}

// Start 启动监听
func (w *NatsDBWriter) Start() error {
	return w.conn.QueueHandle(TopicViewEvents, natsWriterQueue, w.handle)
}

// Stop 停止
func (w *NatsDBWriter) Stop() error {
	return w.conn.Close()
}

// handle 处理单条事件
func (w *NatsDBWriter) handle(data []byte) error {
	var event ViewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.addStat(func() { w.stats.ErrorCount++ })
		return fmt.Errorf("unmarshal view event: %w", err)
	}
	w.addStat(func() { w.stats.ReceivedCount++ })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.repo.UpsertView(ctx, event.UserID, event.AlbumID, event.Genres, 1); err != nil {
		w.addStat(func() { w.stats.ErrorCount++ })
		return err
	}

	w.addStat(func() { w.stats.WrittenCount++ })
	return nil
}

func (w *NatsDBWriter) addStat(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}
