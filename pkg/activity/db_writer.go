// 文件: pkg/activity/db_writer.go
// 浏览事件数据库写入器
//
// 消费 Kafka 浏览事件，批量落库:
// - 同批内按 (user_id, album_id) 聚合，一对键一条 upsert
// - 聚合后的增量 n 走同一条原子 upsert，语义和直写一致
// - 攒够一批或到刷新间隔触发写入

package activity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"rym.com/pkg/kafka"
)

// DBWriterConfig 配置
type DBWriterConfig struct {
	Brokers       []string
	GroupID       string
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultDBWriterConfig 默认配置
func DefaultDBWriterConfig(brokers []string) DBWriterConfig {
	return DBWriterConfig{
		Brokers:       brokers,
		GroupID:       "activity_db_writer",
		BatchSize:     100,
		FlushInterval: 500 * time.Millisecond,
	}
}

// DBWriterStats 写入统计
type DBWriterStats struct {
	ReceivedCount int64
	WrittenCount  int64
	ErrorCount    int64
	BatchCount    int64
}

// DBWriter 浏览事件写入器
//
// 消费回调只做反序列化和入队，攒批和落库都在 run 协程里，
// 通道满时回压到消费者
type DBWriter struct {
	repo     ActivityRepository
	consumer *kafka.Consumer

	incoming  chan *ViewEvent
	batchSize int

	received atomic.Int64
	written  atomic.Int64
	errors   atomic.Int64
	batches  atomic.Int64

	done chan struct{}
	wg   sync.WaitGroup
}

// NewDBWriter 创建写入器
func NewDBWriter(cfg DBWriterConfig, repo ActivityRepository) (*DBWriter, error) {
	w := &DBWriter{
		repo:      repo,
		incoming:  make(chan *ViewEvent, cfg.BatchSize*2),
		batchSize: cfg.BatchSize,
		done:      make(chan struct{}),
	}

	consumer, err := kafka.NewConsumer(
		kafka.DefaultConsumerConfig(cfg.Brokers, cfg.GroupID, []string{TopicViewEvents}),
		w.handleMessage,
	)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	w.consumer = consumer

	return w, nil
}

// handleMessage 反序列化并入队
func (w *DBWriter) handleMessage(key, value []byte) error {
	var event ViewEvent
	if err := json.Unmarshal(value, &event); err != nil {
		w.errors.Add(1)
		return fmt.Errorf("unmarshal view event: %w", err)
	}
	w.received.Add(1)

	select {
	case w.incoming <- &event:
	case <-w.done:
	}
	return nil
}

// run 攒批循环
func (w *DBWriter) run(flushInterval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	pending := make([]*ViewEvent, 0, w.batchSize)
	for {
		select {
		case ev := <-w.incoming:
			pending = append(pending, ev)
			if len(pending) >= w.batchSize {
				w.writeBatch(pending)
				pending = pending[:0]
			}
		case <-ticker.C:
			if len(pending) > 0 {
				w.writeBatch(pending)
				pending = pending[:0]
			}
		case <-w.done:
			// 清空通道里剩下的再收尾
			for {
				select {
				case ev := <-w.incoming:
					pending = append(pending, ev)
				default:
					if len(pending) > 0 {
						w.writeBatch(pending)
					}
					return
				}
			}
		}
	}
}

// writeBatch 聚合一批事件并逐键 upsert
func (w *DBWriter) writeBatch(events []*ViewEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, agg := range aggregateViews(events) {
		if err := w.repo.UpsertView(ctx, agg.UserID, agg.AlbumID, agg.Genres, agg.Count); err != nil {
			w.errors.Add(1)
			log.Printf("[activity] batch upsert error: user=%d, album=%d, err=%v", agg.UserID, agg.AlbumID, err)
		}
	}

	w.written.Add(int64(len(events)))
	w.batches.Add(1)
}

// viewAggregate 同批内同键事件的聚合
type viewAggregate struct {
	UserID  int64
	AlbumID int64
	Genres  string // 第一条事件的快照
	Count   int64
}

// aggregateViews 按 (user_id, album_id) 聚合，保持首次出现的顺序
func aggregateViews(events []*ViewEvent) []*viewAggregate {
	type viewKey struct {
		UserID  int64
		AlbumID int64
	}

	index := make(map[viewKey]*viewAggregate, len(events))
	ordered := make([]*viewAggregate, 0, len(events))

	for _, e := range events {
		k := viewKey{UserID: e.UserID, AlbumID: e.AlbumID}
		if agg, ok := index[k]; ok {
			agg.Count++
			continue
		}
		agg := &viewAggregate{
			UserID:  e.UserID,
			AlbumID: e.AlbumID,
			Genres:  e.Genres,
			Count:   1,
		}
		index[k] = agg
		ordered = append(ordered, agg)
	}
	return ordered
}

// Start 启动写入器
func (w *DBWriter) Start(flushInterval time.Duration) {
	w.consumer.Start()
	w.wg.Add(1)
	go w.run(flushInterval)
}

// Stop 停止写入器: 先停消费，再清空缓冲
func (w *DBWriter) Stop() error {
	err := w.consumer.Stop()
	close(w.done)
	w.wg.Wait()
	return err
}

// Stats 获取统计
func (w *DBWriter) Stats() DBWriterStats {
	return DBWriterStats{
		ReceivedCount: w.received.Load(),
		WrittenCount:  w.written.Load(),
		ErrorCount:    w.errors.Load(),
		BatchCount:    w.batches.Load(),
	}
}
