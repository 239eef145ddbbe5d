// 文件: pkg/activity/publisher.go
// 浏览事件 Kafka 发布

package activity

import (
	"strconv"

	"github.com/goccy/go-json"

	"rym.com/pkg/kafka"
)

// ViewEvent 实现 kafka.Message: topic 固定，
// 分区键取 UserID，同一用户的事件落同一分区保序
func (e *ViewEvent) Topic() string { return TopicViewEvents }

func (e *ViewEvent) Key() string { return strconv.FormatInt(e.UserID, 10) }

func (e *ViewEvent) Value() ([]byte, error) { return json.Marshal(e) }

// 确保实现了接口
var _ ViewPublisher = (*EventPublisher)(nil)

// EventPublisher 把浏览事件送进 Kafka 管道
type EventPublisher struct {
	producer *kafka.Producer
}

// NewEventPublisher 创建发布器
func NewEventPublisher(brokers []string) (*EventPublisher, error) {
	cfg := kafka.DefaultProducerConfig(brokers)
	cfg.ClientID = "rym-activity"
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{producer: producer}, nil
}

// PublishView 异步发布，入队即返回
func (p *EventPublisher) PublishView(event *ViewEvent) error {
	return p.producer.Send(event)
}

// Stats 透出底层生产者统计
func (p *EventPublisher) Stats() kafka.ProducerStats {
	return p.producer.Stats()
}

// Close 关闭发布器，等待在途事件刷出
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
