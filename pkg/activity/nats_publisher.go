// 文件: pkg/activity/nats_publisher.go
// 浏览事件 NATS 发布器 (轻量级替代 Kafka)

package activity

import "rym.com/pkg/nats"

// 确保实现了接口
var _ ViewPublisher = (*NatsEventPublisher)(nil)

// NatsEventPublisher NATS 浏览事件发布器
type NatsEventPublisher struct {
	conn *nats.Conn
}

// NewNatsEventPublisher 创建 NATS 事件发布器
func NewNatsEventPublisher(natsURL string) (*NatsEventPublisher, error) {
	conn, err := nats.Dial(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsEventPublisher{conn: conn}, nil
}

// PublishView 发布浏览事件
func (p *NatsEventPublisher) PublishView(event *ViewEvent) error {
	return p.conn.PublishJSON(TopicViewEvents, event)
}

// Close 关闭发布器
func (p *NatsEventPublisher) Close() error {
	return p.conn.Close()
}
