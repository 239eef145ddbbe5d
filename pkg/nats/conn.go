// 文件: pkg/nats/conn.go
// NATS 连接封装: 发布 + 队列订阅走同一个连接
// 轻量级替代 Kafka，本地开发不起 broker 集群时用

package nats

import (
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// Handler 订阅消息处理函数; 返回错误只记日志，消息不重投
type Handler func(data []byte) error

// Conn NATS 连接
type Conn struct {
	nc *nats.Conn
}

// Dial 建立连接，断线后无限重连
func Dial(url string) (*Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("rym"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[nats] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("[nats] reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Conn{nc: nc}, nil
}

// PublishJSON 序列化并发布
func (c *Conn) PublishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	return c.nc.Publish(subject, data)
}

// QueueHandle 队列订阅; 同队列名的实例之间负载均衡
func (c *Conn) QueueHandle(subject, queue string, fn Handler) error {
	_, err := c.nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if err := fn(msg.Data); err != nil {
			log.Printf("[nats] handle error: subject=%s, err=%v", msg.Subject, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Close 排空在途消息后关闭
func (c *Conn) Close() error {
	return c.nc.Drain()
}
