// 文件: pkg/kafka/consumer.go
// Kafka 消费者组 (浏览事件管道用)
//
// 单条消息处理失败只记日志并继续，offset 照常提交:
// 计数是尽力而为的统计，不值得为一条坏消息卡住分区

package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/IBM/sarama"
)

// Handler 消费处理函数
type Handler func(key, value []byte) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	FromOldest bool // true 则新消费组从头读
}

// DefaultConsumerConfig 默认配置
func DefaultConsumerConfig(brokers []string, groupID string, topics []string) ConsumerConfig {
	return ConsumerConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topics:  topics,
	}
}

func (cfg ConsumerConfig) sarama() *sarama.Config {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	sc.Consumer.Offsets.AutoCommit.Enable = true
	if cfg.FromOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	return sc
}

// Consumer 消费者组成员; 自身实现 sarama.ConsumerGroupHandler
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ sarama.ConsumerGroupHandler = (*Consumer)(nil)

// NewConsumer 创建消费者
func NewConsumer(cfg ConsumerConfig, handler Handler) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, cfg.sarama())
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		group:   group,
		topics:  cfg.Topics,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start 启动消费循环; rebalance 后 Consume 返回，循环重进
func (c *Consumer) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for c.ctx.Err() == nil {
			if err := c.group.Consume(c.ctx, c.topics, c); err != nil {
				log.Printf("[kafka] consume error: %v", err)
			}
		}
	}()
}

// Stop 停止消费
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.group.Close()
}

// Setup sarama.ConsumerGroupHandler
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error { return nil }

// Cleanup sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim sarama.ConsumerGroupHandler
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.handler(msg.Key, msg.Value); err != nil {
			log.Printf("[kafka] handle error: topic=%s, offset=%d, err=%v", msg.Topic, msg.Offset, err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
