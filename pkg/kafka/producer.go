// 文件: pkg/kafka/producer.go
// Kafka 生产者 (浏览事件管道用)
//
// 异步发送: 送入 Input 通道即返回，sarama 按批刷出;
// 发送失败只计数并记日志，不回压业务请求

package kafka

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

// ErrProducerClosed 生产者已关闭
var ErrProducerClosed = errors.New("kafka: producer closed")

// Message 可发布的消息
type Message interface {
	Topic() string          // 目标 topic
	Key() string            // 分区 key (同 key 保序)
	Value() ([]byte, error) // 序列化后的消息体
}

var codecs = map[string]sarama.CompressionCodec{
	"none":   sarama.CompressionNone,
	"gzip":   sarama.CompressionGZIP,
	"snappy": sarama.CompressionSnappy,
	"lz4":    sarama.CompressionLZ4,
	"zstd":   sarama.CompressionZSTD,
}

var ackModes = map[int]sarama.RequiredAcks{
	0:  sarama.NoResponse,
	1:  sarama.WaitForLocal,
	-1: sarama.WaitForAll,
}

// ProducerConfig 生产者配置
type ProducerConfig struct {
	Brokers       []string
	ClientID      string
	Acks          int    // 0=不等待, 1=leader, -1=全部
	Codec         string // none, gzip, snappy, lz4, zstd
	FlushInterval time.Duration
	FlushBatch    int
	Retries       int
}

// DefaultProducerConfig 默认配置: 浏览事件是小 JSON，批量攒着发
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:       brokers,
		ClientID:      "rym-producer",
		Acks:          1,
		Codec:         "lz4",
		FlushInterval: 200 * time.Millisecond,
		FlushBatch:    64,
		Retries:       5,
	}
}

func (cfg ProducerConfig) sarama() *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	if acks, ok := ackModes[cfg.Acks]; ok {
		sc.Producer.RequiredAcks = acks
	}
	if codec, ok := codecs[cfg.Codec]; ok {
		sc.Producer.Compression = codec
	}
	sc.Producer.Flush.Frequency = cfg.FlushInterval
	sc.Producer.Flush.Messages = cfg.FlushBatch
	sc.Producer.Retry.Max = cfg.Retries
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	return sc
}

// Producer Kafka 异步生产者
type Producer struct {
	ap sarama.AsyncProducer

	enqueued atomic.Int64
	failed   atomic.Int64

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewProducer 创建生产者
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	ap, err := sarama.NewAsyncProducer(cfg.Brokers, cfg.sarama())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{ap: ap}
	p.wg.Add(1)
	go p.drainErrors()
	return p, nil
}

// Send 异步发送，入队即返回
func (p *Producer) Send(msg Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	data, err := msg.Value()
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}

	p.ap.Input() <- &sarama.ProducerMessage{
		Topic: msg.Topic(),
		Key:   sarama.StringEncoder(msg.Key()),
		Value: sarama.ByteEncoder(data),
	}
	p.enqueued.Add(1)
	return nil
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for err := range p.ap.Errors() {
		p.failed.Add(1)
		log.Printf("[kafka] send error: topic=%s, err=%v", err.Msg.Topic, err.Err)
	}
}

// ProducerStats 统计信息
type ProducerStats struct {
	Enqueued int64
	Failed   int64
}

// Stats 获取统计信息
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Enqueued: p.enqueued.Load(),
		Failed:   p.failed.Load(),
	}
}

// Close 关闭生产者，等待在途消息刷出
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	err := p.ap.Close()
	p.wg.Wait()
	return err
}
