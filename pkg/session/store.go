// 文件: pkg/session/store.go
// Redis 会话存储
//
// 会话里只放身份和偏好快照，请求进来时取一次，
// 作为请求级快照显式传给下游，不做进程内共享状态。
// 登录和偏好变更时写入，其余时间只读。

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL 会话有效期
const DefaultTTL = 7 * 24 * time.Hour

// Data 会话数据
type Data struct {
	UserID       int64  `json:"user_id"`
	GenreData    string `json:"genre_data"`
	FreshMinutes int    `json:"fresh_minutes"`
}

// Store Redis 会话存储
type Store struct {
	client *redis.Client
	ttl    time.Duration
	node   *snowflake.Node
}

// NewStore 创建会话存储
func NewStore(client *redis.Client, ttl time.Duration, node *snowflake.Node) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, node: node}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create 创建会话，返回会话 token
func (s *Store) Create(ctx context.Context, data Data) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	token := s.node.Generate().String()
	if err := s.client.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: store: %w", err)
	}
	return token, nil
}

// Get 取会话数据; 不存在或已过期返回 nil
func (s *Store) Get(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &data, nil
}

// Update 覆写会话数据 (偏好变更后刷新快照)，TTL 重新计时
func (s *Store) Update(ctx context.Context, token string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: update: %w", err)
	}
	return nil
}

// Destroy 销毁会话 (登出)
func (s *Store) Destroy(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// NewVisitorID 给没带 client_id 的设备发一个
// 客户端持久化后续一直带着，缓存命名空间才稳定
func (s *Store) NewVisitorID() string {
	return s.node.Generate().String()
}
