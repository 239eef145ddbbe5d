// 文件: pkg/feed/service.go
// Feed 服务 - Cache Aside 编排
//
// 【缓存策略】
// - Key: {visitor_id}_{page}，每页独立条目，互不失效
// - 命中: 原样返回缓存载荷 (不看剩余 TTL)
// - 未命中: 解析偏好 -> 构造流派谓词 -> 随机采样 -> 序列化
//   -> SET EX fresh_minutes*60 -> 返回
// - 采样失败显式报错，绝不缓存失败结果
// - 缓存不可用当作强制未命中，降级为每次重算
//
// 【一致性/新鲜度】
// 载荷写入后只会整体替换，不做局部修改; 用户感知的 "随机刷新"
// 节奏就是 TTL 本身。并发未命中会各查各写 (last writer wins)，
// 这是接受的冗余，不是正确性问题，所以没有 single-flight。

package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"rym.com/pkg/catalog"
)

// ErrFeedUnavailable 目录查询失败，Feed 暂不可用
var ErrFeedUnavailable = errors.New("feed: catalog query failed")

// DefaultPageSize 每页专辑数
const DefaultPageSize = 40

// Sampler 随机采样 (由 catalog 包实现)
type Sampler interface {
	SampleAlbums(ctx context.Context, genrePattern string, limit int) ([]catalog.AlbumSummary, error)
}

// Service Feed 服务
type Service struct {
	cache    *redis.Client
	sampler  Sampler
	resolver *Resolver
	pageSize int

	// 统计
	hits        atomic.Int64
	misses      atomic.Int64
	cacheErrors atomic.Int64
}

// NewService 创建 Feed 服务
func NewService(cache *redis.Client, sampler Sampler, resolver *Resolver, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		cache:    cache,
		sampler:  sampler,
		resolver: resolver,
		pageSize: pageSize,
	}
}

// CacheKey 构造缓存 key: visitor_id + "_" + page
func CacheKey(visitorID string, page int) string {
	return visitorID + "_" + strconv.Itoa(page)
}

// GetFeed 取一页个性化 Feed
//
// 返回序列化好的 JSON 载荷: 命中时是缓存里的原始字节，
// 未命中时是刚采样并写入缓存的同一份字节，两者逐字节一致。
func (s *Service) GetFeed(ctx context.Context, visitorID string, page int, snap *Snapshot) ([]byte, error) {
	if page < 1 {
		page = 1
	}
	key := CacheKey(visitorID, page)

	// 1. 查缓存
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err == nil {
		s.hits.Add(1)
		return payload, nil
	}
	if !errors.Is(err, redis.Nil) {
		// 缓存不可用: 强制未命中，继续走目录
		s.cacheErrors.Add(1)
		log.Printf("[feed] cache get failed, fall through to catalog: %v", err)
	}
	s.misses.Add(1)

	// 2. 解析偏好
	pref := s.resolver.Resolve(ctx, snap, visitorID)

	// 3. 流派谓词 (过滤集为空则不过滤)
	var pattern string
	if pref.GenreData != "" {
		pattern, err = catalog.BuildGenrePattern(pref.GenreData)
		if err != nil {
			// 过滤集拆完全是空项: 降级为不过滤
			log.Printf("[feed] unusable genre filter %q, serving unfiltered: %v", pref.GenreData, err)
			pattern = ""
		}
	}

	// 4. 随机采样
	albums, err := s.sampler.SampleAlbums(ctx, pattern, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	if albums == nil {
		albums = []catalog.AlbumSummary{}
	}

	// 5. 序列化并回填
	data, err := json.Marshal(albums)
	if err != nil {
		return nil, fmt.Errorf("feed: marshal payload: %w", err)
	}

	ttl := time.Duration(pref.FreshMinutes) * time.Minute
	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		// 写缓存失败只影响下次命中率，不影响本次结果
		s.cacheErrors.Add(1)
		log.Printf("[feed] cache set failed: key=%s, err=%v", key, err)
	}

	return data, nil
}

// PageSize 当前页大小
func (s *Service) PageSize() int {
	return s.pageSize
}

// =============================================================================
// 统计
// =============================================================================

// Stats Feed 统计
type Stats struct {
	Hits        int64
	Misses      int64
	CacheErrors int64
}

// Stats 获取统计
func (s *Service) Stats() Stats {
	return Stats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		CacheErrors: s.cacheErrors.Load(),
	}
}
