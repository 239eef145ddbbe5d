// 文件: pkg/feed/service_test.go
// Feed 服务 - 集成测试 (需要本地 Redis)

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"rym.com/pkg/catalog"
)

// setupRedis 初始化 Redis 连接并清空测试数据
func setupRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   9, // 测试库
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skipping test; redis not available: %v", err)
	}
	rdb.FlushDB(context.Background())
	return rdb
}

// fakeSampler 采样假实现
type fakeSampler struct {
	albums      []catalog.AlbumSummary
	err         error
	calls       int
	lastPattern string
	lastLimit   int
}

func (f *fakeSampler) SampleAlbums(ctx context.Context, genrePattern string, limit int) ([]catalog.AlbumSummary, error) {
	f.calls++
	f.lastPattern = genrePattern
	f.lastLimit = limit
	return f.albums, f.err
}

func somePage(start int) []catalog.AlbumSummary {
	page := make([]catalog.AlbumSummary, 0, 3)
	for i := start; i < start+3; i++ {
		page = append(page, catalog.AlbumSummary{
			ID:    int64(i),
			Name:  "album",
			Cover: "https://cdn.example.com/c.jpg",
		})
	}
	return page
}

func TestCacheKey(t *testing.T) {
	require.Equal(t, "abc_1", CacheKey("abc", 1))
	require.Equal(t, "device-7_12", CacheKey("device-7", 12))
}

// 命中稳定性: TTL 窗口内两次调用返回逐字节一致的载荷，
// 且目录只被查询一次
func TestService_GetFeed_HitStability(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)

	first, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)

	// 底层数据变了，但缓存没过期
	sampler.albums = somePage(100)

	second, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	require.Equal(t, first, second, "payload must be byte-identical within the TTL window")
	require.Equal(t, 1, sampler.calls)

	stats := svc.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}

// 不同页号是独立的缓存条目
func TestService_GetFeed_PerPageEntries(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)

	_, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	_, err = svc.GetFeed(ctx, "abc", 2, nil)
	require.NoError(t, err)

	require.Equal(t, 2, sampler.calls)
	require.Equal(t, int64(1), rdb.Exists(ctx, "abc_1").Val())
	require.Equal(t, int64(1), rdb.Exists(ctx, "abc_2").Val())
}

// TTL 精确等于 fresh_minutes * 60 秒
func TestService_GetFeed_TTL(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{}), 40)

	snap := &Snapshot{UserID: 7, GenreData: "", FreshMinutes: 3}
	_, err := svc.GetFeed(ctx, "abc", 1, snap)
	require.NoError(t, err)

	ttl, err := rdb.TTL(ctx, "abc_1").Result()
	require.NoError(t, err)
	require.InDelta(t, 180, ttl.Seconds(), 2)
}

// 匿名访客默认 10 分钟
func TestService_GetFeed_AnonymousTTL(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)

	_, err := svc.GetFeed(ctx, "anon-device", 1, nil)
	require.NoError(t, err)

	ttl, err := rdb.TTL(ctx, "anon-device_1").Result()
	require.NoError(t, err)
	require.InDelta(t, 600, ttl.Seconds(), 2)
}

// 流派偏好被展开成锚定交替式传给采样器
func TestService_GetFeed_GenrePattern(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{}), 40)

	snap := &Snapshot{UserID: 7, GenreData: "rock,jazz", FreshMinutes: 10}
	_, err := svc.GetFeed(ctx, "abc", 1, snap)
	require.NoError(t, err)

	require.Equal(t, "^(rock|jazz)", sampler.lastPattern)
	require.Equal(t, 40, sampler.lastLimit)
}

// 过滤集拆完只剩空项 (如 " , "): 降级为不过滤，照常出 Feed
func TestService_GetFeed_BlankGenreFilterDegrades(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{}), 40)

	snap := &Snapshot{UserID: 7, GenreData: " , ", FreshMinutes: 10}
	payload, err := svc.GetFeed(ctx, "abc", 1, snap)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.Equal(t, "", sampler.lastPattern, "blank filter falls back to unfiltered sampling")
}

// 采样失败: 报错且绝不缓存
func TestService_GetFeed_SamplerFailureNotCached(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{err: errors.New("mysql gone away")}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)

	_, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.ErrorIs(t, err, ErrFeedUnavailable)
	require.Equal(t, int64(0), rdb.Exists(ctx, "abc_1").Val())

	// 恢复后下一次未命中正常回填
	sampler.err = nil
	sampler.albums = somePage(1)
	payload, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}

// 缓存不可用: 降级为每次重算，不影响结果
func TestService_GetFeed_CacheDownDegrades(t *testing.T) {
	dead := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	sampler := &fakeSampler{albums: somePage(1)}
	svc := NewService(dead, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)
	ctx := context.Background()

	first, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	_, err = svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	require.Equal(t, 2, sampler.calls, "every call recomputes while the cache is down")
	require.Greater(t, svc.Stats().CacheErrors, int64(0))
}

// 空结果序列化为空数组，不是 null
func TestService_GetFeed_EmptyResult(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	sampler := &fakeSampler{albums: nil}
	svc := NewService(rdb, sampler, NewResolver(&fakeProfiles{err: errors.New("no row")}), 40)

	payload, err := svc.GetFeed(ctx, "abc", 1, nil)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(payload))
}
