// 文件: pkg/feed/resolver.go
// 偏好解析器
//
// 解析顺序 (先命中先用):
// 1. 会话快照 (登录时写入，本次请求随身携带，不查库)
// 2. 持久化档案 (按设备 client_id 反查用户)
// 3. 匿名默认值 (不过滤, 10 分钟)
//
// 纯读操作，任何失败都降级到匿名默认值: Feed 必须始终能出一个
// 不过滤的结果，而不是把档案查询错误抛给调用方。

package feed

import "context"

// DefaultFreshMinutes 匿名访客的刷新周期
const DefaultFreshMinutes = 10

// Preference 解析结果: 流派过滤集 + 刷新周期
type Preference struct {
	GenreData    string // 逗号分隔的流派 key，空 = 不过滤
	FreshMinutes int
}

// DefaultPreference 匿名默认偏好
func DefaultPreference() Preference {
	return Preference{GenreData: "", FreshMinutes: DefaultFreshMinutes}
}

// Snapshot 请求级会话快照
// 登录成功时由会话层写入，之后每个请求显式传进来，
// 不做进程内的隐式共享状态
type Snapshot struct {
	UserID       int64
	GenreData    string
	FreshMinutes int
}

// ProfileSource 持久化档案查询 (由 user 包实现)
type ProfileSource interface {
	PreferenceByClient(ctx context.Context, clientID string) (genreData string, freshMinutes int, err error)
}

// Resolver 偏好解析器
type Resolver struct {
	profiles ProfileSource
}

func NewResolver(profiles ProfileSource) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve 解析访客偏好
func (r *Resolver) Resolve(ctx context.Context, snap *Snapshot, visitorID string) Preference {
	if snap != nil {
		return normalize(snap.GenreData, snap.FreshMinutes)
	}

	genreData, freshMinutes, err := r.profiles.PreferenceByClient(ctx, visitorID)
	if err != nil {
		// 查询失败或无此档案: 匿名默认
		return DefaultPreference()
	}
	return normalize(genreData, freshMinutes)
}

// normalize 兜底不合法的刷新周期 (必须为正)
func normalize(genreData string, freshMinutes int) Preference {
	if freshMinutes <= 0 {
		freshMinutes = DefaultFreshMinutes
	}
	return Preference{GenreData: genreData, FreshMinutes: freshMinutes}
}
