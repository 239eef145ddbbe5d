// 文件: pkg/activity/repository.go
package activity

import "context"

type ActivityRepository interface {
	// 原子 upsert: 不存在则插入 (计数=n)，存在则两个计数各 +n
	UpsertView(ctx context.Context, userID, albumID int64, genreSnapshot string, n int64) error

	// 查询
	GetCounter(ctx context.Context, userID, albumID int64) (*UserAlbumLog, error)
	History(ctx context.Context, userID int64, page, pageSize int) (*HistoryPage, error)
}
