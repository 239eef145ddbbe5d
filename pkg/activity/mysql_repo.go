// 文件: pkg/activity/mysql_repo.go
// 互动计数 MySQL 存储实现
//
// 【并发】
// 计数更新必须是单条原子 upsert (INSERT ... ON DUPLICATE KEY UPDATE)。
// 先查后写的两步式在同用户同专辑并发浏览时会丢增量，
// 这里用 GORM 的 OnConflict + gorm.Expr 一条语句完成，
// 并发 N 次浏览落库后计数恰好为 N。

package activity

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 确保实现了接口
var _ ActivityRepository = (*MySQLActivityRepository)(nil)

// ErrCounterNotFound 计数行不存在
var ErrCounterNotFound = errors.New("activity: counter not found")

// MySQLActivityRepository MySQL 实现
type MySQLActivityRepository struct {
	db *gorm.DB
}

func NewMySQLActivityRepository(db *gorm.DB) *MySQLActivityRepository {
	return &MySQLActivityRepository{db: db}
}

// UpsertView 原子插入或累加计数
// genreSnapshot 只在首次插入时生效，冲突路径不会覆盖已有快照
func (r *MySQLActivityRepository) UpsertView(ctx context.Context, userID, albumID int64, genreSnapshot string, n int64) error {
	if n <= 0 {
		return nil
	}
	now := time.Now().UnixMilli()

	record := &UserAlbumLog{
		UserID:      userID,
		AlbumID:     albumID,
		AlbumGenre:  genreSnapshot,
		ClickCount:  n,
		ListenCount: n,
		CreateTime:  now,
		UpdateTime:  now,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "album_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"click_count":  gorm.Expr("click_count + ?", n),
				"listen_count": gorm.Expr("listen_count + ?", n),
				"update_time":  now,
			}),
		}).
		Create(record).Error
}

// GetCounter 查询计数行
func (r *MySQLActivityRepository) GetCounter(ctx context.Context, userID, albumID int64) (*UserAlbumLog, error) {
	var record UserAlbumLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCounterNotFound
		}
		return nil, err
	}
	return &record, nil
}

// History 浏览历史 (最近浏览在前，分页带总数)
func (r *MySQLActivityRepository) History(ctx context.Context, userID int64, page, pageSize int) (*HistoryPage, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&UserAlbumLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	err = r.db.WithContext(ctx).Raw(
		`SELECT r1.album_id, r2.name AS album_name, r2.cover, r1.click_count, r1.listen_count
		 FROM user_album_log AS r1
		 LEFT JOIN album AS r2 ON r1.album_id = r2.id
		 WHERE r1.user_id = ?
		 ORDER BY r1.create_time DESC LIMIT ?, ?`,
		userID, pageSize*(page-1), pageSize,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	return &HistoryPage{Entries: entries, Page: page, PageSize: pageSize, Total: total}, nil
}
