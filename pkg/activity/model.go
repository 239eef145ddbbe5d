// 文件: pkg/activity/model.go
// 互动计数数据模型

package activity

import "strings"

// =============================================================================
// 计数行
// =============================================================================

// UserAlbumLog 用户-专辑互动计数
// (user_id, album_id) 唯一; AlbumGenre 是首次插入时的流派快照
// (竖线拼接)，之后流派编辑不回写 —— 点状反规范化，不是实时联表
type UserAlbumLog struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	UserID      int64  `gorm:"column:user_id;uniqueIndex:uk_user_album"`
	AlbumID     int64  `gorm:"column:album_id;uniqueIndex:uk_user_album"`
	AlbumGenre  string `gorm:"column:album_genre;type:varchar(512)"`
	ClickCount  int64  `gorm:"column:click_count"`
	ListenCount int64  `gorm:"column:listen_count"`
	CreateTime  int64  `gorm:"column:create_time"`
	UpdateTime  int64  `gorm:"column:update_time"`
}

func (UserAlbumLog) TableName() string {
	return "user_album_log"
}

// JoinGenreSnapshot 流派快照: 名称用竖线拼接
func JoinGenreSnapshot(genres []string) string {
	return strings.Join(genres, "|")
}

// =============================================================================
// 浏览历史
// =============================================================================

// HistoryEntry 浏览历史条目 (计数行联专辑表)
type HistoryEntry struct {
	AlbumID     int64  `gorm:"column:album_id" json:"album_id"`
	AlbumName   string `gorm:"column:album_name" json:"album_name"`
	Cover       string `gorm:"column:cover" json:"cover"`
	ClickCount  int64  `gorm:"column:click_count" json:"click_count"`
	ListenCount int64  `gorm:"column:listen_count" json:"listen_count"`
}

// HistoryPage 带总数的分页结果
type HistoryPage struct {
	Entries  []HistoryEntry `json:"res"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int64          `json:"total"`
}

// =============================================================================
// 浏览事件 (异步管道用)
// =============================================================================

// TopicViewEvents 浏览事件 topic / subject
const TopicViewEvents = "rym.views"

// ViewEvent 一次详情页浏览
type ViewEvent struct {
	EventID   int64  `json:"event_id"` // 雪花ID
	UserID    int64  `json:"user_id"`
	AlbumID   int64  `json:"album_id"`
	Genres    string `json:"genres"` // 流派快照 (竖线拼接)
	Timestamp int64  `json:"timestamp"`
}
