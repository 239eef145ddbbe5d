// 文件: pkg/activity/service.go
// 互动记录服务
//
// 【隔离】详情页浏览触发计数，但计数失败绝不能让详情页失败:
// 调用方只记日志，不把错误传回浏览请求。
//
// 【两种落库模式】
// - 直写 (默认): 请求内一条原子 upsert
// - 管道: 发布 ViewEvent 到 Kafka/NATS，由 DBWriter 批量落库。
//   配置了 publisher 就走管道。

package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// GenreSource 专辑流派查询 (由 catalog 包实现，插入时取快照)
type GenreSource interface {
	AlbumGenreNames(ctx context.Context, albumID int64) ([]string, error)
}

// ViewPublisher 浏览事件发布 (Kafka 或 NATS 实现)
type ViewPublisher interface {
	PublishView(event *ViewEvent) error
}

// Service 互动记录服务
type Service struct {
	repo      ActivityRepository
	genres    GenreSource
	publisher ViewPublisher // nil = 直写模式
	node      *snowflake.Node
}

// NewService 创建互动记录服务 (直写模式)
func NewService(repo ActivityRepository, genres GenreSource, node *snowflake.Node) *Service {
	return &Service{repo: repo, genres: genres, node: node}
}

// WithPublisher 切换到管道模式
func (s *Service) WithPublisher(p ViewPublisher) *Service {
	s.publisher = p
	return s
}

// RecordView 记录一次详情页浏览
func (s *Service) RecordView(ctx context.Context, userID, albumID int64) error {
	if userID == 0 {
		// 匿名浏览不计数
		return nil
	}

	snapshot, err := s.genreSnapshot(ctx, albumID)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		event := &ViewEvent{
			EventID:   s.node.Generate().Int64(),
			UserID:    userID,
			AlbumID:   albumID,
			Genres:    snapshot,
			Timestamp: time.Now().UnixMilli(),
		}
		if err := s.publisher.PublishView(event); err != nil {
			return fmt.Errorf("activity: publish view event: %w", err)
		}
		return nil
	}

	if err := s.repo.UpsertView(ctx, userID, albumID, snapshot, 1); err != nil {
		return fmt.Errorf("activity: upsert view counter: %w", err)
	}
	return nil
}

// History 浏览历史
func (s *Service) History(ctx context.Context, userID int64, page, pageSize int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.History(ctx, userID, page, pageSize)
}

func (s *Service) genreSnapshot(ctx context.Context, albumID int64) (string, error) {
	names, err := s.genres.AlbumGenreNames(ctx, albumID)
	if err != nil {
		return "", fmt.Errorf("activity: load genre snapshot: %w", err)
	}
	return JoinGenreSnapshot(names), nil
}
