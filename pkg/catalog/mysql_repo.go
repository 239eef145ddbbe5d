// 文件: pkg/catalog/mysql_repo.go
// 专辑目录 MySQL 存储实现
//
// 【设计】
// - 查询全部走绑定参数，流派模式也是参数 (path REGEXP ?)，不拼 SQL
// - "可发布" 条件: 封面已托管在 CDN (LOCATE('cdn', cover) > 0)
// - 随机采样用 ORDER BY RAND()，产品目标是发现而不是排序

package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// 确保实现了接口
var _ CatalogRepository = (*MySQLCatalogRepository)(nil)

// ErrAlbumNotFound 专辑不存在
var ErrAlbumNotFound = errors.New("catalog: album not found")

// MySQLCatalogRepository MySQL 实现
type MySQLCatalogRepository struct {
	db *gorm.DB
}

// NewMySQLCatalogRepository 创建目录存储
func NewMySQLCatalogRepository(db *gorm.DB) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db}
}

// =============================================================================
// Feed 采样
// =============================================================================

// SampleAlbums 随机抽取可发布专辑
//
// genrePattern 为空时不过滤流派；非空时按层级前缀语义过滤:
// 关联流派名落在 path REGEXP pattern 命中的子树内即保留。
// DISTINCT 保证一次调用内不重复 (一张专辑可能挂多个关联流派)。
func (r *MySQLCatalogRepository) SampleAlbums(ctx context.Context, genrePattern string, limit int) ([]AlbumSummary, error) {
	var albums []AlbumSummary

	if genrePattern == "" {
		err := r.db.WithContext(ctx).Raw(
			`SELECT id, name, cover FROM album
			 WHERE LOCATE('cdn', cover) > 0
			 ORDER BY RAND() LIMIT ?`, limit,
		).Scan(&albums).Error
		return albums, err
	}

	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT r1.id, r1.name, r1.cover
		 FROM album AS r1
		 JOIN album_genre AS r2 ON r1.id = r2.album_id
		 WHERE LOCATE('cdn', r1.cover) > 0
		   AND r2.genre IN (SELECT name FROM genres WHERE path REGEXP ?)
		 ORDER BY RAND() LIMIT ?`, genrePattern, limit,
	).Scan(&albums).Error
	return albums, err
}

// =============================================================================
// 详情
// =============================================================================

// GetAlbumInfo 查询专辑详情 (主表 + 扩展信息 + 流派列表)
func (r *MySQLCatalogRepository) GetAlbumInfo(ctx context.Context, albumID int64) (*AlbumInfo, error) {
	var info AlbumInfo
	result := r.db.WithContext(ctx).Raw(
		`SELECT a.id, a.name, a.artist, a.cover, a.media_url,
		        IFNULL(b.descriptors, '') AS descriptors,
		        IFNULL(b.released, '') AS released,
		        IFNULL(b.language, '') AS language,
		        IFNULL(b.rate, '') AS rate
		 FROM album a LEFT JOIN album_detail b ON a.id = b.album_id
		 WHERE a.id = ?`, albumID,
	).Scan(&info)

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlbumNotFound
	}

	genres, err := r.GetAlbumGenres(ctx, albumID)
	if err != nil {
		return nil, err
	}
	info.Genres = genres
	return &info, nil
}

// GetAlbumGenres 查询专辑关联的流派
func (r *MySQLCatalogRepository) GetAlbumGenres(ctx context.Context, albumID int64) ([]AlbumGenre, error) {
	var genres []AlbumGenre
	err := r.db.WithContext(ctx).
		Select("genre", "genre_type").
		Where("album_id = ?", albumID).
		Find(&genres).Error
	return genres, err
}

// AlbumGenreNames 专辑关联的流派名 (互动计数的快照来源)
func (r *MySQLCatalogRepository) AlbumGenreNames(ctx context.Context, albumID int64) ([]string, error) {
	genres, err := r.GetAlbumGenres(ctx, albumID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Genre)
	}
	return names, nil
}

// =============================================================================
// 流派
// =============================================================================

// TopLevelGenres 顶级流派列表 (偏好设置页用)
func (r *MySQLCatalogRepository) TopLevelGenres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	err := r.db.WithContext(ctx).
		Select("id", "name", "key_name").
		Where("parents = ?", "").
		Find(&genres).Error
	return genres, err
}

// =============================================================================
// 榜单
// =============================================================================

// GenreChart 单个流派的专辑榜 (按评分倒序分页)
func (r *MySQLCatalogRepository) GenreChart(ctx context.Context, genre string, page, pageSize int) (*ChartPage, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM album
		 LEFT JOIN album_genre ON album.id = album_genre.album_id
		 WHERE genre = ?`, genre,
	).Scan(&total).Error
	if err != nil {
		return nil, err
	}

	var entries []ChartEntry
	err = r.db.WithContext(ctx).Raw(
		`SELECT r1.id, r1.name, r1.artist, r1.cover, r3.rate
		 FROM album AS r1
		 LEFT JOIN album_genre AS r2 ON r1.id = r2.album_id
		 LEFT JOIN album_detail AS r3 ON r1.id = r3.album_id
		 WHERE r2.genre = ?
		 ORDER BY r3.rate DESC LIMIT ?, ?`,
		genre, pageSize*(page-1), pageSize,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	return &ChartPage{Entries: entries, Page: page, PageSize: pageSize, Total: total}, nil
}

// ArtistChart 单个艺术家的专辑榜
func (r *MySQLCatalogRepository) ArtistChart(ctx context.Context, artist string, page, pageSize int) (*ChartPage, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Album{}).
		Where("artist = ?", artist).
		Count(&total).Error
	if err != nil {
		return nil, err
	}

	var entries []ChartEntry
	err = r.db.WithContext(ctx).Raw(
		`SELECT r1.id, r1.name, r1.artist, r1.cover, IFNULL(r3.rate, '0.00') AS rate
		 FROM album AS r1
		 LEFT JOIN album_detail AS r3 ON r1.id = r3.album_id
		 WHERE r1.artist = ?
		 ORDER BY r3.rate DESC LIMIT ?, ?`,
		artist, pageSize*(page-1), pageSize,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	return &ChartPage{Entries: entries, Page: page, PageSize: pageSize, Total: total}, nil
}
