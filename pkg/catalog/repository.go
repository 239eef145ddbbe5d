// 文件: pkg/catalog/repository.go
package catalog

import "context"

type CatalogRepository interface {
	// Feed 随机采样
	SampleAlbums(ctx context.Context, genrePattern string, limit int) ([]AlbumSummary, error)

	// 详情
	GetAlbumInfo(ctx context.Context, albumID int64) (*AlbumInfo, error)
	GetAlbumGenres(ctx context.Context, albumID int64) ([]AlbumGenre, error)
	AlbumGenreNames(ctx context.Context, albumID int64) ([]string, error)

	// 流派
	TopLevelGenres(ctx context.Context) ([]Genre, error)

	// 榜单
	GenreChart(ctx context.Context, genre string, page, pageSize int) (*ChartPage, error)
	ArtistChart(ctx context.Context, artist string, page, pageSize int) (*ChartPage, error)
}
