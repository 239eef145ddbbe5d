// 文件: pkg/catalog/mysql_repo_test.go
// 专辑目录 - 集成测试 (需要本地 MySQL)
//
// 重点验证随机采样落到 SQL 上的语义: 可发布条件、结果不重复、
// 层级流派过滤 (选中父节点命中整棵子树)

package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupCatalog 初始化测试库并重建目录数据
func setupCatalog(t *testing.T) *MySQLCatalogRepository {
	dsn := os.Getenv("RYM_TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/rym_test?charset=utf8mb4&parseTime=True&loc=Local"
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("skipping test; mysql not available: %v", err)
	}
	if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		t.Skipf("skipping test; mysql not reachable")
	}

	require.NoError(t, db.AutoMigrate(&Album{}, &AlbumDetail{}, &Genre{}, &AlbumGenre{}))
	for _, table := range []string{"album", "album_detail", "album_genre", "genres"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	seedCatalog(t, db)
	return NewMySQLCatalogRepository(db)
}

// seedCatalog 造一小片目录:
// - 专辑 1..5 可发布 (封面在 CDN)，6/7 不可发布
// - 流派树: electronic -> electronic/idm; rock 和 post-rock 各自独立
// - 专辑 2 同时挂 Electronic 和 IDM 两个匹配标签 (验证去重)
// - 专辑 6 挂 IDM 但不可发布 (过滤时也不能出现)
func seedCatalog(t *testing.T, db *gorm.DB) {
	albums := []Album{
		{ID: 1, Name: "one", Artist: "a1", Cover: "https://cdn.example.com/1.jpg", MediaURL: "{}"},
		{ID: 2, Name: "two", Artist: "a2", Cover: "https://cdn.example.com/2.jpg", MediaURL: "{}"},
		{ID: 3, Name: "three", Artist: "a3", Cover: "https://cdn.example.com/3.jpg", MediaURL: "{}"},
		{ID: 4, Name: "four", Artist: "a4", Cover: "https://cdn.example.com/4.jpg", MediaURL: "{}"},
		{ID: 5, Name: "five", Artist: "a5", Cover: "https://cdn.example.com/5.jpg", MediaURL: "{}"},
		{ID: 6, Name: "six", Artist: "a6", Cover: "file:///local/6.jpg", MediaURL: "{}"},
		{ID: 7, Name: "seven", Artist: "a7", Cover: "file:///local/7.jpg", MediaURL: "{}"},
	}
	require.NoError(t, db.Create(&albums).Error)

	genres := []Genre{
		{ID: 1, Name: "Electronic", KeyName: "electronic", Path: "electronic", Parents: ""},
		{ID: 2, Name: "IDM", KeyName: "idm", Path: "electronic/idm", Parents: "electronic"},
		{ID: 3, Name: "Rock", KeyName: "rock", Path: "rock", Parents: ""},
		{ID: 4, Name: "Post-Rock", KeyName: "post-rock", Path: "post-rock", Parents: ""},
	}
	require.NoError(t, db.Create(&genres).Error)

	tags := []AlbumGenre{
		{AlbumID: 1, Genre: "IDM", GenreType: "primary"},
		{AlbumID: 2, Genre: "Electronic", GenreType: "primary"},
		{AlbumID: 2, Genre: "IDM", GenreType: "secondary"},
		{AlbumID: 3, Genre: "Rock", GenreType: "primary"},
		{AlbumID: 4, Genre: "Post-Rock", GenreType: "primary"},
		{AlbumID: 6, Genre: "IDM", GenreType: "primary"},
	}
	require.NoError(t, db.Create(&tags).Error)
}

func albumIDs(albums []AlbumSummary) map[int64]bool {
	ids := make(map[int64]bool, len(albums))
	for _, a := range albums {
		ids[a.ID] = true
	}
	return ids
}

// 不过滤: 精确 limit 条、ID 不重复、只出可发布专辑
func TestMySQLCatalogRepository_SampleUnfiltered(t *testing.T) {
	repo := setupCatalog(t)

	albums, err := repo.SampleAlbums(context.Background(), "", 4)
	require.NoError(t, err)
	require.Len(t, albums, 4)

	ids := albumIDs(albums)
	require.Len(t, ids, 4, "no duplicate ids within a single call")
	for id := range ids {
		require.LessOrEqual(t, id, int64(5), "only cdn-hosted covers are eligible")
	}
}

// 目录不够 limit 时返回全部可发布专辑，不凑数也不报错
func TestMySQLCatalogRepository_SampleShortCatalog(t *testing.T) {
	repo := setupCatalog(t)

	albums, err := repo.SampleAlbums(context.Background(), "", 40)
	require.NoError(t, err)
	require.Len(t, albums, 5)

	ids := albumIDs(albums)
	require.False(t, ids[6], "unpublishable albums never sampled")
	require.False(t, ids[7])
}

// 层级过滤: 选中 electronic 时，挂子孙流派 (electronic/idm) 的
// 专辑一并命中，rock 系不命中; 双标签专辑只出一次
func TestMySQLCatalogRepository_SampleHierarchyFilter(t *testing.T) {
	repo := setupCatalog(t)

	pattern, err := BuildGenrePattern("electronic")
	require.NoError(t, err)

	albums, err := repo.SampleAlbums(context.Background(), pattern, 40)
	require.NoError(t, err)
	require.Len(t, albums, 2)

	ids := albumIDs(albums)
	require.True(t, ids[1], "descendant tag (IDM) included under ancestor filter")
	require.True(t, ids[2], "double-tagged album appears exactly once")
	require.False(t, ids[3], "rock excluded under {electronic} filter")
	require.False(t, ids[6], "unpublishable album excluded even when tagged")
}

// 前缀是锚定的: rock 不会连带命中 post-rock
func TestMySQLCatalogRepository_SampleAnchoredPrefix(t *testing.T) {
	repo := setupCatalog(t)

	pattern, err := BuildGenrePattern("rock")
	require.NoError(t, err)

	albums, err := repo.SampleAlbums(context.Background(), pattern, 40)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	require.Equal(t, int64(3), albums[0].ID)
}

// 过滤集没命中任何流派: 空结果，不是错误
func TestMySQLCatalogRepository_SampleNoMatch(t *testing.T) {
	repo := setupCatalog(t)

	pattern, err := BuildGenrePattern("ambient")
	require.NoError(t, err)

	albums, err := repo.SampleAlbums(context.Background(), pattern, 40)
	require.NoError(t, err)
	require.Empty(t, albums)
}

func TestMySQLCatalogRepository_GetAlbumInfoNotFound(t *testing.T) {
	repo := setupCatalog(t)

	_, err := repo.GetAlbumInfo(context.Background(), 999)
	require.ErrorIs(t, err, ErrAlbumNotFound)
}
