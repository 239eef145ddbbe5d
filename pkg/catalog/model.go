// 文件: pkg/catalog/model.go
// 专辑目录数据模型
//
// 目录对本模块是只读的: 专辑/流派数据由外部导入任务维护

package catalog

// =============================================================================
// 专辑
// =============================================================================

// Album 专辑主表
type Album struct {
	ID       int64  `gorm:"primaryKey;column:id" json:"id"`
	Name     string `gorm:"column:name;type:varchar(255)" json:"name"`
	Artist   string `gorm:"column:artist;type:varchar(255)" json:"artist"`
	Cover    string `gorm:"column:cover;type:varchar(512)" json:"cover"`
	MediaURL string `gorm:"column:media_url;type:json" json:"media_url"`
}

func (Album) TableName() string {
	return "album"
}

// AlbumSummary Feed 流里的专辑摘要 (id + 标题 + 封面)
type AlbumSummary struct {
	ID    int64  `gorm:"column:id" json:"id"`
	Name  string `gorm:"column:name" json:"name"`
	Cover string `gorm:"column:cover" json:"cover"`
}

// AlbumDetail 专辑扩展信息 (评分/语言/发行时间)
type AlbumDetail struct {
	AlbumID     int64  `gorm:"column:album_id" json:"album_id"`
	Descriptors string `gorm:"column:descriptors" json:"descriptors"`
	Released    string `gorm:"column:released" json:"released"`
	Language    string `gorm:"column:language" json:"language"`
	Rate        string `gorm:"column:rate" json:"rate"`
}

func (AlbumDetail) TableName() string {
	return "album_detail"
}

// AlbumInfo 详情页聚合视图: 专辑 + 扩展信息 + 流派列表
type AlbumInfo struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Artist      string       `json:"artist"`
	Cover       string       `json:"cover"`
	MediaURL    string       `json:"media_url"`
	Descriptors string       `json:"descriptors"`
	Released    string       `json:"released"`
	Language    string       `json:"language"`
	Rate        string       `json:"rate"`
	Genres      []AlbumGenre `json:"genres"`
}

// =============================================================================
// 流派
// =============================================================================

// Genre 流派节点
// Path 用斜杠编码祖先链 (如 rock/metal/death)，前缀匹配即可命中整棵子树
type Genre struct {
	ID      int64  `gorm:"primaryKey;column:id" json:"id"`
	Name    string `gorm:"column:name;type:varchar(128)" json:"name"`
	KeyName string `gorm:"column:key_name;type:varchar(128)" json:"key_name"`
	Path    string `gorm:"column:path;type:varchar(512)" json:"path"`
	Parents string `gorm:"column:parents;type:varchar(512)" json:"parents"`
}

func (Genre) TableName() string {
	return "genres"
}

// AlbumGenre 专辑-流派关联
// GenreType 区分主流派和跨界流派，挂在关联上而不是节点上
type AlbumGenre struct {
	AlbumID   int64  `gorm:"column:album_id" json:"album_id,omitempty"`
	Genre     string `gorm:"column:genre;type:varchar(128)" json:"genre"`
	GenreType string `gorm:"column:genre_type;type:varchar(32)" json:"genre_type"`
}

func (AlbumGenre) TableName() string {
	return "album_genre"
}

// =============================================================================
// 榜单
// =============================================================================

// ChartEntry 榜单条目 (流派榜/艺术家榜共用)
type ChartEntry struct {
	ID     int64  `gorm:"column:id" json:"id"`
	Name   string `gorm:"column:name" json:"name"`
	Artist string `gorm:"column:artist" json:"artist"`
	Cover  string `gorm:"column:cover" json:"cover"`
	Rate   string `gorm:"column:rate" json:"rate"`
}

// ChartPage 带总数的分页结果
type ChartPage struct {
	Entries  []ChartEntry `json:"res"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int64        `json:"total"`
}
