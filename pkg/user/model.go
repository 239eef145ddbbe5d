// 文件: pkg/user/model.go
package user

// User 用户档案
// SessionID 存逗号拼接的设备 client_id 列表，登录时追加;
// GenreData/FreshTime 是 Feed 偏好 (流派过滤集 + 刷新分钟数)
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username  string `gorm:"column:username;type:varchar(64);uniqueIndex" json:"username"`
	Email     string `gorm:"column:email;type:varchar(128)" json:"email"`
	Password  string `gorm:"column:password;type:char(64)" json:"-"`
	SessionID string `gorm:"column:session_id;type:varchar(1024)" json:"session_id"`
	GenreData string `gorm:"column:genre_data;type:varchar(512)" json:"genre_data"`
	FreshTime int    `gorm:"column:fresh_time" json:"fresh_time"`
}

func (User) TableName() string {
	return "rym_user"
}
