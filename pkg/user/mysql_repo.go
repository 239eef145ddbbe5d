// 文件: pkg/user/mysql_repo.go
package user

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user: not found")
	// ErrUserExists 用户名或邮箱已被占用
	ErrUserExists = errors.New("user: already exists")
)

// 确保实现了 feed.ProfileSource 所需的方法集
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	PreferenceByClient(ctx context.Context, clientID string) (genreData string, freshMinutes int, err error)
	UpdatePreference(ctx context.Context, userID int64, genreData string, freshMinutes int) error
	UpdateSessionID(ctx context.Context, userID int64, sessionID string) error
}

var _ UserRepository = (*MySQLUserRepository)(nil)

type MySQLUserRepository struct {
	db *gorm.DB
}

func NewMySQLUserRepository(db *gorm.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) Create(ctx context.Context, u *User) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("username = ? OR email = ?", u.Username, u.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserExists
	}

	err = r.db.WithContext(ctx).Create(u).Error
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		// 并发注册撞上唯一索引
		return ErrUserExists
	}
	return err
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// PreferenceByClient 按设备 client_id 反查偏好 (feed.ProfileSource)
// session_id 列存逗号拼接的 client_id 列表，用 LIKE 包含匹配
func (r *MySQLUserRepository) PreferenceByClient(ctx context.Context, clientID string) (string, int, error) {
	var u User
	err := r.db.WithContext(ctx).
		Select("genre_data", "fresh_time").
		Where("session_id LIKE ?", "%"+clientID+"%").
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, ErrUserNotFound
		}
		return "", 0, err
	}
	return u.GenreData, u.FreshTime, nil
}

func (r *MySQLUserRepository) UpdatePreference(ctx context.Context, userID int64, genreData string, freshMinutes int) error {
	result := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"genre_data": genreData,
			"fresh_time": freshMinutes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MySQLUserRepository) UpdateSessionID(ctx context.Context, userID int64, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Update("session_id", sessionID).Error
}
