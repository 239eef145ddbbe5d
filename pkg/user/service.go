// 文件: pkg/user/service.go
// 账号服务: 注册 / 登录 / 偏好配置
//
// 密码存 SHA3-256 大写十六进制摘要。
// 登录成功时把设备 client_id 追加到档案的 session_id 列表，
// Feed 侧靠这个列表把匿名设备映射回用户偏好。

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	// ErrBadCredentials 用户名或密码错误
	ErrBadCredentials = errors.New("user: bad credentials")
	// ErrPasswordMismatch 两次输入的密码不一致
	ErrPasswordMismatch = errors.New("user: password confirmation mismatch")
)

// DefaultFreshTime 新用户的默认刷新周期 (分钟)
const DefaultFreshTime = 10

// HashPassword SHA3-256 大写十六进制
func HashPassword(password string) string {
	sum := sha3.Sum256([]byte(password))
	return fmt.Sprintf("%X", sum[:])
}

// AuthService 账号服务
type AuthService struct {
	repo UserRepository
}

func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Register 注册新用户
func (s *AuthService) Register(ctx context.Context, username, email, password, passwordConfirm string) error {
	if password != passwordConfirm {
		return ErrPasswordMismatch
	}

	u := &User{
		Username:  username,
		Email:     email,
		Password:  HashPassword(password),
		FreshTime: DefaultFreshTime,
	}
	return s.repo.Create(ctx, u)
}

// Login 校验凭证并绑定设备
// 成功后返回用户档案，调用方据此写会话快照
func (s *AuthService) Login(ctx context.Context, username, password, clientID string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if HashPassword(password) != u.Password {
		return nil, ErrBadCredentials
	}

	// 追加设备 client_id (已绑定则不动)
	if clientID != "" && !containsClientID(u.SessionID, clientID) {
		sessionID := clientID
		if u.SessionID != "" {
			sessionID = u.SessionID + "," + clientID
		}
		if err := s.repo.UpdateSessionID(ctx, u.ID, sessionID); err != nil {
			return nil, err
		}
		u.SessionID = sessionID
	}

	return u, nil
}

// UpdatePreference 更新 Feed 偏好
func (s *AuthService) UpdatePreference(ctx context.Context, userID int64, genreData string, freshMinutes int) error {
	if freshMinutes <= 0 {
		freshMinutes = DefaultFreshTime
	}
	return s.repo.UpdatePreference(ctx, userID, genreData, freshMinutes)
}

// UserInfo 查询用户档案
func (s *AuthService) UserInfo(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

func containsClientID(sessionID, clientID string) bool {
	for _, id := range strings.Split(sessionID, ",") {
		if strings.TrimSpace(id) == clientID {
			return true
		}
	}
	return false
}
