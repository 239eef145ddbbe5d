// 文件: pkg/user/service_test.go
package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	h := HashPassword("secret")
	require.Len(t, h, 64, "SHA3-256 hex digest is 64 chars")
	require.Equal(t, h, HashPassword("secret"))
	require.NotEqual(t, h, HashPassword("Secret"))
	// 大写十六进制
	require.Regexp(t, "^[0-9A-F]{64}$", h)
}

func TestContainsClientID(t *testing.T) {
	require.True(t, containsClientID("abc,def", "abc"))
	require.True(t, containsClientID("abc, def", "def"))
	require.False(t, containsClientID("abcdef", "abc"))
	require.False(t, containsClientID("", "abc"))
}

// =============================================================================
// 仓库假实现上的服务逻辑
// =============================================================================

type fakeUserRepo struct {
	users     map[string]*User
	updatedID int64
	updatedSn string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	if _, ok := f.users[u.Username]; ok {
		return ErrUserExists
	}
	u.ID = int64(len(f.users) + 1)
	f.users[u.Username] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) PreferenceByClient(ctx context.Context, clientID string) (string, int, error) {
	return "", 0, ErrUserNotFound
}

func (f *fakeUserRepo) UpdatePreference(ctx context.Context, userID int64, genreData string, freshMinutes int) error {
	return nil
}

func (f *fakeUserRepo) UpdateSessionID(ctx context.Context, userID int64, sessionID string) error {
	f.updatedID = userID
	f.updatedSn = sessionID
	return nil
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	err := svc.Register(ctx, "alice", "alice@example.com", "pw", "pw")
	require.NoError(t, err)

	// 密码落库是摘要，不是明文
	require.Equal(t, HashPassword("pw"), repo.users["alice"].Password)

	u, err := svc.Login(ctx, "alice", "pw", "device-1")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, "device-1", repo.updatedSn, "first login attaches the device client id")

	// 同设备再登录不重复追加
	repo.updatedSn = ""
	_, err = svc.Login(ctx, "alice", "pw", "device-1")
	require.NoError(t, err)
	require.Equal(t, "", repo.updatedSn)

	// 新设备追加到列表
	_, err = svc.Login(ctx, "alice", "pw", "device-2")
	require.NoError(t, err)
	require.Equal(t, "device-1,device-2", repo.updatedSn)
}

func TestAuthService_RegisterPasswordMismatch(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	err := svc.Register(context.Background(), "bob", "bob@example.com", "pw", "other")
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestAuthService_LoginBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "carol", "carol@example.com", "pw", "pw"))

	_, err := svc.Login(ctx, "carol", "wrong", "device-1")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(ctx, "nobody", "pw", "device-1")
	require.ErrorIs(t, err, ErrBadCredentials)
}
