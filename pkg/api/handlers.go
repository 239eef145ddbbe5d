// 文件: pkg/api/handlers.go
// HTTP 处理器 - 只做 HTTP <-> 服务调用的翻译，不放业务逻辑
//
// 响应统一信封 {code, msg, data}; Feed 接口例外，
// 直接回写缓存载荷原始字节 (命中稳定性要求逐字节一致)

package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"rym.com/pkg/activity"
	"rym.com/pkg/catalog"
	"rym.com/pkg/feed"
	"rym.com/pkg/session"
	"rym.com/pkg/user"
)

// sessionCookie 会话 cookie 名
const sessionCookie = "rym_session"

// SessionStore 会话存取 (由 session 包实现)
type SessionStore interface {
	Create(ctx context.Context, data session.Data) (string, error)
	Get(ctx context.Context, token string) (*session.Data, error)
	Update(ctx context.Context, token string, data session.Data) error
	Destroy(ctx context.Context, token string) error
	NewVisitorID() string
}

var _ SessionStore = (*session.Store)(nil)

// Handler HTTP 处理器
type Handler struct {
	feed     *feed.Service
	auth     *user.AuthService
	catalog  catalog.CatalogRepository
	activity *activity.Service
	sessions SessionStore
}

// NewHandler 创建处理器
func NewHandler(
	feedSvc *feed.Service,
	auth *user.AuthService,
	cat catalog.CatalogRepository,
	act *activity.Service,
	sessions SessionStore,
) *Handler {
	return &Handler{
		feed:     feedSvc,
		auth:     auth,
		catalog:  cat,
		activity: act,
		sessions: sessions,
	}
}

// =============================================================================
// 响应信封
// =============================================================================

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func ok(w http.ResponseWriter, data any) {
	respond(w, http.StatusOK, envelope{Code: 200, Msg: "success", Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	respond(w, status, envelope{Code: 400, Msg: msg})
}

// parsePagination 读分页参数，缺省 page=1, page_size=40
func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 40
	}
	return page, pageSize
}

// snapshot 取当前请求的会话快照; 无会话返回 (nil, 0)
func (h *Handler) snapshot(r *http.Request) (*feed.Snapshot, int64) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, 0
	}
	data, err := h.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		log.Printf("[api] session load: %v", err)
		return nil, 0
	}
	if data == nil {
		return nil, 0
	}
	return &feed.Snapshot{
		UserID:       data.UserID,
		GenreData:    data.GenreData,
		FreshMinutes: data.FreshMinutes,
	}, data.UserID
}

// =============================================================================
// Feed
// =============================================================================

// Today 今日推荐 Feed
// GET /api/v1/today?client_id=xxx&page=1
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		// 没带设备标识就发一个，客户端持久化后下次带上
		clientID = h.sessions.NewVisitorID()
		w.Header().Set("X-Client-Id", clientID)
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	snap, _ := h.snapshot(r)
	payload, err := h.feed.GetFeed(r.Context(), clientID, page, snap)
	if err != nil {
		log.Printf("[api] feed: %v", err)
		fail(w, http.StatusInternalServerError, "feed unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// =============================================================================
// 专辑
// =============================================================================

// AlbumDetail 专辑详情 (识别到用户时顺带记互动计数)
// GET /api/v1/album/{album_id}
func (h *Handler) AlbumDetail(w http.ResponseWriter, r *http.Request) {
	albumID, err := strconv.ParseInt(chi.URLParam(r, "album_id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid album id")
		return
	}

	info, err := h.catalog.GetAlbumInfo(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, catalog.ErrAlbumNotFound) {
			fail(w, http.StatusBadRequest, "album not found")
			return
		}
		fail(w, http.StatusInternalServerError, "api error")
		return
	}

	// 计数失败只记日志，详情页照常返回
	if _, userID := h.snapshot(r); userID != 0 {
		if err := h.activity.RecordView(r.Context(), userID, albumID); err != nil {
			log.Printf("[api] record view: user=%d, album=%d, err=%v", userID, albumID, err)
		}
	}

	ok(w, info)
}

// Genres 顶级流派列表
// GET /api/v1/genres
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.TopLevelGenres(r.Context())
	if err != nil {
		fail(w, http.StatusInternalServerError, "failed")
		return
	}
	ok(w, map[string]any{"genres": genres})
}

// GenreChart 流派榜单
// GET /api/v1/genre/{genre}?page=1&page_size=40
func (h *Handler) GenreChart(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	page, pageSize := parsePagination(r)

	chart, err := h.catalog.GenreChart(r.Context(), genre, page, pageSize)
	if err != nil {
		fail(w, http.StatusInternalServerError, "failed")
		return
	}
	ok(w, chart)
}

// ArtistChart 艺术家榜单
// GET /api/v1/artist/{artist}?page=1&page_size=40
func (h *Handler) ArtistChart(w http.ResponseWriter, r *http.Request) {
	artist := chi.URLParam(r, "artist")
	page, pageSize := parsePagination(r)

	chart, err := h.catalog.ArtistChart(r.Context(), artist, page, pageSize)
	if err != nil {
		fail(w, http.StatusInternalServerError, "failed")
		return
	}
	ok(w, chart)
}

// =============================================================================
// 账号
// =============================================================================

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Register 注册
// POST /api/v1/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "error")
		return
	}

	err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		if errors.Is(err, user.ErrPasswordMismatch) || errors.Is(err, user.ErrUserExists) {
			fail(w, http.StatusBadRequest, "error")
			return
		}
		fail(w, http.StatusInternalServerError, "error")
		return
	}
	ok(w, map[string]any{})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
}

// Login 登录: 校验凭证 -> 绑定设备 -> 写会话快照 -> 下发 cookie
// POST /api/v1/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "login failed")
		return
	}

	u, err := h.auth.Login(r.Context(), req.Username, req.Password, req.ClientID)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			fail(w, http.StatusOK, "login failed")
			return
		}
		fail(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessions.Create(r.Context(), session.Data{
		UserID:       u.ID,
		GenreData:    u.GenreData,
		FreshMinutes: u.FreshTime,
	})
	if err != nil {
		log.Printf("[api] create session: %v", err)
		fail(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, envelope{Code: 200, Msg: "login success", Data: u})
}

// Logout 登出
// GET /api/v1/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			log.Printf("[api] destroy session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	respond(w, http.StatusOK, envelope{Code: 200, Msg: "logout success", Data: map[string]any{}})
}

type userConfigRequest struct {
	Genres    string `json:"genres"`
	FreshTime int    `json:"fresh_time"`
}

// UserConfig 更新 Feed 偏好 (流派过滤集 + 刷新周期)
// POST /api/v1/user_config
func (h *Handler) UserConfig(w http.ResponseWriter, r *http.Request) {
	_, userID := h.snapshot(r)
	if userID == 0 {
		fail(w, http.StatusUnauthorized, "you are not logged in")
		return
	}

	var req userConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "failed")
		return
	}

	if err := h.auth.UpdatePreference(r.Context(), userID, req.Genres, req.FreshTime); err != nil {
		fail(w, http.StatusInternalServerError, "failed")
		return
	}

	// 刷新会话快照，下一次请求立即按新偏好出 Feed
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		data := session.Data{
			UserID:       userID,
			GenreData:    req.Genres,
			FreshMinutes: req.FreshTime,
		}
		if err := h.sessions.Update(r.Context(), cookie.Value, data); err != nil {
			log.Printf("[api] refresh session: %v", err)
		}
	}
	ok(w, map[string]any{})
}

// UserInfo 当前用户档案
// GET /api/v1/user
func (h *Handler) UserInfo(w http.ResponseWriter, r *http.Request) {
	_, userID := h.snapshot(r)
	if userID == 0 {
		fail(w, http.StatusUnauthorized, "you are not logged in")
		return
	}

	u, err := h.auth.UserInfo(r.Context(), userID)
	if err != nil {
		fail(w, http.StatusBadRequest, "you are not logged in")
		return
	}
	ok(w, u)
}

// History 浏览历史
// GET /api/v1/user_album_log?page=1&page_size=40
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	_, userID := h.snapshot(r)
	if userID == 0 {
		fail(w, http.StatusUnauthorized, "you are not logged in")
		return
	}
	page, pageSize := parsePagination(r)

	history, err := h.activity.History(r.Context(), userID, page, pageSize)
	if err != nil {
		fail(w, http.StatusInternalServerError, "failed")
		return
	}
	ok(w, history)
}
