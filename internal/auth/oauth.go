package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// OAuthConfig 描述 Google 登录接入参数。
type OAuthConfig struct {
	ClientID      string `yaml:"client_id" json:"client_id"`
	ClientSecret  string `yaml:"client_secret" json:"client_secret"`
	RedirectURL   string `yaml:"redirect_url" json:"redirect_url"`
	SessionSecret string `yaml:"session_secret" json:"session_secret"`
}

const stateSessionName = "oauth_state"

// GoogleOAuth 处理 Google 授权码流程，state 用 cookie 会话防 CSRF。
type GoogleOAuth struct {
	oauth   *oauth2.Config
	service *Service
	cookies *sessions.CookieStore
}

// NewGoogleOAuth 创建 Google 登录处理器。
func NewGoogleOAuth(cfg OAuthConfig, service *Service) *GoogleOAuth {
	cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	return &GoogleOAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		service: service,
		cookies: cookies,
	}
}

// Enabled 判断是否配置了 Google 登录。
func (g *GoogleOAuth) Enabled() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

// BeginLogin 生成随机 state、写入 cookie 并返回授权跳转地址。
func (g *GoogleOAuth) BeginLogin(w http.ResponseWriter, r *http.Request) (string, error) {
	state := uuid.NewString()
	session, _ := g.cookies.Get(r, stateSessionName)
	session.Values["state"] = state
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return g.oauth.AuthCodeURL(state), nil
}

// CompleteLogin 校验 state、换取令牌、拉取用户信息并换发会话。
func (g *GoogleOAuth) CompleteLogin(w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, _ := g.cookies.Get(r, stateSessionName)
	expected, _ := session.Values["state"].(string)
	if expected == "" || r.FormValue("state") != expected {
		return nil, fmt.Errorf("oauth state mismatch")
	}
	// state 一次性使用
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	token, err := g.oauth.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}

	info, err := g.fetchUserInfo(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, fmt.Errorf("oauth userinfo missing email")
	}

	profile, err := g.service.ensureProfile(r.Context(), info.Email, info.Name)
	if err != nil {
		return nil, err
	}
	sessionToken, err := g.service.issuer.IssueSession(profile.UserID, profile.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: sessionToken, UserID: profile.UserID, Email: profile.Email}, nil
}

func (g *GoogleOAuth) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	service, err := goauth2.NewService(ctx, option.WithTokenSource(g.oauth.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create oauth2 service: %w", err)
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	return info, nil
}
