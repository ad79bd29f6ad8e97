package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"

	"career-copilot/internal/model"
	"career-copilot/internal/notifier"

	"github.com/google/uuid"
)

// Store 定义登录流程所需的档案访问。
type Store interface {
	GetProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *model.UserProfile) error
}

// Config 描述登录相关配置。
type Config struct {
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	AppURL    string `yaml:"app_url" json:"app_url"`
}

// Session 是登录成功后的会话信息。
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Service 实现魔法链接登录：签发短时令牌、发邮件、换会话。
type Service struct {
	store    Store
	issuer   *TokenIssuer
	sender   notifier.EmailSender
	emailCfg notifier.EmailConfig
	appURL   string
}

// NewService 创建登录服务。
func NewService(store Store, issuer *TokenIssuer, sender notifier.EmailSender, emailCfg notifier.EmailConfig, cfg Config) *Service {
	return &Service{store: store, issuer: issuer, sender: sender, emailCfg: emailCfg, appURL: strings.TrimRight(cfg.AppURL, "/")}
}

// SendMagicLink 给邮箱发送一次性登录链接。日志里只出现打码后的地址。
func (s *Service) SendMagicLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	token, err := s.issuer.IssueMagicLink(email)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", s.appURL, url.QueryEscape(token))
	msg := notifier.LoginEmail(s.emailCfg, email, link)
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send login email: %w", err)
	}

	log.Printf("magic link sent to %s", MaskEmail(email))
	return nil
}

// VerifyMagicLink 校验链接令牌，按需创建档案，换发会话令牌。
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (*Session, error) {
	email, err := s.issuer.VerifyMagicLink(token)
	if err != nil {
		return nil, err
	}

	profile, err := s.ensureProfile(ctx, email, "")
	if err != nil {
		return nil, err
	}

	session, err := s.issuer.IssueSession(profile.UserID, profile.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: session, UserID: profile.UserID, Email: profile.Email}, nil
}

func (s *Service) ensureProfile(ctx context.Context, email, name string) (*model.UserProfile, error) {
	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err == nil {
		if name != "" && profile.Name == "" {
			profile.Name = name
			if err := s.store.UpsertProfile(ctx, profile); err != nil {
				return nil, err
			}
		}
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	profile = &model.UserProfile{
		UserID: uuid.NewString(),
		Email:  email,
		Name:   name,
		Plan:   model.PlanFree,
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	log.Printf("profile created for %s", MaskEmail(email))
	return profile, nil
}

// MaskEmail 打码邮箱用于日志输出，如 d***@example.com。
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
