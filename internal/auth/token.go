package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrInvalidToken 表示令牌解析失败、过期或用途不符。
var ErrInvalidToken = errors.New("invalid token")

const (
	purposeMagicLink = "magic_link"
	purposeSession   = "session"

	magicLinkTTL = 15 * time.Minute
	sessionTTL   = 7 * 24 * time.Hour
)

// Claims 是两类令牌共用的声明结构，Purpose 区分用途。
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// TokenIssuer 负责签发与校验登录令牌。
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer 创建令牌签发器。
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// IssueMagicLink 签发一次性登录令牌，15 分钟过期。
func (t *TokenIssuer) IssueMagicLink(email string) (string, error) {
	return t.sign(Claims{
		Email:   email,
		Purpose: purposeMagicLink,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  t.now().Unix(),
			ExpiresAt: t.now().Add(magicLinkTTL).Unix(),
		},
	})
}

// IssueSession 签发登录会话令牌，7 天过期。
func (t *TokenIssuer) IssueSession(userID, email string) (string, error) {
	return t.sign(Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purposeSession,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  t.now().Unix(),
			ExpiresAt: t.now().Add(sessionTTL).Unix(),
		},
	})
}

// VerifyMagicLink 校验登录链接令牌并返回邮箱。
func (t *TokenIssuer) VerifyMagicLink(token string) (string, error) {
	claims, err := t.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeMagicLink {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// VerifySession 校验会话令牌并返回声明。
func (t *TokenIssuer) VerifySession(token string) (*Claims, error) {
	claims, err := t.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposeSession || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt < t.now().Unix() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
