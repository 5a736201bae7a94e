package service

import (
	"strings"
	"time"

	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// Session 门户会话（由外部会话服务签发）
type Session struct {
	Role      string `json:"role"`
	CompanyID uint   `json:"company_id"`
	UserID    uint   `json:"user_id"`
}

// IsValid 会话字段是否完整
func (s Session) IsValid() bool {
	if s.UserID == 0 {
		return false
	}
	switch s.Role {
	case constants.RoleRetailer:
		return s.CompanyID != 0
	case constants.RoleSalesRep, constants.RoleAdmin:
		return true
	default:
		return false
	}
}

// SessionClaims JWT 声明
type SessionClaims struct {
	Role      string `json:"role"`
	CompanyID uint   `json:"company_id"`
	UserID    uint   `json:"user_id"`
	jwt.RegisteredClaims
}

// Session 转换为会话
func (c *SessionClaims) Session() Session {
	return Session{Role: c.Role, CompanyID: c.CompanyID, UserID: c.UserID}
}

// SessionService 会话令牌签发与解析
type SessionService struct {
	cfg *config.SessionConfig
	now func() time.Time
}

// NewSessionService 创建会话服务
func NewSessionService(cfg *config.SessionConfig) *SessionService {
	if cfg == nil {
		cfg = &config.SessionConfig{}
	}
	return &SessionService{cfg: cfg, now: time.Now}
}

// Issue 签发会话令牌（种子数据与测试使用）
func (s *SessionService) Issue(session Session) (string, time.Time, error) {
	if !session.IsValid() {
		return "", time.Time{}, ErrInvalidSession
	}
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := s.now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := SessionClaims{
		Role:      session.Role,
		CompanyID: session.CompanyID,
		UserID:    session.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    strings.TrimSpace(s.cfg.Issuer),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse 解析并校验会话令牌
func (s *SessionService) Parse(tokenString string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if issuer := strings.TrimSpace(s.cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || !claims.Session().IsValid() {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
