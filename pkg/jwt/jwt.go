// Package jwt 提供 JWT Token 的生成和验证功能
// Token 只作为工作区句柄使用，模拟登录不校验任何真实凭证
package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 定义错误类型
var (
	ErrInvalidToken = errors.New("invalid token")     // Token 无效
	ErrExpiredToken = errors.New("token has expired") // Token 已过期
)

// UserClaims 用户 JWT 的声明（Payload）
type UserClaims struct {
	Email    string `json:"email"`    // 用户邮箱，同时是工作区的键
	Name     string `json:"name"`     // 显示名称
	Provider string `json:"provider"` // 登录方式
	jwt.RegisteredClaims
}

// JWTService 提供 JWT 相关操作
type JWTService struct {
	secret       []byte        // JWT 签名密钥
	accessExpire time.Duration // Access Token 过期时间
}

// NewJWTService 创建 JWTService 实例
// 参数:
//   - secret: JWT 签名密钥
//   - accessExpire: Access Token 过期时间
//
// 返回:
//   - *JWTService: JWT 服务实例
func NewJWTService(secret string, accessExpire time.Duration) *JWTService {
	return &JWTService{
		secret:       []byte(secret),
		accessExpire: accessExpire,
	}
}

// GenerateAccessToken 生成 Access Token
// 参数:
//   - email: 用户邮箱（或手机号）
//   - name: 显示名称
//   - provider: 登录方式
//
// 返回:
//   - string: JWT Token 字符串
//   - time.Time: 过期时间
//   - error: 生成错误
func (s *JWTService) GenerateAccessToken(email, name, provider string) (string, time.Time, error) {
	now := time.Now()
	expireAt := now.Add(s.accessExpire)
	claims := UserClaims{
		Email:    email,
		Name:     name,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "storyforge",
			Subject:   "access",
			ID:        uuid.NewString(), // 同一秒内签发的 Token 也不相同
		},
	}

	// HS256 签名
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expireAt, nil
}

// ValidateToken 验证用户 Token
// 参数:
//   - tokenString: JWT Token 字符串
//
// 返回:
//   - *UserClaims: Token 中的声明信息
//   - error: 验证错误（无效或已过期）
func (s *JWTService) ValidateToken(tokenString string) (*UserClaims, error) {
	claims, err := parse(tokenString, s.secret)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetAccessExpire 获取 Access Token 过期时间
func (s *JWTService) GetAccessExpire() time.Duration {
	return s.accessExpire
}

// HashToken 计算 Token 的 SHA256 哈希值
// 黑名单只存哈希，不存原始 Token
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func parse(tokenString string, secret []byte) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 只接受 HMAC 签名
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
