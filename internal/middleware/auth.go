package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blues/smartfarmer/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const SessionKey = "session"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionVerifier 校验身份服务签发的令牌
type SessionVerifier interface {
	Verify(token string) (*model.Session, error)
}

type sessionClaims struct {
	Uid   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier 与身份网关共享 auth.secret 的 HS256 令牌校验器
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier 创建校验器
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), now: time.Now}
}

// IssueToken 签发令牌，供身份网关和测试使用
func (v *JWTVerifier) IssueToken(uid, email string, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		Uid:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(v.now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify 校验签名算法、签名与过期时间
func (v *JWTVerifier) Verify(token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || claims.Uid == "" {
		return nil, ErrInvalidToken
	}

	return &model.Session{Uid: claims.Uid, Email: claims.Email}, nil
}

// Auth 校验 Bearer 令牌并把会话放入上下文
func Auth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		session, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid session: "+err.Error())
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// SessionFrom 取出已校验的会话
func SessionFrom(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*model.Session)
	return session, ok && session != nil
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"data":    nil,
	})
}
