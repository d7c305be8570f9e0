package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"k8s.io/klog/v2"
)

const (
	contextKeyUserID = "user_id"
	headerUserID     = "X-User-ID"
	anonymousUser    = "anonymous"

	claimSubject = "sub"
	claimUserID  = "user_id"
)

var errMissingToken = errors.New("missing bearer token")

// Auth 校验 Authorization: Bearer <token>（HS256），把用户 ID 写入上下文
// secret 为空时不校验，用户 ID 取 X-User-ID 头，缺省为 anonymous，仅用于本地开发
func Auth(secret string) gin.HandlerFunc {
	if strings.TrimSpace(secret) == "" {
		klog.Warningf("未配置 auth.jwt_secret，请求不做身份校验")
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader(headerUserID))
			if userID == "" {
				userID = anonymousUser
			}
			c.Set(contextKeyUserID, userID)
			c.Next()
		}
	}

	key := []byte(secret)
	return func(c *gin.Context) {
		userID, err := parseToken(c.GetHeader("Authorization"), key)
		if err != nil {
			klog.V(6).Infof("Auth: 拒绝请求 %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// UserID 当前请求的用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

func parseToken(header string, key []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", errMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if userID := claimString(claims, claimUserID); userID != "" {
		return userID, nil
	}
	if userID := claimString(claims, claimSubject); userID != "" {
		return userID, nil
	}
	return "", errors.New("user id missing in token")
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}
	if v, ok := raw.(string); ok {
		return v
	}
	return fmt.Sprint(raw)
}
