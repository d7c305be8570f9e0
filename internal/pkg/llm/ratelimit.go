package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var rateLimitKeywords = []string{
	"status code: 429",
	"429 too many requests",
	"rate limit",
	"too many requests",
	"rate-limited",
	"request rate exceeded",
	"请求次数超过限制",
	"每分钟请求次数",
}

var retryAfterPattern = regexp.MustCompile(`(?i)(?:try again in|retry after) (\d+)(s|m|h)`)

// IsRateLimitError 判断上游错误是否为限流
// 只认 HTTP 429 状态或明确的限流描述，消息中偶然出现的数字 429 不算
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, keyword := range rateLimitKeywords {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// RetryAfter 从错误消息中解析建议的重试间隔，如 "Try again in 20s"，解析不到返回 0
func RetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}
	matches := retryAfterPattern.FindStringSubmatch(err.Error())
	if len(matches) < 3 {
		return 0
	}
	n, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0
	}
	switch matches[2] {
	case "m", "M":
		return time.Duration(n) * time.Minute
	case "h", "H":
		return time.Duration(n) * time.Hour
	default:
		return time.Duration(n) * time.Second
	}
}
