// 包 logx 是对标准库 slog 的薄封装：
// - 支持级别/格式/语言/颜色配置
// - pretty 格式输出本地化等级标签（[调试]/[信息]/[警告]/[错误] 或英文）
// - Debugf/Infof/Warnf/Errorf 用于普通日志，With 用于携带请求 id 等结构化字段
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// levelOff 高于所有等级，用于静默。
const levelOff slog.Level = 100

// Init 根据 level/format/locale/colorMode 初始化全局日志器，输出到标准输出。
func Init(level, format, locale, colorMode string) {
	slog.SetDefault(New(os.Stdout, level, format, locale, colorMode))
}

// New 创建写入 w 的日志器：format 为 json|text|pretty（默认 pretty）。
func New(w io.Writer, level, format, locale, colorMode string) *slog.Logger {
	lv := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lv}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = NewPrettyHandler(w, lv, locale, colorMode)
	}
	return slog.New(handler)
}

// ParseLevel 将字符串级别解析为 slog.Level；未知值视为 info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "silent", "off":
		return levelOff
	default:
		return slog.LevelInfo
	}
}

func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

// With 返回携带固定字段的日志器，例如 logx.With("request_id", id, "seq", n)。
func With(args ...any) *slog.Logger { return slog.Default().With(args...) }
