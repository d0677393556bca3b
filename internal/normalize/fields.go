package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/model"
)

// 支持的时间格式；无时区的格式按 Normalizer 的时区解释。
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// 大于该值的数值时间戳视为毫秒。
const millisThreshold = 1e12

// maxUnixMillis 之后的数值时间戳视为无效（约公元 33000 年）。
const maxUnixMillis = 1e15

// first 返回第一个存在且非 nil 的别名字段。
func first(raw Raw, keys []string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, k, true
		}
	}
	return nil, "", false
}

func firstString(raw Raw, keys []string) string {
	v, _, ok := first(raw, keys)
	if !ok {
		return ""
	}
	return toString(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// toFloat 将 JSON 常见数值形态（含数字字符串）转为 float64。
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// parseTime 解析时间：字符串按 timeLayouts 依次尝试，数值按 unix 秒/毫秒。
func parseTime(v any, loc *time.Location) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return time.Time{}, errors.New("zero time")
		}
		return t, nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return time.Time{}, fmt.Errorf("unparseable time %q", s)
		}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 || math.IsNaN(f) || f >= maxUnixMillis {
		return time.Time{}, fmt.Errorf("unparseable time %v", v)
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)).In(loc), nil
	}
	return time.Unix(int64(f), 0).In(loc), nil
}

// maxCount 为单个计数字段的上限，超出的值截断并记录输入错误。
const maxCount = math.MaxInt32

// countOf 读取计数字段：缺失为 0；负数或非数字置 0 并记录输入错误。
func countOf(raw Raw, keys []string, issues *[]string) int {
	v, key, ok := first(raw, keys)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		*issues = append(*issues, apperr.Inputf(key, "non-numeric count %v", v).Error())
		return 0
	}
	if f < 0 {
		*issues = append(*issues, apperr.Inputf(key, "negative count %v", f).Error())
		return 0
	}
	if f > maxCount {
		*issues = append(*issues, apperr.Inputf(key, "count %v out of range", f).Error())
		return maxCount
	}
	return int(f)
}

// sentimentOf 将各种情感表示统一为 0-10 分：
//   - sentiment_score 落在 [-1,1] 时视为极性，映射为 x*5+5
//   - 其余数值截断到 [0,10]
//   - 标签字符串映射为代表分数
//   - 均缺失时为中性 5
//
// 数值与标签同时存在且类别不一致时以标签为准。
func sentimentOf(raw Raw, issues *[]string) float64 {
	var (
		score    float64
		hasScore bool
		label    model.SentimentLabel
		hasLabel bool
	)
	if v, ok := raw["sentiment_score"]; ok && v != nil {
		if f, ok := toFloat(v); ok {
			if f >= -1 && f <= 1 {
				score = f*5 + 5
			} else {
				score = clamp(f, 0, 10)
			}
			hasScore = true
		} else {
			*issues = append(*issues, apperr.Inputf("sentiment_score", "non-numeric %v", v).Error())
		}
	}
	if !hasScore {
		if v, ok := raw["sentimentScore"]; ok && v != nil {
			if f, ok := toFloat(v); ok {
				score, hasScore = clamp(f, 0, 10), true
			} else {
				*issues = append(*issues, apperr.Inputf("sentimentScore", "non-numeric %v", v).Error())
			}
		}
	}
	if v, ok := raw["sentiment"]; ok && v != nil {
		if s, isStr := v.(string); isStr {
			if l, ok := model.ParseLabel(s); ok {
				label, hasLabel = l, true
			} else if f, ok := toFloat(s); ok && !hasScore {
				score, hasScore = clamp(f, 0, 10), true
			} else if !ok {
				*issues = append(*issues, apperr.Inputf("sentiment", "unknown label %q", s).Error())
			}
		} else if f, ok := toFloat(v); ok && !hasScore {
			score, hasScore = clamp(f, 0, 10), true
		}
	}
	switch {
	case hasLabel && hasScore && model.LabelForScore(score) != label:
		return model.ScoreForLabel(label)
	case hasScore:
		return score
	case hasLabel:
		return model.ScoreForLabel(label)
	default:
		return model.NeutralScore
	}
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
