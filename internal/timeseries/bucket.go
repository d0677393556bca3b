// 包 timeseries 负责把帖子按时间粒度分桶，产出按时间升序、键唯一的序列，
// 以及与图表结构（labels + datasets）之间的互相转换。
package timeseries

import (
	"fmt"
	"strings"
	"time"

	"go-social-dashboard/internal/model"
)

// 桶键格式均为定长，字典序与时间序一致；唯一例外是夏令时回拨重复的小时，
// 其键附加时区偏移，排序以桶起始时刻为准。
const (
	hourKey       = "2006-01-02T15:00"
	hourOffsetKey = "2006-01-02T15:00-07:00"
	dayKey        = "2006-01-02"
	monthKey      = "2006-01"
)

// ParseGranularity 解析粒度字符串，未知值返回错误。
func ParseGranularity(s string) (model.Granularity, error) {
	switch g := model.Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case model.Hour, model.Day, model.Week, model.Month:
		return g, nil
	case "":
		return model.Day, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Start 返回 t 在 loc 时区下所属桶的起始时刻。周桶以周一为起点。
func Start(t time.Time, g model.Granularity, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	y, m, d := t.Date()
	switch g {
	case model.Hour:
		// 按绝对时间截掉分秒，夏令时回拨时两个同名小时保持为不同的桶
		return t.Add(-(time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())))
	case model.Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case model.Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Key 返回桶起始时刻对应的键。夏令时回拨重复出现的小时在键后附加时区偏移。
func Key(start time.Time, g model.Granularity) string {
	switch g {
	case model.Hour:
		if repeatedHour(start) {
			return start.Format(hourOffsetKey)
		}
		return start.Format(hourKey)
	case model.Month:
		return start.Format(monthKey)
	default:
		return start.Format(dayKey)
	}
}

// repeatedHour 判断 t 所在的本地小时是否在当天出现两次。
func repeatedHour(t time.Time) bool {
	same := func(u time.Time) bool {
		u = u.In(t.Location())
		return u.Hour() == t.Hour() && u.YearDay() == t.YearDay() && u.Year() == t.Year()
	}
	return same(t.Add(-time.Hour)) || same(t.Add(time.Hour))
}

// next 返回下一个桶的起始时刻。小时按绝对时间推进，其余按日历推进。
func next(start time.Time, g model.Granularity, loc *time.Location) time.Time {
	switch g {
	case model.Hour:
		if n := Start(start.Add(time.Hour), g, loc); n.After(start) {
			return n
		}
		return start.Add(time.Hour)
	case model.Week:
		return start.AddDate(0, 0, 7)
	case model.Month:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// parseLabel 解析上游图表标签为时刻。
func parseLabel(label string, loc *time.Location) (time.Time, bool) {
	label = strings.TrimSpace(label)
	for _, layout := range []string{time.RFC3339, hourOffsetKey, hourKey, "2006-01-02 15:04", "2006-01-02 15:00", dayKey, monthKey} {
		if t, err := time.ParseInLocation(layout, label, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
