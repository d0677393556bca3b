package timeseries

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-social-dashboard/internal/model"
)

// 分组维度。
const (
	DimensionNone     = "none"
	DimensionPlatform = "platform"
	// TotalDimension 为不分组时唯一的维度名。
	TotalDimension = "total"
)

// WarningAllInvalid 为输入非空但全部时间无效时的提示。
const WarningAllInvalid = "all posts have invalid timestamps"

// WarningRangeTooLarge 为稠密区间超过 MaxDenseBuckets 时的提示，此时只输出有数据的桶。
const WarningRangeTooLarge = "range too large for dense buckets"

// MaxDenseBuckets 为稠密模式最多补齐的桶数。
const MaxDenseBuckets = 10000

// Range 为稠密模式的闭区间。
type Range struct {
	Start time.Time
	End   time.Time
}

// Options 为分桶参数。
type Options struct {
	Granularity model.Granularity
	Dimension   string         // none|platform
	Location    *time.Location // 默认 UTC
	// Range 非空时输出稠密序列：区间内每个桶都出现，缺失计数补 0，区间外的帖子不计入。
	Range *Range
}

func (o Options) normalized() Options {
	if o.Granularity == "" {
		o.Granularity = model.Day
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Dimension == "" {
		o.Dimension = DimensionNone
	}
	return o
}

func (o Options) dimensionOf(p model.Post) string {
	if o.Dimension == DimensionPlatform {
		return p.Platform
	}
	return TotalDimension
}

// Aggregate 按粒度与维度分桶计数。纯函数：相同输入得到相同输出。
// 时间无效的帖子不参与分桶，计入 Skipped。
func Aggregate(posts []model.Post, opts Options) model.Series {
	opts = opts.normalized()
	s := model.Series{Granularity: opts.Granularity, Dimensions: []string{}, Buckets: []model.Bucket{}}
	if len(posts) == 0 {
		return s
	}

	type acc struct {
		start  time.Time
		counts map[string]int
	}
	byKey := map[string]*acc{}
	dims := map[string]struct{}{}
	var lo, hi time.Time
	if opts.Range != nil {
		lo = Start(opts.Range.Start, opts.Granularity, opts.Location)
		hi = Start(opts.Range.End, opts.Granularity, opts.Location)
	}
	valid := 0
	for _, p := range posts {
		if !p.HasTime() {
			s.Skipped++
			continue
		}
		valid++
		start := Start(p.CreatedAt, opts.Granularity, opts.Location)
		if opts.Range != nil && (start.Before(lo) || start.After(hi)) {
			continue
		}
		dim := opts.dimensionOf(p)
		dims[dim] = struct{}{}
		k := Key(start, opts.Granularity)
		a, ok := byKey[k]
		if !ok {
			a = &acc{start: start, counts: map[string]int{}}
			byKey[k] = a
		}
		a.counts[dim]++
	}
	if valid == 0 {
		s.Warning = WarningAllInvalid
		return s
	}
	if opts.Range != nil && !hi.Before(lo) && !denseFits(lo, hi, opts.Granularity) {
		s.Warning = WarningRangeTooLarge
	} else if opts.Range != nil && !hi.Before(lo) {
		if opts.Dimension == DimensionNone {
			dims[TotalDimension] = struct{}{}
		}
		for cur := lo; !cur.After(hi); cur = next(cur, opts.Granularity, opts.Location) {
			k := Key(cur, opts.Granularity)
			if _, ok := byKey[k]; !ok {
				byKey[k] = &acc{start: cur, counts: map[string]int{}}
			}
		}
	}

	for d := range dims {
		s.Dimensions = append(s.Dimensions, d)
	}
	sort.Strings(s.Dimensions)
	for k, a := range byKey {
		for _, d := range s.Dimensions {
			if _, ok := a.counts[d]; !ok {
				a.counts[d] = 0
			}
		}
		s.Buckets = append(s.Buckets, model.Bucket{Key: k, Start: a.start, Counts: a.counts})
	}
	sortBuckets(s.Buckets)
	return s
}

// denseFits 粗略估计 [lo, hi] 的桶数是否不超过 MaxDenseBuckets。
func denseFits(lo, hi time.Time, g model.Granularity) bool {
	unit := 24 * time.Hour
	switch g {
	case model.Hour:
		unit = time.Hour
	case model.Week:
		unit = 7 * 24 * time.Hour
	case model.Month:
		unit = 28 * 24 * time.Hour
	}
	return hi.Sub(lo)/unit < MaxDenseBuckets
}

func sortBuckets(b []model.Bucket) {
	sort.Slice(b, func(i, j int) bool {
		if !b[i].Start.Equal(b[j].Start) {
			return b[i].Start.Before(b[j].Start)
		}
		return b[i].Key < b[j].Key
	})
}

// FromChart 把上游已分好桶的图表数据转为 Series：
// 标签解析为时刻后按粒度重新归桶并排序，重复桶合并，无法解析的标签计入 Skipped。
func FromChart(c model.ChartData, g model.Granularity, loc *time.Location) model.Series {
	opts := Options{Granularity: g, Location: loc}.normalized()
	s := model.Series{Granularity: opts.Granularity, Dimensions: []string{}, Buckets: []model.Bucket{}}
	dims := make([]string, len(c.Datasets))
	seen := map[string]struct{}{}
	for i, ds := range c.Datasets {
		d := dimensionName(ds.Label)
		dims[i] = d
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			s.Dimensions = append(s.Dimensions, d)
		}
	}
	sort.Strings(s.Dimensions)

	byKey := map[string]*model.Bucket{}
	for li, label := range c.Labels {
		t, ok := parseLabel(label, opts.Location)
		if !ok {
			s.Skipped++
			continue
		}
		start := Start(t, opts.Granularity, opts.Location)
		k := Key(start, opts.Granularity)
		b, ok := byKey[k]
		if !ok {
			b = &model.Bucket{Key: k, Start: start, Counts: map[string]int{}}
			for _, d := range s.Dimensions {
				b.Counts[d] = 0
			}
			byKey[k] = b
		}
		for di, ds := range c.Datasets {
			if li < len(ds.Data) && ds.Data[li] > 0 {
				b.Counts[dims[di]] += int(math.Round(ds.Data[li]))
			}
		}
	}
	for _, b := range byKey {
		s.Buckets = append(s.Buckets, *b)
	}
	sortBuckets(s.Buckets)
	if len(c.Labels) > 0 && len(s.Buckets) == 0 {
		s.Warning = "no parseable labels"
	}
	return s
}

func dimensionName(label string) string {
	if label == "" {
		return TotalDimension
	}
	return cases.Lower(language.Und).String(label)
}

// ToChart 把 Series 转为图表结构：每个维度一条数据线，标签首字母大写。
func ToChart(s model.Series) model.ChartData {
	c := model.ChartData{Labels: make([]string, 0, len(s.Buckets)), Datasets: make([]model.Dataset, 0, len(s.Dimensions))}
	for _, b := range s.Buckets {
		c.Labels = append(c.Labels, b.Key)
	}
	title := cases.Title(language.Und)
	for _, d := range s.Dimensions {
		ds := model.Dataset{Label: title.String(d), Data: make([]float64, 0, len(s.Buckets))}
		for _, b := range s.Buckets {
			ds.Data = append(ds.Data, float64(b.Counts[d]))
		}
		c.Datasets = append(c.Datasets, ds)
	}
	return c
}

// Engagement 计算每个时间桶内的平均点赞/转发/评论数。
func Engagement(posts []model.Post, opts Options) model.ChartData {
	opts = opts.normalized()
	type sums struct {
		start                   time.Time
		n, likes, shares, comms int
	}
	byKey := map[string]*sums{}
	for _, p := range posts {
		if !p.HasTime() {
			continue
		}
		start := Start(p.CreatedAt, opts.Granularity, opts.Location)
		k := Key(start, opts.Granularity)
		a, ok := byKey[k]
		if !ok {
			a = &sums{start: start}
			byKey[k] = a
		}
		a.n++
		a.likes += p.Likes
		a.shares += p.Shares
		a.comms += p.Comments
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return byKey[keys[i]].start.Before(byKey[keys[j]].start) })

	likes := model.Dataset{Label: "Avg Likes", Data: []float64{}}
	shares := model.Dataset{Label: "Avg Shares", Data: []float64{}}
	comms := model.Dataset{Label: "Avg Comments", Data: []float64{}}
	for _, k := range keys {
		a := byKey[k]
		n := float64(a.n)
		likes.Data = append(likes.Data, round2(float64(a.likes)/n))
		shares.Data = append(shares.Data, round2(float64(a.shares)/n))
		comms.Data = append(comms.Data, round2(float64(a.comms)/n))
	}
	return model.ChartData{Labels: keys, Datasets: []model.Dataset{likes, shares, comms}}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
