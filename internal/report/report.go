// 包 report 把仪表盘视图渲染为终端表格。
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"go-social-dashboard/internal/model"
)

// previewRunes 为表格中正文的最大显示字符数。
const previewRunes = 60

// newTable 创建无边框、左对齐的表格。
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

// Render 依次输出各面板；失败的面板输出错误信息而不是数据。
func Render(w io.Writer, vm *model.DashboardViewModel) error {
	f := vm.Filter
	fmt.Fprintf(w, "Dashboard  source=%s keyword=%q days=%d sentiment=%s page=%d  generated=%s\n",
		f.Source, f.Keyword, f.TimeRangeDays, f.Sentiment, f.Page, vm.GeneratedAt.Format(time.RFC3339))
	if vm.Stale {
		fmt.Fprintln(w, "(showing stale data: latest refresh failed)")
	}

	sections := []struct {
		title string
		panel model.Panel
		body  func(io.Writer, *model.DashboardViewModel) error
	}{
		{"Key Metrics", model.PanelMetrics, metrics},
		{"Sentiment Distribution", model.PanelSentiment, sentiment},
		{"Platform Distribution", model.PanelPlatforms, platforms},
		{"Activity", model.PanelActivity, activity},
		{"Top Hashtags", model.PanelTopHashtags, topics},
		{"Top Words", model.PanelWordCloud, words},
		{"Recent Posts", model.PanelRecentPosts, recentPosts},
		{"Top Posts", model.PanelTopPosts, topPosts},
		{"Trending Summary", model.PanelSummary, text(func(vm *model.DashboardViewModel) string { return vm.TrendingSummary })},
		{"Sentiment Insight", model.PanelInsight, text(func(vm *model.DashboardViewModel) string { return vm.SentimentInsight })},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n== %s ==\n", s.title)
		st, ok := vm.Panels[s.panel]
		if ok && st.Status == model.StatusError {
			fmt.Fprintf(w, "  ! unavailable: %s\n", st.Error)
			continue
		}
		if ok && st.Status == model.StatusStale {
			fmt.Fprintln(w, "  (stale)")
		}
		if err := s.body(w, vm); err != nil {
			return fmt.Errorf("render %s: %w", s.panel, err)
		}
	}
	return nil
}

func render(t *tablewriter.Table, header []string, rows [][]string) error {
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

func metrics(w io.Writer, vm *model.DashboardViewModel) error {
	m := vm.Metrics
	rows := [][]string{
		{"Total Posts", num(m.Posts.Total), change(m.Posts)},
		{"Engagement Rate", num(m.EngagementRate.Total), change(m.EngagementRate)},
		{"Sentiment Score", num(m.SentimentScore.Total) + "/10", change(m.SentimentScore)},
		{"Reach", num(m.Reach.Total), change(m.Reach)},
	}
	return render(newTable(w), []string{"Metric", "Value", "Change"}, rows)
}

func sentiment(w io.Writer, vm *model.DashboardViewModel) error {
	d := vm.Sentiment
	total := d.Total()
	rows := [][]string{
		{string(model.Positive), strconv.Itoa(d.Positive), percent(d.Positive, total)},
		{string(model.Neutral), strconv.Itoa(d.Neutral), percent(d.Neutral, total)},
		{string(model.Negative), strconv.Itoa(d.Negative), percent(d.Negative, total)},
	}
	return render(newTable(w), []string{"Sentiment", "Posts", "Share"}, rows)
}

func platforms(w io.Writer, vm *model.DashboardViewModel) error {
	total := 0
	for _, n := range vm.Platforms.Data {
		total += n
	}
	rows := make([][]string, 0, len(vm.Platforms.Labels))
	for i, label := range vm.Platforms.Labels {
		n := 0
		if i < len(vm.Platforms.Data) {
			n = vm.Platforms.Data[i]
		}
		rows = append(rows, []string{label, strconv.Itoa(n), percent(n, total)})
	}
	return render(newTable(w), []string{"Platform", "Posts", "Share"}, rows)
}

// activity 每个时间桶一行，各数据集一列。
func activity(w io.Writer, vm *model.DashboardViewModel) error {
	header := []string{"Period"}
	for _, ds := range vm.Activity.Datasets {
		header = append(header, ds.Label)
	}
	rows := make([][]string, 0, len(vm.Activity.Labels))
	for i, label := range vm.Activity.Labels {
		row := []string{label}
		for _, ds := range vm.Activity.Datasets {
			v := 0.0
			if i < len(ds.Data) {
				v = ds.Data[i]
			}
			row = append(row, num(v))
		}
		rows = append(rows, row)
	}
	return render(newTable(w), header, rows)
}

func topics(w io.Writer, vm *model.DashboardViewModel) error {
	rows := make([][]string, 0, len(vm.TopHashtags))
	for _, t := range vm.TopHashtags {
		rows = append(rows, []string{"#" + t.Name, strconv.Itoa(t.Posts), strconv.Itoa(t.Engagement), num(t.Sentiment), t.Trend})
	}
	return render(newTable(w), []string{"Hashtag", "Posts", "Engagement", "Sentiment", "Trend"}, rows)
}

func words(w io.Writer, vm *model.DashboardViewModel) error {
	parts := make([]string, 0, len(vm.WordCloud))
	for _, wc := range vm.WordCloud {
		parts = append(parts, fmt.Sprintf("%s(%d)", wc.Text, wc.Value))
	}
	if len(parts) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	_, err := fmt.Fprintln(w, "  "+strings.Join(parts, " "))
	return err
}

func postRows(posts []model.Post) [][]string {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		date := "-"
		if p.HasTime() {
			date = p.CreatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			date, p.Platform, p.Author, string(p.SentimentLabel()),
			strconv.Itoa(p.Likes), strconv.Itoa(p.Shares), strconv.Itoa(p.Comments), preview(p.Content),
		})
	}
	return rows
}

var postHeader = []string{"Date", "Platform", "Author", "Sentiment", "Likes", "Shares", "Comments", "Content"}

func recentPosts(w io.Writer, vm *model.DashboardViewModel) error {
	pg := vm.RecentPosts
	if err := render(newTable(w), postHeader, postRows(pg.Items)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "  page %d/%d (%d posts)\n", pg.Page, pg.TotalPages, pg.TotalItems)
	return err
}

func topPosts(w io.Writer, vm *model.DashboardViewModel) error {
	return render(newTable(w), postHeader, postRows(vm.TopPosts))
}

func text(get func(*model.DashboardViewModel) string) func(io.Writer, *model.DashboardViewModel) error {
	return func(w io.Writer, vm *model.DashboardViewModel) error {
		s := strings.TrimSpace(get(vm))
		if s == "" {
			s = "(empty)"
		}
		_, err := fmt.Fprintln(w, "  "+s)
		return err
	}
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func change(m model.Metric) string {
	c := m.DisplayChange()
	if c > 0 {
		return "+" + num(c) + "%"
	}
	return num(c) + "%"
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64) + "%"
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}
