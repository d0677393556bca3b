package filter

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/model"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// sample 生成 6 条 twitter、4 条 facebook 帖子，时间逐小时递减。
func sample() []model.Post {
	var out []model.Post
	for i := 0; i < 10; i++ {
		platform := "twitter"
		if i >= 6 {
			platform = "Facebook"
		}
		out = append(out, model.Post{
			ID:        fmt.Sprintf("p%d", i),
			Platform:  platform,
			Content:   fmt.Sprintf("post %d about GoLang", i),
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			Sentiment: float64(i),
		})
	}
	return out
}

func all() model.FilterState {
	f := model.DefaultFilterState()
	f.TimeRangeDays = 0
	return f
}

func TestApply_SourceScenario(t *testing.T) {
	posts := sample()
	f := all()
	f.Source = "twitter"
	assert.Len(t, Apply(posts, f, now), 6)

	f.Source = "FACEBOOK"
	assert.Len(t, Apply(posts, f, now), 4)

	f.Source = "all"
	withAll := Apply(posts, f, now)
	f.Source = ""
	assert.Equal(t, withAll, Apply(posts, f, now))
	assert.Len(t, withAll, 10)
}

func TestApply_SentimentOnlyMatching(t *testing.T) {
	f := all()
	f.Sentiment = "positive"
	got := Apply(sample(), f, now)
	require.Len(t, got, 3)
	for _, p := range got {
		assert.Equal(t, model.Positive, p.SentimentLabel())
	}

	f.Sentiment = "ecstatic"
	assert.Empty(t, Apply(sample(), f, now))
}

func TestApply_KeywordCaseInsensitive(t *testing.T) {
	f := all()
	f.Keyword = "golang"
	assert.Len(t, Apply(sample(), f, now), 10)
	f.Keyword = "POST 3"
	got := Apply(sample(), f, now)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
	f.Keyword = "All"
	assert.Len(t, Apply(sample(), f, now), 10)
}

func TestApply_TimeRangeAndInvalid(t *testing.T) {
	posts := append(sample(),
		model.Post{ID: "old", Platform: "twitter", CreatedAt: now.AddDate(0, 0, -8)},
		model.Post{ID: "bad", Platform: "twitter", Invalid: true},
	)
	f := model.DefaultFilterState()
	got := Apply(posts, f, now)
	assert.Len(t, got, 10)

	f.TimeRangeDays = 0
	got = Apply(posts, f, now)
	require.Len(t, got, 12)
	assert.Equal(t, "bad", got[len(got)-1].ID)
	assert.Equal(t, "old", got[len(got)-2].ID)
}

func TestApply_SortedAndNotMutated(t *testing.T) {
	posts := sample()
	posts[0], posts[9] = posts[9], posts[0]
	before := append([]model.Post(nil), posts...)
	got := Apply(posts, all(), now)
	assert.Equal(t, before, posts)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
	assert.Equal(t, "p0", got[0].ID)
}

func TestPaginate_ConcatenationReproducesList(t *testing.T) {
	filtered := Apply(sample(), all(), now)
	for _, size := range []int{1, 3, 4, 5, 10, 11} {
		first := Paginate(filtered, 1, size)
		var joined []model.Post
		for page := 1; page <= first.TotalPages; page++ {
			joined = append(joined, Paginate(filtered, page, size).Items...)
		}
		assert.Equal(t, filtered, joined, "size=%d", size)
	}
}

func TestPaginate_Edges(t *testing.T) {
	posts := sample()

	pg := Paginate(posts, 5, 5)
	assert.Equal(t, 2, pg.TotalPages)
	assert.NotNil(t, pg.Items)
	assert.Empty(t, pg.Items)

	pg = Paginate(posts, 0, 5)
	assert.Equal(t, 1, pg.Page)
	assert.Len(t, pg.Items, 5)

	pg = Paginate(posts, 2, 0)
	assert.Equal(t, DefaultPageSize, pg.PageSize)
	assert.Equal(t, "p5", pg.Items[0].ID)

	pg = Paginate(posts[:3], math.MaxInt/2, 5)
	assert.Equal(t, 1, pg.TotalPages)
	assert.Empty(t, pg.Items)

	pg = Paginate(nil, 1, 5)
	assert.Equal(t, 0, pg.TotalPages)
	assert.Equal(t, 0, pg.TotalItems)
	assert.Empty(t, pg.Items)
}

func TestPrevious_Window(t *testing.T) {
	posts := []model.Post{
		{ID: "cur", Platform: "twitter", CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "prev", Platform: "twitter", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "prev-fb", Platform: "facebook", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "ancient", Platform: "twitter", CreatedAt: now.AddDate(0, 0, -20)},
	}
	f := model.DefaultFilterState()
	f.Source = "twitter"
	got := Previous(posts, f, now)
	require.Len(t, got, 1)
	assert.Equal(t, "prev", got[0].ID)

	f.TimeRangeDays = 0
	assert.Nil(t, Previous(posts, f, now))
}
