package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go-social-dashboard/internal/model"
)

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// 关键词最短长度（按字符计）。
const minKeywordLen = 3

var stopwords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her", "was", "one",
	"our", "out", "day", "get", "has", "him", "his", "how", "man", "new", "now", "old", "see", "two",
	"way", "who", "boy", "did", "its", "let", "put", "say", "she", "too", "use", "that", "with",
	"have", "this", "will", "your", "from", "they", "know", "want", "been", "good", "much", "some",
	"time", "very", "when", "come", "here", "just", "like", "long", "make", "many", "more", "only",
	"over", "such", "take", "than", "them", "well", "were", "what", "about", "after", "again",
	"also", "into", "their", "there", "these", "those", "which", "while", "would", "could", "should",
	"being", "because", "where", "then", "each", "other", "does", "doing", "https", "http", "www",
	"com", "amp", "via", "rt",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopword 判断是否为停用词（小写比较）。
func IsStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

// ExtractHashtags 从正文中抽取 #话题，统一小写并计数。
func ExtractHashtags(content string) []model.Term {
	counts := map[string]int{}
	for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
		counts[strings.ToLower(m[1])]++
	}
	return sortedTerms(counts)
}

// ExtractKeywords 分词后去除停用词、纯数字、过短词与话题标签，统一小写并计数。
func ExtractKeywords(content string) []model.Term {
	content = hashtagRe.ReplaceAllString(content, " ")
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	}) {
		tok = strings.Trim(tok, "'")
		if len([]rune(tok)) < minKeywordLen || isNumeric(tok) || IsStopword(tok) {
			continue
		}
		counts[tok]++
	}
	return sortedTerms(counts)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// termsOf 解析给定的词项列表：字符串数组、{text,count} 对象数组或逗号分隔字符串。
func termsOf(v any, hashtag bool) []model.Term {
	counts := map[string]int{}
	add := func(s string, n int) {
		s = strings.ToLower(strings.TrimSpace(s))
		if hashtag {
			s = strings.TrimLeft(s, "#")
		}
		if s == "" {
			return
		}
		if n <= 0 {
			n = 1
		}
		counts[s] += n
	}
	switch t := v.(type) {
	case string:
		for _, s := range strings.Split(t, ",") {
			add(s, 1)
		}
	case []string:
		for _, s := range t {
			add(s, 1)
		}
	case []any:
		for _, it := range t {
			switch e := it.(type) {
			case string:
				add(e, 1)
			case map[string]any:
				n := 1
				if f, ok := toFloat(e["count"]); ok {
					n = int(f)
				} else if f, ok := toFloat(e["value"]); ok {
					n = int(f)
				}
				add(firstString(e, []string{"text", "name", "tag"}), n)
			}
		}
	}
	return sortedTerms(counts)
}

// sortedTerms 按次数降序、文本升序输出，保证结果确定。
func sortedTerms(counts map[string]int) []model.Term {
	if len(counts) == 0 {
		return nil
	}
	out := make([]model.Term, 0, len(counts))
	for k, v := range counts {
		out = append(out, model.Term{Text: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	return out
}
