package collect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/logx"
	"go-social-dashboard/internal/normalize"
)

// ReadRaw 读取原始帖子文件，支持三种形态：
// - JSON 数组
// - 含 posts 或 recentPosts 数组的 JSON 对象
// - JSONL（每行一个对象，空行忽略）
func ReadRaw(rd io.Reader) ([]normalize.Raw, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var out []normalize.Raw
		if err := decode(trimmed, &out); err != nil {
			return nil, apperr.New(apperr.Shape, "import", err)
		}
		return out, nil
	case '{':
		var wrap map[string]json.RawMessage
		if err := decode(trimmed, &wrap); err == nil {
			for _, key := range []string{"posts", "recentPosts"} {
				if msg, ok := wrap[key]; ok {
					var out []normalize.Raw
					if err := decode(msg, &out); err != nil {
						return nil, apperr.Shapef("import", key, "%v", err)
					}
					return out, nil
				}
			}
		}
	}
	return readLines(trimmed)
}

func readLines(b []byte) ([]normalize.Raw, error) {
	var out []normalize.Raw
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw normalize.Raw
		if err := decode(text, &raw); err != nil {
			return nil, apperr.Shapef("import", fmt.Sprintf("line %d", line), "%v", err)
		}
		out = append(out, raw)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan import: %w", err)
	}
	return out, nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}

// Import 读取文件中的原始帖子，归一化后写入。单条记录的问题不会中断导入。
func (r *Runner) Import(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open import %s: %w", path, err)
	}
	defer f.Close()
	raws, err := ReadRaw(f)
	if err != nil {
		return Report{}, fmt.Errorf("import %s: %w", path, err)
	}
	posts, invalid := r.norm.Batch(raws)
	n, err := r.sink.UpsertPosts(ctx, posts)
	if err != nil {
		return Report{}, fmt.Errorf("save import %s: %w", path, err)
	}
	logx.Infof("导入完成：%s 记录=%d 写入=%d 时间无效=%d", path, len(raws), n, invalid)
	return Report{Posts: n, Invalid: invalid}, nil
}
