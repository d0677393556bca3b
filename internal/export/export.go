// 包 export 负责导出：将当前仪表盘视图与本地数据写为 JSON 文件。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go-social-dashboard/internal/model"
)

// Data 为本地数据来源（SQLite 或内存缓冲）。
type Data interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListSources(ctx context.Context) ([]model.SourceStatus, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Build 组装导出结构；vm 与 data 均可为 nil。
func Build(ctx context.Context, vm *model.DashboardViewModel, data Data) (model.Export, error) {
	out := model.Export{ExportedAt: time.Now(), Dashboard: vm}
	if data == nil {
		return out, nil
	}
	if err := fromData(ctx, data, &out); err != nil {
		return model.Export{}, err
	}
	return out, nil
}

// ToJSON 组装导出结构并写入文件（带缩进格式）。
func ToJSON(ctx context.Context, vm *model.DashboardViewModel, data Data, path string) error {
	out, err := Build(ctx, vm, data)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(f, out); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}

// Write 以缩进 JSON 写出。
func Write(w io.Writer, e model.Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
