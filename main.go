// 命令行入口：
// - 解析 flags、.env、settings.yaml 与 rules.yaml
// - 初始化日志、HTTP 客户端、数据库或内存缓冲
// - 按需采集/导入帖子，随后加载仪表盘并输出表格、导出 JSON 或启动本地接口
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-social-dashboard/internal/analytics"
	"go-social-dashboard/internal/collect"
	"go-social-dashboard/internal/config"
	"go-social-dashboard/internal/dashboard"
	"go-social-dashboard/internal/export"
	"go-social-dashboard/internal/feeds"
	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/insight"
	"go-social-dashboard/internal/logx"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/pages"
	"go-social-dashboard/internal/report"
	"go-social-dashboard/internal/rules"
	"go-social-dashboard/internal/server"
	"go-social-dashboard/internal/store"
	"go-social-dashboard/internal/timeseries"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml")
		rulesPath  = flag.String("rules", "rules.yaml", "path to rules.yaml (optional)")
		envPath    = flag.String("env", ".env", "path to .env (optional)")
		mode       = flag.String("mode", "", "override MODE: remote|local")
		doCollect  = flag.Bool("collect", false, "collect posts from SOURCES before loading")
		importPath = flag.String("import", "", "import raw posts from a JSON / JSONL file")
		serveAddr  = flag.String("serve", "", "serve the local analytics API on this address, e.g. :5000")
		exportPath = flag.String("export", "", "export the loaded dashboard to this JSON file")
		discover   = flag.Bool("discover", false, "print what each source yields and exit")
		source     = flag.String("source", model.FilterAll, "platform filter")
		keyword    = flag.String("keyword", "", "keyword filter (also the AI topic)")
		days       = flag.Int("days", 7, "time range in days, 0 for all")
		sentiment  = flag.String("sentiment", model.FilterAll, "sentiment filter: all|positive|neutral|negative")
		page       = flag.Int("page", 1, "recent posts page")
	)
	flag.Parse()

	// 1) 加载 .env、配置与规则
	if err := config.LoadEnv(*envPath); err != nil {
		log.Printf("load env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	var rl *rules.Rules
	if *rulesPath != "" {
		if r, err := rules.Load(*rulesPath); err == nil {
			rl = r
		} else if !os.IsNotExist(err) {
			log.Printf("load rules failed: %v", err)
		}
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 初始化 HTTP 客户端（含代理与重试）
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Timeout(),
		Retry:      cfg.Concurrency.Retry,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *discover {
		runDiscover(ctx, cfg, cl, rl)
		return
	}

	// 4) 数据存储：极简模式使用内存缓冲；需要本地帖子时才打开数据库
	needLocal := cfg.Mode == config.ModeLocal || *doCollect || *importPath != "" || (*serveAddr != "" && len(cfg.Sources) > 0)
	var st *store.SQLite
	if needLocal && !cfg.SimpleMode {
		st, err = store.OpenSQLite(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer st.Close()
		if cfg.ResetOnStart {
			if err := st.Reset(ctx); err != nil {
				logx.Warnf("启动清理数据库失败：%v", err)
			} else {
				logx.Infof("已清理数据库表（sources/posts）")
			}
		}
	}
	run := collect.New(cfg, st, cl, rl)
	var data export.Data
	switch {
	case st != nil:
		data = st
	case needLocal:
		data = run.Buffer()
	}

	// 5) 导入与采集
	if *importPath != "" {
		if _, err := run.Import(ctx, *importPath); err != nil {
			logx.Errorf("导入失败：%v", err)
			os.Exit(1)
		}
	}
	if *doCollect {
		if _, err := run.Run(ctx); err != nil {
			logx.Errorf("采集失败：%v", err)
			os.Exit(1)
		}
	}

	// 6) 仪表盘编排
	gran, err := timeseries.ParseGranularity(cfg.Granularity)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	opts := dashboard.Options{
		Insights:             insight.New(cl, cfg.InsightAPIURL),
		PageSize:             cfg.PageSize,
		Granularity:          gran,
		Location:             cfg.Location(),
		Timeout:              cfg.Timeout(),
		StaleWhileRevalidate: cfg.StaleWhileRevalidate,
		DefaultTopic:         cfg.DefaultTopic,
	}
	if cfg.Mode == config.ModeRemote {
		opts.Remote = analytics.New(cl, cfg.AnalyticsAPIURL, cfg.Location())
	}
	if data != nil {
		opts.Posts = data
	}
	orch, err := dashboard.New(opts)
	if err != nil {
		log.Fatalf("dashboard: %v", err)
	}
	logx.Infof("仪表盘模式=%s 极简模式=%v", cfg.Mode, cfg.SimpleMode)

	// 7) 本地接口：定时采集与 HTTP 服务
	if *serveAddr != "" {
		sopts := server.Options{Dashboard: orch, Data: data}
		if len(cfg.Sources) > 0 {
			sopts.Collector = run
			go run.Loop(ctx, cfg.Interval())
		}
		if err := server.New(sopts).ListenAndServe(ctx, *serveAddr); err != nil {
			logx.Errorf("服务退出：%v", err)
			os.Exit(1)
		}
		return
	}

	// 8) 加载一次并输出
	f := model.FilterState{Source: *source, Keyword: *keyword, TimeRangeDays: *days, Sentiment: *sentiment, Page: *page}
	vm, err := orch.Load(ctx, f)
	if err != nil {
		logx.Errorf("加载仪表盘失败：%v", err)
		os.Exit(1)
	}
	if err := report.Render(os.Stdout, vm); err != nil {
		logx.Errorf("输出失败：%v", err)
	}
	if *exportPath != "" {
		if err := export.ToJSON(ctx, vm, data, *exportPath); err != nil {
			log.Fatalf("export json: %v", err)
		}
		logx.Infof("已导出 %s", *exportPath)
	}
}

// runDiscover 调试：逐个来源抓取并打印解析结果，不写入任何数据。
func runDiscover(ctx context.Context, cfg *config.Config, cl *fetch.Client, rl *rules.Rules) {
	if len(cfg.Sources) == 0 {
		logx.Warnf("未配置任何来源，请检查 SOURCES。")
		return
	}
	for _, src := range cfg.Sources {
		if src.Type == "page" {
			var preset rules.Preset
			if rl != nil {
				preset, _ = rl.GetPreset(src.Theme)
			}
			raws, err := pages.ParseListing(ctx, cl, src.URL, src.Platform, preset, cfg.MaxPostsNum)
			if err != nil {
				logx.Errorf("解析列表页失败：%s 错误=%v", src.URL, err)
				continue
			}
			logx.Infof("%s 解析到 %d 条帖子", src.URL, len(raws))
			for _, r := range raws {
				logx.Infof("- 作者=%v 时间=%v 链接=%v", r["author"], r["date"], r["url"])
			}
			continue
		}
		feedURL, err := feeds.DiscoverFeed(ctx, cl, src.URL, src.FeedSuffix)
		if err != nil {
			logx.Errorf("发现订阅失败：%s 错误=%v", src.URL, err)
			continue
		}
		raws, err := feeds.ParseFeed(ctx, cl, feedURL, src.Platform, cfg.MaxPostsNum)
		if err != nil {
			logx.Errorf("解析订阅失败：%s 错误=%v", feedURL, err)
			continue
		}
		logx.Infof("%s -> %s 解析到 %d 条帖子", src.URL, feedURL, len(raws))
	}
}
