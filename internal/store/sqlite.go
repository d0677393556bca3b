// 包 store 提供本地帖子存储（SQLite），包含表迁移/写入/查询/清理等操作。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go-social-dashboard/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空业务数据表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	for _, table := range []string{"posts", "sources"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sources (
            url TEXT PRIMARY KEY,
            name TEXT,
            type TEXT,
            platform TEXT,
            posts INTEGER,
            error TEXT,
            collected_at TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS posts (
            platform TEXT NOT NULL,
            id TEXT NOT NULL,
            content TEXT,
            author TEXT,
            url TEXT,
            created_at TIMESTAMP,
            likes INTEGER,
            shares INTEGER,
            comments INTEGER,
            views INTEGER,
            sentiment REAL,
            hashtags TEXT,
            keywords TEXT,
            invalid INTEGER,
            issues TEXT,
            collected_at TIMESTAMP,
            PRIMARY KEY (platform, id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// execer 为 *sql.DB 与 *sql.Tx 的公共子集。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertPost 插入或更新帖子（platform+id 唯一）。时间统一以 UTC 存储。
func (s *SQLite) UpsertPost(ctx context.Context, p model.Post) error {
	return upsertPost(ctx, s.db, p)
}

// UpsertPosts 在单个事务内批量写入，返回写入条数。
func (s *SQLite) UpsertPosts(ctx context.Context, posts []model.Post) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	for _, p := range posts {
		if err := upsertPost(ctx, tx, p); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit posts: %w", err)
	}
	return len(posts), nil
}

func upsertPost(ctx context.Context, db execer, p model.Post) error {
	if p.ID == "" || p.Platform == "" {
		return errors.New("post.id and post.platform required")
	}
	hashtags, keywords, issues, err := encodeLists(p)
	if err != nil {
		return fmt.Errorf("encode post %s/%s: %w", p.Platform, p.ID, err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO posts(platform, id, content, author, url, created_at, likes, shares, comments, views,
            sentiment, hashtags, keywords, invalid, issues, collected_at)
        VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(platform, id) DO UPDATE SET content=excluded.content, author=excluded.author, url=excluded.url,
            created_at=excluded.created_at, likes=excluded.likes, shares=excluded.shares, comments=excluded.comments,
            views=excluded.views, sentiment=excluded.sentiment, hashtags=excluded.hashtags, keywords=excluded.keywords,
            invalid=excluded.invalid, issues=excluded.issues, collected_at=excluded.collected_at`,
		p.Platform, p.ID, p.Content, p.Author, p.URL, nullTime(p.CreatedAt), p.Likes, p.Shares, p.Comments, p.Views,
		p.Sentiment, hashtags, keywords, p.Invalid, issues, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert post %s/%s: %w", p.Platform, p.ID, err)
	}
	return nil
}

// ListPosts 返回全部帖子，按发布时间倒序（时间无效的在最后）。
func (s *SQLite) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT platform, id, COALESCE(content,''), COALESCE(author,''), COALESCE(url,''),
            created_at, likes, shares, comments, views, sentiment, COALESCE(hashtags,''), COALESCE(keywords,''),
            invalid, COALESCE(issues,'')
        FROM posts ORDER BY created_at IS NULL, created_at DESC, platform, id`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()
	out := []model.Post{}
	for rows.Next() {
		var p model.Post
		var created sql.NullTime
		var hashtags, keywords, issues string
		if err := rows.Scan(&p.Platform, &p.ID, &p.Content, &p.Author, &p.URL, &created, &p.Likes, &p.Shares,
			&p.Comments, &p.Views, &p.Sentiment, &hashtags, &keywords, &p.Invalid, &issues); err != nil {
			return nil, fmt.Errorf("scan posts: %w", err)
		}
		if created.Valid {
			p.CreatedAt = created.Time.UTC()
		}
		if err := decodeLists(&p, hashtags, keywords, issues); err != nil {
			return nil, fmt.Errorf("decode post %s/%s: %w", p.Platform, p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

// UpsertSource 记录来源最近一次采集结果（url 唯一）。
func (s *SQLite) UpsertSource(ctx context.Context, st model.SourceStatus) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sources(url, name, type, platform, posts, error, collected_at)
        VALUES(?,?,?,?,?,?,?)
        ON CONFLICT(url) DO UPDATE SET name=excluded.name, type=excluded.type, platform=excluded.platform,
            posts=excluded.posts, error=excluded.error, collected_at=excluded.collected_at`,
		st.URL, st.Name, st.Type, st.Platform, st.Posts, st.Error, nowOr(st.CollectedAt).UTC())
	if err != nil {
		return fmt.Errorf("upsert source %s: %w", st.URL, err)
	}
	return nil
}

// ListSources 返回全部来源状态，按名称排序。
func (s *SQLite) ListSources(ctx context.Context) ([]model.SourceStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, COALESCE(name,''), COALESCE(type,''), COALESCE(platform,''),
            COALESCE(posts,0), COALESCE(error,''), collected_at FROM sources ORDER BY name, url`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()
	var out []model.SourceStatus
	for rows.Next() {
		var st model.SourceStatus
		var collected sql.NullTime
		if err := rows.Scan(&st.URL, &st.Name, &st.Type, &st.Platform, &st.Posts, &st.Error, &collected); err != nil {
			return nil, fmt.Errorf("scan sources: %w", err)
		}
		if collected.Valid {
			st.CollectedAt = collected.Time.UTC()
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return out, nil
}

// Stats 统计汇总：来源总数/正常数/异常数、帖子总数/时间无效数。
func (s *SQLite) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sources`).Scan(&st.SourcesTotal); err != nil {
		return st, fmt.Errorf("count sources: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sources WHERE (error IS NULL OR error = '')`).Scan(&st.SourcesAlive); err != nil {
		return st, fmt.Errorf("count sources alive: %w", err)
	}
	st.SourcesError = st.SourcesTotal - st.SourcesAlive
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(invalid),0) FROM posts`).Scan(&st.PostsTotal, &st.InvalidPosts); err != nil {
		return st, fmt.Errorf("count posts: %w", err)
	}
	st.UpdatedAt = time.Now()
	return st, nil
}

// CleanOldPosts 按天数阈值清理过期帖子（基于发布时间）；返回删除条数。
func (s *SQLite) CleanOldPosts(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE created_at IS NOT NULL AND created_at < ?`,
		time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		return 0, fmt.Errorf("clean old posts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func encodeLists(p model.Post) (string, string, string, error) {
	var out [3]string
	for i, v := range []any{p.Hashtags, p.Keywords, p.Issues} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", "", err
		}
		if s := string(b); s != "null" {
			out[i] = s
		}
	}
	return out[0], out[1], out[2], nil
}

func decodeLists(p *model.Post, hashtags, keywords, issues string) error {
	if strings.TrimSpace(hashtags) != "" {
		if err := json.Unmarshal([]byte(hashtags), &p.Hashtags); err != nil {
			return fmt.Errorf("hashtags: %w", err)
		}
	}
	if strings.TrimSpace(keywords) != "" {
		if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
	}
	if strings.TrimSpace(issues) != "" {
		if err := json.Unmarshal([]byte(issues), &p.Issues); err != nil {
			return fmt.Errorf("issues: %w", err)
		}
	}
	return nil
}

// nullTime 将零值时间存为 NULL。
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
