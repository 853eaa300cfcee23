package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// ============================================================================
// SQLite Entity Store
// ============================================================================

// SQLiteEntityStore SQLite 实体存储
//
// 基于 SQLite 的持久化实体存储，适用于生产环境。
// 分片与关系分表存储，关系带位置列以保持声明顺序。
type SQLiteEntityStore struct {
	db   *sql.DB
	hook MutationHook
	mu   sync.RWMutex
}

// NewSQLiteEntityStore 创建 SQLite 实体存储
func NewSQLiteEntityStore(dbPath string) (*SQLiteEntityStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteEntityStore{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

// initSchema 初始化表结构
func (s *SQLiteEntityStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS shards (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		name TEXT,
		data TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);
	CREATE TABLE IF NOT EXISTS shard_relationships (
		tenant_id TEXT NOT NULL,
		shard_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		rel_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		PRIMARY KEY (tenant_id, shard_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_shard_rel_type ON shard_relationships(tenant_id, shard_id, rel_type);
	`

	_, err := s.db.Exec(query)
	return err
}

// PutShard 写入或更新分片，递增版本号
func (s *SQLiteEntityStore) PutShard(ctx context.Context, sh *shard.Shard) error {
	if sh == nil || sh.ID == "" || sh.TenantID == "" {
		return ErrInvalidInput
	}

	data, err := json.Marshal(sh.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()

	var version int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM shards WHERE tenant_id = ? AND id = ?`,
		sh.TenantID, sh.ID,
	).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		version = 1
	case err != nil:
		return err
	default:
		version++
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO shards (id, tenant_id, type_id, name, data, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(tenant_id, id) DO UPDATE SET
		type_id = excluded.type_id,
		name = excluded.name,
		data = excluded.data,
		version = excluded.version,
		updated_at = excluded.updated_at
	`, sh.ID, sh.TenantID, sh.TypeID, sh.Name, string(data), version, now, now)
	if err != nil {
		return err
	}

	// 重写关系列表
	_, err = tx.ExecContext(ctx,
		`DELETE FROM shard_relationships WHERE tenant_id = ? AND shard_id = ?`,
		sh.TenantID, sh.ID,
	)
	if err != nil {
		return err
	}

	for i, rel := range sh.Relationships {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO shard_relationships (tenant_id, shard_id, position, rel_type, target_id)
		VALUES (?, ?, ?, ?, ?)
		`, sh.TenantID, sh.ID, i, rel.Type, rel.TargetID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	sh.Version = version

	s.mu.RLock()
	hook := s.hook
	s.mu.RUnlock()
	if hook != nil {
		hook(sh.TenantID, sh.ID)
	}
	return nil
}

// DeleteShard 删除分片
func (s *SQLiteEntityStore) DeleteShard(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shards WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM shard_relationships WHERE tenant_id = ? AND shard_id = ?`, tenantID, id)
	if err != nil {
		return err
	}

	s.mu.RLock()
	hook := s.hook
	s.mu.RUnlock()
	if hook != nil {
		hook(tenantID, id)
	}
	return nil
}

// SetMutationHook 注册变更钩子
func (s *SQLiteEntityStore) SetMutationHook(hook MutationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// GetEntity 获取完整分片
func (s *SQLiteEntityStore) GetEntity(ctx context.Context, tenantID, id string) (*shard.Shard, error) {
	sh, err := s.scanShard(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	rels, err := s.scanRelationships(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	sh.Relationships = rels

	return sh, nil
}

// scanShard 读取分片主记录
func (s *SQLiteEntityStore) scanShard(ctx context.Context, tenantID, id string) (*shard.Shard, error) {
	var (
		sh                   shard.Shard
		dataStr              string
		createdAt, updatedAt int64
	)

	err := s.db.QueryRowContext(ctx, `
	SELECT id, tenant_id, type_id, name, data, version, created_at, updated_at
	FROM shards WHERE tenant_id = ? AND id = ?
	`, tenantID, id).Scan(
		&sh.ID, &sh.TenantID, &sh.TypeID, &sh.Name, &dataStr, &sh.Version, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if dataStr != "" {
		if err := json.Unmarshal([]byte(dataStr), &sh.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	sh.CreatedAt = time.UnixMilli(createdAt)
	sh.UpdatedAt = time.UnixMilli(updatedAt)

	return &sh, nil
}

// scanRelationships 读取分片的关系列表（按声明位置排序）
func (s *SQLiteEntityStore) scanRelationships(ctx context.Context, tenantID, id string) ([]shard.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT rel_type, target_id FROM shard_relationships
	WHERE tenant_id = ? AND shard_id = ?
	ORDER BY position
	`, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []shard.Relationship
	for rows.Next() {
		var rel shard.Relationship
		if err := rows.Scan(&rel.Type, &rel.TargetID); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// GetEntitiesByRelationship 按关系类型获取根分片的关联摘要
func (s *SQLiteEntityStore) GetEntitiesByRelationship(ctx context.Context, tenantID, rootID, relType string, limit int) ([]*shard.Summary, error) {
	// 先确认根分片存在
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM shards WHERE tenant_id = ? AND id = ?`, tenantID, rootID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	query := `
	SELECT target_id FROM shard_relationships
	WHERE tenant_id = ? AND shard_id = ? AND rel_type = ?
	ORDER BY position
	`
	args := []any{tenantID, rootID, relType}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targetIDs []string
	for rows.Next() {
		var targetID string
		if err := rows.Scan(&targetID); err != nil {
			return nil, err
		}
		targetIDs = append(targetIDs, targetID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var summaries []*shard.Summary
	for _, targetID := range targetIDs {
		target, err := s.GetEntity(ctx, tenantID, targetID)
		if err == ErrNotFound {
			// 悬空关系：目标已删除，跳过
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, shard.SummaryOf(target))
	}

	return summaries, nil
}

// GetVersions 批量获取分片的当前版本标记
func (s *SQLiteEntityStore) GetVersions(ctx context.Context, tenantID string, ids []string) (map[string]int64, error) {
	versions := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return versions, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version FROM shards WHERE tenant_id = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			version int64
		)
		if err := rows.Scan(&id, &version); err != nil {
			return nil, err
		}
		versions[id] = version
	}
	return versions, rows.Err()
}

// Close 关闭连接
func (s *SQLiteEntityStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// SQLite Template Store
// ============================================================================

// SQLiteTemplateStore SQLite 模板存储
type SQLiteTemplateStore struct {
	db *sql.DB
}

// NewSQLiteTemplateStore 创建 SQLite 模板存储
func NewSQLiteTemplateStore(dbPath string) (*SQLiteTemplateStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteTemplateStore{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

// initSchema 初始化表结构
func (s *SQLiteTemplateStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		shard_types TEXT,
		assistant_id TEXT,
		priority INTEGER NOT NULL DEFAULT 0,
		is_default INTEGER NOT NULL DEFAULT 0,
		token_budget INTEGER NOT NULL DEFAULT 0,
		rules TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_templates_tenant ON templates(tenant_id, created_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// GetTenantTemplates 按条件列出租户模板（按创建顺序）
func (s *SQLiteTemplateStore) GetTenantTemplates(ctx context.Context, tenantID string, filter TemplateFilter) ([]*shard.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, tenant_id, name, category, shard_types, assistant_id, priority, is_default, token_budget, rules, created_at, updated_at
	FROM templates WHERE tenant_id = ?
	ORDER BY created_at, id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*shard.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	return result, rows.Err()
}

// GetTemplateByID 按 ID 获取租户模板
func (s *SQLiteTemplateStore) GetTemplateByID(ctx context.Context, tenantID, id string) (*shard.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, tenant_id, name, category, shard_types, assistant_id, priority, is_default, token_budget, rules, created_at, updated_at
	FROM templates WHERE tenant_id = ? AND id = ?
	`, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanTemplate(rows)
}

// scanTemplate 从查询结果读取模板
func scanTemplate(rows *sql.Rows) (*shard.Template, error) {
	var (
		t                     shard.Template
		shardTypes, rules     string
		isDefault             int
		createdAt, updatedAt  int64
	)

	err := rows.Scan(
		&t.ID, &t.TenantID, &t.Name, &t.Category, &shardTypes, &t.AssistantID,
		&t.Priority, &isDefault, &t.TokenBudget, &rules, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if shardTypes != "" {
		if err := json.Unmarshal([]byte(shardTypes), &t.ShardTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shard types: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}

	t.Default = isDefault != 0
	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updatedAt)

	return &t, nil
}

// CreateTemplate 创建租户模板
func (s *SQLiteTemplateStore) CreateTemplate(ctx context.Context, t *shard.Template) error {
	if t == nil || t.ID == "" || t.TenantID == "" {
		return ErrInvalidInput
	}

	shardTypes, err := json.Marshal(t.ShardTypes)
	if err != nil {
		return err
	}
	rules, err := json.Marshal(t.Rules)
	if err != nil {
		return err
	}

	isDefault := 0
	if t.Default {
		isDefault = 1
	}
	now := time.Now().UnixMilli()

	result, err := s.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO templates (id, tenant_id, name, category, shard_types, assistant_id, priority, is_default, token_budget, rules, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.TenantID, t.Name, t.Category, string(shardTypes), t.AssistantID,
		t.Priority, isDefault, t.TokenBudget, string(rules), now, now)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// UpdateTemplate 更新租户模板
func (s *SQLiteTemplateStore) UpdateTemplate(ctx context.Context, t *shard.Template) error {
	if t == nil || t.ID == "" || t.TenantID == "" {
		return ErrInvalidInput
	}

	shardTypes, err := json.Marshal(t.ShardTypes)
	if err != nil {
		return err
	}
	rules, err := json.Marshal(t.Rules)
	if err != nil {
		return err
	}

	isDefault := 0
	if t.Default {
		isDefault = 1
	}

	result, err := s.db.ExecContext(ctx, `
	UPDATE templates SET
		name = ?, category = ?, shard_types = ?, assistant_id = ?,
		priority = ?, is_default = ?, token_budget = ?, rules = ?, updated_at = ?
	WHERE tenant_id = ? AND id = ?
	`, t.Name, t.Category, string(shardTypes), t.AssistantID,
		t.Priority, isDefault, t.TokenBudget, string(rules), time.Now().UnixMilli(),
		t.TenantID, t.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate 删除租户模板
func (s *SQLiteTemplateStore) DeleteTemplate(ctx context.Context, tenantID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close 关闭连接
func (s *SQLiteTemplateStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// SQLite Cache Store
// ============================================================================

// SQLiteCacheStore SQLite 缓存存储
//
// cache_sources 表按来源分片索引条目，使 DeleteByEntity 精确命中
// 所有引用该分片的条目，而不必反序列化每个条目。
type SQLiteCacheStore struct {
	db *sql.DB
}

// NewSQLiteCacheStore 创建 SQLite 缓存存储
func NewSQLiteCacheStore(dbPath string) (*SQLiteCacheStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteCacheStore{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

// initSchema 初始化表结构
func (s *SQLiteCacheStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		fingerprint TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		template_id TEXT NOT NULL,
		context TEXT NOT NULL,
		source_versions TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (tenant_id, fingerprint)
	);
	CREATE TABLE IF NOT EXISTS cache_sources (
		tenant_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		PRIMARY KEY (tenant_id, fingerprint, entity_id)
	);
	CREATE INDEX IF NOT EXISTS idx_cache_sources_entity ON cache_sources(tenant_id, entity_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Get 按指纹获取条目
func (s *SQLiteCacheStore) Get(ctx context.Context, tenantID, fingerprint string) (*shard.CacheEntry, error) {
	var (
		entry                    shard.CacheEntry
		contextStr, versionsStr  string
		createdAt, expiresAt     int64
	)

	err := s.db.QueryRowContext(ctx, `
	SELECT fingerprint, tenant_id, entity_id, template_id, context, source_versions, created_at, expires_at
	FROM cache_entries WHERE tenant_id = ? AND fingerprint = ?
	`, tenantID, fingerprint).Scan(
		&entry.Fingerprint, &entry.TenantID, &entry.EntityID, &entry.TemplateID,
		&contextStr, &versionsStr, &createdAt, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(contextStr), &entry.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	if err := json.Unmarshal([]byte(versionsStr), &entry.SourceVersions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source versions: %w", err)
	}

	entry.CreatedAt = time.UnixMilli(createdAt)
	if expiresAt > 0 {
		entry.ExpiresAt = time.UnixMilli(expiresAt)
	}

	return &entry, nil
}

// Put 写入条目（同指纹后写覆盖）
func (s *SQLiteCacheStore) Put(ctx context.Context, entry *shard.CacheEntry) error {
	if entry == nil || entry.Fingerprint == "" || entry.TenantID == "" {
		return ErrInvalidInput
	}

	contextData, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	versionsData, err := json.Marshal(entry.SourceVersions)
	if err != nil {
		return fmt.Errorf("failed to marshal source versions: %w", err)
	}

	var expiresAt int64
	if !entry.ExpiresAt.IsZero() {
		expiresAt = entry.ExpiresAt.UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO cache_entries (fingerprint, tenant_id, entity_id, template_id, context, source_versions, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(tenant_id, fingerprint) DO UPDATE SET
		entity_id = excluded.entity_id,
		template_id = excluded.template_id,
		context = excluded.context,
		source_versions = excluded.source_versions,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at
	`, entry.Fingerprint, entry.TenantID, entry.EntityID, entry.TemplateID,
		string(contextData), string(versionsData), entry.CreatedAt.UnixMilli(), expiresAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM cache_sources WHERE tenant_id = ? AND fingerprint = ?`,
		entry.TenantID, entry.Fingerprint)
	if err != nil {
		return err
	}

	for sourceID := range entry.SourceVersions {
		_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO cache_sources (tenant_id, fingerprint, entity_id)
		VALUES (?, ?, ?)
		`, entry.TenantID, entry.Fingerprint, sourceID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteByEntity 删除根分片或任一来源为指定分片的全部条目
func (s *SQLiteCacheStore) DeleteByEntity(ctx context.Context, tenantID, entityID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
	SELECT fingerprint FROM cache_sources WHERE tenant_id = ? AND entity_id = ?
	UNION
	SELECT fingerprint FROM cache_entries WHERE tenant_id = ? AND entity_id = ?
	`, tenantID, entityID, tenantID, entityID)
	if err != nil {
		return err
	}

	var fingerprints []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			rows.Close()
			return err
		}
		fingerprints = append(fingerprints, fp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, fp := range fingerprints {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE tenant_id = ? AND fingerprint = ?`, tenantID, fp); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cache_sources WHERE tenant_id = ? AND fingerprint = ?`, tenantID, fp); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close 关闭连接
func (s *SQLiteCacheStore) Close() error {
	return s.db.Close()
}

// 编译时接口检查
var _ MutableEntityStore = (*SQLiteEntityStore)(nil)
var _ TemplateStore = (*SQLiteTemplateStore)(nil)
var _ CacheStore = (*SQLiteCacheStore)(nil)
