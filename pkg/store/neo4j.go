package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/easyops/shardctx-go/pkg/core/shard"
)

// Neo4jEntityStore Neo4j 实体存储
//
// 基于 Neo4j 的图存储实现。分片为 :Shard 节点，关系统一使用
// :RELATES 边并在边上携带 rel_type 与 position 属性：
// rel_type 保留调用方传入的原始类型字符串，position 保持声明顺序。
//
// 分片被删除后节点降级为占位节点（version 置空），指向它的关系声明
// 得以保留；读取路径跳过占位节点，与其他后端的悬空关系语义一致。
type Neo4jEntityStore struct {
	driver neo4j.DriverWithContext
	hook   MutationHook
	mu     sync.RWMutex
}

// Neo4jConfig Neo4j 配置
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
}

// NewNeo4jEntityStore 创建 Neo4j 实体存储
func NewNeo4jEntityStore(config Neo4jConfig) (*Neo4jEntityStore, error) {
	if config.URI == "" {
		config.URI = "bolt://localhost:7687"
	}

	auth := neo4j.NoAuth()
	if config.Username != "" && config.Password != "" {
		auth = neo4j.BasicAuth(config.Username, config.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	// 验证连接
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	store := &Neo4jEntityStore{driver: driver}

	// 创建索引
	if err := store.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return store, nil
}

// createIndexes 创建索引
func (s *Neo4jEntityStore) createIndexes(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX shard_tenant_id IF NOT EXISTS FOR (e:Shard) ON (e.tenant_id, e.id)",
		"CREATE INDEX shard_type IF NOT EXISTS FOR (e:Shard) ON (e.type_id)",
	}

	for _, idx := range indexes {
		_, err := session.Run(ctx, idx, nil)
		if err != nil {
			// 忽略索引已存在的错误
			if !strings.Contains(err.Error(), "already exists") {
				return err
			}
		}
	}

	return nil
}

// PutShard 写入或更新分片，递增版本号
//
// 关系目标不存在时创建占位节点，目标分片随后写入即可被读取到。
func (s *Neo4jEntityStore) PutShard(ctx context.Context, sh *shard.Shard) error {
	if sh == nil || sh.ID == "" || sh.TenantID == "" {
		return ErrInvalidInput
	}

	data, err := json.Marshal(sh.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	now := time.Now().UnixMilli()

	// 占位节点的 version 为空，coalesce 使其从 1 开始
	query := `
	MERGE (e:Shard {tenant_id: $tenantId, id: $id})
	ON CREATE SET e.created_at = $now
	SET e.type_id = $typeId,
		e.name = $name,
		e.data = $data,
		e.version = coalesce(e.version, 0) + 1,
		e.created_at = coalesce(e.created_at, $now),
		e.updated_at = $now
	RETURN e.version as version
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"tenantId": sh.TenantID,
		"id":       sh.ID,
		"typeId":   sh.TypeID,
		"name":     sh.Name,
		"data":     string(data),
		"now":      now,
	})
	if err != nil {
		return err
	}
	if result.Next(ctx) {
		if v, ok := result.Record().Get("version"); ok {
			sh.Version = v.(int64)
		}
	}

	// 重写出边
	_, err = session.Run(ctx, `
	MATCH (e:Shard {tenant_id: $tenantId, id: $id})-[r:RELATES]->()
	DELETE r
	`, map[string]interface{}{"tenantId": sh.TenantID, "id": sh.ID})
	if err != nil {
		return err
	}

	for i, rel := range sh.Relationships {
		_, err = session.Run(ctx, `
		MATCH (e:Shard {tenant_id: $tenantId, id: $id})
		MERGE (t:Shard {tenant_id: $tenantId, id: $targetId})
		CREATE (e)-[:RELATES {rel_type: $relType, position: $position}]->(t)
		`, map[string]interface{}{
			"tenantId": sh.TenantID,
			"id":       sh.ID,
			"targetId": rel.TargetID,
			"relType":  rel.Type,
			"position": i,
		})
		if err != nil {
			return err
		}
	}

	s.mu.RLock()
	hook := s.hook
	s.mu.RUnlock()
	if hook != nil {
		hook(sh.TenantID, sh.ID)
	}
	return nil
}

// DeleteShard 删除分片
//
// 节点降级为占位节点并删除出边；入边保留，使来源分片的关系声明
// 在目标重建后恢复可解析。
func (s *Neo4jEntityStore) DeleteShard(ctx context.Context, tenantID, id string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
	MATCH (e:Shard {tenant_id: $tenantId, id: $id})
	WHERE e.version IS NOT NULL
	OPTIONAL MATCH (e)-[r:RELATES]->()
	DELETE r
	REMOVE e.version, e.type_id, e.name, e.data, e.created_at, e.updated_at
	RETURN count(e) as matched
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"tenantId": tenantID,
		"id":       id,
	})
	if err != nil {
		return err
	}

	if !result.Next(ctx) {
		return ErrNotFound
	}
	matched, _ := result.Record().Get("matched")
	if matched.(int64) == 0 {
		return ErrNotFound
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
func (s *Neo4jEntityStore) SetMutationHook(hook MutationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// GetEntity 获取完整分片
func (s *Neo4jEntityStore) GetEntity(ctx context.Context, tenantID, id string) (*shard.Shard, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
	MATCH (e:Shard {tenant_id: $tenantId, id: $id})
	WHERE e.version IS NOT NULL
	OPTIONAL MATCH (e)-[r:RELATES]->(t:Shard)
	RETURN e, r.rel_type as relType, t.id as targetId
	ORDER BY r.position
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"tenantId": tenantID,
		"id":       id,
	})
	if err != nil {
		return nil, err
	}

	var sh *shard.Shard
	for result.Next(ctx) {
		record := result.Record()
		if sh == nil {
			nodeVal, _ := record.Get("e")
			sh, err = s.nodeToShard(nodeVal.(neo4j.Node))
			if err != nil {
				return nil, err
			}
		}
		relTypeVal, _ := record.Get("relType")
		targetIDVal, _ := record.Get("targetId")
		if relTypeVal == nil || targetIDVal == nil {
			continue
		}
		sh.Relationships = append(sh.Relationships, shard.Relationship{
			Type:     relTypeVal.(string),
			TargetID: targetIDVal.(string),
		})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	if sh == nil {
		return nil, ErrNotFound
	}
	return sh, nil
}

// GetEntitiesByRelationship 按关系类型获取根分片的关联摘要
func (s *Neo4jEntityStore) GetEntitiesByRelationship(ctx context.Context, tenantID, rootID, relType string, limit int) ([]*shard.Summary, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// 跳过占位目标，按声明位置排序
	query := `
	MATCH (e:Shard {tenant_id: $tenantId, id: $id})
	WHERE e.version IS NOT NULL
	OPTIONAL MATCH (e)-[r:RELATES {rel_type: $relType}]->(t:Shard)
	WHERE t.version IS NOT NULL
	RETURN count(e) > 0 as rootExists, t.id as targetId
	ORDER BY r.position
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"tenantId": tenantID,
		"id":       rootID,
		"relType":  relType,
	})
	if err != nil {
		return nil, err
	}

	var (
		found     bool
		targetIDs []string
	)
	for result.Next(ctx) {
		found = true
		record := result.Record()
		targetIDVal, _ := record.Get("targetId")
		if targetIDVal == nil {
			continue
		}
		if limit > 0 && len(targetIDs) >= limit {
			continue
		}
		targetIDs = append(targetIDs, targetIDVal.(string))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	var summaries []*shard.Summary
	for _, targetID := range targetIDs {
		target, err := s.GetEntity(ctx, tenantID, targetID)
		if err == ErrNotFound {
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
func (s *Neo4jEntityStore) GetVersions(ctx context.Context, tenantID string, ids []string) (map[string]int64, error) {
	versions := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return versions, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `
	MATCH (e:Shard)
	WHERE e.tenant_id = $tenantId AND e.id IN $ids AND e.version IS NOT NULL
	RETURN e.id as id, e.version as version
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"tenantId": tenantID,
		"ids":      ids,
	})
	if err != nil {
		return nil, err
	}

	for result.Next(ctx) {
		record := result.Record()
		idVal, _ := record.Get("id")
		versionVal, _ := record.Get("version")
		versions[idVal.(string)] = versionVal.(int64)
	}
	return versions, result.Err()
}

// Close 关闭连接
func (s *Neo4jEntityStore) Close() error {
	return s.driver.Close(context.Background())
}

// nodeToShard 将 Neo4j 节点转换为 Shard
func (s *Neo4jEntityStore) nodeToShard(node neo4j.Node) (*shard.Shard, error) {
	sh := &shard.Shard{
		ID:        s.getStringProp(node.Props, "id"),
		TenantID:  s.getStringProp(node.Props, "tenant_id"),
		TypeID:    s.getStringProp(node.Props, "type_id"),
		Name:      s.getStringProp(node.Props, "name"),
		Version:   s.getInt64Prop(node.Props, "version"),
		CreatedAt: time.UnixMilli(s.getInt64Prop(node.Props, "created_at")),
		UpdatedAt: time.UnixMilli(s.getInt64Prop(node.Props, "updated_at")),
	}

	if data := s.getStringProp(node.Props, "data"); data != "" {
		if err := json.Unmarshal([]byte(data), &sh.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return sh, nil
}

// getStringProp 获取字符串属性
func (s *Neo4jEntityStore) getStringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// getInt64Prop 获取 int64 属性
func (s *Neo4jEntityStore) getInt64Prop(props map[string]interface{}, key string) int64 {
	if v, ok := props[key].(int64); ok {
		return v
	}
	return 0
}

// 编译时接口检查
var _ MutableEntityStore = (*Neo4jEntityStore)(nil)
