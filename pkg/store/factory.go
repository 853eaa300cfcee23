package store

import "github.com/easyops/shardctx-go/pkg/core/config"

// StoreType 存储类型
type StoreType string

const (
	// StoreTypeMemory 内存存储
	StoreTypeMemory StoreType = "memory"
	// StoreTypeSQLite SQLite 存储
	StoreTypeSQLite StoreType = "sqlite"
	// StoreTypeNeo4j Neo4j 存储
	StoreTypeNeo4j StoreType = "neo4j"
)

// Config 存储配置
type Config struct {
	// Type 存储类型
	Type StoreType

	// SQLitePath SQLite 数据库路径
	SQLitePath string

	// Neo4jURI Neo4j 连接地址
	Neo4jURI string
	// Neo4jUsername Neo4j 用户名
	Neo4jUsername string
	// Neo4jPassword Neo4j 密码
	Neo4jPassword string
}

// DefaultConfig 默认存储配置
func DefaultConfig() *Config {
	return &Config{
		Type:       StoreTypeMemory,
		SQLitePath: "shardctx.db",
	}
}

// FromStoreConfig 从外部配置（koanf 加载）构建存储配置。
func FromStoreConfig(sc *config.StoreConfig) *Config {
	c := DefaultConfig()
	if sc == nil {
		return c
	}
	if sc.Type != "" {
		c.Type = StoreType(sc.Type)
	}
	if sc.SQLitePath != "" {
		c.SQLitePath = sc.SQLitePath
	}
	c.Neo4jURI = sc.Neo4jURI
	c.Neo4jUsername = sc.Neo4jUsername
	c.Neo4jPassword = sc.Neo4jPassword
	return c
}

// NewEntityStore 根据配置创建实体存储
func NewEntityStore(config *Config) (MutableEntityStore, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case StoreTypeSQLite:
		return NewSQLiteEntityStore(config.SQLitePath)
	case StoreTypeNeo4j:
		return NewNeo4jEntityStore(Neo4jConfig{
			URI:      config.Neo4jURI,
			Username: config.Neo4jUsername,
			Password: config.Neo4jPassword,
		})
	case StoreTypeMemory:
		fallthrough
	default:
		return NewMemoryEntityStore(), nil
	}
}

// NewTemplateStore 根据配置创建模板存储
//
// Neo4j 不承载模板：模板是小而规整的文档数据，
// 选择 neo4j 时模板落在同路径的 SQLite 库。
func NewTemplateStore(config *Config) (TemplateStore, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case StoreTypeSQLite, StoreTypeNeo4j:
		return NewSQLiteTemplateStore(config.SQLitePath)
	case StoreTypeMemory:
		fallthrough
	default:
		return NewMemoryTemplateStore(), nil
	}
}

// NewCacheStore 根据配置创建缓存存储
func NewCacheStore(config *Config) (CacheStore, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case StoreTypeSQLite, StoreTypeNeo4j:
		return NewSQLiteCacheStore(config.SQLitePath)
	case StoreTypeMemory:
		fallthrough
	default:
		return NewMemoryCacheStore(), nil
	}
}
