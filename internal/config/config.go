// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Index    IndexConfig    `mapstructure:"index"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig 存储 PostgreSQL 数据库的配置。
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
// 协作服务通过该主题异步上报用量事件。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// IndexConfig 存储索引层的调优参数。
type IndexConfig struct {
	// IvfflatLists 是向量索引的倒排列表数量，影响召回率与查询速度的权衡。
	IvfflatLists int `mapstructure:"ivfflat_lists"`
	// EmbeddingDimensions 是 chunk/message 向量列的物理维度。
	EmbeddingDimensions int `mapstructure:"embedding_dimensions"`
	// SimilarityThreshold 是文本模糊搜索的最低相似度。
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// QuotaConfig 存储配额引擎的行为参数。
// 注意：各套餐的具体上限是 tier_features 表中的数据而非配置，
// 修改上限不需要重新部署。
type QuotaConfig struct {
	// SearchCounterTTLHours 是 Redis 中按天分桶的搜索计数键的保留时长。
	SearchCounterTTLHours int `mapstructure:"search_counter_ttl_hours"`
}

// AdminConfig 存储初始运营管理员账号的配置（仅在首次迁移时生效）。
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
