package config

import (
	"strings"

	"github.com/blues/smartfarmer/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Investment InvestmentConfig `mapstructure:"investment"`
	Payout     PayoutConfig     `mapstructure:"payout"`
	Task       TaskConfig       `mapstructure:"task"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres 或 sqlite，sqlite 时 DBName 为文件路径
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// AuthConfig 与身份服务网关共享的会话签名配置
type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	TokenTTL int    `mapstructure:"token_ttl"` // 秒
}

// InvestmentConfig 份额购买的乐观重试参数
type InvestmentConfig struct {
	MaxRetries  int `mapstructure:"max_retries"`
	RetryBaseMs int `mapstructure:"retry_base_ms"`
	RetryMaxMs  int `mapstructure:"retry_max_ms"`
}

// PayoutConfig 到期兑付配置
type PayoutConfig struct {
	Workers     int  `mapstructure:"workers"`      // 协程池大小
	AutoEnabled bool `mapstructure:"auto_enabled"` // 是否定时自动兑付，默认仅管理员触发
	Interval    int  `mapstructure:"interval"`     // 秒
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// PaymentConfig 支付网关回调配置
type PaymentConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	MinorUnit int64  `mapstructure:"minor_unit"` // 网关金额单位换算，例如 100 kobo = 1 NGN
}

// StorageConfig 项目图片对象存储
type StorageConfig struct {
	S3Region       string `mapstructure:"s3_region"`
	S3Bucket       string `mapstructure:"s3_bucket"`
	S3AccessKey    string `mapstructure:"s3_access_key"`
	S3SecretKey    string `mapstructure:"s3_secret_key"`
	PresignSeconds int64  `mapstructure:"presign_seconds"`
}

// Enabled 是否配置了对象存储
func (s StorageConfig) Enabled() bool {
	return s.S3Bucket != "" && s.S3AccessKey != "" && s.S3SecretKey != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Load 从默认路径加载配置
func Load() *Config {
	return LoadFrom("")
}

// LoadFrom 加载配置，path 为空时按默认路径查找 config.yaml
func LoadFrom(path string) *Config {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/smartfarmer")
	}

	setDefaults(v)

	// 环境变量形如 SF_DATABASE_HOST
	v.SetEnvPrefix("sf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "smartfarmer")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", 3600)
	v.SetDefault("investment.max_retries", 5)
	v.SetDefault("investment.retry_base_ms", 20)
	v.SetDefault("investment.retry_max_ms", 300)
	v.SetDefault("payout.workers", 4)
	v.SetDefault("payout.auto_enabled", false)
	v.SetDefault("payout.interval", 3600)
	v.SetDefault("task.interval", 60)
	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.minor_unit", 100)
	v.SetDefault("storage.s3_region", "ap-southeast-1")
	v.SetDefault("storage.presign_seconds", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}
