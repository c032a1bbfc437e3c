package config

import (
	"log"
	"os"
	"time"

	"SafeCircle/pkg/cache"
	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/notification"
	"SafeCircle/pkg/util"
)

// Config 全局配置
type Config struct {
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	APIPrefix     string `env:"API_PREFIX"`
	AuthPrefix    string `env:"AUTH_PREFIX"`
	GRPCAddr      string `env:"GRPC_ADDR"`
	SessionSecret string `env:"SESSION_SECRET"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log   logger.LogConfig
	Cache cache.Config
	Mail  notification.MailConfig
	SMS   notification.AliyunSMSConfig
	Push  notification.JPushConfig

	// 安全看护核心参数
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL"`     // 到期/提醒巡检间隔
	ArmIncrement     float64       `env:"ARM_INCREMENT"`      // 单次武装进度增量
	ArmResetTimeout  time.Duration `env:"ARM_RESET_TIMEOUT"`  // 武装进度回零超时
	DisarmHold       time.Duration `env:"DISARM_HOLD"`        // 解除报警长按时长
	NotifyRetries    int           `env:"NOTIFY_RETRIES"`     // 通知投递重试次数
	TxRetries        int           `env:"TX_RETRIES"`         // 事务竞争重试次数
	DefaultInterval  int64         `env:"DEFAULT_INTERVAL"`   // 新用户默认打卡间隔（秒）
	LanguageEnabled  bool          `env:"LANGUAGE_ENABLED"`   // 通知文案多语言
	DefaultLanguage  string        `env:"DEFAULT_LANGUAGE"`   // 默认语言
	GeoIPDBPath      string        `env:"GEOIP_DB_PATH"`      // 审计日志地理库，可选
	SearchEnabled    bool          `env:"SEARCH_ENABLED"`     // 事件检索
	SearchPath       string        `env:"SEARCH_PATH"`        // bleve 索引目录
	BackupEnabled    bool          `env:"BACKUP_ENABLED"`     // 定时备份
	BackupPath       string        `env:"BACKUP_PATH"`        // 备份目录
	BackupSchedule   string        `env:"BACKUP_SCHEDULE"`    // 备份 cron 表达式
	BackupToMinio    bool          `env:"BACKUP_TO_MINIO"`    // 备份上传对象存储
	APISecretKey     string        `env:"API_SECRET_KEY"`     // 请求签名密钥
	MetricsEnabled   bool          `env:"METRICS_ENABLED"`    // Prometheus 指标
	OperatorLogTable string        `env:"OPERATOR_LOG_TABLE"` // 操作日志表名，可选
}

var GlobalConfig *Config

// Load 根据 APP_ENV 加载 .env 文件并填充全局配置
func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:          util.GetEnvDefault("ADDR", ":8080"),
		Mode:          util.GetEnvDefault("MODE", "debug"),
		APIPrefix:     util.GetEnvDefault("API_PREFIX", "/api"),
		AuthPrefix:    util.GetEnvDefault("AUTH_PREFIX", "auth"),
		GRPCAddr:      util.GetEnv("GRPC_ADDR"),
		SessionSecret: util.GetEnvDefault("SESSION_SECRET", "safecircle-secret"),
		DBDriver:      util.GetEnvDefault("DB_DRIVER", "sqlite"),
		DSN:           util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Format:     util.GetEnv("LOG_FORMAT"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnv("LOCAL_CACHE_MAX_SIZE")),
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		SMS: notification.AliyunSMSConfig{
			AccessKeyId:     util.GetEnv("SMS_ACCESS_KEY_ID"),
			AccessKeySecret: util.GetEnv("SMS_ACCESS_KEY_SECRET"),
			SignName:        util.GetEnv("SMS_SIGN_NAME"),
			TemplateCode:    util.GetEnv("SMS_TEMPLATE_CODE"),
			Endpoint:        util.GetEnv("SMS_ENDPOINT"),
		},
		Push: notification.JPushConfig{
			AppKey:       util.GetEnv("JPUSH_APP_KEY"),
			MasterSecret: util.GetEnv("JPUSH_MASTER_SECRET"),
		},
		SweepInterval:    util.GetDurationEnv("SWEEP_INTERVAL", 2*time.Minute),
		ArmIncrement:     0.25,
		ArmResetTimeout:  util.GetDurationEnv("ARM_RESET_TIMEOUT", 10*time.Second),
		DisarmHold:       util.GetDurationEnv("DISARM_HOLD", 3*time.Second),
		NotifyRetries:    intDefault(util.GetIntEnv("NOTIFY_RETRIES"), 3),
		TxRetries:        intDefault(util.GetIntEnv("TX_RETRIES"), 5),
		DefaultInterval:  int64Default(util.GetIntEnv("DEFAULT_INTERVAL"), 86400),
		LanguageEnabled:  util.GetBoolEnv("LANGUAGE_ENABLED"),
		DefaultLanguage:  util.GetEnvDefault("DEFAULT_LANGUAGE", "en"),
		GeoIPDBPath:      util.GetEnv("GEOIP_DB_PATH"),
		SearchEnabled:    util.GetBoolEnv("SEARCH_ENABLED"),
		SearchPath:       util.GetEnvDefault("SEARCH_PATH", "data/events.bleve"),
		BackupEnabled:    util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:       util.GetEnvDefault("BACKUP_PATH", "backups"),
		BackupSchedule:   util.GetEnvDefault("BACKUP_SCHEDULE", "0 3 * * *"),
		BackupToMinio:    util.GetBoolEnv("BACKUP_TO_MINIO"),
		APISecretKey:     util.GetEnv("API_SECRET_KEY"),
		MetricsEnabled:   util.GetBoolEnv("METRICS_ENABLED"),
		OperatorLogTable: util.GetEnv("OPERATOR_LOG_TABLE"),
	}
	return nil
}

func intDefault(v int64, def int) int {
	if v <= 0 {
		return def
	}
	return int(v)
}

func int64Default(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
