package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	Format     string `env:"LOG_FORMAT"` // "json" 或 "console"
	Filename   string `env:"LOG_FILENAME"`
	MaxSize    int    `env:"LOG_MAX_SIZE"` // 单文件最大兆字节
	MaxAge     int    `env:"LOG_MAX_AGE"`  // 保留天数
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
}

var global = zap.NewNop()

// Init 初始化全局日志器，Filename 为空时只输出到标准输出
func Init(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.Filename != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	global = zap.New(core, zap.AddCaller())
	return global, nil
}

// L 返回全局日志器
func L() *zap.Logger { return global }

// Debug 输出 Debug 级别日志
func Debug(msg string, fields ...zap.Field) { global.Debug(msg, fields...) }

// Info 输出 Info 级别日志
func Info(msg string, fields ...zap.Field) { global.Info(msg, fields...) }

// Warn 输出 Warn 级别日志
func Warn(msg string, fields ...zap.Field) { global.Warn(msg, fields...) }

// Error 输出 Error 级别日志
func Error(msg string, fields ...zap.Field) { global.Error(msg, fields...) }

// Fatal 输出 Fatal 级别日志并退出
func Fatal(msg string, fields ...zap.Field) { global.Fatal(msg, fields...) }

// Sync 刷新缓冲日志
func Sync() { _ = global.Sync() }
