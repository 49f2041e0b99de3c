package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// 中文说明：
// 进程级分级日志。Init 在启动时调用一次，之后各包直接用 Debugf/Infof/Warnf/Errorf。

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32
	std     = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

func init() {
	current.Store(int32(LevelInfo))
}

// Init 按配置字符串设置日志级别；未知取值回退到 info。
func Init(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		current.Store(int32(LevelDebug))
	case "info", "":
		current.Store(int32(LevelInfo))
	case "warn", "warning":
		current.Store(int32(LevelWarn))
	case "error":
		current.Store(int32(LevelError))
	default:
		current.Store(int32(LevelInfo))
		Warnf("未知日志级别 %q，已回退到 info", level)
	}
}

func enabled(l Level) bool { return Level(current.Load()) <= l }

func output(prefix, format string, args ...any) {
	_ = std.Output(3, prefix+fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		output("[DEBUG] ", format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		output("[INFO] ", format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		output("[WARN] ", format, args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		output("[ERROR] ", format, args...)
	}
}

// Fatalf 仅用于无法继续的启动错误（如配置损坏）。
func Fatalf(format string, args ...any) {
	output("[FATAL] ", format, args...)
	os.Exit(1)
}

// LogLLMPayload 以 debug 级别记录发往模型的请求体，便于排查 prompt 问题。
func LogLLMPayload(model, body string) {
	Debugf("[AI] model=%s payload=%s", model, body)
}
