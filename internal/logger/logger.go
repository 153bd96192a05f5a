package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger/LogEntry/Fields 暴露底层类型，避免调用方直接依赖 logrus 包。
type Logger = logrus.Logger
type LogEntry = logrus.Entry
type Fields = logrus.Fields

const (
	// DefaultLogPath 默认日志文件路径。TUI 占用终端，日志只写文件。
	DefaultLogPath = "logs/chatwatch.log"
	// DefaultSourcesLogPath 消息源适配器（nostr/redis/nats/jsonl）的独立日志。
	DefaultSourcesLogPath = "logs/sources.log"
	// LevelEnv 覆盖日志级别，例如 CHATWATCH_LOG_LEVEL=debug 可看到被丢弃的重复消息。
	LevelEnv = "CHATWATCH_LOG_LEVEL"
)

// mountIDWidth 是日志中挂载 ID 保留的前缀长度。
const mountIDWidth = 8

var rootLogger = logrus.StandardLogger()

// Configure 设置全局日志格式、caller 输出与级别（默认 info，可由 CHATWATCH_LOG_LEVEL 覆盖）。
func Configure() {
	rootLogger.SetReportCaller(true)
	rootLogger.SetFormatter(PlainFormatter{})
	rootLogger.SetLevel(levelFromEnv())
}

// SetupFile 将全局日志输出重定向到指定路径，返回文件 closer 与实际路径。
func SetupFile(logPath string) (io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, "", err
	}
	rootLogger.SetOutput(f)
	return f, resolved, nil
}

// SetupComponentFile 创建写入独立文件的 logger，级别与全局一致，并附加 component 字段。
func SetupComponentFile(component, logPath string) (*LogEntry, io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, nil, "", err
	}
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetFormatter(PlainFormatter{})
	l.SetLevel(rootLogger.GetLevel())
	l.SetOutput(f)

	entry := logrus.NewEntry(l)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry, f, resolved, nil
}

// Entry 返回未附加字段的全局入口。
func Entry() *LogEntry {
	return logrus.NewEntry(rootLogger)
}

// Named 为指定组件创建入口。
func Named(component string) *LogEntry {
	entry := Entry()
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}

func levelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv(LevelEnv))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// PlainFormatter 输出单行：caller [timestamp] [LEVEL] [component] message k=v... error=...
// mount 字段只保留前 8 位，含空白的值加引号，error 固定放在最后。
type PlainFormatter struct{}

// Format 实现 logrus Formatter。
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	var b strings.Builder
	if caller := formatCaller(entry); caller != "" {
		b.WriteString(caller)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] [%s]", entry.Time.UTC().Format(time.RFC3339Nano), strings.ToUpper(entry.Level.String()))
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		b.WriteByte(' ')
		b.WriteString(fields)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func formatCaller(entry *logrus.Entry) string {
	if entry.HasCaller() && entry.Caller != nil {
		return fmt.Sprintf("%s:%d", shortenFilePath(entry.Caller.File), entry.Caller.Line)
	}
	if caller, ok := entry.Data["caller"].(string); ok && caller != "" {
		return caller
	}
	return ""
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case "component", "caller", logrus.ErrorKey:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if _, ok := fields[logrus.ErrorKey]; ok {
		keys = append(keys, logrus.ErrorKey)
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func formatValue(key string, v any) string {
	s := fmt.Sprint(v)
	if key == "mount" && len(s) > mountIDWidth {
		s = s[:mountIDWidth]
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func shortenFilePath(file string) string {
	file = filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/cmd/"} {
		if idx := strings.Index(file, marker); idx != -1 {
			return file[idx+1:]
		}
	}
	return filepath.Base(file)
}

func openLogFile(logPath string) (*os.File, string, error) {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, logPath, nil
}
