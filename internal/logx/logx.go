// Package logx 配置全局日志。
//
// INFO 及以上写进当前目录的 phtorg.<时间戳>.log，WARN 及以上同时
// 镜像到 stderr。日志文件是惰性创建的：一条日志都没有时磁盘上
// 不会留下空文件。
package logx

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Setup 初始化全局 logger，返回日志文件路径。
func Setup(dir string) string {
	stamp := time.Now().Format("2006-01-02T15-04-05")
	path := filepath.Join(dir, "phtorg."+stamp+".log")

	logrus.SetOutput(&lazyFile{path: path})
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(newFormatter())
	logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	logrus.AddHook(newMirrorHook(os.Stderr, newFormatter()))

	return path
}

func newFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	}
}

// lazyFile 第一次写入时才创建文件。
type lazyFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func (l *lazyFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	return l.f.Write(p)
}

// mirrorHook 把 WARN 及以上级别的日志镜像到另一个输出。
type mirrorHook struct {
	out       io.Writer
	formatter logrus.Formatter
}

func newMirrorHook(out io.Writer, formatter logrus.Formatter) *mirrorHook {
	return &mirrorHook{out: out, formatter: formatter}
}

func (h *mirrorHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (h *mirrorHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.out.Write(b)
	return err
}
