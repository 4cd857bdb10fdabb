package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/John-Robertt/phtorg/internal/app/run"
	"github.com/John-Robertt/phtorg/internal/config"
	"github.com/John-Robertt/phtorg/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - 提取/重命名阶段用进度条；单条失败不打断进度条，
//   统一在之后的预览 / CSV / 报告中呈现
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	bar       *progressbar.ProgressBar
	renameBar *progressbar.ProgressBar
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "[%s] phtorg organize\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  src: %s\n", eff.Src)
	fmt.Fprintf(p.w, "  dst_dir: %s\n", eff.DstDir)
	fmt.Fprintf(p.w, "  timezone: %s\n", eff.TimezoneName)
	fmt.Fprintf(p.w, "  allow_mtime: %s\n", onOff(eff.AllowMtime))
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  exclude_dirs: %s\n", formatStringListJSON(eff.ExcludeDirs))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		files := intField(fields, "files")
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", files, formatShortDuration(dur))
		if files > 0 {
			p.bar = newBar(p.w, files, "提取")
		}
	case "extract":
		if p.bar != nil {
			_ = p.bar.Finish()
			p.bar = nil
		}
		fmt.Fprintf(p.w, "提取: tasks=%d failed=%d (%s)\n",
			intField(fields, "tasks"), intField(fields, "failed"), formatShortDuration(dur),
		)
	case "reconcile":
		fmt.Fprintf(p.w, "对账: rename=%d skipped=%d (%s)\n",
			intField(fields, "rename"), intField(fields, "skipped"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, path string, err error, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressUI) OnRenameDone(idx, total int, task domain.RenameTask, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.renameBar == nil {
		p.renameBar = newBar(p.w, total, "重命名")
	}
	_ = p.renameBar.Add(1)
	if idx >= total {
		_ = p.renameBar.Finish()
		p.renameBar = nil
	}
}

func newBar(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
