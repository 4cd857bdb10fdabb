package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/phtorg/internal/domain"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 phtorg.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingSrc 表示无参运行但配置文件缺少 src 字段。
	ErrCodeMissingSrc = "config_missing_src"
)

const (
	// DefaultConcurrency 是并发的内置默认值（当配置未指定时）。
	DefaultConcurrency = 4
	// DefaultTimezone 是目标时区的最终默认值（进程本地时区）。
	DefaultTimezone = "Local"
	// DefaultPrefix 是常规文件名前缀。
	DefaultPrefix = "IMG_"
	// DefaultScreenshotPrefix 是截图文件名前缀。
	DefaultScreenshotPrefix = "Screenshot_"
)

// 三类扩展名的内置默认集合（配置文件可整组覆盖）。
var (
	defaultImageExts      = []string{".jpg", ".jpeg", ".heic"}
	defaultVideoExts      = []string{".mov", ".mp4", ".m4v"}
	defaultScreenshotExts = []string{".png", ".gif", ".bmp", ".webp"}
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --allow-mtime=false 必须能覆盖
// config.allow_mtime=true。
type CLIArgs struct {
	Src string

	DstDir    string
	DstDirSet bool

	Timezone    string
	TimezoneSet bool

	AllowMtime    bool
	AllowMtimeSet bool

	Concurrency    int
	ConcurrencySet bool
}

// FileConfig 对应 phtorg.json 的解析结构。
type FileConfig struct {
	Src         string   `json:"src"`
	DstDir      string   `json:"dst_dir"`
	Timezone    string   `json:"timezone"`
	AllowMtime  *bool    `json:"allow_mtime"`
	Concurrency int      `json:"concurrency"`
	ExcludeDirs []string `json:"exclude_dirs"`

	ImageExts        []string `json:"image_exts"`
	VideoExts        []string `json:"video_exts"`
	ScreenshotExts   []string `json:"screenshot_exts"`
	Prefix           string   `json:"prefix"`
	ScreenshotPrefix string   `json:"screenshot_prefix"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
//（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Src    string
	DstDir string

	// TimezoneName 是 IANA 时区名；Location 是加载后的时区对象。
	// 所有提取结果的时间戳都必须落在 Location。
	TimezoneName string
	Location     *time.Location

	AllowMtime  bool
	Concurrency int
	ExcludeDirs []string

	Exts             domain.ExtSets
	Prefix           string
	ScreenshotPrefix string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingSrc:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 src", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 src：<cwd>/phtorg.json 可选
// 2) CLI 未提供 src：必须读取 <cwd>/phtorg.json，且其中必须包含 src
//
// 覆盖优先级（固定）：
// - src：CLI > config
// - dst_dir：CLI > config > 默认 "."
// - timezone：CLI > config > 默认 Local
// - allow_mtime：CLI --allow-mtime/--allow-mtime=false > config > 默认 false
// - concurrency：CLI > config > 默认 4（截断到 [1,32]）
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, "phtorg.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	if strings.TrimSpace(cli.Src) == "" {
		// CLI 没给 src：配置文件必须存在且包含 src。
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		if strings.TrimSpace(fc.Src) == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingSrc, Path: cfgPath}
		}
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	src := cli.Src
	if strings.TrimSpace(src) == "" {
		src = fc.Src
	}
	srcAbs := absCleanFrom(cwdAbs, src)

	// dst_dir：CLI > config > 默认 "."（即 cwd）
	dst := "."
	if cli.DstDirSet {
		dst = cli.DstDir
	} else if strings.TrimSpace(fc.DstDir) != "" {
		dst = fc.DstDir
	}
	dstAbs := absCleanFrom(cwdAbs, dst)

	// timezone：CLI > config > 默认 Local
	tzName := DefaultTimezone
	if cli.TimezoneSet {
		tzName = strings.TrimSpace(cli.Timezone)
	} else if strings.TrimSpace(fc.Timezone) != "" {
		tzName = strings.TrimSpace(fc.Timezone)
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timezone 无效：%q：%w", tzName, err)}
	}

	// allow_mtime：CLI > config > 默认 false
	allowMtime := false
	if cli.AllowMtimeSet {
		allowMtime = cli.AllowMtime
	} else if fc.AllowMtime != nil {
		allowMtime = *fc.AllowMtime
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 文档约定：范围建议 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	exts := domain.ExtSets{
		Image:      buildExtSet(fc.ImageExts, defaultImageExts),
		Video:      buildExtSet(fc.VideoExts, defaultVideoExts),
		Screenshot: buildExtSet(fc.ScreenshotExts, defaultScreenshotExts),
	}

	prefix := DefaultPrefix
	if strings.TrimSpace(fc.Prefix) != "" {
		prefix = strings.TrimSpace(fc.Prefix)
	}
	ssPrefix := DefaultScreenshotPrefix
	if strings.TrimSpace(fc.ScreenshotPrefix) != "" {
		ssPrefix = strings.TrimSpace(fc.ScreenshotPrefix)
	}

	return EffectiveConfig{
		Src:              srcAbs,
		DstDir:           dstAbs,
		TimezoneName:     tzName,
		Location:         loc,
		AllowMtime:       allowMtime,
		Concurrency:      concurrency,
		ExcludeDirs:      append([]string(nil), fc.ExcludeDirs...),
		Exts:             exts,
		Prefix:           prefix,
		ScreenshotPrefix: ssPrefix,
	}, nil
}

// buildExtSet 规范化扩展名列表（小写、补点、去重）；列表为空用默认值。
func buildExtSet(exts, fallback []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = fallback
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径（含空串与 "."）：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
