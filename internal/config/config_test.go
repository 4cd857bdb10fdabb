package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingSrc(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{"timezone":"UTC"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingSrc {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingSrc, err, Code(err))
	}
}

func TestLoadEffective_CLISrc_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Src: "photos"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cwd, "photos"); eff.Src != want {
		t.Fatalf("期望 src=%q，实际=%q", want, eff.Src)
	}
	if eff.DstDir != cwd {
		t.Fatalf("期望 dst_dir 默认为 cwd=%q，实际=%q", cwd, eff.DstDir)
	}
	if eff.TimezoneName != DefaultTimezone {
		t.Fatalf("期望 timezone=%q，实际=%q", DefaultTimezone, eff.TimezoneName)
	}
	if eff.Location == nil {
		t.Fatalf("期望 Location 非空")
	}
	if eff.AllowMtime {
		t.Fatalf("期望 allow_mtime 默认 false")
	}
	if eff.Concurrency != DefaultConcurrency {
		t.Fatalf("期望 concurrency=%d，实际=%d", DefaultConcurrency, eff.Concurrency)
	}
	if eff.Prefix != DefaultPrefix || eff.ScreenshotPrefix != DefaultScreenshotPrefix {
		t.Fatalf("期望默认前缀，实际=%q/%q", eff.Prefix, eff.ScreenshotPrefix)
	}
}

func TestLoadEffective_AllowMtimeCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{"src":"photos","allow_mtime":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		AllowMtime:    false,
		AllowMtimeSet: true, // --allow-mtime=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.AllowMtime {
		t.Fatalf("期望 allow_mtime=false，实际=%v", eff.AllowMtime)
	}
}

func TestLoadEffective_TimezoneMergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{"src":"p","timezone":"America/Vancouver"}`))

	// CLI 未指定 timezone，则应使用配置文件中的值。
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.TimezoneName != "America/Vancouver" {
		t.Fatalf("期望 timezone=America/Vancouver，实际=%q", eff.TimezoneName)
	}

	// CLI 显式指定，则覆盖配置文件。
	eff2, err := LoadEffective(cwd, CLIArgs{
		Timezone:    "UTC",
		TimezoneSet: true,
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.TimezoneName != "UTC" {
		t.Fatalf("期望 timezone=UTC，实际=%q", eff2.TimezoneName)
	}
}

func TestLoadEffective_InvalidTimezone(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{"src":"p","timezone":"Nope/Nowhere"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_ConcurrencyClamped(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{"src":"p","concurrency":99}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("期望 concurrency 截断为 32，实际=%d", eff.Concurrency)
	}

	eff2, err := LoadEffective(cwd, CLIArgs{Concurrency: -3, ConcurrencySet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.Concurrency != 1 {
		t.Fatalf("期望 concurrency 截断为 1，实际=%d", eff2.Concurrency)
	}
}

func TestLoadEffective_InvalidJSON(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_ExtSetsNormalized(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"),
		[]byte(`{"src":"p","image_exts":["JPG"," .Jpeg "]}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, ok := eff.Exts.Image[".jpg"]; !ok {
		t.Fatalf("期望 image 集合包含 .jpg，实际=%v", eff.Exts.Image)
	}
	if _, ok := eff.Exts.Image[".jpeg"]; !ok {
		t.Fatalf("期望 image 集合包含 .jpeg，实际=%v", eff.Exts.Image)
	}
	if len(eff.Exts.Image) != 2 {
		t.Fatalf("期望 image 集合大小 2，实际=%v", eff.Exts.Image)
	}
	// 未覆盖的集合用默认值。
	if _, ok := eff.Exts.Video[".mov"]; !ok {
		t.Fatalf("期望 video 集合含默认 .mov，实际=%v", eff.Exts.Video)
	}
	if _, ok := eff.Exts.Screenshot[".png"]; !ok {
		t.Fatalf("期望 screenshot 集合含默认 .png，实际=%v", eff.Exts.Screenshot)
	}
}

func TestLoadEffective_PathsAbsolute(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "phtorg.json"),
		[]byte(`{"src":"in","dst_dir":"out","prefix":"P_","screenshot_prefix":"S_"}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cwd, "in"); eff.Src != want {
		t.Fatalf("期望 src=%q，实际=%q", want, eff.Src)
	}
	if want := filepath.Join(cwd, "out"); eff.DstDir != want {
		t.Fatalf("期望 dst_dir=%q，实际=%q", want, eff.DstDir)
	}
	if eff.Prefix != "P_" || eff.ScreenshotPrefix != "S_" {
		t.Fatalf("期望前缀 P_/S_，实际=%q/%q", eff.Prefix, eff.ScreenshotPrefix)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
