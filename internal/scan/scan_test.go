package scan

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/John-Robertt/phtorg/internal/domain"
)

func testSets() domain.ExtSets {
	return domain.ExtSets{
		Image:      map[string]struct{}{".jpg": {}, ".heic": {}},
		Video:      map[string]struct{}{".mov": {}, ".mp4": {}},
		Screenshot: map[string]struct{}{".png": {}, ".gif": {}},
	}
}

func TestScanPhotos_RecursiveFiltered(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "sub", "b.mov"))
	touch(t, filepath.Join(root, "sub", "deep", "c.png"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "raw.cr2"))

	got, err := ScanPhotos(root, testSets(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 3 {
		t.Fatalf("期望 3 个文件，实际 %d", len(got))
	}
}

func TestScanPhotos_ExtCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "X.MP4"))

	got, err := ScanPhotos(root, testSets(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if got[0].Ext != ".mp4" {
		t.Fatalf("期望 ext=.mp4，实际=%q", got[0].Ext)
	}
	if got[0].Kind != domain.KindContainer {
		t.Fatalf("期望容器类，实际=%q", got[0].Kind)
	}
}

func TestScanPhotos_ExcludeDirsRelative(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "tmp", "a.jpg"))
	touch(t, filepath.Join(root, "tmp", "deep", "b.jpg"))
	touch(t, filepath.Join(root, "ok", "c.jpg"))

	got, err := ScanPhotos(root, testSets(), []string{"tmp"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if filepath.Base(got[0].AbsPath) != "c.jpg" {
		t.Fatalf("期望 c.jpg，实际=%q", got[0].AbsPath)
	}
}

func TestScanPhotos_ExcludeDirsAbsolute(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "tmp", "a.jpg"))
	touch(t, filepath.Join(root, "ok", "b.jpg"))

	got, err := ScanPhotos(root, testSets(), []string{filepath.Join(root, "tmp")})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if filepath.Base(got[0].AbsPath) != "b.jpg" {
		t.Fatalf("期望 b.jpg，实际=%q", got[0].AbsPath)
	}
}

func TestScanPhotos_SingleFileUnconditional(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "whatever.xyz")
	touch(t, src)

	got, err := ScanPhotos(src, testSets(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个文件，实际 %d", len(got))
	}
	if got[0].Kind != domain.KindUnsupported {
		t.Fatalf("期望 unsupported，实际=%q", got[0].Kind)
	}
}

func TestScanPhotos_ScreenshotsParentDir(t *testing.T) {
	root := t.TempDir()

	// Screenshots 目录下的 .jpg 仍走图片提取，但打上截图标记；
	// 其他目录下的 .png 按扩展名归为截图。
	touch(t, filepath.Join(root, "Screenshots", "a.jpg"))
	touch(t, filepath.Join(root, "pics", "b.png"))
	touch(t, filepath.Join(root, "pics", "c.jpg"))

	got, err := ScanPhotos(root, testSets(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 3 {
		t.Fatalf("期望 3 个文件，实际 %d", len(got))
	}

	byName := map[string]domain.PhotoFile{}
	for _, f := range got {
		byName[filepath.Base(f.AbsPath)] = f
	}
	a := byName["a.jpg"]
	if a.Kind != domain.KindImage || !a.Screenshot {
		t.Fatalf("期望 a.jpg 为带截图标记的图片，实际 kind=%q screenshot=%v", a.Kind, a.Screenshot)
	}
	b := byName["b.png"]
	if b.Kind != domain.KindScreenshot || !b.Screenshot {
		t.Fatalf("期望 b.png 为截图类，实际 kind=%q screenshot=%v", b.Kind, b.Screenshot)
	}
	c := byName["c.jpg"]
	if c.Kind != domain.KindImage || c.Screenshot {
		t.Fatalf("期望 c.jpg 为普通图片，实际 kind=%q screenshot=%v", c.Kind, c.Screenshot)
	}
}

func TestScanPhotos_SortedOutput(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "z.jpg"))
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "m", "k.jpg"))

	got, err := ScanPhotos(root, testSets(), nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].AbsPath < got[j].AbsPath }) {
		t.Fatalf("期望按绝对路径排序，实际 %v", got)
	}
}

func TestScanPhotos_MissingSource(t *testing.T) {
	_, err := ScanPhotos(filepath.Join(t.TempDir(), "nope"), testSets(), nil)
	if err == nil {
		t.Fatalf("期望源不存在时报错")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
