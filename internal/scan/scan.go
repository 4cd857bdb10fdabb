package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/phtorg/internal/domain"
)

// ScanPhotos 收集 src 下所有待整理的媒体文件。
//
// 规则（硬约束）：
// - src 是目录：递归扫描，扩展名不在任何集合内的文件整体排除
// - src 是单个文件：无条件收录（扩展名不支持时由提取阶段按条目报错）
// - excludeDirs：视为相对 src 的路径（若是绝对路径，则按绝对路径处理）
//
// 注意：扫描阶段只做路径判定，不读文件内容。
func ScanPhotos(src string, sets domain.ExtSets, excludeDirs []string) ([]domain.PhotoFile, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []domain.PhotoFile{newPhotoFile(abs, sets)}, nil
	}

	excluded := buildExcluded(abs, excludeDirs)

	files := make([]domain.PhotoFile, 0, 128)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !sets.Allowed(ext) {
			return nil
		}

		files = append(files, newPhotoFile(path, sets))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].AbsPath < files[j].AbsPath })
	return files, nil
}

func newPhotoFile(abs string, sets domain.ExtSets) domain.PhotoFile {
	ext := strings.ToLower(filepath.Ext(abs))
	parent := filepath.Base(filepath.Dir(abs))
	kind, screenshot := domain.Classify(ext, parent, sets)
	return domain.PhotoFile{AbsPath: abs, Ext: ext, Kind: kind, Screenshot: screenshot}
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
