// Package exifr 把“EXIF 库的变化”限制在本包内部；核心流程只消费原始
// 键值映射，字段取舍与优先级逻辑全部在下游。
package exifr

import (
	"errors"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Tags 是一次 EXIF 读取的原始结果：IFD0 与 EXIF 子 IFD 两张字符串表。
// 合并（子表覆盖顶层）由下游完成，本包不做。
type Tags struct {
	Root map[string]string // IFD0
	Exif map[string]string // EXIF 子 IFD（0x8769）
}

// Empty 报告是否完全没有 EXIF 数据。
func (t Tags) Empty() bool { return len(t.Root) == 0 && len(t.Exif) == 0 }

// Read 在文件字节流中搜索 EXIF 块并展平为原始标签表。
//
// 约束：
// - 没有 EXIF 不是错误（返回空表）；打开/解析失败才返回 error
// - 按字节流搜索，不依赖外层容器格式（JPEG/HEIC 同样适用）
// - 丢弃 UNDEFINED 类型的标签（二进制载荷，不可能是日期字段）
func Read(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	raw, err := exif.SearchAndExtractExifWithReader(f)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return Tags{}, nil
		}
		return Tags{}, err
	}

	entries, _, err := exif.GetFlatExifDataUniversalSearch(raw, nil, true)
	if err != nil {
		return Tags{}, err
	}

	t := Tags{
		Root: make(map[string]string),
		Exif: make(map[string]string),
	}
	for _, e := range entries {
		if e.TagTypeId == exifcommon.TypeUndefined {
			continue
		}
		switch e.IfdPath {
		case "IFD":
			t.Root[e.TagName] = e.Formatted
		case "IFD/Exif":
			t.Exif[e.TagName] = e.Formatted
		}
	}
	return t, nil
}
