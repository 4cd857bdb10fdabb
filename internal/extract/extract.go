// Package extract 从照片与视频中提取拍摄时间。
//
// 三条提取路径对应三类来源：EXIF（图像）、容器元数据（视频）、
// 文件修改时间（兜底）。EXIF 的无时区时间按目标时区的本地墙钟
// 解释，容器的无时区时间按 UTC 解释，这一不对称是刻意保留的。
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/John-Robertt/phtorg/internal/domain"
	"github.com/John-Robertt/phtorg/internal/exifr"
	"github.com/John-Robertt/phtorg/internal/mediainfo"
	"gopkg.in/djherbis/times.v1"
)

// 软失败原因。会原样写入 skipped_items 报表，属于对外数据格式，
// 不要改动措辞。
const (
	reasonNoExif         = "File is EXIF-compatible but no EXIF found"
	reasonExifNoDatetime = "EXIF exists but no datetime found"
	reasonSkippedType    = "Datetime extraction is skipped for this type of file"
	reasonNoMediaInfo    = "Cannot extract datetime from MediaInfo"
)

// EXIF 日期标签与时区偏移标签，按优先级排列。二者独立取首个
// 非空值，不做配对。
var (
	exifDatetimeTags = []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"}
	exifOffsetTags   = []string{"OffsetTimeOriginal", "OffsetTimeDigitized", "OffsetTime"}
)

// 偏移只要求前缀形如 ±HH:MM；不合形则整个丢弃，退回本地墙钟解释。
var offsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}`)

// creationdate 是带时区的 ISO 字符串，苹果设备写的偏移不带冒号。
// 个别工具会写成无时区形式，此时按 UTC 解释。
var creationDateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
}

// Extractor 按文件种类提取拍摄时间，并把结果统一换算到 Loc。
// 两个读取函数可在测试中替换。
type Extractor struct {
	Loc       *time.Location
	ReadExif  func(path string) (exifr.Tags, error)
	ReadTrack func(path string) (mediainfo.GeneralTrack, error)
}

// New 返回使用真实文件读取器的 Extractor。
func New(loc *time.Location) *Extractor {
	return &Extractor{
		Loc:       loc,
		ReadExif:  exifr.Read,
		ReadTrack: mediainfo.Parse,
	}
}

// Extract 提取单个文件的拍摄时间。
//
// 软失败（文件正常但确实没有时间）返回带原因的 PhotoInfo，
// 由调用方决定是否回退 mtime；硬失败（读取出错、数据违背约定）
// 返回 error，该条目直接进入 skipped 列表。
func (e *Extractor) Extract(f domain.PhotoFile) (domain.PhotoInfo, error) {
	var (
		info domain.PhotoInfo
		err  error
	)
	switch f.Kind {
	case domain.KindImage:
		info, err = e.fromExif(f.AbsPath)
	case domain.KindContainer:
		info, err = e.fromTrack(f.AbsPath)
	case domain.KindScreenshot:
		info = domain.NoDatetime(f.AbsPath, reasonSkippedType)
	default:
		err = fmt.Errorf("Unexpected extension: %s", f.AbsPath)
	}
	if err != nil {
		return domain.PhotoInfo{}, err
	}
	e.validate(info)
	return info, nil
}

// FromMtime 用文件修改时间构造 PhotoInfo。只在允许 mtime 兜底时
// 由调用方使用，返回的是全新结果，不携带之前的软失败原因。
func (e *Extractor) FromMtime(path string) (domain.PhotoInfo, error) {
	spec, err := times.Stat(path)
	if err != nil {
		return domain.PhotoInfo{}, err
	}
	t := spec.ModTime().In(e.Loc)
	info := domain.PhotoInfo{Path: path, Taken: &t, Source: domain.SourceMtime}
	e.validate(info)
	return info, nil
}

func (e *Extractor) fromExif(path string) (domain.PhotoInfo, error) {
	tags, err := e.ReadExif(path)
	if err != nil {
		return domain.PhotoInfo{}, err
	}
	if tags.Empty() {
		return domain.NoDatetime(path, reasonNoExif), nil
	}

	// 0th IFD 与 Exif 子 IFD 合并，子 IFD 优先。
	merged := make(map[string]string, len(tags.Root)+len(tags.Exif))
	for k, v := range tags.Root {
		merged[k] = v
	}
	for k, v := range tags.Exif {
		merged[k] = v
	}

	dt := firstNonEmpty(merged, exifDatetimeTags)
	if dt == "" {
		return domain.NoDatetime(path, reasonExifNoDatetime), nil
	}
	off := firstNonEmpty(merged, exifOffsetTags)
	if off != "" && !offsetPattern.MatchString(off) {
		off = ""
	}
	// 截掉亚秒等尾巴，只留 "YYYY:MM:DD HH:MM:SS"。
	if len(dt) > 19 {
		dt = dt[:19]
	}

	var t time.Time
	if off != "" {
		t, err = time.Parse("2006:01:02 15:04:05-07:00", dt+off)
		if err != nil {
			return domain.PhotoInfo{}, fmt.Errorf("parse EXIF datetime %q%q: %w", dt, off, err)
		}
		t = t.In(e.Loc)
	} else {
		t, err = time.ParseInLocation("2006:01:02 15:04:05", dt, e.Loc)
		if err != nil {
			return domain.PhotoInfo{}, fmt.Errorf("parse EXIF datetime %q: %w", dt, err)
		}
	}
	return domain.PhotoInfo{Path: path, Taken: &t, Source: domain.SourceEXIF}, nil
}

func (e *Extractor) fromTrack(path string) (domain.PhotoInfo, error) {
	track, err := e.ReadTrack(path)
	if err != nil {
		return domain.PhotoInfo{}, err
	}

	// 首选 com.apple.quicktime.creationdate，自带时区。
	if track.CreationDate != "" {
		t, err := parseCreationDate(track.CreationDate)
		if err != nil {
			return domain.PhotoInfo{}, err
		}
		t = t.In(e.Loc)
		return domain.PhotoInfo{Path: path, Taken: &t, Source: domain.SourceMediaInfo}, nil
	}

	raw := track.EncodedDate
	if raw == "" {
		raw = track.TaggedDate
	}
	if raw == "" {
		return domain.NoDatetime(path, reasonNoMediaInfo), nil
	}
	stripped, ok := stripUTCMark(raw)
	if !ok {
		return domain.PhotoInfo{}, fmt.Errorf("encoded_date/tagged_date should have UTC marking: %q", raw)
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", stripped, time.UTC)
	if err != nil {
		return domain.PhotoInfo{}, fmt.Errorf("parse container datetime %q: %w", raw, err)
	}
	t = t.In(e.Loc)
	return domain.PhotoInfo{Path: path, Taken: &t, Source: domain.SourceMediaInfo}, nil
}

// validate 保证凡带时间的结果都已换算到目标时区。提取路径若漏掉
// 换算属于编程错误，直接崩溃好过悄悄写出错误的目录。
func (e *Extractor) validate(info domain.PhotoInfo) {
	if !info.HasTaken() {
		return
	}
	if got := info.Taken.Location().String(); got != e.Loc.String() {
		panic(fmt.Sprintf("提取结果时区 %s 与目标时区 %s 不一致：%s", got, e.Loc, info.Path))
	}
}

func parseCreationDate(s string) (time.Time, error) {
	for _, layout := range creationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// 无时区形式按 UTC 解释。
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse creationdate %q: %w", s, err)
	}
	return t, nil
}

// stripUTCMark 去掉 "UTC " 前缀或 " UTC" 后缀。两者都没有说明
// 容器元数据违背了 UTC 约定，按硬失败处理。
func stripUTCMark(s string) (string, bool) {
	if !strings.HasPrefix(s, "UTC ") && !strings.HasSuffix(s, " UTC") {
		return "", false
	}
	s = strings.TrimPrefix(s, "UTC")
	s = strings.TrimSuffix(s, "UTC")
	return strings.TrimSpace(s), true
}

// firstNonEmpty 按 keys 顺序返回首个非空值，模拟一连串 or。
func firstNonEmpty(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
