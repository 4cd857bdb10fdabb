// Package mediainfo 把“容器格式的变化”限制在本包内部：对 ISO-BMFF
// 容器（.mov/.mp4/.m4v）汇总通用轨道的三个日期字段，原样返回字符串，
// 解析与取舍逻辑全部在下游。
package mediainfo

import (
	"encoding/binary"
	"os"
	"time"

	mp4 "github.com/abema/go-mp4"
)

// GeneralTrack 是通用轨道的日期字段快照。字段缺失以空串表示。
type GeneralTrack struct {
	CreationDate string // com.apple.quicktime.creationdate（带偏移的 ISO 8601）
	EncodedDate  string // "UTC 2006-01-02 15:04:05"（mvhd creation time）
	TaggedDate   string // "UTC 2006-01-02 15:04:05"（mvhd modification time）
}

// appleEpochOffset 是 Apple/Mac 纪元（1904-01-01 UTC）与
// Unix 纪元（1970-01-01 UTC）之间的秒数。
const appleEpochOffset = 2082844800

// quickTimeCreationDateKey 是 iPhone 写入的拍摄时间键（moov/meta 下）。
const quickTimeCreationDateKey = "com.apple.quicktime.creationdate"

// Parse 打开容器并汇总通用轨道日期。
//
// 约束：
// - 字段缺失不是错误（对应空串）；打开/遍历失败才返回 error
// - mvhd 的纪元零值视为“未写入”，不渲染
func Parse(path string) (GeneralTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return GeneralTrack{}, err
	}
	defer f.Close()

	var (
		track GeneralTrack
		keys  []string                  // keys box 的键名表（序号从 1 起）
		items = make(map[uint32]string) // ilst item 序号 -> UTF-8 值
	)

	_, err = mp4.ReadBoxStructure(f, func(h *mp4.ReadHandle) (interface{}, error) {
		if !h.BoxInfo.IsSupportedType() {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoov(), mp4.BoxTypeUdta(), mp4.BoxTypeMeta(), mp4.BoxTypeIlst():
			return h.Expand()
		case mp4.BoxTypeMvhd():
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, err
			}
			if mvhd, ok := box.(*mp4.Mvhd); ok {
				var ct, mt uint64
				if mvhd.Version > 0 {
					ct, mt = mvhd.CreationTimeV1, mvhd.ModificationTimeV1
				} else {
					ct, mt = uint64(mvhd.CreationTimeV0), uint64(mvhd.ModificationTimeV0)
				}
				track.EncodedDate = renderAppleEpoch(ct)
				track.TaggedDate = renderAppleEpoch(mt)
			}
			return nil, nil
		case mp4.BoxTypeKeys():
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, err
			}
			if k, ok := box.(*mp4.Keys); ok {
				for _, e := range k.Entries {
					keys = append(keys, string(e.KeyValue))
				}
			}
			return nil, nil
		case mp4.BoxTypeData():
			if len(h.Path) < 2 {
				return nil, nil
			}
			// 父 box 类型即 item 序号（大端 uint32；iTunes 风格的
			// 4CC item 落不进 keys 序号区间，resolveKey 自然忽略）。
			parent := h.Path[len(h.Path)-2]
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, err
			}
			if d, ok := box.(*mp4.Data); ok && d.DataType == mp4.DataTypeStringUTF8 {
				items[binary.BigEndian.Uint32(parent[:])] = string(d.Data)
			}
			return nil, nil
		default:
			// ilst 的 item 容器：继续展开找里面的 data。
			if len(h.Path) >= 2 && h.Path[len(h.Path)-2] == mp4.BoxTypeIlst() {
				return h.Expand()
			}
			return nil, nil
		}
	})
	if err != nil {
		return GeneralTrack{}, err
	}

	track.CreationDate = resolveKey(keys, items, quickTimeCreationDateKey)
	return track, nil
}

// resolveKey 把 keys 键名表（序号从 1 起）与 ilst item 序号对上。
func resolveKey(keys []string, items map[uint32]string, name string) string {
	for i, k := range keys {
		if k != name {
			continue
		}
		if v, ok := items[uint32(i)+1]; ok {
			return v
		}
	}
	return ""
}

// renderAppleEpoch 把 Apple 纪元秒渲染成 MediaInfo 习惯的
// "UTC 2006-01-02 15:04:05"；零值或早于 Unix 纪元视为缺失。
func renderAppleEpoch(sec uint64) string {
	if sec == 0 {
		return ""
	}
	unix := int64(sec) - appleEpochOffset
	if unix < 0 {
		return ""
	}
	return "UTC " + time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05")
}
