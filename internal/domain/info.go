package domain

import (
	"strings"
	"time"
)

// Source 标记时间戳的来源，同时是 CSV 里 datetime_source 列的稳定取值。
type Source string

const (
	SourceEXIF      Source = "EXIF"
	SourceMediaInfo Source = "MediaInfo"
	SourceMtime     Source = "mtime"
)

// PhotoInfo 是对单个文件做时间戳提取的结果。
//
// 不变量：Taken 非 nil 当且仅当 Source 非空；Taken 必须是目标时区下的
// aware 时间。Taken 为 nil 表示“带原因的跳过”，不是错误——原因按发生
// 顺序累积在 Errors 里。
type PhotoInfo struct {
	Path   string
	Taken  *time.Time
	Source Source
	Errors []string
}

// NoDatetime 构造一个没有时间戳的结果，原因按给出顺序记录。
func NoDatetime(path string, reasons ...string) PhotoInfo {
	return PhotoInfo{Path: path, Errors: reasons}
}

// HasTaken 报告是否成功提取到时间戳。
func (p PhotoInfo) HasTaken() bool { return p.Taken != nil }

// Less 定义 PhotoInfo 的全序：按路径字典序（一批内路径唯一）。
func (p PhotoInfo) Less(q PhotoInfo) bool { return p.Path < q.Path }

// TakenString 以 "2006-01-02 15:04:05-07:00" 渲染时间戳；无时间戳返回空串。
func (p PhotoInfo) TakenString() string {
	if p.Taken == nil {
		return ""
	}
	return p.Taken.Format("2006-01-02 15:04:05-07:00")
}

// CSVHeader 是 skipped_items.csv 的稳定列结构。
func PhotoInfoCSVHeader() []string { return []string{"src", "errors"} }

// CSVRow 渲染 skipped_items.csv 的一行；多条原因用 "; " 连接。
func (p PhotoInfo) CSVRow() []string {
	return []string{p.Path, strings.Join(p.Errors, "; ")}
}
