package domain

// RenameTask 规划一次改名（src 由 Info.Path 给出；真正执行见 run.Apply）。
//
// 不变量：Info.Taken 必须非 nil；Destination 完全由
// (时间戳, 内容哈希, 扩展名, 是否截图) 决定，对未移动的文件重复规划
// 得到相同的 Destination。
type RenameTask struct {
	Info        PhotoInfo
	Destination string
}

// Less 定义 RenameTask 的全序：先按源路径，再按目标路径。
func (t RenameTask) Less(u RenameTask) bool {
	if t.Info.Path != u.Info.Path {
		return t.Info.Path < u.Info.Path
	}
	return t.Destination < u.Destination
}

// CSVHeader 是 rename_tasks.csv 的稳定列结构。
func RenameTaskCSVHeader() []string {
	return []string{"src", "datetime", "datetime_source", "dst"}
}

// CSVRow 渲染 rename_tasks.csv 的一行。
func (t RenameTask) CSVRow() []string {
	return []string{
		t.Info.Path,
		t.Info.TakenString(),
		string(t.Info.Source),
		t.Destination,
	}
}
