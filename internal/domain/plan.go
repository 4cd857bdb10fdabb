package domain

import "sort"

// Plan 是一次运行的最终产物：待改名任务 + 带原因跳过的条目。
// 生命周期：运行开始时为空，worker 结果经 reconcile 写入，池排空后
// Finalize 一次，之后只读，交给执行引擎或报告层消费。
type Plan struct {
	RenameTasks  []RenameTask
	SkippedItems []PhotoInfo
}

// Finalize 把两个集合按各自的全序稳定排序。
// 并发完成顺序不允许影响最终输出，这里是唯一的排序点。
func (p *Plan) Finalize() {
	sort.SliceStable(p.RenameTasks, func(i, j int) bool {
		return p.RenameTasks[i].Less(p.RenameTasks[j])
	})
	sort.SliceStable(p.SkippedItems, func(i, j int) bool {
		return p.SkippedItems[i].Less(p.SkippedItems[j])
	})
}

type PlanSummary struct {
	Rename  int `json:"rename"`
	Skipped int `json:"skipped"`
}

func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		Rename:  len(p.RenameTasks),
		Skipped: len(p.SkippedItems),
	}
}
