package domain

import (
	"sort"
	"time"
)

const (
	TaskStatusPlanned = "planned"
	TaskStatusMoved   = "moved"
	TaskStatusFailed  = "failed"
)

// RunReport 是对外稳定输出（stdout 非 TTY 时的 JSON）的结构。
type RunReport struct {
	Src      string `json:"src"`
	DstDir   string `json:"dst_dir"`
	Timezone string `json:"timezone"`
	Executed bool   `json:"executed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary PlanSummary  `json:"summary"`
	Tasks   []TaskResult `json:"rename_tasks"`
	Skipped []SkipResult `json:"skipped_items"`
}

type TaskResult struct {
	Src            string `json:"src"`
	Datetime       string `json:"datetime"`
	DatetimeSource string `json:"datetime_source"`
	Dst            string `json:"dst"`

	Status   string `json:"status"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

type SkipResult struct {
	Src    string   `json:"src"`
	Errors []string `json:"errors"`
}

// NewRunReport 从已 Finalize 的 Plan 生成报告；所有任务初始为 planned。
func NewRunReport(plan *Plan) *RunReport {
	r := &RunReport{
		Summary: plan.Summary(),
		Tasks:   make([]TaskResult, 0, len(plan.RenameTasks)),
		Skipped: make([]SkipResult, 0, len(plan.SkippedItems)),
	}
	for _, t := range plan.RenameTasks {
		r.Tasks = append(r.Tasks, TaskResult{
			Src:            t.Info.Path,
			Datetime:       t.Info.TakenString(),
			DatetimeSource: string(t.Info.Source),
			Dst:            t.Destination,
			Status:         TaskStatusPlanned,
		})
	}
	for _, i := range plan.SkippedItems {
		r.Skipped = append(r.Skipped, SkipResult{Src: i.Path, Errors: i.Errors})
	}
	return r
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) tasks/skipped 稳定排序：按 src 字典序（plan 已排序，这里兜底）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Tasks, func(i, j int) bool {
		return r.Tasks[i].Src < r.Tasks[j].Src
	})
	sort.SliceStable(r.Skipped, func(i, j int) bool {
		return r.Skipped[i].Src < r.Skipped[j].Src
	})
}
