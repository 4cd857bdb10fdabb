package app

import (
	"os"
	"sort"

	"github.com/John-Robertt/phtorg/internal/domain"
)

// Failure 记录提取或规划阶段的硬失败，对应一个进不了计划的文件。
type Failure struct {
	Path string
	Err  error
}

// Reconcile 对照目标目录校验任务，产出最终计划。
//
//   - 任务按源路径排序后处理，结果与并发完成顺序无关
//   - 目标已存在且就是源文件本身：静默丢弃（重复跑的幂等情形）
//   - 目标已存在但是别的文件：跳过，原因 "Destination already exists"
//   - 同一批内两个任务争用同一目标：只有排序靠前的进计划
//   - 硬失败统一落入 SkippedItems，原因为错误文本
func Reconcile(tasks []domain.RenameTask, failures []Failure) domain.Plan {
	sorted := append([]domain.RenameTask(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var plan domain.Plan
	claimed := make(map[string]struct{}, len(sorted))
	for _, task := range sorted {
		if dstInfo, err := os.Stat(task.Destination); err == nil {
			if srcInfo, err := os.Stat(task.Info.Path); err == nil && os.SameFile(srcInfo, dstInfo) {
				continue
			}
			plan.SkippedItems = append(plan.SkippedItems, skipExists(task.Info, task.Destination))
			continue
		}
		if _, ok := claimed[task.Destination]; ok {
			plan.SkippedItems = append(plan.SkippedItems, skipExists(task.Info, task.Destination))
			continue
		}
		claimed[task.Destination] = struct{}{}
		plan.RenameTasks = append(plan.RenameTasks, task)
	}

	for _, f := range failures {
		plan.SkippedItems = append(plan.SkippedItems, domain.NoDatetime(f.Path, f.Err.Error()))
	}

	plan.Finalize()
	return plan
}

func skipExists(info domain.PhotoInfo, dst string) domain.PhotoInfo {
	info.Errors = append(append([]string(nil), info.Errors...), "Destination already exists: "+dst)
	return info
}
