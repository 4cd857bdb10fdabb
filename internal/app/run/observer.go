package run

import (
	"time"

	"github.com/John-Robertt/phtorg/internal/config"
	"github.com/John-Robertt/phtorg/internal/domain"
)

// Observer 把运行进度从核心流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 实现必须并发安全：结果汇聚来自多个 goroutine。
type Observer interface {
	// OnStart 在 PrepareWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在 scan/extract/reconcile 各阶段结束时调用。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 每提取完一个文件调用一次，err 非 nil 表示该文件硬失败。
	OnItemDone(idx, total int, path string, err error, dur time.Duration)
	// OnRenameDone 执行阶段每完成一条重命名调用一次。
	OnRenameDone(idx, total int, task domain.RenameTask, err error)
}
