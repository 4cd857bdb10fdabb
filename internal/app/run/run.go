package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/John-Robertt/phtorg/internal/app"
	"github.com/John-Robertt/phtorg/internal/app/planner"
	"github.com/John-Robertt/phtorg/internal/config"
	"github.com/John-Robertt/phtorg/internal/domain"
	"github.com/John-Robertt/phtorg/internal/extract"
	"github.com/John-Robertt/phtorg/internal/infra/fsx"
	"github.com/John-Robertt/phtorg/internal/scan"
)

// errMtimeNotAllowed：提取不出时间且未开启 mtime 兜底时的硬失败。
// 措辞属于对外数据格式，不要改动。
var errMtimeNotAllowed = errors.New("Cannot determine datetime from EXIF/MediaInfo. Fallback to mtime is not allowed.")

// Prepare 扫描源、并发提取时间并生成重命名计划，不移动任何文件。
// 只有扫描失败（源不存在等）才返回错误，单个文件的失败都会降级为
// 计划里的跳过条目。
func Prepare(ctx context.Context, eff config.EffectiveConfig, ex *extract.Extractor) (domain.Plan, error) {
	return PrepareWithObserver(ctx, eff, ex, nil)
}

// PrepareWithObserver 与 Prepare 相同，但把阶段与条目进度发给 Observer。
//
// ctx 取消后不再派发新文件，已经在工人手里的文件会做完，完成的
// 结果照常进入计划。部分计划仍然可用，由上层决定要不要执行。
func PrepareWithObserver(ctx context.Context, eff config.EffectiveConfig, ex *extract.Extractor, obs Observer) (domain.Plan, error) {
	if obs != nil {
		obs.OnStart(eff)
	}

	scanStarted := time.Now()
	files, err := scan.ScanPhotos(eff.Src, eff.Exts, eff.ExcludeDirs)
	if err != nil {
		return domain.Plan{}, err
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))
	}

	namer := planner.Namer{
		DstDir:           eff.DstDir,
		Prefix:           eff.Prefix,
		ScreenshotPrefix: eff.ScreenshotPrefix,
	}

	type result struct {
		file domain.PhotoFile
		task domain.RenameTask
		err  error
		dur  time.Duration
	}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan domain.PhotoFile)
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				started := time.Now()
				task, err := oneTask(eff, ex, namer, f)
				results <- result{file: f, task: task, err: err, dur: time.Since(started)}
			}
		}()
	}

	go func() {
		defer func() {
			close(jobs)
			wg.Wait()
			close(results)
		}()
		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	extractStarted := time.Now()
	tasks := make([]domain.RenameTask, 0, len(files))
	failures := make([]app.Failure, 0, 8)
	done := 0
	for r := range results {
		done++
		if r.err != nil {
			failures = append(failures, app.Failure{Path: r.file.AbsPath, Err: r.err})
		} else {
			tasks = append(tasks, r.task)
		}
		if obs != nil {
			obs.OnItemDone(done, len(files), r.file.AbsPath, r.err, r.dur)
		}
	}
	if obs != nil {
		obs.OnPhaseDone("extract", map[string]any{
			"tasks":  len(tasks),
			"failed": len(failures),
		}, time.Since(extractStarted))
	}

	reconcileStarted := time.Now()
	plan := app.Reconcile(tasks, failures)
	if obs != nil {
		obs.OnPhaseDone("reconcile", map[string]any{
			"rename":  len(plan.RenameTasks),
			"skipped": len(plan.SkippedItems),
		}, time.Since(reconcileStarted))
	}
	return plan, nil
}

// oneTask 提取单个文件的时间并生成重命名任务。提取不出时间时按
// 配置决定回退 mtime 还是硬失败；回退产生的是全新结果，之前的软
// 失败原因不保留。
func oneTask(eff config.EffectiveConfig, ex *extract.Extractor, namer planner.Namer, f domain.PhotoFile) (domain.RenameTask, error) {
	info, err := ex.Extract(f)
	if err != nil {
		return domain.RenameTask{}, err
	}
	if !info.HasTaken() {
		if !eff.AllowMtime {
			return domain.RenameTask{}, errMtimeNotAllowed
		}
		info, err = ex.FromMtime(f.AbsPath)
		if err != nil {
			return domain.RenameTask{}, err
		}
	}
	return namer.Task(f, info)
}

// Apply 依序执行计划中的重命名，并把每条结果写回 report.Tasks
// （report 必须由 NewRunReport 从同一份计划构造，两边顺序一致）。
// 单条失败不中断后续条目，返回失败条数。
func Apply(plan domain.Plan, report *domain.RunReport, obs Observer) int {
	failed := 0
	total := len(plan.RenameTasks)
	for i, task := range plan.RenameTasks {
		err := renameOne(task)
		if err != nil {
			failed++
			report.Tasks[i].Status = domain.TaskStatusFailed
			report.Tasks[i].ErrorMsg = err.Error()
		} else {
			report.Tasks[i].Status = domain.TaskStatusMoved
		}
		if obs != nil {
			obs.OnRenameDone(i+1, total, task, err)
		}
	}
	report.Executed = true
	return failed
}

func renameOne(task domain.RenameTask) error {
	if err := os.MkdirAll(filepath.Dir(task.Destination), 0o755); err != nil {
		return err
	}
	return fsx.Rename(task.Info.Path, task.Destination)
}
