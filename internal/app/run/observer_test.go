package run

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/phtorg/internal/config"
	"github.com/John-Robertt/phtorg/internal/domain"
)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	items      []string
	renames    int
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnItemDone(idx, total int, path string, err error, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, path)
}

func (o *recordObserver) OnRenameDone(idx, total int, task domain.RenameTask, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renames++
}

func TestPrepareWithObserver_EmitsPhaseAndItemEvents(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in")
	write(t, filepath.Join(src, "a.jpg"), "x")
	write(t, filepath.Join(src, "b.jpg"), "y")

	eff := testConfig(t, src, filepath.Join(root, "out"))
	obs := &recordObserver{}
	_, err := PrepareWithObserver(context.Background(), eff, stubExtractor(eff.Location), obs)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	wantPhases := []string{"scan", "extract", "reconcile"}
	if !reflect.DeepEqual(obs.phases, wantPhases) {
		t.Fatalf("阶段事件不符合预期：got=%v want=%v", obs.phases, wantPhases)
	}
	if len(obs.items) != 2 {
		t.Fatalf("期望 2 条条目事件，实际 %d", len(obs.items))
	}
}

func TestPrepareWithObserver_NilObserver_SameResult(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in")
	write(t, filepath.Join(src, "a.jpg"), "x")

	eff := testConfig(t, src, filepath.Join(root, "out"))
	ex := stubExtractor(eff.Location)

	a, err := Prepare(context.Background(), eff, ex)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := PrepareWithObserver(context.Background(), eff, ex, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("nil observer 不应改变结果：\nPrepare=%+v\nWithObs=%+v", a, b)
	}
}

func TestApply_ObserverRenameEvents(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in")
	write(t, filepath.Join(src, "a.jpg"), "x")
	write(t, filepath.Join(src, "b.jpg"), "y")

	eff := testConfig(t, src, filepath.Join(root, "out"))
	plan, err := Prepare(context.Background(), eff, stubExtractor(eff.Location))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	obs := &recordObserver{}
	report := domain.NewRunReport(plan)
	if n := Apply(plan, &report, obs); n != 0 {
		t.Fatalf("期望 0 条失败，实际 %d", n)
	}
	if obs.renames != len(plan.RenameTasks) {
		t.Fatalf("期望 %d 条重命名事件，实际 %d", len(plan.RenameTasks), obs.renames)
	}
}
