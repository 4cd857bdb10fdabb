// Package report 把计划与运行结果渲染成对外输出。
//
// 三种形态：CSV 文件（rename_tasks.csv / skipped_items.csv）、终端
// 预览表格、RunReport JSON。CSV 列名与 JSON 字段名是对外稳定契约，
// 改动会破坏下游脚本。
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/John-Robertt/phtorg/internal/domain"
	"github.com/John-Robertt/phtorg/internal/infra/fsx"
)

const (
	RenameTasksCSV  = "rename_tasks.csv"
	SkippedItemsCSV = "skipped_items.csv"
)

// EncodeRenameCSV 渲染重命名任务表。
func EncodeRenameCSV(tasks []domain.RenameTask) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.RenameTaskCSVHeader()); err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if err := w.Write(task.CSVRow()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeSkippedCSV 渲染跳过条目表。
func EncodeSkippedCSV(items []domain.PhotoInfo) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.PhotoInfoCSVHeader()); err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := w.Write(item.CSVRow()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveCSV 把两张表原子写入 dir（通常是当前目录）。已存在的旧表会
// 被整体替换，不会出现半截文件。
func SaveCSV(dir string, plan domain.Plan) error {
	rb, err := EncodeRenameCSV(plan.RenameTasks)
	if err != nil {
		return err
	}
	sb, err := EncodeSkippedCSV(plan.SkippedItems)
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(dir, RenameTasksCSV, rb); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(dir, SkippedItemsCSV, sb)
}

// Preview 渲染终端预览：两段表格，列用制表符对齐。
func Preview(plan domain.Plan) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Rename (%d):\n", len(plan.RenameTasks))
	tw := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(domain.RenameTaskCSVHeader(), "\t"))
	for _, task := range plan.RenameTasks {
		fmt.Fprintln(tw, strings.Join(task.CSVRow(), "\t"))
	}
	tw.Flush()

	fmt.Fprintf(&buf, "\nSkip (%d):\n", len(plan.SkippedItems))
	tw = tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(domain.PhotoInfoCSVHeader(), "\t"))
	for _, item := range plan.SkippedItems {
		fmt.Fprintln(tw, strings.Join(item.CSVRow(), "\t"))
	}
	tw.Flush()

	return buf.String()
}

// EncodeJSON 渲染 RunReport（机器输出，带缩进，末尾换行）。
func EncodeJSON(rr domain.RunReport) ([]byte, error) {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
