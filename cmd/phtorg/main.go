package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/John-Robertt/phtorg/internal/app/run"
	"github.com/John-Robertt/phtorg/internal/config"
	"github.com/John-Robertt/phtorg/internal/domain"
	"github.com/John-Robertt/phtorg/internal/extract"
	"github.com/John-Robertt/phtorg/internal/logx"
	"github.com/John-Robertt/phtorg/internal/report"
)

// 通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "organize":
		if code := organizeCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "version", "-v", "--version":
		fmt.Printf("phtorg %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func organizeCmd(args []string) int {
	opts, err := parseOrganizeArgs(args)
	if err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printOrganizeUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	logPath := logx.Setup(cwd)

	eff, err := config.LoadEffective(cwd, opts.cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 2
	}
	eff.ExcludeDirs = append(eff.ExcludeDirs, opts.excludes...)

	logrus.Infof("organize：src=%s dst=%s timezone=%s allow_mtime=%v concurrency=%d",
		eff.Src, eff.DstDir, eff.TimezoneName, eff.AllowMtime, eff.Concurrency)

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	// 提取阶段允许 Ctrl-C：取消后用已完成的部分结果继续走提示/报告。
	started := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	plan, err := run.PrepareWithObserver(ctx, eff, extract.New(eff.Location), obs)
	interrupted := ctx.Err() != nil
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "扫描失败：%v\n", err)
		return 1
	}
	if interrupted {
		fmt.Fprintln(os.Stderr, "已中断：使用已完成的部分结果继续")
		logrus.Warn("提取阶段被中断，只处理已完成的部分")
	}

	logrus.Infof("Collected %d rename tasks.", len(plan.RenameTasks))

	rr := domain.NewRunReport(&plan)
	rr.Src = eff.Src
	rr.DstDir = eff.DstDir
	rr.Timezone = eff.TimezoneName
	rr.StartedAt = started

	doRename := false
	aborted := false
	switch {
	case opts.save:
		if err := report.SaveCSV(cwd, plan); err != nil {
			fmt.Fprintf(os.Stderr, "保存 CSV 失败：%v\n", err)
			return 1
		}
		logrus.Info("Preview of operations written to `rename_tasks.csv` and `skipped_items.csv`")
		fmt.Fprintf(os.Stderr, "已保存：%s %s\n", report.RenameTasksCSV, report.SkippedItemsCSV)
	case opts.yes:
		doRename = true
	case isTTY(os.Stdin) && isTTY(os.Stdout):
		doRename = confirmRename(bufio.NewReader(os.Stdin), os.Stdout, plan, cwd)
		aborted = !doRename
	default:
		// 非交互且未给 --yes：只输出报告，不执行。
	}

	failed := 0
	if doRename {
		failed = run.Apply(plan, rr, obs)
		logrus.Infof("重命名完成：moved=%d failed=%d", len(plan.RenameTasks)-failed, failed)
	}
	rr.FinishedAt = time.Now()
	rr.Finalize()

	emitReport(rr, failed, aborted)
	if interactive && logPath != "" {
		fmt.Fprintf(progressW, "log: %s\n", logPath)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

type organizeOpts struct {
	cli      config.CLIArgs
	excludes []string
	yes      bool
	save     bool
}

func parseOrganizeArgs(args []string) (organizeOpts, error) {
	fs := pflag.NewFlagSet("organize", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	dstDir := fs.StringP("dst-dir", "d", "", "目标目录")
	timezone := fs.StringP("timezone", "t", "", "目标时区（IANA 名称）")
	allowMtime := fs.Bool("allow-mtime", false, "EXIF/MediaInfo 提取不到时间时允许回退 mtime")
	concurrency := fs.IntP("concurrency", "j", 0, "并发提取数")
	excludes := fs.StringSlice("exclude", nil, "跳过的目录，可重复")
	yes := fs.BoolP("yes", "y", false, "不询问，直接执行重命名")
	save := fs.Bool("save", false, "保存计划为 CSV 后退出，不执行")

	if err := fs.Parse(args); err != nil {
		return organizeOpts{}, err
	}

	rest := fs.Args()
	if len(rest) > 1 {
		return organizeOpts{}, fmt.Errorf("多余的位置参数：%q", rest[1:])
	}

	opts := organizeOpts{
		excludes: *excludes,
		yes:      *yes,
		save:     *save,
	}
	if len(rest) == 1 {
		opts.cli.Src = rest[0]
	}
	if fs.Changed("dst-dir") {
		opts.cli.DstDir = *dstDir
		opts.cli.DstDirSet = true
	}
	if fs.Changed("timezone") {
		opts.cli.Timezone = *timezone
		opts.cli.TimezoneSet = true
	}
	if fs.Changed("allow-mtime") {
		opts.cli.AllowMtime = *allowMtime
		opts.cli.AllowMtimeSet = true
	}
	if fs.Changed("concurrency") {
		opts.cli.Concurrency = *concurrency
		opts.cli.ConcurrencySet = true
	}
	return opts, nil
}

// confirmRename 对应交互式确认：重命名 / 预览 / 保存 CSV / 中止。
// 输入流结束（Ctrl-D / Ctrl-C 后的 EOF）等同中止。
func confirmRename(in *bufio.Reader, out io.Writer, plan domain.Plan, saveDir string) bool {
	for {
		fmt.Fprintln(out, "Rename the files, preview the tasks, save the tasks in CSV, or abort?")
		fmt.Fprint(out, "(R)ename/(p)review/(s)ave/(a)bort? ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r":
			return true
		case "p":
			fmt.Fprint(out, report.Preview(plan))
		case "s":
			if err := report.SaveCSV(saveDir, plan); err != nil {
				fmt.Fprintf(out, "保存 CSV 失败：%v\n", err)
				continue
			}
			logrus.Info("Preview of operations written to `rename_tasks.csv` and `skipped_items.csv`")
			fmt.Fprintf(out, "已保存：%s %s\n", report.RenameTasksCSV, report.SkippedItemsCSV)
		case "a":
			return false
		default:
			// 无效输入：重新询问。
		}
		if err != nil {
			return false
		}
	}
}

func emitReport(rr *domain.RunReport, failed int, aborted bool) {
	if isTTY(os.Stdout) {
		if aborted {
			return
		}
		renameCount := fmt.Sprintf("%d", rr.Summary.Rename)
		if rr.Summary.Rename > 0 {
			renameCount = color.GreenString("%d", rr.Summary.Rename)
		}
		skipCount := fmt.Sprintf("%d", rr.Summary.Skipped)
		if rr.Summary.Skipped > 0 {
			skipCount = color.YellowString("%d", rr.Summary.Skipped)
		}
		line := fmt.Sprintf("完成：rename=%s skipped=%s", renameCount, skipCount)
		if rr.Executed {
			failCount := fmt.Sprintf("%d", failed)
			if failed > 0 {
				failCount = color.RedString("%d", failed)
			}
			line += " failed=" + failCount
		}
		fmt.Fprintln(os.Stdout, line)

		for _, task := range rr.Tasks {
			if task.Status == domain.TaskStatusFailed {
				fmt.Fprintf(os.Stderr, "%s: %s\n", task.Src, truncate(task.ErrorMsg, 160))
			}
		}
		return
	}

	// stdout 非 TTY：stdout 只输出一个 RunReport JSON（摘要走 stderr）。
	if b, err := report.EncodeJSON(*rr); err == nil {
		_, _ = os.Stdout.Write(b)
	}
	fmt.Fprintf(os.Stderr, "完成：rename=%d skipped=%d failed=%d\n",
		rr.Summary.Rename, rr.Summary.Skipped, failed)
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  phtorg organize [src] [选项]
  phtorg version

命令：
  organize   按拍摄时间整理照片/视频（默认交互确认）
  version    显示版本

使用 "phtorg organize --help" 查看详细说明。
`)
}

func printOrganizeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  phtorg organize [src] [选项]

参数：
  src                   源目录或单个文件（未指定则读配置文件 src）

选项：
  -d, --dst-dir DIR     目标目录（默认当前目录）
  -t, --timezone NAME   目标时区，IANA 名称（默认 Local）
      --allow-mtime     EXIF/MediaInfo 提取不到时间时允许回退 mtime
  -j, --concurrency N   并发提取数，1-32（默认 4）
      --exclude DIR     跳过的目录，可重复；相对 src 或绝对路径
  -y, --yes             不询问，直接执行重命名
      --save            保存计划为 CSV 后退出，不执行
  -h, --help            显示帮助

配置文件：当前目录下的 phtorg.json，命令行参数优先。
`)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
