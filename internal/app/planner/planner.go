// Package planner 把提取结果变成确定性的重命名计划。
//
// 文件名由拍摄时间与内容哈希拼成，同一文件无论跑多少次都得到
// 同一个目标路径。本包只读文件内容做哈希，不做任何写入/移动。
package planner

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/John-Robertt/phtorg/internal/domain"
)

// 哈希读取块大小。
const hashChunkSize = 10 << 20

// 文件名里截取的哈希前缀长度。改短会增加碰撞概率，改长会让
// 既有目录里的旧文件名失去幂等判断，都不要动。
const hashPrefixLen = 7

// Namer 描述目标命名方案。
type Namer struct {
	DstDir           string
	Prefix           string
	ScreenshotPrefix string
}

// Task 为单个文件生成重命名任务。目标路径形如
// {DstDir}/{年}/{前缀}{YYYYMMDD_HHMMSS}_{sha1 前 7 位}{扩展名}，
// 其中年与时间戳都取换算后时区的本地值。
func (n Namer) Task(f domain.PhotoFile, info domain.PhotoInfo) (domain.RenameTask, error) {
	if !info.HasTaken() {
		return domain.RenameTask{}, fmt.Errorf("缺少拍摄时间：%s", f.AbsPath)
	}

	sum, err := fileSHA1(f.AbsPath)
	if err != nil {
		return domain.RenameTask{}, err
	}

	prefix := n.Prefix
	if f.Screenshot {
		prefix = n.ScreenshotPrefix
	}
	taken := *info.Taken
	name := prefix + taken.Format("20060102_150405") + "_" + sum + f.Ext
	dst := filepath.Join(n.DstDir, strconv.Itoa(taken.Year()), name)

	return domain.RenameTask{Info: info, Destination: dst}, nil
}

func fileSHA1(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:hashPrefixLen], nil
}
