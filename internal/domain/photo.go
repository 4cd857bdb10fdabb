package domain

// Kind 是按扩展名一次性判定的文件类别，决定走哪条提取策略。
// 判定顺序：图片 > 容器 > 截图；都不命中则为 KindUnsupported。
type Kind string

const (
	KindImage       Kind = "image"      // EXIF 兼容的图片格式
	KindContainer   Kind = "container"  // ISO-BMFF 容器（视频）
	KindScreenshot  Kind = "screenshot" // 截图类：跳过元数据提取
	KindUnsupported Kind = "unsupported"
)

// PhotoFile 描述一次扫描得到的媒体文件（只做路径判定，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 必须是小写（含点）
// - Kind 与 Screenshot 在扫描阶段一次性判定，之后只读
type PhotoFile struct {
	AbsPath    string
	Ext        string // ".jpg"
	Kind       Kind
	Screenshot bool // 扩展名属于截图集合，或父目录名为 "Screenshots"
}

// ScreenshotsDirName 是触发截图归类的父目录名（字面量匹配）。
const ScreenshotsDirName = "Screenshots"

// ExtSets 是三类扩展名集合（全部小写、含点），由配置构造。
type ExtSets struct {
	Image      map[string]struct{}
	Video      map[string]struct{}
	Screenshot map[string]struct{}
}

// Allowed 报告扩展名是否属于任一集合（目录扫描的准入条件）。
func (s ExtSets) Allowed(ext string) bool {
	if _, ok := s.Image[ext]; ok {
		return true
	}
	if _, ok := s.Video[ext]; ok {
		return true
	}
	_, ok := s.Screenshot[ext]
	return ok
}

// Classify 一次性判定文件类别与截图标记。
//
// 类别按序判定：图片 > 容器 > 截图（扩展名或父目录名命中）。
// 截图标记独立于类别：Screenshots 目录下的 .jpg 仍走 EXIF 提取，
// 但命名时使用截图前缀。
func Classify(ext, parentName string, s ExtSets) (Kind, bool) {
	screenshot := parentName == ScreenshotsDirName
	if _, ok := s.Screenshot[ext]; ok {
		screenshot = true
	}

	if _, ok := s.Image[ext]; ok {
		return KindImage, screenshot
	}
	if _, ok := s.Video[ext]; ok {
		return KindContainer, screenshot
	}
	if screenshot {
		return KindScreenshot, true
	}
	return KindUnsupported, false
}
