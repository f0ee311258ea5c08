// Package activity classifies what the user is doing on screen and keeps a
// running histogram of those activity categories.
package activity

// Fixed category labels. The order here is also the display tie-break order.
const (
	CategoryWork     = "工作编程"
	CategoryLeisure  = "娱乐休闲"
	CategorySocial   = "社交聊天"
	CategoryLearning = "学习研究"
	CategoryCreative = "创作设计"
	CategorySystem   = "系统管理"
	CategoryBrowsing = "网页浏览"
	CategoryVideo    = "视频媒体"
	CategoryGaming   = "游戏"
	CategoryOther    = "其他"
)

// Categories lists every valid label in display order.
var Categories = []string{
	CategoryWork,
	CategoryLeisure,
	CategorySocial,
	CategoryLearning,
	CategoryCreative,
	CategorySystem,
	CategoryBrowsing,
	CategoryVideo,
	CategoryGaming,
	CategoryOther,
}

// ValidCategory reports whether label is one of the fixed categories.
func ValidCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}

// keywordWeight is the score a single keyword hit adds to its category.
const keywordWeight = 10.0

// keywords maps each category (except Other) to the lowercase substrings that
// indicate it. Matching is substring-based over lowercased text.
var keywords = []struct {
	category string
	terms    []string
}{
	{CategoryWork, []string{"代码", "编程", "code", "programming", "开发", "debug", "函数", "变量", "git", "terminal", "ide", "vscode"}},
	{CategoryLeisure, []string{"视频", "电影", "音乐", "娱乐", "休闲", "youtube", "netflix", "bilibili", "抖音"}},
	{CategorySocial, []string{"聊天", "消息", "微信", "qq", "telegram", "discord", "邮件", "email", "chat"}},
	{CategoryLearning, []string{"学习", "文档", "阅读", "研究", "paper", "文献", "教程", "course", "study"}},
	{CategoryCreative, []string{"设计", "创作", "画", "photoshop", "figma", "sketch", "创意", "艺术"}},
	{CategorySystem, []string{"系统", "设置", "配置", "管理", "finder", "preferences", "系统偏好"}},
	{CategoryBrowsing, []string{"浏览器", "网页", "搜索", "chrome", "safari", "firefox", "google", "百度"}},
	{CategoryVideo, []string{"播放器", "视频", "movie", "media", "vlc", "quicktime"}},
	{CategoryGaming, []string{"游戏", "game", "steam", "play", "玩"}},
}
