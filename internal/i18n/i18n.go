package i18n

import (
	"strings"
	"time"
)

// Language 描述用户希望使用的主要语言。
// 使用简短的语言代码（如 zh、en），决定时间戳的本地化格式。
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"

	// DefaultLanguage 未配置时的默认语言。
	DefaultLanguage = LanguageEnglish
)

const (
	layoutEnglish = "1/2/2006, 3:04:05 PM"
	layoutChinese = "2006/1/2 15:04:05"
	layoutGeneric = "2006-01-02 15:04:05"
)

// Normalize 将用户输入的语言值转换为统一的语言代码。
// 空字符串回退到默认语言，未知值原样保留。
func Normalize(value string) Language {
	lang := strings.ToLower(strings.TrimSpace(value))
	switch lang {
	case "":
		return DefaultLanguage
	case "zh", "zh-cn", "zh_cn", "zh-hans", "cn", "chinese", "中文":
		return LanguageChinese
	case "en", "en-us", "en_us", "en-gb", "english":
		return LanguageEnglish
	default:
		return Language(lang)
	}
}

// Code 返回规范化后的语言代码，空值回退到默认语言。
func (l Language) Code() string {
	if l == "" {
		return string(DefaultLanguage)
	}
	return string(Normalize(string(l)))
}

// DisplayName 返回适合展示的语言名称。
// 已知语言返回标准名称，未知语言则直接返回原始代码。
func (l Language) DisplayName() string {
	switch Normalize(string(l)) {
	case LanguageChinese:
		return "中文"
	case LanguageEnglish:
		return "English"
	default:
		return strings.TrimSpace(string(l))
	}
}

// TimeLayout 返回该语言下时间戳使用的 time 布局。
func (l Language) TimeLayout() string {
	switch Normalize(string(l)) {
	case LanguageEnglish:
		return layoutEnglish
	case LanguageChinese:
		return layoutChinese
	default:
		return layoutGeneric
	}
}

// FormatTime 按语言习惯把时间转换为本地时区的可读字符串。
func (l Language) FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(l.TimeLayout())
}
