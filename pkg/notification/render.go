package notification

import (
	"SafeCircle/pkg/i18n"
)

// Renderer 按通知类型和语言渲染标题与正文
type Renderer struct {
	i18n        *i18n.I18nSupport
	defaultLang string
}

// NewRenderer 创建文案渲染器
func NewRenderer(support *i18n.I18nSupport, defaultLang string) *Renderer {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Renderer{i18n: support, defaultLang: defaultLang}
}

// Render 渲染通知文案；lang 为空时使用默认语言
func (r *Renderer) Render(kind, lang string, data map[string]interface{}) (title, body string) {
	if lang == "" {
		lang = r.defaultLang
	}
	title = r.i18n.T(lang, kind+".title", data)
	body = r.i18n.T(lang, kind+".body", data)
	return title, body
}
