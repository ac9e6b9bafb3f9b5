package content

import "strings"

const (
	minPercentage = 0
	maxPercentage = 100
	minRating     = 1
	maxRating     = 5
	// DefaultRating 在评分缺失时用于渲染。
	DefaultRating = 5
)

// ClampPercentage 把技能百分比限制在 0–100。
func ClampPercentage(p int) int {
	switch {
	case p < minPercentage:
		return minPercentage
	case p > maxPercentage:
		return maxPercentage
	default:
		return p
	}
}

// ClampRating 把评分限制在 1–5。
func ClampRating(r int) int {
	switch {
	case r < minRating:
		return minRating
	case r > maxRating:
		return maxRating
	default:
		return r
	}
}

// RenderRating 是渲染时的宽松处理：缺失（0）按默认 5 星，其余再做截断。
func RenderRating(r int) int {
	if r == 0 {
		return DefaultRating
	}
	return ClampRating(r)
}

// Normalize 在收集阶段对数值字段做截断，并去掉文本首尾空白。
func Normalize(site *Site) {
	if site == nil {
		return
	}
	for category, list := range site.Skills {
		for i := range list {
			list[i].Percentage = ClampPercentage(list[i].Percentage)
			list[i].Name = strings.TrimSpace(list[i].Name)
		}
		site.Skills[category] = list
	}
	for i := range site.Testimonials {
		site.Testimonials[i].Rating = ClampRating(site.Testimonials[i].Rating)
	}
	if site.Hero != nil {
		titles := site.Hero.TypewriterTitles[:0:0]
		for _, title := range site.Hero.TypewriterTitles {
			if t := strings.TrimSpace(title); t != "" {
				titles = append(titles, t)
			}
		}
		site.Hero.TypewriterTitles = titles
	}
	if site.Settings != nil && !IsTheme(site.Settings.Theme) {
		site.Settings.Theme = DefaultSettings().Theme
	}
	if site.FormConfig != nil && site.FormConfig.Type == FormTypeGoogle {
		site.FormConfig.Type = FormTypeGoogleForm
	}
}

// Paragraphs 按空行拆分关于区正文，去掉空段。
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BulletPoints 按 ". " 把经历描述拆成要点，保留句末句号以外的文字。
func BulletPoints(description string) []string {
	parts := strings.Split(description, ". ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimSuffix(p, ".")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
