// Package render 把站点内容渲染为一棵 HTML 节点树，并驱动首屏、统计与技能动画。
package render

import (
	"bytes"
	"io"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"soumiSpace/internal/anim"
	"soumiSpace/internal/content"
)

// 各分区容器的 id。
const (
	IDNavbar       = "navbar"
	IDHero         = "hero"
	IDAbout        = "about"
	IDExperience   = "experience"
	IDSkills       = "skills"
	IDTestimonials = "testimonials"
	IDLinkedIn     = "linkedin"
	IDContact      = "contact"
	IDFooter       = "footer"

	idTimeline      = "experience-timeline"
	idSkillsGrid    = "skills-grid"
	idCarousel      = "testimonials-carousel"
	idLinkedInPosts = "linkedin-posts"
	idHeroSubtitle  = "hero-subtitle"
	idFormContainer = "contact-form-container"
)

// Page 持有页面节点树。所有修改都在 mu 下进行，动画回调也不例外。
type Page struct {
	mu    sync.Mutex
	doc   *html.Node
	root  *html.Node
	title *html.Node
	body  *html.Node

	// tasks 为 nil 时页面是静态的：不启动任何定时器，数值直接显示终值。
	tasks  *anim.Tasks
	policy *bluemonday.Policy

	contact    *content.Contact
	formConfig *content.FormConfig
	settings   *content.Settings
}

// New 构造一个只有分区容器的空页面。
func New(tasks *anim.Tasks) *Page {
	p := &Page{tasks: tasks, policy: autoresponderPolicy()}

	p.title = el("title", nil)
	head := el("head", nil,
		el("meta", attrs(a("charset", "utf-8"))),
		el("meta", attrs(a("name", "viewport"), a("content", "width=device-width, initial-scale=1"))),
		p.title,
		el("link", attrs(a("rel", "stylesheet"), a("href", "/static/site.css"))),
	)
	p.body = el("body", nil,
		el("nav", attrs(a("id", IDNavbar), a("class", "navbar"))),
		el("section", attrs(a("id", IDHero), a("class", "hero"))),
		el("section", attrs(a("id", IDAbout), a("class", "section about"))),
		el("section", attrs(a("id", IDExperience), a("class", "section experience")),
			sectionHeader("Experience", "My professional journey"),
			el("div", attrs(a("id", idTimeline), a("class", "timeline"))),
		),
		el("section", attrs(a("id", IDSkills), a("class", "section skills")),
			sectionHeader("Skills & Expertise", "What I bring to the table"),
			el("div", attrs(a("id", idSkillsGrid), a("class", "skills-grid"))),
		),
		el("section", attrs(a("id", IDTestimonials), a("class", "section testimonials")),
			sectionHeader("Testimonials", "What students say"),
			el("div", attrs(a("id", idCarousel), a("class", "testimonial-carousel"))),
		),
		el("section", attrs(a("id", IDLinkedIn), a("class", "section linkedin")),
			sectionHeader("LinkedIn Posts", "Latest updates"),
			el("div", attrs(a("id", idLinkedInPosts), a("class", "linkedin-grid"))),
		),
		el("section", attrs(a("id", IDContact), a("class", "section contact"))),
		el("footer", attrs(a("id", IDFooter), a("class", "footer"))),
	)
	p.root = el("html", attrs(a("lang", "en")), head, p.body)

	p.doc = &html.Node{Type: html.DocumentNode}
	p.doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	p.doc.AppendChild(p.root)
	return p
}

// Animated 报告页面是否启动动画。
func (p *Page) Animated() bool { return p.tasks != nil }

// Render 依次渲染 site 中存在的分区；缺失的分区保持原样。重复调用得到相同的树。
func (p *Page) Render(site *content.Site) {
	if site == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if site.Settings != nil {
		p.applySettings(site.Settings, true)
	}
	if site.Navigation != nil {
		p.renderNavigation(site.Navigation)
	}
	if site.Hero != nil {
		p.renderHero(site.Hero)
	}
	if site.About != nil {
		p.renderAbout(site.About)
	}
	if site.Experience != nil {
		p.renderExperience(site.Experience)
	}
	if site.Skills != nil {
		p.renderSkills(site.Skills)
	}
	if site.Testimonials != nil {
		p.renderTestimonials(site.Testimonials)
	}
	p.renderLinkedIn(site.LinkedIn)
	if site.Contact != nil || site.FormConfig != nil {
		if site.Contact != nil {
			c := *site.Contact
			p.contact = &c
		}
		if site.FormConfig != nil {
			fc := *site.FormConfig
			p.formConfig = &fc
		}
		p.renderContact()
	}
	if site.Footer != nil {
		p.renderFooter(site.Footer)
	}
}

// ApplyTheme 只更新主题 class 与颜色变量，不触碰其它分区。
func (p *Page) ApplyTheme(settings *content.Settings) {
	if settings == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applySettings(settings, false)
}

// ApplyThemeName 在当前颜色基础上切换主题名。
func (p *Page) ApplyThemeName(theme string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := content.DefaultSettings()
	if p.settings != nil {
		*s = *p.settings
	}
	s.Theme = theme
	p.applySettings(s, false)
}

// Stop 取消页面上的全部动画。
func (p *Page) Stop() {
	if p.tasks != nil {
		p.tasks.CancelAll()
	}
}

// HTML 序列化当前节点树。
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.WriteHTML(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteHTML 把节点树写到 w。
func (p *Page) WriteHTML(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return html.Render(w, p.doc)
}

// NodeCount 返回树中节点总数，主要用于校验重复渲染的稳定性。
func (p *Page) NodeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return countNodes(p.doc)
}

// Text 返回指定 id 元素的文本内容，不存在时返回空串。
func (p *Page) Text(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return textContent(findByID(p.doc, id))
}

func (p *Page) container(id string) *html.Node {
	return findByID(p.doc, id)
}

// live 为动画回调包装锁与节点存活检查。
func (p *Page) live(n *html.Node, fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !attachedTo(n, p.doc) {
		return false
	}
	fn()
	return true
}

func sectionHeader(title, subtitle string) *html.Node {
	return el("div", attrs(a("class", "section-header")),
		el("h2", attrs(a("class", "section-title")), title),
		el("p", attrs(a("class", "section-subtitle")), subtitle),
	)
}
