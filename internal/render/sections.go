package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"soumiSpace/internal/anim"
	"soumiSpace/internal/content"
)

func (p *Page) applySettings(s *content.Settings, withTitle bool) {
	cp := *s
	p.settings = &cp

	if withTitle && s.Title != "" {
		setText(p.title, s.Title)
	}
	theme := s.Theme
	if !content.IsTheme(theme) {
		theme = content.DefaultSettings().Theme
	}
	removeClassPrefix(p.body, "theme-")
	addClass(p.body, "theme-"+theme)

	var vars []string
	if s.PrimaryColor != "" {
		vars = append(vars, "--primary-color: "+s.PrimaryColor)
	}
	if s.SecondaryColor != "" {
		vars = append(vars, "--secondary-color: "+s.SecondaryColor)
	}
	if s.AccentColor != "" {
		vars = append(vars, "--accent-color: "+s.AccentColor)
	}
	if len(vars) == 0 {
		removeAttr(p.root, "style")
		return
	}
	setAttr(p.root, "style", strings.Join(vars, "; ")+";")
}

func (p *Page) renderNavigation(nav *content.Navigation) {
	c := p.container(IDNavbar)
	clearChildren(c)

	setAttr(c, "class", "navbar")
	if nav.Sticky {
		addClass(c, "sticky")
	}
	var vars []string
	for _, kv := range [][2]string{
		{"--nav-text-color", nav.TextColor},
		{"--nav-bg-color", nav.BgColor},
		{"--nav-hover-color", nav.HoverColor},
		{"--nav-text-color-light", nav.TextColorLight},
		{"--nav-bg-color-light", nav.BgColorLight},
		{"--nav-hover-color-light", nav.HoverColorLight},
	} {
		if kv[1] != "" {
			vars = append(vars, kv[0]+": "+kv[1])
		}
	}
	if len(vars) > 0 {
		setAttr(c, "style", strings.Join(vars, "; ")+";")
	} else {
		removeAttr(c, "style")
	}

	inner := el("div", attrs(a("class", "nav-container")))
	if nav.ShowLogo && nav.Logo != "" {
		inner.AppendChild(el("a", attrs(a("class", "nav-logo"), a("href", "#hero")), logoNode(nav.Logo)))
	}
	links := el("ul", attrs(a("class", "nav-links")))
	for _, l := range nav.Links {
		links.AppendChild(el("li", nil, linkNode("nav-link", l.Text, l.Target, l.NewTab)))
	}
	inner.AppendChild(links)
	inner.AppendChild(el("button", attrs(a("class", "nav-toggle"), a("type", "button"), a("aria-label", "Toggle navigation")), "☰"))
	c.AppendChild(inner)
}

func (p *Page) renderHero(h *content.Hero) {
	c := p.container(IDHero)
	if p.tasks != nil {
		p.tasks.CancelPrefix("hero/")
	}
	clearChildren(c)

	subtitle := el("h2", attrs(a("id", idHeroSubtitle), a("class", "hero-subtitle")))
	typewriter := strings.TrimSpace(h.Subtitle) == ""
	if typewriter {
		addClass(subtitle, "typewriter")
		setAttr(subtitle, "data-mode", "typewriter")
	} else {
		setAttr(subtitle, "data-mode", "static")
		subtitle.AppendChild(textNode(h.Subtitle))
	}

	text := el("div", attrs(a("class", "hero-content")),
		el("p", attrs(a("class", "hero-greeting")), h.Greeting),
		el("h1", attrs(a("class", "hero-name")), h.Name),
		subtitle,
		el("p", attrs(a("class", "hero-description")), h.Description),
		el("div", attrs(a("class", "hero-buttons")),
			el("a", attrs(a("class", "btn btn-primary"), a("href", "#contact")), "Get In Touch"),
			el("a", attrs(a("class", "btn btn-secondary"), a("href", "#experience")), "View Experience"),
		),
	)
	c.AppendChild(text)
	if src := safeURL(h.Image); src != "" {
		c.AppendChild(el("div", attrs(a("class", "hero-image")),
			el("img", attrs(a("src", src), a("alt", h.Name))),
		))
	}

	if !typewriter {
		return
	}
	tw := anim.NewTypewriter(h.TypewriterTitles, content.DefaultTypewriterTitles())
	if p.tasks == nil {
		subtitle.AppendChild(textNode(tw.Title()))
		return
	}
	anim.TypewriterTask(p.tasks, "hero/typewriter", tw, func(s string) bool {
		return p.live(subtitle, func() { setText(subtitle, s) })
	})
}

func (p *Page) renderAbout(ab *content.About) {
	c := p.container(IDAbout)
	if p.tasks != nil {
		p.tasks.CancelPrefix("about/")
	}
	clearChildren(c)

	c.AppendChild(sectionHeader(ab.Title, ab.Description))

	textCol := el("div", attrs(a("class", "about-text")))
	for _, para := range content.Paragraphs(ab.Text) {
		textCol.AppendChild(el("p", nil, para))
	}
	if len(ab.Highlights) > 0 {
		ul := el("ul", attrs(a("class", "about-highlights")))
		for _, hl := range ab.Highlights {
			ul.AppendChild(el("li", nil, hl))
		}
		textCol.AppendChild(ul)
	}

	stats := ab.Statistics
	if len(stats) == 0 {
		stats = content.DefaultStatistics()
	}
	grid := el("div", attrs(a("class", "about-stats")))
	for i, st := range stats {
		number := el("span", attrs(a("class", "stat-number")))
		target, suffix, ok := anim.SplitNumber(st.Number)
		switch {
		case !ok:
			number.AppendChild(textNode(st.Number))
		case p.tasks == nil:
			setAttr(number, "data-target", strconv.Itoa(target))
			number.AppendChild(textNode(st.Number))
		default:
			setAttr(number, "data-target", strconv.Itoa(target))
			number.AppendChild(textNode("0" + suffix))
			n, sfx := number, suffix
			anim.CountUpTask(p.tasks, fmt.Sprintf("about/stat/%d", i), anim.Stagger(i, anim.StatStride), target, anim.CounterDuration, func(v int) bool {
				return p.live(n, func() { setText(n, strconv.Itoa(v)+sfx) })
			})
		}
		grid.AppendChild(el("div", attrs(a("class", "stat-card")),
			number,
			el("span", attrs(a("class", "stat-label")), st.Label),
		))
	}

	c.AppendChild(el("div", attrs(a("class", "about-content")), textCol, grid))
}

// renderExperience 按位置复用已有条目：更新前 n 个，追加不足的，删除多余的。
func (p *Page) renderExperience(items []content.Experience) {
	c := p.container(idTimeline)
	existing := elementChildren(c)

	for i, item := range items {
		if i < len(existing) {
			updateTimelineItem(existing[i], i, item)
			continue
		}
		node := newTimelineItem()
		updateTimelineItem(node, i, item)
		c.AppendChild(node)
	}
	for i := len(items); i < len(existing); i++ {
		c.RemoveChild(existing[i])
	}
}

func newTimelineItem() *html.Node {
	return el("div", attrs(a("class", "timeline-item")),
		el("div", attrs(a("class", "timeline-dot"))),
		el("div", attrs(a("class", "timeline-content")),
			el("h3", attrs(a("class", "timeline-title"))),
			el("h4", attrs(a("class", "timeline-company"))),
			el("span", attrs(a("class", "timeline-date"))),
			el("ul", attrs(a("class", "timeline-points"))),
		),
	)
}

func updateTimelineItem(node *html.Node, i int, item content.Experience) {
	setAttr(node, "data-index", strconv.Itoa(i))
	if n := findByClass(node, "timeline-title"); n != nil {
		setText(n, item.Title)
	}
	if n := findByClass(node, "timeline-company"); n != nil {
		setText(n, item.Company)
	}
	if n := findByClass(node, "timeline-date"); n != nil {
		setText(n, item.Date)
	}
	if ul := findByClass(node, "timeline-points"); ul != nil {
		clearChildren(ul)
		for _, point := range content.BulletPoints(item.Description) {
			ul.AppendChild(el("li", nil, point))
		}
	}
}

func (p *Page) renderSkills(skills content.Skills) {
	c := p.container(idSkillsGrid)
	if p.tasks != nil {
		p.tasks.CancelPrefix("skills/")
	}
	clearChildren(c)

	for ci, category := range content.SkillCategories {
		list := skills[category]
		if len(list) == 0 {
			list = content.DefaultSkills(category)
		}
		card := el("div", attrs(a("class", "skill-category"), a("data-category", category)),
			el("h3", attrs(a("class", "skill-category-title")), category),
		)
		revealAt := anim.Stagger(ci, anim.CategoryStride)
		for si, sk := range list {
			pct := content.ClampPercentage(sk.Percentage)
			color := sk.Color
			if color == "" {
				color = "var(--primary-color)"
			}
			shown := 0
			if p.tasks == nil {
				shown = pct
			}
			label := el("span", attrs(a("class", "skill-percentage")), strconv.Itoa(shown)+"%")
			bar := el("div", attrs(
				a("class", "skill-progress"),
				a("data-width", strconv.Itoa(pct)),
				a("style", progressStyle(shown, color)),
			))
			card.AppendChild(el("div", attrs(a("class", "skill-item")),
				el("div", attrs(a("class", "skill-info")),
					el("span", attrs(a("class", "skill-name")), sk.Name),
					label,
				),
				el("div", attrs(a("class", "skill-bar")), bar),
			))

			if p.tasks == nil {
				continue
			}
			l, b, col := label, bar, color
			delay := revealAt + anim.Stagger(si, anim.SkillStride)
			anim.CountUpTask(p.tasks, fmt.Sprintf("skills/%d/%d", ci, si), delay, pct, anim.CounterDuration, func(v int) bool {
				return p.live(l, func() {
					setText(l, strconv.Itoa(v)+"%")
					setAttr(b, "style", progressStyle(v, col))
				})
			})
		}
		if p.tasks == nil {
			addClass(card, "visible")
		} else {
			node := card
			anim.RevealTask(p.tasks, fmt.Sprintf("skills/%d/reveal", ci), revealAt, func() bool {
				return p.live(node, func() { addClass(node, "visible") })
			})
		}
		c.AppendChild(card)
	}
}

func progressStyle(width int, color string) string {
	return fmt.Sprintf("width: %d%%; background-color: %s;", width, color)
}

func (p *Page) renderTestimonials(items []content.Testimonial) {
	c := p.container(idCarousel)
	clearChildren(c)

	track := el("div", attrs(a("class", "testimonial-track")))
	dots := el("div", attrs(a("class", "carousel-dots")))
	for i, t := range items {
		slideClass := "testimonial-slide"
		dotClass := "carousel-dot"
		if i == 0 {
			slideClass += " active"
			dotClass += " active"
		}
		track.AppendChild(el("div", attrs(a("class", slideClass), a("data-index", strconv.Itoa(i))),
			stars(content.RenderRating(t.Rating)),
			el("blockquote", attrs(a("class", "testimonial-quote")), t.Quote),
			el("div", attrs(a("class", "testimonial-author")),
				avatar(t),
				el("div", attrs(a("class", "testimonial-info")),
					el("h4", attrs(a("class", "testimonial-name")), t.Name),
					el("p", attrs(a("class", "testimonial-title")), t.Title),
				),
			),
		))
		dots.AppendChild(el("button", attrs(
			a("class", dotClass),
			a("type", "button"),
			a("data-slide", strconv.Itoa(i)),
			a("aria-label", fmt.Sprintf("Show testimonial %d", i+1)),
		)))
	}
	c.AppendChild(track)
	if len(items) > 1 {
		c.AppendChild(el("div", attrs(a("class", "carousel-controls")),
			el("button", attrs(a("class", "carousel-prev"), a("type", "button"), a("aria-label", "Previous")), "‹"),
			dots,
			el("button", attrs(a("class", "carousel-next"), a("type", "button"), a("aria-label", "Next")), "›"),
		))
	}
}

func stars(rating int) *html.Node {
	n := el("div", attrs(a("class", "testimonial-rating"), a("aria-label", fmt.Sprintf("%d out of 5", rating))))
	for i := 1; i <= 5; i++ {
		if i <= rating {
			n.AppendChild(el("span", attrs(a("class", "star filled")), "★"))
		} else {
			n.AppendChild(el("span", attrs(a("class", "star")), "☆"))
		}
	}
	return n
}

// avatar 有图片时渲染 img，加载失败时由 onerror 换成首字母徽章。
func avatar(t content.Testimonial) *html.Node {
	initial := Initial(t.Name)
	wrap := el("div", attrs(a("class", "testimonial-avatar")))
	src := safeURL(t.Image)
	if src == "" {
		wrap.AppendChild(el("div", attrs(a("class", "testimonial-initial")), initial))
		return wrap
	}
	wrap.AppendChild(el("img", attrs(
		a("src", src),
		a("alt", t.Name),
		a("onerror", "this.style.display='none';this.nextElementSibling.style.display='flex';"),
	)))
	wrap.AppendChild(el("div", attrs(a("class", "testimonial-initial"), a("style", "display: none;")), initial))
	return wrap
}

// Initial 返回名字的首字母（大写）。
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

// renderLinkedIn 在列表为空或缺失时不做任何修改。
func (p *Page) renderLinkedIn(posts []content.LinkedInPost) {
	if len(posts) == 0 {
		return
	}
	c := p.container(idLinkedInPosts)
	clearChildren(c)
	for _, post := range posts {
		card := el("a", attrs(
			a("class", "linkedin-card"),
			a("href", safeURL(post.URL)),
			a("target", "_blank"),
			a("rel", "noopener noreferrer"),
		))
		if src := safeURL(post.Image); src != "" {
			card.AppendChild(el("img", attrs(a("class", "linkedin-image"), a("src", src), a("alt", post.Title))))
		}
		card.AppendChild(el("div", attrs(a("class", "linkedin-body")),
			el("h3", attrs(a("class", "linkedin-title")), post.Title),
			el("p", attrs(a("class", "linkedin-description")), post.Description),
			el("span", attrs(a("class", "linkedin-date")), post.Date),
		))
		c.AppendChild(card)
	}
}

func (p *Page) renderContact() {
	c := p.container(IDContact)
	clearChildren(c)

	ct := p.contact
	if ct == nil {
		ct = content.Defaults().Contact
	}
	title := ct.Title
	if title == "" {
		title = "Get In Touch"
	}
	c.AppendChild(sectionHeader(title, ct.Subtitle))

	info := el("div", attrs(a("class", "contact-info")))
	if ct.Email != "" {
		info.AppendChild(el("a", attrs(a("class", "contact-item contact-email"), a("href", "mailto:"+ct.Email)), ct.Email))
	}
	if ct.Phone != "" {
		info.AppendChild(el("a", attrs(a("class", "contact-item contact-phone"), a("href", "tel:"+strings.ReplaceAll(ct.Phone, " ", ""))), ct.Phone))
	}
	if ct.Location != "" {
		info.AppendChild(el("span", attrs(a("class", "contact-item contact-location")), ct.Location))
	}
	social := el("div", attrs(a("class", "social-links")))
	for _, s := range [][2]string{
		{"linkedin", ct.LinkedIn},
		{"facebook", ct.Facebook},
		{"twitter", ct.Twitter},
		{"instagram", ct.Instagram},
	} {
		if href := safeURL(s[1]); href != "" {
			social.AppendChild(el("a", attrs(
				a("class", "social-link social-"+s[0]),
				a("href", href),
				a("target", "_blank"),
				a("rel", "noopener noreferrer"),
				a("aria-label", s[0]),
			), s[0]))
		}
	}
	for _, cl := range ct.CustomLinks {
		if href := safeURL(cl.URL); href != "" {
			social.AppendChild(el("a", attrs(
				a("class", "social-link social-custom"),
				a("href", href),
				a("target", "_blank"),
				a("rel", "noopener noreferrer"),
				a("data-icon", cl.Icon),
			), cl.Name))
		}
	}
	info.AppendChild(social)

	formWrap := el("div", attrs(a("id", idFormContainer), a("class", "contact-form-wrapper")))
	formWrap.AppendChild(p.renderForm(ct))

	c.AppendChild(el("div", attrs(a("class", "contact-content")), info, formWrap))
}

func (p *Page) renderFooter(f *content.Footer) {
	c := p.container(IDFooter)
	clearChildren(c)

	brand := el("div", attrs(a("class", "footer-brand")))
	if f.Logo != "" {
		brand.AppendChild(el("div", attrs(a("class", "footer-logo")), logoNode(f.Logo)))
	}
	if f.Description != "" {
		brand.AppendChild(el("p", attrs(a("class", "footer-description")), f.Description))
	}
	links := el("ul", attrs(a("class", "footer-links")))
	for _, l := range f.Links {
		links.AppendChild(el("li", nil, linkNode("footer-link", l.Text, l.URL, l.NewTab)))
	}
	c.AppendChild(el("div", attrs(a("class", "footer-content")), brand, links))
	c.AppendChild(el("div", attrs(a("class", "footer-bottom")),
		el("p", attrs(a("class", "footer-copyright")), f.Copyright),
	))
}

func logoNode(logo string) *html.Node {
	if isImageRef(logo) {
		return el("img", attrs(a("class", "logo-image"), a("src", safeURL(logo)), a("alt", "Logo")))
	}
	return el("span", attrs(a("class", "logo-text")), logo)
}

func linkNode(class, text, href string, newTab bool) *html.Node {
	list := attrs(a("class", class), a("href", safeURL(href)))
	if newTab {
		list = append(list, a("target", "_blank"), a("rel", "noopener noreferrer"))
	}
	return el("a", list, text)
}
