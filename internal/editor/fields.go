package editor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"soumiSpace/internal/content"
	"soumiSpace/internal/render"
)

// Form 是编辑器的扁平字段表，键为 "分区.字段"，例如 hero.name、footer.links.0.text。
//
// 带下标的分组另有两个约定：footer.links.1.remove=true 删除该条目；
// 出现分组键本身（footer.links）表示表单中的下标就是完整列表，没有下标即清空。
type Form map[string]string

// Clone 返回副本。
func (f Form) Clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// fieldSet 负责一个分区里一个字段（或一组带下标的字段）的投影与收集。
type fieldSet interface {
	project(s *content.Site, section string, form Form)
	collect(s *content.Site, section string, form Form) []error
	// group 返回带下标分组的键，普通字段返回空串。
	group() string
}

type scalar struct {
	key      string
	optional bool
	get      func(*content.Site) string
	set      func(*content.Site, string) error
}

func (f scalar) opt() scalar {
	f.optional = true
	return f
}

func (f scalar) group() string { return "" }

func (f scalar) project(s *content.Site, section string, form Form) {
	form[section+"."+f.key] = f.get(s)
}

func (f scalar) collect(s *content.Site, section string, form Form) []error {
	v, ok := form[section+"."+f.key]
	if !ok {
		if f.optional {
			return nil
		}
		return []error{&MissingFieldError{Section: section, Field: f.key}}
	}
	if err := f.set(s, v); err != nil {
		return []error{&InvalidFieldError{Section: section, Field: f.key, Err: err}}
	}
	return nil
}

func text(key string, ptr func(*content.Site) *string) scalar {
	return scalar{
		key: key,
		get: func(s *content.Site) string { return *ptr(s) },
		set: func(s *content.Site, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

func flag(key string, ptr func(*content.Site) *bool) scalar {
	return scalar{
		key: key,
		get: func(s *content.Site) string { return strconv.FormatBool(*ptr(s)) },
		set: func(s *content.Site, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			*ptr(s) = b
			return nil
		},
	}
}

func number(key string, ptr func(*content.Site) *int) scalar {
	return scalar{
		key: key,
		get: func(s *content.Site) string { return strconv.Itoa(*ptr(s)) },
		set: func(s *content.Site, v string) error {
			n, err := parseInt(v)
			if err != nil {
				return err
			}
			*ptr(s) = n
			return nil
		},
	}
}

// themeName 只接受内置主题。
func themeName(key string, ptr func(*content.Site) *string) scalar {
	return scalar{
		key: key,
		get: func(s *content.Site) string { return *ptr(s) },
		set: func(s *content.Site, v string) error {
			if !content.IsTheme(v) {
				return fmt.Errorf("%w: %q", ErrInvalidTheme, v)
			}
			*ptr(s) = v
			return nil
		},
	}
}

// autoresponderCode 写入代码时同步重新解析，解析失败则清空 parsedData。
func autoresponderCode() scalar {
	return scalar{
		key: "autoresponder.code",
		get: func(s *content.Site) string { return s.FormConfig.Autoresponder.Code },
		set: func(s *content.Site, v string) error {
			ar := &s.FormConfig.Autoresponder
			ar.Code = v
			ar.ParsedData = nil
			if strings.TrimSpace(v) != "" {
				if parsed, err := render.ParseAutoresponder(v); err == nil {
					ar.ParsedData = parsed
				}
			}
			return nil
		},
	}
}

// lines 把字符串列表投影为多行文本，每行一项。
func lines(key string, ptr func(*content.Site) *[]string) scalar {
	return scalar{
		key: key,
		get: func(s *content.Site) string { return strings.Join(*ptr(s), "\n") },
		set: func(s *content.Site, v string) error {
			prev := *ptr(s)
			out := prev[:0:0]
			for _, line := range strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					out = append(out, line)
				}
			}
			*ptr(s) = out
			return nil
		},
	}
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// column 是列表条目的一个字段，既用于带下标的表单字段，也用于条目编辑。
type column[T any] struct {
	name string
	get  func(*T) string
	set  func(*T, string) error
}

func textCol[T any](name string, ptr func(*T) *string) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return *ptr(t) },
		set: func(t *T, v string) error {
			*ptr(t) = v
			return nil
		},
	}
}

func boolCol[T any](name string, ptr func(*T) *bool) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return strconv.FormatBool(*ptr(t)) },
		set: func(t *T, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			*ptr(t) = b
			return nil
		},
	}
}

// intCol 的 clamp 在收集时执行。
func intCol[T any](name string, ptr func(*T) *int, clamp func(int) int) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return strconv.Itoa(*ptr(t)) },
		set: func(t *T, v string) error {
			n, err := parseInt(v)
			if err != nil {
				return err
			}
			if clamp != nil {
				n = clamp(n)
			}
			*ptr(t) = n
			return nil
		},
	}
}

// removeField 是条目删除标记的列名。
const removeField = "remove"

// indexed 是分区内嵌的小列表，表单键形如 footer.links.0.text。
// 非 optional 的分组在表单中完全缺席时报 MissingFieldError，不会被清空。
type indexed[T any] struct {
	key      string
	optional bool
	slice    func(*content.Site) *[]T
	cols     []column[T]
}

func (g indexed[T]) group() string { return g.key }

func (g indexed[T]) project(s *content.Site, section string, form Form) {
	if len(*g.slice(s)) == 0 {
		form[section+"."+g.key] = ""
		return
	}
	for i := range *g.slice(s) {
		item := &(*g.slice(s))[i]
		for _, c := range g.cols {
			form[fmt.Sprintf("%s.%s.%d.%s", section, g.key, i, c.name)] = c.get(item)
		}
	}
}

func (g indexed[T]) collect(s *content.Site, section string, form Form) []error {
	prefix := section + "." + g.key + "."
	ptr := g.slice(s)
	prev := *ptr
	out := prev[:0:0]
	idx := indices(form, prefix)
	if len(idx) == 0 {
		if _, ok := form[section+"."+g.key]; ok {
			*ptr = out
			return nil
		}
		if g.optional {
			return nil
		}
		return []error{&MissingFieldError{Section: section, Field: g.key}}
	}
	var errs []error
	for _, i := range idx {
		if v, ok := form[fmt.Sprintf("%s%d.%s", prefix, i, removeField)]; ok {
			removed, err := parseBool(v)
			if err != nil {
				errs = append(errs, &InvalidFieldError{Section: section, Field: fmt.Sprintf("%s.%d.%s", g.key, i, removeField), Err: err})
				continue
			}
			if removed {
				continue
			}
		}
		var item T
		if i < len(prev) {
			item = prev[i]
		}
		for _, c := range g.cols {
			key := fmt.Sprintf("%s%d.%s", prefix, i, c.name)
			v, ok := form[key]
			if !ok {
				continue
			}
			if err := c.set(&item, v); err != nil {
				errs = append(errs, &InvalidFieldError{Section: section, Field: strings.TrimPrefix(key, section+"."), Err: err})
			}
		}
		out = append(out, item)
	}
	*ptr = out
	return errs
}

// indices 返回表单中 prefix 之后出现的下标，升序去重。
func indices(form Form, prefix string) []int {
	seen := map[int]bool{}
	for key := range form {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, ".")
		i, err := strconv.Atoi(head)
		if err != nil || i < 0 {
			continue
		}
		seen[i] = true
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// resetGroup 删除 form 中某个分组已有的下标键。
func resetGroup(form Form, groupKey string) {
	prefix := groupKey + "."
	for k := range form {
		if strings.HasPrefix(k, prefix) {
			delete(form, k)
		}
	}
}

// isGroupKey 判断 key 是否为某个带下标分组的分组键，例如 footer.links。
func isGroupKey(key string) bool {
	section, rest, ok := strings.Cut(key, ".")
	if !ok {
		return false
	}
	for _, f := range sectionFields[section] {
		if g := f.group(); g != "" && g == rest {
			return true
		}
	}
	return false
}

// scalarSections 是按字段编辑的分区及其字段表，顺序即规范顺序。
var scalarSections = []string{
	content.SectionHero,
	content.SectionAbout,
	content.SectionContact,
	content.SectionSettings,
	content.SectionFormConfig,
	content.SectionFooter,
	content.SectionNavigation,
}

var sectionFields = map[string][]fieldSet{
	content.SectionHero: {
		text("greeting", func(s *content.Site) *string { return &s.Hero.Greeting }),
		text("name", func(s *content.Site) *string { return &s.Hero.Name }),
		text("subtitle", func(s *content.Site) *string { return &s.Hero.Subtitle }),
		text("description", func(s *content.Site) *string { return &s.Hero.Description }),
		text("image", func(s *content.Site) *string { return &s.Hero.Image }).opt(),
		lines("typewriterTitles", func(s *content.Site) *[]string { return &s.Hero.TypewriterTitles }).opt(),
	},
	content.SectionAbout: {
		text("title", func(s *content.Site) *string { return &s.About.Title }),
		text("description", func(s *content.Site) *string { return &s.About.Description }),
		text("text", func(s *content.Site) *string { return &s.About.Text }),
		lines("highlights", func(s *content.Site) *[]string { return &s.About.Highlights }).opt(),
		indexed[content.Statistic]{
			key:   "statistics",
			slice: func(s *content.Site) *[]content.Statistic { return &s.About.Statistics },
			cols: []column[content.Statistic]{
				textCol("number", func(t *content.Statistic) *string { return &t.Number }),
				textCol("label", func(t *content.Statistic) *string { return &t.Label }),
			},
		},
	},
	content.SectionContact: {
		text("email", func(s *content.Site) *string { return &s.Contact.Email }),
		text("linkedin", func(s *content.Site) *string { return &s.Contact.LinkedIn }),
		text("location", func(s *content.Site) *string { return &s.Contact.Location }),
		text("formType", func(s *content.Site) *string { return &s.Contact.FormType }),
		text("phone", func(s *content.Site) *string { return &s.Contact.Phone }).opt(),
		text("facebook", func(s *content.Site) *string { return &s.Contact.Facebook }).opt(),
		text("twitter", func(s *content.Site) *string { return &s.Contact.Twitter }).opt(),
		text("instagram", func(s *content.Site) *string { return &s.Contact.Instagram }).opt(),
		text("title", func(s *content.Site) *string { return &s.Contact.Title }).opt(),
		text("subtitle", func(s *content.Site) *string { return &s.Contact.Subtitle }).opt(),
		indexed[content.CustomLink]{
			key:      "customLinks",
			optional: true,
			slice:    func(s *content.Site) *[]content.CustomLink { return &s.Contact.CustomLinks },
			cols: []column[content.CustomLink]{
				textCol("name", func(t *content.CustomLink) *string { return &t.Name }),
				textCol("url", func(t *content.CustomLink) *string { return &t.URL }),
				textCol("icon", func(t *content.CustomLink) *string { return &t.Icon }),
			},
		},
	},
	content.SectionSettings: {
		text("title", func(s *content.Site) *string { return &s.Settings.Title }),
		text("primaryColor", func(s *content.Site) *string { return &s.Settings.PrimaryColor }),
		text("secondaryColor", func(s *content.Site) *string { return &s.Settings.SecondaryColor }),
		text("accentColor", func(s *content.Site) *string { return &s.Settings.AccentColor }),
		themeName("theme", func(s *content.Site) *string { return &s.Settings.Theme }),
	},
	content.SectionFormConfig: {
		text("type", func(s *content.Site) *string { return &s.FormConfig.Type }),
		text("email.recipient", func(s *content.Site) *string { return &s.FormConfig.Email.Recipient }).opt(),
		text("email.subject", func(s *content.Site) *string { return &s.FormConfig.Email.Subject }).opt(),
		autoresponderCode().opt(),
		text("googleForm.url", func(s *content.Site) *string { return &s.FormConfig.GoogleForm.URL }).opt(),
		number("googleForm.height", func(s *content.Site) *int { return &s.FormConfig.GoogleForm.Height }).opt(),
		indexed[content.FormField]{
			key:   "custom.fields",
			slice: func(s *content.Site) *[]content.FormField { return &s.FormConfig.Custom.Fields },
			cols: []column[content.FormField]{
				textCol("name", func(t *content.FormField) *string { return &t.Name }),
				textCol("type", func(t *content.FormField) *string { return &t.Type }),
				textCol("label", func(t *content.FormField) *string { return &t.Label }),
				boolCol("required", func(t *content.FormField) *bool { return &t.Required }),
			},
		},
	},
	content.SectionFooter: {
		text("logo", func(s *content.Site) *string { return &s.Footer.Logo }),
		text("description", func(s *content.Site) *string { return &s.Footer.Description }),
		text("copyright", func(s *content.Site) *string { return &s.Footer.Copyright }),
		indexed[content.FooterLink]{
			key:   "links",
			slice: func(s *content.Site) *[]content.FooterLink { return &s.Footer.Links },
			cols: []column[content.FooterLink]{
				textCol("text", func(t *content.FooterLink) *string { return &t.Text }),
				textCol("url", func(t *content.FooterLink) *string { return &t.URL }),
				boolCol("newTab", func(t *content.FooterLink) *bool { return &t.NewTab }),
			},
		},
	},
	content.SectionNavigation: {
		flag("showLogo", func(s *content.Site) *bool { return &s.Navigation.ShowLogo }),
		text("logo", func(s *content.Site) *string { return &s.Navigation.Logo }),
		flag("sticky", func(s *content.Site) *bool { return &s.Navigation.Sticky }),
		text("textColor", func(s *content.Site) *string { return &s.Navigation.TextColor }),
		text("bgColor", func(s *content.Site) *string { return &s.Navigation.BgColor }),
		text("hoverColor", func(s *content.Site) *string { return &s.Navigation.HoverColor }),
		text("textColorLight", func(s *content.Site) *string { return &s.Navigation.TextColorLight }),
		text("bgColorLight", func(s *content.Site) *string { return &s.Navigation.BgColorLight }),
		text("hoverColorLight", func(s *content.Site) *string { return &s.Navigation.HoverColorLight }),
		indexed[content.NavLink]{
			key:   "links",
			slice: func(s *content.Site) *[]content.NavLink { return &s.Navigation.Links },
			cols: []column[content.NavLink]{
				textCol("text", func(t *content.NavLink) *string { return &t.Text }),
				textCol("target", func(t *content.NavLink) *string { return &t.Target }),
				boolCol("newTab", func(t *content.NavLink) *bool { return &t.NewTab }),
			},
		},
	},
}

// projectForm 为 site 中存在的各分区生成扁平表单。
func projectForm(site *content.Site) Form {
	form := Form{}
	for _, name := range scalarSections {
		if !site.Present(name) {
			continue
		}
		for _, f := range sectionFields[name] {
			f.project(site, name, form)
		}
	}
	return form
}

// copySection 把 src 的某个分区指针赋给 dst。
func copySection(dst, src *content.Site, name string) {
	switch name {
	case content.SectionHero:
		dst.Hero = src.Hero
	case content.SectionAbout:
		dst.About = src.About
	case content.SectionContact:
		dst.Contact = src.Contact
	case content.SectionSettings:
		dst.Settings = src.Settings
	case content.SectionFormConfig:
		dst.FormConfig = src.FormConfig
	case content.SectionFooter:
		dst.Footer = src.Footer
	case content.SectionNavigation:
		dst.Navigation = src.Navigation
	}
}
