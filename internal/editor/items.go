package editor

import (
	"fmt"
	"sort"

	"soumiSpace/internal/content"
)

// ItemView 是列表条目的投影。ID 在进程内稳定，不随位置变化。
type ItemView struct {
	ID       string            `json:"id"`
	Section  string            `json:"section"`
	Category string            `json:"category,omitempty"`
	Position int               `json:"position"`
	Fields   map[string]string `json:"fields"`
}

// listSections 是按条目编辑的分区。
var listSections = []string{
	content.SectionExperience,
	content.SectionSkills,
	content.SectionTestimonials,
	content.SectionLinkedIn,
}

func isListSection(name string) bool {
	for _, s := range listSections {
		if s == name {
			return true
		}
	}
	return false
}

type entry[T any] struct {
	id    string
	value T
}

// list 是一个分区（或一个技能分类）的规范数组。
type list[T any] struct {
	present bool
	cols    []column[T]
	entries []entry[T]
}

func (l *list[T]) values() []T {
	if !l.present {
		return nil
	}
	out := make([]T, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.value)
	}
	return out
}

func (l *list[T]) find(id string) int {
	for i, e := range l.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (l *list[T]) views(section, category string) []ItemView {
	out := make([]ItemView, 0, len(l.entries))
	for i := range l.entries {
		fields := make(map[string]string, len(l.cols))
		for _, c := range l.cols {
			fields[c.name] = c.get(&l.entries[i].value)
		}
		out = append(out, ItemView{
			ID:       l.entries[i].id,
			Section:  section,
			Category: category,
			Position: i,
			Fields:   fields,
		})
	}
	return out
}

// edit 按字段名更新条目；全部字段先在副本上解析，任一失败则条目不变。
func (l *list[T]) edit(section string, i int, fields map[string]string) error {
	item := l.entries[i].value
	for name, v := range fields {
		c, ok := l.column(name)
		if !ok {
			return &InvalidFieldError{Section: section, Field: name, Err: fmt.Errorf("no such field")}
		}
		if err := c.set(&item, v); err != nil {
			return &InvalidFieldError{Section: section, Field: name, Err: err}
		}
	}
	l.entries[i].value = item
	return nil
}

func (l *list[T]) column(name string) (column[T], bool) {
	for _, c := range l.cols {
		if c.name == name {
			return c, true
		}
	}
	return column[T]{}, false
}

func (l *list[T]) remove(i int) {
	l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
}

var experienceCols = []column[content.Experience]{
	textCol("title", func(t *content.Experience) *string { return &t.Title }),
	textCol("company", func(t *content.Experience) *string { return &t.Company }),
	textCol("date", func(t *content.Experience) *string { return &t.Date }),
	textCol("description", func(t *content.Experience) *string { return &t.Description }),
}

var skillCols = []column[content.Skill]{
	textCol("name", func(t *content.Skill) *string { return &t.Name }),
	intCol("percentage", func(t *content.Skill) *int { return &t.Percentage }, content.ClampPercentage),
	textCol("color", func(t *content.Skill) *string { return &t.Color }),
}

var testimonialCols = []column[content.Testimonial]{
	textCol("name", func(t *content.Testimonial) *string { return &t.Name }),
	textCol("title", func(t *content.Testimonial) *string { return &t.Title }),
	textCol("quote", func(t *content.Testimonial) *string { return &t.Quote }),
	intCol("rating", func(t *content.Testimonial) *int { return &t.Rating }, content.ClampRating),
	textCol("image", func(t *content.Testimonial) *string { return &t.Image }),
}

var linkedInCols = []column[content.LinkedInPost]{
	textCol("url", func(t *content.LinkedInPost) *string { return &t.URL }),
	textCol("title", func(t *content.LinkedInPost) *string { return &t.Title }),
	textCol("description", func(t *content.LinkedInPost) *string { return &t.Description }),
	textCol("date", func(t *content.LinkedInPost) *string { return &t.Date }),
	textCol("image", func(t *content.LinkedInPost) *string { return &t.Image }),
}

// lists 持有全部列表分区的规范数组。
type lists struct {
	seq          uint64
	experience   list[content.Experience]
	skillsOn     bool
	skills       map[string]*list[content.Skill]
	testimonials list[content.Testimonial]
	linkedin     list[content.LinkedInPost]
}

func (ls *lists) nextID(prefix string) string {
	ls.seq++
	return fmt.Sprintf("%s-%d", prefix, ls.seq)
}

func fill[T any](ls *lists, l *list[T], prefix string, values []T, cols []column[T]) {
	l.present = values != nil
	l.cols = cols
	l.entries = make([]entry[T], 0, len(values))
	for _, v := range values {
		l.entries = append(l.entries, entry[T]{id: ls.nextID(prefix), value: v})
	}
}

// load 用 site 的列表分区重建规范数组并分配新 ID。
func (ls *lists) load(site *content.Site) {
	fill(ls, &ls.experience, "exp", site.Experience, experienceCols)
	fill(ls, &ls.testimonials, "tst", site.Testimonials, testimonialCols)
	fill(ls, &ls.linkedin, "li", site.LinkedIn, linkedInCols)

	ls.skillsOn = site.Skills != nil
	ls.skills = map[string]*list[content.Skill]{}
	for _, category := range skillOrder(site.Skills) {
		l := &list[content.Skill]{}
		fill(ls, l, "skill", site.Skills[category], skillCols)
		l.present = true
		ls.skills[category] = l
	}
}

// skillOrder 先列固定分类，再按字母序列出其余分类。
func skillOrder(skills content.Skills) []string {
	order := append([]string(nil), content.SkillCategories...)
	var extra []string
	for category := range skills {
		if !content.IsSkillCategory(category) {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func (ls *lists) apply(site *content.Site) {
	site.Experience = ls.experience.values()
	site.Testimonials = ls.testimonials.values()
	site.LinkedIn = ls.linkedin.values()
	site.Skills = nil
	if !ls.skillsOn {
		return
	}
	site.Skills = make(content.Skills, len(ls.skills))
	for category, l := range ls.skills {
		if vals := l.values(); len(vals) > 0 || content.IsSkillCategory(category) {
			site.Skills[category] = vals
		}
	}
}

func (ls *lists) views() map[string][]ItemView {
	out := map[string][]ItemView{
		content.SectionExperience:   ls.experience.views(content.SectionExperience, ""),
		content.SectionTestimonials: ls.testimonials.views(content.SectionTestimonials, ""),
		content.SectionLinkedIn:     ls.linkedin.views(content.SectionLinkedIn, ""),
	}
	skills := []ItemView{}
	for _, category := range ls.skillCategories() {
		skills = append(skills, ls.skills[category].views(content.SectionSkills, category)...)
	}
	out[content.SectionSkills] = skills
	return out
}

func (ls *lists) skillCategories() []string {
	names := make(content.Skills, len(ls.skills))
	for category := range ls.skills {
		names[category] = nil
	}
	return skillOrder(names)
}

// edit 定位条目并更新字段。
func (ls *lists) edit(section, id string, fields map[string]string) error {
	switch section {
	case content.SectionExperience:
		return editIn(&ls.experience, section, id, fields)
	case content.SectionTestimonials:
		return editIn(&ls.testimonials, section, id, fields)
	case content.SectionLinkedIn:
		return editIn(&ls.linkedin, section, id, fields)
	case content.SectionSkills:
		for _, l := range ls.skills {
			if l.find(id) >= 0 {
				return editIn(l, section, id, fields)
			}
		}
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, section, id)
	}
	return fmt.Errorf("%w: %s", ErrNotListSection, section)
}

func editIn[T any](l *list[T], section, id string, fields map[string]string) error {
	i := l.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, section, id)
	}
	return l.edit(section, i, fields)
}

// add 追加一个默认条目并返回其 ID。
func (ls *lists) add(section, category string) (string, error) {
	switch section {
	case content.SectionExperience:
		return addTo(ls, &ls.experience, "exp", content.DefaultExperience()), nil
	case content.SectionTestimonials:
		return addTo(ls, &ls.testimonials, "tst", content.DefaultTestimonial()), nil
	case content.SectionLinkedIn:
		return addTo(ls, &ls.linkedin, "li", content.DefaultLinkedInPost()), nil
	case content.SectionSkills:
		if !content.IsSkillCategory(category) {
			return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		l, ok := ls.skills[category]
		if !ok {
			l = &list[content.Skill]{cols: skillCols}
			ls.skills[category] = l
		}
		ls.skillsOn = true
		return addTo(ls, l, "skill", content.DefaultSkill()), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotListSection, section)
}

func addTo[T any](ls *lists, l *list[T], prefix string, v T) string {
	id := ls.nextID(prefix)
	l.present = true
	l.entries = append(l.entries, entry[T]{id: id, value: v})
	return id
}

func (ls *lists) remove(section, id string) error {
	switch section {
	case content.SectionExperience:
		return removeFrom(&ls.experience, section, id)
	case content.SectionTestimonials:
		return removeFrom(&ls.testimonials, section, id)
	case content.SectionLinkedIn:
		return removeFrom(&ls.linkedin, section, id)
	case content.SectionSkills:
		for _, l := range ls.skills {
			if l.find(id) >= 0 {
				return removeFrom(l, section, id)
			}
		}
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, section, id)
	}
	return fmt.Errorf("%w: %s", ErrNotListSection, section)
}

func removeFrom[T any](l *list[T], section, id string) error {
	i := l.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, section, id)
	}
	l.remove(i)
	return nil
}
