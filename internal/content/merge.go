package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
)

// Fetcher 是读取全部分区行的最小接口，由 store 包实现。
type Fetcher interface {
	FetchAll(ctx context.Context) (map[string]json.RawMessage, error)
}

// DecodeError 表示某个分区的 JSON 无法解析，该分区按缺失处理。
type DecodeError struct {
	Section string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode section %q: %v", e.Section, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode 将内容表的行解析为 Site。未知分区被忽略，解析失败的分区留空并返回错误。
func Decode(rows map[string]json.RawMessage) (*Site, []error) {
	site := &Site{}
	var errs []error
	for name, raw := range rows {
		if !IsSection(name) || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := decodeSection(site, name, raw); err != nil {
			errs = append(errs, &DecodeError{Section: name, Err: err})
		}
	}
	return site, errs
}

func decodeSection(site *Site, name string, raw json.RawMessage) error {
	switch name {
	case SectionHero:
		var v Hero
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Hero = &v
	case SectionAbout:
		var v About
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.About = &v
	case SectionExperience:
		var v []Experience
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Experience = nonNil(v)
	case SectionSkills:
		var v Skills
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if v == nil {
			v = Skills{}
		}
		site.Skills = v
	case SectionTestimonials:
		var v []Testimonial
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Testimonials = nonNil(v)
	case SectionLinkedIn:
		var v []LinkedInPost
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.LinkedIn = nonNil(v)
	case SectionContact:
		var v Contact
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Contact = &v
	case SectionSettings:
		var v Settings
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Settings = &v
	case SectionFormConfig:
		var v FormConfig
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.FormConfig = &v
	case SectionFooter:
		var v Footer
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Footer = &v
	case SectionNavigation:
		var v Navigation
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		site.Navigation = &v
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Merge 以分区为单位合并：取已读取且非空的值，否则取默认值。
// 例外：技能按分类单独回退；settings 与 form_config 的个别字段单独回退。
// 返回值与两个入参不共享内存。
func Merge(fetched, defaults *Site) *Site {
	if fetched == nil {
		fetched = &Site{}
	}
	f := fetched.Clone()
	d := defaults.Clone()

	out := &Site{
		Hero:         pickPtr(f.Hero, d.Hero),
		About:        pickPtr(f.About, d.About),
		Experience:   pickSlice(f.Experience, d.Experience),
		Testimonials: pickSlice(f.Testimonials, d.Testimonials),
		LinkedIn:     pickSlice(f.LinkedIn, d.LinkedIn),
		Contact:      pickPtr(f.Contact, d.Contact),
		Settings:     pickPtr(f.Settings, d.Settings),
		FormConfig:   pickPtr(f.FormConfig, d.FormConfig),
		Footer:       pickPtr(f.Footer, d.Footer),
		Navigation:   pickPtr(f.Navigation, d.Navigation),
	}

	out.Skills = mergeSkills(f.Skills, d.Skills)

	if out.Settings != nil && d.Settings != nil {
		fillString(&out.Settings.Title, d.Settings.Title)
		fillString(&out.Settings.PrimaryColor, d.Settings.PrimaryColor)
		fillString(&out.Settings.SecondaryColor, d.Settings.SecondaryColor)
		fillString(&out.Settings.AccentColor, d.Settings.AccentColor)
		if !IsTheme(out.Settings.Theme) {
			out.Settings.Theme = d.Settings.Theme
		}
	}
	if out.FormConfig != nil && d.FormConfig != nil {
		fillString(&out.FormConfig.Type, d.FormConfig.Type)
	}

	return out
}

func mergeSkills(fetched, defaults Skills) Skills {
	if len(fetched) == 0 {
		return defaults
	}
	out := make(Skills, len(SkillCategories))
	for _, category := range SkillCategories {
		if list := fetched[category]; len(list) > 0 {
			out[category] = list
			continue
		}
		if list := defaults[category]; len(list) > 0 {
			out[category] = list
			continue
		}
		out[category] = DefaultSkills(category)
	}
	return out
}

func pickPtr[T any](fetched, fallback *T) *T {
	if fetched == nil || reflect.ValueOf(*fetched).IsZero() {
		return fallback
	}
	return fetched
}

func pickSlice[T any](fetched, fallback []T) []T {
	if len(fetched) == 0 {
		return fallback
	}
	return fetched
}

func fillString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

// Load 从内容表读取并与默认值合并；任何读取错误都回退到默认值，不向上传播。
func Load(ctx context.Context, fetcher Fetcher, logger *slog.Logger) *Site {
	if logger == nil {
		logger = slog.Default()
	}
	rows, err := fetcher.FetchAll(ctx)
	if err != nil {
		logger.Warn("fetch sections failed, falling back to defaults", slog.Any("error", err))
		return Defaults()
	}
	fetched, decodeErrs := Decode(rows)
	for _, decodeErr := range decodeErrs {
		logger.Warn("skip malformed section", slog.Any("error", decodeErr))
	}
	return Merge(fetched, Defaults())
}

// Clone 通过 JSON 往返做深拷贝，保留 nil 与空切片的区别之外的全部内容。
func (s *Site) Clone() *Site {
	if s == nil {
		return nil
	}
	out := &Site{}
	for _, name := range s.Sections() {
		raw, err := s.Section(name)
		if err != nil {
			continue
		}
		_ = decodeSection(out, name, raw)
	}
	return out
}

// Present 判断分区是否存在于内存对象中。
func (s *Site) Present(name string) bool {
	switch name {
	case SectionHero:
		return s.Hero != nil
	case SectionAbout:
		return s.About != nil
	case SectionExperience:
		return s.Experience != nil
	case SectionSkills:
		return s.Skills != nil
	case SectionTestimonials:
		return s.Testimonials != nil
	case SectionLinkedIn:
		return s.LinkedIn != nil
	case SectionContact:
		return s.Contact != nil
	case SectionSettings:
		return s.Settings != nil
	case SectionFormConfig:
		return s.FormConfig != nil
	case SectionFooter:
		return s.Footer != nil
	case SectionNavigation:
		return s.Navigation != nil
	}
	return false
}

// Sections 按规范顺序返回存在的分区名。
func (s *Site) Sections() []string {
	names := make([]string, 0, len(SectionNames))
	for _, name := range SectionNames {
		if s.Present(name) {
			names = append(names, name)
		}
	}
	return names
}

// Section 返回单个分区的 JSON，用于整体 upsert。
func (s *Site) Section(name string) (json.RawMessage, error) {
	var v any
	switch name {
	case SectionHero:
		v = s.Hero
	case SectionAbout:
		v = s.About
	case SectionExperience:
		v = s.Experience
	case SectionSkills:
		v = s.Skills
	case SectionTestimonials:
		v = s.Testimonials
	case SectionLinkedIn:
		v = s.LinkedIn
	case SectionContact:
		v = s.Contact
	case SectionSettings:
		v = s.Settings
	case SectionFormConfig:
		v = s.FormConfig
	case SectionFooter:
		v = s.Footer
	case SectionNavigation:
		v = s.Navigation
	default:
		return nil, fmt.Errorf("unknown section %q", name)
	}
	if !s.Present(name) {
		return nil, fmt.Errorf("section %q not present", name)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal section %q: %w", name, err)
	}
	return raw, nil
}

// Rows 将 Site 展开为分区行，便于测试与缓存。
func (s *Site) Rows() map[string]json.RawMessage {
	rows := make(map[string]json.RawMessage, len(SectionNames))
	for _, name := range s.Sections() {
		if raw, err := s.Section(name); err == nil {
			rows[name] = raw
		}
	}
	return rows
}
