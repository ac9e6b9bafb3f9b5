// Package content 定义站点内容的规范结构、内置默认值以及合并规则。
package content

// 分区名即内容表中的 section_name。
const (
	SectionHero         = "hero"
	SectionAbout        = "about"
	SectionExperience   = "experience"
	SectionSkills       = "skills"
	SectionTestimonials = "testimonials"
	SectionLinkedIn     = "linkedin"
	SectionContact      = "contact"
	SectionSettings     = "settings"
	SectionFormConfig   = "form_config"
	SectionFooter       = "footer"
	SectionNavigation   = "navigation"
)

// SectionNames 按规范顺序列出全部分区，保存与渲染都按此顺序进行。
var SectionNames = []string{
	SectionHero,
	SectionAbout,
	SectionExperience,
	SectionSkills,
	SectionTestimonials,
	SectionLinkedIn,
	SectionContact,
	SectionSettings,
	SectionFormConfig,
	SectionFooter,
	SectionNavigation,
}

// IsSection 判断名称是否为已知分区。
func IsSection(name string) bool {
	for _, s := range SectionNames {
		if s == name {
			return true
		}
	}
	return false
}

// SkillCategories 是固定的技能分类，顺序即展示顺序。
var SkillCategories = []string{
	"Admissions & Immigration",
	"Counseling & Guidance",
	"Languages & Communication",
	"Tools & Technology",
}

// IsSkillCategory 判断是否为固定分类之一。
func IsSkillCategory(name string) bool {
	for _, c := range SkillCategories {
		if c == name {
			return true
		}
	}
	return false
}

// Themes 是可选主题名。
var Themes = []string{"modern", "elegant", "creative", "minimal", "corporate"}

// IsTheme 判断主题名是否合法。
func IsTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// 表单类型。FormTypeGoogle 是 googleForm 的旧写法，两者等价。
const (
	FormTypeEmail         = "email"
	FormTypeAutoresponder = "autoresponder"
	FormTypeGoogleForm    = "googleForm"
	FormTypeGoogle        = "google"
	FormTypeCustom        = "custom"
)

// Site 持有整个站点的内容。指针为 nil 或切片为 nil 表示该分区缺失。
type Site struct {
	Hero         *Hero          `json:"hero,omitempty"`
	About        *About         `json:"about,omitempty"`
	Experience   []Experience   `json:"experience,omitempty"`
	Skills       Skills         `json:"skills,omitempty"`
	Testimonials []Testimonial  `json:"testimonials,omitempty"`
	LinkedIn     []LinkedInPost `json:"linkedin,omitempty"`
	Contact      *Contact       `json:"contact,omitempty"`
	Settings     *Settings      `json:"settings,omitempty"`
	FormConfig   *FormConfig    `json:"form_config,omitempty"`
	Footer       *Footer        `json:"footer,omitempty"`
	Navigation   *Navigation    `json:"navigation,omitempty"`
}

// Hero 是首屏。Subtitle 为空时进入打字机模式。
type Hero struct {
	Greeting         string   `json:"greeting"`
	Name             string   `json:"name"`
	Subtitle         string   `json:"subtitle"`
	Description      string   `json:"description"`
	Image            string   `json:"image"`
	TypewriterTitles []string `json:"typewriterTitles"`
}

// About 的 Text 以空行分段。
type About struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Text        string      `json:"text"`
	Highlights  []string    `json:"highlights"`
	Statistics  []Statistic `json:"statistics,omitempty"`
}

type Statistic struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

// Experience 的 Description 在渲染时按 ". " 拆成要点。
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Skills 是分类名到技能列表的映射。
type Skills map[string][]Skill

type Skill struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// Testimonial 的 Rating 缺省按 5 渲染。
type Testimonial struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Quote  string `json:"quote"`
	Rating int    `json:"rating"`
	Image  string `json:"image"`
}

type LinkedInPost struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Image       string `json:"image"`
}

type Contact struct {
	Email       string       `json:"email"`
	LinkedIn    string       `json:"linkedin"`
	Location    string       `json:"location"`
	Phone       string       `json:"phone,omitempty"`
	Facebook    string       `json:"facebook,omitempty"`
	Twitter     string       `json:"twitter,omitempty"`
	Instagram   string       `json:"instagram,omitempty"`
	CustomLinks []CustomLink `json:"customLinks,omitempty"`
	FormType    string       `json:"formType"`
	Title       string       `json:"title,omitempty"`
	Subtitle    string       `json:"subtitle,omitempty"`
}

type CustomLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

type Settings struct {
	Title          string `json:"title"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	Theme          string `json:"theme"`
}

type FormConfig struct {
	Type          string              `json:"type"`
	Email         EmailFormConfig     `json:"email"`
	Autoresponder AutoresponderConfig `json:"autoresponder"`
	GoogleForm    GoogleFormConfig    `json:"googleForm"`
	Custom        CustomFormConfig    `json:"custom"`
}

type EmailFormConfig struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}

// AutoresponderConfig 保存用户粘贴的服务商表单代码及其解析结果。
type AutoresponderConfig struct {
	Code       string      `json:"code"`
	ParsedData *ParsedForm `json:"parsedData,omitempty"`
}

// ParsedForm 是从服务商表单代码中提取的提交目标与字段。
type ParsedForm struct {
	Action string        `json:"action"`
	Method string        `json:"method"`
	Fields []ParsedField `json:"fields"`
}

type ParsedField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type GoogleFormConfig struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
}

type CustomFormConfig struct {
	Fields []FormField `json:"fields"`
}

type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

type Footer struct {
	Logo        string       `json:"logo"`
	Description string       `json:"description"`
	Links       []FooterLink `json:"links"`
	Copyright   string       `json:"copyright"`
}

type FooterLink struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	NewTab bool   `json:"newTab"`
}

type Navigation struct {
	ShowLogo        bool      `json:"showLogo"`
	Logo            string    `json:"logo"`
	Sticky          bool      `json:"sticky"`
	TextColor       string    `json:"textColor"`
	BgColor         string    `json:"bgColor"`
	HoverColor      string    `json:"hoverColor"`
	TextColorLight  string    `json:"textColorLight"`
	BgColorLight    string    `json:"bgColorLight"`
	HoverColorLight string    `json:"hoverColorLight"`
	Links           []NavLink `json:"links"`
}

type NavLink struct {
	Text   string `json:"text"`
	Target string `json:"target"`
	NewTab bool   `json:"newTab"`
}
