package content

// 默认值在每次调用时都新建，调用方可以随意修改返回值。

// DefaultTypewriterTitles 是首屏打字机模式的内置标题。
func DefaultTypewriterTitles() []string {
	return []string{
		"Education Consultant",
		"Admissions Strategist",
		"Immigration Advisor",
		"Career Counselor",
	}
}

// DefaultStatistics 是关于区缺少统计数据时展示的四张卡片。
func DefaultStatistics() []Statistic {
	return []Statistic{
		{Number: "500+", Label: "Students Guided"},
		{Number: "95%", Label: "Visa Success Rate"},
		{Number: "10+", Label: "Years Experience"},
		{Number: "20+", Label: "Partner Universities"},
	}
}

// DefaultSkills 返回某个分类的内置技能列表，未知分类返回 nil。
func DefaultSkills(category string) []Skill {
	switch category {
	case "Admissions & Immigration":
		return []Skill{
			{Name: "University Admissions", Percentage: 95, Color: "#4f46e5"},
			{Name: "Student Visa Processing", Percentage: 92, Color: "#4f46e5"},
			{Name: "Scholarship Applications", Percentage: 88, Color: "#4f46e5"},
			{Name: "Document Preparation", Percentage: 90, Color: "#4f46e5"},
			{Name: "Immigration Compliance", Percentage: 85, Color: "#4f46e5"},
		}
	case "Counseling & Guidance":
		return []Skill{
			{Name: "Career Counseling", Percentage: 93, Color: "#0ea5e9"},
			{Name: "Course Selection", Percentage: 90, Color: "#0ea5e9"},
			{Name: "Interview Preparation", Percentage: 88, Color: "#0ea5e9"},
			{Name: "Parent Consultation", Percentage: 85, Color: "#0ea5e9"},
			{Name: "Pre-departure Briefing", Percentage: 87, Color: "#0ea5e9"},
		}
	case "Languages & Communication":
		return []Skill{
			{Name: "English", Percentage: 95, Color: "#10b981"},
			{Name: "IELTS Coaching", Percentage: 90, Color: "#10b981"},
			{Name: "Public Speaking", Percentage: 85, Color: "#10b981"},
			{Name: "Written Communication", Percentage: 92, Color: "#10b981"},
			{Name: "Cross-cultural Communication", Percentage: 88, Color: "#10b981"},
		}
	case "Tools & Technology":
		return []Skill{
			{Name: "CRM Systems", Percentage: 85, Color: "#f59e0b"},
			{Name: "Application Portals", Percentage: 92, Color: "#f59e0b"},
			{Name: "Microsoft Office", Percentage: 90, Color: "#f59e0b"},
			{Name: "Social Media", Percentage: 82, Color: "#f59e0b"},
			{Name: "Video Conferencing", Percentage: 88, Color: "#f59e0b"},
		}
	}
	return nil
}

// DefaultSettings 是站点主题的默认值。
func DefaultSettings() *Settings {
	return &Settings{
		Title:          "Soumi | Education & Immigration Consultant",
		PrimaryColor:   "#4f46e5",
		SecondaryColor: "#0ea5e9",
		AccentColor:    "#f59e0b",
		Theme:          "modern",
	}
}

// Defaults 返回所有分区的内置内容。
func Defaults() *Site {
	skills := make(Skills, len(SkillCategories))
	for _, category := range SkillCategories {
		skills[category] = DefaultSkills(category)
	}

	return &Site{
		Hero: &Hero{
			Greeting:         "Hello, I'm",
			Name:             "Soumi",
			Subtitle:         "",
			Description:      "I help students find the right university, secure their visas and start their journey abroad with confidence.",
			Image:            "",
			TypewriterTitles: DefaultTypewriterTitles(),
		},
		About: &About{
			Title:       "About Me",
			Description: "Guiding students towards global education",
			Text: "I am an education consultant with over a decade of experience in international admissions.\n\n" +
				"My work covers everything from choosing a course to landing at the destination airport.",
			Highlights: []string{
				"Certified education agent",
				"Hundreds of successful visa applications",
				"Personalised, end-to-end guidance",
			},
			Statistics: DefaultStatistics(),
		},
		Experience: []Experience{
			{
				Title:       "Senior Education Consultant",
				Company:     "Global Pathways",
				Date:        "2019 - Present",
				Description: "Lead a team of counselors. Manage admissions for partner universities. Train new staff on visa compliance.",
			},
			{
				Title:       "Admissions Officer",
				Company:     "Horizon Education",
				Date:        "2014 - 2019",
				Description: "Processed international applications. Conducted student interviews. Coordinated scholarship programmes.",
			},
		},
		Skills: skills,
		Testimonials: []Testimonial{
			{
				Name:   "Ananya R.",
				Title:  "MSc Student, University of Toronto",
				Quote:  "Soumi made the whole admission and visa process stress-free. I could not have done it without her.",
				Rating: 5,
			},
			{
				Name:   "Rahul M.",
				Title:  "MBA Candidate, Melbourne",
				Quote:  "Clear advice, honest timelines and constant support from start to finish.",
				Rating: 5,
			},
		},
		LinkedIn: []LinkedInPost{},
		Contact: &Contact{
			Email:    "hello@example.com",
			LinkedIn: "https://www.linkedin.com/",
			Location: "Kolkata, India",
			FormType: FormTypeEmail,
			Title:    "Get In Touch",
			Subtitle: "Let's plan your study abroad journey together",
		},
		Settings: DefaultSettings(),
		FormConfig: &FormConfig{
			Type: FormTypeEmail,
			Email: EmailFormConfig{
				Recipient: "hello@example.com",
				Subject:   "New enquiry from your website",
			},
			GoogleForm: GoogleFormConfig{Height: 800},
			Custom: CustomFormConfig{
				Fields: []FormField{
					{Name: "name", Type: "text", Label: "Your Name", Required: true},
					{Name: "email", Type: "email", Label: "Your Email", Required: true},
					{Name: "message", Type: "textarea", Label: "Message", Required: true},
				},
			},
		},
		Footer: &Footer{
			Logo:        "Soumi",
			Description: "Helping students study abroad since 2014.",
			Links: []FooterLink{
				{Text: "About", URL: "#about"},
				{Text: "Experience", URL: "#experience"},
				{Text: "Contact", URL: "#contact"},
			},
			Copyright: "© Soumi. All rights reserved.",
		},
		Navigation: &Navigation{
			ShowLogo:        true,
			Logo:            "Soumi",
			Sticky:          true,
			TextColor:       "#ffffff",
			BgColor:         "rgba(17, 24, 39, 0.9)",
			HoverColor:      "#f59e0b",
			TextColorLight:  "#111827",
			BgColorLight:    "rgba(255, 255, 255, 0.95)",
			HoverColorLight: "#4f46e5",
			Links: []NavLink{
				{Text: "Home", Target: "#hero"},
				{Text: "About", Target: "#about"},
				{Text: "Experience", Target: "#experience"},
				{Text: "Skills", Target: "#skills"},
				{Text: "Testimonials", Target: "#testimonials"},
				{Text: "Contact", Target: "#contact"},
			},
		},
	}
}

// DefaultExperience 等函数返回列表分区新增条目时使用的默认值。
func DefaultExperience() Experience {
	return Experience{Title: "New Position", Company: "Company Name", Date: "Year - Year", Description: "Describe your responsibilities."}
}

func DefaultSkill() Skill {
	return Skill{Name: "New Skill", Percentage: 50, Color: "#4f46e5"}
}

func DefaultTestimonial() Testimonial {
	return Testimonial{Name: "Client Name", Title: "Client Title", Quote: "Write the testimonial here.", Rating: 5}
}

func DefaultLinkedInPost() LinkedInPost {
	return LinkedInPost{URL: "https://www.linkedin.com/", Title: "New Post", Description: "Post summary"}
}
