package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_EmptyFetchedReturnsDefaults(t *testing.T) {
	merged := Merge(&Site{}, Defaults())
	assert.Equal(t, Defaults(), merged)

	for _, name := range SectionNames {
		assert.True(t, merged.Present(name), "section %s should be present", name)
	}
}

func TestDefaults_AreStable(t *testing.T) {
	a := Defaults()
	b := Defaults()
	require.Equal(t, a, b)

	a.Hero.Name = "changed"
	a.Skills[SkillCategories[0]][0].Name = "changed"
	assert.Equal(t, "Soumi", Defaults().Hero.Name)
	assert.Equal(t, b, Defaults())
}

func TestMerge_SectionIsWhollyFetchedOrDefaulted(t *testing.T) {
	fetched := &Site{
		Hero: &Hero{Name: "Jane"},
	}
	merged := Merge(fetched, Defaults())

	assert.Equal(t, "Jane", merged.Hero.Name)
	assert.Empty(t, merged.Hero.Greeting, "hero fields must not be merged from defaults")
	assert.Equal(t, Defaults().About, merged.About)
}

func TestMerge_EmptyListsFallBack(t *testing.T) {
	fetched := &Site{
		Experience:   []Experience{},
		Testimonials: []Testimonial{{Name: "A"}},
	}
	merged := Merge(fetched, Defaults())
	assert.Equal(t, Defaults().Experience, merged.Experience)
	assert.Len(t, merged.Testimonials, 1)
}

func TestMerge_SkillCategoriesFallBackIndividually(t *testing.T) {
	fetched := &Site{
		Skills: Skills{
			"Admissions & Immigration": {},
			"Counseling & Guidance":    {{Name: "Listening", Percentage: 80}},
		},
	}
	merged := Merge(fetched, Defaults())

	require.Len(t, merged.Skills, len(SkillCategories))
	assert.Equal(t, DefaultSkills("Admissions & Immigration"), merged.Skills["Admissions & Immigration"])
	assert.Len(t, DefaultSkills("Admissions & Immigration"), 5)
	assert.Equal(t, []Skill{{Name: "Listening", Percentage: 80}}, merged.Skills["Counseling & Guidance"])
	assert.Equal(t, DefaultSkills("Tools & Technology"), merged.Skills["Tools & Technology"])
}

func TestMerge_SettingsFieldsFallBack(t *testing.T) {
	fetched := &Site{Settings: &Settings{PrimaryColor: "#000000", Theme: "unknown"}}
	merged := Merge(fetched, Defaults())

	assert.Equal(t, "#000000", merged.Settings.PrimaryColor)
	assert.Equal(t, DefaultSettings().SecondaryColor, merged.Settings.SecondaryColor)
	assert.Equal(t, "modern", merged.Settings.Theme)
}

func TestDecode_MalformedSectionIsReportedAndSkipped(t *testing.T) {
	rows := map[string]json.RawMessage{
		SectionHero:  json.RawMessage(`{"name":"Jane","typewriterTitles":["A"]}`),
		SectionAbout: json.RawMessage(`not json`),
		"unknown":    json.RawMessage(`{}`),
	}
	site, errs := Decode(rows)

	require.Len(t, errs, 1)
	var decodeErr *DecodeError
	require.True(t, errors.As(errs[0], &decodeErr))
	assert.Equal(t, SectionAbout, decodeErr.Section)
	assert.Equal(t, "Jane", site.Hero.Name)
	assert.Nil(t, site.About)
}

type fetcherFunc func(ctx context.Context) (map[string]json.RawMessage, error)

func (f fetcherFunc) FetchAll(ctx context.Context) (map[string]json.RawMessage, error) {
	return f(ctx)
}

func TestLoad_FallsBackOnStoreError(t *testing.T) {
	site := Load(context.Background(), fetcherFunc(func(context.Context) (map[string]json.RawMessage, error) {
		return nil, errors.New("connection refused")
	}), nil)
	assert.Equal(t, Defaults(), site)
}

func TestLoad_MergesRows(t *testing.T) {
	site := Load(context.Background(), fetcherFunc(func(context.Context) (map[string]json.RawMessage, error) {
		return map[string]json.RawMessage{
			SectionExperience: json.RawMessage(`[{"title":"Dean","company":"Uni","date":"2020","description":"Led."}]`),
		}, nil
	}), nil)
	require.Len(t, site.Experience, 1)
	assert.Equal(t, "Dean", site.Experience[0].Title)
	assert.Equal(t, Defaults().Hero, site.Hero)
}

func TestSite_SectionsAndRows(t *testing.T) {
	site := &Site{Hero: &Hero{Name: "A"}, Contact: &Contact{Email: "a@b.c"}, About: &About{Title: "x"}}
	assert.Equal(t, []string{SectionHero, SectionAbout, SectionContact}, site.Sections())

	rows := site.Rows()
	require.Len(t, rows, 3)
	assert.JSONEq(t, `{"email":"a@b.c","linkedin":"","location":"","formType":""}`, string(rows[SectionContact]))

	_, err := site.Section(SectionFooter)
	assert.Error(t, err)
}

func TestNormalize_ClampsNumbers(t *testing.T) {
	site := &Site{
		Skills:       Skills{"Tools & Technology": {{Name: " Go ", Percentage: 140}, {Name: "Rust", Percentage: -3}}},
		Testimonials: []Testimonial{{Rating: 9}, {Rating: 0}},
		FormConfig:   &FormConfig{Type: FormTypeGoogle},
	}
	Normalize(site)

	assert.Equal(t, 100, site.Skills["Tools & Technology"][0].Percentage)
	assert.Equal(t, "Go", site.Skills["Tools & Technology"][0].Name)
	assert.Equal(t, 0, site.Skills["Tools & Technology"][1].Percentage)
	assert.Equal(t, 5, site.Testimonials[0].Rating)
	assert.Equal(t, 1, site.Testimonials[1].Rating)
	assert.Equal(t, FormTypeGoogleForm, site.FormConfig.Type)
}

func TestRenderRating(t *testing.T) {
	assert.Equal(t, 5, RenderRating(0))
	assert.Equal(t, 3, RenderRating(3))
	assert.Equal(t, 5, RenderRating(12))
}

func TestParagraphsAndBulletPoints(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two\nlines."}, Paragraphs("One.\n\n\n\nTwo\nlines.\r\n\r\n"))
	assert.Equal(t, []string{"Led a team", "Managed admissions", "Trained staff"},
		BulletPoints("Led a team. Managed admissions. Trained staff."))
	assert.Empty(t, BulletPoints(""))
}
