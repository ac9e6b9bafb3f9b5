package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soumiSpace/internal/content"
	"soumiSpace/internal/store"
)

type fakeStore struct {
	mu     sync.Mutex
	calls  []string
	rows   map[string]json.RawMessage
	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]json.RawMessage{}, failOn: map[string]error{}}
}

func (f *fakeStore) UpsertSection(_ context.Context, name string, raw json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if err := f.failOn[name]; err != nil {
		return &store.StoreError{Section: name, Op: "upsert", Err: err}
	}
	f.rows[name] = raw
	return nil
}

func (f *fakeStore) FetchAll(context.Context) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]json.RawMessage, len(f.rows))
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	sites   []*content.Site
	themes  []string
	storage int
}

func (f *fakeBroadcaster) SiteUpdated(site *content.Site) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sites = append(f.sites, site)
}

func (f *fakeBroadcaster) ThemeChanged(theme string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.themes = append(f.themes, theme)
}

func (f *fakeBroadcaster) StorageUpdated(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage++
	return nil
}

type fakePublisher struct{ count int }

func (f *fakePublisher) EnqueuePublish(context.Context) error {
	f.count++
	return nil
}

type fixture struct {
	sync      *Synchronizer
	store     *fakeStore
	broadcast *fakeBroadcaster
	publisher *fakePublisher
	notices   *NoticeBoard
	saved     []string
}

func newFixture() *fixture {
	f := &fixture{
		store:     newFakeStore(),
		broadcast: &fakeBroadcaster{},
		publisher: &fakePublisher{},
		notices:   NewNoticeBoard(16, time.Minute),
	}
	f.sync = New(Options{
		Store:       f.store,
		Fetcher:     f.store,
		Notifier:    f.notices,
		Broadcaster: f.broadcast,
		Publisher:   f.publisher,
		OnSectionSaved: func(section string, err error) {
			if err == nil {
				f.saved = append(f.saved, section)
			}
		},
	})
	return f
}

func TestCollect_RoundTripsPopulatedSite(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())

	assert.Equal(t, "Soumi", view.Form["hero.name"])
	assert.Equal(t, "#4f46e5", view.Form["settings.primaryColor"])
	assert.Equal(t, "hello@example.com", view.Form["form_config.email.recipient"])
	assert.Equal(t, "#about", view.Form["footer.links.0.url"])
	assert.Equal(t, "true", view.Form["navigation.sticky"])

	require.NoError(t, f.sync.Collect(view.Form))
	assert.Equal(t, content.Defaults(), f.sync.Site())
}

func TestSave_StopsAtFirstFailure(t *testing.T) {
	f := newFixture()
	defaults := content.Defaults()
	f.sync.Populate(&content.Site{Hero: defaults.Hero, About: defaults.About, Contact: defaults.Contact})
	f.store.failOn[content.SectionAbout] = errors.New("connection reset")

	report, err := f.sync.Save(context.Background())
	require.Error(t, err)

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, content.SectionAbout, storeErr.Section)

	assert.Equal(t, []string{content.SectionHero}, report.Saved)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, content.SectionAbout, report.Failed[0].Section)
	assert.Equal(t, []string{content.SectionContact}, report.Skipped)
	assert.Equal(t, []string{content.SectionHero, content.SectionAbout}, f.store.calls)

	assert.Zero(t, f.broadcast.storage)
	assert.Zero(t, f.publisher.count)

	active := f.notices.Active()
	require.NotEmpty(t, active)
	last := active[len(active)-1]
	assert.Equal(t, LevelError, last.Level)
	assert.Equal(t, content.SectionAbout, last.Section)
}

func TestSave_AllSectionsInCanonicalOrder(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	report, err := f.sync.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content.SectionNames, report.Saved)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, content.SectionNames, f.store.calls)
	assert.Equal(t, content.SectionNames, f.saved)
	assert.Equal(t, 1, f.broadcast.storage)
	assert.Equal(t, 1, f.publisher.count)

	f.sync.Populate(&content.Site{})
	f.sync.Reload(context.Background())
	assert.Equal(t, content.Defaults(), f.sync.Site())
}

func TestCollect_MissingFieldKeepsSectionAndBlocksSave(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	form := view.Form.Clone()
	delete(form, "hero.name")
	form["hero.greeting"] = "Hi"
	form["about.title"] = "Who I am"

	err := f.sync.Collect(form)
	require.Error(t, err)

	var collectErr *CollectError
	require.True(t, errors.As(err, &collectErr))
	assert.Equal(t, []string{content.SectionHero}, collectErr.Sections())
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "name", missing.Field)

	site := f.sync.Site()
	assert.Equal(t, "Hello, I'm", site.Hero.Greeting, "hero keeps its previous value")
	assert.Equal(t, "Who I am", site.About.Title)
	assert.Contains(t, f.sync.View().Invalid, content.SectionHero)

	report, err := f.sync.Save(context.Background())
	require.Error(t, err)
	assert.Empty(t, report.Saved)
	assert.Equal(t, content.SectionHero, report.Failed[0].Section)
	assert.Len(t, report.Skipped, len(content.SectionNames)-1)
	assert.Empty(t, f.store.calls)

	require.NoError(t, f.sync.Collect(view.Form))
	assert.Empty(t, f.sync.View().Invalid)
}

func TestCollect_InvalidNumber(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	form := view.Form.Clone()
	form["form_config.googleForm.height"] = "tall"

	err := f.sync.Collect(form)
	var invalid *InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, content.SectionFormConfig, invalid.Section)
	assert.Equal(t, 800, f.sync.Site().FormConfig.GoogleForm.Height)
}

func TestUpdateFields_MergesIntoCurrentForm(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	view, err := f.sync.UpdateFields(Form{
		"hero.subtitle":              "Consultant",
		"footer.links.3.text":        "Blog",
		"footer.links.3.url":         "https://blog.example.com",
		"footer.links.3.newTab":      "on",
		"about.highlights":           "One\n\nTwo\n",
		"contact.customLinks.0.name": "YouTube",
	})
	require.NoError(t, err)
	assert.Equal(t, "Consultant", view.Form["hero.subtitle"])

	site := f.sync.Site()
	require.Len(t, site.Footer.Links, 4)
	assert.True(t, site.Footer.Links[3].NewTab)
	assert.Equal(t, []string{"One", "Two"}, site.About.Highlights)
	require.Len(t, site.Contact.CustomLinks, 1)
	assert.Equal(t, "YouTube", site.Contact.CustomLinks[0].Name)
	assert.NotEmpty(t, f.broadcast.sites)
}

func withoutPrefixes(form Form, prefixes ...string) Form {
	out := form.Clone()
	for k := range out {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				delete(out, k)
			}
		}
	}
	return out
}

func TestCollect_AbsentNestedListsAreMissing(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	form := withoutPrefixes(view.Form, "footer.links.", "about.statistics.", "navigation.links.", "form_config.custom.fields.")

	err := f.sync.Collect(form)
	require.Error(t, err)
	var collectErr *CollectError
	require.True(t, errors.As(err, &collectErr))
	assert.Equal(t, []string{content.SectionAbout, content.SectionFormConfig, content.SectionFooter, content.SectionNavigation}, collectErr.Sections())
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))

	site := f.sync.Site()
	assert.Len(t, site.Footer.Links, 3)
	assert.Len(t, site.About.Statistics, 4)
	assert.Len(t, site.Navigation.Links, 6)
	assert.Len(t, site.FormConfig.Custom.Fields, 3)

	form["footer.links"] = ""
	_ = f.sync.Collect(form)
	assert.Empty(t, f.sync.Site().Footer.Links)
	assert.NotContains(t, f.sync.View().Invalid, content.SectionFooter)
	assert.Equal(t, "", f.sync.View().Form["footer.links"])
}

func TestCollect_OptionalCustomLinksKeptWhenAbsent(t *testing.T) {
	f := newFixture()
	site := content.Defaults()
	site.Contact.CustomLinks = []content.CustomLink{{Name: "YouTube", URL: "https://youtube.com/@soumi"}}
	view := f.sync.Populate(site)

	require.NoError(t, f.sync.Collect(withoutPrefixes(view.Form, "contact.customLinks.")))
	assert.Len(t, f.sync.Site().Contact.CustomLinks, 1)
}

func TestUpdateFields_RemovesAndReplacesIndexedItems(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	_, err := f.sync.UpdateFields(Form{
		"navigation.links.1.remove":          "true",
		"form_config.custom.fields.2.remove": "on",
	})
	require.NoError(t, err)
	site := f.sync.Site()
	require.Len(t, site.Navigation.Links, 5)
	assert.Equal(t, "Experience", site.Navigation.Links[1].Text)
	require.Len(t, site.FormConfig.Custom.Fields, 2)
	assert.Equal(t, "email", site.FormConfig.Custom.Fields[1].Name)

	_, err = f.sync.UpdateFields(Form{
		"footer.links":        "",
		"footer.links.0.text": "Top",
		"footer.links.0.url":  "#hero",
	})
	require.NoError(t, err)
	require.Len(t, f.sync.Site().Footer.Links, 1)
	assert.Equal(t, "Top", f.sync.Site().Footer.Links[0].Text)

	_, err = f.sync.UpdateFields(Form{"footer.links": ""})
	require.NoError(t, err)
	assert.Empty(t, f.sync.Site().Footer.Links)

	_, err = f.sync.UpdateFields(Form{"navigation.links.0.remove": "maybe"})
	var invalid *InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "links.0.remove", invalid.Field)
	assert.Len(t, f.sync.Site().Navigation.Links, 5)
}

func TestUpdateFields_AutoresponderCodeIsReparsed(t *testing.T) {
	f := newFixture()
	site := content.Defaults()
	site.FormConfig.Type = content.FormTypeAutoresponder
	site.FormConfig.Autoresponder.Code = `<form action="https://old.example.com/join" method="post"><input name="email"></form>`
	site.FormConfig.Autoresponder.ParsedData = &content.ParsedForm{Action: "https://old.example.com/join", Method: "post"}
	f.sync.Populate(site)

	_, err := f.sync.UpdateFields(Form{
		"form_config.autoresponder.code": `<form action="https://new.example.com/subscribe" method="POST"><input type="email" name="email"></form>`,
	})
	require.NoError(t, err)
	parsed := f.sync.Site().FormConfig.Autoresponder.ParsedData
	require.NotNil(t, parsed)
	assert.Equal(t, "https://new.example.com/subscribe", parsed.Action)

	_, err = f.sync.UpdateFields(Form{"form_config.autoresponder.code": "<p>nothing here</p>"})
	require.NoError(t, err)
	assert.Nil(t, f.sync.Site().FormConfig.Autoresponder.ParsedData)
}

func TestCollect_InvalidThemeRejected(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	_, err := f.sync.UpdateFields(Form{"settings.theme": "neon", "settings.title": "Renamed"})
	require.ErrorIs(t, err, ErrInvalidTheme)
	var invalid *InvalidFieldError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, content.SectionSettings, invalid.Section)

	site := f.sync.Site()
	assert.Equal(t, content.Defaults().Settings.Theme, site.Settings.Theme)
	assert.Equal(t, content.Defaults().Settings.Title, site.Settings.Title)
	assert.Contains(t, f.sync.View().Invalid, content.SectionSettings)
}

func TestItems_StableIDsAcrossAddAndRemove(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	exp := view.Items[content.SectionExperience]
	require.Len(t, exp, 2)
	assert.NotEqual(t, exp[0].ID, exp[1].ID)

	view, err := f.sync.AddItem(content.SectionExperience, "")
	require.NoError(t, err)
	added := view.Items[content.SectionExperience]
	require.Len(t, added, 3)
	assert.Equal(t, exp[0].ID, added[0].ID)
	assert.Equal(t, content.DefaultExperience().Title, added[2].Fields["title"])

	view, err = f.sync.RemoveItem(content.SectionExperience, exp[0].ID)
	require.NoError(t, err)
	remaining := view.Items[content.SectionExperience]
	require.Len(t, remaining, 2)
	assert.Equal(t, exp[1].ID, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Position)

	_, err = f.sync.EditItem(content.SectionExperience, remaining[0].ID, map[string]string{"title": "Dean"})
	require.NoError(t, err)
	assert.Equal(t, "Dean", f.sync.Site().Experience[0].Title)

	_, err = f.sync.EditItem(content.SectionExperience, "exp-999", map[string]string{"title": "x"})
	assert.ErrorIs(t, err, ErrUnknownItem)
	_, err = f.sync.EditItem(content.SectionExperience, remaining[0].ID, map[string]string{"salary": "x"})
	var invalid *InvalidFieldError
	assert.True(t, errors.As(err, &invalid))
}

func TestItems_SkillsAndValidation(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	skills := view.Items[content.SectionSkills]
	require.Len(t, skills, 20)
	assert.Equal(t, content.SkillCategories[0], skills[0].Category)

	_, err := f.sync.EditItem(content.SectionSkills, skills[0].ID, map[string]string{"percentage": "150"})
	require.NoError(t, err)
	assert.Equal(t, 100, f.sync.Site().Skills[content.SkillCategories[0]][0].Percentage)

	view, err = f.sync.AddItem(content.SectionSkills, content.SkillCategories[3])
	require.NoError(t, err)
	assert.Len(t, f.sync.Site().Skills[content.SkillCategories[3]], 6)
	assert.Len(t, view.Items[content.SectionSkills], 21)

	_, err = f.sync.AddItem(content.SectionSkills, "Cooking")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = f.sync.AddItem(content.SectionHero, "")
	assert.ErrorIs(t, err, ErrNotListSection)
	_, err = f.sync.AddItem("blog", "")
	assert.ErrorIs(t, err, ErrUnknownSection)

	tst := view.Items[content.SectionTestimonials]
	_, err = f.sync.EditItem(content.SectionTestimonials, tst[0].ID, map[string]string{"rating": "0"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.sync.Site().Testimonials[0].Rating)
}

func TestAttachImage(t *testing.T) {
	f := newFixture()
	view := f.sync.Populate(content.Defaults())
	const uri = "data:image/png;base64,iVBORw0KGgo="

	require.NoError(t, f.sync.AttachImage(content.SectionHero, uri))
	require.NoError(t, f.sync.AttachImage("navigation.logo", uri))
	tst := view.Items[content.SectionTestimonials]
	require.NoError(t, f.sync.AttachImage("testimonials/"+tst[1].ID, uri))

	site := f.sync.Site()
	assert.Equal(t, uri, site.Hero.Image)
	assert.Equal(t, uri, site.Navigation.Logo)
	assert.Equal(t, uri, site.Testimonials[1].Image)
	assert.Empty(t, site.Testimonials[0].Image)

	assert.ErrorIs(t, f.sync.AttachImage("about", uri), ErrUnknownTarget)
	assert.ErrorIs(t, f.sync.AttachImage("linkedin/li-404", uri), ErrUnknownItem)
}

func TestSetTheme(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	require.NoError(t, f.sync.SetTheme("elegant"))
	assert.Equal(t, []string{"elegant"}, f.broadcast.themes)
	assert.Equal(t, "elegant", f.sync.Site().Settings.Theme)
	assert.ErrorIs(t, f.sync.SetTheme("neon"), ErrInvalidTheme)
}

func TestSaveSection(t *testing.T) {
	f := newFixture()
	f.sync.Populate(content.Defaults())

	require.NoError(t, f.sync.SaveSection(context.Background(), content.SectionFooter))
	assert.Equal(t, []string{content.SectionFooter}, f.store.calls)
	assert.ErrorIs(t, f.sync.SaveSection(context.Background(), "blog"), ErrUnknownSection)
}

func TestNoticeBoard_ExpiresAndWraps(t *testing.T) {
	board := NewNoticeBoard(2, NoticeTTL)
	now := time.Unix(1000, 0)
	board.clock = func() time.Time { return now }

	board.Notify(Notice{Message: "a"})
	board.Notify(Notice{Message: "b"})
	board.Notify(Notice{Message: "c"})
	active := board.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].Message)
	assert.Equal(t, "c", active[1].Message)
	assert.Equal(t, uint64(3), active[1].ID)

	now = now.Add(NoticeTTL)
	assert.Empty(t, board.Active())
}
