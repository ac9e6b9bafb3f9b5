// Package editor 持有编辑器的内存状态，负责表单投影、收集与按分区保存。
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"soumiSpace/internal/content"
	"soumiSpace/internal/errcode"
	"soumiSpace/internal/store"
)

// Upserter 是保存所需的最小存储接口。
type Upserter interface {
	UpsertSection(ctx context.Context, name string, content json.RawMessage) error
}

// Broadcaster 把编辑器状态推送给预览端。
type Broadcaster interface {
	SiteUpdated(site *content.Site)
	ThemeChanged(theme string)
	StorageUpdated(ctx context.Context) error
}

// Publisher 在保存成功后安排静态快照发布。
type Publisher interface {
	EnqueuePublish(ctx context.Context) error
}

// Options 汇总 Synchronizer 的依赖；除 Store 外都可以为空。
type Options struct {
	Store       Upserter
	Fetcher     content.Fetcher
	Notifier    Notifier
	Broadcaster Broadcaster
	Publisher   Publisher
	Logger      *slog.Logger
	// OnSectionSaved 在每个分区保存结束后调用，err 为 nil 表示成功。
	OnSectionSaved func(section string, err error)
}

// View 是交给编辑界面的完整投影。
type View struct {
	Form    Form                  `json:"form"`
	Items   map[string][]ItemView `json:"items"`
	Invalid map[string]string     `json:"invalid,omitempty"`
}

// SectionFailure 描述保存失败的分区。
type SectionFailure struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// SaveReport 是一次保存的结果：按规范顺序列出已保存、失败与跳过的分区。
type SaveReport struct {
	Saved   []string         `json:"saved"`
	Failed  []SectionFailure `json:"failed"`
	Skipped []string         `json:"skipped"`
}

// Synchronizer 是进程内唯一的编辑器状态。所有修改都经由其方法并在 mu 下串行执行。
type Synchronizer struct {
	mu      sync.Mutex
	site    *content.Site
	lists   lists
	invalid map[string]error

	// saveMu 让保存严格串行，保存期间仍可编辑。
	saveMu sync.Mutex

	store       Upserter
	fetcher     content.Fetcher
	notifier    Notifier
	broadcaster Broadcaster
	publisher   Publisher
	logger      *slog.Logger
	onSaved     func(string, error)
}

// New 构造一个以默认内容为初始状态的 Synchronizer。
func New(opts Options) *Synchronizer {
	s := &Synchronizer{
		store:       opts.Store,
		fetcher:     opts.Fetcher,
		notifier:    opts.Notifier,
		broadcaster: opts.Broadcaster,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		onSaved:     opts.OnSectionSaved,
	}
	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.populateLocked(content.Defaults())
	return s
}

// Populate 把 site 装入为规范状态并返回投影。列表条目获得新的 ID。
func (s *Synchronizer) Populate(site *content.Site) View {
	s.mu.Lock()
	s.populateLocked(site)
	view := s.viewLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcastSite(snapshot)
	return view
}

func (s *Synchronizer) populateLocked(site *content.Site) {
	if site == nil {
		site = content.Defaults()
	}
	work := site.Clone()
	s.lists.load(work)
	work.Experience, work.Skills, work.Testimonials, work.LinkedIn = nil, nil, nil, nil
	s.site = work
	s.invalid = map[string]error{}
}

// Reload 从存储重新读取并合并默认值，读取失败时回退到默认值。
func (s *Synchronizer) Reload(ctx context.Context) View {
	var site *content.Site
	if s.fetcher == nil {
		site = content.Defaults()
	} else {
		site = content.Load(ctx, s.fetcher, s.logger)
	}
	return s.Populate(site)
}

// View 返回当前投影。
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Synchronizer) viewLocked() View {
	view := View{
		Form:  projectForm(s.site),
		Items: s.lists.views(),
	}
	if len(s.invalid) > 0 {
		view.Invalid = make(map[string]string, len(s.invalid))
		for name, err := range s.invalid {
			view.Invalid[name] = err.Error()
		}
	}
	return view
}

// Site 返回当前状态的深拷贝，列表分区按规范数组的顺序组装。
func (s *Synchronizer) Site() *content.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() *content.Site {
	out := s.site.Clone()
	s.lists.apply(out)
	return out
}

// Collect 按字段名把表单读回各分区；列表分区始终来自规范数组。
// 缺少必填字段或字段非法的分区保持原值，并被标记为不可保存。
func (s *Synchronizer) Collect(form Form) error {
	s.mu.Lock()
	err := s.collectLocked(form)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcastSite(snapshot)
	if err != nil {
		s.notifyError("", errcode.ValidationFailed, err)
		return err
	}
	s.notifySuccess("", "Changes applied")
	return nil
}

// UpdateFields 把部分字段合并进当前表单后收集。fields 中出现分组键时，
// 该分组以 fields 给出的下标为准。
func (s *Synchronizer) UpdateFields(fields Form) (View, error) {
	s.mu.Lock()
	form := projectForm(s.site)
	for k := range fields {
		if isGroupKey(k) {
			resetGroup(form, k)
		}
	}
	for k, v := range fields {
		form[k] = v
	}
	s.mu.Unlock()

	err := s.Collect(form)
	return s.View(), err
}

func (s *Synchronizer) collectLocked(form Form) error {
	work := s.site.Clone()
	var all []error
	for _, name := range scalarSections {
		if !s.site.Present(name) {
			continue
		}
		var errs []error
		for _, f := range sectionFields[name] {
			errs = append(errs, f.collect(work, name, form)...)
		}
		if len(errs) > 0 {
			copySection(work, s.site, name)
			s.invalid[name] = errs[0]
			all = append(all, errs...)
			continue
		}
		delete(s.invalid, name)
	}
	content.Normalize(work)
	s.site = work
	if len(all) > 0 {
		return &CollectError{Errors: all}
	}
	return nil
}

// EditItem 更新某个列表条目的字段。
func (s *Synchronizer) EditItem(section, id string, fields map[string]string) (View, error) {
	return s.mutateList(section, func() (string, error) {
		return "Item updated", s.lists.edit(section, id, fields)
	})
}

// AddItem 在列表末尾追加默认条目；技能需要指定分类。
func (s *Synchronizer) AddItem(section, category string) (View, error) {
	return s.mutateList(section, func() (string, error) {
		_, err := s.lists.add(section, category)
		return "Item added", err
	})
}

// RemoveItem 按 ID 删除列表条目。
func (s *Synchronizer) RemoveItem(section, id string) (View, error) {
	return s.mutateList(section, func() (string, error) {
		return "Item removed", s.lists.remove(section, id)
	})
}

func (s *Synchronizer) mutateList(section string, fn func() (string, error)) (View, error) {
	if !content.IsSection(section) {
		err := fmt.Errorf("%w: %q", ErrUnknownSection, section)
		s.notifyError(section, errcode.ResourceMissing, err)
		return View{}, err
	}
	if !isListSection(section) {
		err := fmt.Errorf("%w: %s", ErrNotListSection, section)
		s.notifyError(section, errcode.ValidationFailed, err)
		return View{}, err
	}

	s.mu.Lock()
	msg, err := fn()
	view := s.viewLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		code := errcode.ValidationFailed
		if errors.Is(err, ErrUnknownItem) {
			code = errcode.ResourceMissing
		}
		s.notifyError(section, code, err)
		return view, err
	}
	s.broadcastSite(snapshot)
	s.notifySuccess(section, msg)
	return view, nil
}

// SetTheme 修改主题并只通知预览端切换主题。
func (s *Synchronizer) SetTheme(theme string) error {
	if !content.IsTheme(theme) {
		err := fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
		s.notifyError(content.SectionSettings, errcode.ValidationFailed, err)
		return err
	}
	s.mu.Lock()
	if s.site.Settings == nil {
		s.site.Settings = content.DefaultSettings()
	}
	s.site.Settings.Theme = theme
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.ThemeChanged(theme)
	}
	s.notifySuccess(content.SectionSettings, "Theme changed to "+theme)
	return nil
}

// AttachImage 把内联图片写入目标字段。target 取值：
// hero、footer.logo、navigation.logo、testimonials/<id>、linkedin/<id>。
func (s *Synchronizer) AttachImage(target, dataURI string) error {
	s.mu.Lock()
	section, err := s.attachLocked(target, dataURI)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.notifyError(section, errcode.ValidationFailed, err)
		return err
	}
	s.broadcastSite(snapshot)
	s.notifySuccess(section, "Image attached")
	return nil
}

func (s *Synchronizer) attachLocked(target, dataURI string) (string, error) {
	switch target {
	case content.SectionHero:
		if s.site.Hero == nil {
			return content.SectionHero, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		s.site.Hero.Image = dataURI
		return content.SectionHero, nil
	case "footer.logo":
		if s.site.Footer == nil {
			return content.SectionFooter, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		s.site.Footer.Logo = dataURI
		return content.SectionFooter, nil
	case "navigation.logo":
		if s.site.Navigation == nil {
			return content.SectionNavigation, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		s.site.Navigation.Logo = dataURI
		return content.SectionNavigation, nil
	}
	section, id, ok := strings.Cut(target, "/")
	if !ok || (section != content.SectionTestimonials && section != content.SectionLinkedIn) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return section, s.lists.edit(section, id, map[string]string{"image": dataURI})
}

// Save 按规范顺序逐个保存分区，遇到第一个失败即停止；之前的分区保持已保存。
func (s *Synchronizer) Save(ctx context.Context) (*SaveReport, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	site := s.snapshotLocked()
	invalid := make(map[string]error, len(s.invalid))
	for k, v := range s.invalid {
		invalid[k] = v
	}
	s.mu.Unlock()
	content.Normalize(site)

	report := &SaveReport{Saved: []string{}, Failed: []SectionFailure{}, Skipped: []string{}}
	names := site.Sections()
	for i, name := range names {
		if err := s.saveSection(ctx, site, invalid, name); err != nil {
			report.Failed = append(report.Failed, SectionFailure{Section: name, Reason: err.Error()})
			report.Skipped = append(report.Skipped, names[i+1:]...)
			s.logger.Error("save stopped", slog.String("section", name), slog.Int("saved", len(report.Saved)), slog.Any("error", err))
			s.notifyError(name, codeFor(err), fmt.Errorf("save %s: %w", name, err))
			return report, err
		}
		report.Saved = append(report.Saved, name)
	}

	s.logger.Info("site saved", slog.Int("sections", len(report.Saved)))
	s.afterSave(ctx)
	s.notifySuccess("", "All changes saved")
	return report, nil
}

// SaveSection 单独保存一个分区。
func (s *Synchronizer) SaveSection(ctx context.Context, name string) error {
	if !content.IsSection(name) {
		err := fmt.Errorf("%w: %q", ErrUnknownSection, name)
		s.notifyError(name, errcode.ResourceMissing, err)
		return err
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	site := s.snapshotLocked()
	invalid := map[string]error{}
	if err, ok := s.invalid[name]; ok {
		invalid[name] = err
	}
	s.mu.Unlock()
	content.Normalize(site)

	if !site.Present(name) {
		err := fmt.Errorf("%w: %s not loaded", ErrUnknownSection, name)
		s.notifyError(name, errcode.ResourceMissing, err)
		return err
	}
	if err := s.saveSection(ctx, site, invalid, name); err != nil {
		s.notifyError(name, codeFor(err), fmt.Errorf("save %s: %w", name, err))
		return err
	}
	s.afterSave(ctx)
	s.notifySuccess(name, "Section saved")
	return nil
}

func (s *Synchronizer) saveSection(ctx context.Context, site *content.Site, invalid map[string]error, name string) (err error) {
	defer func() {
		if s.onSaved != nil {
			s.onSaved(name, err)
		}
	}()
	if invalid[name] != nil {
		return invalid[name]
	}
	if s.store == nil {
		return errors.New("no store configured")
	}
	raw, err := site.Section(name)
	if err != nil {
		return err
	}
	return s.store.UpsertSection(ctx, name, raw)
}

// afterSave 发出存储已更新信号并安排发布；两者失败都只记录日志。
func (s *Synchronizer) afterSave(ctx context.Context) {
	if s.broadcaster != nil {
		if err := s.broadcaster.StorageUpdated(ctx); err != nil {
			s.logger.Warn("signal storage updated failed", slog.Any("error", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.EnqueuePublish(ctx); err != nil {
			s.logger.Warn("enqueue publish failed", slog.Any("error", err))
		}
	}
}

func codeFor(err error) int {
	var missing *MissingFieldError
	var invalid *InvalidFieldError
	if errors.As(err, &missing) || errors.As(err, &invalid) {
		return errcode.ValidationFailed
	}
	if store.IsUnavailable(err) {
		return errcode.StoreUnavailable
	}
	return errcode.SystemError
}

func (s *Synchronizer) broadcastSite(site *content.Site) {
	if s.broadcaster != nil {
		s.broadcaster.SiteUpdated(site)
	}
}

func (s *Synchronizer) notifySuccess(section, msg string) {
	s.notifier.Notify(Notice{Level: LevelSuccess, Code: errcode.OK, Message: msg, Section: section})
}

func (s *Synchronizer) notifyError(section string, code int, err error) {
	s.notifier.Notify(Notice{Level: LevelError, Code: code, Message: err.Error(), Section: section})
}
