package errmsg

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale supplies any key a translation leaves out.
const BaseLocale = "pt-BR"

//go:embed locales/*.yaml
var localeFS embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds every embedded locale and a matcher over them.
type Bundle struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
	base    map[string]string
}

var (
	bundleOnce sync.Once
	bundle     *Bundle
	bundleErr  error
)

func defaultBundle() (*Bundle, error) {
	bundleOnce.Do(func() {
		bundle, bundleErr = loadBundle(localeFS)
	})
	return bundle, bundleErr
}

func loadBundle(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	files := map[string]localeFile{}
	for _, p := range paths {
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		f.Locale = strings.TrimSpace(f.Locale)
		if f.Locale == "" || len(f.Messages) == 0 {
			return nil, fmt.Errorf("%s: locale and messages are required", p)
		}
		files[f.Locale] = f
	}
	base, ok := files[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s missing", BaseLocale)
	}

	b := &Bundle{
		builder: catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
		base:    base.Messages,
	}
	// Base first so the matcher prefers it on ties.
	locales := []string{BaseLocale}
	for loc := range files {
		if loc != BaseLocale {
			locales = append(locales, loc)
		}
	}
	sort.Strings(locales[1:])
	for _, loc := range locales {
		tag, err := language.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", loc, err)
		}
		b.tags = append(b.tags, tag)
		for key, text := range files[loc].Messages {
			if err := b.builder.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", loc, key, err)
			}
		}
	}
	for key := range base.Messages {
		for _, loc := range locales[1:] {
			if _, ok := files[loc].Messages[key]; !ok {
				return nil, fmt.Errorf("locale %s missing key %q", loc, key)
			}
		}
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Printer negotiates locale (a tag or Accept-Language list) against the
// bundle and returns a printer bound to the best match.
func (b *Bundle) Printer(locale string) (*message.Printer, language.Tag) {
	desired, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(desired) == 0 {
		desired = []language.Tag{b.tags[0]}
	}
	_, idx, _ := b.matcher.Match(desired...)
	tag := b.tags[idx]
	return message.NewPrinter(tag, message.Catalog(b.builder)), tag
}

// Keys lists the message keys of the base locale.
func (b *Bundle) Keys() []string {
	out := make([]string, 0, len(b.base))
	for k := range b.base {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
