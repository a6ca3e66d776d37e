// Package i18n resolves user-facing messages for a configured locale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Vars fills the {placeholders} of a message.
type Vars map[string]string

// Messages resolves a message key to text.
type Messages interface {
	Format(key string, vars Vars) string
}

// Catalog holds the messages of every known locale and formats them in
// the selected one. Keys missing from a locale fall back to English, then
// to the key itself.
type Catalog struct {
	tag       language.Tag
	available []language.Tag
	printer   *message.Printer
	fallback  *message.Printer
}

// Load builds the catalog from the embedded locales plus any *.yaml files in
// overrideDir (which may add locales or replace keys), and selects lang.
func Load(lang, overrideDir string) (*Catalog, error) {
	embedded, err := subLocales()
	if err != nil {
		return nil, err
	}
	tables, err := readLocales(embedded)
	if err != nil {
		return nil, err
	}
	if overrideDir != "" {
		extra, err := readLocales(os.DirFS(overrideDir))
		if err != nil {
			return nil, fmt.Errorf("locales in %s: %w", overrideDir, err)
		}
		for tag, entries := range extra {
			if tables[tag] == nil {
				tables[tag] = map[string]string{}
			}
			for k, v := range entries {
				tables[tag][k] = v
			}
		}
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	available := make([]language.Tag, 0, len(tables))
	for tag, entries := range tables {
		for key, text := range entries {
			// Messages are plain templates; escape verbs so the printer
			// returns them verbatim.
			if err := builder.SetString(tag, key, strings.ReplaceAll(text, "%", "%%")); err != nil {
				return nil, fmt.Errorf("locale %s key %s: %w", tag, key, err)
			}
		}
		available = append(available, tag)
	}
	sortTags(available)

	tag := Match(lang, available)
	return &Catalog{
		tag:       tag,
		available: available,
		printer:   message.NewPrinter(tag, message.Catalog(builder)),
		fallback:  message.NewPrinter(language.English, message.Catalog(builder)),
	}, nil
}

// Match picks the best available locale for a user supplied code such as
// "EN", "pt" or "pt-BR". Unknown or empty codes select English.
func Match(lang string, available []language.Tag) language.Tag {
	if len(available) == 0 {
		return language.English
	}
	requested, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.English
	}
	// English first so it wins when nothing matches.
	ordered := append([]language.Tag{language.English}, available...)
	matcher := language.NewMatcher(ordered)
	_, idx, confidence := matcher.Match(requested)
	if confidence == language.No {
		return language.English
	}
	return ordered[idx]
}

// Language returns the selected locale.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Available returns the known locales as upper-case base codes (EN, PT, ...).
func (c *Catalog) Available() []string {
	out := make([]string, 0, len(c.available))
	for _, tag := range c.available {
		base, _ := tag.Base()
		out = append(out, strings.ToUpper(base.String()))
	}
	return out
}

// Format resolves key and substitutes vars.
func (c *Catalog) Format(key string, vars Vars) string {
	text := c.printer.Sprintf(key)
	if text == key && c.tag != language.English {
		text = c.fallback.Sprintf(key)
	}
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// T resolves a key without placeholders.
func (c *Catalog) T(key string) string {
	return c.Format(key, nil)
}

func subLocales() (fs.FS, error) {
	return fs.Sub(embeddedLocales, "locales")
}

func readLocales(fsys fs.FS) (map[language.Tag]map[string]string, error) {
	matches, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}

	tables := make(map[language.Tag]map[string]string, len(matches))
	for _, name := range matches {
		tag, err := language.Parse(strings.TrimSuffix(name, path.Ext(name)))
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", name, err)
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		entries := map[string]string{}
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		tables[tag] = entries
	}
	return tables, nil
}

func sortTags(tags []language.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
}
