// Package i18n serves operator-facing texts from YAML message catalogs.
//
// A catalog file maps language codes to nested message trees; nested keys
// are addressed with dots ("menu.welcome"). Every file under the directory is
// merged, later files overriding earlier keys.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// DefaultLang is the language used when none is configured.
const DefaultLang = "id"

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves dot-separated keys. Unknown keys resolve to themselves.
type Translator interface {
	T(key string) string
	Lang() string
}

// Catalog holds the flattened messages of every loaded language.
type Catalog struct {
	messages    map[string]map[string]string
	defaultLang string
}

// Load reads the catalogs compiled into the binary.
func Load(defaultLang string) (*Catalog, error) {
	return LoadFS(embedded, "locales", defaultLang)
}

// MustLoad is Load for callers that cannot proceed without texts.
func MustLoad(defaultLang string) *Catalog {
	c, err := Load(defaultLang)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFS reads every .yaml/.yml file in dir. defaultLang must be present.
func LoadFS(fsys fs.FS, dir, defaultLang string) (*Catalog, error) {
	messages, err := readDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	defaultLang = normalizeLang(defaultLang)
	if defaultLang == "" {
		defaultLang = DefaultLang
	}
	if _, ok := messages[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Catalog{messages: messages, defaultLang: defaultLang}, nil
}

// Translator returns a translator for lang, or for the default language when
// lang is empty or unknown. Keys missing in lang fall back to the default.
func (c *Catalog) Translator(lang string) Translator {
	if c == nil {
		return translator{}
	}

	lang = normalizeLang(lang)
	if _, ok := c.messages[lang]; !ok {
		lang = c.defaultLang
	}

	return translator{
		lang:    lang,
		catalog: c,
		printer: message.NewPrinter(languageTag(lang)),
	}
}

// Languages lists the loaded language codes in sorted order.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}

	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	if value, ok := c.messages[lang][key]; ok {
		return value, true
	}
	value, ok := c.messages[c.defaultLang][key]
	return value, ok
}

type translator struct {
	lang    string
	catalog *Catalog
	printer *message.Printer
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if t.catalog == nil || key == "" {
		return key
	}
	if value, ok := t.catalog.lookup(t.lang, key); ok {
		return value
	}
	return key
}

// Sprintf formats the message for key with numbers grouped the way the
// translator's language writes them.
func (t translator) Sprintf(key string, args ...any) string {
	if t.printer == nil {
		return fmt.Sprintf(t.T(key), args...)
	}
	return t.printer.Sprintf(t.T(key), args...)
}

// Format looks up key and formats it with args. Translators from this
// package localize numeric arguments.
func Format(t Translator, key string, args ...any) string {
	if t == nil {
		return key
	}
	if len(args) == 0 {
		return t.T(key)
	}
	if p, ok := t.(interface {
		Sprintf(key string, args ...any) string
	}); ok {
		return p.Sprintf(key, args...)
	}
	return fmt.Sprintf(t.T(key), args...)
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

func languageTag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Indonesian
	}
	return tag
}

func readDir(fsys fs.FS, dir string) (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	messages := make(map[string]map[string]string)
	found := false
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		found = true

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read file %s: %w", name, err)
		}
		if err := decodeInto(messages, data); err != nil {
			return nil, fmt.Errorf("i18n: %s: %w", name, err)
		}
	}

	if !found {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}
	return messages, nil
}

// decodeInto merges one catalog document into messages.
func decodeInto(messages map[string]map[string]string, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top level must map language codes to messages", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := normalizeLang(root.Content[i].Value)
		if lang == "" {
			continue
		}
		if messages[lang] == nil {
			messages[lang] = make(map[string]string)
		}
		if err := flatten(root.Content[i+1], "", messages[lang]); err != nil {
			return fmt.Errorf("%s: %w", lang, err)
		}
	}
	return nil
}

func flatten(node *yaml.Node, prefix string, out map[string]string) error {
	switch node.Kind {
	case yaml.AliasNode:
		return flatten(node.Alias, prefix, out)
	case yaml.ScalarNode:
		if prefix != "" {
			out[prefix] = node.Value
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := flatten(node.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: %q must be a string or a mapping", node.Line, prefix)
	}
}
