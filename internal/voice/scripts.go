package voice

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed scripts.yaml
var defaultScripts []byte

var ErrUnknownCampaignType = errors.New("voice: unknown campaign type")

// ScriptData is the plain-text context a script template can reference.
type ScriptData struct {
	ContactName     string
	PropertyDetails string
}

// ScriptBook holds call-script templates keyed by campaign type.
type ScriptBook struct {
	templates map[string]*template.Template
}

type scriptFile struct {
	Scripts map[string]string `yaml:"scripts"`
}

// DefaultScriptBook returns the embedded scripts. It panics only if the embedded file is broken.
func DefaultScriptBook() *ScriptBook {
	b, err := ParseScriptBook(defaultScripts)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadScriptBook reads YAML scripts from path and layers them over the defaults.
// An empty path yields the defaults.
func LoadScriptBook(path string) (*ScriptBook, error) {
	book := DefaultScriptBook()
	if strings.TrimSpace(path) == "" {
		return book, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("voice: read scripts: %w", err)
	}
	override, err := ParseScriptBook(data)
	if err != nil {
		return nil, err
	}
	for k, v := range override.templates {
		book.templates[k] = v
	}
	return book, nil
}

func ParseScriptBook(data []byte) (*ScriptBook, error) {
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("voice: parse scripts: %w", err)
	}
	if len(f.Scripts) == 0 {
		return nil, errors.New("voice: no scripts defined")
	}
	book := &ScriptBook{templates: make(map[string]*template.Template, len(f.Scripts))}
	for name, body := range f.Scripts {
		key := strings.TrimSpace(name)
		if key == "" {
			return nil, errors.New("voice: script with empty campaign type")
		}
		tpl, err := template.New(key).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("voice: script %q: %w", key, err)
		}
		book.templates[key] = tpl
	}
	return book, nil
}

// Build renders the script for campaignType.
func (b *ScriptBook) Build(campaignType string, data ScriptData) (string, error) {
	tpl, ok := b.templates[strings.TrimSpace(campaignType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCampaignType, campaignType)
	}
	data.ContactName = strings.TrimSpace(data.ContactName)
	data.PropertyDetails = strings.TrimSpace(data.PropertyDetails)

	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("voice: render %q: %w", campaignType, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Types lists the known campaign types in sorted order.
func (b *ScriptBook) Types() []string {
	out := make([]string, 0, len(b.templates))
	for k := range b.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
