// Package prompts holds the LLM prompt templates used by the analysis
// pipeline and the email generator.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var embedded []byte

// Names of the prompt sets
const (
	Contextual = "contextual"
	Technical  = "technical"
	Commercial = "commercial"
	Email      = "email"
)

// Markers appear exactly once in their own user prompt and nowhere else
const (
	MarkerContextual = "TASK: ANALISI CONTESTUALE"
	MarkerTechnical  = "TASK: ANALISI TECNICA"
	MarkerCommercial = "TASK: SINTESI COMMERCIALE"
	MarkerEmail      = "TASK: EMAIL DI PRIMO CONTATTO"
)

type rawPrompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Set is a parsed collection of prompt templates
type Set struct {
	prompts map[string]compiled
}

// Data feeds a template. Fields a template does not use are ignored.
type Data struct {
	Publisher     string
	SubjectName   string
	ProgramText   string
	Phase1JSON    string
	Phase2JSON    string
	FrameworkJSON string
	CatalogJSON   string
	Bibliography  string
	InputJSON     string
}

// Default parses the embedded templates
func Default() (*Set, error) {
	return Parse(embedded)
}

// MustDefault is Default for package initialisation
func MustDefault() *Set {
	set, err := Default()
	if err != nil {
		panic(err)
	}
	return set
}

// Parse reads a YAML document of named {system, user} template pairs
func Parse(doc []byte) (*Set, error) {
	var raw map[string]rawPrompt
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	set := &Set{prompts: make(map[string]compiled, len(raw))}
	for name, p := range raw {
		sys, err := template.New(name + ".system").Option("missingkey=error").Parse(p.System)
		if err != nil {
			return nil, fmt.Errorf("prompt %s system: %w", name, err)
		}
		usr, err := template.New(name + ".user").Option("missingkey=error").Parse(p.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s user: %w", name, err)
		}
		set.prompts[name] = compiled{system: sys, user: usr}
	}
	return set, nil
}

// Render produces the system and user messages of a named prompt
func (s *Set) Render(name string, data Data) (system, user string, err error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := p.system.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s system: %w", name, err)
	}
	system = buf.String()
	buf.Reset()
	if err := p.user.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s user: %w", name, err)
	}
	return system, buf.String(), nil
}

// Has reports whether a prompt is defined
func (s *Set) Has(name string) bool {
	_, ok := s.prompts[name]
	return ok
}
