package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

const (
	ListenPreRequest = "prerequest"
	ListenTest       = "test"

	BodyModeRaw        = "raw"
	BodyModeURLEncoded = "urlencoded"
	BodyModeFormData   = "formdata"

	FormFieldFile = "file"
)

type Document struct {
	Path      string     `json:"-"`
	Info      Info       `json:"info"`
	Variables []Variable `json:"variable,omitempty"`
	Steps     []*Step    `json:"item,omitempty"`
	Events    []Event    `json:"event,omitempty"`
}

type Info struct {
	PostmanID   string `json:"_postman_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema,omitempty"`
}

type Variable struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

type Step struct {
	Index       int                `json:"-"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Request     *Request           `json:"request"`
	Responses   []ExpectedResponse `json:"response,omitempty"`
	Events      []Event            `json:"event,omitempty"`
}

type Request struct {
	Method      string     `json:"method"`
	Header      []KeyValue `json:"header,omitempty"`
	Body        *Body      `json:"body,omitempty"`
	URL         *URL       `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
}

type KeyValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Body struct {
	Mode       string          `json:"mode,omitempty"`
	Raw        string          `json:"raw,omitempty"`
	URLEncoded []KeyValue      `json:"urlencoded,omitempty"`
	FormData   []FormField     `json:"formdata,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

// EffectiveMode is Mode, or the first populated body kind when Mode is empty.
func (b *Body) EffectiveMode() string {
	if b.Mode != "" {
		return b.Mode
	}
	switch {
	case b.Raw != "":
		return BodyModeRaw
	case len(b.FormData) > 0:
		return BodyModeFormData
	case len(b.URLEncoded) > 0:
		return BodyModeURLEncoded
	}
	return ""
}

type FormField struct {
	Key      string     `json:"key"`
	Value    string     `json:"value,omitempty"`
	Type     string     `json:"type,omitempty"`
	Src      StringList `json:"src,omitempty"`
	Disabled bool       `json:"disabled,omitempty"`
}

// ExpectedResponse is one acceptable outcome of a step. Absent fields are
// not checked.
type ExpectedResponse struct {
	Name            string          `json:"name,omitempty"`
	OriginalRequest json.RawMessage `json:"originalRequest,omitempty"`
	Status          *string         `json:"status,omitempty"`
	Code            *int            `json:"code,omitempty"`
	Header          json.RawMessage `json:"header,omitempty"`
	Body            *string         `json:"body,omitempty"`
}

type Event struct {
	Listen string `json:"listen"`
	Script Script `json:"script"`
}

type Script struct {
	ID   string     `json:"id,omitempty"`
	Type string     `json:"type,omitempty"`
	Exec StringList `json:"exec"`
}

// StringList decodes either a JSON string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// First returns the first element or "".
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// URL accepts both the string and the object form of a request url.
type URL struct {
	Raw      string          `json:"raw"`
	Protocol string          `json:"protocol,omitempty"`
	Host     json.RawMessage `json:"host,omitempty"`
	Port     string          `json:"port,omitempty"`
	Path     json.RawMessage `json:"path,omitempty"`
	Query    []KeyValue      `json:"query,omitempty"`
}

func (u *URL) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.Raw)
	}
	type plain URL
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = URL(p)
	return nil
}

func (d *Document) Name() string {
	return d.Info.Name
}

func (d *Document) Description() string {
	return d.Info.Description
}

// VariableMap returns the declared scenario variables.
func (d *Document) VariableMap() map[string]any {
	out := make(map[string]any, len(d.Variables))
	for _, v := range d.Variables {
		out[v.Key] = v.Value
	}
	return out
}

// VariableNames returns declared names in document order, without repeats.
func (d *Document) VariableNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range d.Variables {
		if seen[v.Key] {
			continue
		}
		seen[v.Key] = true
		out = append(out, v.Key)
	}
	return out
}

// Reindex numbers steps by position.
func (d *Document) Reindex() {
	for i, s := range d.Steps {
		s.Index = i
	}
}

func (d *Document) PreRequestScript() []string {
	return scriptLines(d.Events, ListenPreRequest)
}

func (d *Document) PostRequestScript() []string {
	return scriptLines(d.Events, ListenTest)
}

// Clone deep-copies the document through its JSON form.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	out.Path = d.Path
	out.Reindex()
	return &out, nil
}

func (s *Step) Method() string {
	if s.Request == nil {
		return ""
	}
	return strings.ToUpper(s.Request.Method)
}

func (s *Step) PreRequestScript() []string {
	return scriptLines(s.Events, ListenPreRequest)
}

func (s *Step) PostRequestScript() []string {
	return scriptLines(s.Events, ListenTest)
}

func (s *Step) PreRequestDirectives() ([]markup.Directive, error) {
	return parseScript(s.PreRequestScript(), s)
}

func (s *Step) PostRequestDirectives() ([]markup.Directive, error) {
	return parseScript(s.PostRequestScript(), s)
}

// PrependPreRequest puts lines ahead of the step's existing prerequest
// script, adding a prerequest event when there is none.
func (s *Step) PrependPreRequest(lines []string) {
	if len(lines) == 0 {
		return
	}
	for i := range s.Events {
		if s.Events[i].Listen == ListenPreRequest {
			exec := make(StringList, 0, len(lines)+len(s.Events[i].Script.Exec))
			exec = append(exec, lines...)
			s.Events[i].Script.Exec = append(exec, s.Events[i].Script.Exec...)
			return
		}
	}
	ev := Event{Listen: ListenPreRequest, Script: Script{Type: "text/javascript", Exec: append(StringList{}, lines...)}}
	s.Events = append([]Event{ev}, s.Events...)
}

func (s *Step) String() string {
	return fmt.Sprintf("#%d %s %s", s.Index, s.Method(), s.Name)
}

func scriptLines(events []Event, listen string) []string {
	var out []string
	for _, ev := range events {
		if ev.Listen == listen {
			out = append(out, ev.Script.Exec...)
		}
	}
	return out
}

func parseScript(lines []string, s *Step) ([]markup.Directive, error) {
	directives, err := markup.ParseAll(lines)
	if err != nil {
		return nil, fmt.Errorf("step %d (%s): %w", s.Index, s.Name, err)
	}
	return directives, nil
}
