package capture

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/scenarist/packages/http"
)

var ErrPropertyNotFound = errors.New("property not found in response")

type PropertyNotFoundError struct {
	Path string
}

func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("property %q not found in response", e.Path)
}

func (e *PropertyNotFoundError) Unwrap() error {
	return ErrPropertyNotFound
}

var regexSegment = regexp.MustCompile(`^/.*/$`)

type Extractor struct {
	body     []byte
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(resp *http.Response) *Extractor {
	return NewBodyExtractor(resp.Body)
}

func NewBodyExtractor(body []byte) *Extractor {
	e := &Extractor{body: body}
	if gjson.ValidBytes(body) {
		e.isJSON = true
		e.bodyJSON = gjson.ParseBytes(body)
	}
	return e
}

// ParsePath splits a source into its property segments and the first
// /regex/ segment, if any. Every regex segment is dropped from the path.
func ParsePath(source string) (segments []string, pattern string) {
	for _, seg := range strings.Split(source, ".") {
		if regexSegment.MatchString(seg) {
			if pattern == "" {
				pattern = seg[1 : len(seg)-1]
			}
			continue
		}
		segments = append(segments, seg)
	}
	return segments, pattern
}

// Lookup walks the body along segments.
func (e *Extractor) Lookup(segments []string) (gjson.Result, bool) {
	if !e.isJSON {
		return gjson.Result{}, false
	}
	return lookup(e.bodyJSON, segments)
}

func lookup(node gjson.Result, segments []string) (gjson.Result, bool) {
	if len(segments) == 0 {
		return node, node.Exists() && node.Type != gjson.Null
	}
	seg, rest := segments[0], segments[1:]

	switch {
	case node.IsObject():
		child, ok := member(node, seg)
		if !ok {
			return gjson.Result{}, false
		}
		return lookup(child, rest)

	case node.IsArray():
		elems := node.Array()
		if idx, err := strconv.Atoi(seg); err == nil {
			if idx < 0 || idx >= len(elems) {
				return gjson.Result{}, false
			}
			return lookup(elems[idx], rest)
		}
		for _, elem := range elems {
			if found, ok := lookup(elem, segments); ok {
				return found, true
			}
		}
	}
	return gjson.Result{}, false
}

// member finds key without going through gjson path syntax, so keys with
// dots, wildcards or '#' are matched literally.
func member(obj gjson.Result, key string) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

// Extract resolves a full source path: lookup, optional regex, then JSON
// sniffing of the resulting text.
func (e *Extractor) Extract(source string) (any, error) {
	segments, pattern := ParsePath(source)

	result, ok := e.Lookup(segments)
	if !ok {
		return nil, &PropertyNotFoundError{Path: source}
	}

	text := result.String()
	if result.IsObject() || result.IsArray() || result.Type == gjson.Number {
		text = result.Raw
	}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern in %q: %w", source, err)
		}
		text = FirstMatch(re, text)
	}

	return ParseValue(text), nil
}

// FirstMatch returns the first match of re in text: the first capture group
// when re has groups, the whole match otherwise, or "" when nothing matches.
func FirstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// ParseValue decodes text delimited by [] or {} as JSON. Anything else,
// including text that fails to decode, is returned unchanged.
func ParseValue(text string) any {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return text
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if !(first == '[' && last == ']') && !(first == '{' && last == '}') {
		return text
	}
	if !gjson.Valid(trimmed) {
		return text
	}
	return gjson.Parse(trimmed).Value()
}
