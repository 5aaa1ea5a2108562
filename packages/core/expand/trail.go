package expand

// Trail is the ordered set of documents on the current reference path.
// With returns a new Trail; the receiver is never modified.
type Trail struct {
	paths []string
}

func NewTrail(paths ...string) Trail {
	t := Trail{}
	for _, p := range paths {
		if !t.Contains(p) {
			t.paths = append(t.paths, p)
		}
	}
	return t
}

func (t Trail) Contains(path string) bool {
	for _, p := range t.paths {
		if p == path {
			return true
		}
	}
	return false
}

func (t Trail) With(path string) Trail {
	if t.Contains(path) {
		return t
	}
	paths := make([]string, len(t.paths), len(t.paths)+1)
	copy(paths, t.paths)
	return Trail{paths: append(paths, path)}
}

func (t Trail) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

func (t Trail) Len() int {
	return len(t.paths)
}
