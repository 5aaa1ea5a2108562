package builtin

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	GUID                   = "$guid"
	RandomPositiveInteger  = "$randomPositiveInteger"
	RandomNegativeInteger  = "$randomNegativeInteger"
	RandomAlphaNumeric     = "$randomAlphaNumeric"
	RandomPassword         = "$randomPassword"
	CurrentDate            = "$currentDate"
	RandomDatePast         = "$randomDatePast"
	RandomDateFuture       = "$randomDateFuture"
	RandomStartDateTimeFut = "$randomStartDateTimeFuture"
	RandomEndDateTimeFut   = "$randomEndDateTimeFuture"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

	alphaNumeric  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordChars = alphaNumeric + "%$@#!&"

	endAfterStart = 3 * time.Minute
)

var (
	ErrDynamicVariableNotSupported = errors.New("dynamic variable not supported")
	ErrOperatorNotAllowed          = errors.New("offset operator not allowed")
	ErrInvalidOffset               = errors.New("invalid day offset")
)

// UnsupportedError is returned for a $name that has no generator.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("dynamic variable %s is not supported", e.Name)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrDynamicVariableNotSupported
}

type Func func(g *Generator, days int) string

type Generator struct {
	mu    sync.Mutex
	now   func() time.Time
	rnd   *rand.Rand
	funcs map[string]Func

	start    time.Time
	hasStart bool
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rnd = r
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:   time.Now,
		funcs: make(map[string]Func),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.registerDefaults()
	return g
}

func (g *Generator) registerDefaults() {
	g.funcs[GUID] = funcGUID
	g.funcs[RandomPositiveInteger] = funcRandomPositiveInteger
	g.funcs[RandomNegativeInteger] = funcRandomNegativeInteger
	g.funcs[RandomAlphaNumeric] = funcRandomAlphaNumeric
	g.funcs[RandomPassword] = funcRandomPassword
	g.funcs[CurrentDate] = funcCurrentDate
	g.funcs[RandomDatePast] = funcRandomDatePast
	g.funcs[RandomDateFuture] = funcRandomDateFuture
	g.funcs[RandomStartDateTimeFut] = funcRandomStartDateTimeFuture
	g.funcs[RandomEndDateTimeFut] = funcRandomEndDateTimeFuture
}

// Names returns the supported generator names, sorted.
func (g *Generator) Names() []string {
	names := make([]string, 0, len(g.funcs))
	for name := range g.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Generator) Supports(name string) bool {
	_, ok := g.funcs[name]
	return ok
}

// Generate produces the value for name. offset is empty or a signed day
// count such as "+5" or "-12"; only $currentDate accepts one.
func (g *Generator) Generate(name, offset string) (string, error) {
	if offset != "" && name != CurrentDate {
		return "", fmt.Errorf("%w: %s%s", ErrOperatorNotAllowed, name, offset)
	}

	fn, ok := g.funcs[name]
	if !ok {
		return "", &UnsupportedError{Name: name}
	}

	days := 0
	if offset != "" {
		n, err := ParseOffset(offset)
		if err != nil {
			return "", err
		}
		days = n
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g, days), nil
}

// Eval evaluates the part of a token that follows the first $, e.g.
// "currentDate+5" or "guid".
func (g *Generator) Eval(expr string) (string, error) {
	name, offset := SplitOffset(expr)
	return g.Generate("$"+name, offset)
}

// SplitOffset separates a trailing +N / -N from a dynamic variable name.
func SplitOffset(expr string) (name, offset string) {
	if i := strings.IndexAny(expr, "+-"); i >= 0 {
		return expr[:i], expr[i:]
	}
	return expr, ""
}

// ParseOffset parses "+N" or "-N" into a signed day count.
func ParseOffset(offset string) (int, error) {
	if offset == "" {
		return 0, nil
	}
	sign := offset[0]
	if sign != '+' && sign != '-' {
		return 0, fmt.Errorf("%w: %q", ErrOperatorNotAllowed, offset)
	}
	digits := offset[1:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, offset)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, offset)
	}
	if sign == '-' {
		n = -n
	}
	return n, nil
}

// Reset clears the remembered start datetime.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.start = time.Time{}
	g.hasStart = false
}

func (g *Generator) randomString(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[g.rnd.Intn(len(charset))]
	}
	return string(b)
}

func (g *Generator) positive() int64 {
	return g.rnd.Int63n(math.MaxInt64) + 1
}

// today truncates the clock to a calendar date in its own location.
func (g *Generator) today() time.Time {
	now := g.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func funcGUID(g *Generator, _ int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func funcRandomPositiveInteger(g *Generator, _ int) string {
	return strconv.FormatInt(g.positive(), 10)
}

func funcRandomNegativeInteger(g *Generator, _ int) string {
	return strconv.FormatInt(-g.positive(), 10)
}

func funcRandomAlphaNumeric(g *Generator, _ int) string {
	return g.randomString(16, alphaNumeric)
}

func funcRandomPassword(g *Generator, _ int) string {
	return g.randomString(8, passwordChars)
}

func funcCurrentDate(g *Generator, days int) string {
	return g.today().AddDate(0, 0, days).Format(DateLayout)
}

func funcRandomDatePast(g *Generator, _ int) string {
	return g.today().AddDate(0, 0, -(g.rnd.Intn(365) + 1)).Format(DateLayout)
}

func funcRandomDateFuture(g *Generator, _ int) string {
	return g.today().AddDate(0, 0, g.rnd.Intn(365)+1).Format(DateLayout)
}

func funcRandomStartDateTimeFuture(g *Generator, _ int) string {
	start := g.now().UTC().AddDate(0, 0, g.rnd.Intn(366))
	g.start = start
	g.hasStart = true
	return start.Format(DateTimeLayout)
}

func funcRandomEndDateTimeFuture(g *Generator, _ int) string {
	start := g.now().UTC()
	if g.hasStart {
		start = g.start
	}
	return start.Add(endAfterStart).Format(DateTimeLayout)
}
