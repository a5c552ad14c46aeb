package field

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

const (
	defaultStringLength = 255
	defaultTextMax      = 65535
	defaultIntLength    = 11
	defaultBigIntLength = 20
	defaultPrecision    = 10
	defaultScale        = 2
)

// DefaultImageExtensions are accepted by image fields without allowed_extensions.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}

// --- string & text ---

// StringField holds short text stored as VARCHAR.
type StringField struct {
	*Base
	pattern    *regexp.Regexp
	patternErr error
}

func newStringField(b *Base) Field {
	b.dbType = varcharType(b.opts)
	f := &StringField{Base: b}
	if b.opts.Pattern != "" {
		f.pattern, f.patternErr = compilePattern(b.opts.Pattern)
	}
	return f
}

// Validate implements Field.
func (f *StringField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	n := utf8.RuneCountInString(s)
	if f.opts.MinLength != nil && n < *f.opts.MinLength {
		return false
	}
	if f.opts.MaxLength != nil && n > *f.opts.MaxLength {
		return false
	}
	if f.opts.Pattern != "" {
		if f.patternErr != nil {
			return false
		}
		return f.pattern.MatchString(s)
	}
	return true
}

// TextField holds long text stored as TEXT.
type TextField struct {
	*Base
}

func newTextField(b *Base) Field {
	b.dbType = "TEXT"
	return &TextField{Base: b}
}

// Validate implements Field.
func (f *TextField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	limit := defaultTextMax
	if f.opts.MaxLength != nil {
		limit = *f.opts.MaxLength
	}
	return utf8.RuneCountInString(s) <= limit
}

// --- numbers ---

// IntegerField holds INT or BIGINT values depending on its Type.
type IntegerField struct {
	*Base
}

func newIntegerField(b *Base) Field {
	b.dbType = integerType("INT", defaultIntLength, b.opts)
	return &IntegerField{Base: b}
}

func newBigIntField(b *Base) Field {
	b.dbType = integerType("BIGINT", defaultBigIntLength, b.opts)
	return &IntegerField{Base: b}
}

// Validate implements Field.
func (f *IntegerField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	n, ok := toInt64(value)
	if !ok {
		return false
	}
	if f.opts.Unsigned && n < 0 {
		return false
	}
	return inRange(float64(n), f.opts)
}

// DecimalField holds fixed point numbers.
type DecimalField struct {
	*Base
}

func newDecimalField(b *Base) Field {
	precision, scale := defaultPrecision, defaultScale
	if b.opts.Precision != nil {
		precision = *b.opts.Precision
	}
	if b.opts.Scale != nil {
		scale = *b.opts.Scale
	}
	// unsigned only restricts validation; the column type stays DECIMAL(p,s).
	b.dbType = fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
	return &DecimalField{Base: b}
}

// Validate implements Field.
func (f *DecimalField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	n, ok := toFloat64(value)
	if !ok {
		return false
	}
	if f.opts.Unsigned && n < 0 {
		return false
	}
	return inRange(n, f.opts)
}

// BooleanField accepts true/false and 0/1.
type BooleanField struct {
	*Base
}

func newBooleanField(b *Base) Field {
	b.dbType = "TINYINT(1)"
	return &BooleanField{Base: b}
}

// Validate implements Field.
func (f *BooleanField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	switch x := value.(type) {
	case bool:
		return true
	case string:
		return x == "0" || x == "1"
	}
	n, ok := toInt64(value)
	return ok && (n == 0 || n == 1)
}

// --- dates ---

const dateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var timestampLayouts = append([]string{dateLayout}, append(dateTimeLayouts,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.ANSIC,
)...)

// DateField holds calendar dates in Y-m-d form.
type DateField struct {
	*Base
}

func newDateField(b *Base) Field {
	b.dbType = "DATE"
	return &DateField{Base: b}
}

// Validate implements Field.
func (f *DateField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	switch x := value.(type) {
	case time.Time:
		return !x.IsZero()
	case string:
		t, err := time.Parse(dateLayout, x)
		return err == nil && t.Format(dateLayout) == x
	}
	return false
}

// DateTimeField holds a date and a time of day.
type DateTimeField struct {
	*Base
}

func newDateTimeField(b *Base) Field {
	b.dbType = "DATETIME"
	return &DateTimeField{Base: b}
}

// Validate implements Field.
func (f *DateTimeField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	switch x := value.(type) {
	case time.Time:
		return !x.IsZero()
	case string:
		return parsesWithAny(x, dateTimeLayouts)
	}
	return false
}

// TimestampField holds unix seconds or any parseable date/time string.
type TimestampField struct {
	*Base
}

func newTimestampField(b *Base) Field {
	b.dbType = "TIMESTAMP"
	return &TimestampField{Base: b}
}

// Validate implements Field.
func (f *TimestampField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	switch x := value.(type) {
	case time.Time:
		return !x.IsZero()
	case string:
		return parsesWithAny(strings.TrimSpace(x), timestampLayouts)
	}
	n, ok := toInt64(value)
	return ok && n >= 0
}

func parsesWithAny(s string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// --- structured ---

// JSONField holds arbitrary JSON documents.
type JSONField struct {
	*Base
}

func newJSONField(b *Base) Field {
	b.dbType = "JSON"
	return &JSONField{Base: b}
}

// Validate implements Field.
func (f *JSONField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	switch x := value.(type) {
	case string:
		return json.Valid([]byte(x))
	case []byte:
		return json.Valid(x)
	case json.RawMessage:
		return json.Valid(x)
	}
	return isCollection(value)
}

// --- files ---

// FileField holds a path to an uploaded file.
type FileField struct {
	*Base
	defaultExtensions []string
	checkDimensions   bool
}

func newFileField(b *Base) Field {
	b.dbType = varcharType(b.opts)
	return &FileField{Base: b}
}

func newImageField(b *Base) Field {
	b.dbType = varcharType(b.opts)
	return &FileField{Base: b, defaultExtensions: DefaultImageExtensions, checkDimensions: true}
}

// Validate implements Field.
func (f *FileField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	path, ok := value.(string)
	if !ok {
		return false
	}

	allowed := f.opts.AllowedExtensions
	if len(allowed) == 0 {
		allowed = f.defaultExtensions
	}
	if len(allowed) > 0 && !hasExtension(path, allowed) {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Only files present on disk are size checked.
		return true
	}
	if f.opts.MaxSize != nil && info.Size() > *f.opts.MaxSize {
		return false
	}
	if f.checkDimensions && (f.opts.MaxWidth != nil || f.opts.MaxHeight != nil) {
		return withinDimensions(path, f.opts.MaxWidth, f.opts.MaxHeight)
	}
	return true
}

func hasExtension(path string, allowed []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, a := range allowed {
		if strings.EqualFold(ext, strings.TrimPrefix(a, ".")) {
			return true
		}
	}
	return false
}

// --- choices ---

// ChoiceField holds one value out of an enum (select, radio).
type ChoiceField struct {
	*Base
}

func newChoiceField(b *Base) Field {
	b.dbType = varcharType(b.opts)
	return &ChoiceField{Base: b}
}

// Validate implements Field.
func (f *ChoiceField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	return inEnum(value, f.opts.Enum)
}

// CheckboxField holds a list of values, each drawn from the enum.
type CheckboxField struct {
	*Base
}

func newCheckboxField(b *Base) Field {
	b.dbType = "JSON"
	return &CheckboxField{Base: b}
}

// Validate implements Field.
func (f *CheckboxField) Validate(value any) bool {
	if valid, ok := f.acceptNil(value); ok {
		return valid
	}
	if s, ok := value.(string); ok {
		var decoded []any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return false
		}
		value = decoded
	}
	if !isCollection(value) {
		return false
	}
	for _, item := range elements(value) {
		if !inEnum(item, f.opts.Enum) {
			return false
		}
	}
	return true
}

// inEnum reports whether v is a scalar contained in enum. An empty enum accepts any scalar.
func inEnum(v any, enum []any) bool {
	key, ok := scalarKey(v)
	if !ok {
		return false
	}
	if len(enum) == 0 {
		return true
	}
	for _, e := range enum {
		if k, ok := scalarKey(e); ok && k == key {
			return true
		}
	}
	return false
}

// --- helpers ---

func inRange(n float64, opts Options) bool {
	if opts.Minimum != nil && n < *opts.Minimum {
		return false
	}
	if opts.Maximum != nil && n > *opts.Maximum {
		return false
	}
	return true
}

func varcharType(opts Options) string {
	length := defaultStringLength
	switch {
	case opts.Length != nil:
		length = *opts.Length
	case opts.MaxLength != nil:
		length = *opts.MaxLength
	}
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func integerType(base string, defaultLength int, opts Options) string {
	length := defaultLength
	if opts.Length != nil {
		length = *opts.Length
	}
	t := fmt.Sprintf("%s(%d)", base, length)
	if opts.Unsigned {
		t += " UNSIGNED"
	}
	return t
}

// compilePattern accepts a bare regular expression or a delimited one such as
// "/^[a-z]+$/i". The i, m and s flags are honoured.
func compilePattern(p string) (*regexp.Regexp, error) {
	if len(p) >= 2 && p[0] == '/' {
		if end := strings.LastIndexByte(p, '/'); end > 0 {
			body, flags := p[1:end], p[end+1:]
			var prefix strings.Builder
			for _, fl := range flags {
				switch fl {
				case 'i', 'm', 's':
					prefix.WriteRune(fl)
				case 'u':
					// Go regexps are always UTF-8 aware.
				default:
					return nil, fmt.Errorf("unsupported pattern flag %q", fl)
				}
			}
			if prefix.Len() > 0 {
				body = "(?" + prefix.String() + ")" + body
			}
			p = body
		}
	}
	return regexp.Compile(p)
}
