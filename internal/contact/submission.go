package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fastjson"
)

// Submission is a decoded, validated contact form entry.
type Submission struct {
	Name    string
	Email   string
	Message string
}

// Limits bounds field lengths, counted in code points.
type Limits struct {
	NameMin    int
	NameMax    int
	MessageMin int
	MessageMax int
}

func DefaultLimits() Limits {
	return Limits{NameMin: 2, NameMax: 100, MessageMin: 10, MessageMax: 5000}
}

// emailRune is any rune except '@' and whitespace, Unicode spaces included.
const emailRune = `[^@\s\v\p{Z}\x{FEFF}]`

var (
	emailPattern = regexp.MustCompile(`^` + emailRune + `+@` + emailRune + `+\.` + emailRune + `+$`)

	requiredFields = []string{"name", "email", "message"}

	parserPool fastjson.ParserPool
)

// parseSubmission decodes payload and applies the presence and type checks.
// Unparseable input and a top-level null are unexpected errors; any other
// non-object document has no fields.
func parseSubmission(payload []byte) (Submission, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	root, err := p.ParseBytes(payload)
	if err != nil {
		return Submission{}, newError(KindUnexpected, msgUnexpected, fmt.Errorf("decode body: %w", err))
	}
	if root.Type() == fastjson.TypeNull {
		return Submission{}, newError(KindUnexpected, msgUnexpected, errors.New("decode body: document is null"))
	}

	values := make([]*fastjson.Value, len(requiredFields))
	for i, name := range requiredFields {
		values[i] = root.Get(name)
		if !truthy(values[i]) {
			return Submission{}, &Error{Kind: KindMissingFields, Message: msgMissingFields, Field: name}
		}
	}

	out := make([]string, len(requiredFields))
	for i, v := range values {
		if v.Type() != fastjson.TypeString {
			return Submission{}, &Error{Kind: KindInvalidType, Message: msgInvalidType, Field: requiredFields[i]}
		}
		// copy out of parser-owned memory before the parser is reused
		out[i] = string(v.GetStringBytes())
	}

	return Submission{Name: out[0], Email: out[1], Message: out[2]}, nil
}

// truthy mirrors what a browser form script treats as "filled in": null,
// false, 0 and "" are all missing.
func truthy(v *fastjson.Value) bool {
	if v == nil {
		return false
	}
	switch v.Type() {
	case fastjson.TypeNull, fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		return len(v.GetStringBytes()) > 0
	case fastjson.TypeNumber:
		return v.GetFloat64() != 0
	default:
		return true
	}
}

type fieldValidator struct {
	validate    *validator.Validate
	limits      Limits
	nameRule    string
	messageRule string
}

func newFieldValidator(limits Limits) *fieldValidator {
	v := validator.New()
	// registering a fixed tag on a fresh instance cannot fail
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return &fieldValidator{
		validate:    v,
		limits:      limits,
		nameRule:    fmt.Sprintf("min=%d,max=%d", limits.NameMin, limits.NameMax),
		messageRule: fmt.Sprintf("min=%d,max=%d", limits.MessageMin, limits.MessageMax),
	}
}

// check runs the format and length checks in order and normalizes the name.
func (f *fieldValidator) check(s *Submission) error {
	if err := f.validate.Var(s.Email, "contactemail"); err != nil {
		return &Error{Kind: KindInvalidEmail, Message: msgInvalidEmail, Field: "email"}
	}

	name := strings.TrimSpace(s.Name)
	if err := f.validate.Var(name, f.nameRule); err != nil {
		return &Error{
			Kind:    KindInvalidLength,
			Message: fmt.Sprintf("Name must be between %d and %d characters", f.limits.NameMin, f.limits.NameMax),
			Field:   "name",
		}
	}

	if err := f.validate.Var(s.Message, f.messageRule); err != nil {
		return &Error{
			Kind:    KindInvalidLength,
			Message: fmt.Sprintf("Message must be between %d and %d characters", f.limits.MessageMin, f.limits.MessageMax),
			Field:   "message",
		}
	}

	s.Name = name
	return nil
}
