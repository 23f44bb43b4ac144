package substitution

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
	"github.com/variantlab/configcore/pkg/types"
)

type Mode int

const (
	// Literal replaces placeholders with the raw value in place.
	Literal Mode = iota
	// QueryParameter replaces placeholders with a named parameter reference
	// and registers the value on the sink, so user values never end up
	// inside the query string itself.
	QueryParameter
)

// ParamSink receives bound values during query-mode substitution and
// returns the parameter reference to splice into the text.
type ParamSink interface {
	Bind(value string) string
}

// Params is the explicit parameter accumulator handed to the query runner
// together with the substituted query. One Params value belongs to exactly
// one query execution.
type Params struct {
	args []sql.NamedArg
}

func NewParams() *Params {
	return &Params{}
}

func (p *Params) Bind(value string) string {
	name := fmt.Sprintf("p%d", len(p.args)+1)
	p.args = append(p.args, sql.Named(name, value))
	return "@" + name
}

func (p *Params) Args() []sql.NamedArg {
	return p.args
}

type Options struct {
	Mode Mode
	Sink ParamSink
	// DashValues enables the "values can contain dashes" selection rule for
	// submitted item values.
	DashValues bool
}

type Engine struct {
	logger *logrus.Logger
}

func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger: logger,
	}
}

var unresolvedPlaceholderRe = regexp.MustCompile(`\{[^{}]*\}`)

// Substitute replaces {key} placeholders in text, where key is a raw
// query-string item name or a submitted item's external identifier. Apply
// it exactly once per text per execution: query mode binds a parameter per
// substituted key, so re-applying against the same sink double-binds.
func (e *Engine) Substitute(text string, submission *types.Submission, opts Options) string {
	if text == "" || submission == nil {
		return text
	}
	if opts.Mode == QueryParameter && opts.Sink == nil {
		e.logger.Error("query-mode substitution without a parameter sink")
		return text
	}

	out := text
	for name, value := range submission.QueryItems {
		out = e.replace(out, name, value, opts)
	}
	for _, item := range submission.Items {
		if item.ExternalID == "" {
			continue
		}
		out = e.replace(out, item.ExternalID, itemValue(item.Value, opts.DashValues), opts)
	}
	return out
}

func (e *Engine) replace(text, key, value string, opts Options) string {
	token := "{" + key + "}"
	quoted := "'" + token + "'"
	if !strings.Contains(text, token) {
		return text
	}

	if opts.Mode == Literal {
		return strings.ReplaceAll(text, token, value)
	}

	ref := opts.Sink.Bind(value)
	// Quoted occurrences lose their quotes: the parameter reference already
	// stands for a typed value.
	text = strings.ReplaceAll(text, quoted, ref)
	return strings.ReplaceAll(text, token, ref)
}

// itemValue applies the dash selection rule: option values encoded as
// "groupId-optionId" resolve to the second dash segment.
func itemValue(raw string, dashValues bool) string {
	if (dashValues && strings.Contains(raw, "-")) || raw == "-1" {
		parts := strings.Split(raw, "-")
		if len(parts) > 1 {
			return parts[1]
		}
	}
	return raw
}

// StripUnresolved replaces any placeholder left after substitution with the
// literal null, so a partially templated JSON body stays parseable.
func (e *Engine) StripUnresolved(body string) string {
	return unresolvedPlaceholderRe.ReplaceAllString(body, "null")
}

// IsValidJSON reports whether a stripped request body parses as JSON.
func IsValidJSON(body string) bool {
	return fastjson.Validate(body) == nil
}
