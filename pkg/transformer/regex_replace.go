package transformer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
)

// Regex replace configuration.
const (
	RegexReplaceScope   = "regex_str_replace"
	ReplacementsKey     = "regex_replace_tuple_list"
	AttributeNameKey    = "attribute_name"
	defaultAttributeKey = "description"
)

type replacement struct {
	re   *regexp.Regexp
	with string
}

// RegexReplace rewrites one string attribute with an ordered list of
// (pattern, replacement) pairs.
type RegexReplace struct {
	attribute    string
	replacements []replacement
}

// Scope implements Transformer.
func (t *RegexReplace) Scope() string { return RegexReplaceScope }

// Init compiles the patterns. regex_replace_tuple_list is a list of
// two-element lists.
func (t *RegexReplace) Init(_ context.Context, cfg *config.Config) error {
	t.attribute = cfg.GetString(AttributeNameKey, defaultAttributeKey)

	raw, ok := cfg.Get(ReplacementsKey).([]interface{})
	if !ok || len(raw) == 0 {
		return errors.New(errors.ErrorTypeConfig, "regex_str_replace: regex_replace_tuple_list is required")
	}
	for i, item := range raw {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("regex_str_replace: entry %d is not a pair", i))
		}
		re, err := regexp.Compile(fmt.Sprint(pair[0]))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("regex_str_replace: entry %d", i))
		}
		t.replacements = append(t.replacements, replacement{re: re, with: fmt.Sprint(pair[1])})
	}
	return nil
}

// Transform applies every replacement to the attribute. Records without the
// attribute, or with a non-string value, pass through unchanged.
func (t *RegexReplace) Transform(_ context.Context, record any) (any, error) {
	f, ok := lookup(record, t.attribute)
	if !ok {
		return record, nil
	}
	s, ok := f.get().(string)
	if !ok {
		return record, nil
	}
	for _, r := range t.replacements {
		s = r.re.ReplaceAllString(s, r.with)
	}
	f.set(s)
	return record, nil
}

// Close implements Transformer.
func (t *RegexReplace) Close() error { return nil }
