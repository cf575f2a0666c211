package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// RuleType names a generated validation rule
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleMaxLength RuleType = "maxLength"
	RulePattern   RuleType = "pattern"
)

// Rule is one validation rule of a form input
type Rule struct {
	Type      RuleType `json:"type"`
	Required  bool     `json:"required,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Message   string   `json:"message"`
}

// ToValidationRules derives the rules of fd: at most one required rule, one
// max-length rule and one pattern rule, in that order.
func ToValidationRules(fd entity.FieldDescriptor) []Rule {
	rules := []Rule{}
	if fd.Validator == nil {
		return rules
	}

	if fd.Validator.Required {
		verb := "请输入"
		if fd.Kind().IsSelection() {
			verb = "请选择"
		}
		rules = append(rules, Rule{
			Type:     RuleRequired,
			Required: true,
			Message:  verb + fd.Name,
		})
	}

	if n := fd.MaxCount(); n > 0 {
		rules = append(rules, Rule{
			Type:      RuleMaxLength,
			MaxLength: n,
			Message:   fmt.Sprintf("%s不能超过%d个字符", fd.Name, n),
		})
	}

	if fd.Validator.Pattern != "" {
		msg := fd.Validator.Message
		if msg == "" {
			msg = fd.Name + "格式不正确"
		}
		rules = append(rules, Rule{
			Type:    RulePattern,
			Pattern: fd.Validator.Pattern,
			Message: msg,
		})
	}
	return rules
}

// ValidationErrors maps a field key to the messages of its failed rules
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = validator.New()

// ValidateValues evaluates the generated rules of every schema field against
// values. It returns nil when all rules pass.
func ValidateValues(s entity.Schema, values map[string]interface{}) ValidationErrors {
	errs := ValidationErrors{}
	for _, fd := range s.Fields {
		text := ruleText(values[fd.Field])
		for _, rule := range ToValidationRules(fd) {
			if !checkRule(rule, text) {
				errs[fd.Field] = append(errs[fd.Field], rule.Message)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkRule(rule Rule, text string) bool {
	switch rule.Type {
	case RuleRequired:
		return validate.Var(text, "required") == nil
	case RuleMaxLength:
		return validate.Var(text, fmt.Sprintf("max=%d", rule.MaxLength)) == nil
	case RulePattern:
		if text == "" {
			return true
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	default:
		return true
	}
}

// ruleText reduces a submitted value to the text the rules measure: empty for
// nil and empty selections, the joined path for cascader values.
func ruleText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(DateTimeLayout)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, cast.ToString(p))
		}
		return strings.Join(parts, "/")
	default:
		if isEmptyValue(v) {
			return ""
		}
		return RawString(v)
	}
}
