// Package validate runs struct-tag validation on decoded request bodies.
//
// Rules are comma-separated in the `validate` tag:
//
//	required      value must not be zero or blank
//	nullable      skip the remaining rules when the value is empty
//	email         valid email address
//	url           absolute http/https URL
//	min=N         strings: at least N characters; numbers: at least N; slices: at least N items
//	max=N         strings: at most N characters; numbers: at most N; slices: at most N items
//	gte=N, lte=N  numeric bounds (decimal.Decimal is compared through its string form)
//	in=a b c      value must be one of the space-separated items
//	password      at least 8 characters with a digit, a lower and an upper case letter
//	alpha_dash    letters, digits, dashes and underscores
//
// Example:
//
//	type SignupInput struct {
//	    Username string `json:"username" validate:"required,alpha_dash,min=5,max=20"`
//	    Password string `json:"password" validate:"required,password"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Struct validates the exported fields of v that carry a `validate` tag.
// It returns field name → message, with the first failing rule per field.
func Struct(v any) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		value := rv.Field(i)
		name := jsonFieldName(field)
		rules := strings.Split(tag, ",")

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}
		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := apply(strings.TrimSpace(rule), name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether errs is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	digitRE = regexp.MustCompile(`[0-9]`)
	lowerRE = regexp.MustCompile(`[a-z]`)
	upperRE = regexp.MustCompile(`[A-Z]`)
)

func apply(rule, field string, v reflect.Value) string {
	raw := fmt.Sprintf("%v", v.Interface())
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
	case "alpha_dash":
		for _, c := range raw {
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '-' && c != '_' {
				return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
			}
		}
	case "password":
		if len(raw) < 8 || !digitRE.MatchString(raw) || !lowerRE.MatchString(raw) || !upperRE.MatchString(raw) {
			return fmt.Sprintf("The %s must have at least 8 characters, a digit, a lower and an upper case letter.", field)
		}
	case "min", "max":
		n := parseFloat(param)
		size, unit := measure(v, raw)
		if key == "min" && size < n {
			return fmt.Sprintf("The %s must be at least %s%s.", field, param, unit)
		}
		if key == "max" && size > n {
			return fmt.Sprintf("The %s must not exceed %s%s.", field, param, unit)
		}
	case "gte":
		if parseFloat(raw) < parseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lte":
		if parseFloat(raw) > parseFloat(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "in":
		for _, a := range strings.Fields(param) {
			if raw == a {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}
	return ""
}

// measure returns the size min/max compare against and the unit for messages.
func measure(v reflect.Value, raw string) (float64, string) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), ""
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), ""
	case reflect.Float32, reflect.Float64:
		return v.Float(), ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(v.Len()), " items"
	}
	return float64(len([]rune(raw))), " characters"
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
