package fhir

import (
	"fmt"
	"sort"
)

// Issues collects structural problems found while validating a parsed
// resource. Values are either []string messages or nested Issues for
// complex elements.
type Issues map[string]interface{}

func (is Issues) Add(field, msg string) {
	msgs, _ := is[field].([]string)
	is[field] = append(msgs, msg)
}

// Nest attaches child under field when it holds anything.
func (is Issues) Nest(field string, child Issues) {
	if len(child) > 0 {
		is[field] = child
	}
}

// Flatten renders the tree as "path: message" strings in key order.
func (is Issues) Flatten() []string {
	var out []string
	is.flatten("", &out)
	return out
}

func (is Issues) flatten(prefix string, out *[]string) {
	keys := make([]string, 0, len(is))
	for k := range is {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := is[k].(type) {
		case []string:
			for _, msg := range v {
				*out = append(*out, path+": "+msg)
			}
		case Issues:
			v.flatten(path, out)
		}
	}
}

func indexed(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

func checkCode(is Issues, field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	is.Add(field, fmt.Sprintf("'%s' is not a valid code", value))
}

func checkDate(is Issues, field, value string) {
	if value != "" && !dateRe.MatchString(value) {
		is.Add(field, fmt.Sprintf("'%s' is not a valid date", value))
	}
}

func checkDateTime(is Issues, field, value string) {
	if value != "" && !dateTimeRe.MatchString(value) {
		is.Add(field, fmt.Sprintf("'%s' is not a valid dateTime", value))
	}
}

func checkID(is Issues, id string) {
	if id != "" && !idRe.MatchString(id) {
		is.Add("id", fmt.Sprintf("'%s' is not a valid id", id))
	}
}

func checkResourceType(is Issues, got, want string) {
	switch got {
	case want:
	case "":
		is.Add("resourceType", "is required")
	default:
		is.Add("resourceType", fmt.Sprintf("must be '%s', got '%s'", want, got))
	}
}

func validateExtensions(exts []Extension) Issues {
	is := Issues{}
	for i, e := range exts {
		child := Issues{}
		if e.URL == "" {
			child.Add("url", "is required")
		}
		if e.ValueDate != nil {
			checkDate(child, "valueDate", *e.ValueDate)
		}
		is.Nest(indexed("extension", i), child)
	}
	return is
}

func validateNames(names []HumanName) Issues {
	is := Issues{}
	for i, n := range names {
		child := Issues{}
		checkCode(child, "use", n.Use, "usual", "official", "temp", "nickname", "anonymous", "old", "maiden")
		is.Nest(indexed("name", i), child)
	}
	return is
}

func validateTelecom(cps []ContactPoint) Issues {
	is := Issues{}
	for i, cp := range cps {
		child := Issues{}
		checkCode(child, "system", cp.System, "phone", "fax", "email", "pager", "url", "sms", "other")
		checkCode(child, "use", cp.Use, "home", "work", "temp", "old", "mobile")
		if cp.Rank != nil && *cp.Rank < 1 {
			child.Add("rank", "must be a positive integer")
		}
		is.Nest(indexed("telecom", i), child)
	}
	return is
}

func validateReference(is Issues, field string, ref *Reference, required bool) {
	if ref == nil || ref.Reference == "" {
		if required {
			is.Add(field, "is required")
		}
	}
}

// merge copies the entries of child into is.
func (is Issues) merge(child Issues) {
	for k, v := range child {
		is[k] = v
	}
}
