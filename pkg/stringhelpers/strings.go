package stringhelpers

import (
	"regexp"
)

// RegexpFields splits text around each match of the regular expression sep
// and drops empty fields.
func RegexpFields(text, sep string) []string {
	reg := regexp.MustCompile(sep)
	var fields []string
	for _, f := range reg.Split(text, -1) {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
