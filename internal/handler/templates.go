package handler

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// Math functions
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},

		// Date/Time functions
		"year": func() int {
			return time.Now().Year()
		},

		// String functions
		"lower": func(s string) string {
			return strings.ToLower(s)
		},
		"upper": func(s string) string {
			return strings.ToUpper(s)
		},
		"title": func(v interface{}) string {
			s := fmt.Sprint(v)
			return cases.Title(language.English).String(s)
		},
		"slug": func(s string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
		},
		// JSON encoding for safe JavaScript embedding
		"json": func(v interface{}) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS(`""`)
			}
			return template.JS(b)
		},

		// Tailwind class merging: later classes win over conflicting earlier ones.
		"cn": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},
		// inputClass styles a form control, switching to the error palette
		// when the field has a message.
		"inputClass": func(errors map[string]string, field string) string {
			base := "w-full rounded-lg border border-gray-300 px-4 py-3 focus:border-transparent focus:ring-2 focus:ring-blue-500"
			if _, bad := errors[field]; bad {
				return twmerge.Merge(base, "border-red-500 focus:ring-red-500")
			}
			return base
		},

		// Collection functions
		"dict": func(values ...interface{}) map[string]interface{} {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"join": func(items []string, sep string) string {
			return strings.Join(items, sep)
		},

		// contactHref builds tel: and mailto: links, which html/template
		// would otherwise treat as unsafe URLs.
		"contactHref": func(prefix, detail string) template.URL {
			switch prefix {
			case "tel:":
				return template.URL("tel:" + strings.NewReplacer(" ", "", "-", "").Replace(detail))
			case "mailto:":
				return template.URL("mailto:" + strings.TrimSpace(detail))
			default:
				return template.URL("#")
			}
		},

		// Form helpers
		"csrfField": func(token string) template.HTML {
			return template.HTML(fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s">`, template.HTMLEscapeString(token)))
		},
	}
}
