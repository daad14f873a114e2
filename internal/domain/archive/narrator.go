package archive

import (
	"fmt"
	"strings"
	"text/template"
)

var narrationTemplates = map[ActionKind]*template.Template{
	ActionCreate: narrationTemplate("create",
		`download archive from {{.source}} to {{.path}}`+
			`{{if .extract}} and extracted in {{.extract_path}}{{with .creates}} to create {{.}}{{end}}{{end}}`+
			` {{if .cleanup}}with cleanup{{else}}without cleanup{{end}}`),
	ActionReplace: narrationTemplate("replace",
		`replace archive {{.path}}: ({{.algorithm}}){{.current}} -> ({{.algorithm}}){{.desired}}`),
	ActionRemove: narrationTemplate("remove",
		`remove archive {{.path}}`),
}

func narrationTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

// Narrate describes action for audit logs and dry runs. NoOp has no
// narration. Rendering never fails: a template error falls back to a
// generic description.
func Narrate(action Action) string {
	if action == nil || action.Kind() == ActionNoOp {
		return ""
	}
	msg, err := renderNarration(action)
	if err != nil {
		return fallbackNarration(action)
	}
	return msg
}

// NarrateOutcome reports a completed (or failed) action.
func NarrateOutcome(action Action, err error) string {
	if action == nil {
		return ""
	}
	if err != nil {
		return fmt.Sprintf("failed to %s archive %s: %v", action.Kind(), action.Target(), err)
	}
	switch action.Kind() {
	case ActionCreate:
		return "created archive " + action.Target()
	case ActionReplace:
		return "replaced archive " + action.Target()
	case ActionRemove:
		return "removed archive " + action.Target()
	case ActionNoOp:
		if n, ok := action.(NoOp); ok && n.Reason != "" {
			return fmt.Sprintf("archive %s unchanged (%s)", n.Path, n.Reason)
		}
	}
	return "archive " + action.Target() + " unchanged"
}

// renderNarration fails when a value the template needs is missing.
func renderNarration(action Action) (string, error) {
	tmpl, ok := narrationTemplates[action.Kind()]
	if !ok {
		return "", fmt.Errorf("no narration for %s", action.Kind())
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, narrationData(action)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// narrationData exposes only the non-empty values of an action, so a
// missing required value surfaces as a template error.
func narrationData(action Action) map[string]interface{} {
	data := map[string]interface{}{}
	put := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}

	switch a := action.(type) {
	case Create:
		put("path", a.Path)
		put("source", a.Source)
		put("extract_path", a.ExtractPath)
		data["creates"] = a.Creates
		data["extract"] = a.Extract
		data["cleanup"] = a.Cleanup
	case Replace:
		put("path", a.Path)
		put("algorithm", string(a.Algorithm))
		put("current", a.Current)
		put("desired", a.Desired)
	case Remove:
		put("path", a.Path)
	}
	return data
}

func fallbackNarration(action Action) string {
	if action.Target() == "" {
		return string(action.Kind()) + " archive"
	}
	return fmt.Sprintf("%s archive %s", action.Kind(), action.Target())
}
