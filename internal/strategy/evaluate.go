// internal/strategy/evaluate.go
package strategy

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

// DetectType runs the table's type probes against a parsed question
// container. The first probe that matches wins; a container matching nothing
// is a plain text question.
func (t Table) DetectType(container *html.Node) schemas.FieldType {
	for _, probe := range t.TypeProbes {
		if node := htmlquery.FindOne(container, probe.XPath); node != nil {
			return probe.Type
		}
	}
	return schemas.FieldText
}

// IsRequired reports whether the container carries any of the provider's
// required markers. The first satisfied check wins; a literal '*' in the
// visible text is the terminal check.
func (t Table) IsRequired(container *html.Node, visibleText string) bool {
	for _, xpath := range t.RequiredXPaths {
		if node := htmlquery.FindOne(container, xpath); node != nil {
			return true
		}
	}
	return strings.Contains(visibleText, "*")
}

// ExtractOptions walks the table's option selector chain and returns the
// first non-empty, text-deduplicated option set. Texts equal to the question
// label are filtered out (the label often nests inside the same spans the
// option selectors hit). An empty return means no selector matched; the
// caller keeps the field with options omitted.
func (t Table) ExtractOptions(container *html.Node, label string) []schemas.Option {
	for _, xpath := range t.OptionXPaths {
		nodes := htmlquery.Find(container, xpath)
		if len(nodes) == 0 {
			continue
		}

		seen := make(map[string]struct{})
		var options []schemas.Option
		for _, node := range nodes {
			text := strings.TrimSpace(htmlquery.InnerText(node))
			if text == "" || text == label {
				continue
			}
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			options = append(options, schemas.Option{Value: text, Text: text})
		}

		if len(options) > 0 {
			return options
		}
	}
	return nil
}

// VisibleText returns the trimmed text content of a container fragment.
func VisibleText(container *html.Node) string {
	return strings.TrimSpace(htmlquery.InnerText(container))
}

// TaggedControlSelector matches the control most recently tagged by the
// probe script built with ControlProbeJS.
const TaggedControlSelector = `[data-formpilot-target="1"]`

// ControlProbeJS builds a JavaScript expression that evaluates the matcher
// list in order against the live page, tags the first visible match with a
// data attribute, and returns whether anything matched. The tagged element is
// then clickable through TaggedControlSelector.
func ControlProbeJS(matchers []ControlMatcher) string {
	var entries []string
	for _, m := range matchers {
		if m.CSS != "" {
			entries = append(entries, fmt.Sprintf(`{css: %s}`, jsQuote(m.CSS)))
		} else {
			entries = append(entries, fmt.Sprintf(`{text: %s}`, jsQuote(strings.ToLower(m.Text))))
		}
	}

	return fmt.Sprintf(`(() => {
	const tag = 'data-formpilot-target';
	document.querySelectorAll('[' + tag + ']').forEach(el => el.removeAttribute(tag));
	const visible = el => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
	};
	const candidates = [%s];
	for (const c of candidates) {
		let el = null;
		if (c.css) {
			el = Array.from(document.querySelectorAll(c.css)).find(visible);
		} else {
			el = Array.from(document.querySelectorAll('button, input[type="submit"], [role="button"]'))
				.find(e => visible(e) && ((e.textContent || '') + (e.value || '')).toLowerCase().includes(c.text));
		}
		if (el) { el.setAttribute(tag, '1'); return true; }
	}
	return false;
})()`, strings.Join(entries, ", "))
}

func jsQuote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(s) + "'"
}
