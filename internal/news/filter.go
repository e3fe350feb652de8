package news

import (
	"log/slog"
	"strings"
)

// Filter decides which scraped headlines are worth a notification.
// Matching is plain, case-sensitive substring matching: no width or script folding.
type Filter struct {
	rules   Rules
	credits map[string]struct{}
	log     *slog.Logger
}

// NewFilter builds a filter over a private copy of rules.
func NewFilter(rules Rules, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	rules = rules.clone()
	credits := make(map[string]struct{}, len(rules.IgnoreCredits))
	for _, c := range rules.IgnoreCredits {
		credits[c] = struct{}{}
	}
	return &Filter{rules: rules, credits: credits, log: log}
}

// Apply runs the title stage and then the credit stage. The result keeps input order.
func (f *Filter) Apply(items []Item) []Item {
	return f.byCredit(f.byTitle(items))
}

func (f *Filter) byTitle(items []Item) []Item {
	var ignored []string
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if containsAny(it.Title, f.rules.IgnoreTitles) {
			ignored = append(ignored, it.Title)
			continue
		}
		if containsAny(it.Title, f.rules.IncludeTitles) {
			out = append(out, it)
		}
	}
	if len(ignored) > 0 {
		f.log.Info("ignored titles", "count", len(ignored), "titles", strings.Join(ignored, ", "))
	}
	return out
}

func (f *Filter) byCredit(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if _, ok := f.credits[it.Credit]; ok {
			f.log.Debug("ignored credit", "credit", it.Credit, "title", it.Title)
			continue
		}
		out = append(out, it)
	}
	return out
}

// IgnoredKeyword returns the first ignore keyword found in text.
func (f *Filter) IgnoredKeyword(text string) (string, bool) {
	for _, k := range f.rules.IgnoreKeywords {
		if k != "" && strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
