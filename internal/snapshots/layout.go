package snapshots

import "golang.org/x/text/language"

// NameLayout formats the default snapshot name when no locale is configured
const NameLayout = "02/01/2006 15:04:05"

// Date-time layouts by locale. The first entry is the fallback.
var nameLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.Und, "2006-01-02 15:04:05"},
	{language.French, NameLayout},
	{language.AmericanEnglish, "1/2/2006, 3:04:05 PM"},
	{language.BritishEnglish, "02/01/2006, 15:04:05"},
	{language.German, "2.1.2006, 15:04:05"},
	{language.Spanish, "2/1/2006, 15:04:05"},
	{language.Italian, "2/1/2006, 15:04:05"},
	{language.Japanese, "2006/1/2 15:04:05"},
}

var layoutMatcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(nameLayouts))
	for _, l := range nameLayouts {
		tags = append(tags, l.tag)
	}
	return language.NewMatcher(tags)
}()

// Layout returns the time layout used to name snapshots for tag
func Layout(tag language.Tag) string {
	_, idx, conf := layoutMatcher.Match(tag)
	if conf == language.No {
		return nameLayouts[0].layout
	}
	return nameLayouts[idx].layout
}

// Option configures a Store
type Option func(*Store)

// WithLocale names unnamed snapshots with the date format of tag
func WithLocale(tag language.Tag) Option {
	return func(s *Store) {
		s.layout = Layout(tag)
	}
}
