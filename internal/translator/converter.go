// Package translator converts WordPress post bodies to Markdown.
//
// The conversion is html-to-markdown with an extra rule set for the embeds
// WordPress and its common plugins emit (tweets, codepens, scripts, iframes and
// image galleries), wrapped in a few text substitutions that run before and
// after the conversion.
package translator

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// RulesVersion changes whenever the rules or substitutions change the output
// for an unchanged input. Cached conversions are keyed on it.
const RulesVersion = "2"

// NewConverter builds the converter used for every post.
//
// The returned converter holds no per-call state and may be shared between
// goroutines. Build it once, before spawning any parallel work.
func NewConverter() *converter.Converter {
	return NewConverterWithRules()
}

// NewConverterWithRules builds the default converter with extra rules tried
// after the WordPress ones.
func NewConverterWithRules(extra ...Rule) *converter.Converter {
	rules := append(DefaultRules(), extra...)

	return converter.NewConverter(
		converter.WithEscapeMode(converter.EscapeModeSmart),
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithBulletListMarker("*"),
				commonmark.WithCodeBlockFence("```"),
			),
			table.NewTablePlugin(),
			&rulePlugin{rules: rules},
		),
	)
}
