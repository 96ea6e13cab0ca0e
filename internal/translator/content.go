package translator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	nethtml "golang.org/x/net/html"
)

// Options controls the substitutions applied to a single post.
type Options struct {
	// ImagesSavedLocally rewrites image sources to the local images/ folder.
	// The images must already have been saved there by the caller.
	ImagesSavedLocally bool
}

// Converter is satisfied by *converter.Converter.
type Converter interface {
	ConvertString(htmlInput string, opts ...converter.ConvertOptionFunc) (string, error)
}

var (
	blankLinesRe = regexp.MustCompile(`(\r?\n){2,}`)

	imageSrcRe    = regexp.MustCompile(`(?i)(<img[^>]*src=").*?([^/"]+\.(?:gif|jpe?g|png))("[^>]*>)`)
	scaledImageRe = regexp.MustCompile(`(?i)(/[a-z0-9_]+)-[a-z0-9]+(\.(?:gif|jpe?g|png))`)

	iframeCloseRe       = regexp.MustCompile(`(?i)(</iframe>)`)
	iframePlaceholderRe = regexp.MustCompile(`(?i)\.(</iframe>)`)

	listMarkerSpacesRe = regexp.MustCompile(`(?m)^([ \t]*)([-*]|\d+\.) {2,}`)
)

// RenderMarkdown converts one post body to Markdown.
func RenderMarkdown(content string, conv Converter, opts Options) (string, error) {
	return RenderMarkdownContext(context.Background(), content, conv, opts)
}

// RenderMarkdownContext is RenderMarkdown with a context handed to the converter.
func RenderMarkdownContext(ctx context.Context, content string, conv Converter, opts Options) (string, error) {
	content = markVerbatim(content, func(text string) string {
		text = insertParagraphBreaks(text)
		if opts.ImagesSavedLocally {
			text = rewriteImagePaths(text)
		}
		return text
	}, func(raw string) string {
		if opts.ImagesSavedLocally {
			return rewriteImagePaths(raw)
		}
		return raw
	})

	content = padIframes(content)

	content = "<" + postRootTag + ">" + content + "</" + postRootTag + ">"
	markdown, err := conv.ConvertString(content, converter.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	markdown = tidyListMarkers(markdown)
	markdown = unpadIframes(markdown)

	return markdown, nil
}

// insertParagraphBreaks puts an empty marker element between blank-line
// separated content. WordPress stores paragraphs as bare blank lines, which the
// converter would otherwise collapse into a single space. Inside <pre> the
// marker carries no text, so code keeps its blank lines.
func insertParagraphBreaks(content string) string {
	return blankLinesRe.ReplaceAllString(content, "\n<"+paragraphBreakTag+"></"+paragraphBreakTag+">\n")
}

// rewriteImagePaths points images at the local images/ folder and strips the
// size suffix WordPress adds to scaled copies (photo-300x200.jpg), since only
// the original file is saved.
func rewriteImagePaths(content string) string {
	content = imageSrcRe.ReplaceAllString(content, "${1}images/${2}${3}")
	return scaledImageRe.ReplaceAllString(content, "${1}${2}")
}

// padIframes makes every iframe non-empty so it survives as a node with content.
func padIframes(content string) string {
	return iframeCloseRe.ReplaceAllString(content, ".${1}")
}

func unpadIframes(markdown string) string {
	return iframePlaceholderRe.ReplaceAllString(markdown, "${1}")
}

func tidyListMarkers(markdown string) string {
	return listMarkerSpacesRe.ReplaceAllString(markdown, "${1}${2} ")
}

// verbatimSpan is the byte range of an element emitted as source markup.
// tagEnd is the end of its start tag.
type verbatimSpan struct {
	start, tagEnd, end int
	name               string
}

// markVerbatim runs text over the content between verbatim elements and
// records the source of each verbatim element, passed through raw, in
// verbatimAttr on its start tag. The recorded markup is what the rules emit,
// so script bodies and embeds keep their line breaks and entities.
func markVerbatim(content string, text, raw func(string) string) string {
	var b strings.Builder
	last := 0
	for _, s := range verbatimSpans(content) {
		b.WriteString(text(content[last:s.start]))

		startTag := content[s.start:s.tagEnd]
		b.WriteString(startTag[:1+len(s.name)])
		b.WriteString(" " + verbatimAttr + `="` + nethtml.EscapeString(raw(content[s.start:s.end])) + `"`)
		b.WriteString(startTag[1+len(s.name):])
		b.WriteString(content[s.tagEnd:s.end])

		last = s.end
	}
	b.WriteString(text(content[last:]))
	return b.String()
}

// verbatimSpans finds the outermost tweets, codepens, scripts and iframes in
// content. Elements without a closing tag are left out.
func verbatimSpans(content string) []verbatimSpan {
	var (
		spans []verbatimSpan
		open  *verbatimSpan
		depth int
		pos   int
	)

	z := nethtml.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			return spans
		}
		start := pos
		pos += len(z.Raw())

		switch tt {
		case nethtml.StartTagToken:
			name, hasAttr := z.TagName()
			if open != nil {
				if string(name) == open.name {
					depth++
				}
				continue
			}
			n := &nethtml.Node{Type: nethtml.ElementNode, Data: string(name)}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				n.Attr = append(n.Attr, nethtml.Attribute{Key: string(key), Val: string(val)})
			}
			if isVerbatim(n) {
				open = &verbatimSpan{start: start, tagEnd: pos, name: n.Data}
				depth = 1
			}
		case nethtml.EndTagToken:
			if open == nil {
				continue
			}
			if name, _ := z.TagName(); string(name) == open.name {
				depth--
				if depth == 0 {
					open.end = pos
					spans = append(spans, *open)
					open = nil
				}
			}
		}
	}
}
