package translator

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	nethtml "golang.org/x/net/html"
)

// Rule overrides the default HTML-to-Markdown handling for the nodes it matches.
//
// Match must not mutate the node or its tree. Replacement receives the already
// converted Markdown of the node's children and the node itself.
type Rule struct {
	Name        string
	Match       func(n *nethtml.Node) bool
	Replacement func(content string, n *nethtml.Node) string
}

// paragraphBreakTag is the empty element inserted between blank-line separated
// content before conversion. See insertParagraphBreaks.
const paragraphBreakTag = "wp-paragraph-break"

// postRootTag wraps the whole post so that leading scripts and styles stay in
// the body instead of being hoisted into <head>.
const postRootTag = "wp-post"

// verbatimAttr carries the source markup of a node that is emitted as is.
// See markVerbatim.
const verbatimAttr = "data-wp-raw"

// DefaultRules returns the WordPress rule set in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "paragraphBreak", Match: isParagraphBreak, Replacement: paragraphBreak},
		{Name: "tweet", Match: isTweet, Replacement: rawBlock},
		{Name: "codepen", Match: isCodepen, Replacement: rawBlock},
		{Name: "script", Match: isElement("script"), Replacement: script},
		{Name: "iframe", Match: isElement("iframe"), Replacement: iframe},
		{Name: "gallery", Match: isGallery, Replacement: gallery},
	}
}

// rulePlugin registers an ordered rule list with a converter. All rules share a
// single renderer so that the first matching rule wins.
type rulePlugin struct {
	rules []Rule
}

func (p *rulePlugin) Name() string {
	return "wordpress"
}

func (p *rulePlugin) Init(conv *converter.Converter) error {
	// The base plugin drops these tags before rendering.
	conv.Register.TagType("script", converter.TagTypeBlock, converter.PriorityEarly)
	conv.Register.TagType("iframe", converter.TagTypeBlock, converter.PriorityEarly)
	conv.Register.TagType(paragraphBreakTag, converter.TagTypeBlock, converter.PriorityEarly)
	conv.Register.TagType(postRootTag, converter.TagTypeBlock, converter.PriorityEarly)

	conv.Register.Renderer(p.render, converter.PriorityEarly)
	return nil
}

func (p *rulePlugin) render(ctx converter.Context, w converter.Writer, n *nethtml.Node) converter.RenderStatus {
	if isElement(postRootTag)(n) {
		ctx.RenderChildNodes(ctx, w, n)
		return converter.RenderSuccess
	}

	rule, ok := p.match(n)
	if !ok {
		return converter.RenderTryNext
	}

	var content bytes.Buffer
	ctx.RenderChildNodes(ctx, &content, n)

	w.WriteString(rule.Replacement(content.String(), n))
	return converter.RenderSuccess
}

func (p *rulePlugin) match(n *nethtml.Node) (Rule, bool) {
	if n.Type != nethtml.ElementNode {
		return Rule{}, false
	}
	for _, rule := range p.rules {
		if rule.Match(n) {
			return rule, true
		}
	}
	return Rule{}, false
}

func isElement(tag string) func(n *nethtml.Node) bool {
	return func(n *nethtml.Node) bool {
		return n.Type == nethtml.ElementNode && n.Data == tag
	}
}

func isParagraphBreak(n *nethtml.Node) bool {
	return isElement(paragraphBreakTag)(n)
}

func isTweet(n *nethtml.Node) bool {
	return isElement("blockquote")(n) && hasClass(n, "twitter-tweet")
}

// isCodepen matches the embed snippets codepen has handed out over the years.
// They differ in tag and attributes but all carry the slug hash and the class.
func isCodepen(n *nethtml.Node) bool {
	if !isElement("p")(n) && !isElement("div")(n) {
		return false
	}
	_, ok := attr(n, "data-slug-hash")
	return ok && hasClass(n, "codepen")
}

// isGallery reports whether every list item is shaped li > figure > a > img.
func isGallery(n *nethtml.Node) bool {
	if !isElement("ul")(n) {
		return false
	}
	items := elementChildren(n)
	if len(items) == 0 {
		return false
	}
	for _, li := range items {
		if galleryImage(li) == nil {
			return false
		}
	}
	return true
}

// galleryImage walks li > figure > a > img and returns the img, or nil when the
// item has any other shape.
func galleryImage(li *nethtml.Node) *nethtml.Node {
	cur := li
	for _, tag := range []string{"li", "figure", "a", "img"} {
		if cur == nil || !isElement(tag)(cur) {
			return nil
		}
		if tag == "img" {
			return cur
		}
		cur = firstElementChild(cur)
	}
	return nil
}

// paragraphBreak renders nothing inside code, the newlines around the marker
// already hold the blank line there.
func paragraphBreak(_ string, n *nethtml.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement("pre")(p) || isElement("code")(p) {
			return ""
		}
	}
	return "\n\n"
}

// rawBlock keeps n as markup. The trailing blank line is left out when the
// companion script follows, the script rule places it right below.
func rawBlock(_ string, n *nethtml.Node) string {
	after := "\n\n"
	if next := nextSibling(n); next != nil && isElement("script")(next) {
		after = ""
	}
	return "\n\n" + rawMarkup(n) + after
}

func script(_ string, n *nethtml.Node) string {
	before := "\n\n"
	if prev := previousSibling(n); prev != nil && prev.Type != nethtml.TextNode {
		// keep embed scripts snug with the element above them
		before = "\n"
	}
	markup := strings.ReplaceAll(rawMarkup(n), `async=""`, "async")
	return before + markup + "\n\n"
}

func iframe(_ string, n *nethtml.Node) string {
	markup := strings.ReplaceAll(rawMarkup(n), `allowfullscreen=""`, "allowfullscreen")
	return "\n\n" + markup + "\n\n"
}

func gallery(_ string, n *nethtml.Node) string {
	var b strings.Builder
	b.WriteString("\n\n<Gallery>\n")
	for _, li := range elementChildren(n) {
		img := galleryImage(li)
		src, _ := attr(img, "src")
		alt, _ := attr(img, "alt")
		b.WriteString("\t<img src=\"" + nethtml.EscapeString(src) + "\" alt=\"" + nethtml.EscapeString(alt) + "\">\n")
	}
	b.WriteString("</Gallery>\n\n")
	return b.String()
}

// isVerbatim reports whether n is emitted as source markup.
func isVerbatim(n *nethtml.Node) bool {
	return isTweet(n) || isCodepen(n) || isElement("script")(n) || isElement("iframe")(n)
}

// rawMarkup returns the source markup recorded for n, falling back to
// serializing the parsed node.
func rawMarkup(n *nethtml.Node) string {
	if raw, ok := attr(n, verbatimAttr); ok {
		return raw
	}
	return outerHTML(n)
}

// outerHTML serializes n and its subtree back to markup.
func outerHTML(n *nethtml.Node) string {
	var buf bytes.Buffer
	if err := nethtml.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func attr(n *nethtml.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *nethtml.Node, class string) bool {
	val, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

// elementChildren returns the element children of n. Whitespace-only text is
// skipped, any other non-element child makes the result nil.
func elementChildren(n *nethtml.Node) []*nethtml.Node {
	var children []*nethtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == nethtml.ElementNode:
			children = append(children, c)
		case c.Type == nethtml.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == nethtml.CommentNode:
		default:
			return nil
		}
	}
	return children
}

// previousSibling skips whitespace-only text, which the whitespace collapsing
// step would otherwise leave between two block elements.
func previousSibling(n *nethtml.Node) *nethtml.Node {
	prev := n.PrevSibling
	for prev != nil && prev.Type == nethtml.TextNode && strings.TrimSpace(prev.Data) == "" {
		prev = prev.PrevSibling
	}
	return prev
}

func nextSibling(n *nethtml.Node) *nethtml.Node {
	next := n.NextSibling
	for next != nil && next.Type == nethtml.TextNode && strings.TrimSpace(next.Data) == "" {
		next = next.NextSibling
	}
	return next
}

func firstElementChild(n *nethtml.Node) *nethtml.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.ElementNode {
			return c
		}
		if c.Type == nethtml.TextNode && strings.TrimSpace(c.Data) != "" {
			return nil
		}
	}
	return nil
}
