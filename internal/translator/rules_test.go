package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nethtml "golang.org/x/net/html"
)

// parseFind parses markup as a document body and returns the first element
// with the given tag.
func parseFind(t *testing.T, markup, tag string) *nethtml.Node {
	t.Helper()

	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + markup + "</body></html>"))
	require.NoError(t, err)

	var found *nethtml.Node
	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if found != nil {
			return
		}
		if n.Type == nethtml.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	require.NotNil(t, found, "no <%s> in %q", tag, markup)
	return found
}

func TestIsTweet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{"twitter embed", `<blockquote class="twitter-tweet"><p>hi</p></blockquote>`, true},
		{"extra classes", `<blockquote class="twitter-tweet tw-align-center"><p>hi</p></blockquote>`, true},
		{"unexpected inner structure", `<blockquote class="twitter-tweet"><div><span>odd</span></div></blockquote>`, true},
		{"plain quote", `<blockquote><p>hi</p></blockquote>`, false},
		{"other class", `<blockquote class="wp-block-quote"><p>hi</p></blockquote>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isTweet(parseFind(t, tt.markup, "blockquote")))
		})
	}
}

func TestIsCodepen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		tag    string
		want   bool
	}{
		{"paragraph embed", `<p class="codepen" data-height="265" data-slug-hash="abc123" data-user="me"></p>`, "p", true},
		{"div embed", `<div class="codepen" data-slug-hash="abc123"><span>See the pen</span></div>`, "div", true},
		{"missing slug hash", `<p class="codepen">no hash</p>`, "p", false},
		{"missing class", `<p data-slug-hash="abc123">no class</p>`, "p", false},
		{"wrong tag", `<section class="codepen" data-slug-hash="abc123"></section>`, "section", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isCodepen(parseFind(t, tt.markup, tt.tag)))
		})
	}
}

func TestIsGallery(t *testing.T) {
	t.Parallel()

	item := `<li><figure><a href="x.jpg"><img src="x.jpg" alt="A"></a></figure></li>`

	tests := []struct {
		name   string
		markup string
		want   bool
	}{
		{"single item", `<ul>` + item + `</ul>`, true},
		{"whitespace between items", "<ul>\n" + item + "\n" + item + "\n</ul>", true},
		{"figcaption after anchor", `<ul><li><figure><a href="x.jpg"><img src="x.jpg"></a><figcaption>Cap</figcaption></figure></li></ul>`, true},
		{"item without figure", `<ul>` + item + `<li><a href="y.jpg"><img src="y.jpg"></a></li></ul>`, false},
		{"figure without anchor", `<ul><li><figure><img src="x.jpg"></figure></li></ul>`, false},
		{"anchor without image", `<ul><li><figure><a href="x.jpg">text</a></figure></li></ul>`, false},
		{"text item", `<ul><li>one</li></ul>`, false},
		{"empty list", `<ul></ul>`, false},
		{"ordered list", `<ol>` + item + `</ol>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tag := "ul"
			if strings.HasPrefix(tt.markup, "<ol>") {
				tag = "ol"
			}
			assert.Equal(t, tt.want, isGallery(parseFind(t, tt.markup, tag)))
		})
	}
}

func TestRawBlock(t *testing.T) {
	t.Parallel()

	markup := `<blockquote class="twitter-tweet"><p lang="en" dir="ltr">Hello world</p>— Jane (@jane) <a href="https://twitter.com/jane/status/1">January 1, 2020</a></blockquote>`
	n := parseFind(t, markup, "blockquote")

	assert.Equal(t, "\n\n"+markup+"\n\n", rawBlock("ignored", n))

	withScript := parseFind(t, markup+"\n<script async src=\"w.js\"></script>", "blockquote")
	assert.Equal(t, "\n\n"+markup, rawBlock("ignored", withScript))
}

func TestRawMarkup(t *testing.T) {
	t.Parallel()

	recorded := parseFind(t, "<script data-wp-raw=\"&lt;script&gt;\n// a\nb()\n&lt;/script&gt;\">// a b()</script>", "script")
	assert.Equal(t, "<script>\n// a\nb()\n</script>", rawMarkup(recorded))

	parsed := parseFind(t, `<script>b()</script>`, "script")
	assert.Equal(t, "<script>b()</script>", rawMarkup(parsed))
}

func TestIsVerbatim(t *testing.T) {
	t.Parallel()

	assert.True(t, isVerbatim(parseFind(t, `<script></script>`, "script")))
	assert.True(t, isVerbatim(parseFind(t, `<iframe></iframe>`, "iframe")))
	assert.True(t, isVerbatim(parseFind(t, `<blockquote class="twitter-tweet"></blockquote>`, "blockquote")))
	assert.True(t, isVerbatim(parseFind(t, `<div class="codepen" data-slug-hash="a"></div>`, "div")))
	assert.False(t, isVerbatim(parseFind(t, `<blockquote></blockquote>`, "blockquote")))
	assert.False(t, isVerbatim(parseFind(t, `<ul><li>x</li></ul>`, "ul")))
}

func TestScript(t *testing.T) {
	t.Parallel()

	t.Run("after an element", func(t *testing.T) {
		t.Parallel()
		n := parseFind(t, `<blockquote class="twitter-tweet"><p>hi</p></blockquote><script async src="https://platform.twitter.com/widgets.js" charset="utf-8"></script>`, "script")
		assert.Equal(t, "\n<script async src=\"https://platform.twitter.com/widgets.js\" charset=\"utf-8\"></script>\n\n", script("", n))
	})

	t.Run("after whitespace following an element", func(t *testing.T) {
		t.Parallel()
		n := parseFind(t, "<p class=\"codepen\" data-slug-hash=\"abc\"></p>\n<script async src=\"ei.js\"></script>", "script")
		assert.True(t, strings.HasPrefix(script("", n), "\n<script async "))
	})

	t.Run("after text", func(t *testing.T) {
		t.Parallel()
		n := parseFind(t, `some text<script src="gist.js"></script>`, "script")
		assert.Equal(t, "\n\n<script src=\"gist.js\"></script>\n\n", script("", n))
	})

	t.Run("first child", func(t *testing.T) {
		t.Parallel()
		n := parseFind(t, `<div><script>var a = 1;</script></div>`, "script")
		assert.Equal(t, "\n\n<script>var a = 1;</script>\n\n", script("", n))
	})
}

func TestIframe(t *testing.T) {
	t.Parallel()

	n := parseFind(t, `<iframe src="https://www.youtube.com/embed/abc" width="560" height="315" allowfullscreen></iframe>`, "iframe")

	assert.Equal(t,
		"\n\n<iframe src=\"https://www.youtube.com/embed/abc\" width=\"560\" height=\"315\" allowfullscreen></iframe>\n\n",
		iframe("", n),
	)
}

func TestGallery(t *testing.T) {
	t.Parallel()

	n := parseFind(t, `<ul class="wp-block-gallery">`+
		`<li class="blocks-gallery-item"><figure><a href="a.jpg"><img src="a.jpg" alt="First"></a></figure></li>`+
		`<li class="blocks-gallery-item"><figure><a href="b.png"><img src="b.png"></a></figure></li>`+
		`</ul>`, "ul")

	want := "\n\n<Gallery>\n" +
		"\t<img src=\"a.jpg\" alt=\"First\">\n" +
		"\t<img src=\"b.png\" alt=\"\">\n" +
		"</Gallery>\n\n"
	assert.Equal(t, want, gallery("", n))
}

func TestParagraphBreak(t *testing.T) {
	t.Parallel()

	top := parseFind(t, `a<wp-paragraph-break></wp-paragraph-break>b`, paragraphBreakTag)
	assert.Equal(t, "\n\n", paragraphBreak("", top))

	inCode := parseFind(t, `<pre><code>a<wp-paragraph-break></wp-paragraph-break>b</code></pre>`, paragraphBreakTag)
	assert.Empty(t, paragraphBreak("", inCode))
}

func TestRulePluginFirstMatchWins(t *testing.T) {
	t.Parallel()

	first := Rule{Name: "first", Match: isElement("div"), Replacement: func(string, *nethtml.Node) string { return "first" }}
	second := Rule{Name: "second", Match: isElement("div"), Replacement: func(string, *nethtml.Node) string { return "second" }}
	p := &rulePlugin{rules: []Rule{first, second}}

	rule, ok := p.match(parseFind(t, `<div>x</div>`, "div"))
	require.True(t, ok)
	assert.Equal(t, "first", rule.Name)

	_, ok = p.match(parseFind(t, `<span>x</span>`, "span"))
	assert.False(t, ok)
}

func TestDefaultRulesOrder(t *testing.T) {
	t.Parallel()

	var names []string
	for _, r := range DefaultRules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"paragraphBreak", "tweet", "codepen", "script", "iframe", "gallery"}, names)
}
