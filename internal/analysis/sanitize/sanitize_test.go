package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanEmptyInputs(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean(nil))
	assert.Equal(t, "", Clean([]byte(nil)))
	assert.Equal(t, "", Clean(0))
	assert.Equal(t, "", Clean(42))
	assert.Equal(t, "", Clean(3.5))
	assert.Equal(t, "", Clean(true))
}

func TestCleanNeverPanics(t *testing.T) {
	inputs := []any{
		make(chan int),
		func() {},
		map[string]any{"nested": map[string]any{"x": 1}},
		[]string{"a", "b"},
		struct{ Name string }{Name: "story"},
		json.RawMessage(`null`),
		"\\u",
		"\\uZZZZ",
		"&#xFFFFFFF;",
		"<think>unterminated",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Clean(in) })
		assert.NotPanics(t, func() { CleanStructured(in) })
	}
}

func TestCleanSimpleText(t *testing.T) {
	assert.Equal(t, "This is a simple text", Clean("This is a simple text"))
}

func TestCleanThinkTags(t *testing.T) {
	assert.Equal(t, "y", Clean("<think>x</think>y"))
	assert.Equal(t, "This is the actual response", Clean("<think>Some thinking</think>This is the actual response"))

	multiline := "Some text before\n    <think>\n      This is a multiline\n      think tag with some analysis\n    </think>\n    This is the actual response"
	assert.Equal(t, "Some text before This is the actual response", Clean(multiline))
}

func TestCleanThinkTagsAreCaseSensitive(t *testing.T) {
	assert.Equal(t, "<THINK>kept</THINK> after", Clean("<THINK>kept</THINK> after"))
}

func TestCleanHTMLEntities(t *testing.T) {
	assert.Equal(t, "a & b < c", Clean("a &amp; b &lt; c"))
	assert.Equal(t, "This & that < 5", Clean("This &amp; that &lt; 5"))
	assert.Equal(t, `"q" 'a' > ©`, Clean("&quot;q&quot; &#39;a&#39; &gt; &copy;"))
}

func TestCleanUnicodeEscapes(t *testing.T) {
	assert.Equal(t, "& <test>", Clean(`\u0026amp; \u003ctest\u003e`))
	assert.Equal(t, "This is a test: & <test>", Clean(`This is a test: \u0026amp; \u003ctest\u003e`))
	assert.Equal(t, "smile \U0001F600", Clean(`smile \ud83d\ude00`))
	assert.Equal(t, "lone \uFFFD", Clean(`lone \ud83d`))
}

func TestCleanBackslashEscapes(t *testing.T) {
	assert.Equal(t, "line one line two", Clean(`line one\nline two`))
	assert.Equal(t, `say "hi" a/b \ end`, Clean(`say \"hi\" a\/b \\ end`))
	assert.Equal(t, "tab separated", Clean(`tab\tseparated`))
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "H B i c", Clean("# H\n**B** *i* `c`"))
	assert.Equal(t, "Header Bold and italic text with code", Clean("# Header\n**Bold** and *italic* text with `code`"))
	assert.Equal(t, "see the docs and logo", Clean("see [the docs](https://example.com) and ![logo](img.png)"))
	assert.Equal(t, "before after", Clean("before\n```go\nfmt.Println(1)\n```\nafter"))
	assert.Equal(t, "Deep heading", Clean("###### Deep heading"))
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Clean("  a \t\t b\n\n\n   c  "))
}

func TestCleanJSONUnwrap(t *testing.T) {
	assert.Equal(t, "hello", Clean(`{"response": "hello"}`))
	assert.Equal(t, "from text", Clean(`{"text": "from text"}`))
	assert.Equal(t, "from content", Clean(`{"response": "", "content": "from content"}`))
	assert.Equal(t, `{"b":1,"a":2}`, Clean(`{"b": 1, "a": 2}`))
	assert.Equal(t, `[1,2]`, Clean(`[1, 2]`))
	assert.Equal(t, `{broken`, Clean(`{broken`))
	assert.Equal(t, "42", Clean("42"))
}

func TestCleanUnwrapsResponseObjects(t *testing.T) {
	assert.Equal(t, "wrapped text", Clean(map[string]any{"response": "**wrapped** text"}))
	assert.Equal(t, "wrapped", Clean(struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}{Response: "wrapped", Done: true}))
	assert.Equal(t, `{"model":"m"}`, Clean(map[string]any{"model": "m"}))
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"<think>hidden</think>Visible **bold** text",
		"a &amp; b &lt; c",
		`\u0026amp; \u003ctest\u003e`,
		"# Title\n\n- item one\n- item *two*\n",
		"Emotional Tone:\nTriumphant\nSentiment Score:\n9\n",
		`{"response": "hello world"}`,
		"see [link](http://x) and `code` and ```\nblock\n```",
		"  spaced\t\tout\n\n\ntext  ",
		`quoted \"text\" with\nnewline`,
		"&amp;amp;amp;",
		"`` `x` ``",
		"&amp;#92;u0041",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)

		structured := CleanStructured(in)
		assert.Equal(t, structured, CleanStructured(structured), "input %q", in)
	}
}

func TestCleanDecodesNestedEncodings(t *testing.T) {
	cases := map[string]string{
		"&amp;amp;amp;":            "&",
		"`` `x` ``":                "x",
		"&amp;#92;u0041":           "A",
		`\u0026amp;lt;b\u0026gt;`: "<b>",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "input %q", in)
		assert.Equal(t, want, CleanStructured(in), "input %q", in)
	}
}

func FuzzClean(f *testing.F) {
	seeds := []string{
		"plain text",
		"<think>x</think>y",
		"a &amp; b &lt; c",
		`\u0026amp; \u003ctest\u003e`,
		"# H\n**B** *i* `c`",
		"Emotional Tone:\nUplifting\nKey Themes:\n- Growth\n- Loss\n",
		`{"response": "hello"}`,
		"&amp;amp;amp;",
		"`` `x` ``",
		"&amp;#92;u0041",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := Clean(in)
		if again := Clean(once); again != once {
			t.Fatalf("Clean not idempotent for %q: %q then %q", in, once, again)
		}
		structured := CleanStructured(in)
		if again := CleanStructured(structured); again != structured {
			t.Fatalf("CleanStructured not idempotent for %q: %q then %q", in, structured, again)
		}
	})
}

func TestCleanStructuredKeepsLines(t *testing.T) {
	raw := "<think>plan</think>\n## Emotional Tone:\n  **Triumphant**  \n\nSentiment   Score:\n9\n"
	assert.Equal(t, "Emotional Tone:\nTriumphant\nSentiment Score:\n9", CleanStructured(raw))
}
