package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Notes\n" + // 0
	"\n" + // 1
	"```fusion-params\n" + // 2
	"part: Bracket\n" + // 3
	"units: mm\n" + // 4
	"params:\n" + // 5
	"  w: 10\n" + // 6
	"```\n" + // 7
	"\n" + // 8
	"```go\n" + // 9
	"fmt.Println(1)\n" + // 10
	"```\n" + // 11
	"\n" + // 12
	"```fusion-params\n" + // 13
	"```\n" + // 14
	"tail\n" // 15

func TestFind(t *testing.T) {
	blocks := NewLocator("").Find([]byte(sampleDoc))
	require.Len(t, blocks, 2)

	assert.Equal(t, Block{
		Index:     0,
		StartLine: 3,
		EndLine:   7,
		Text:      "part: Bracket\nunits: mm\nparams:\n  w: 10\n",
	}, blocks[0])

	assert.Equal(t, 1, blocks[1].Index)
	assert.Equal(t, 14, blocks[1].StartLine)
	assert.Equal(t, 14, blocks[1].EndLine)
	assert.Equal(t, "", blocks[1].Text)
}

func TestFind_OtherLanguage(t *testing.T) {
	blocks := NewLocator("go").Find([]byte(sampleDoc))
	require.Len(t, blocks, 1)
	assert.Equal(t, "fmt.Println(1)\n", blocks[0].Text)
	assert.Equal(t, 10, blocks[0].StartLine)
}

func TestFind_TildeFenceAndInfoAttributes(t *testing.T) {
	doc := "~~~fusion-params extra words\npart: P\n~~~\n"
	blocks := NewLocator(DefaultLanguage).Find([]byte(doc))
	require.Len(t, blocks, 1)
	assert.Equal(t, "part: P\n", blocks[0].Text)
	assert.Equal(t, 1, blocks[0].StartLine)
}

func TestFind_None(t *testing.T) {
	assert.Empty(t, NewLocator("").Find([]byte("just prose\n")))
}

func TestReplaceLines(t *testing.T) {
	blocks := NewLocator("").Find([]byte(sampleDoc))
	b := blocks[0]

	out, err := ReplaceLines(sampleDoc, b.StartLine, b.EndLine, "part: Bracket\nparams:\n  w: 12\n")
	require.NoError(t, err)

	again := NewLocator("").Find([]byte(out))
	require.Len(t, again, 2)
	assert.Equal(t, "part: Bracket\nparams:\n  w: 12\n", again[0].Text)
	assert.Contains(t, out, "```go\nfmt.Println(1)\n```\n")
	assert.Contains(t, out, "tail\n")
}

func TestReplaceLines_EmptyRange(t *testing.T) {
	out, err := ReplaceLines("a\nb\n", 1, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, "a\nx\nb\n", out)

	out, err = ReplaceLines("a\nb\nc\n", 1, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "a\nc\n", out)
}

func TestReplaceLines_PreservesCRLF(t *testing.T) {
	out, err := ReplaceLines("a\r\nb\r\nc\r\n", 1, 2, "x")
	require.NoError(t, err)
	assert.Equal(t, "a\r\nx\nc\r\n", out)
}

func TestReplaceLines_OutOfRange(t *testing.T) {
	_, err := ReplaceLines("a\n", 0, 2, "x")
	assert.Error(t, err)
	_, err = ReplaceLines("a\n", 1, 0, "x")
	assert.Error(t, err)
}

func TestFind_NestedContainers(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		prefix string
	}{
		{
			name: "blockquote",
			doc: "> note\n" +
				">\n" +
				"> ```fusion-params\n" +
				"> part: Q\n" +
				"> params:\n" +
				">   w: 1\n" +
				"> ```\n",
			prefix: "> ",
		},
		{
			name: "list item",
			doc: "- item\n" +
				"\n" +
				"  ```fusion-params\n" +
				"  part: Q\n" +
				"  params:\n" +
				"    w: 1\n" +
				"  ```\n",
			prefix: "  ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := NewLocator("").Find([]byte(tt.doc))
			require.Len(t, blocks, 1)
			b := blocks[0]
			assert.Equal(t, Block{
				StartLine: 3,
				EndLine:   6,
				Prefix:    tt.prefix,
				Text:      "part: Q\nparams:\n  w: 1\n",
			}, b)

			out, err := ReplaceLines(tt.doc, b.StartLine, b.EndLine, b.Indent("part: Q\nparams:\n  w: 12\n  h: w*2\n"))
			require.NoError(t, err)

			again := NewLocator("").Find([]byte(out))
			require.Len(t, again, 1)
			assert.Equal(t, "part: Q\nparams:\n  w: 12\n  h: w*2\n", again[0].Text)
			assert.Equal(t, tt.prefix, again[0].Prefix)
		})
	}
}

func TestFind_EmptyNestedBlockPrefix(t *testing.T) {
	quoted := NewLocator("").Find([]byte("> ```fusion-params\n> ```\n"))
	require.Len(t, quoted, 1)
	assert.Equal(t, "> ", quoted[0].Prefix)

	listed := NewLocator("").Find([]byte("- ```fusion-params\n  ```\n"))
	require.Len(t, listed, 1)
	assert.Equal(t, "  ", listed[0].Prefix)
}

func TestBlock_Indent(t *testing.T) {
	assert.Equal(t, "> a\n>\n> b\n", Block{Prefix: "> "}.Indent("a\n\nb\n"))
	assert.Equal(t, "  a", Block{Prefix: "  "}.Indent("a"))
	assert.Equal(t, "a\n", Block{}.Indent("a\n"))
}
