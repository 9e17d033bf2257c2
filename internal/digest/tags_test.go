package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagRoundTrip(t *testing.T) {
	raw := "...body...\n\n---\n**タグ**: AI, 機械学習, Claude Code\n"

	assert.Equal(t, []string{"AI", "機械学習", "ClaudeCode"}, ExtractTags(raw))
	assert.Equal(t, "...body...", StripTagSection(raw))
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "plain label", text: "body\n---\nタグ: Go, 並行処理", want: []string{"Go", "並行処理"}},
		{name: "full width colon", text: "body\nタグ：Go、Rust、Zig\n", want: []string{"Go", "Rust", "Zig"}},
		{name: "english label", text: "body\n---\nTags: go, web dev", want: []string{"go", "webdev"}},
		{name: "singular english bold", text: "body\n**Tag**: single", want: []string{"single"}},
		{name: "case insensitive", text: "body\nTAGS: a, b", want: []string{"a", "b"}},
		{name: "empty tokens dropped", text: "body\nタグ: a, , b,", want: []string{"a", "b"}},
		{name: "duplicates kept", text: "body\nタグ: a, a", want: []string{"a", "a"}},
		{name: "localized label wins", text: "Tags: english\nタグ: 日本語", want: []string{"日本語"}},
		{name: "no label", text: "just a body\nwith lines", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTags(tt.text))
		})
	}
}

func TestExtractTags_OnlyLooksAtTail(t *testing.T) {
	text := "タグ: inside body\n" + strings.Repeat("本文", 200)
	assert.Empty(t, ExtractTags(text))

	// the tail is counted in characters, not bytes
	text = strings.Repeat("あ", 1000) + "\nタグ: " + strings.Repeat("い", 250)
	assert.Equal(t, []string{strings.Repeat("い", 250)}, ExtractTags(text))
}

func TestStripTagSection(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "separator then tags", text: "body\n\n---\nタグ: a, b\n", want: "body"},
		{name: "tags then separator", text: "body\nTags: a\n\n---\n\n", want: "body"},
		{name: "lone separator", text: "body\n---", want: "body"},
		{name: "bold label", text: "body\n**Tags**: x", want: "body"},
		{name: "no tag section", text: "body\nmore body  \n\n", want: "body\nmore body"},
		{name: "separator in middle kept", text: "a\n---\nb\n", want: "a\n---\nb"},
		{name: "only tags", text: "---\nタグ: a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTagSection(tt.text))
		})
	}
}
