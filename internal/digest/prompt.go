package digest

import "strings"

// DetailLevel selects the prompt template and the expected digest length
type DetailLevel int

const (
	Detailed DetailLevel = iota
	Standard
	Brief
)

// ParseDetailLevel maps a request value to a DetailLevel.
// Unknown or empty values resolve to Detailed.
func ParseDetailLevel(s string) DetailLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brief":
		return Brief
	case "standard":
		return Standard
	default:
		return Detailed
	}
}

func (d DetailLevel) String() string {
	switch d {
	case Brief:
		return "brief"
	case Standard:
		return "standard"
	default:
		return "detailed"
	}
}

// Prompt returns the instruction template for the level
func (d DetailLevel) Prompt() string {
	switch d {
	case Brief:
		return briefPrompt
	case Standard:
		return standardPrompt
	case Detailed:
		return detailedPrompt
	}
	return detailedPrompt
}

const briefPrompt = `このYouTube動画の内容を簡潔に要約してください。

【出力形式】
1. 最初に動画タイトルを # 見出しで記載（「YouTube動画」等の接頭辞は不要）
2. 3〜5個の箇条書きで要点をまとめる
3. 全体で300文字程度
4. 最後に「---」の後、この動画を表すキーワードタグを5〜8個、カンマ区切りで出力
   例: タグ: AI, 機械学習, プログラミング, Python
`

const standardPrompt = `このYouTube動画の内容を要約してください。

【出力形式】
1. 最初に動画タイトルを # 見出しで記載（「YouTube動画」等の接頭辞は不要）
2. 主要なポイントを箇条書き
3. 重要な点を簡潔に説明
4. 全体で500〜800文字程度
5. 最後に「---」の後、この動画を表すキーワードタグを5〜8個、カンマ区切りで出力
   例: タグ: AI, 機械学習, プログラミング, Python
`

const detailedPrompt = `このYouTube動画の内容について詳細に解説してください。

【出力形式】
- 最初に動画タイトルを # 見出しで記載（「YouTube動画」等の接頭辞は不要）
- 続いて ## 動画の主題と目的
- ## 主要なポイント（箇条書き）
- ## 重要な概念の詳細な説明
- ## 結論・まとめ
- Markdown形式で見出しや箇条書きを適切に使用
- 最後に「---」の後、この動画を表すキーワードタグを5〜10個、カンマ区切りで出力
  例: タグ: AI, 機械学習, プログラミング, Python, Claude
`

// transcriptSection is appended to the prompt when the model receives the
// caption text instead of the video itself
const transcriptSection = "\n【動画の文字起こし】\n"

// BuildPrompt returns the full text prompt for content. In URL mode the
// video is passed separately, so only the template is returned.
func BuildPrompt(level DetailLevel, content Content) string {
	if content.Transcript == "" {
		return level.Prompt()
	}
	return level.Prompt() + transcriptSection + content.Transcript
}
