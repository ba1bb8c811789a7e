package textproc

import "testing"

// TestFromMarkdown tests flattening markdown into speakable text.
func TestFromMarkdown(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   Options
		want   string
	}{
		{
			name:   "plain text",
			source: "Hello world",
			want:   "Hello world",
		},
		{
			name:   "heading and emphasis",
			source: "# Title\n\nHello *brave* **new** world.\n",
			want:   "Title.\n\nHello brave new world.",
		},
		{
			name:   "heading with punctuation",
			source: "## Why?\n",
			want:   "Why?",
		},
		{
			name:   "links and images",
			source: "See [the docs](https://example.com) and ![a cat](cat.png).",
			want:   "See the docs and a cat.",
		},
		{
			name:   "list items",
			source: "- one\n- two\n",
			want:   "one\n\ntwo",
		},
		{
			name:   "soft line breaks",
			source: "first line\nsecond line\n",
			want:   "first line second line",
		},
		{
			name:   "code block dropped",
			source: "Run this:\n\n```sh\nmake build\n```\n",
			want:   "Run this:",
		},
		{
			name:   "code block kept",
			source: "Run this:\n\n```sh\nmake build\n```\n",
			opts:   Options{IncludeCode: true},
			want:   "Run this:\n\nmake build",
		},
		{
			name:   "inline code",
			source: "Call `speakr speak` now.",
			want:   "Call speakr speak now.",
		},
		{
			name:   "html dropped",
			source: "<div>hidden</div>\n\nshown\n",
			want:   "shown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMarkdown(tt.source, tt.opts)
			if err != nil {
				t.Fatalf("FromMarkdown error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FromMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}
