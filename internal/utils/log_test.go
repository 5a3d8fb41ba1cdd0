package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "non-positive limit hides the text", input: "我热爱编程", limit: 0, want: ""},
		{name: "short answer kept", input: "我热爱编程", limit: 10, want: "我热爱编程"},
		{name: "counts runes not bytes", input: "首先我认为团队合作很重要", limit: 4, want: "首先我认..."},
		{name: "mixed scripts", input: "用Go写过github项目", limit: 3, want: "用Go..."},
		{name: "whitespace trimmed before counting", input: "  \n不知道  ", limit: 3, want: "不知道"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
