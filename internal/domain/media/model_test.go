package media

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEffectiveTitle(t *testing.T) {
	cases := []struct {
		name string
		obj  MediaObject
		want string
	}{
		{"user entered wins", MediaObject{Title: "provider.mp4", UserEnteredTitle: "My Lecture"}, "My Lecture"},
		{"falls back to title", MediaObject{Title: "provider.mp4"}, "provider.mp4"},
		{"falls back to default", MediaObject{}, "Untitled"},
		{"empty user entered ignored", MediaObject{Title: "provider.mp4", UserEnteredTitle: ""}, "provider.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.obj.EffectiveTitle(); got != tc.want {
				t.Fatalf("EffectiveTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClampTitle(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := ClampTitle(long); len(got) != MaxTitleLength {
		t.Fatalf("clamped length = %d, want %d", len(got), MaxTitleLength)
	}
	if got := ClampTitle("short"); got != "short" {
		t.Fatalf("short title altered: %q", got)
	}
	exact := strings.Repeat("y", MaxTitleLength)
	if got := ClampTitle(exact); got != exact {
		t.Fatalf("title at the limit altered")
	}

	// 2-byte runes: byte 255 falls mid-rune, the cut must step back to a
	// rune boundary instead of splitting one
	multibyte := strings.Repeat("é", 150)
	got := ClampTitle(multibyte)
	if !utf8.ValidString(got) {
		t.Fatalf("clamp produced invalid UTF-8: %q", got)
	}
	if len(got) != 254 {
		t.Fatalf("clamped length = %d, want 254 (127 whole runes)", len(got))
	}
}

func TestParseContextCode(t *testing.T) {
	ctx, err := ParseContextCode("user_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Kind != ContextUser || ctx.ID != "42" {
		t.Fatalf("parsed %+v", ctx)
	}

	for _, code := range []string{"", "user", "user_", "planet_9", "42"} {
		if _, err := ParseContextCode(code); err == nil {
			t.Fatalf("expected error for %q", code)
		}
	}
}

func TestContextString(t *testing.T) {
	if got := (Context{Kind: ContextCourse, ID: "7"}).String(); got != "course_7" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Context{}).String(); got != "" {
		t.Fatalf("zero context String() = %q", got)
	}
}
