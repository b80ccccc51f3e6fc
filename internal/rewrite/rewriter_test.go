package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
)

func testRewriter() *Rewriter {
	image := &entities.Media{
		SourceID: 205,
		FileName: "espresso-machine.jpg",
		Variants: map[string]string{"medium": "espresso-machine-300x200.jpg"},
	}
	pdf := &entities.Media{SourceID: 301, FileName: "report.pdf"}
	return New(Options{
		Assets: []*entities.Media{image, pdf},
		Refs: map[int64]destination.MediaRef{
			205: {ID: 9001, RelPath: "media/2021/05/espresso-machine.jpg"},
			301: {ID: 9002, RelPath: "media/2020/11/report.pdf"},
		},
		Section: "blog",
		Bases:   []BasePair{{Source: "https://old.example", Dest: "https://new.example"}},
	})
}

func TestRewriteImgByAttachmentID(t *testing.T) {
	body := `<p><img class="size-full" src="https://old.example/?attachment_id=205" alt="m"></p>`
	out, st := testRewriter().Rewrite(body)

	assert.Contains(t, out, `src="/media/2021/05/espresso-machine.jpg"`)
	assert.Equal(t, 1, st.MediaReplaced)
	assert.Zero(t, st.LinksReplaced)
}

func TestRewriteImgByUploadPathVariant(t *testing.T) {
	body := `<img src='/wp-content/uploads/2021/05/espresso-machine-300x200.jpg'>`
	out, st := testRewriter().Rewrite(body)

	assert.Equal(t, `<img src='/media/2021/05/espresso-machine.jpg'>`, out)
	assert.Equal(t, 1, st.MediaReplaced)
}

func TestRewriteShortQueryPermalinkOnKnownHost(t *testing.T) {
	out, st := testRewriter().Rewrite(`<img src="https://old.example/?p=205">`)
	assert.Contains(t, out, "/media/2021/05/espresso-machine.jpg")
	assert.Equal(t, 1, st.MediaReplaced)

	out, st = testRewriter().Rewrite(`<img src="https://elsewhere.example/?p=205">`)
	assert.Contains(t, out, "elsewhere.example", "?p= is ambiguous off the origin host")
	assert.Zero(t, st.MediaReplaced)
}

func TestRewriteAnchorToFile(t *testing.T) {
	body := `<a href="https://old.example/wp-content/uploads/2020/11/report.pdf">annual report</a>`
	out, st := testRewriter().Rewrite(body)

	assert.Contains(t, out, `href="/media/2020/11/report.pdf"`)
	assert.Equal(t, 1, st.MediaReplaced)
	assert.Zero(t, st.LinksReplaced)
}

func TestRewritePermalinks(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			"date permalink",
			"https://old.example/2021/05/10/best-espresso-bars/",
			"https://new.example/blog/best-espresso-bars.html",
		},
		{
			"date permalink without day",
			"https://old.example/2021/05/best-espresso-bars/",
			"https://new.example/blog/best-espresso-bars.html",
		},
		{
			"category listing",
			"https://old.example/category/guides/city-guides/",
			"https://new.example/blog/category/guides/city-guides",
		},
		{
			"tag listing",
			"https://old.example/tag/coffee/",
			"https://new.example/blog/tag/coffee",
		},
		{
			"flat page",
			"https://old.example/about/",
			"https://new.example/about.html",
		},
		{
			"unrecognized path falls back to base swap",
			"https://old.example/some/deep/path?x=1",
			"https://new.example/some/deep/path?x=1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, st := testRewriter().Rewrite(`<a href="` + tc.href + `">go</a>`)
			assert.Equal(t, `<a href="`+tc.want+`">go</a>`, out)
			assert.Equal(t, 1, st.LinksReplaced)
		})
	}
}

func TestRewriteLeavesForeignLinksAlone(t *testing.T) {
	body := `<a href="https://golang.org/doc/">docs</a> <img src="https://cdn.elsewhere.example/x.png">`
	out, st := testRewriter().Rewrite(body)

	assert.Equal(t, body, out)
	assert.Zero(t, st.MediaReplaced)
	assert.Zero(t, st.LinksReplaced)
}

func TestRewriteResidualBaseSubstitution(t *testing.T) {
	body := `<p>Find us at https://old.example any time.</p>`
	out, _ := testRewriter().Rewrite(body)
	assert.Equal(t, `<p>Find us at https://new.example any time.</p>`, out)
}

func TestRewriteRepeatedURLs(t *testing.T) {
	body := `<img src="https://old.example/?attachment_id=205"><img src="https://old.example/?attachment_id=205">`
	out, st := testRewriter().Rewrite(body)

	assert.NotContains(t, out, "attachment_id")
	assert.Equal(t, 2, st.MediaReplaced, "every occurrence is replaced even when resolution is cached")
}

func TestFlattenShortcodes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"caption keeps inner content",
			`[caption id="attachment_205" width="300"]<img src="x.jpg" /> The machine[/caption]`,
			`<img src="x.jpg" /> The machine`,
		},
		{
			"gallery removed",
			`before [gallery ids="1,2,3"] after`,
			`before  after`,
		},
		{
			"embed reduces to its url",
			`[embed width="640"]https://youtu.be/xyz[/embed]`,
			`https://youtu.be/xyz`,
		},
		{
			"unknown directives left alone",
			`[recipe servings="4"]stew[/recipe]`,
			`[recipe servings="4"]stew[/recipe]`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FlattenShortcodes(tc.in))
		})
	}
}

func TestRewriteCaptionedImage(t *testing.T) {
	body := `[caption id="attachment_205"]<img src="/wp-content/uploads/2021/05/espresso-machine.jpg" /> Caption[/caption]`
	out, st := testRewriter().Rewrite(body)

	require.NotContains(t, out, "[caption")
	assert.Contains(t, out, `src="/media/2021/05/espresso-machine.jpg"`)
	assert.Equal(t, 1, st.MediaReplaced)
}
