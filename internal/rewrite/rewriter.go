// Package rewrite adjusts entry bodies for the destination: media
// references are repointed at imported files, internal permalinks are
// mapped onto the destination URL shapes, and leftover origin base URLs
// are substituted.
package rewrite

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"wpmigrate/internal/destination"
	"wpmigrate/internal/entities"
)

const defaultSection = "blog"

var (
	imgSrcAttr   = regexp.MustCompile(`(?i)(<img\b[^>]*?\bsrc=)(["'])([^"']+)(["'])`)
	anchorHref   = regexp.MustCompile(`(?i)(<a\b[^>]*?\bhref=)(["'])([^"']+)(["'])`)
	uploadsPath  = regexp.MustCompile(`/wp-content/uploads/(?:[^?#]*/)?([^/?#]+)$`)
	datePermalnk = regexp.MustCompile(`^/(\d{4})/(\d{1,2})(?:/(\d{1,2}))?/([^/]+?)/?$`)
	categoryPerm = regexp.MustCompile(`^/category/(.+?)/?$`)
	tagPermalink = regexp.MustCompile(`^/tag/([^/]+?)/?$`)
	flatPermalnk = regexp.MustCompile(`^/([^/]+?)/?$`)
)

// BasePair maps one origin base URL onto the destination base.
type BasePair struct {
	Source string
	Dest   string
}

// Stats counts what one rewrite changed.
type Stats struct {
	MediaReplaced int
	LinksReplaced int
}

// Options configure a per-run rewriter.
type Options struct {
	// Assets and Refs together describe the imported media: entities for
	// their file and variant names, refs for destination id and stored
	// path.
	Assets []*entities.Media
	Refs   map[int64]destination.MediaRef
	// MediaBaseURL is the public prefix the storage root is served under.
	MediaBaseURL string
	// Section is the destination section entries live in.
	Section string
	Bases   []BasePair
}

// Rewriter holds the per-run resolution state. Not safe for concurrent
// use; one instance belongs to one import run.
type Rewriter struct {
	refs      map[int64]destination.MediaRef
	byFile    map[string]destination.MediaRef
	bases     []BasePair
	mediaBase string
	section   string
	// Separate caches: a URL that is not a media reference may still be
	// a rewritable link.
	mediaCache map[string]string
	linkCache  map[string]string
}

func New(opts Options) *Rewriter {
	r := &Rewriter{
		refs:       opts.Refs,
		byFile:     make(map[string]destination.MediaRef),
		mediaBase:  strings.TrimRight(opts.MediaBaseURL, "/"),
		section:    opts.Section,
		mediaCache: make(map[string]string),
		linkCache:  make(map[string]string),
	}
	if r.section == "" {
		r.section = defaultSection
	}
	if r.refs == nil {
		r.refs = make(map[int64]destination.MediaRef)
	}
	for _, p := range opts.Bases {
		src := strings.TrimRight(p.Source, "/")
		dst := strings.TrimRight(p.Dest, "/")
		if src == "" {
			continue
		}
		r.bases = append(r.bases, BasePair{Source: src, Dest: dst})
	}
	// Index origin file names, including resized variants, so upload
	// paths resolve to the stored original.
	for _, m := range opts.Assets {
		ref, ok := r.refs[m.SourceID]
		if !ok {
			continue
		}
		if m.FileName != "" {
			r.byFile[m.FileName] = ref
		}
		for _, variant := range m.Variants {
			if variant != "" {
				r.byFile[variant] = ref
			}
		}
	}
	return r
}

// Rewrite applies the passes in order: shortcode flattening, image
// sources, anchors (media targets first, then permalinks), and residual
// base substitution.
func (r *Rewriter) Rewrite(body string) (string, Stats) {
	var st Stats
	body = FlattenShortcodes(body)
	body = r.rewriteImages(body, &st)
	body = r.rewriteAnchors(body, &st)
	body = r.rewriteResidual(body)
	return body, st
}

func (r *Rewriter) rewriteImages(body string, st *Stats) string {
	return imgSrcAttr.ReplaceAllStringFunc(body, func(m string) string {
		parts := imgSrcAttr.FindStringSubmatch(m)
		if replacement, ok := r.resolveMedia(parts[3]); ok {
			st.MediaReplaced++
			return parts[1] + parts[2] + replacement + parts[4]
		}
		return m
	})
}

func (r *Rewriter) rewriteAnchors(body string, st *Stats) string {
	return anchorHref.ReplaceAllStringFunc(body, func(m string) string {
		parts := anchorHref.FindStringSubmatch(m)
		target := parts[3]
		if replacement, ok := r.resolveMedia(target); ok {
			st.MediaReplaced++
			return parts[1] + parts[2] + replacement + parts[4]
		}
		if replacement, ok := r.resolveLink(target); ok {
			st.LinksReplaced++
			return parts[1] + parts[2] + replacement + parts[4]
		}
		return m
	})
}

func (r *Rewriter) rewriteResidual(body string) string {
	for _, p := range r.bases {
		body = strings.ReplaceAll(body, p.Source, p.Dest)
	}
	return body
}

// resolveMedia maps a URL onto an imported asset, either through an
// attachment id in the query string or through the upload-path naming
// convention. Results, including misses, are cached per run.
func (r *Rewriter) resolveMedia(raw string) (string, bool) {
	if hit, ok := r.mediaCache[raw]; ok {
		return hit, hit != ""
	}

	resolved := ""
	if u, err := url.Parse(raw); err == nil {
		if id := r.attachmentID(u); id != 0 {
			if ref, ok := r.refs[id]; ok {
				resolved = r.mediaURL(ref)
			}
		}
		if resolved == "" {
			if m := uploadsPath.FindStringSubmatch(u.Path); m != nil {
				if ref, ok := r.byFile[m[1]]; ok {
					resolved = r.mediaURL(ref)
				}
			}
		}
	}

	r.mediaCache[raw] = resolved
	return resolved, resolved != ""
}

// attachmentID pulls the asset id out of the query string. The short
// form ?p=N is only trusted on known origin hosts, where it is the
// platform's canonical query permalink.
func (r *Rewriter) attachmentID(u *url.URL) int64 {
	q := u.Query()
	if v := q.Get("attachment_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	if r.matchBase(u.String()) != nil {
		if v := q.Get("p"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				return id
			}
		}
	}
	return 0
}

// resolveLink rewrites internal permalinks. Only absolute URLs under a
// known origin base qualify; recognized patterns map onto destination
// shapes and everything else falls back to a straight base swap.
func (r *Rewriter) resolveLink(raw string) (string, bool) {
	pair := r.matchBase(raw)
	if pair == nil {
		return "", false
	}
	if hit, ok := r.linkCache[raw]; ok {
		return hit, hit != ""
	}

	resolved := ""
	if u, err := url.Parse(raw); err == nil {
		fragment := ""
		if u.Fragment != "" {
			fragment = "#" + u.Fragment
		}
		switch {
		case datePermalnk.MatchString(u.Path):
			slug := datePermalnk.FindStringSubmatch(u.Path)[4]
			resolved = fmt.Sprintf("%s/%s/%s.html%s", pair.Dest, r.section, slug, fragment)
		case categoryPerm.MatchString(u.Path):
			p := categoryPerm.FindStringSubmatch(u.Path)[1]
			resolved = fmt.Sprintf("%s/%s/category/%s%s", pair.Dest, r.section, p, fragment)
		case tagPermalink.MatchString(u.Path):
			slug := tagPermalink.FindStringSubmatch(u.Path)[1]
			resolved = fmt.Sprintf("%s/%s/tag/%s%s", pair.Dest, r.section, slug, fragment)
		case flatPermalnk.MatchString(u.Path):
			slug := flatPermalnk.FindStringSubmatch(u.Path)[1]
			resolved = fmt.Sprintf("%s/%s.html%s", pair.Dest, slug, fragment)
		}
	}
	if resolved == "" {
		// Straight base swap keeps the link pointing somewhere sane.
		resolved = pair.Dest + strings.TrimPrefix(raw, pair.Source)
	}

	r.linkCache[raw] = resolved
	return resolved, true
}

func (r *Rewriter) matchBase(raw string) *BasePair {
	for i := range r.bases {
		p := &r.bases[i]
		if raw == p.Source || strings.HasPrefix(raw, p.Source+"/") || strings.HasPrefix(raw, p.Source+"?") {
			return p
		}
	}
	return nil
}

func (r *Rewriter) mediaURL(ref destination.MediaRef) string {
	return r.mediaBase + "/" + strings.TrimLeft(ref.RelPath, "/")
}
