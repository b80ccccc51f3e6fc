package wxr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNotWXR means the file parsed as XML but is not a WordPress export
// document (no rss/channel envelope or no wxr_version marker).
var ErrNotWXR = errors.New("document is not a WordPress WXR export")

// Extractor streams a WXR export from disk. The document is read twice:
// once to index taxonomy term definitions, which may appear anywhere
// relative to the items referencing them, and once to yield the items
// themselves. Neither pass holds more than one subtree in memory.
type Extractor struct {
	path string
	info Info
}

// Open validates that path is a readable WXR document and captures the
// channel metadata. A missing file, an unparsable document, or a document
// without the WXR dialect marker is a fatal error.
func Open(path string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	info, err := readChannelInfo(f)
	if err != nil {
		return nil, err
	}
	return &Extractor{path: path, info: info}, nil
}

// Info returns the channel metadata captured during Open.
func (e *Extractor) Info() Info {
	return e.info
}

// ReadTermIndex scans the whole document and collects every category and
// tag definition declared at channel level. Malformed term subtrees are
// logged and skipped; duplicate slugs keep the first definition.
func (e *Extractor) ReadTermIndex() (*TermIndex, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	dec := newDecoder(f)
	idx := newTermIndex()
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse export: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			// Term definitions are namespaced direct children of
			// the channel; item-level references are one level
			// deeper and carry no namespace.
			if depth == 2 && t.Name.Space != "" {
				if t.Name.Local == "category" {
					var ct CategoryTerm
					if err := decodeSubtree(dec, &t, &ct); err != nil {
						log.Printf("wxr: skipping malformed category term: %v", err)
						continue
					}
					idx.addCategory(ct)
					continue
				}
				if t.Name.Local == "tag" {
					var tt TagTerm
					if err := decodeSubtree(dec, &t, &tt); err != nil {
						log.Printf("wxr: skipping malformed tag term: %v", err)
						continue
					}
					idx.addTag(tt)
					continue
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return idx, nil
}

// Items starts the item pass. The caller owns the returned reader and
// must Close it.
func (e *Extractor) Items() (*ItemReader, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	return &ItemReader{f: f, dec: newDecoder(f)}, nil
}

// ItemReader yields raw items one at a time.
type ItemReader struct {
	f       *os.File
	dec     *xml.Decoder
	read    int
	skipped int
}

// Read returns the next item in document order, or io.EOF when the
// export is exhausted. Items whose subtree fails to unmarshal are
// logged, counted and skipped without aborting the stream; a broken
// document surfaces as a parse error instead.
func (r *ItemReader) Read() (*Item, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse export: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "item" {
			continue
		}
		var it Item
		if err := decodeSubtree(r.dec, &se, &it); err != nil {
			r.skipped++
			log.Printf("wxr: skipping malformed item near offset %d: %v", r.dec.InputOffset(), err)
			continue
		}
		r.read++
		return &it, nil
	}
}

// Count reports how many items were successfully yielded so far.
func (r *ItemReader) Count() int {
	return r.read
}

// Skipped reports how many malformed items were dropped so far.
func (r *ItemReader) Skipped() int {
	return r.skipped
}

func (r *ItemReader) Close() error {
	return r.f.Close()
}

func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// readChannelInfo walks the document prolog up to the first item,
// verifying the rss/channel envelope and collecting channel metadata.
func readChannelInfo(r io.Reader) (Info, error) {
	dec := newDecoder(r)
	var info Info
	depth := 0
	sawChannel := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, fmt.Errorf("failed to parse export: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch depth {
			case 0:
				if t.Name.Local != "rss" {
					return info, fmt.Errorf("root element is %q: %w", t.Name.Local, ErrNotWXR)
				}
				depth++
			case 1:
				if t.Name.Local != "channel" {
					if err := dec.Skip(); err != nil {
						return info, fmt.Errorf("failed to parse export: %w", err)
					}
					continue
				}
				sawChannel = true
				depth++
			default:
				if t.Name.Local == "item" {
					// Channel metadata precedes the first item in
					// every export; no marker by now means none.
					if info.WXRVersion == "" {
						return info, ErrNotWXR
					}
					return info, nil
				}
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return info, fmt.Errorf("failed to parse export: %w", err)
				}
				switch {
				case t.Name.Space == "" && t.Name.Local == "title":
					info.Title = s
				case t.Name.Space == "" && t.Name.Local == "link":
					info.Link = s
				case t.Name.Local == "wxr_version":
					info.WXRVersion = strings.TrimSpace(s)
				case t.Name.Local == "base_site_url":
					info.SiteURL = strings.TrimSpace(s)
				case t.Name.Local == "base_blog_url":
					info.BlogURL = strings.TrimSpace(s)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	if !sawChannel || info.WXRVersion == "" {
		return info, ErrNotWXR
	}
	return info, nil
}

// decodeSubtree captures one element subtree and unmarshals it with the
// conventional WXR prefixes rebound to their 1.2 namespace URIs, so
// exports declaring older dialect versions decode identically.
func decodeSubtree(dec *xml.Decoder, se *xml.StartElement, out any) error {
	var shell struct {
		Inner []byte `xml:",innerxml"`
	}
	if err := dec.DecodeElement(&shell, se); err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `<%s xmlns:wp=%q xmlns:content=%q xmlns:excerpt=%q xmlns:dc=%q>`,
		se.Name.Local, wpNamespace, contentNamespace, excerptNamespace, dcNamespace)
	b.Write(shell.Inner)
	fmt.Fprintf(&b, "</%s>", se.Name.Local)
	return xml.Unmarshal(b.Bytes(), out)
}
