// Package sanitize normalizes vector markup before it is handed to the
// host for display. It is applied uniformly to our own renderer output and
// to remotely fetched documents, so untrusted markup cannot carry active
// content or paint over the host's theme.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoVectorRoot means the document has no svg element; fatal for this
// payload only.
var ErrNoVectorRoot = errors.New("no svg root element in document")

// Options control theme-dependent rewrites.
type Options struct {
	// Background is injected into embedded foreign-content blocks so they
	// do not render with their own opaque background.
	Background string
}

var (
	whiteFillRe = regexp.MustCompile(`(?i)^\s*(white|#fff|#ffffff|rgb\(\s*255\s*,\s*255\s*,\s*255\s*\))\s*$`)
	styleFillRe = regexp.MustCompile(`(?i)fill\s*:\s*(white|#fff|#ffffff|rgb\(\s*255\s*,\s*255\s*,\s*255\s*\))`)
)

// Clean parses the markup, strips active content, fixes scaling attributes
// and neutralizes opaque backgrounds, then serializes the svg element back
// to a string.
func Clean(markup string, opts Options) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse vector document: %w", err)
	}
	root := doc.Find("svg").First()
	if root.Length() == 0 {
		return "", ErrNoVectorRoot
	}

	// Walk by node name rather than selector: the HTML parser keeps SVG
	// camel-case names (foreignObject) that case-sensitive selectors miss.
	root.Find("*").AddSelection(root).Each(func(_ int, sel *goquery.Selection) {
		switch strings.ToLower(goquery.NodeName(sel)) {
		case "style", "filter", "script":
			sel.Remove()
			return
		case "foreignobject":
			if opts.Background != "" {
				injectBackground(sel, opts.Background)
			}
		}
		sel.RemoveAttr("filter")
		rewriteWhiteFill(sel)
	})

	ensureViewBox(root)
	root.RemoveAttr("width")
	root.RemoveAttr("height")
	if _, ok := root.Attr("preserveAspectRatio"); !ok {
		root.SetAttr("preserveAspectRatio", "xMidYMid meet")
	}

	out, err := goquery.OuterHtml(root)
	if err != nil {
		return "", fmt.Errorf("serialize vector document: %w", err)
	}
	return out, nil
}

// ensureViewBox synthesizes a viewBox from numeric width/height attributes
// when none is declared, so the element can scale after the fixed size is
// removed.
func ensureViewBox(root *goquery.Selection) {
	if _, ok := root.Attr("viewBox"); ok {
		return
	}
	w, okW := numericAttr(root, "width")
	h, okH := numericAttr(root, "height")
	if okW && okH && w > 0 && h > 0 {
		root.SetAttr("viewBox", fmt.Sprintf("0 0 %s %s", formatNum(w), formatNum(h)))
	}
}

func numericAttr(sel *goquery.Selection, name string) (float64, bool) {
	raw, ok := sel.Attr(name)
	if !ok {
		return 0, false
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rewriteWhiteFill turns an effectively white fill into none so the host
// background shows through, whether the fill is an attribute or inline
// style.
func rewriteWhiteFill(sel *goquery.Selection) {
	if fill, ok := sel.Attr("fill"); ok && whiteFillRe.MatchString(fill) {
		sel.SetAttr("fill", "none")
	}
	if style, ok := sel.Attr("style"); ok && styleFillRe.MatchString(style) {
		sel.SetAttr("style", styleFillRe.ReplaceAllString(style, "fill:none"))
	}
}

func injectBackground(sel *goquery.Selection, background string) {
	style := strings.TrimSpace(sel.AttrOr("style", ""))
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	sel.SetAttr("style", style+"background-color:"+background)
}
