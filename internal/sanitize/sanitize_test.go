package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanStripsActiveContentAndWhiteFill(t *testing.T) {
	in := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10">
		<style>rect { fill: red }</style>
		<filter id="f"><feGaussianBlur/></filter>
		<rect width="10" height="10" fill="#FFFFFF"/>
		<circle r="2" filter="url(#f)" fill="blue"/>
	</svg>`
	out, err := Clean(in, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<style") || strings.Contains(out, "<filter") {
		t.Errorf("style/filter elements must be removed:\n%s", out)
	}
	if strings.Contains(out, `filter=`) {
		t.Error("filter attribute must be removed")
	}
	if !strings.Contains(out, `fill="none"`) {
		t.Error("white fill must become none")
	}
	if !strings.Contains(out, `fill="blue"`) {
		t.Error("non-white fills must be preserved")
	}
}

func TestCleanWhiteFillForms(t *testing.T) {
	for _, fill := range []string{"white", "WHITE", "#fff", "#FFFFFF", "rgb(255, 255, 255)"} {
		out, err := Clean(`<svg viewBox="0 0 1 1"><rect fill="`+fill+`"/></svg>`, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, `fill="none"`) {
			t.Errorf("fill=%q not neutralized:\n%s", fill, out)
		}
	}

	out, err := Clean(`<svg viewBox="0 0 1 1"><rect style="stroke:red;fill: #fff"/></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "fill:none") || !strings.Contains(out, "stroke:red") {
		t.Errorf("inline style fill not rewritten:\n%s", out)
	}
}

func TestCleanSynthesizesViewBox(t *testing.T) {
	out, err := Clean(`<svg width="120" height="80px"><rect/></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `viewBox="0 0 120 80"`) {
		t.Errorf("viewBox not synthesized:\n%s", out)
	}
	if strings.Contains(out, `width="120"`) || strings.Contains(out, `height="80px"`) {
		t.Errorf("fixed size must be removed:\n%s", out)
	}
	if !strings.Contains(out, `preserveAspectRatio="xMidYMid meet"`) {
		t.Errorf("preserveAspectRatio not set:\n%s", out)
	}
}

func TestCleanKeepsExistingScalingAttributes(t *testing.T) {
	out, err := Clean(`<svg viewBox="0 0 5 5" preserveAspectRatio="none"><rect/></svg>`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `viewBox="0 0 5 5"`) || !strings.Contains(out, `preserveAspectRatio="none"`) {
		t.Errorf("existing attributes clobbered:\n%s", out)
	}
}

func TestCleanInjectsForeignContentBackground(t *testing.T) {
	in := `<svg viewBox="0 0 10 10"><foreignObject style="color:red"><div>x</div></foreignObject></svg>`
	out, err := Clean(in, Options{Background: "#1e1e1e"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "background-color:#1e1e1e") || !strings.Contains(out, "color:red") {
		t.Errorf("foreign content background not injected:\n%s", out)
	}
}

func TestCleanRejectsNonVectorDocument(t *testing.T) {
	_, err := Clean(`<html><body><p>hello</p></body></html>`, Options{})
	if !errors.Is(err, ErrNoVectorRoot) {
		t.Errorf("got %v, want ErrNoVectorRoot", err)
	}
}
