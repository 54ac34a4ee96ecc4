package mxfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

const pageXML = `<mxGraphModel><root><mxCell id="0"/><mxCell id="1" value="Hello"/></root></mxGraphModel>`

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

func TestIsFramed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"inline xml", "<mxGraphModel/>", false},
		{"leading whitespace", "  \n\t<mxGraphModel/>", false},
		{"base64 payload", "eJxLTEoGAAJNASc=", true},
		{"empty", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFramed(tc.raw); got != tc.want {
				t.Errorf("IsFramed(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	fragments := []string{
		pageXML,
		`<mxGraphModel/>`,
		`<mxGraphModel><root><mxCell id="1" value="Überschrift &amp; mehr"/></root></mxGraphModel>`,
		`<mxGraphModel><root><mxCell id="1" value="日本語のラベル"/></root></mxGraphModel>`,
	}
	for _, xml := range fragments {
		framed := EncodePage(xml)
		if !IsFramed(framed) {
			t.Errorf("EncodePage output not detected as framed: %q", framed)
		}
		if got := DecodePage(framed); got != xml {
			t.Errorf("round trip mismatch:\n in: %s\nout: %s", xml, got)
		}
	}
}

func TestDecodePage_FramedWithEmbeddedWhitespace(t *testing.T) {
	framed := EncodePage(pageXML)
	// Split the payload across lines, as some exporters do.
	wrapped := framed[:10] + "\n  " + framed[10:]
	if got := DecodePage(wrapped); got != pageXML {
		t.Errorf("whitespace-wrapped payload not decoded, got %q", got)
	}
}

func TestDecodePage_MalformedReturnsInput(t *testing.T) {
	inputs := []string{
		"not base64 at all!!!",
		"aGVsbG8gd29ybGQ=", // valid base64, not deflate
		"",
	}
	for _, in := range inputs {
		if got := DecodePage(in); got != in {
			t.Errorf("DecodePage(%q) = %q, want input unchanged", in, got)
		}
	}
}

// ---------------------------------------------------------------------------
// Document / Page
// ---------------------------------------------------------------------------

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParse_PageEncodings(t *testing.T) {
	framed := EncodePage(pageXML)
	data := `<mxfile host="app.diagrams.net">` +
		`<diagram id="a" name="First">` + framed + `</diagram>` +
		`<diagram id="b" name="Second">` + pageXML + `</diagram>` +
		`<diagram id="c" name="Third"><mxGraphModel><root><mxCell id="0"/></root></mxGraphModel></diagram>` +
		`</mxfile>`

	doc := mustParse(t, data)
	pages := doc.Pages()
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}

	wantEnc := []Encoding{EncodingFramed, EncodingPlain, EncodingInline}
	wantName := []string{"First", "Second", "Third"}
	for i, p := range pages {
		if p.Encoding() != wantEnc[i] {
			t.Errorf("page %d encoding = %v, want %v", i, p.Encoding(), wantEnc[i])
		}
		if p.Name() != wantName[i] {
			t.Errorf("page %d name = %q, want %q", i, p.Name(), wantName[i])
		}
	}
}

func TestParse_MalformedTopLevel(t *testing.T) {
	if _, err := Parse([]byte("<mxfile><diagram>")); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, err := Parse([]byte("")); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestPage_RootAndCommit_PreservesFraming(t *testing.T) {
	framed := EncodePage(pageXML)
	doc := mustParse(t, `<mxfile><diagram name="P1">`+framed+`</diagram></mxfile>`)
	page := doc.Pages()[0]

	root, err := page.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Tag != "mxGraphModel" {
		t.Errorf("root tag = %q, want mxGraphModel", root.Tag)
	}

	// Mutate the fragment, then commit with framing preserved.
	cell := root.FindElement("//mxCell[@id='1']")
	if cell == nil {
		t.Fatal("cell not found in decoded fragment")
	}
	cell.CreateAttr("value", "Changed")

	if err := page.Commit(false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	text := page.el.Text()
	if !IsFramed(text) {
		t.Error("committed page lost its framing")
	}
	if !strings.Contains(DecodePage(text), `value="Changed"`) {
		t.Error("committed page does not contain the mutation")
	}
}

func TestPage_CommitUncompressed(t *testing.T) {
	framed := EncodePage(pageXML)
	doc := mustParse(t, `<mxfile><diagram>`+framed+`</diagram></mxfile>`)
	page := doc.Pages()[0]

	if _, err := page.Root(); err != nil {
		t.Fatalf("Root: %v", err)
	}
	if err := page.Commit(true); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	text := page.el.Text()
	if IsFramed(text) {
		t.Errorf("uncompressed commit still framed: %q", text)
	}
	if !strings.Contains(text, "<mxGraphModel>") {
		t.Errorf("uncompressed commit missing page XML: %q", text)
	}
}

func TestPage_RootErrors(t *testing.T) {
	doc := mustParse(t, `<mxfile><diagram></diagram><diagram>!!garbage!!</diagram></mxfile>`)

	if _, err := doc.Pages()[0].Root(); err == nil {
		t.Error("expected error for empty page")
	}
	// Garbage that survives the codec untouched must fail XML parsing,
	// and the page text must stay untouched.
	p := doc.Pages()[1]
	if _, err := p.Root(); err == nil {
		t.Error("expected error for undecodable page")
	}
	if p.el.Text() != "!!garbage!!" {
		t.Errorf("failed page was modified: %q", p.el.Text())
	}
}

func TestDocument_WriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.drawio")

	doc := mustParse(t, `<mxfile><diagram>`+EncodePage(pageXML)+`</diagram></mxfile>`)
	if err := doc.WriteFile(out); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if _, err := Parse(data); err != nil {
		t.Errorf("output does not re-parse: %v", err)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the output file in %s, found %d entries", dir, len(entries))
	}
}

func TestSnapshot_Order(t *testing.T) {
	frag := etree.NewDocument()
	if err := frag.ReadFromString(pageXML); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot(frag.Root())
	var tags []string
	for _, el := range snap {
		tags = append(tags, el.Tag)
	}
	want := []string{"mxGraphModel", "root", "mxCell", "mxCell"}
	if strings.Join(tags, " ") != strings.Join(want, " ") {
		t.Errorf("snapshot order = %v, want %v", tags, want)
	}
}
