package table

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeWorkbook builds a minimal two-sheet workbook. The relationship for the
// second sheet uses an absolute target.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	files := map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Summary" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships>` +
			`<Relationship Id="rId1" Target="worksheets/sheet1.xml"/>` +
			`<Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/></Relationships>`,
		"xl/sharedStrings.xml": `<sst><si><t>name</t></si><si><t>score</t></si><si><r><t>Al</t></r><r><t>ice</t></r></si><si><t>Bob</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>only</t></is></c></row></sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><t>ok</t></is></c></row>` +
			`<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>9.5</v></c><c r="C2" t="b"><v>1</v></c></row>` +
			`<row r="3"><c r="A3" t="s"><v>3</v></c><c r="C3" t="b"><v>0</v></c></row>` +
			`</sheetData></worksheet>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadXLSXSheetSelection(t *testing.T) {
	p := writeWorkbook(t)

	opt := DefaultOptions()
	opt.SheetName = "data"
	tb, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load by name: %v", err)
	}
	if got := strings.Join(tb.Names(), ","); got != "name,score,ok" {
		t.Fatalf("header = %s", got)
	}
	if tb.Rows() != 2 {
		t.Fatalf("rows = %d", tb.Rows())
	}
	name, _ := tb.Column("name")
	if name.Cells[0].Text != "Alice" || name.Cells[1].Text != "Bob" {
		t.Fatalf("shared strings not resolved: %#v", name.Cells)
	}
	score, _ := tb.Column("score")
	if score.Kind() != Numeric || score.Cells[0].Num != 9.5 || !score.Cells[1].IsMissing() {
		t.Fatalf("score = %#v", score.Cells)
	}
	ok, _ := tb.Column("ok")
	if ok.Cells[0].Text != "True" || ok.Cells[1].Text != "False" {
		t.Fatalf("booleans = %#v", ok.Cells)
	}

	opt = DefaultOptions()
	tb, err = Load(p, opt)
	if err != nil {
		t.Fatalf("Load default sheet: %v", err)
	}
	if got := strings.Join(tb.Names(), ","); got != "only" {
		t.Fatalf("default sheet header = %s", got)
	}
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	p := writeWorkbook(t)
	opt := DefaultOptions()
	opt.SheetName = "Nope"
	_, err := Load(p, opt)
	if err == nil || !strings.Contains(err.Error(), "Summary, Data") {
		t.Fatalf("expected error listing sheets, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.want {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	tests := map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "ab7": 27}
	for ref, want := range tests {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}
