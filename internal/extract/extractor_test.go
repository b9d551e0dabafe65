package extract_test

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/soochol/aihub/internal/extract"
)

func TestExtractPlainText(t *testing.T) {
	text, err := extract.Extract("text/plain", strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("want %q got %q", "hello world", text)
	}
}

func TestExtractCSV(t *testing.T) {
	text, err := extract.Extract("text/csv", strings.NewReader("a,b,c"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "a,b,c" {
		t.Errorf("want %q got %q", "a,b,c", text)
	}
}

func TestExtractUnknownType(t *testing.T) {
	text, err := extract.Extract("application/octet-stream", strings.NewReader("binary"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("unknown content type should return empty string, got %q", text)
	}
}

func TestExtractImageSkipped(t *testing.T) {
	text, err := extract.Extract("image/jpeg", strings.NewReader("\xff\xd8\xff"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("images should pass through untouched, got %q", text)
	}
}

func TestIsImage(t *testing.T) {
	if !extract.IsImage("image/png") {
		t.Error("image/png should be an image")
	}
	if !extract.IsImage("IMAGE/JPEG; charset=binary") {
		t.Error("mime parameters should not hide an image type")
	}
	if extract.IsImage("application/pdf") {
		t.Error("application/pdf should not be an image")
	}
}

func TestFromBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("line one\nline two"))
	text, err := extract.FromBase64("text/plain", encoded)
	if err != nil {
		t.Fatal(err)
	}
	if text != "line one\nline two" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestFromBase64Invalid(t *testing.T) {
	if _, err := extract.FromBase64("text/plain", "!!not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestExtractPDF(t *testing.T) {
	f, err := os.Open("testdata/sample.pdf")
	if err != nil {
		t.Skip("testdata/sample.pdf not present:", err)
	}
	defer f.Close()

	text, err := extract.Extract("application/pdf", f)
	if err != nil {
		t.Fatal(err)
	}
	if text == "" {
		t.Skip("no text extracted from minimal PDF (acceptable)")
	}
}

func TestExtractDOCX(t *testing.T) {
	f, err := os.Open("testdata/sample.docx")
	if err != nil {
		t.Skip("testdata/sample.docx not present:", err)
	}
	defer f.Close()

	text, err := extract.Extract("application/vnd.openxmlformats-officedocument.wordprocessingml.document", f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Hello") {
		t.Errorf("expected 'Hello' in DOCX text, got: %q", text)
	}
}

func TestExtractXLSX(t *testing.T) {
	f, err := os.Open("testdata/sample.xlsx")
	if err != nil {
		t.Skip("testdata/sample.xlsx not present:", err)
	}
	defer f.Close()

	text, err := extract.Extract("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Hello") {
		t.Errorf("expected 'Hello' in XLSX text, got: %q", text)
	}
}

func TestExtractDOCXParagraphs(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Claim for taxi fare</w:t></w:r></w:p>
    <w:p><w:r><w:t>Total HK$86.50</w:t></w:r></w:p>
  </w:body>
</w:document>`))
	if err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	text, err := extract.Extract("application/vnd.openxmlformats-officedocument.wordprocessingml.document", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Claim for taxi fare") || !strings.Contains(text, "Total HK$86.50") {
		t.Errorf("docx text = %q", text)
	}
	if !strings.Contains(text, "fare\n") {
		t.Errorf("paragraphs not separated by newlines: %q", text)
	}
}

func TestExtractDOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := extract.Extract("application/vnd.openxmlformats-officedocument.wordprocessingml.document", &buf); err == nil {
		t.Fatal("expected an error for a docx with no document body")
	}
}

func TestExtractXLSXRows(t *testing.T) {
	wb := excelize.NewFile()
	if err := wb.SetSheetRow("Sheet1", "A1", &[]any{"item", "amount"}); err != nil {
		t.Fatal(err)
	}
	if err := wb.SetSheetRow("Sheet1", "A2", &[]any{"taxi", 86.5}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatal(err)
	}

	text, err := extract.Extract("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "item\tamount") {
		t.Errorf("header row missing: %q", text)
	}
	if !strings.Contains(text, "taxi\t86.5") {
		t.Errorf("data row missing: %q", text)
	}
}
