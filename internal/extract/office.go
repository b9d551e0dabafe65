package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractDOCX pulls the paragraph text out of a DOCX attachment, typically
// a typed-up claim form. Only the main document body is read; headers,
// footers, and embedded media are ignored.
func extractDOCX(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx attachment: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx attachment is not a zip archive: %w", err)
	}

	body, err := zr.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("docx attachment has no document body")
	}
	defer body.Close()

	paragraphs := docxParagraphs(body)
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

// docxParagraphs walks the document XML collecting the text runs of each
// paragraph. Malformed trailing XML yields whatever was read so far; a
// truncated form still gives the stages something to parse.
func docxParagraphs(r io.Reader) []string {
	var (
		paragraphs []string
		current    strings.Builder
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var run struct {
					Text string `xml:",chardata"`
				}
				if err := dec.DecodeElement(&run, &el); err == nil {
					current.WriteString(run.Text)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}

// extractXLSX flattens an XLSX attachment, e.g. an expense line-item
// sheet, into tab-separated rows across every sheet.
func extractXLSX(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read xlsx attachment: %w", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx attachment: %w", err)
	}
	defer wb.Close()

	var lines []string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			// Skip unreadable sheets; partial content still helps.
			continue
		}
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			lines = append(lines, strings.Join(row, "\t"))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
