package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

// docconvReader handles the binary document formats (pdf, docx, pptx)
// by delegating to docconv with the matching MIME type.
type docconvReader struct {
	mimeType string
}

func (r *docconvReader) Read(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), r.mimeType, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert document: %w", err)
	}
	return strings.TrimSpace(res.Body), nil
}

// xlsxReader flattens every cell of every sheet into one space-joined string.
type xlsxReader struct{}

func (r *xlsxReader) Read(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	var cells []string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				if cell != "" {
					cells = append(cells, cell)
				}
			}
		}
	}
	return strings.Join(cells, " "), nil
}

type csvReader struct{}

func (r *csvReader) Read(data []byte) (string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	var fields []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse csv: %w", err)
		}
		for _, field := range record {
			if field != "" {
				fields = append(fields, field)
			}
		}
	}
	return strings.Join(fields, " "), nil
}

type txtReader struct{}

func (r *txtReader) Read(data []byte) (string, error) {
	return string(data), nil
}

// htmlReader extracts visible text only: script, style, and head subtrees
// are skipped, each text node is trimmed, and the pieces are joined with
// single spaces.
type htmlReader struct{}

func (r *htmlReader) Read(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	return VisibleText(root), nil
}

// VisibleText walks an html tree and collects the trimmed text nodes that
// a browser would render, space-joined.
func VisibleText(root *html.Node) string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(parts, " ")
}

// xmlReader collects all non-blank character data in document order.
type xmlReader struct{}

func (r *xmlReader) Read(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var parts []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse xml: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if text := strings.Join(strings.Fields(string(cd)), " "); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

// jsonReader validates the payload and re-encodes it in normalized form.
type jsonReader struct{}

func (r *jsonReader) Read(data []byte) (string, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("failed to parse json: %w", err)
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return string(out), nil
}
