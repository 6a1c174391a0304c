package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/zulandar/signalbox/internal/store"
)

// Content kinds produced by Read. They extend the extension-based file types
// with the fallbacks used for unparseable JSON and plain text.
const (
	KindCSV          = "csv"
	KindJSON         = "json"
	KindTextWithJSON = "text_with_json"
	KindText         = "text"
)

// Content is the parsed form of an issues file. Which fields are set depends
// on Kind.
type Content struct {
	Filename string `json:"filename"`
	Kind     string `json:"file_type"`

	// CSV
	RowCount int                 `json:"row_count,omitempty"`
	Columns  []string            `json:"columns,omitempty"`
	Rows     []map[string]string `json:"data,omitempty"`

	// JSON, SARIF and text with embedded JSON
	Document interface{} `json:"content,omitempty"`
	Raw      string      `json:"raw_content,omitempty"`

	// Text
	Text      string `json:"text,omitempty"`
	LineCount int    `json:"line_count,omitempty"`
}

// Read parses name according to its file type.
func (d *Dir) Read(name string) (*Content, error) {
	p, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ingest: file %w: %s", store.ErrNotFound, name)
		}
		return nil, fmt.Errorf("ingest: read %s: %w", name, err)
	}

	clean := filepath.Base(p)
	switch FileType(clean) {
	case TypeCSV:
		c, err := parseCSV(clean, data)
		if err != nil {
			return nil, fmt.Errorf("ingest: %w: error reading file %s: %v", store.ErrInvalid, clean, err)
		}
		return c, nil
	case TypeJSON, TypeSARIF:
		return parseJSON(clean, data), nil
	default:
		return parseText(clean, data), nil
	}
}

func parseCSV(name string, data []byte) (*Content, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &Content{Filename: name, Kind: KindCSV, Columns: []string{}, Rows: []map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []map[string]string{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	c := &Content{Filename: name, Kind: KindCSV, RowCount: len(rows), Columns: []string{}, Rows: rows}
	if len(rows) > 0 {
		c.Columns = header
	}
	return c, nil
}

func parseJSON(name string, data []byte) *Content {
	raw := string(data)
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err == nil {
		return &Content{Filename: name, Kind: KindJSON, Document: doc, Raw: raw}
	}
	return &Content{Filename: name, Kind: KindTextWithJSON, Document: extractJSON(raw), Raw: raw}
}

func parseText(name string, data []byte) *Content {
	text := string(data)
	return &Content{Filename: name, Kind: KindText, Text: text, LineCount: len(splitLines(text))}
}

// extractJSON decodes the JSON document starting at the first line that
// opens an object, as found after the headers of a captured HTTP response.
func extractJSON(text string) interface{} {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "{") {
			continue
		}
		var doc interface{}
		if err := json.Unmarshal([]byte(strings.Join(lines[i:], "\n")), &doc); err != nil {
			return nil
		}
		return doc
	}
	return nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ReadText returns name's raw content as text. Invalid UTF-8 is replaced and
// reported by the second result.
func (d *Dir) ReadText(name string) (string, bool, error) {
	p, err := d.Path(name)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("ingest: file %w: %s", store.ErrNotFound, name)
		}
		return "", false, fmt.Errorf("ingest: read %s: %w", name, err)
	}
	if utf8.Valid(data) {
		return string(data), false, nil
	}
	return strings.ToValidUTF8(string(data), "�"), true, nil
}
