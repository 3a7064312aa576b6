package snapshot

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"orgunit-sync/feature/orgunit/models"
)

// document is the XML shape of a snapshot:
//
//	<departments>
//	  <department>
//	    <depCode>..</depCode>
//	    <depJob>..</depJob>
//	    <description>..</description>
//	  </department>
//	</departments>
type document struct {
	XMLName     xml.Name     `xml:"departments"`
	Departments []department `xml:"department"`
}

type department struct {
	DepCode     string `xml:"depCode"`
	DepJob      string `xml:"depJob"`
	Description string `xml:"description"`
}

// Encode writes c as an indented XML document, records ordered by key.
// A value that is not valid UTF-8 or holds a character XML cannot carry
// fails the whole encode, naming the record.
func Encode(w io.Writer, c models.Collection) error {
	units := c.Sorted()
	doc := document{Departments: make([]department, 0, len(units))}
	for _, u := range units {
		for _, f := range [...]struct{ name, value string }{
			{fieldCode, u.Key.Code},
			{fieldJob, u.Key.Job},
			{fieldDescription, u.Description},
		} {
			if err := checkText(f.value); err != nil {
				return fmt.Errorf("record (%q, %q): %s: %w", u.Key.Code, u.Key.Job, f.name, err)
			}
		}
		doc.Departments = append(doc.Departments, department{
			DepCode:     u.Key.Code,
			DepJob:      u.Key.Job,
			Description: u.Description,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Marshal returns the encoded document for c.
func Marshal(c models.Collection) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Field element names of a department.
const (
	fieldCode        = "depCode"
	fieldJob         = "depJob"
	fieldDescription = "description"
)

// Decode parses a snapshot. source names the input in errors.
// Every <department> must hold exactly one depCode, depJob and description,
// each containing text only. Structural problems return *models.FormatError;
// the first repeated key returns *models.DuplicateKeyError.
func Decode(r io.Reader, source string) (models.Collection, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	c, err := decodeDocument(dec, source)
	if err != nil {
		var dup *models.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, &models.FormatError{Source: source, Err: err}
	}
	return c, nil
}

func decodeDocument(dec *xml.Decoder, source string) (models.Collection, error) {
	root, err := nextElement(dec)
	if errors.Is(err, io.EOF) {
		return nil, errors.New("document is empty")
	}
	if err != nil {
		return nil, err
	}
	start, ok := root.(xml.StartElement)
	if !ok || start.Name.Local != "departments" {
		return nil, fmt.Errorf("expected root <departments>, got %s", describe(root))
	}

	c := make(models.Collection)
	for n := 1; ; n++ {
		tok, err := nextElement(dec)
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		el := tok.(xml.StartElement)
		if el.Name.Local != "department" {
			return nil, fmt.Errorf("unexpected element <%s> in <departments>", el.Name.Local)
		}
		if len(el.Attr) > 0 {
			return nil, fmt.Errorf("department #%d: attributes are not allowed", n)
		}

		unit, err := decodeDepartment(dec)
		if err != nil {
			return nil, fmt.Errorf("department #%d: %w", n, err)
		}
		if err := c.Add(source, unit); err != nil {
			return nil, err
		}
	}

	if err := expectEnd(dec); err != nil {
		return nil, err
	}
	return c, nil
}

// decodeDepartment reads the children of a <department> up to its end tag.
func decodeDepartment(dec *xml.Decoder) (models.OrgUnit, error) {
	fields := make(map[string]string, 3)
	for {
		tok, err := nextElement(dec)
		if err != nil {
			return models.OrgUnit{}, unexpectedEOF(err)
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}

		el := tok.(xml.StartElement)
		name := el.Name.Local
		switch name {
		case fieldCode, fieldJob, fieldDescription:
		default:
			return models.OrgUnit{}, fmt.Errorf("unexpected element <%s>", name)
		}
		if _, seen := fields[name]; seen {
			return models.OrgUnit{}, fmt.Errorf("repeated <%s>", name)
		}
		if len(el.Attr) > 0 {
			return models.OrgUnit{}, fmt.Errorf("<%s>: attributes are not allowed", name)
		}

		text, err := readText(dec, name)
		if err != nil {
			return models.OrgUnit{}, err
		}
		fields[name] = text
	}

	var missing []string
	for _, name := range []string{fieldCode, fieldJob, fieldDescription} {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.OrgUnit{}, fmt.Errorf("missing %v", missing)
	}
	return models.NewOrgUnit(fields[fieldCode], fields[fieldJob], fields[fieldDescription]), nil
}

// readText collects the character data of a scalar field up to its end tag.
func readText(dec *xml.Decoder, name string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", unexpectedEOF(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			return "", fmt.Errorf("<%s> must hold text only, found <%s>", name, t.Name.Local)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

// nextElement returns the next start or end tag, skipping whitespace,
// comments and processing instructions. Other text is an error.
func nextElement(dec *xml.Decoder) (xml.Token, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("unexpected text %q", truncate(string(t)))
			}
		}
	}
}

// expectEnd rejects a second root or stray text after the document element.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after document root", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected text after document root")
			}
		}
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func describe(tok xml.Token) string {
	if el, ok := tok.(xml.StartElement); ok {
		return "<" + el.Name.Local + ">"
	}
	return "closing tag"
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 20 {
		return s[:20] + "..."
	}
	return s
}

// checkText reports text that XML 1.0 cannot carry. encoding/xml would
// silently replace it with U+FFFD.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return errors.New("invalid UTF-8")
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("character %U at byte %d is not allowed in XML", r, i)
		}
	}
	return nil
}

// isXMLChar implements the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Load reads and decodes the snapshot at src. A missing or unreadable
// source is a format error, never an empty collection.
func Load(ctx context.Context, src Source) (models.Collection, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &models.FormatError{Source: src.String(), Err: err}
	}
	defer rc.Close()

	return Decode(rc, src.String())
}

// Save encodes c to dst, replacing any previous content.
func Save(ctx context.Context, dst Destination, c models.Collection) error {
	w, err := dst.Create(ctx)
	if err != nil {
		return fmt.Errorf("failed to open snapshot %s for writing: %w", dst, err)
	}
	if err := Encode(w, c); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write snapshot %s: %w", dst, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", dst, err)
	}
	return nil
}
