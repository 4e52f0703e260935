package adif

import "strings"

// Document is a fully parsed ADIF file: header fields plus the records that
// survived validation.
type Document struct {
	Header  map[string]string
	Records []Record
}

// Parse tokenizes text and returns every structurally valid record with its
// fingerprint and core/extension split. Chunks missing any of qso_date,
// time_on or call are dropped, never reported as errors.
func Parse(text string) []Record {
	return ParseDocument(text, ScanOptions{}).Records
}

// ParseBytes decodes raw file bytes permissively (invalid UTF-8 sequences are
// substituted, not rejected) and parses the result.
func ParseBytes(data []byte, opts ScanOptions) Document {
	return ParseDocument(Decode(data), opts)
}

// ParseDocument parses the header and every record chunk of the document.
func ParseDocument(text string, opts ScanOptions) Document {
	headerText, body := SplitBody(text)
	doc := Document{Header: parseHeader(headerText)}
	for _, chunk := range SplitRecords(body, opts) {
		rec, ok := buildRecord(ScanTokens(chunk))
		if !ok || !rec.Valid() {
			continue
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc
}

// ParseChunk parses a single record chunk. ok is false when the chunk holds
// no fields or lacks the required ones.
func ParseChunk(chunk string) (Record, bool) {
	rec, ok := buildRecord(ScanTokens(chunk))
	if !ok || !rec.Valid() {
		return Record{}, false
	}
	return rec, true
}

// Decode converts raw bytes to text, replacing invalid UTF-8 sequences
// instead of failing. Uploaded logs routinely carry stray bytes from old
// logging programs.
func Decode(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

func parseHeader(headerText string) map[string]string {
	if strings.TrimSpace(headerText) == "" {
		return nil
	}
	tokens := ScanTokens(headerText)
	if len(tokens) == 0 {
		return nil
	}
	header := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		header[tok.Name] = tok.Value
	}
	return header
}
