package adif

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ExportHeader carries the metadata rendered into the ADIF header section.
type ExportHeader struct {
	Comment        string
	ProgramID      string
	ProgramVersion string
	ADIFVersion    string
	CreatedAt      time.Time
}

// coreFieldOrder fixes the render order for core fields. Extension fields
// follow in map order; that order is not guaranteed to round-trip.
var coreFieldOrder = []string{
	"station_callsign",
	"call",
	"qso_date",
	"time_on",
	"qso_date_off",
	"time_off",
	"band",
	"freq",
	"mode",
	"rst_sent",
	"rst_rcvd",
	"my_gridsquare",
	"gridsquare",
	"name",
	"qth",
	"comment",
}

// Render serializes records back into tag/length/value form. Each field is
// emitted as <NAME:length>value with length counted in characters, each
// record terminated by <EOR> and a newline. parse(Render(r)) reproduces the
// same core values and extension key/value set.
func Render(records []Record, header ExportHeader) string {
	var b strings.Builder
	renderHeader(&b, header)
	for _, rec := range records {
		renderRecord(&b, rec)
	}
	return b.String()
}

func renderHeader(b *strings.Builder, header ExportHeader) {
	comment := header.Comment
	if comment == "" {
		comment = "ADIF export"
	}
	adifVersion := header.ADIFVersion
	if adifVersion == "" {
		adifVersion = "3.1.6"
	}
	createdAt := header.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	b.WriteString(comment)
	b.WriteString("\n")
	writeField(b, "ADIF_VER", adifVersion)
	b.WriteString("\n")
	if header.ProgramID != "" {
		writeField(b, "PROGRAMID", header.ProgramID)
		b.WriteString("\n")
	}
	if header.ProgramVersion != "" {
		writeField(b, "PROGRAMVERSION", header.ProgramVersion)
		b.WriteString("\n")
	}
	writeField(b, "CREATED_TIMESTAMP", createdAt.Format("20060102 150405"))
	b.WriteString("\n<EOH>\n\n")
}

func renderRecord(b *strings.Builder, rec Record) {
	first := true
	emit := func(name, value string) {
		if value == "" {
			return
		}
		if !first {
			b.WriteString(" ")
		}
		writeField(b, strings.ToUpper(name), value)
		first = false
	}
	for _, name := range coreFieldOrder {
		emit(name, rec.Fields[name])
	}
	for name, value := range rec.ExtensionFields {
		emit(name, value)
	}
	b.WriteString(" <EOR>\n")
}

func writeField(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "<%s:%d>%s", name, utf8.RuneCountInString(value), value)
}
