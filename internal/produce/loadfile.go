package produce

import (
	"strconv"
	"strings"

	"github.com/litigo/ediscovery-api/internal/models"
)

// Load files are UTF-8, tab-delimited, CRLF-terminated text with a fixed
// header row and one data row per produced document, in scope-traversal
// order. DAT and OPT currently share one column set; they stay as separate
// writers so the Concordance and Opticon layouts can diverge without
// touching callers.
const loadFileHeader = "BEGBATES\tENDBATES\tIMAGEPATH\tNATIVEPATH\tPAGECOUNT"

// RenderDAT serializes the manifest into Concordance DAT text.
func RenderDAT(records []models.LoadFileRecord) []byte {
	return renderLoadFile(records)
}

// RenderOPT serializes the manifest into Opticon OPT text.
func RenderOPT(records []models.LoadFileRecord) []byte {
	return renderLoadFile(records)
}

func renderLoadFile(records []models.LoadFileRecord) []byte {
	var b strings.Builder
	b.WriteString(loadFileHeader)
	b.WriteString("\r\n")
	for _, rec := range records {
		b.WriteString(rec.BegBates)
		b.WriteByte('\t')
		b.WriteString(rec.EndBates)
		b.WriteByte('\t')
		b.WriteString(rec.ImagePath)
		b.WriteByte('\t')
		b.WriteString(rec.NativePath)
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(rec.PageCount))
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}
