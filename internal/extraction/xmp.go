package extraction

import (
	"html"
	"strings"

	"ai-image-decoder/internal/model"
)

// xmpDescriptionKey is the field key used for the XMP dc:description value.
const xmpDescriptionKey = "dc:description"

func readXMP(packet []byte, fs *fieldSet) {
	if len(packet) > maxTextPayload {
		packet = packet[:maxTextPayload]
	}
	if desc, ok := xmpDescription(string(packet)); ok {
		fs.add(xmpDescriptionKey, desc, model.SourceXMP)
	}
}

// xmpDescription finds dc:description by string search. It understands the
// element form (optionally wrapping an rdf:Alt/rdf:li) and the attribute form.
// Anything more exotic is missed.
func xmpDescription(packet string) (string, bool) {
	if i := strings.Index(packet, "<dc:description"); i >= 0 {
		rest := packet[i:]
		gt := strings.IndexByte(rest, '>')
		if gt > 0 && rest[gt-1] != '/' {
			if end := strings.Index(rest, "</dc:description>"); end > gt {
				inner := rest[gt+1 : end]
				if li := strings.Index(inner, "<rdf:li"); li >= 0 {
					s := inner[li:]
					open := strings.IndexByte(s, '>')
					closing := strings.Index(s, "</rdf:li>")
					if open < 0 || closing < open {
						return "", false
					}
					inner = s[open+1 : closing]
				}
				text := strings.TrimSpace(html.UnescapeString(inner))
				return text, text != ""
			}
		}
	}

	for _, q := range []string{`"`, `'`} {
		attr := "dc:description=" + q
		i := strings.Index(packet, attr)
		if i < 0 {
			continue
		}
		rest := packet[i+len(attr):]
		end := strings.Index(rest, q)
		if end < 0 {
			return "", false
		}
		text := strings.TrimSpace(html.UnescapeString(rest[:end]))
		return text, text != ""
	}
	return "", false
}
