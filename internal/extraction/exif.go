package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ai-image-decoder/internal/model"
)

var exifTags = []exif.FieldName{
	exif.ImageDescription,
	exif.UserComment,
	exif.Make,
	exif.Model,
}

// readExif decodes an EXIF block (with or without the "Exif\0\0" header) and
// adds the tags in exifTags.
func readExif(payload []byte, fs *fieldSet) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: exif decoder panic: %v", ErrMalformedContainer, p)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if err != nil && exif.IsCriticalError(err) {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	for _, name := range exifTags {
		tag, terr := x.Get(name)
		if terr != nil {
			continue
		}
		var val string
		if name == exif.UserComment {
			val = decodeUserComment(tag.Val)
		} else {
			s, serr := tag.StringVal()
			if serr != nil {
				continue
			}
			val = trimText(s)
		}
		if val != "" {
			fs.add(string(name), val, model.SourceExif)
		}
	}
	return nil
}

// decodeUserComment handles the 8-byte character code prefix of the EXIF
// UserComment tag. UNICODE payloads are UTF-16; a BOM wins, otherwise the
// byte order is guessed from where the zero bytes fall.
func decodeUserComment(val []byte) string {
	if len(val) < 8 {
		return trimText(latin1(val))
	}
	code := strings.TrimRight(string(val[:8]), "\x00 ")
	body := val[8:]

	switch code {
	case "UNICODE":
		order := unicode.BigEndian
		if len(body) >= 2 && body[0] != 0 && body[1] == 0 {
			order = unicode.LittleEndian
		}
		dec := unicode.BOMOverride(unicode.UTF16(order, unicode.IgnoreBOM).NewDecoder())
		out, _, err := transform.Bytes(dec, body)
		if err != nil {
			return ""
		}
		return trimText(string(out))
	case "ASCII", "":
		return trimText(latin1(body))
	default:
		// JIS and unknown codes are kept as bytes
		return trimText(latin1(body))
	}
}

func trimText(s string) string {
	return strings.Trim(s, "\x00 \t\r\n")
}
