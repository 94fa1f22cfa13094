package params

import (
	"encoding/json"
	"strings"

	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/model"
)

var log = logging.New("params")

// Resolve picks a prompt out of the raw fields of one image. Sources are
// tried in this order and the first that yields something wins:
//
//	parameters        web UI text, or a ComfyUI graph when it is JSON
//	prompt            ComfyUI API graph
//	workflow          ComfyUI editor graph
//	Comment (JSON)    NovelAI, with Description
//	UserComment       EXIF, parsed as parameters text
//	ImageDescription  EXIF
//	dc:description    XMP
//	Comment / Description as plain text
func Resolve(fields []model.ExtractedField) (Result, bool) {
	get := func(key string) string {
		for _, f := range fields {
			if f.Key == key {
				return strings.TrimSpace(f.Value)
			}
		}
		return ""
	}

	if p := get("parameters"); p != "" {
		if looksLikeJSON(p) {
			if res, err := ParseComfyUI([]byte(p)); err == nil && !res.Empty() {
				return res, true
			}
		} else if res := ParseParameters(p); !res.Empty() {
			return res, true
		}
	}

	for _, key := range []string{"prompt", "workflow"} {
		v := get(key)
		if v == "" || !looksLikeJSON(v) {
			continue
		}
		res, err := ParseComfyUI([]byte(v))
		if err != nil {
			log.Debug("%s field is not a usable graph: %v", key, err)
			continue
		}
		if !res.Empty() {
			return res, true
		}
	}

	comment := get("Comment")
	if comment != "" && looksLikeJSON(comment) {
		if res, err := ParseNovelAI(get("Description"), comment); err == nil {
			return res, true
		}
	}

	texts := []struct {
		key    string
		source Source
	}{
		{"UserComment", SourceExif},
		{"ImageDescription", SourceExif},
		{"dc:description", SourceXMP},
		{"Comment", SourceComment},
		{"Description", SourceComment},
	}
	for _, t := range texts {
		v := get(t.key)
		if v == "" || looksLikeJSON(v) {
			continue
		}
		res := ParseParameters(v)
		if res.Empty() {
			continue
		}
		res.Source = t.source
		return res, true
	}
	return Result{}, false
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
