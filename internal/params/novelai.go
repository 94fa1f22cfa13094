package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotNovelAI reports a Comment that is JSON but carries no generation data.
var ErrNotNovelAI = errors.New("not a novelai comment")

// ParseNovelAI reads NovelAI's Description text and Comment JSON. The
// Comment's own "prompt" wins over Description when both are present.
func ParseNovelAI(description, comment string) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(comment)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Result{}, fmt.Errorf("novelai comment: %w", err)
	}

	res := Result{Source: SourceNovelAI, Settings: map[string]any{}}
	res.Prompt, _ = m["prompt"].(string)
	if res.Prompt == "" {
		res.Prompt = description
	}
	res.NegativePrompt, _ = m["uc"].(string)

	if v, ok := asInt(m["steps"]); ok {
		res.Settings["Steps"] = v
	}
	if v, ok := asFloat(m["scale"]); ok {
		res.Settings["CFG scale"] = v
	}
	if v, ok := asInt(m["seed"]); ok {
		res.Settings["Seed"] = v
	}
	if s, ok := m["sampler"].(string); ok && s != "" {
		res.Settings["Sampler"] = s
	}
	if v, ok := asFloat(m["strength"]); ok {
		res.Settings["Denoising strength"] = v
	}
	w, wok := asInt(m["width"])
	h, hok := asInt(m["height"])
	if wok && hok {
		res.Settings["Size"] = fmt.Sprintf("%dx%d", w, h)
	}

	res = finish(res)
	if res.Empty() {
		return Result{}, ErrNotNovelAI
	}
	return res, nil
}
