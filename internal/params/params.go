package params

import (
	"strings"

	"ai-image-decoder/internal/model"
)

// Source names the layout a Result was parsed from.
type Source string

const (
	SourceParameters Source = "parameters"
	SourceComfyUI    Source = "comfyui"
	SourceNovelAI    Source = "novelai"
	SourceExif       Source = "exif"
	SourceXMP        Source = "xmp"
	SourceComment    Source = "comment"
)

const (
	// RawSettingsKey holds a settings line that did not tokenize cleanly.
	RawSettingsKey = "settings_raw"
	// ExtraLinesKey holds lines that were neither prompt, negative prompt nor
	// settings.
	ExtraLinesKey = "extra_lines"
	// ApproximateKey is set to true in the stored settings of a prompt that
	// was guessed by a fallback heuristic.
	ApproximateKey = "prompt_approximate"

	negativePrefix = "Negative prompt:"
)

// Result is the normalized prompt structure.
type Result struct {
	Prompt         string
	NegativePrompt string
	Settings       map[string]any
	Source         Source
	// Approximate is set when the prompt was guessed rather than parsed.
	Approximate bool
}

// Empty reports whether nothing usable was found.
func (r Result) Empty() bool {
	return r.Prompt == "" && r.NegativePrompt == "" && len(r.Settings) == 0
}

// PromptType classifies the result by which halves are present.
func (r Result) PromptType() model.PromptType {
	switch {
	case r.Prompt != "" && r.NegativePrompt != "":
		return model.PromptFull
	case r.Prompt == "" && r.NegativePrompt != "":
		return model.PromptNegative
	default:
		return model.PromptPositive
	}
}

// Record converts the result to a PromptRecord, or nil when Empty.
func (r Result) Record() *model.PromptRecord {
	if r.Empty() {
		return nil
	}
	settings := r.Settings
	if r.Approximate {
		settings = make(map[string]any, len(r.Settings)+1)
		for k, v := range r.Settings {
			settings[k] = v
		}
		settings[ApproximateKey] = true
	}
	return &model.PromptRecord{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Type:           r.PromptType(),
		Settings:       settings,
	}
}

// ParseParameters parses the web UI "parameters" text. It never fails; text
// it cannot classify is kept under RawSettingsKey or ExtraLinesKey.
func ParseParameters(text string) Result {
	res := Result{Source: SourceParameters, Settings: map[string]any{}}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n \t"), "\n")
	if len(lines) == 0 || strings.TrimSpace(text) == "" {
		return res
	}

	neg := -1
	for i := range lines {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), negativePrefix); ok {
			neg = i
			res.NegativePrompt = strings.TrimSpace(rest)
			break
		}
	}
	if neg != 0 {
		res.Prompt = strings.TrimSpace(lines[0])
	}

	tail := -1
	if last := len(lines) - 1; last > 0 && last != neg {
		tail = last
		settings, clean := parseSettings(strings.TrimSpace(lines[last]))
		for k, v := range settings {
			res.Settings[k] = v
		}
		if !clean {
			res.Settings[RawSettingsKey] = strings.TrimSpace(lines[last])
		}
	}

	var extra []string
	for i := 1; i < len(lines); i++ {
		if i == neg || i == tail {
			continue
		}
		if l := strings.TrimSpace(lines[i]); l != "" {
			extra = append(extra, l)
		}
	}
	if len(extra) > 0 {
		res.Settings[ExtraLinesKey] = strings.Join(extra, "\n")
	}

	return finish(res)
}

// finish normalizes prompt text and drops an empty settings map.
func finish(r Result) Result {
	r.Prompt = Normalize(r.Prompt)
	r.NegativePrompt = Normalize(r.NegativePrompt)
	if len(r.Settings) == 0 {
		r.Settings = nil
	}
	return r
}
