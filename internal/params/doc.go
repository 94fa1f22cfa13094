// Package params turns the raw metadata fields of an image into a prompt,
// a negative prompt and a settings map.
//
// Three layouts are understood:
//
//   - the "parameters" text written by Stable Diffusion web UIs: a prompt line,
//     an optional "Negative prompt:" line and a trailing settings line of
//     comma separated "Key: value" pairs;
//   - ComfyUI node graphs, in both the API form (stored under "prompt") and the
//     editor form (stored under "workflow");
//   - NovelAI's Description text plus Comment JSON.
//
// Resolve picks the best source among the fields of one image. When a ComfyUI
// graph has no recognizable prompt node the longest string in the graph is
// used instead and the Result is marked Approximate.
//
// Settings values are string, int64 or float64. Steps, Seed and Clip skip
// become int64; CFG scale and Denoising strength become float64; a value that
// fails to convert stays a string. A settings line that cannot be tokenized
// cleanly is kept verbatim under RawSettingsKey.
package params
