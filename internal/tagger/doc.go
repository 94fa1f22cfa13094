// Package tagger derives categorized tags from a parsed prompt.
//
// A prompt is cut into segments on top-level commas, newlines and the BREAK
// keyword; commas inside (), [], {} or <> do not split. Each segment loses its
// emphasis wrappers and a trailing ":weight" before it is normalized:
//
//	((masterpiece))        -> masterpiece
//	(red hair:1.2)         -> red hair
//	[best_quality]         -> best quality
//	<lora:fox_style:0.8>   -> fox_style (category model)
//
// Normalized names are case folded, underscores become spaces and whitespace
// runs collapse, so "8K" and "8k" are one tag.
//
// Segments found in the lexicon get their lexicon category at confidence 1.0.
// Other segments of reasonable size are kept as subject tags at confidence 0.5.
// Negative prompt segments become negative tags, and the Model setting becomes
// a model tag with metadata provenance.
package tagger
