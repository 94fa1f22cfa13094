package tagger

import "ai-image-decoder/internal/model"

var lexicon = buildLexicon(map[model.TagCategory][]string{
	model.CategoryQuality: {
		"masterpiece", "best quality", "high quality", "highest quality", "top quality",
		"ultra detailed", "ultra-detailed", "highly detailed", "extremely detailed",
		"intricate details", "intricate detail", "sharp focus", "professional",
		"award winning", "award-winning", "absurdres", "highres", "high res",
		"high resolution", "hd", "uhd", "2k", "4k", "8k", "8k uhd", "16k",
		"normal quality", "low quality", "worst quality", "lowres", "jpeg artifacts",
	},
	model.CategoryStyle: {
		"photorealistic", "photorealism", "realistic", "hyperrealistic", "photo",
		"photograph", "anime", "anime style", "manga", "oil painting", "watercolor",
		"watercolor painting", "digital art", "digital painting", "concept art",
		"illustration", "sketch", "drawing", "line art", "lineart", "3d render",
		"pixel art", "abstract", "impressionist", "impressionism", "surreal",
		"surrealism", "minimalist", "minimalism", "cyberpunk", "steampunk",
		"fantasy", "dark fantasy", "art nouveau", "art deco", "ukiyo-e", "comic",
		"comic book", "cel shading", "chibi", "vaporwave", "synthwave", "low poly",
		"isometric", "pop art", "studio ghibli", "cartoon",
	},
	model.CategoryTechnique: {
		"cinematic lighting", "cinematic", "depth of field", "dof", "bokeh",
		"soft lighting", "soft light", "dramatic lighting", "golden hour",
		"blue hour", "hdr", "high dynamic range", "wide angle", "wide shot",
		"macro", "close-up", "close up", "closeup", "long exposure",
		"volumetric lighting", "volumetric light", "rim lighting", "rim light",
		"backlighting", "studio lighting", "ray tracing", "global illumination",
		"subsurface scattering", "octane render", "unreal engine", "film grain",
		"motion blur", "tilt-shift", "35mm", "50mm", "85mm", "god rays",
		"from above", "from below", "dutch angle", "cowboy shot", "full body",
		"upper body", "portrait shot",
	},
})

func buildLexicon(lists map[model.TagCategory][]string) map[string]model.TagCategory {
	m := make(map[string]model.TagCategory)
	for cat, words := range lists {
		for _, w := range words {
			m[NormalizeName(w)] = cat
		}
	}
	return m
}
