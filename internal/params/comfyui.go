package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotGraph reports JSON that is not a ComfyUI node graph.
var ErrNotGraph = errors.New("not a comfyui graph")

// Node types whose widgets hold prompt text.
var promptNodeTypes = map[string]bool{
	"CLIPTextEncode":             true,
	"CLIPTextEncodeSDXL":         true,
	"CLIPTextEncodeSDXLRefiner":  true,
	"CLIPTextEncodeFlux":         true,
	"ImpactWildcardProcessor":    true,
	"ImpactWildcardEncode":       true,
	"BNK_CLIPTextEncodeAdvanced": true,
}

// Text inputs in preference order. populated_text is the wildcard result,
// wildcard_text its template.
var textInputs = []string{"populated_text", "text", "text_g", "text_l", "wildcard_text", "string", "value"}

// Links followed when a conditioning node carries no text of its own.
var conditioningInputs = []string{"conditioning", "conditioning_1", "conditioning_to", "positive", "text", "populated_text"}

const maxLinkDepth = 16

type graphNode struct {
	id     string
	class  string
	inputs map[string]any
	links  map[string]string
}

type graph struct {
	nodes map[string]*graphNode
	order []string
	raw   any
}

// ParseComfyUI reads an API-form graph ({"id": {"class_type", "inputs"}}) or
// an editor-form graph ({"nodes": [...], "links": [...]}).
func ParseComfyUI(data []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("comfyui: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Result{}, ErrNotGraph
	}

	var g *graph
	if nodes, ok := obj["nodes"].([]any); ok {
		g = editorGraph(nodes, obj["links"])
	} else {
		g = apiGraph(obj)
	}
	if len(g.nodes) == 0 {
		return Result{}, ErrNotGraph
	}
	g.raw = raw
	return finish(g.extract()), nil
}

func apiGraph(obj map[string]any) *graph {
	g := &graph{nodes: map[string]*graphNode{}}
	for id, v := range obj {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		class, _ := m["class_type"].(string)
		if class == "" {
			continue
		}
		n := &graphNode{id: id, class: class, inputs: map[string]any{}, links: map[string]string{}}
		if in, ok := m["inputs"].(map[string]any); ok {
			for name, val := range in {
				if link, ok := val.([]any); ok && len(link) == 2 {
					n.links[name] = fmt.Sprint(link[0])
					continue
				}
				n.inputs[name] = val
			}
		}
		g.add(n)
	}
	g.sort()
	return g
}

// editorGraph maps the positional widgets_values of the node types we read
// onto the input names the API form uses.
func editorGraph(nodes []any, links any) *graph {
	origin := map[string]string{}
	if ls, ok := links.([]any); ok {
		for _, l := range ls {
			switch v := l.(type) {
			case []any:
				if len(v) >= 2 {
					origin[fmt.Sprint(v[0])] = fmt.Sprint(v[1])
				}
			case map[string]any:
				origin[fmt.Sprint(v["id"])] = fmt.Sprint(v["origin_id"])
			}
		}
	}

	g := &graph{nodes: map[string]*graphNode{}}
	for _, raw := range nodes {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		class, _ := m["type"].(string)
		if class == "" {
			continue
		}
		n := &graphNode{id: fmt.Sprint(m["id"]), class: class, inputs: map[string]any{}, links: map[string]string{}}
		if ins, ok := m["inputs"].([]any); ok {
			for _, in := range ins {
				im, ok := in.(map[string]any)
				if !ok || im["link"] == nil {
					continue
				}
				name, _ := im["name"].(string)
				if from, ok := origin[fmt.Sprint(im["link"])]; ok && name != "" {
					n.links[name] = from
				}
			}
		}
		widgets, _ := m["widgets_values"].([]any)
		mapWidgets(n, widgets)
		g.add(n)
	}
	g.sort()
	return g
}

func mapWidgets(n *graphNode, w []any) {
	at := func(name string, i int) {
		if i < len(w) {
			n.inputs[name] = w[i]
		}
	}
	switch {
	case n.class == "KSampler":
		at("seed", 0)
		at("steps", 2)
		at("cfg", 3)
		at("sampler_name", 4)
	case n.class == "KSamplerAdvanced":
		at("noise_seed", 1)
		at("steps", 3)
		at("cfg", 4)
		at("sampler_name", 5)
	case strings.Contains(n.class, "Wildcard"):
		at("wildcard_text", 0)
		at("populated_text", 1)
	case n.class == "CheckpointLoaderSimple":
		at("ckpt_name", 0)
	case n.class == "LoraLoader":
		at("lora_name", 0)
	case n.class == "EmptyLatentImage":
		at("width", 0)
		at("height", 1)
	case isPromptNode(n.class):
		for _, v := range w {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				n.inputs["text"] = s
				break
			}
		}
	}
}

func (g *graph) add(n *graphNode) {
	g.nodes[n.id] = n
	g.order = append(g.order, n.id)
}

// sort orders node IDs numerically where possible so output is stable.
func (g *graph) sort() {
	sort.Slice(g.order, func(i, j int) bool {
		a, aerr := strconv.Atoi(g.order[i])
		b, berr := strconv.Atoi(g.order[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return g.order[i] < g.order[j]
	})
}

func isPromptNode(class string) bool {
	return promptNodeTypes[class] ||
		strings.Contains(class, "Wildcard") ||
		strings.Contains(class, "TextEncode") ||
		strings.Contains(class, "Prompt")
}

func (n *graphNode) text() string {
	for _, k := range textInputs {
		if s, ok := n.inputs[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// textOf returns the text feeding node id, following conditioning links.
func (g *graph) textOf(id string, depth int) string {
	n := g.nodes[id]
	if n == nil || depth > maxLinkDepth {
		return ""
	}
	if t := n.text(); t != "" {
		return t
	}
	for _, name := range conditioningInputs {
		if from, ok := n.links[name]; ok {
			if t := g.textOf(from, depth+1); t != "" {
				return t
			}
		}
	}
	return ""
}

func (g *graph) extract() Result {
	res := Result{Source: SourceComfyUI, Settings: map[string]any{}}
	set := func(k string, v any) {
		if _, ok := res.Settings[k]; !ok && v != nil {
			res.Settings[k] = v
		}
	}

	negNodes := map[string]bool{}
	var loras []string
	for _, id := range g.order {
		n := g.nodes[id]
		switch {
		case strings.Contains(n.class, "Sampler"):
			if v, ok := asInt(n.inputs["steps"]); ok {
				set("Steps", v)
			}
			if v, ok := asFloat(n.inputs["cfg"]); ok {
				set("CFG scale", v)
			}
			if s, ok := n.inputs["sampler_name"].(string); ok {
				set("Sampler", s)
			}
			for _, k := range []string{"seed", "noise_seed"} {
				if v, ok := asInt(n.inputs[k]); ok {
					set("Seed", v)
				}
			}
			if from, ok := n.links["positive"]; ok && res.Prompt == "" {
				res.Prompt = g.textOf(from, 0)
			}
			if from, ok := n.links["negative"]; ok && res.NegativePrompt == "" {
				negNodes[from] = true
				res.NegativePrompt = g.textOf(from, 0)
			}

		case strings.Contains(n.class, "Loader") || strings.Contains(n.class, "Checkpoint"):
			if s, ok := n.inputs["ckpt_name"].(string); ok && s != "" {
				set("Model", s)
			}
			if s, ok := n.inputs["lora_name"].(string); ok && s != "" {
				loras = append(loras, s)
			}
			// loaders that embed the prompts as plain strings
			if s, ok := n.inputs["positive"].(string); ok && res.Prompt == "" {
				res.Prompt = s
			}
			if s, ok := n.inputs["negative"].(string); ok && res.NegativePrompt == "" {
				res.NegativePrompt = s
			}

		case strings.Contains(n.class, "Latent"):
			w, wok := asInt(n.inputs["width"])
			h, hok := asInt(n.inputs["height"])
			if wok && hok {
				set("Size", fmt.Sprintf("%dx%d", w, h))
			}
		}
	}
	if len(loras) > 0 {
		res.Settings["Lora"] = strings.Join(loras, ", ")
	}

	if res.Prompt == "" {
		var parts []string
		seen := map[string]bool{}
		for _, id := range g.order {
			n := g.nodes[id]
			if !isPromptNode(n.class) || negNodes[id] {
				continue
			}
			if t := strings.TrimSpace(n.text()); t != "" && !seen[t] && t != res.NegativePrompt {
				seen[t] = true
				parts = append(parts, t)
			}
		}
		res.Prompt = strings.Join(parts, "\n")
	}

	if res.Prompt == "" {
		res.Prompt = findKey(g.raw, "populated_text", 0)
	}
	if res.Prompt == "" {
		res.Prompt = longestString(g.raw, 0)
		res.Approximate = res.Prompt != ""
	}
	return res
}

// findKey returns the first non-empty string stored under key anywhere in v.
func findKey(v any, key string, depth int) string {
	if depth > maxLinkDepth*4 {
		return ""
	}
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := findKey(t[k], key, depth+1); s != "" {
				return s
			}
		}
	case []any:
		for _, e := range t {
			if s := findKey(e, key, depth+1); s != "" {
				return s
			}
		}
	}
	return ""
}

// longestString is the last-resort prompt guess: the longest string value in
// the graph that is not a node type name.
func longestString(v any, depth int) string {
	if depth > maxLinkDepth*4 {
		return ""
	}
	best := ""
	consider := func(s string) {
		if len(s) > len(best) || len(s) == len(best) && s < best {
			best = s
		}
	}
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if k == "class_type" || k == "type" {
				continue
			}
			if s, ok := e.(string); ok {
				consider(s)
				continue
			}
			consider(longestString(e, depth+1))
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				consider(s)
				continue
			}
			consider(longestString(e, depth+1))
		}
	}
	return strings.TrimSpace(best)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case float64:
		return n, true
	}
	return 0, false
}
