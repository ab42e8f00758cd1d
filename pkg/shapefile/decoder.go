package shapefile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Token sub-patterns shared by the record grammars. Keywords match
// case-sensitively; hex words are case-insensitive and canonicalized to
// lower case by parseHex.
const (
	patFloat = `[-+]?(?:\d*\.\d+|\d+)(?:[eE][-+]?\d+)?`
	patInt   = `[-+]?\d+`
	patHex   = `[0-9a-fA-F]{8}`
	patName  = `[^\s()]+`
)

func parseInt(tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q", ErrTokenFormat, tok)
	}
	return n, nil
}

func parseFloat(tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: float %q", ErrTokenFormat, tok)
	}
	return v, nil
}

var hexWord = regexp.MustCompile(`^[0-9a-fA-F]{8}$`)

// parseHex accepts an 8-digit hex word in either case and canonicalizes
// it to lower case.
func parseHex(tok string) (string, error) {
	if !hexWord.MatchString(tok) {
		return "", fmt.Errorf("%w: hex word %q", ErrTokenFormat, tok)
	}
	return strings.ToLower(tok), nil
}

// mustFloat converts a token already vetted by a grammar pattern.
func mustFloat(tok string) float64 {
	v, _ := strconv.ParseFloat(tok, 64)
	return v
}

func mustInt(tok string) int {
	n, _ := strconv.Atoi(tok)
	return n
}

// parseIntFields converts a whitespace-separated run of integer tokens.
func parseIntFields(text string) ([]int, error) {
	toks := strings.Fields(text)
	vals := make([]int, 0, len(toks))
	for _, tok := range toks {
		v, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func parseFloatFields(text string) ([]float64, error) {
	toks := strings.Fields(text)
	vals := make([]float64, 0, len(toks))
	for _, tok := range toks {
		v, err := parseFloat(tok)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// anchored builds a full-fragment pattern for a fixed-arity record. The
// match is anchored at both ends so trailing junk and wrong arity are
// rejected rather than partially matched. Whitespace between value tokens
// is mandatory; whitespace next to parentheses is optional. Keywords in
// the grammar are case-insensitive.
func anchored(parts ...string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)^\s*`)
	for i, part := range parts {
		if i > 0 {
			if part == `\)` || part == `\(` || strings.HasSuffix(parts[i-1], `\(`) {
				b.WriteString(`\s*`)
			} else {
				b.WriteString(`\s+`)
			}
		}
		b.WriteString(part)
	}
	b.WriteString(`\s*$`)
	return regexp.MustCompile(b.String())
}

func grp(pat string) string { return "(" + pat + ")" }

// ---------------------------------------------------------------------------
// Simple records: one anchored pattern, one pass.

var (
	vectorPattern  = anchored(`vector\s*\(`, grp(patFloat), grp(patFloat), grp(patFloat), `\)`)
	pointPattern   = anchored(`point\s*\(`, grp(patFloat), grp(patFloat), grp(patFloat), `\)`)
	uvPointPattern = anchored(`uv_point\s*\(`, grp(patFloat), grp(patFloat), `\)`)
	colourPattern  = anchored(`colour\s*\(`, grp(patFloat), grp(patFloat), grp(patFloat), grp(patFloat), `\)`)
	matrixPattern  = anchored(`matrix`, grp(patName), `\(`,
		grp(patFloat), grp(patFloat), grp(patFloat),
		grp(patFloat), grp(patFloat), grp(patFloat),
		grp(patFloat), grp(patFloat), grp(patFloat),
		grp(patFloat), grp(patFloat), grp(patFloat), `\)`)
	volSpherePattern   = anchored(`vol_sphere\s*\(`, `vector\s*\(`, grp(patFloat), grp(patFloat), grp(patFloat), `\)`, grp(patFloat), `\)`)
	texturePattern     = anchored(`texture\s*\(`, grp(patInt), grp(patInt), grp(patFloat), grp(patHex), `\)`)
	lightMatPattern    = anchored(`light_material\s*\(`, grp(patHex), grp(patInt), grp(patInt), grp(patInt), grp(patInt), grp(patFloat), `\)`)
	vtxStatePattern    = anchored(`vtx_state\s*\(`, grp(patHex), grp(patInt), grp(patInt), grp(patInt), grp(patHex)+`(?:\s+`+grp(patInt)+`)?`, `\)`)
	shapeHeaderPattern = anchored(`shape_header\s*\(`, grp(patHex), grp(patHex), `\)`)
	namedShaderPattern = anchored(`named_shader\s*\(`, grp(patName), `\)`)
	namedFilterPattern = anchored(`named_filter_mode\s*\(`, grp(patName), `\)`)
	imagePattern       = anchored(`image\s*\(`, grp(patName), `\)`)
	vertexSetPattern   = anchored(`vertex_set\s*\(`, grp(patInt), grp(patInt), grp(patInt), `\)`)
	dlevelBiasPattern  = anchored(`distance_levels_header\s*\(`, grp(patInt), `\)`)
	dlevelSelPattern   = anchored(`dlevel_selection\s*\(`, grp(patInt), `\)`)
	primStateIdxPatt   = anchored(`prim_state_idx\s*\(`, grp(patInt), `\)`)
	cullablePattern    = anchored(`cullable_prims\s*\(`, grp(patInt), grp(patInt), grp(patInt), `\)`)
)

func parseVector(text string) (Vector, error) {
	m := vectorPattern.FindStringSubmatch(text)
	if m == nil {
		return Vector{}, fmt.Errorf("%w: vector %q", ErrMalformedBlock, snippet(text))
	}
	return Vector{X: mustFloat(m[1]), Y: mustFloat(m[2]), Z: mustFloat(m[3])}, nil
}

func parsePoint(text string) (Point, error) {
	m := pointPattern.FindStringSubmatch(text)
	if m == nil {
		return Point{}, fmt.Errorf("%w: point %q", ErrMalformedBlock, snippet(text))
	}
	return Point{X: mustFloat(m[1]), Y: mustFloat(m[2]), Z: mustFloat(m[3])}, nil
}

func parseUVPoint(text string) (UVPoint, error) {
	m := uvPointPattern.FindStringSubmatch(text)
	if m == nil {
		return UVPoint{}, fmt.Errorf("%w: uv_point %q", ErrMalformedBlock, snippet(text))
	}
	return UVPoint{U: mustFloat(m[1]), V: mustFloat(m[2])}, nil
}

func parseColour(text string) (Colour, error) {
	m := colourPattern.FindStringSubmatch(text)
	if m == nil {
		return Colour{}, fmt.Errorf("%w: colour %q", ErrMalformedBlock, snippet(text))
	}
	return Colour{A: mustFloat(m[1]), R: mustFloat(m[2]), G: mustFloat(m[3]), B: mustFloat(m[4])}, nil
}

func parseMatrix(text string) (Matrix, error) {
	m := matrixPattern.FindStringSubmatch(text)
	if m == nil {
		return Matrix{}, fmt.Errorf("%w: matrix %q", ErrMalformedBlock, snippet(text))
	}
	return Matrix{
		Name: m[1],
		AX:   mustFloat(m[2]), AY: mustFloat(m[3]), AZ: mustFloat(m[4]),
		BX: mustFloat(m[5]), BY: mustFloat(m[6]), BZ: mustFloat(m[7]),
		CX: mustFloat(m[8]), CY: mustFloat(m[9]), CZ: mustFloat(m[10]),
		DX: mustFloat(m[11]), DY: mustFloat(m[12]), DZ: mustFloat(m[13]),
	}, nil
}

func parseVolumeSphere(text string) (VolumeSphere, error) {
	m := volSpherePattern.FindStringSubmatch(text)
	if m == nil {
		return VolumeSphere{}, fmt.Errorf("%w: vol_sphere %q", ErrMalformedBlock, snippet(text))
	}
	return VolumeSphere{
		Vector: Vector{X: mustFloat(m[1]), Y: mustFloat(m[2]), Z: mustFloat(m[3])},
		Radius: mustFloat(m[4]),
	}, nil
}

func parseTexture(text string) (Texture, error) {
	m := texturePattern.FindStringSubmatch(text)
	if m == nil {
		return Texture{}, fmt.Errorf("%w: texture %q", ErrMalformedBlock, snippet(text))
	}
	return Texture{
		ImageIndex:    mustInt(m[1]),
		FilterMode:    mustInt(m[2]),
		MipmapLODBias: mustFloat(m[3]),
		BorderColour:  strings.ToLower(m[4]),
	}, nil
}

func parseLightMaterial(text string) (LightMaterial, error) {
	m := lightMatPattern.FindStringSubmatch(text)
	if m == nil {
		return LightMaterial{}, fmt.Errorf("%w: light_material %q", ErrMalformedBlock, snippet(text))
	}
	return LightMaterial{
		Flags:               strings.ToLower(m[1]),
		DiffColourIndex:     mustInt(m[2]),
		AmbColourIndex:      mustInt(m[3]),
		SpecColourIndex:     mustInt(m[4]),
		EmissiveColourIndex: mustInt(m[5]),
		SpecPower:           mustFloat(m[6]),
	}, nil
}

// parseVtxState detects the optional trailing matrix index by group
// presence rather than a sentinel, so index 0 stays unambiguous.
func parseVtxState(text string) (VtxState, error) {
	m := vtxStatePattern.FindStringSubmatch(text)
	if m == nil {
		return VtxState{}, fmt.Errorf("%w: vtx_state %q", ErrMalformedBlock, snippet(text))
	}
	vs := VtxState{
		Flags:              strings.ToLower(m[1]),
		MatrixIndex:        mustInt(m[2]),
		LightMaterialIndex: mustInt(m[3]),
		LightModelCfgIndex: mustInt(m[4]),
		LightFlags:         strings.ToLower(m[5]),
	}
	if m[6] != "" {
		idx := mustInt(m[6])
		vs.Matrix2Index = &idx
	}
	return vs, nil
}

func parseShapeHeader(text string) (ShapeHeader, error) {
	m := shapeHeaderPattern.FindStringSubmatch(text)
	if m == nil {
		return ShapeHeader{}, fmt.Errorf("%w: shape_header %q", ErrMalformedBlock, snippet(text))
	}
	return ShapeHeader{Flags1: strings.ToLower(m[1]), Flags2: strings.ToLower(m[2])}, nil
}

func parseIdent(text string, pat *regexp.Regexp, keyword string) (string, error) {
	m := pat.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("%w: %s %q", ErrMalformedBlock, keyword, snippet(text))
	}
	return m[1], nil
}

func parseNamedShader(text string) (string, error) {
	return parseIdent(text, namedShaderPattern, "named_shader")
}

func parseNamedFilterMode(text string) (string, error) {
	return parseIdent(text, namedFilterPattern, "named_filter_mode")
}

func parseImage(text string) (string, error) {
	return parseIdent(text, imagePattern, "image")
}

func parseVertexSet(text string) (VertexSet, error) {
	m := vertexSetPattern.FindStringSubmatch(text)
	if m == nil {
		return VertexSet{}, fmt.Errorf("%w: vertex_set %q", ErrMalformedBlock, snippet(text))
	}
	return VertexSet{VtxState: mustInt(m[1]), VtxStartIndex: mustInt(m[2]), VtxCount: mustInt(m[3])}, nil
}

func parseCullablePrims(text string) (CullablePrims, error) {
	m := cullablePattern.FindStringSubmatch(text)
	if m == nil {
		return CullablePrims{}, fmt.Errorf("%w: cullable_prims %q", ErrMalformedBlock, snippet(text))
	}
	return CullablePrims{NumPrims: mustInt(m[1]), NumFlatSections: mustInt(m[2]), NumPrimIndices: mustInt(m[3])}, nil
}

// ---------------------------------------------------------------------------
// Variant records: keyword suffix selects the concrete variant and its
// fixed parameter arity.

var variantPattern = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*\(\s*([^()]*?)\s*\)\s*$`)

var uvOpKinds = map[string]UVOpKind{
	"uv_op_copy":            UVOpCopy,
	"uv_op_reflectmapfull":  UVOpReflectMapFull,
	"uv_op_reflectmap":      UVOpReflectMap,
	"uv_op_uniformscale":    UVOpUniformScale,
	"uv_op_nonuniformscale": UVOpNonUniformScale,
}

func parseUVOp(text string) (UVOp, error) {
	m := variantPattern.FindStringSubmatch(text)
	if m == nil {
		return UVOp{}, fmt.Errorf("%w: uv_op %q", ErrMalformedBlock, snippet(text))
	}
	kind, ok := uvOpKinds[strings.ToLower(m[1])]
	if !ok {
		return UVOp{}, fmt.Errorf("%w: %q", ErrUnknownVariant, m[1])
	}
	vals, err := parseIntFields(m[2])
	if err != nil {
		return UVOp{}, fmt.Errorf("%s: %w", m[1], err)
	}
	if len(vals) != kind.arity() {
		return UVOp{}, fmt.Errorf("%w: %s expects %d parameters, got %d", ErrUnknownVariant, m[1], kind.arity(), len(vals))
	}
	op := UVOp{Kind: kind, TextureAddressMode: vals[0]}
	if len(vals) >= 2 {
		op.SourceUVIndex = vals[1]
	}
	if len(vals) == 4 {
		op.Unknown3 = vals[2]
		op.Unknown4 = vals[3]
	}
	return op, nil
}

var keyKinds = map[string]KeyKind{
	"slerp_rot":  KeySlerpRot,
	"linear_key": KeyLinear,
	"tcb_key":    KeyTCB,
}

func parseKeyPosition(text string) (KeyPosition, error) {
	m := variantPattern.FindStringSubmatch(text)
	if m == nil {
		return KeyPosition{}, fmt.Errorf("%w: key position %q", ErrMalformedBlock, snippet(text))
	}
	kind, ok := keyKinds[strings.ToLower(m[1])]
	if !ok {
		return KeyPosition{}, fmt.Errorf("%w: %q", ErrUnknownVariant, m[1])
	}
	vals, err := parseFloatFields(m[2])
	if err != nil {
		return KeyPosition{}, fmt.Errorf("%s: %w", m[1], err)
	}
	if len(vals) != kind.arity() {
		return KeyPosition{}, fmt.Errorf("%w: %s expects %d values, got %d", ErrUnknownVariant, m[1], kind.arity(), len(vals))
	}
	return KeyPosition{Kind: kind, Values: vals}, nil
}

var controllerKinds = map[string]ControllerKind{
	"tcb_rot":    ControllerTCBRot,
	"linear_pos": ControllerLinearPos,
	"tcb_pos":    ControllerTCBPos,
}

func parseController(text string) (Controller, error) {
	kw, _, body, err := splitBlock(text)
	if err != nil {
		return Controller{}, err
	}
	kind, ok := controllerKinds[kw]
	if !ok {
		return Controller{}, fmt.Errorf("%w: controller %q", ErrUnknownVariant, kw)
	}
	count, rest, err := countedBody(body)
	if err != nil {
		return Controller{}, fmt.Errorf("%s: %w", kw, err)
	}
	items, err := scanItems(rest, false, "slerp_rot", "linear_key", "tcb_key")
	if err != nil {
		return Controller{}, err
	}
	if err := checkCount(kw, count, len(items), 1); err != nil {
		return Controller{}, err
	}
	keys := make([]KeyPosition, 0, len(items))
	for _, it := range items {
		k, err := parseKeyPosition(it.text)
		if err != nil {
			return Controller{}, err
		}
		keys = append(keys, k)
	}
	return Controller{Kind: kind, Keys: keys}, nil
}

// ---------------------------------------------------------------------------
// List helpers.

// parseList decodes a counted block of homogeneous child blocks. The
// declared count must equal the number of items found.
func parseList[T any](text, listName, itemKeyword string, named bool, parse func(string) (T, error)) ([]T, error) {
	block, err := extractBlock(text, listName)
	if err != nil {
		return nil, err
	}
	_, _, body, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	count, rest, err := countedBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", listName, err)
	}
	items, err := scanItems(rest, named, itemKeyword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", listName, err)
	}
	if err := checkCount(listName, count, len(items), 1); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := parse(it.text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", listName, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseIntList decodes "name ( N v v ... )". The declared count is scaled
// by mult relative to the number of values.
func parseIntList(text, keyword string, mult float64) ([]int, error) {
	block, err := extractBlock(text, keyword)
	if err != nil {
		return nil, err
	}
	_, _, body, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	count, rest, err := countedBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyword, err)
	}
	vals, err := parseIntFields(rest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyword, err)
	}
	if err := checkCount(keyword, count, len(vals), mult); err != nil {
		return nil, err
	}
	return vals, nil
}

// parseHexList decodes "name ( N hex hex ... )".
func parseHexList(text, keyword string) ([]string, error) {
	block, err := extractBlock(text, keyword)
	if err != nil {
		return nil, err
	}
	_, _, body, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	count, rest, err := countedBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyword, err)
	}
	toks := strings.Fields(rest)
	vals := make([]string, 0, len(toks))
	for _, tok := range toks {
		h, err := parseHex(tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyword, err)
		}
		vals = append(vals, h)
	}
	if err := checkCount(keyword, count, len(vals), 1); err != nil {
		return nil, err
	}
	return vals, nil
}

// ---------------------------------------------------------------------------
// Nested records: anchored header matching combined with balanced-paren
// block extraction for the inner blocks.

var lightModelCfgHead = regexp.MustCompile(`(?i)^\s*light_model_cfg\s*\(\s*(` + patHex + `)\s`)

func parseLightModelCfg(text string) (LightModelCfg, error) {
	m := lightModelCfgHead.FindStringSubmatch(text)
	if m == nil {
		return LightModelCfg{}, fmt.Errorf("%w: light_model_cfg %q", ErrMalformedBlock, snippet(text))
	}
	ops, err := parseList(text, "uv_ops", "uv_op_[a-z]+", false, parseUVOp)
	if err != nil {
		return LightModelCfg{}, fmt.Errorf("light_model_cfg: %w", err)
	}
	return LightModelCfg{Flags: strings.ToLower(m[1]), UVOps: ops}, nil
}

var primStateHead = regexp.MustCompile(`^\s*(` + patHex + `)\s+(` + patInt + `)\s`)
var primStateTail = anchored(grp(patFloat), grp(patInt), grp(patInt), grp(patInt), grp(patInt))

func parsePrimState(text string) (PrimState, error) {
	name, body, err := expectBlock(text, "prim_state")
	if err != nil {
		return PrimState{}, err
	}
	if name == "" {
		return PrimState{}, fmt.Errorf("%w: prim_state without a name", ErrMalformedBlock)
	}
	m := primStateHead.FindStringSubmatch(body)
	if m == nil {
		return PrimState{}, fmt.Errorf("%w: prim_state %s header %q", ErrMalformedBlock, name, snippet(body))
	}
	_, end, err := extractBlockSpan(body, "tex_idxs")
	if err != nil {
		return PrimState{}, fmt.Errorf("prim_state %s: %w", name, err)
	}
	texIdxs, err := parseIntList(body, "tex_idxs", 1)
	if err != nil {
		return PrimState{}, fmt.Errorf("prim_state %s: %w", name, err)
	}
	t := primStateTail.FindStringSubmatch(body[end:])
	if t == nil {
		return PrimState{}, fmt.Errorf("%w: prim_state %s tail %q", ErrMalformedBlock, name, snippet(body[end:]))
	}
	return PrimState{
		Name:           name,
		Flags:          strings.ToLower(m[1]),
		ShaderIndex:    mustInt(m[2]),
		TextureIndices: texIdxs,
		ZBias:          mustFloat(t[1]),
		VtxStateIndex:  mustInt(t[2]),
		AlphaTestMode:  mustInt(t[3]),
		LightCfgIndex:  mustInt(t[4]),
		ZBufferMode:    mustInt(t[5]),
	}, nil
}

var vertexHead = regexp.MustCompile(`^\s*(` + patHex + `)\s+(` + patInt + `)\s+(` + patInt + `)\s+(` + patHex + `)\s+(` + patHex + `)\s`)

func parseVertex(text string) (Vertex, error) {
	_, body, err := expectBlock(text, "vertex")
	if err != nil {
		return Vertex{}, err
	}
	m := vertexHead.FindStringSubmatch(body)
	if m == nil {
		return Vertex{}, fmt.Errorf("%w: vertex header %q", ErrMalformedBlock, snippet(body))
	}
	uvs, err := parseIntList(body, "vertex_uvs", 1)
	if err != nil {
		return Vertex{}, fmt.Errorf("vertex: %w", err)
	}
	return Vertex{
		Flags:       strings.ToLower(m[1]),
		PointIndex:  mustInt(m[2]),
		NormalIndex: mustInt(m[3]),
		Colour1:     strings.ToLower(m[4]),
		Colour2:     strings.ToLower(m[5]),
		VertexUVs:   uvs,
	}, nil
}

// parseIndexedTrilist groups the flat vertex_idxs values into triplets
// and the normal_idxs values into pairs. The vertex_idxs header declares
// the raw value count; normal_idxs declares its pair count.
func parseIndexedTrilist(text string) (IndexedTrilist, error) {
	_, body, err := expectBlock(text, "indexed_trilist")
	if err != nil {
		return IndexedTrilist{}, err
	}
	vertexVals, err := parseIntList(body, "vertex_idxs", 1)
	if err != nil {
		return IndexedTrilist{}, err
	}
	if len(vertexVals)%3 != 0 {
		return IndexedTrilist{}, fmt.Errorf("%w: vertex_idxs holds %d values, not a multiple of 3", ErrCountMismatch, len(vertexVals))
	}
	normalVals, err := parseIntList(body, "normal_idxs", 0.5)
	if err != nil {
		return IndexedTrilist{}, err
	}
	if len(normalVals)%2 != 0 {
		return IndexedTrilist{}, fmt.Errorf("%w: normal_idxs holds %d values, not a multiple of 2", ErrCountMismatch, len(normalVals))
	}
	flags, err := parseHexList(body, "flags")
	if err != nil {
		return IndexedTrilist{}, err
	}
	tl := IndexedTrilist{Flags: flags}
	for i := 0; i < len(vertexVals); i += 3 {
		tl.VertexIndices = append(tl.VertexIndices, VertexIdx{
			Vertex1: vertexVals[i], Vertex2: vertexVals[i+1], Vertex3: vertexVals[i+2],
		})
	}
	for i := 0; i < len(normalVals); i += 2 {
		tl.NormalIndices = append(tl.NormalIndices, NormalIdx{
			Index: normalVals[i], Unknown2: normalVals[i+1],
		})
	}
	return tl, nil
}

// parsePrimitives walks the interleaved prim_state_idx / indexed_trilist
// sequence. A prim_state_idx block switches the state inherited by the
// trilists that follow it. The declared count covers both block kinds.
func parsePrimitives(text string) ([]Primitive, error) {
	block, err := extractBlock(text, "primitives")
	if err != nil {
		return nil, err
	}
	_, _, body, err := splitBlock(block)
	if err != nil {
		return nil, err
	}
	count, rest, err := countedBody(body)
	if err != nil {
		return nil, fmt.Errorf("primitives: %w", err)
	}
	items, err := scanItems(rest, false, "prim_state_idx", "indexed_trilist")
	if err != nil {
		return nil, fmt.Errorf("primitives: %w", err)
	}
	if err := checkCount("primitives", count, len(items), 1); err != nil {
		return nil, err
	}
	var prims []Primitive
	state := 0
	for _, it := range items {
		switch it.keyword {
		case "prim_state_idx":
			m := primStateIdxPatt.FindStringSubmatch(it.text)
			if m == nil {
				return nil, fmt.Errorf("%w: prim_state_idx %q", ErrMalformedBlock, snippet(it.text))
			}
			state = mustInt(m[1])
		case "indexed_trilist":
			tl, err := parseIndexedTrilist(it.text)
			if err != nil {
				return nil, err
			}
			prims = append(prims, Primitive{PrimStateIndex: state, Trilist: tl})
		}
	}
	return prims, nil
}

var geometryInfoHead = regexp.MustCompile(`^\s*((?:` + patInt + `\s+){10})`)
var geometryNodeHead = regexp.MustCompile(`^\s*((?:` + patInt + `\s+){5})`)

func parseGeometryNode(text string) (GeometryNode, error) {
	_, body, err := expectBlock(text, "geometry_node")
	if err != nil {
		return GeometryNode{}, err
	}
	m := geometryNodeHead.FindStringSubmatch(body)
	if m == nil {
		return GeometryNode{}, fmt.Errorf("%w: geometry_node header %q", ErrMalformedBlock, snippet(body))
	}
	vals, _ := parseIntFields(m[1])
	cp, rest, err := takeBlock(body[len(m[0]):], "cullable_prims")
	if err != nil {
		return GeometryNode{}, fmt.Errorf("geometry_node: %w", err)
	}
	if strings.TrimSpace(rest) != "" {
		return GeometryNode{}, fmt.Errorf("%w: geometry_node trailing %q", ErrMalformedBlock, snippet(rest))
	}
	prims, err := parseCullablePrims(cp)
	if err != nil {
		return GeometryNode{}, err
	}
	return GeometryNode{
		TXLightCmds:      vals[0],
		NodeXTXLightCmds: vals[1],
		Trilists:         vals[2],
		LineLists:        vals[3],
		PtLists:          vals[4],
		CullablePrims:    prims,
	}, nil
}

func parseGeometryInfo(text string) (GeometryInfo, error) {
	_, body, err := expectBlock(text, "geometry_info")
	if err != nil {
		return GeometryInfo{}, err
	}
	m := geometryInfoHead.FindStringSubmatch(body)
	if m == nil {
		return GeometryInfo{}, fmt.Errorf("%w: geometry_info header %q", ErrMalformedBlock, snippet(body))
	}
	vals, _ := parseIntFields(m[1])
	rest := body[len(m[0]):]
	nodes, err := parseList(rest, "geometry_nodes", "geometry_node", false, parseGeometryNode)
	if err != nil {
		return GeometryInfo{}, fmt.Errorf("geometry_info: %w", err)
	}
	nodeMap, err := parseIntList(rest, "geometry_node_map", 1)
	if err != nil {
		return GeometryInfo{}, fmt.Errorf("geometry_info: %w", err)
	}
	return GeometryInfo{
		FaceNormals:         vals[0],
		TXLightCmds:         vals[1],
		NodeXTXLightCmds:    vals[2],
		TrilistIndices:      vals[3],
		LineListIndices:     vals[4],
		NodeXTrilistIndices: vals[5],
		Trilists:            vals[6],
		LineLists:           vals[7],
		PtLists:             vals[8],
		NodeXTrilists:       vals[9],
		GeometryNodes:       nodes,
		GeometryNodeMap:     nodeMap,
	}, nil
}

var subObjectHeaderTail = regexp.MustCompile(`^\s*(` + patInt + `)\s*$`)

func parseSubObjectHeader(text string) (SubObjectHeader, error) {
	_, body, err := expectBlock(text, "sub_object_header")
	if err != nil {
		return SubObjectHeader{}, err
	}
	m := vertexHead.FindStringSubmatch(body) // same shape: hex int int hex hex
	if m == nil {
		return SubObjectHeader{}, fmt.Errorf("%w: sub_object_header %q", ErrMalformedBlock, snippet(body))
	}
	gi, rest, err := takeBlock(body, "geometry_info")
	if err != nil {
		return SubObjectHeader{}, fmt.Errorf("sub_object_header: %w", err)
	}
	info, err := parseGeometryInfo(gi)
	if err != nil {
		return SubObjectHeader{}, err
	}
	shaders, err := parseIntList(rest, "subobject_shaders", 1)
	if err != nil {
		return SubObjectHeader{}, fmt.Errorf("sub_object_header: %w", err)
	}
	_, end, err := extractBlockSpan(rest, "subobject_light_cfgs")
	if err != nil {
		return SubObjectHeader{}, fmt.Errorf("sub_object_header: %w", err)
	}
	lightCfgs, err := parseIntList(rest, "subobject_light_cfgs", 1)
	if err != nil {
		return SubObjectHeader{}, fmt.Errorf("sub_object_header: %w", err)
	}
	t := subObjectHeaderTail.FindStringSubmatch(rest[end:])
	if t == nil {
		return SubObjectHeader{}, fmt.Errorf("%w: sub_object_header id %q", ErrMalformedBlock, snippet(rest[end:]))
	}
	return SubObjectHeader{
		Flags:                  strings.ToLower(m[1]),
		SortVectorIndex:        mustInt(m[2]),
		VolumeIndex:            mustInt(m[3]),
		SourceVtxFmtFlags:      strings.ToLower(m[4]),
		DestinationVtxFmtFlags: strings.ToLower(m[5]),
		GeometryInfo:           info,
		SubObjectShaders:       shaders,
		SubObjectLightCfgs:     lightCfgs,
		SubObjectID:            mustInt(t[1]),
	}, nil
}

func parseSubObject(text string) (SubObject, error) {
	_, body, err := expectBlock(text, "sub_object")
	if err != nil {
		return SubObject{}, err
	}
	hdr, rest, err := takeBlock(body, "sub_object_header")
	if err != nil {
		return SubObject{}, fmt.Errorf("sub_object: %w", err)
	}
	header, err := parseSubObjectHeader(hdr)
	if err != nil {
		return SubObject{}, err
	}
	vertices, err := parseList(rest, "vertices", "vertex", false, parseVertex)
	if err != nil {
		return SubObject{}, fmt.Errorf("sub_object: %w", err)
	}
	sets, err := parseList(rest, "vertex_sets", "vertex_set", false, parseVertexSet)
	if err != nil {
		return SubObject{}, fmt.Errorf("sub_object: %w", err)
	}
	prims, err := parsePrimitives(rest)
	if err != nil {
		return SubObject{}, fmt.Errorf("sub_object: %w", err)
	}
	return SubObject{Header: header, Vertices: vertices, VertexSets: sets, Primitives: prims}, nil
}

func parseDistanceLevelHeader(text string) (DistanceLevelHeader, error) {
	_, body, err := expectBlock(text, "distance_level_header")
	if err != nil {
		return DistanceLevelHeader{}, err
	}
	sel, err := extractBlock(body, "dlevel_selection")
	if err != nil {
		return DistanceLevelHeader{}, fmt.Errorf("distance_level_header: %w", err)
	}
	m := dlevelSelPattern.FindStringSubmatch(sel)
	if m == nil {
		return DistanceLevelHeader{}, fmt.Errorf("%w: dlevel_selection %q", ErrMalformedBlock, snippet(sel))
	}
	hierarchy, err := parseIntList(body, "hierarchy", 1)
	if err != nil {
		return DistanceLevelHeader{}, fmt.Errorf("distance_level_header: %w", err)
	}
	return DistanceLevelHeader{DLevelSelection: mustInt(m[1]), Hierarchy: hierarchy}, nil
}

func parseDistanceLevel(text string) (DistanceLevel, error) {
	_, body, err := expectBlock(text, "distance_level")
	if err != nil {
		return DistanceLevel{}, err
	}
	hdr, rest, err := takeBlock(body, "distance_level_header")
	if err != nil {
		return DistanceLevel{}, fmt.Errorf("distance_level: %w", err)
	}
	header, err := parseDistanceLevelHeader(hdr)
	if err != nil {
		return DistanceLevel{}, err
	}
	subs, err := parseList(rest, "sub_objects", "sub_object", false, parseSubObject)
	if err != nil {
		return DistanceLevel{}, fmt.Errorf("distance_level: %w", err)
	}
	return DistanceLevel{Header: header, SubObjects: subs}, nil
}

func parseLodControl(text string) (LodControl, error) {
	_, body, err := expectBlock(text, "lod_control")
	if err != nil {
		return LodControl{}, err
	}
	hdr, rest, err := takeBlock(body, "distance_levels_header")
	if err != nil {
		return LodControl{}, fmt.Errorf("lod_control: %w", err)
	}
	m := dlevelBiasPattern.FindStringSubmatch(hdr)
	if m == nil {
		return LodControl{}, fmt.Errorf("%w: distance_levels_header %q", ErrMalformedBlock, snippet(hdr))
	}
	levels, err := parseList(rest, "distance_levels", "distance_level", false, parseDistanceLevel)
	if err != nil {
		return LodControl{}, fmt.Errorf("lod_control: %w", err)
	}
	return LodControl{
		DistanceLevelsHeader: DistanceLevelsHeader{DLevelBias: mustInt(m[1])},
		DistanceLevels:       levels,
	}, nil
}

var animationHead = regexp.MustCompile(`^\s*(` + patInt + `)\s+(` + patInt + `)\s`)

func parseAnimNode(text string) (AnimationNode, error) {
	name, body, err := expectBlock(text, "anim_node")
	if err != nil {
		return AnimationNode{}, err
	}
	if name == "" {
		return AnimationNode{}, fmt.Errorf("%w: anim_node without a name", ErrMalformedBlock)
	}
	controllers, err := parseList(body, "controllers", "tcb_rot|linear_pos|tcb_pos", false, parseController)
	if err != nil {
		return AnimationNode{}, fmt.Errorf("anim_node %s: %w", name, err)
	}
	return AnimationNode{Name: name, Controllers: controllers}, nil
}

func parseAnimation(text string) (Animation, error) {
	_, body, err := expectBlock(text, "animation")
	if err != nil {
		return Animation{}, err
	}
	m := animationHead.FindStringSubmatch(body)
	if m == nil {
		return Animation{}, fmt.Errorf("%w: animation header %q", ErrMalformedBlock, snippet(body))
	}
	nodes, err := parseList(body, "anim_nodes", "anim_node", true, parseAnimNode)
	if err != nil {
		return Animation{}, fmt.Errorf("animation: %w", err)
	}
	return Animation{FrameCount: mustInt(m[1]), FrameRate: mustInt(m[2]), Nodes: nodes}, nil
}
