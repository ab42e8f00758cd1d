package shapefile

import (
	"errors"
	"fmt"
	"strings"
)

// blockBinding ties one top-level table of the shape body to its decode
// and encode halves. The binding order is the canonical block order of
// the format.
type blockBinding struct {
	keyword  string
	optional bool
	decode   func(*Shape, string) error
	encode   func(*Shape, Style) (string, bool)
}

// listBinding builds the binding for a counted list table: decode scans
// the named block out of the shape body, encode renders one item per line.
func listBinding[T any](keyword, itemKeyword string, named bool, parse func(string) (T, error), field func(*Shape) *[]T, enc func(Style, int, T) string) blockBinding {
	return blockBinding{
		keyword: keyword,
		decode: func(s *Shape, body string) error {
			vals, err := parseList(body, keyword, itemKeyword, named, parse)
			if err != nil {
				return err
			}
			*field(s) = vals
			return nil
		},
		encode: func(s *Shape, st Style) (string, bool) {
			return encodeList(st, 1, keyword, *field(s), oneItemPerLine, enc), true
		},
	}
}

// shapeBindings lists every top-level block in serialization order.
// Animations are the only optional table; files without animation carry
// no animations block at all.
func shapeBindings() []blockBinding {
	bindings := []blockBinding{
		{
			keyword: "shape_header",
			decode: func(s *Shape, body string) error {
				frag, err := extractBlock(body, "shape_header")
				if err != nil {
					return err
				}
				s.Header, err = parseShapeHeader(frag)
				return err
			},
			encode: func(s *Shape, st Style) (string, bool) {
				return encodeShapeHeader(st, 1, s.Header), true
			},
		},
		listBinding("volumes", "vol_sphere", false, parseVolumeSphere,
			func(s *Shape) *[]VolumeSphere { return &s.Volumes }, encodeVolumeSphere),
		listBinding("shader_names", "named_shader", false, parseNamedShader,
			func(s *Shape) *[]string { return &s.ShaderNames }, encodeNamedShader),
		listBinding("texture_filter_names", "named_filter_mode", false, parseNamedFilterMode,
			func(s *Shape) *[]string { return &s.TextureFilterNames }, encodeNamedFilterMode),
		listBinding("points", "point", false, parsePoint,
			func(s *Shape) *[]Point { return &s.Points }, encodePoint),
		listBinding("uv_points", "uv_point", false, parseUVPoint,
			func(s *Shape) *[]UVPoint { return &s.UVPoints }, encodeUVPoint),
		listBinding("normals", "vector", false, parseVector,
			func(s *Shape) *[]Vector { return &s.Normals }, encodeVector),
		listBinding("sort_vectors", "vector", false, parseVector,
			func(s *Shape) *[]Vector { return &s.SortVectors }, encodeVector),
		listBinding("colours", "colour", false, parseColour,
			func(s *Shape) *[]Colour { return &s.Colours }, encodeColour),
		listBinding("matrices", "matrix", true, parseMatrix,
			func(s *Shape) *[]Matrix { return &s.Matrices }, encodeMatrix),
		listBinding("images", "image", false, parseImage,
			func(s *Shape) *[]string { return &s.Images }, encodeImage),
		listBinding("textures", "texture", false, parseTexture,
			func(s *Shape) *[]Texture { return &s.Textures }, encodeTexture),
		listBinding("light_materials", "light_material", false, parseLightMaterial,
			func(s *Shape) *[]LightMaterial { return &s.LightMaterials }, encodeLightMaterial),
		listBinding("light_model_cfgs", "light_model_cfg", false, parseLightModelCfg,
			func(s *Shape) *[]LightModelCfg { return &s.LightModelCfgs }, encodeLightModelCfg),
		listBinding("vtx_states", "vtx_state", false, parseVtxState,
			func(s *Shape) *[]VtxState { return &s.VtxStates }, encodeVtxState),
		listBinding("prim_states", "prim_state", true, parsePrimState,
			func(s *Shape) *[]PrimState { return &s.PrimStates }, encodePrimState),
		listBinding("lod_controls", "lod_control", false, parseLodControl,
			func(s *Shape) *[]LodControl { return &s.LodControls }, encodeLodControl),
	}

	animations := listBinding("animations", "animation", false, parseAnimation,
		func(s *Shape) *[]Animation { return &s.Animations }, encodeAnimation)
	animations.optional = true
	inner := animations.encode
	// A nil table means the block was absent; a present empty block
	// decodes to an empty slice and still renders as animations ( 0 ).
	animations.encode = func(s *Shape, st Style) (string, bool) {
		if s.Animations == nil {
			return "", false
		}
		return inner(s, st)
	}
	return append(bindings, animations)
}

// decodeShape parses the shape ( ... ) block out of a document body.
func decodeShape(text string) (*Shape, error) {
	frag, err := extractBlock(text, "shape")
	if err != nil {
		return nil, err
	}
	_, body, err := expectBlock(frag, "shape")
	if err != nil {
		return nil, err
	}
	s := &Shape{}
	for _, b := range shapeBindings() {
		if err := b.decode(s, body); err != nil {
			if b.optional && errors.Is(err, ErrBlockNotFound) {
				continue
			}
			return nil, fmt.Errorf("block %s: %w", b.keyword, err)
		}
	}
	return s, nil
}

// encodeShape renders the shape ( ... ) block with every table in
// canonical order.
func encodeShape(s *Shape, st Style) (string, error) {
	if err := checkEncodable(s); err != nil {
		return "", err
	}
	lines := []string{"shape ("}
	for _, b := range shapeBindings() {
		if block, ok := b.encode(s, st); ok {
			lines = append(lines, block)
		}
	}
	lines = append(lines, ")")
	return strings.Join(lines, "\n"), nil
}
