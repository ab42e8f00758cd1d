package shapefile

import (
	"fmt"
	"strconv"
	"strings"
)

// Style controls the indentation of encoded output.
type Style struct {
	Indent  int  // indentation characters per depth level
	UseTabs bool // tabs when true, spaces otherwise
}

// DefaultStyle renders one tab per depth level, the convention of the
// existing file corpus.
func DefaultStyle() Style {
	return Style{Indent: 1, UseTabs: true}
}

func (st Style) prefix(depth int) string {
	ch := " "
	if st.UseTabs {
		ch = "\t"
	}
	n := st.Indent
	if n < 1 {
		n = 1
	}
	return strings.Repeat(ch, n*depth)
}

// fmtFloat renders a float in its shortest form with six significant
// digits: 1.0 becomes "1", 1.50 becomes "1.5". The precision matches the
// existing file corpus and is load-bearing for round trips.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func fmtInt(v int) string {
	return strconv.Itoa(v)
}

// listLayout is the per-block layout policy for counted list blocks.
type listLayout struct {
	// itemsPerLine groups this many rendered items per output line.
	// Zero joins every item on a single line.
	itemsPerLine int
	// newlineAfterHeader pushes the first item line below the count
	// header; otherwise the first group shares the header line.
	newlineAfterHeader bool
	// newlineBeforeClosing gives the closing parenthesis its own line;
	// otherwise it is appended to the last item line.
	newlineBeforeClosing bool
	// countMultiplier scales the declared count relative to the item
	// count, for headers that count sub-units rather than items.
	countMultiplier float64
	// multilineWhenEmpty keeps the header and closer on separate lines
	// even for an empty list.
	multilineWhenEmpty bool
}

// oneItemPerLine is the layout of every top-level table in the grammar.
var oneItemPerLine = listLayout{itemsPerLine: 1, newlineAfterHeader: true, newlineBeforeClosing: true}

// inlineList renders header, items and closer on a single line, the
// layout of embedded index lists such as tex_idxs and hierarchy.
var inlineList = listLayout{}

// renderListBlock renders "name ( N items... )" under the given layout.
// Items arrive without leading indentation; continuation lines of
// multi-line items must already carry absolute indentation.
func renderListBlock(st Style, depth int, name string, items []string, lay listLayout) string {
	mult := lay.countMultiplier
	if mult <= 0 {
		mult = 1
	}
	count := int(float64(len(items)) * mult)

	if len(items) == 0 {
		if lay.multilineWhenEmpty {
			return st.prefix(depth) + name + " ( 0\n" + st.prefix(depth) + ")"
		}
		return st.prefix(depth) + name + " ( 0 )"
	}

	// Unbounded groups land on one line without an indentation prefix.
	per := lay.itemsPerLine
	groupPrefix := st.prefix(depth + 1)
	if per <= 0 {
		per = len(items)
		groupPrefix = ""
	}
	var groups []string
	for i := 0; i < len(items); i += per {
		end := i + per
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, strings.Join(items[i:end], " "))
	}

	lines := make([]string, 0, len(groups)+2)
	header := st.prefix(depth) + name + " ( " + strconv.Itoa(count)
	next := 0
	if !lay.newlineAfterHeader {
		header += " " + groups[0]
		next = 1
	}
	lines = append(lines, header)
	for ; next < len(groups); next++ {
		lines = append(lines, groupPrefix+groups[next])
	}
	if lay.newlineBeforeClosing {
		lines = append(lines, st.prefix(depth)+")")
	} else {
		lines[len(lines)-1] += " )"
	}
	return strings.Join(lines, "\n")
}

// encodeList renders each item at depth+1 and strips its leading
// indentation; the list layout re-applies line prefixes.
func encodeList[T any](st Style, depth int, name string, items []T, lay listLayout, encode func(Style, int, T) string) string {
	inner := st.prefix(depth + 1)
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		rendered = append(rendered, strings.TrimPrefix(encode(st, depth+1, item), inner))
	}
	return renderListBlock(st, depth, name, rendered, lay)
}

// intListItems renders integers for an embedded index list.
func intListItems(vals []int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmtInt(v)
	}
	return out
}

// ---------------------------------------------------------------------------
// Record serializers. Each renders its keyword and fields at the given
// depth; nested blocks recurse with depth+1.

func encodeVector(st Style, depth int, v Vector) string {
	return st.prefix(depth) + "vector ( " + fmtFloat(v.X) + " " + fmtFloat(v.Y) + " " + fmtFloat(v.Z) + " )"
}

func encodePoint(st Style, depth int, p Point) string {
	return st.prefix(depth) + "point ( " + fmtFloat(p.X) + " " + fmtFloat(p.Y) + " " + fmtFloat(p.Z) + " )"
}

func encodeUVPoint(st Style, depth int, p UVPoint) string {
	return st.prefix(depth) + "uv_point ( " + fmtFloat(p.U) + " " + fmtFloat(p.V) + " )"
}

func encodeColour(st Style, depth int, c Colour) string {
	return st.prefix(depth) + "colour ( " + fmtFloat(c.A) + " " + fmtFloat(c.R) + " " + fmtFloat(c.G) + " " + fmtFloat(c.B) + " )"
}

func encodeMatrix(st Style, depth int, m Matrix) string {
	vals := []float64{m.AX, m.AY, m.AZ, m.BX, m.BY, m.BZ, m.CX, m.CY, m.CZ, m.DX, m.DY, m.DZ}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmtFloat(v)
	}
	return st.prefix(depth) + "matrix " + m.Name + " ( " + strings.Join(parts, " ") + " )"
}

func encodeVolumeSphere(st Style, depth int, v VolumeSphere) string {
	return st.prefix(depth) + "vol_sphere (\n" +
		encodeVector(st, depth+1, v.Vector) + " " + fmtFloat(v.Radius) + "\n" +
		st.prefix(depth) + ")"
}

func encodeTexture(st Style, depth int, t Texture) string {
	return st.prefix(depth) + "texture ( " + fmtInt(t.ImageIndex) + " " + fmtInt(t.FilterMode) + " " +
		fmtFloat(t.MipmapLODBias) + " " + strings.ToLower(t.BorderColour) + " )"
}

func encodeLightMaterial(st Style, depth int, m LightMaterial) string {
	return st.prefix(depth) + "light_material ( " + strings.ToLower(m.Flags) + " " +
		fmtInt(m.DiffColourIndex) + " " + fmtInt(m.AmbColourIndex) + " " +
		fmtInt(m.SpecColourIndex) + " " + fmtInt(m.EmissiveColourIndex) + " " +
		fmtFloat(m.SpecPower) + " )"
}

// encodeUVOp is a single exhaustive switch over the variant set; the
// kind decides which parameter fields are rendered.
func encodeUVOp(st Style, depth int, op UVOp) string {
	head := st.prefix(depth) + op.Kind.Keyword() + " ( "
	switch op.Kind {
	case UVOpCopy:
		return head + fmtInt(op.TextureAddressMode) + " " + fmtInt(op.SourceUVIndex) + " )"
	case UVOpReflectMapFull, UVOpReflectMap:
		return head + fmtInt(op.TextureAddressMode) + " )"
	default: // UVOpUniformScale, UVOpNonUniformScale
		return head + fmtInt(op.TextureAddressMode) + " " + fmtInt(op.SourceUVIndex) + " " +
			fmtInt(op.Unknown3) + " " + fmtInt(op.Unknown4) + " )"
	}
}

func encodeLightModelCfg(st Style, depth int, cfg LightModelCfg) string {
	return st.prefix(depth) + "light_model_cfg ( " + strings.ToLower(cfg.Flags) + "\n" +
		encodeList(st, depth+1, "uv_ops", cfg.UVOps, oneItemPerLine, encodeUVOp) + "\n" +
		st.prefix(depth) + ")"
}

func encodeVtxState(st Style, depth int, vs VtxState) string {
	s := st.prefix(depth) + "vtx_state ( " + strings.ToLower(vs.Flags) + " " +
		fmtInt(vs.MatrixIndex) + " " + fmtInt(vs.LightMaterialIndex) + " " +
		fmtInt(vs.LightModelCfgIndex) + " " + strings.ToLower(vs.LightFlags)
	if vs.Matrix2Index != nil {
		s += " " + fmtInt(*vs.Matrix2Index)
	}
	return s + " )"
}

func encodePrimState(st Style, depth int, ps PrimState) string {
	texIdxs := renderListBlock(st, 0, "tex_idxs", intListItems(ps.TextureIndices), inlineList)
	return st.prefix(depth) + "prim_state " + ps.Name + " ( " + strings.ToLower(ps.Flags) + " " + fmtInt(ps.ShaderIndex) + "\n" +
		st.prefix(depth+1) + texIdxs + " " + fmtFloat(ps.ZBias) + " " + fmtInt(ps.VtxStateIndex) + " " +
		fmtInt(ps.AlphaTestMode) + " " + fmtInt(ps.LightCfgIndex) + " " + fmtInt(ps.ZBufferMode) + "\n" +
		st.prefix(depth) + ")"
}

func encodeNamedShader(st Style, depth int, name string) string {
	return st.prefix(depth) + "named_shader ( " + name + " )"
}

func encodeNamedFilterMode(st Style, depth int, name string) string {
	return st.prefix(depth) + "named_filter_mode ( " + name + " )"
}

func encodeImage(st Style, depth int, name string) string {
	return st.prefix(depth) + "image ( " + name + " )"
}

func encodeVertex(st Style, depth int, v Vertex) string {
	uvs := renderListBlock(st, 0, "vertex_uvs", intListItems(v.VertexUVs), inlineList)
	return st.prefix(depth) + "vertex ( " + strings.ToLower(v.Flags) + " " + fmtInt(v.PointIndex) + " " +
		fmtInt(v.NormalIndex) + " " + strings.ToLower(v.Colour1) + " " + strings.ToLower(v.Colour2) + "\n" +
		st.prefix(depth+1) + uvs + "\n" +
		st.prefix(depth) + ")"
}

func encodeVertexSet(st Style, depth int, vs VertexSet) string {
	return st.prefix(depth) + "vertex_set ( " + fmtInt(vs.VtxState) + " " +
		fmtInt(vs.VtxStartIndex) + " " + fmtInt(vs.VtxCount) + " )"
}

// encodeIndexedTrilist flattens the triplets and pairs back into the raw
// value lists; vertex_idxs declares its value count, normal_idxs its pair
// count.
func encodeIndexedTrilist(st Style, depth int, tl IndexedTrilist) string {
	vertexVals := make([]int, 0, len(tl.VertexIndices)*3)
	for _, vi := range tl.VertexIndices {
		vertexVals = append(vertexVals, vi.Vertex1, vi.Vertex2, vi.Vertex3)
	}
	normalVals := make([]int, 0, len(tl.NormalIndices)*2)
	for _, ni := range tl.NormalIndices {
		normalVals = append(normalVals, ni.Index, ni.Unknown2)
	}
	flags := make([]string, len(tl.Flags))
	for i, f := range tl.Flags {
		flags[i] = strings.ToLower(f)
	}
	normalLayout := inlineList
	normalLayout.countMultiplier = 0.5
	return st.prefix(depth) + "indexed_trilist (\n" +
		renderListBlock(st, depth+1, "vertex_idxs", intListItems(vertexVals), inlineList) + "\n" +
		renderListBlock(st, depth+1, "normal_idxs", intListItems(normalVals), normalLayout) + "\n" +
		renderListBlock(st, depth+1, "flags", flags, inlineList) + "\n" +
		st.prefix(depth) + ")"
}

// encodePrimitives interleaves prim_state_idx markers with trilists; a
// marker is emitted whenever the state differs from the previous
// primitive. The declared count covers both block kinds.
func encodePrimitives(st Style, depth int, prims []Primitive) string {
	var lines []string
	state, haveState := 0, false
	for _, p := range prims {
		if !haveState || p.PrimStateIndex != state {
			lines = append(lines, st.prefix(depth+1)+"prim_state_idx ( "+fmtInt(p.PrimStateIndex)+" )")
			state, haveState = p.PrimStateIndex, true
		}
		lines = append(lines, encodeIndexedTrilist(st, depth+1, p.Trilist))
	}
	if len(lines) == 0 {
		return st.prefix(depth) + "primitives ( 0 )"
	}
	return st.prefix(depth) + "primitives ( " + strconv.Itoa(len(lines)) + "\n" +
		strings.Join(lines, "\n") + "\n" + st.prefix(depth) + ")"
}

func encodeCullablePrims(st Style, depth int, cp CullablePrims) string {
	return st.prefix(depth) + "cullable_prims ( " + fmtInt(cp.NumPrims) + " " +
		fmtInt(cp.NumFlatSections) + " " + fmtInt(cp.NumPrimIndices) + " )"
}

func encodeGeometryNode(st Style, depth int, gn GeometryNode) string {
	return st.prefix(depth) + "geometry_node ( " + fmtInt(gn.TXLightCmds) + " " +
		fmtInt(gn.NodeXTXLightCmds) + " " + fmtInt(gn.Trilists) + " " +
		fmtInt(gn.LineLists) + " " + fmtInt(gn.PtLists) + "\n" +
		encodeCullablePrims(st, depth+1, gn.CullablePrims) + "\n" +
		st.prefix(depth) + ")"
}

func encodeGeometryInfo(st Style, depth int, gi GeometryInfo) string {
	head := []int{
		gi.FaceNormals, gi.TXLightCmds, gi.NodeXTXLightCmds,
		gi.TrilistIndices, gi.LineListIndices, gi.NodeXTrilistIndices,
		gi.Trilists, gi.LineLists, gi.PtLists, gi.NodeXTrilists,
	}
	return st.prefix(depth) + "geometry_info ( " + strings.Join(intListItems(head), " ") + "\n" +
		encodeList(st, depth+1, "geometry_nodes", gi.GeometryNodes, oneItemPerLine, encodeGeometryNode) + "\n" +
		renderListBlock(st, depth+1, "geometry_node_map", intListItems(gi.GeometryNodeMap), inlineList) + "\n" +
		st.prefix(depth) + ")"
}

func encodeSubObjectHeader(st Style, depth int, h SubObjectHeader) string {
	return st.prefix(depth) + "sub_object_header ( " + strings.ToLower(h.Flags) + " " +
		fmtInt(h.SortVectorIndex) + " " + fmtInt(h.VolumeIndex) + " " +
		strings.ToLower(h.SourceVtxFmtFlags) + " " + strings.ToLower(h.DestinationVtxFmtFlags) + "\n" +
		encodeGeometryInfo(st, depth+1, h.GeometryInfo) + "\n" +
		renderListBlock(st, depth+1, "subobject_shaders", intListItems(h.SubObjectShaders), inlineList) + "\n" +
		renderListBlock(st, depth+1, "subobject_light_cfgs", intListItems(h.SubObjectLightCfgs), inlineList) + " " + fmtInt(h.SubObjectID) + "\n" +
		st.prefix(depth) + ")"
}

func encodeSubObject(st Style, depth int, so SubObject) string {
	return st.prefix(depth) + "sub_object (\n" +
		encodeSubObjectHeader(st, depth+1, so.Header) + "\n" +
		encodeList(st, depth+1, "vertices", so.Vertices, oneItemPerLine, encodeVertex) + "\n" +
		encodeList(st, depth+1, "vertex_sets", so.VertexSets, oneItemPerLine, encodeVertexSet) + "\n" +
		encodePrimitives(st, depth+1, so.Primitives) + "\n" +
		st.prefix(depth) + ")"
}

func encodeDistanceLevelHeader(st Style, depth int, h DistanceLevelHeader) string {
	return st.prefix(depth) + "distance_level_header (\n" +
		st.prefix(depth+1) + "dlevel_selection ( " + fmtInt(h.DLevelSelection) + " )\n" +
		renderListBlock(st, depth+1, "hierarchy", intListItems(h.Hierarchy), inlineList) + "\n" +
		st.prefix(depth) + ")"
}

func encodeDistanceLevel(st Style, depth int, dl DistanceLevel) string {
	subLayout := oneItemPerLine
	subLayout.multilineWhenEmpty = true
	return st.prefix(depth) + "distance_level (\n" +
		encodeDistanceLevelHeader(st, depth+1, dl.Header) + "\n" +
		encodeList(st, depth+1, "sub_objects", dl.SubObjects, subLayout, encodeSubObject) + "\n" +
		st.prefix(depth) + ")"
}

func encodeLodControl(st Style, depth int, lc LodControl) string {
	levelLayout := oneItemPerLine
	levelLayout.multilineWhenEmpty = true
	return st.prefix(depth) + "lod_control (\n" +
		st.prefix(depth+1) + "distance_levels_header ( " + fmtInt(lc.DistanceLevelsHeader.DLevelBias) + " )\n" +
		encodeList(st, depth+1, "distance_levels", lc.DistanceLevels, levelLayout, encodeDistanceLevel) + "\n" +
		st.prefix(depth) + ")"
}

// encodeKeyPosition renders the variant keyword and its fixed run of
// values; arity was enforced when the key was built or decoded.
func encodeKeyPosition(st Style, depth int, k KeyPosition) string {
	parts := make([]string, len(k.Values))
	for i, v := range k.Values {
		parts[i] = fmtFloat(v)
	}
	return st.prefix(depth) + k.Kind.Keyword() + " ( " + strings.Join(parts, " ") + " )"
}

func encodeController(st Style, depth int, c Controller) string {
	return encodeList(st, depth, c.Kind.Keyword(), c.Keys, oneItemPerLine, encodeKeyPosition)
}

func encodeAnimNode(st Style, depth int, n AnimationNode) string {
	return st.prefix(depth) + "anim_node " + n.Name + " (\n" +
		encodeList(st, depth+1, "controllers", n.Controllers, oneItemPerLine, encodeController) + "\n" +
		st.prefix(depth) + ")"
}

func encodeAnimation(st Style, depth int, a Animation) string {
	return st.prefix(depth) + "animation ( " + fmtInt(a.FrameCount) + " " + fmtInt(a.FrameRate) + "\n" +
		encodeList(st, depth+1, "anim_nodes", a.Nodes, oneItemPerLine, encodeAnimNode) + "\n" +
		st.prefix(depth) + ")"
}

func encodeShapeHeader(st Style, depth int, h ShapeHeader) string {
	return st.prefix(depth) + "shape_header ( " + strings.ToLower(h.Flags1) + " " + strings.ToLower(h.Flags2) + " )"
}

// ---------------------------------------------------------------------------
// Encode-side argument validation. Go's types rule out most misuse, but
// hex words and name tokens are plain strings and must fit the grammar.

func checkHexArg(field, val string) error {
	if !hexWord.MatchString(val) {
		return fmt.Errorf("%w: %s %q is not an 8-digit hex word", ErrInvalidArgument, field, val)
	}
	return nil
}

var nameBreak = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "(", "", ")", "")

func checkNameArg(field, val string) error {
	if val == "" || nameBreak.Replace(val) != val {
		return fmt.Errorf("%w: %s %q is not a bare word token", ErrInvalidArgument, field, val)
	}
	return nil
}

// checkEncodable validates every hex and name field of the shape before
// serialization, so the serializers themselves stay infallible.
func checkEncodable(s *Shape) error {
	if err := checkHexArg("shape_header flags", s.Header.Flags1); err != nil {
		return err
	}
	if err := checkHexArg("shape_header flags", s.Header.Flags2); err != nil {
		return err
	}
	for _, n := range s.ShaderNames {
		if err := checkNameArg("named_shader", n); err != nil {
			return err
		}
	}
	for _, n := range s.TextureFilterNames {
		if err := checkNameArg("named_filter_mode", n); err != nil {
			return err
		}
	}
	for _, m := range s.Matrices {
		if err := checkNameArg("matrix name", m.Name); err != nil {
			return err
		}
	}
	for _, n := range s.Images {
		if err := checkNameArg("image", n); err != nil {
			return err
		}
	}
	for _, t := range s.Textures {
		if err := checkHexArg("texture border colour", t.BorderColour); err != nil {
			return err
		}
	}
	for _, m := range s.LightMaterials {
		if err := checkHexArg("light_material flags", m.Flags); err != nil {
			return err
		}
	}
	for _, c := range s.LightModelCfgs {
		if err := checkHexArg("light_model_cfg flags", c.Flags); err != nil {
			return err
		}
	}
	for _, vs := range s.VtxStates {
		if err := checkHexArg("vtx_state flags", vs.Flags); err != nil {
			return err
		}
		if err := checkHexArg("vtx_state light flags", vs.LightFlags); err != nil {
			return err
		}
	}
	for _, ps := range s.PrimStates {
		if err := checkNameArg("prim_state name", ps.Name); err != nil {
			return err
		}
		if err := checkHexArg("prim_state flags", ps.Flags); err != nil {
			return err
		}
	}
	for _, lc := range s.LodControls {
		for _, dl := range lc.DistanceLevels {
			for _, so := range dl.SubObjects {
				if err := checkSubObject(so); err != nil {
					return err
				}
			}
		}
	}
	for _, a := range s.Animations {
		for _, n := range a.Nodes {
			if err := checkNameArg("anim_node name", n.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSubObject(so SubObject) error {
	h := so.Header
	for field, val := range map[string]string{
		"sub_object_header flags":      h.Flags,
		"source vtx format flags":      h.SourceVtxFmtFlags,
		"destination vtx format flags": h.DestinationVtxFmtFlags,
	} {
		if err := checkHexArg(field, val); err != nil {
			return err
		}
	}
	for _, v := range so.Vertices {
		if err := checkHexArg("vertex flags", v.Flags); err != nil {
			return err
		}
		if err := checkHexArg("vertex colour1", v.Colour1); err != nil {
			return err
		}
		if err := checkHexArg("vertex colour2", v.Colour2); err != nil {
			return err
		}
	}
	for _, p := range so.Primitives {
		for _, f := range p.Trilist.Flags {
			if err := checkHexArg("indexed_trilist flags", f); err != nil {
				return err
			}
		}
	}
	return nil
}
