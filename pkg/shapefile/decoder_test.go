package shapefile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVector(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Vector
		ok    bool
	}{
		{"plain", "vector ( 1 2 3 )", Vector{1, 2, 3}, true},
		{"negative and decimal", "vector ( -1.5 0.25 1e3 )", Vector{-1.5, 0.25, 1000}, true},
		{"tight parens", "vector (1 2 3)", Vector{1, 2, 3}, true},
		{"missing value", "vector ( 1 2 )", Vector{}, false},
		{"extra value", "vector ( 1 2 3 4 )", Vector{}, false},
		{"trailing junk", "vector ( 1 2 3 ) x", Vector{}, false},
		{"joined tokens rejected", "vector ( 12 3 )", Vector{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVector(tt.input)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	v, err := parseVector("VECTOR ( 1 2 3 )")
	require.NoError(t, err)
	require.Equal(t, Vector{1, 2, 3}, v)

	op, err := parseUVOp("UV_OP_Copy ( 1 0 )")
	require.NoError(t, err)
	require.Equal(t, UVOp{Kind: UVOpCopy, TextureAddressMode: 1}, op)

	pts, err := parseList("Points ( 1 Point ( 1 2 3 ) )", "points", "point", false, parsePoint)
	require.NoError(t, err)
	require.Equal(t, []Point{{1, 2, 3}}, pts)

	cfg, err := parseLightModelCfg("LIGHT_MODEL_CFG ( 00000000 UV_Ops ( 1 uv_op_copy ( 1 0 ) ) )")
	require.NoError(t, err)
	require.Equal(t, LightModelCfg{Flags: "00000000", UVOps: []UVOp{{Kind: UVOpCopy, TextureAddressMode: 1}}}, cfg)
}

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix("matrix MAIN ( 1 0 0 0 1 0 0 0 1 0.5 -18 0 )")
	require.NoError(t, err)
	require.Equal(t, "MAIN", m.Name)
	require.Equal(t, 1.0, m.AX)
	require.Equal(t, 1.0, m.BY)
	require.Equal(t, 1.0, m.CZ)
	require.Equal(t, 0.5, m.DX)
	require.Equal(t, -18.0, m.DY)

	_, err = parseMatrix("matrix MAIN ( 1 0 0 0 1 0 0 0 1 0.5 -18 )")
	require.ErrorIs(t, err, ErrMalformedBlock)
}

func TestParseVolumeSphere(t *testing.T) {
	v, err := parseVolumeSphere("vol_sphere (\n\tvector ( 0 1.5 0 ) 12.5\n)")
	require.NoError(t, err)
	require.Equal(t, VolumeSphere{Vector: Vector{0, 1.5, 0}, Radius: 12.5}, v)
}

func TestParseTextureCanonicalizesHex(t *testing.T) {
	tex, err := parseTexture("texture ( 0 0 -3 FF000000 )")
	require.NoError(t, err)
	require.Equal(t, Texture{ImageIndex: 0, FilterMode: 0, MipmapLODBias: -3, BorderColour: "ff000000"}, tex)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"ff000000", "ff000000", true},
		{"FF0000AB", "ff0000ab", true},
		{"00000000", "00000000", true},
		{"ff00", "", false},       // too short
		{"ff000000ab", "", false}, // too long
		{"gg000000", "", false},   // not hex
	}
	for _, tt := range tests {
		got, err := parseHex(tt.input)
		if !tt.ok {
			require.ErrorIs(t, err, ErrTokenFormat, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		require.Equal(t, tt.want, got)
	}
}

func TestParseVtxStateOptionalField(t *testing.T) {
	vs, err := parseVtxState("vtx_state ( 00000000 1 -5 0 00000002 )")
	require.NoError(t, err)
	require.Nil(t, vs.Matrix2Index)
	require.Equal(t, 1, vs.MatrixIndex)
	require.Equal(t, -5, vs.LightMaterialIndex)
	require.Equal(t, "00000002", vs.LightFlags)

	vs, err = parseVtxState("vtx_state ( 00000000 1 -5 0 00000002 3 )")
	require.NoError(t, err)
	require.NotNil(t, vs.Matrix2Index)
	require.Equal(t, 3, *vs.Matrix2Index)
}

func TestParseUVOp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  UVOp
		err   error
	}{
		{"copy", "uv_op_copy ( 1 0 )", UVOp{Kind: UVOpCopy, TextureAddressMode: 1}, nil},
		{"reflectmapfull", "uv_op_reflectmapfull ( 2 )", UVOp{Kind: UVOpReflectMapFull, TextureAddressMode: 2}, nil},
		{"reflectmap", "uv_op_reflectmap ( 1 )", UVOp{Kind: UVOpReflectMap, TextureAddressMode: 1}, nil},
		{"uniformscale", "uv_op_uniformscale ( 1 0 2 3 )", UVOp{Kind: UVOpUniformScale, TextureAddressMode: 1, SourceUVIndex: 0, Unknown3: 2, Unknown4: 3}, nil},
		{"nonuniformscale", "uv_op_nonuniformscale ( 1 1 2 3 )", UVOp{Kind: UVOpNonUniformScale, TextureAddressMode: 1, SourceUVIndex: 1, Unknown3: 2, Unknown4: 3}, nil},
		{"unknown keyword", "uv_op_spherical ( 1 )", UVOp{}, ErrUnknownVariant},
		{"copy wrong arity", "uv_op_copy ( 1 )", UVOp{}, ErrUnknownVariant},
		{"reflectmap wrong arity", "uv_op_reflectmap ( 1 2 )", UVOp{}, ErrUnknownVariant},
		{"uniformscale wrong arity", "uv_op_uniformscale ( 1 0 2 )", UVOp{}, ErrUnknownVariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUVOp(tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyPosition(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  KeyKind
		count int
		err   error
	}{
		{"slerp", "slerp_rot ( 0 0 0.7071 0 0.7071 )", KeySlerpRot, 5, nil},
		{"linear", "linear_key ( 0 0 1.25 0 )", KeyLinear, 4, nil},
		{"tcb", "tcb_key ( 0 0 0 0 1 0 0 0 0 0 )", KeyTCB, 10, nil},
		{"slerp wrong arity", "slerp_rot ( 0 0 0.7071 0 )", 0, 0, ErrUnknownVariant},
		{"unknown kind", "bezier_key ( 0 0 0 )", 0, 0, ErrUnknownVariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyPosition(tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.kind, got.Kind)
			require.Len(t, got.Values, tt.count)
		})
	}
}

func TestParseController(t *testing.T) {
	c, err := parseController("tcb_rot ( 2\n\tslerp_rot ( 0 0 0 0 1 )\n\tslerp_rot ( 8 0 0.7071 0 0.7071 )\n)")
	require.NoError(t, err)
	require.Equal(t, ControllerTCBRot, c.Kind)
	require.Len(t, c.Keys, 2)
	require.Equal(t, KeySlerpRot, c.Keys[0].Kind)

	_, err = parseController("tcb_rot ( 3\n\tslerp_rot ( 0 0 0 0 1 )\n)")
	require.ErrorIs(t, err, ErrCountMismatch)

	_, err = parseController("spline_rot ( 0\n)")
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestParseListCountMismatch(t *testing.T) {
	_, err := parseList("points ( 3\n\tpoint ( 0 0 0 )\n\tpoint ( 1 1 1 )\n)", "points", "point", false, parsePoint)
	require.ErrorIs(t, err, ErrCountMismatch)

	pts, err := parseList("points ( 2\n\tpoint ( 0 0 0 )\n\tpoint ( 1 1 1 )\n)", "points", "point", false, parsePoint)
	require.NoError(t, err)
	require.Equal(t, []Point{{0, 0, 0}, {1, 1, 1}}, pts)
}

func TestParseLightModelCfg(t *testing.T) {
	cfg, err := parseLightModelCfg("light_model_cfg ( 00000000\n\tuv_ops ( 1\n\t\tuv_op_copy ( 1 0 )\n\t)\n)")
	require.NoError(t, err)
	require.Equal(t, "00000000", cfg.Flags)
	require.Len(t, cfg.UVOps, 1)
	require.Equal(t, UVOpCopy, cfg.UVOps[0].Kind)
}

func TestParsePrimState(t *testing.T) {
	ps, err := parsePrimState("prim_state wall ( 00000000 0\n\ttex_idxs ( 1 0 ) 0 0 0 0 1\n)")
	require.NoError(t, err)
	require.Equal(t, PrimState{
		Name:           "wall",
		Flags:          "00000000",
		ShaderIndex:    0,
		TextureIndices: []int{0},
		ZBias:          0,
		VtxStateIndex:  0,
		AlphaTestMode:  0,
		LightCfgIndex:  0,
		ZBufferMode:    1,
	}, ps)

	_, err = parsePrimState("prim_state ( 00000000 0\n\ttex_idxs ( 0 ) 0 0 0 0 1\n)")
	require.ErrorIs(t, err, ErrMalformedBlock)
}

func TestParseVertex(t *testing.T) {
	v, err := parseVertex("vertex ( 00000000 2 0 FFFFFFFF FF000000\n\tvertex_uvs ( 1 2 )\n)")
	require.NoError(t, err)
	require.Equal(t, Vertex{
		Flags:       "00000000",
		PointIndex:  2,
		NormalIndex: 0,
		Colour1:     "ffffffff",
		Colour2:     "ff000000",
		VertexUVs:   []int{2},
	}, v)
}

func TestParseIndexedTrilist(t *testing.T) {
	tl, err := parseIndexedTrilist("indexed_trilist (\n\tvertex_idxs ( 6 0 1 2 0 2 3 )\n\tnormal_idxs ( 2 0 3 1 3 )\n\tflags ( 2 00000000 00000000 )\n)")
	require.NoError(t, err)
	require.Equal(t, []VertexIdx{{0, 1, 2}, {0, 2, 3}}, tl.VertexIndices)
	require.Equal(t, []NormalIdx{{0, 3}, {1, 3}}, tl.NormalIndices)
	require.Equal(t, []string{"00000000", "00000000"}, tl.Flags)

	// vertex_idxs declares raw values, not triangles
	_, err = parseIndexedTrilist("indexed_trilist (\n\tvertex_idxs ( 2 0 1 2 0 2 3 )\n\tnormal_idxs ( 2 0 3 1 3 )\n\tflags ( 2 00000000 00000000 )\n)")
	require.ErrorIs(t, err, ErrCountMismatch)

	// normal_idxs declares pairs, half its value count
	_, err = parseIndexedTrilist("indexed_trilist (\n\tvertex_idxs ( 6 0 1 2 0 2 3 )\n\tnormal_idxs ( 4 0 3 1 3 )\n\tflags ( 2 00000000 00000000 )\n)")
	require.ErrorIs(t, err, ErrCountMismatch)
}

func TestParsePrimitivesStateInheritance(t *testing.T) {
	trilist := "indexed_trilist (\n\tvertex_idxs ( 3 0 1 2 )\n\tnormal_idxs ( 1 0 3 )\n\tflags ( 1 00000000 )\n)"
	doc := "primitives ( 5\n" +
		"\tprim_state_idx ( 1 )\n\t" + trilist + "\n\t" + trilist + "\n" +
		"\tprim_state_idx ( 0 )\n\t" + trilist + "\n)"
	prims, err := parsePrimitives(doc)
	require.NoError(t, err)
	require.Len(t, prims, 3)
	require.Equal(t, 1, prims[0].PrimStateIndex)
	require.Equal(t, 1, prims[1].PrimStateIndex)
	require.Equal(t, 0, prims[2].PrimStateIndex)

	// declared count covers prim_state_idx blocks too
	short := "primitives ( 3\n\tprim_state_idx ( 1 )\n\t" + trilist + "\n)"
	_, err = parsePrimitives(short)
	require.ErrorIs(t, err, ErrCountMismatch)
}

func TestParseAnimation(t *testing.T) {
	doc := `animation ( 8 30
	anim_nodes ( 1
		anim_node MAIN (
			controllers ( 2
				tcb_rot ( 1
					slerp_rot ( 0 0 0 0 1 )
				)
				linear_pos ( 2
					linear_key ( 0 0 1.25 0 )
					linear_key ( 8 0 2.5 0 )
				)
			)
		)
	)
)`
	a, err := parseAnimation(doc)
	require.NoError(t, err)
	require.Equal(t, 8, a.FrameCount)
	require.Equal(t, 30, a.FrameRate)
	require.Len(t, a.Nodes, 1)
	require.Equal(t, "MAIN", a.Nodes[0].Name)
	require.Len(t, a.Nodes[0].Controllers, 2)
	require.Equal(t, ControllerTCBRot, a.Nodes[0].Controllers[0].Kind)
	require.Equal(t, ControllerLinearPos, a.Nodes[0].Controllers[1].Kind)
	require.Equal(t, []float64{8, 0, 2.5, 0}, a.Nodes[0].Controllers[1].Keys[1].Values)
}

func TestParseSubObject(t *testing.T) {
	doc := `sub_object (
	sub_object_header ( 00000000 -1 -1 000001d2 000001c4
		geometry_info ( 2 0 0 6 0 0 2 0 0 0
			geometry_nodes ( 1
				geometry_node ( 0 0 1 0 0
					cullable_prims ( 1 2 6 )
				)
			)
			geometry_node_map ( 1 0 )
		)
		subobject_shaders ( 1 0 )
		subobject_light_cfgs ( 1 0 ) 0
	)
	vertices ( 3
		vertex ( 00000000 0 0 ffffffff ff000000
			vertex_uvs ( 1 0 )
		)
		vertex ( 00000000 1 0 ffffffff ff000000
			vertex_uvs ( 1 1 )
		)
		vertex ( 00000000 2 1 ffffffff ff000000
			vertex_uvs ( 1 2 )
		)
	)
	vertex_sets ( 1
		vertex_set ( 0 0 3 )
	)
	primitives ( 2
		prim_state_idx ( 0 )
		indexed_trilist (
			vertex_idxs ( 3 0 1 2 )
			normal_idxs ( 1 0 3 )
			flags ( 1 00000000 )
		)
	)
)`
	so, err := parseSubObject(doc)
	require.NoError(t, err)
	require.Equal(t, "00000000", so.Header.Flags)
	require.Equal(t, -1, so.Header.SortVectorIndex)
	require.Equal(t, "000001d2", so.Header.SourceVtxFmtFlags)
	require.Equal(t, "000001c4", so.Header.DestinationVtxFmtFlags)
	require.Equal(t, 2, so.Header.GeometryInfo.FaceNormals)
	require.Equal(t, 6, so.Header.GeometryInfo.TrilistIndices)
	require.Len(t, so.Header.GeometryInfo.GeometryNodes, 1)
	require.Equal(t, CullablePrims{1, 2, 6}, so.Header.GeometryInfo.GeometryNodes[0].CullablePrims)
	require.Equal(t, []int{0}, so.Header.GeometryInfo.GeometryNodeMap)
	require.Equal(t, []int{0}, so.Header.SubObjectShaders)
	require.Equal(t, 0, so.Header.SubObjectID)
	require.Len(t, so.Vertices, 3)
	require.Equal(t, []VertexSet{{0, 0, 3}}, so.VertexSets)
	require.Len(t, so.Primitives, 1)
}

func TestParseLodControl(t *testing.T) {
	doc := `lod_control (
	distance_levels_header ( 0 )
	distance_levels ( 1
		distance_level (
			distance_level_header (
				dlevel_selection ( 2000 )
				hierarchy ( 1 -1 )
			)
			sub_objects ( 0
			)
		)
	)
)`
	lc, err := parseLodControl(doc)
	require.NoError(t, err)
	require.Equal(t, 0, lc.DistanceLevelsHeader.DLevelBias)
	require.Len(t, lc.DistanceLevels, 1)
	require.Equal(t, 2000, lc.DistanceLevels[0].Header.DLevelSelection)
	require.Equal(t, []int{-1}, lc.DistanceLevels[0].Header.Hierarchy)
	require.Empty(t, lc.DistanceLevels[0].SubObjects)
}
