package shapefile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFmtFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "1"},
		{1.5, "1.5"},
		{0.25, "0.25"},
		{-18, "-18"},
		{40.18, "40.18"},
		{0.7071, "0.7071"},
		{1234567, "1.23457e+06"},
		{0.000123456789, "0.000123457"},
		{0, "0"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, fmtFloat(tt.in))
	}
}

func TestRenderListBlockLayouts(t *testing.T) {
	st := DefaultStyle()
	items := []string{"a", "b", "c"}
	tests := []struct {
		name string
		lay  listLayout
		want string
	}{
		{
			"one per line",
			listLayout{itemsPerLine: 1, newlineAfterHeader: true, newlineBeforeClosing: true},
			"\tlist ( 3\n\t\ta\n\t\tb\n\t\tc\n\t)",
		},
		{
			"first item on header line",
			listLayout{itemsPerLine: 1, newlineAfterHeader: false, newlineBeforeClosing: true},
			"\tlist ( 3 a\n\t\tb\n\t\tc\n\t)",
		},
		{
			"closing on last line",
			listLayout{itemsPerLine: 1, newlineAfterHeader: true, newlineBeforeClosing: false},
			"\tlist ( 3\n\t\ta\n\t\tb\n\t\tc )",
		},
		{
			"two per line",
			listLayout{itemsPerLine: 2, newlineAfterHeader: true, newlineBeforeClosing: true},
			"\tlist ( 3\n\t\ta b\n\t\tc\n\t)",
		},
		{
			"inline",
			listLayout{},
			"\tlist ( 3 a b c )",
		},
		{
			"unbounded on own line carries no indent",
			listLayout{itemsPerLine: 0, newlineAfterHeader: true, newlineBeforeClosing: true},
			"\tlist ( 3\na b c\n\t)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, renderListBlock(st, 1, "list", items, tt.lay))
		})
	}
}

func TestRenderListBlockEmpty(t *testing.T) {
	st := DefaultStyle()
	require.Equal(t, "\tlist ( 0 )", renderListBlock(st, 1, "list", nil, oneItemPerLine))

	forced := oneItemPerLine
	forced.multilineWhenEmpty = true
	require.Equal(t, "\tlist ( 0\n\t)", renderListBlock(st, 1, "list", nil, forced))
}

func TestRenderListBlockCountMultiplier(t *testing.T) {
	st := DefaultStyle()
	lay := listLayout{countMultiplier: 0.5}
	got := renderListBlock(st, 0, "normal_idxs", []string{"0", "3", "1", "3"}, lay)
	require.Equal(t, "normal_idxs ( 2 0 3 1 3 )", got)
}

func TestSpaceIndentStyle(t *testing.T) {
	st := Style{Indent: 2, UseTabs: false}
	got := renderListBlock(st, 1, "list", []string{"a"}, oneItemPerLine)
	require.Equal(t, "  list ( 1\n    a\n  )", got)
}

func TestEncodeRecords(t *testing.T) {
	st := DefaultStyle()
	m2 := 3
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"vector", encodeVector(st, 0, Vector{1, 2, 3}), "vector ( 1 2 3 )"},
		{"point", encodePoint(st, 0, Point{0, 1.5, -2}), "point ( 0 1.5 -2 )"},
		{"uv_point", encodeUVPoint(st, 0, UVPoint{0.5, 1}), "uv_point ( 0.5 1 )"},
		{"colour", encodeColour(st, 0, Colour{1, 0.5, 0.5, 0.5}), "colour ( 1 0.5 0.5 0.5 )"},
		{
			"matrix",
			encodeMatrix(st, 0, Matrix{Name: "MAIN", AX: 1, BY: 1, CZ: 1, DX: 0.5, DY: -18}),
			"matrix MAIN ( 1 0 0 0 1 0 0 0 1 0.5 -18 0 )",
		},
		{
			"vol_sphere",
			encodeVolumeSphere(st, 0, VolumeSphere{Vector: Vector{0, 1.5, 0}, Radius: 12.5}),
			"vol_sphere (\n\tvector ( 0 1.5 0 ) 12.5\n)",
		},
		{
			"texture",
			encodeTexture(st, 0, Texture{ImageIndex: 0, FilterMode: 0, MipmapLODBias: -3, BorderColour: "FF000000"}),
			"texture ( 0 0 -3 ff000000 )",
		},
		{
			"light_material",
			encodeLightMaterial(st, 0, LightMaterial{Flags: "00000000", SpecPower: 25.6}),
			"light_material ( 00000000 0 0 0 0 25.6 )",
		},
		{
			"vtx_state",
			encodeVtxState(st, 0, VtxState{Flags: "00000000", MatrixIndex: 1, LightMaterialIndex: -5, LightFlags: "00000002"}),
			"vtx_state ( 00000000 1 -5 0 00000002 )",
		},
		{
			"vtx_state with second matrix",
			encodeVtxState(st, 0, VtxState{Flags: "00000000", MatrixIndex: 1, LightMaterialIndex: -5, LightFlags: "00000002", Matrix2Index: &m2}),
			"vtx_state ( 00000000 1 -5 0 00000002 3 )",
		},
		{"uv_op copy", encodeUVOp(st, 0, UVOp{Kind: UVOpCopy, TextureAddressMode: 1}), "uv_op_copy ( 1 0 )"},
		{"uv_op reflectmap", encodeUVOp(st, 0, UVOp{Kind: UVOpReflectMap, TextureAddressMode: 2}), "uv_op_reflectmap ( 2 )"},
		{
			"uv_op uniformscale",
			encodeUVOp(st, 0, UVOp{Kind: UVOpUniformScale, TextureAddressMode: 1, SourceUVIndex: 0, Unknown3: 2, Unknown4: 3}),
			"uv_op_uniformscale ( 1 0 2 3 )",
		},
		{
			"light_model_cfg",
			encodeLightModelCfg(st, 0, LightModelCfg{Flags: "00000000", UVOps: []UVOp{{Kind: UVOpCopy, TextureAddressMode: 1}}}),
			"light_model_cfg ( 00000000\n\tuv_ops ( 1\n\t\tuv_op_copy ( 1 0 )\n\t)\n)",
		},
		{
			"prim_state",
			encodePrimState(st, 0, PrimState{
				Name: "wall", Flags: "00000000", ShaderIndex: 0, TextureIndices: []int{0},
				ZBias: 0, VtxStateIndex: 0, AlphaTestMode: 0, LightCfgIndex: 0, ZBufferMode: 1,
			}),
			"prim_state wall ( 00000000 0\n\ttex_idxs ( 1 0 ) 0 0 0 0 1\n)",
		},
		{
			"vertex",
			encodeVertex(st, 0, Vertex{
				Flags: "00000000", PointIndex: 2, NormalIndex: 0,
				Colour1: "ffffffff", Colour2: "ff000000", VertexUVs: []int{2},
			}),
			"vertex ( 00000000 2 0 ffffffff ff000000\n\tvertex_uvs ( 1 2 )\n)",
		},
		{"vertex_set", encodeVertexSet(st, 0, VertexSet{0, 0, 3}), "vertex_set ( 0 0 3 )"},
		{
			"indexed_trilist",
			encodeIndexedTrilist(st, 0, IndexedTrilist{
				VertexIndices: []VertexIdx{{0, 1, 2}, {0, 2, 3}},
				NormalIndices: []NormalIdx{{0, 3}, {1, 3}},
				Flags:         []string{"00000000", "00000000"},
			}),
			"indexed_trilist (\n\tvertex_idxs ( 6 0 1 2 0 2 3 )\n\tnormal_idxs ( 2 0 3 1 3 )\n\tflags ( 2 00000000 00000000 )\n)",
		},
		{
			"key position",
			encodeKeyPosition(st, 0, KeyPosition{Kind: KeySlerpRot, Values: []float64{0, 0, 0.7071, 0, 0.7071}}),
			"slerp_rot ( 0 0 0.7071 0 0.7071 )",
		},
		{
			"controller",
			encodeController(st, 0, Controller{Kind: ControllerTCBRot, Keys: []KeyPosition{
				{Kind: KeySlerpRot, Values: []float64{0, 0, 0, 0, 1}},
			}}),
			"tcb_rot ( 1\n\tslerp_rot ( 0 0 0 0 1 )\n)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEncodePrimitivesStateChanges(t *testing.T) {
	st := DefaultStyle()
	tl := IndexedTrilist{
		VertexIndices: []VertexIdx{{0, 1, 2}},
		NormalIndices: []NormalIdx{{0, 3}},
		Flags:         []string{"00000000"},
	}
	prims := []Primitive{
		{PrimStateIndex: 1, Trilist: tl},
		{PrimStateIndex: 1, Trilist: tl},
		{PrimStateIndex: 0, Trilist: tl},
	}
	got := encodePrimitives(st, 0, prims)

	trilist := "\tindexed_trilist (\n\t\tvertex_idxs ( 3 0 1 2 )\n\t\tnormal_idxs ( 1 0 3 )\n\t\tflags ( 1 00000000 )\n\t)"
	want := "primitives ( 5\n" +
		"\tprim_state_idx ( 1 )\n" + trilist + "\n" + trilist + "\n" +
		"\tprim_state_idx ( 0 )\n" + trilist + "\n)"
	require.Equal(t, want, got)

	require.Equal(t, "primitives ( 0 )", encodePrimitives(st, 0, nil))
}

func TestCheckEncodable(t *testing.T) {
	s := &Shape{Header: ShapeHeader{Flags1: "00000000", Flags2: "00000000"}}
	require.NoError(t, checkEncodable(s))

	s.Header.Flags2 = "xyz"
	require.ErrorIs(t, checkEncodable(s), ErrInvalidArgument)
	s.Header.Flags2 = "00000000"

	s.Matrices = []Matrix{{Name: "bad name"}}
	require.ErrorIs(t, checkEncodable(s), ErrInvalidArgument)
	s.Matrices = nil

	s.ShaderNames = []string{"Tex(Diff)"}
	require.ErrorIs(t, checkEncodable(s), ErrInvalidArgument)
}
