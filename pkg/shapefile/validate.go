package shapefile

import "fmt"

// Validate checks every cross-reference index in the shape against the
// bounds of its target table. Decoding never enforces these; files in
// the wild are occasionally sloppy, so referential integrity is an
// explicit opt-in.
func Validate(s *Shape) error {
	for i, t := range s.Textures {
		if err := checkIndex("texture", i, "image", t.ImageIndex, len(s.Images)); err != nil {
			return err
		}
		if err := checkIndex("texture", i, "filter mode", t.FilterMode, len(s.TextureFilterNames)); err != nil {
			return err
		}
	}
	for i, m := range s.LightMaterials {
		for _, ref := range []struct {
			field string
			idx   int
		}{
			{"diffuse colour", m.DiffColourIndex},
			{"ambient colour", m.AmbColourIndex},
			{"specular colour", m.SpecColourIndex},
			{"emissive colour", m.EmissiveColourIndex},
		} {
			if err := checkIndex("light_material", i, ref.field, ref.idx, len(s.Colours)); err != nil {
				return err
			}
		}
	}
	for i, vs := range s.VtxStates {
		if err := checkIndex("vtx_state", i, "matrix", vs.MatrixIndex, len(s.Matrices)); err != nil {
			return err
		}
		if vs.Matrix2Index != nil {
			if err := checkIndex("vtx_state", i, "second matrix", *vs.Matrix2Index, len(s.Matrices)); err != nil {
				return err
			}
		}
		if err := checkIndex("vtx_state", i, "light material", vs.LightMaterialIndex, len(s.LightMaterials)); err != nil {
			return err
		}
		if err := checkIndex("vtx_state", i, "light model cfg", vs.LightModelCfgIndex, len(s.LightModelCfgs)); err != nil {
			return err
		}
	}
	for i, ps := range s.PrimStates {
		if err := checkIndex("prim_state", i, "shader", ps.ShaderIndex, len(s.ShaderNames)); err != nil {
			return err
		}
		for _, ti := range ps.TextureIndices {
			if err := checkIndex("prim_state", i, "texture", ti, len(s.Textures)); err != nil {
				return err
			}
		}
		if err := checkIndex("prim_state", i, "vtx_state", ps.VtxStateIndex, len(s.VtxStates)); err != nil {
			return err
		}
	}
	for li, lc := range s.LodControls {
		for di, dl := range lc.DistanceLevels {
			for _, h := range dl.Header.Hierarchy {
				// -1 marks the hierarchy root.
				if h == -1 {
					continue
				}
				if err := checkIndex("distance_level", di, "hierarchy matrix", h, len(s.Matrices)); err != nil {
					return err
				}
			}
			for si, so := range dl.SubObjects {
				if err := validateSubObject(s, li, di, si, so); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateSubObject(s *Shape, li, di, si int, so SubObject) error {
	where := fmt.Sprintf("lod_control %d distance_level %d sub_object %d", li, di, si)
	for i, v := range so.Vertices {
		if err := checkIndex(where+" vertex", i, "point", v.PointIndex, len(s.Points)); err != nil {
			return err
		}
		if err := checkIndex(where+" vertex", i, "normal", v.NormalIndex, len(s.Normals)); err != nil {
			return err
		}
		for _, uv := range v.VertexUVs {
			if err := checkIndex(where+" vertex", i, "uv point", uv, len(s.UVPoints)); err != nil {
				return err
			}
		}
	}
	for i, vs := range so.VertexSets {
		if err := checkIndex(where+" vertex_set", i, "vtx_state", vs.VtxState, len(s.VtxStates)); err != nil {
			return err
		}
		if vs.VtxCount > 0 {
			if err := checkIndex(where+" vertex_set", i, "vertex range end", vs.VtxStartIndex+vs.VtxCount-1, len(so.Vertices)); err != nil {
				return err
			}
		}
	}
	for i, p := range so.Primitives {
		if err := checkIndex(where+" primitive", i, "prim_state", p.PrimStateIndex, len(s.PrimStates)); err != nil {
			return err
		}
		for _, vi := range p.Trilist.VertexIndices {
			for _, v := range []int{vi.Vertex1, vi.Vertex2, vi.Vertex3} {
				if err := checkIndex(where+" primitive", i, "vertex", v, len(so.Vertices)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkIndex(owner string, ownerIdx int, field string, idx, n int) error {
	if idx < 0 || idx >= n {
		return fmt.Errorf("%w: %s %d references %s %d, table has %d entries",
			ErrIndexOutOfRange, owner, ownerIdx, field, idx, n)
	}
	return nil
}
