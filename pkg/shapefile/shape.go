// Package shapefile implements a bidirectional codec for the textual
// MSTS/Open Rails shape format. It decodes the parenthesized block grammar
// into an in-memory Shape graph and re-encodes that graph back into the
// same grammar, byte-for-byte compatible with the format's conventions
// (header signature, numeric formatting, indentation style).
package shapefile

// Shape is the root aggregate for one decoded shape document. Field order
// matches the file's grammar order. All list-valued fields are index
// spaces: other records reference entries by 0-based position.
type Shape struct {
	Header             ShapeHeader
	Volumes            []VolumeSphere
	ShaderNames        []string
	TextureFilterNames []string
	Points             []Point
	UVPoints           []UVPoint
	Normals            []Vector
	SortVectors        []Vector
	Colours            []Colour
	Matrices           []Matrix
	Images             []string
	Textures           []Texture
	LightMaterials     []LightMaterial
	LightModelCfgs     []LightModelCfg
	VtxStates          []VtxState
	PrimStates         []PrimState
	LodControls        []LodControl

	// Animations is nil when the file carries no animations block.
	Animations []Animation
}

// ShapeHeader holds the two hex flag words of the shape_header block.
type ShapeHeader struct {
	Flags1 string
	Flags2 string
}

// Vector is a direction in model space.
type Vector struct {
	X, Y, Z float64
}

// Point is a position in model space. Structurally identical to Vector but
// kept distinct because the grammar and the index spaces distinguish them.
type Point struct {
	X, Y, Z float64
}

// UVPoint is a texture coordinate pair.
type UVPoint struct {
	U, V float64
}

// Colour stores components in alpha, red, green, blue order. The field
// order matches the file grammar and must not be rearranged.
type Colour struct {
	A, R, G, B float64
}

// Matrix is a named 3x4 affine transform: three basis row vectors a, b, c
// and a translation d.
type Matrix struct {
	Name string
	AX, AY, AZ,
	BX, BY, BZ,
	CX, CY, CZ,
	DX, DY, DZ float64
}

// VolumeSphere is a bounding sphere used for culling.
type VolumeSphere struct {
	Vector Vector
	Radius float64
}

// Texture references an image and a filter mode by index.
type Texture struct {
	ImageIndex    int
	FilterMode    int
	MipmapLODBias float64
	BorderColour  string // 8 hex digits, ARGB
}

// LightMaterial references four colour-table entries by index.
type LightMaterial struct {
	Flags               string
	DiffColourIndex     int
	AmbColourIndex      int
	SpecColourIndex     int
	EmissiveColourIndex int
	SpecPower           float64
}

// LightModelCfg carries an ordered list of texture coordinate operations.
type LightModelCfg struct {
	Flags string
	UVOps []UVOp
}

// UVOpKind discriminates the closed set of uv_op variants.
type UVOpKind int

const (
	UVOpCopy UVOpKind = iota
	UVOpReflectMapFull
	UVOpReflectMap
	UVOpUniformScale
	UVOpNonUniformScale
)

// Keyword returns the grammar keyword for the variant.
func (k UVOpKind) Keyword() string {
	switch k {
	case UVOpCopy:
		return "uv_op_copy"
	case UVOpReflectMapFull:
		return "uv_op_reflectmapfull"
	case UVOpReflectMap:
		return "uv_op_reflectmap"
	case UVOpUniformScale:
		return "uv_op_uniformscale"
	case UVOpNonUniformScale:
		return "uv_op_nonuniformscale"
	default:
		return "uv_op_unknown"
	}
}

// arity returns the number of integer parameters the variant carries.
func (k UVOpKind) arity() int {
	switch k {
	case UVOpCopy:
		return 2
	case UVOpReflectMapFull, UVOpReflectMap:
		return 1
	case UVOpUniformScale, UVOpNonUniformScale:
		return 4
	default:
		return 0
	}
}

// UVOp is a texture-coordinate-generation operation. Which parameter
// fields are meaningful depends on Kind:
//
//	Copy:                        TextureAddressMode, SourceUVIndex
//	ReflectMapFull, ReflectMap:  TextureAddressMode
//	UniformScale, NonUniformScale: TextureAddressMode, SourceUVIndex,
//	                               Unknown3, Unknown4
type UVOp struct {
	Kind               UVOpKind
	TextureAddressMode int
	SourceUVIndex      int
	Unknown3           int
	Unknown4           int
}

// VtxState selects transform and lighting configuration for vertices.
// Matrix2Index is nil for the common five-field form; the grammar allows a
// sixth numeric field whose presence is detected structurally.
type VtxState struct {
	Flags              string
	MatrixIndex        int
	LightMaterialIndex int
	LightModelCfgIndex int
	LightFlags         string
	Matrix2Index       *int
}

// PrimState is a named render-state record referenced by primitives.
type PrimState struct {
	Name           string
	Flags          string
	ShaderIndex    int
	TextureIndices []int
	ZBias          float64
	VtxStateIndex  int
	AlphaTestMode  int
	LightCfgIndex  int
	ZBufferMode    int
}

// LodControl is the root of the level-of-detail hierarchy.
type LodControl struct {
	DistanceLevelsHeader DistanceLevelsHeader
	DistanceLevels       []DistanceLevel
}

// DistanceLevelsHeader holds the dlevel bias of a lod_control block.
type DistanceLevelsHeader struct {
	DLevelBias int
}

// DistanceLevel is one geometric resolution of the model.
type DistanceLevel struct {
	Header     DistanceLevelHeader
	SubObjects []SubObject
}

// DistanceLevelHeader holds the selection distance and the matrix
// hierarchy array (parent indices, -1 for roots).
type DistanceLevelHeader struct {
	DLevelSelection int
	Hierarchy       []int
}

// SubObject groups vertices and primitives sharing a render configuration.
type SubObject struct {
	Header     SubObjectHeader
	Vertices   []Vertex
	VertexSets []VertexSet
	Primitives []Primitive
}

// SubObjectHeader carries the sub-object render flags and geometry budget.
type SubObjectHeader struct {
	Flags                  string
	SortVectorIndex        int
	VolumeIndex            int
	SourceVtxFmtFlags      string
	DestinationVtxFmtFlags string
	GeometryInfo           GeometryInfo
	SubObjectShaders       []int
	SubObjectLightCfgs     []int
	SubObjectID            int
}

// GeometryInfo summarizes the geometry volume of a sub-object.
type GeometryInfo struct {
	FaceNormals         int
	TXLightCmds         int
	NodeXTXLightCmds    int
	TrilistIndices      int
	LineListIndices     int
	NodeXTrilistIndices int
	Trilists            int
	LineLists           int
	PtLists             int
	NodeXTrilists       int
	GeometryNodes       []GeometryNode
	GeometryNodeMap     []int
}

// GeometryNode is a per-hierarchy-node geometry budget entry.
type GeometryNode struct {
	TXLightCmds      int
	NodeXTXLightCmds int
	Trilists         int
	LineLists        int
	PtLists          int
	CullablePrims    CullablePrims
}

// CullablePrims counts the primitives a geometry node contributes.
type CullablePrims struct {
	NumPrims        int
	NumFlatSections int
	NumPrimIndices  int
}

// Vertex references a point, a normal and up to several uv points by index.
type Vertex struct {
	Flags       string
	PointIndex  int
	NormalIndex int
	Colour1     string
	Colour2     string
	VertexUVs   []int
}

// VertexSet maps a contiguous vertex range to a vtx_state.
type VertexSet struct {
	VtxState      int
	VtxStartIndex int
	VtxCount      int
}

// VertexIdx is one triangle of vertex indices.
type VertexIdx struct {
	Vertex1, Vertex2, Vertex3 int
}

// NormalIdx pairs a face normal index with its unknown companion value.
type NormalIdx struct {
	Index    int
	Unknown2 int
}

// IndexedTrilist is a triangle list over the sub-object's vertices.
type IndexedTrilist struct {
	VertexIndices []VertexIdx
	NormalIndices []NormalIdx
	Flags         []string
}

// Primitive binds an indexed trilist to the prim_state in effect when it
// was declared. In the file, a prim_state_idx block switches the current
// state and subsequent indexed_trilist blocks inherit it.
type Primitive struct {
	PrimStateIndex int
	Trilist        IndexedTrilist
}

// Animation is one animation track of the shape.
type Animation struct {
	FrameCount int
	FrameRate  int
	Nodes      []AnimationNode
}

// AnimationNode animates the matrix of the same name.
type AnimationNode struct {
	Name        string
	Controllers []Controller
}

// ControllerKind discriminates the controller variants.
type ControllerKind int

const (
	ControllerTCBRot ControllerKind = iota
	ControllerLinearPos
	ControllerTCBPos
)

// Keyword returns the grammar keyword for the controller kind.
func (k ControllerKind) Keyword() string {
	switch k {
	case ControllerTCBRot:
		return "tcb_rot"
	case ControllerLinearPos:
		return "linear_pos"
	case ControllerTCBPos:
		return "tcb_pos"
	default:
		return "unknown_controller"
	}
}

// Controller is a keyframe channel of an animation node.
type Controller struct {
	Kind ControllerKind
	Keys []KeyPosition
}

// KeyKind discriminates the keyframe variants.
type KeyKind int

const (
	KeySlerpRot KeyKind = iota // 5 values: frame x y z w
	KeyLinear                  // 4 values: frame x y z
	KeyTCB                     // 10 values: frame x y z w tension continuity bias ease-in ease-out
)

// Keyword returns the grammar keyword for the key kind.
func (k KeyKind) Keyword() string {
	switch k {
	case KeySlerpRot:
		return "slerp_rot"
	case KeyLinear:
		return "linear_key"
	case KeyTCB:
		return "tcb_key"
	default:
		return "unknown_key"
	}
}

// arity returns the number of float values the key kind carries.
func (k KeyKind) arity() int {
	switch k {
	case KeySlerpRot:
		return 5
	case KeyLinear:
		return 4
	case KeyTCB:
		return 10
	default:
		return 0
	}
}

// KeyPosition is one keyframe. Values holds the variant's fixed number of
// numeric fields in grammar order, the frame number first.
type KeyPosition struct {
	Kind   KeyKind
	Values []float64
}
