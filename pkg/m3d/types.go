// Package m3d mirrors the in-memory data structures of the Model 3D (M3D)
// library in Go.
//
// Every struct here is laid out field-for-field like its C counterpart in
// m3d.h, built with the default options (no M3D_ASCII, M3D_VERTEXMAX or
// M3D_VERTEXTYPE). The mirrors exist so the structures can be measured and
// compared against foreign bindings; the model format itself is not decoded
// by this package.
package m3d

import "math"

// Scalar aliases (M3D_FLOAT, M3D_INDEX, M3D_VOXEL).
type (
	Float = float32
	Index = uint32
	Voxel = uint16
)

// Library constants.
const (
	Undef      Index = 0xffffffff // M3D_UNDEF
	VoxelUndef Voxel = 0xffff     // M3D_VOXUNDEF
	NumBone          = 4          // M3D_NUMBONE
	CmdMaxArg        = 8          // M3D_CMDMAXARG
)

// Chunk magics.
const (
	MagicHeader = "3DMO"
	MagicModel  = "3DMD"
	MagicEnd    = "OMD3"
)

// Header is m3dhdr_t, the binary file header. Packed in C; the natural
// layout has no padding.
type Header struct {
	Magic  [4]byte
	Length uint32
	Scale  float32 // deliberately not Float
	Types  uint32
}

// Chunk is m3dchunk_t.
type Chunk struct {
	Magic  [4]byte
	Length uint32
}

// TexCoord is m3dti_t, a texture map entry.
type TexCoord struct {
	U Float
	V Float
}

// Texture is m3dtx_t, an uncompressed texture.
type Texture struct {
	Name   *byte // file name
	Data   *uint8
	Width  uint16
	Height uint16
	Format uint8 // 1 grey, 2 grey+alpha, 3 rgb, 4 rgba
}

// Weight is m3dw_t.
type Weight struct {
	VertexID Index
	Weight   Float
}

// Bone is m3db_t, one node in the bone hierarchy.
type Bone struct {
	Parent    Index
	Name      *byte
	Pos       Index // vertex index of the position
	Ori       Index // vertex index of the orientation quaternion
	NumWeight Index
	Weight    *Weight
	Mat4      [16]Float
}

// Skin is m3ds_t, the bones influencing one vertex.
type Skin struct {
	BoneID [NumBone]Index
	Weight [NumBone]Float
}

// Vertex is m3dv_t.
type Vertex struct {
	X, Y, Z, W Float
	Color      uint32
	SkinID     Index
}

// Material property formats.
const (
	PropFormatColor uint8 = iota
	PropFormatUint8
	PropFormatUint16
	PropFormatUint32
	PropFormatFloat
	PropFormatMap
)

// PropertyDef is m3dpd_t.
type PropertyDef struct {
	Format uint8
	ID     uint8
}

// Property is m3dp_t. Value holds the C union of color, num, fnum and
// textureid; use the accessors to interpret it.
type Property struct {
	Type  uint8
	Value uint32
}

// Color returns the value as a packed RGBA color.
func (p Property) Color() uint32 { return p.Value }

// Num returns the value as an unsigned number.
func (p Property) Num() uint32 { return p.Value }

// FNum returns the value as a float.
func (p Property) FNum() float32 { return math.Float32frombits(p.Value) }

// TextureID returns the value as a texture index.
func (p Property) TextureID() Index { return p.Value }

// SetFNum stores f in the union.
func (p *Property) SetFNum(f float32) { p.Value = math.Float32bits(f) }

// Material is m3dm_t.
type Material struct {
	Name    *byte
	NumProp uint8
	Prop    *Property
}

// Face is m3df_t, a triangle.
type Face struct {
	MaterialID Index
	Vertex     [3]Index
	Normal     [3]Index
	TexCoord   [3]Index
}

// VoxelItem is m3dvi_t.
type VoxelItem struct {
	Count uint16
	Name  *byte
}

// VoxelType is m3dvt_t, one voxel palette entry.
type VoxelType struct {
	Name       *byte
	Rotation   uint8
	VoxShape   uint16
	MaterialID Index
	Color      uint32
	SkinID     Index
	NumItem    uint8
	Item       *VoxelItem
}

// VoxelBlock is m3dvx_t.
type VoxelBlock struct {
	Name      *byte
	X, Y, Z   int32
	W, H, D   uint32
	Uncertain uint8
	GroupID   uint8
	Data      *Voxel
}

// CommandDef is m3dcd_t.
type CommandDef struct {
	P uint8
	A [CmdMaxArg]uint8
}

// Command is m3dc_t.
type Command struct {
	Type uint16
	Arg  *uint32
}

// Shape is m3dh_t.
type Shape struct {
	Name   *byte
	Group  Index // Undef when ungrouped
	NumCmd uint32
	Cmd    *Command
}

// Label is m3dl_t, an annotation.
type Label struct {
	Name     *byte
	Lang     *byte
	Text     *byte
	Color    uint32
	VertexID Index
}

// Transform is m3dtr_t.
type Transform struct {
	BoneID Index
	Pos    Index
	Ori    Index
}

// Frame is m3dfr_t.
type Frame struct {
	Msec         uint32
	NumTransform Index
	Transform    *Transform
}

// Action is m3da_t.
type Action struct {
	Name         *byte
	DurationMsec uint32
	NumFrame     Index
	Frame        *Frame
}

// Inlined is m3di_t, an inlined asset.
type Inlined struct {
	Name   *byte
	Data   *uint8
	Length uint32
}

// Model is m3d_t, the decoded in-memory model.
type Model struct {
	Raw     *Header
	Flags   int8
	ErrCode int8

	// Decoded sizes for the variable-width fields.
	VCSize, VISize, SISize, CISize, TISize, BISize, NBSize int8
	SKSize, FCSize, HISize, FISize, VDSize, VPSize         int8

	Name    *byte
	License *byte
	Author  *byte
	Desc    *byte
	Scale   Float

	NumCmap     Index
	Cmap        *uint32
	NumTmap     Index
	Tmap        *TexCoord
	NumTexture  Index
	Texture     *Texture
	NumBone     Index
	Bone        *Bone
	NumVertex   Index
	Vertex      *Vertex
	NumSkin     Index
	Skin        *Skin
	NumMaterial Index
	Material    *Material
	NumFace     Index
	Face        *Face
	NumVoxType  Index
	VoxType     *VoxelType
	NumVoxel    Index
	Voxel       *VoxelBlock
	NumShape    Index
	Shape       *Shape
	NumLabel    Index
	Label       *Label
	NumAction   Index
	Action      *Action
	NumInlined  Index
	Inlined     *Inlined
	NumExtra    Index
	Extra       **Chunk
	Preview     Inlined
}
