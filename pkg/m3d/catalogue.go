package m3d

import "reflect"

// Entry pairs a native M3D type name with the name its Odin binding uses.
type Entry struct {
	Native  string       // C name in m3d.h
	Binding string       // Odin name
	Type    reflect.Type // Go mirror of the native type
}

// EntryOf builds an Entry for the mirror type T.
func EntryOf[T any](native, binding string) Entry {
	return Entry{Native: native, Binding: binding, Type: reflect.TypeFor[T]()}
}

// Catalogue returns the fixed, ordered list of types the Odin binding
// declares. The order matches the binding's declaration order and is kept
// verbatim in generated output. Each call returns a fresh slice.
func Catalogue() []Entry {
	return []Entry{
		EntryOf[Float]("M3D_FLOAT", "FLOAT"),
		EntryOf[Index]("M3D_INDEX", "INDEX"),
		EntryOf[Voxel]("M3D_VOXEL", "VOXEL"),
		EntryOf[Header]("m3dhdr_t", "hdr_t"),
		EntryOf[Chunk]("m3dchunk_t", "chunk_t"),
		EntryOf[TexCoord]("m3dti_t", "ti_t"),
		EntryOf[Texture]("m3dtx_t", "tx_t"),
		EntryOf[Weight]("m3dw_t", "w_t"),
		EntryOf[Bone]("m3db_t", "b_t"),
		EntryOf[Vertex]("m3dv_t", "v_t"),
		EntryOf[PropertyDef]("m3dpd_t", "pd_t"),
		EntryOf[Property]("m3dp_t", "p_t"),
		EntryOf[Material]("m3dm_t", "m_t"),
		EntryOf[VoxelItem]("m3dvi_t", "vi_t"),
		EntryOf[VoxelType]("m3dvt_t", "vt_t"),
		EntryOf[VoxelBlock]("m3dvx_t", "vx_t"),
		EntryOf[CommandDef]("m3dcd_t", "cd_t"),
		EntryOf[Command]("m3dc_t", "c_t"),
		EntryOf[Shape]("m3dh_t", "h_t"),
		EntryOf[Label]("m3dl_t", "l_t"),
		EntryOf[Transform]("m3dtr_t", "tr_t"),
		EntryOf[Action]("m3da_t", "a_t"),
		EntryOf[Inlined]("m3di_t", "i_t"),
		EntryOf[Model]("m3d_t", "m3d_t"),
	}
}

// Lookup finds a catalogue entry by its native or binding name.
func Lookup(name string) (Entry, bool) {
	for _, e := range Catalogue() {
		if e.Native == name || e.Binding == name {
			return e, true
		}
	}
	return Entry{}, false
}
