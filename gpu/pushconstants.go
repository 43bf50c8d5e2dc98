package gpu

import (
	"bytes"
	"encoding/binary"
)

// PushConstants accumulates a push-constant block in WGSL struct order.
// Mirrors the role of cogentcore's phong.PushU (a plain struct holding
// everything that changes per dispatch) but serializes with
// encoding/binary rather than an unsafe.Pointer cast: push-constant
// structs vary per kernel family (the update kernels take
// (Gx,Gy,Gz,use_pmc,use_pml); the CPML and source code runs on the host
// and encodes no push constants), so there is no single fixed Go struct
// to lay an ABI against, and binary.Write keeps the encoding explicit
// and endianness-stable across hosts.
type PushConstants struct {
	buf bytes.Buffer
}

func (p *PushConstants) PutUint32(v uint32) *PushConstants {
	binary.Write(&p.buf, binary.LittleEndian, v)
	return p
}

func (p *PushConstants) PutInt32(v int32) *PushConstants {
	binary.Write(&p.buf, binary.LittleEndian, v)
	return p
}

func (p *PushConstants) PutFloat32(v float32) *PushConstants {
	binary.Write(&p.buf, binary.LittleEndian, v)
	return p
}

// Bytes returns the serialized push-constant block.
func (p *PushConstants) Bytes() []byte {
	return p.buf.Bytes()
}

// Reader decodes a push-constant block written by PushConstants, in the
// same field order.
type Reader struct {
	r *bytes.Reader
}

func NewReader(b []byte) *Reader {
	return &Reader{r: bytes.NewReader(b)}
}

func (r *Reader) Uint32() uint32 {
	var v uint32
	binary.Read(r.r, binary.LittleEndian, &v)
	return v
}

func (r *Reader) Int32() int32 {
	var v int32
	binary.Read(r.r, binary.LittleEndian, &v)
	return v
}

func (r *Reader) Float32() float32 {
	var v float32
	binary.Read(r.r, binary.LittleEndian, &v)
	return v
}
