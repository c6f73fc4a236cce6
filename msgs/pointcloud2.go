package msgs

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// PointField datatypes.
const (
	Int8    uint8 = 1
	Uint8   uint8 = 2
	Int16   uint8 = 3
	Uint16  uint8 = 4
	Int32   uint8 = 5
	Uint32  uint8 = 6
	Float32 uint8 = 7
	Float64 uint8 = 8
)

var datatypeSize = map[uint8]uint32{
	Int8: 1, Uint8: 1, Int16: 2, Uint16: 2, Int32: 4, Uint32: 4, Float32: 4, Float64: 8,
}

// PointField describes one named field inside a point record.
type PointField struct {
	Name     string `msgpack:"name"`
	Offset   uint32 `msgpack:"offset"`
	Datatype uint8  `msgpack:"datatype"`
	Count    uint32 `msgpack:"count"`
}

// PointCloud2 is a packed array of fixed size point records.
type PointCloud2 struct {
	Header      Header       `msgpack:"header"`
	Height      uint32       `msgpack:"height"`
	Width       uint32       `msgpack:"width"`
	Fields      []PointField `msgpack:"fields"`
	IsBigEndian bool         `msgpack:"is_bigendian"`
	PointStep   uint32       `msgpack:"point_step"`
	RowStep     uint32       `msgpack:"row_step"`
	Data        []byte       `msgpack:"data"`
	IsDense     bool         `msgpack:"is_dense"`
}

// Type implements Message.
func (c *PointCloud2) Type() string { return TypePointCloud2 }

// GetHeader implements Message.
func (c *PointCloud2) GetHeader() *Header { return &c.Header }

// Clone implements Message.
func (c *PointCloud2) Clone() Message {
	out := *c
	out.Fields = append([]PointField(nil), c.Fields...)
	out.Data = append([]byte(nil), c.Data...)
	return &out
}

// Len returns the number of records held in Data.
func (c *PointCloud2) Len() int {
	if c.PointStep == 0 {
		return 0
	}
	return len(c.Data) / int(c.PointStep)
}

// Field returns the named field.
func (c *PointCloud2) Field(name string) (PointField, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return PointField{}, false
}

// PointCloud2Modifier sets up the record layout of a PointCloud2.
type PointCloud2Modifier struct {
	cloud *PointCloud2
}

// NewPointCloud2Modifier returns a modifier for c.
func NewPointCloud2Modifier(c *PointCloud2) *PointCloud2Modifier {
	return &PointCloud2Modifier{cloud: c}
}

func (m *PointCloud2Modifier) addField(name string, datatype uint8, offset uint32) uint32 {
	m.cloud.Fields = append(m.cloud.Fields, PointField{Name: name, Offset: offset, Datatype: datatype, Count: 1})
	return offset + datatypeSize[datatype]
}

// SetFieldsXYZRGB lays records out as x, y, z float32 padded to 16 bytes followed
// by a 4 byte rgb slot padded to 16 bytes.
func (m *PointCloud2Modifier) SetFieldsXYZRGB() {
	m.cloud.Fields = m.cloud.Fields[:0]
	var offset uint32
	offset = m.addField("x", Float32, offset)
	offset = m.addField("y", Float32, offset)
	offset = m.addField("z", Float32, offset)
	offset += datatypeSize[Float32]
	offset = m.addField("rgb", Float32, offset)
	offset += 3 * datatypeSize[Float32]
	m.cloud.PointStep = offset
	m.cloud.RowStep = m.cloud.Width * m.cloud.PointStep
}

// Resize makes Data hold exactly n records. Existing bytes are kept, so resizing
// to the current size is a no-op.
func (m *PointCloud2Modifier) Resize(n int) {
	need := n * int(m.cloud.PointStep)
	switch {
	case len(m.cloud.Data) == need:
	case cap(m.cloud.Data) >= need:
		m.cloud.Data = m.cloud.Data[:need]
	default:
		data := make([]byte, need)
		copy(data, m.cloud.Data)
		m.cloud.Data = data
	}
}

// Reshape sizes the cloud for a rows x cols organized grid.
func (m *PointCloud2Modifier) Reshape(rows, cols int) {
	m.Resize(rows * cols)
	m.cloud.Height = uint32(rows)
	m.cloud.Width = uint32(cols)
	m.cloud.RowStep = m.cloud.PointStep * m.cloud.Width
}

// Float32Field is strided access to one float32 field of every record.
type Float32Field struct {
	data   []byte
	offset int
	step   int
	n      int
}

// Float32Field returns a view over the named float32 field.
func (c *PointCloud2) Float32Field(name string) (Float32Field, error) {
	f, ok := c.Field(name)
	if !ok {
		return Float32Field{}, errors.Errorf("point cloud has no field %q", name)
	}
	if f.Datatype != Float32 {
		return Float32Field{}, errors.Errorf("field %q has datatype %d, not float32", name, f.Datatype)
	}
	if f.Offset+4 > c.PointStep {
		return Float32Field{}, errors.Errorf("field %q at offset %d overruns point step %d", name, f.Offset, c.PointStep)
	}
	return Float32Field{data: c.Data, offset: int(f.Offset), step: int(c.PointStep), n: c.Len()}, nil
}

// Len returns the number of records.
func (f Float32Field) Len() int { return f.n }

func (f Float32Field) slot(i int) []byte {
	if i < 0 || i >= f.n {
		panic(fmt.Sprintf("msgs: record %d outside %d records", i, f.n))
	}
	at := i*f.step + f.offset
	return f.data[at : at+4]
}

// At returns the field of record i.
func (f Float32Field) At(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(f.slot(i)))
}

// Set writes the field of record i.
func (f Float32Field) Set(i int, v float32) {
	binary.LittleEndian.PutUint32(f.slot(i), math.Float32bits(v))
}

// RGB unpacks the color stored in the field of record i. Colors are packed into
// the bits of the float as 0x00RRGGBB.
func (f Float32Field) RGB(i int) (r, g, b uint8) {
	bits := binary.LittleEndian.Uint32(f.slot(i))
	return uint8(bits >> 16), uint8(bits >> 8), uint8(bits)
}

// SetRGB packs a color into the field of record i.
func (f Float32Field) SetRGB(i int, r, g, b uint8) {
	binary.LittleEndian.PutUint32(f.slot(i), uint32(r)<<16|uint32(g)<<8|uint32(b))
}

// PackedRGB returns the packed color of record i as an integer.
func (f Float32Field) PackedRGB(i int) uint32 {
	return binary.LittleEndian.Uint32(f.slot(i)) & 0xFFFFFF
}
