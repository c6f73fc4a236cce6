package msgs

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Image encodings.
const (
	Encoding32FC1 = "32FC1"
	Encoding32FC4 = "32FC4"
	EncodingRGB8  = "rgb8"
	EncodingMono8 = "mono8"
)

// BytesPerPixel returns the pixel size of an encoding.
func BytesPerPixel(encoding string) (int, error) {
	switch encoding {
	case Encoding32FC1:
		return 4, nil
	case Encoding32FC4:
		return 16, nil
	case EncodingRGB8:
		return 3, nil
	case EncodingMono8:
		return 1, nil
	default:
		return 0, errors.Errorf("unsupported image encoding %q", encoding)
	}
}

// Image is an uncompressed row-major image.
type Image struct {
	Header      Header `msgpack:"header"`
	Height      uint32 `msgpack:"height"`
	Width       uint32 `msgpack:"width"`
	Encoding    string `msgpack:"encoding"`
	IsBigEndian bool   `msgpack:"is_bigendian"`
	Step        uint32 `msgpack:"step"`
	Data        []byte `msgpack:"data"`
}

// Type implements Message.
func (im *Image) Type() string { return TypeImage }

// GetHeader implements Message.
func (im *Image) GetHeader() *Header { return &im.Header }

// Clone implements Message.
func (im *Image) Clone() Message {
	out := *im
	out.Data = append([]byte(nil), im.Data...)
	return &out
}

// Resize sets the image geometry and sizes Data to rows*step bytes, reusing the
// existing buffer when it is large enough.
func (im *Image) Resize(rows, cols int, encoding string) error {
	bpp, err := BytesPerPixel(encoding)
	if err != nil {
		return err
	}
	if rows <= 0 || cols <= 0 {
		return errors.Errorf("invalid image size %dx%d", cols, rows)
	}
	im.Height = uint32(rows)
	im.Width = uint32(cols)
	im.Encoding = encoding
	im.IsBigEndian = false
	im.Step = uint32(cols * bpp)
	need := rows * cols * bpp
	if cap(im.Data) >= need {
		im.Data = im.Data[:need]
	} else {
		im.Data = make([]byte, need)
	}
	return nil
}

func (im *Image) floatSlot(i int) []byte {
	at := i * 4
	if i < 0 || at+4 > len(im.Data) {
		panic(fmt.Sprintf("msgs: float %d outside %d byte image", i, len(im.Data)))
	}
	return im.Data[at : at+4]
}

// Float32 returns the i-th float of a float encoded image.
func (im *Image) Float32(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(im.floatSlot(i)))
}

// SetFloat32 writes the i-th float of a float encoded image.
func (im *Image) SetFloat32(i int, v float32) {
	binary.LittleEndian.PutUint32(im.floatSlot(i), math.Float32bits(v))
}

// CopyFloat32s writes src into the image starting at the first float.
func (im *Image) CopyFloat32s(src []float32) {
	if len(src)*4 > len(im.Data) {
		panic(fmt.Sprintf("msgs: %d floats overrun %d byte image", len(src), len(im.Data)))
	}
	for i, v := range src {
		binary.LittleEndian.PutUint32(im.Data[i*4:], math.Float32bits(v))
	}
}
