// Package dataprocess writes published messages to disk
package dataprocess

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"go.viam.com/depthcamera/msgs"
)

// MaxDepthMM is the largest depth a 16 bit millimetre PNG can hold.
const MaxDepthMM = math.MaxUint16

func convertImage(im *msgs.Image) (image.Image, error) {
	w, h := int(im.Width), int(im.Height)
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("invalid image size %dx%d", w, h)
	}
	bpp, err := msgs.BytesPerPixel(im.Encoding)
	if err != nil {
		return nil, err
	}
	if len(im.Data) < w*h*bpp {
		return nil, errors.Errorf("image data holds %d bytes, expected %d", len(im.Data), w*h*bpp)
	}
	bounds := image.Rect(0, 0, w, h)
	switch im.Encoding {
	case msgs.EncodingRGB8:
		img := image.NewNRGBA(bounds)
		for i := 0; i < w*h; i++ {
			img.SetNRGBA(i%w, i/w, color.NRGBA{R: im.Data[3*i], G: im.Data[3*i+1], B: im.Data[3*i+2], A: 255})
		}
		return img, nil
	case msgs.EncodingMono8:
		img := image.NewGray(bounds)
		copy(img.Pix, im.Data[:w*h])
		return img, nil
	case msgs.Encoding32FC1:
		img := image.NewGray16(bounds)
		for i := 0; i < w*h; i++ {
			img.SetGray16(i%w, i/w, color.Gray16{Y: depthToMM(im.Float32(i))})
		}
		return img, nil
	default:
		return nil, errors.Errorf("cannot convert %q image to PNG", im.Encoding)
	}
}

// depthToMM converts metres to millimetres. Invalid depths become 0.
func depthToMM(d float32) uint16 {
	if math.IsNaN(float64(d)) || d <= 0 {
		return 0
	}
	mm := math.Round(float64(d) * 1000)
	if mm > MaxDepthMM {
		return MaxDepthMM
	}
	return uint16(mm)
}

func writeFile(filename string, write func(w io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	return w.Flush()
}

// WriteImageToPNGFile converts an image message to PNG and saves it to the passed filename.
// Depth images are stored as 16 bit millimetres.
func WriteImageToPNGFile(ctx context.Context, im *msgs.Image, filename string) error {
	img, err := convertImage(im)
	if err != nil {
		return err
	}
	return writeFile(filename, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// WritePCDToFile encodes the point cloud as ASCII PCD and saves it to the passed filename.
// The cloud keeps its organized shape, invalid points are written as nan.
func WritePCDToFile(ctx context.Context, cloud *msgs.PointCloud2, filename string) error {
	return writeFile(filename, func(w io.Writer) error {
		return ToPCD(cloud, w)
	})
}

// ToPCD writes cloud to out in the ASCII PCD format.
func ToPCD(cloud *msgs.PointCloud2, out io.Writer) error {
	x, y, z, rgb, err := xyzrgb(cloud)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z rgb\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F U\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA ascii\n",
		cloud.Width,
		cloud.Height,
		x.Len())
	if err != nil {
		return err
	}
	for i := 0; i < x.Len(); i++ {
		if _, err := fmt.Fprintf(out, "%s %s %s %d\n",
			pcdFloat(x.At(i)), pcdFloat(y.At(i)), pcdFloat(z.At(i)), rgb.PackedRGB(i)); err != nil {
			return err
		}
	}
	return nil
}

func pcdFloat(v float32) string {
	if math.IsNaN(float64(v)) {
		return "nan"
	}
	return fmt.Sprintf("%f", v)
}

func xyzrgb(cloud *msgs.PointCloud2) (x, y, z, rgb msgs.Float32Field, err error) {
	if x, err = cloud.Float32Field("x"); err != nil {
		return
	}
	if y, err = cloud.Float32Field("y"); err != nil {
		return
	}
	if z, err = cloud.Float32Field("z"); err != nil {
		return
	}
	rgb, err = cloud.Float32Field("rgb")
	return
}

// WriteLASFile saves the valid points of cloud with their color to a LAS file.
func WriteLASFile(cloud *msgs.PointCloud2, filename string) (err error) {
	x, y, z, rgb, err := xyzrgb(cloud)
	if err != nil {
		return err
	}
	lf, err := lidario.NewLasFile(filename, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: 2}); err != nil {
		return
	}
	for i := 0; i < x.Len(); i++ {
		px, py, pz := x.At(i), y.At(i), z.At(i)
		if math.IsNaN(float64(px)) || math.IsNaN(float64(py)) || math.IsNaN(float64(pz)) {
			continue
		}
		r, g, b := rgb.RGB(i)
		pr0 := &lidario.PointRecord0{
			X: float64(px),
			Y: float64(py),
			Z: float64(pz),
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		lp := &lidario.PointRecord2{
			PointRecord0: pr0,
			RGB: &lidario.RgbData{
				Red:   uint16(r) * 256,
				Green: uint16(g) * 256,
				Blue:  uint16(b) * 256,
			},
		}
		if err = lf.AddLasPoint(lp); err != nil {
			return
		}
	}
	return nil
}

type yamlMatrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float64 `yaml:"data"`
}

type calibrationFile struct {
	ImageWidth             uint32     `yaml:"image_width"`
	ImageHeight            uint32     `yaml:"image_height"`
	CameraName             string     `yaml:"camera_name"`
	CameraMatrix           yamlMatrix `yaml:"camera_matrix"`
	DistortionModel        string     `yaml:"distortion_model"`
	DistortionCoefficients yamlMatrix `yaml:"distortion_coefficients"`
	RectificationMatrix    yamlMatrix `yaml:"rectification_matrix"`
	ProjectionMatrix       yamlMatrix `yaml:"projection_matrix"`
}

// WriteCameraInfoToFile saves the calibration in the camera_calibration YAML layout.
func WriteCameraInfoToFile(ctx context.Context, info *msgs.CameraInfo, cameraName, filename string) error {
	cal := calibrationFile{
		ImageWidth:             info.Width,
		ImageHeight:            info.Height,
		CameraName:             cameraName,
		CameraMatrix:           yamlMatrix{Rows: 3, Cols: 3, Data: info.K[:]},
		DistortionModel:        info.DistortionModel,
		DistortionCoefficients: yamlMatrix{Rows: 1, Cols: len(info.D), Data: info.D},
		RectificationMatrix:    yamlMatrix{Rows: 3, Cols: 3, Data: info.R[:]},
		ProjectionMatrix:       yamlMatrix{Rows: 3, Cols: 4, Data: info.P[:]},
	}
	return writeFile(filename, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(&cal); err != nil {
			return err
		}
		return enc.Close()
	})
}
