// Package activation decides when the depth sensor should be capturing and which outputs
// a frame is converted into, based on how many subscribers each output has.
package activation

import "fmt"

// Kind identifies one output of the depth camera.
type Kind int

const (
	// PointCloud is the unprojected xyz+rgb cloud.
	PointCloud Kind = iota
	// DepthImage is the single channel float depth image.
	DepthImage
	// NormalsImage is the four channel float surface normal image.
	NormalsImage
	// ColorImage is the pass-through color image.
	ColorImage
	// DepthInfo is the camera info that accompanies the depth image.
	DepthInfo
	numKinds
)

var kindNames = [numKinds]string{
	PointCloud:   "point_cloud",
	DepthImage:   "depth_image",
	NormalsImage: "normals_image",
	ColorImage:   "color_image",
	DepthInfo:    "depth_info",
}

// Valid reports whether k is a known output kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every output kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
