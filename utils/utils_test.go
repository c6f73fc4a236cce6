package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestDictToString(t *testing.T) {
	t.Run("Convert dictionary to a string", func(t *testing.T) {
		topics := map[string]string{
			"points":        "/cam/points",
			"depth_image":   "/cam/depth/image_raw",
			"normals_image": "/cam/normals/image_raw",
		}

		expected := "{depth_image=/cam/depth/image_raw,normals_image=/cam/normals/image_raw,points=/cam/points}"
		test.That(t, DictToString(topics), test.ShouldEqual, expected)
	})

	t.Run("Empty dictionary", func(t *testing.T) {
		test.That(t, DictToString(nil), test.ShouldEqual, "{}")
	})
}

func TestResolveTopic(t *testing.T) {
	test.That(t, ResolveTopic("camera", "points"), test.ShouldEqual, "/camera/points")
	test.That(t, ResolveTopic("", "depth/image_raw"), test.ShouldEqual, "/depth/image_raw")
	test.That(t, ResolveTopic("/camera/", "depth//camera_info"), test.ShouldEqual, "/camera/depth/camera_info")
	test.That(t, ResolveTopic("camera", "/points"), test.ShouldEqual, "/points")
}
