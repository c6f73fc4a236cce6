package dataprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"go.viam.com/depthcamera/msgs"
	"go.viam.com/depthcamera/testhelper"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	logger := golog.NewTestLogger(t)
	name, err := testhelper.CreateTempFolderArchitecture()
	test.That(t, err, test.ShouldBeNil)
	defer os.RemoveAll(name)

	r, err := NewRecorder(name, "depth_cam", true, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, filepath.Dir(r.Dir()), test.ShouldEqual, filepath.Join(name, "data"))
	test.That(t, r.TopicDir("/cam/depth/image_raw"), test.ShouldEqual, filepath.Join(r.Dir(), "cam_depth_image_raw"))

	stamp := time.Unix(10, 0)

	cloud := newCloud(t)
	cloud.Header.Stamp = stamp
	test.That(t, r.Publish(ctx, "/cam/points", cloud), test.ShouldBeNil)
	test.That(t, testhelper.CountFiles(t, r.TopicDir("/cam/points")), test.ShouldEqual, 2)
	_, err = os.Stat(filepath.Join(r.TopicDir("/cam/points"), RecordName(stamp, 0)+".pcd"))
	test.That(t, err, test.ShouldBeNil)

	t.Run("clouds sharing a stamp are kept apart", func(t *testing.T) {
		test.That(t, r.Publish(ctx, "/cam/points", newCloud(t)), test.ShouldBeNil)
		second := newCloud(t)
		second.Header.Stamp = stamp
		test.That(t, r.Publish(ctx, "/cam/points", second), test.ShouldBeNil)
		// pcd + las per cloud
		test.That(t, testhelper.CountFiles(t, r.TopicDir("/cam/points")), test.ShouldEqual, 6)
		_, err := os.Stat(filepath.Join(r.TopicDir("/cam/points"), RecordName(stamp, 2)+".pcd"))
		test.That(t, err, test.ShouldBeNil)
	})

	depth := &msgs.Image{Header: msgs.Header{Stamp: stamp}}
	test.That(t, depth.Resize(2, 2, msgs.Encoding32FC1), test.ShouldBeNil)
	test.That(t, r.Publish(ctx, "/cam/depth/image_raw", depth), test.ShouldBeNil)
	depth.Header.Stamp = stamp.Add(time.Second)
	test.That(t, r.Publish(ctx, "/cam/depth/image_raw", depth), test.ShouldBeNil)
	test.That(t, testhelper.CountFiles(t, r.TopicDir("/cam/depth/image_raw")), test.ShouldEqual, 2)

	normals := &msgs.Image{Header: msgs.Header{Stamp: stamp}}
	test.That(t, normals.Resize(1, 1, msgs.Encoding32FC4), test.ShouldBeNil)
	test.That(t, r.Publish(ctx, "/cam/normals/image_raw", normals), test.ShouldBeNil)
	b, err := os.ReadFile(filepath.Join(r.TopicDir("/cam/normals/image_raw"), RecordName(stamp, 0)+".msgpack"))
	test.That(t, err, test.ShouldBeNil)
	decoded, err := msgs.Decode(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.(*msgs.Image).Encoding, test.ShouldEqual, msgs.Encoding32FC4)

	info := &msgs.CameraInfo{Header: msgs.Header{Stamp: stamp}, Width: 2, Height: 2}
	test.That(t, r.Publish(ctx, "/cam/depth/camera_info", info), test.ShouldBeNil)

	t.Run("write failures are returned", func(t *testing.T) {
		test.That(t, r.Publish(ctx, "/cam/bad", &msgs.Image{}), test.ShouldNotBeNil)
	})

	test.That(t, r.Written(), test.ShouldResemble, map[string]int{
		"/cam/points":            3,
		"/cam/depth/image_raw":   2,
		"/cam/normals/image_raw": 1,
		"/cam/depth/camera_info": 1,
	})

	test.That(t, testhelper.ResetFolder(filepath.Join(name, "data")), test.ShouldBeNil)
	test.That(t, testhelper.CountFiles(t, filepath.Join(name, "data")), test.ShouldEqual, 0)
}
