// Package simulation wires a loaded Config into a running bus: it builds
// one operator per configured camera and LiDAR worker plus the Pose,
// Clock, and Fusion operators, starts each on its own goroutine, and
// blocks until every operator has unregistered.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slamkit/fusion/internal/bus"
	"github.com/slamkit/fusion/internal/config"
	"github.com/slamkit/fusion/internal/dataset"
	"github.com/slamkit/fusion/internal/fusion"
	"github.com/slamkit/fusion/internal/model"
	"github.com/slamkit/fusion/internal/runtime"
	"github.com/slamkit/fusion/internal/sensors"
	"github.com/slamkit/fusion/internal/stats"
)

// Run loads every dataset the config points at, wires up the bus and
// every operator, and runs the simulation to completion. It returns once
// Fusion has written its output (normal summary or crash snapshot) and
// every operator has unregistered.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, writer fusion.ResultWriter) error {
	poses, err := dataset.LoadPoses(cfg.PoseJSONFile)
	if err != nil {
		return err
	}
	cameraFrames, err := dataset.LoadCameras(cfg.Cameras.DatasPath)
	if err != nil {
		return err
	}
	lidarDB, err := dataset.LoadLidarDatabase(cfg.LiDarWorkers.DataPath)
	if err != nil {
		return err
	}

	st := &stats.Statistics{}
	b := bus.New()

	var sensorNames []bus.Participant
	var cameraOps []runtime.Operator
	for _, cc := range cfg.Cameras.Configurations {
		frames, ok := cameraFrames[cc.CameraKey]
		if !ok {
			return fmt.Errorf("camera %s: no dataset entry for camera_key %q", cc.ID, cc.CameraKey)
		}
		name := bus.Participant("camera:" + cc.ID)
		sensorNames = append(sensorNames, name)
		cameraOps = append(cameraOps, sensors.NewCamera(name, model.Tick(cc.Frequency), frames, st))
	}

	var lidarOps []runtime.Operator
	for _, lc := range cfg.LiDarWorkers.Configurations {
		name := bus.Participant("lidar:" + lc.ID)
		sensorNames = append(sensorNames, name)
		lidarOps = append(lidarOps, sensors.NewLiDAR(name, model.Tick(lc.Frequency), lidarDB, st))
	}

	poseName := bus.Participant("pose")
	sensorNames = append(sensorNames, poseName)
	poseOp := sensors.NewPose(poseName, poses)

	fusionOp := fusion.New(st, writer)

	// Barrier count: every sensor operator plus Fusion.
	barrier := runtime.NewBarrier(len(sensorNames) + 1)
	clockOp := sensors.NewClock(time.Duration(cfg.TickTime)*time.Second, model.Tick(cfg.Duration), sensorNames, st)

	var wg sync.WaitGroup
	var runErr error
	var runErrMu sync.Mutex
	launch := func(op runtime.Operator) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runtime.Run(ctx, b, logger, barrier, op); err != nil {
				runErrMu.Lock()
				if runErr == nil {
					runErr = err
				}
				runErrMu.Unlock()
			}
		}()
	}

	for _, op := range cameraOps {
		launch(op)
	}
	for _, op := range lidarOps {
		launch(op)
	}
	launch(poseOp)
	launch(fusionOp)
	launch(clockOp)

	wg.Wait()
	return runErr
}
