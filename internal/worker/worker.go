// Package worker implements the per-connection worker: a bounded channel
// and a single goroutine that drains it for the lifetime of one device
// connection, preserving per-IMEI ordering.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/logger"
	"github.com/vp-kuljetus/telematics-gateway/internal/records"
	"github.com/vp-kuljetus/telematics-gateway/internal/replay"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

// ChannelCapacity is the bounded channel size: roughly 4,000 queued frames
// before the TCP front end's send blocks.
const ChannelCapacity = 4000

// FrameInterval is the fixed pause the worker takes between frames,
// bounding the replay rate and giving the API a chance to recover.
const FrameInterval = 5 * time.Second

// IncomingFrame is one unit of work handed from the TCP front end to a
// worker.
type IncomingFrame struct {
	Frame     *avl.Frame
	Trackable *vehiclemgmt.Trackable
	IMEI      string
	Listener  listener.Profile
}

// Worker owns exactly one IMEI's channel and goroutine. It is
// single-threaded with respect to its IMEI, which is what preserves
// per-device ordering without locks.
type Worker struct {
	imei           string
	ch             chan IncomingFrame
	processor      *records.Processor
	purgeChunkSize int

	// frameInterval defaults to FrameInterval; tests shrink it.
	frameInterval time.Duration
}

// New builds a Worker for imei. Call Run in its own goroutine and Submit
// from the front end's connection handler.
func New(imei string, processor *records.Processor, purgeChunkSize int) *Worker {
	return &Worker{
		imei:           imei,
		ch:             make(chan IncomingFrame, ChannelCapacity),
		processor:      processor,
		purgeChunkSize: purgeChunkSize,
		frameInterval:  FrameInterval,
	}
}

// Submit hands a frame to the worker. It blocks when the channel is full,
// propagating backpressure to the TCP connection that feeds it.
func (w *Worker) Submit(f IncomingFrame) {
	w.ch <- f
}

// Close signals that no more frames will be submitted; Run drains what
// remains of the channel and returns.
func (w *Worker) Close() {
	close(w.ch)
}

// Run processes frames until the channel is closed or ctx is cancelled.
// Each iteration is: process the frame, opportunistically replay failed
// events for this IMEI, then pause FrameInterval before the next read.
func (w *Worker) Run(ctx context.Context) {
	log := logger.ForDevice(w.imei)
	for {
		select {
		case f, ok := <-w.ch:
			if !ok {
				return
			}
			w.processor.ProcessFrame(ctx, f.Frame, f.Listener, f.Trackable, f.IMEI)

			n, err := replay.Batch(ctx, w.processor.Client, w.processor.FailedStore, w.imei, w.purgeChunkSize)
			if err != nil {
				log.Warn("purge step failed", zap.Error(err))
			} else if n > 0 {
				log.Debug("purge step replayed failed events", zap.Int("count", n))
			}

			select {
			case <-time.After(w.frameInterval):
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
