// Package frontend implements the TCP front end: one listening socket per
// listener profile, IMEI handshake, and the frame loop that hands decoded
// frames to a per-IMEI worker.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vp-kuljetus/telematics-gateway/internal/avl"
	"github.com/vp-kuljetus/telematics-gateway/internal/imei"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/logger"
	"github.com/vp-kuljetus/telematics-gateway/internal/metrics"
	"github.com/vp-kuljetus/telematics-gateway/internal/records"
	"github.com/vp-kuljetus/telematics-gateway/internal/trackable"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
	"github.com/vp-kuljetus/telematics-gateway/internal/worker"
)

// AckTimeout bounds the frame-ACK write.
const AckTimeout = 60 * time.Second

// Listen binds profile's port and accepts connections until ctx is
// cancelled. Every accepted connection gets its own worker built from proc
// (shared Client and FailedStore); purgeChunkSize is forwarded to it.
func Listen(ctx context.Context, profile listener.Profile, proc *records.Processor, purgeChunkSize int) error {
	addr := fmt.Sprintf(":%d", profile.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("frontend: listen %s (%s): %w", addr, profile.Name, err)
	}
	zap.L().Info("listening", zap.String("profile", profile.Name), zap.String("addr", addr))

	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			zap.L().Error("accept failed", zap.String("profile", profile.Name), zap.Error(err))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, profile, proc, purgeChunkSize)
		}()
	}
}

// handleConn runs the handshake and frame loop for a single accepted
// connection.
func handleConn(ctx context.Context, conn net.Conn, profile listener.Profile, proc *records.Processor, purgeChunkSize int) {
	defer conn.Close()

	codec := avl.NewCodec(conn)

	rawIMEI, err := codec.ReadIMEI()
	if err != nil {
		metrics.HandshakeRejected.Inc()
		_ = codec.WriteIMEIAck(false)
		zap.L().Info("handshake failed", zap.Error(err), zap.String("remote", conn.RemoteAddr().String()))
		return
	}
	if err := imei.Validate(rawIMEI); err != nil {
		metrics.HandshakeRejected.Inc()
		_ = codec.WriteIMEIAck(false)
		zap.L().Info("imei failed checksum", zap.String("imei", rawIMEI), zap.Error(err))
		return
	}
	if err := codec.WriteIMEIAck(true); err != nil {
		zap.L().Warn("failed to write imei ack", zap.String("imei", rawIMEI), zap.Error(err))
		return
	}
	log := logger.ForDevice(rawIMEI)
	log.Info("device connected", zap.String("profile", profile.Name))

	w := worker.New(rawIMEI, proc, purgeChunkSize)
	go w.Run(ctx)
	defer w.Close()

	var resolver trackable.Resolver

	for {
		frame, err := codec.ReadFrame()
		switch {
		case err == nil:
			// fall through below
		case avl.IsPing(err):
			continue
		case errors.Is(err, avl.ErrInvalidData):
			metrics.FramesRejected.Inc()
			if ackErr := writeFrameAck(conn, codec, 0); ackErr != nil {
				log.Warn("ack write failed after invalid frame", zap.Error(ackErr))
			}
			continue
		default:
			log.Info("connection closed", zap.Error(err))
			return
		}

		metrics.FramesAccepted.Inc()
		if err := writeFrameAck(conn, codec, len(frame.Records)); err != nil {
			log.Warn("ack write timed out", zap.Error(err))
		}

		tb, err := resolver.Get(ctx, proc.Client, rawIMEI)
		if err != nil {
			tb = nil
		}

		w.Submit(worker.IncomingFrame{
			Frame:     frame,
			Trackable: tb,
			IMEI:      rawIMEI,
			Listener:  profile,
		})
	}
}

// writeFrameAck bounds the ACK write to AckTimeout, resetting the deadline
// afterward since connection reads have no inactivity timeout.
func writeFrameAck(conn net.Conn, codec *avl.Codec, recordCount int) error {
	if err := conn.SetWriteDeadline(time.Now().Add(AckTimeout)); err != nil {
		return err
	}
	defer conn.SetWriteDeadline(time.Time{})
	return codec.WriteFrameAck(recordCount)
}
