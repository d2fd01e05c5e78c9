/* Copyright (c) 2019 Gregor Riepl
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kestrelmedia/rtpcore/api"
	"github.com/kestrelmedia/rtpcore/configuration"
	"github.com/kestrelmedia/rtpcore/metrics"
	"github.com/kestrelmedia/rtpcore/protocol"
	"github.com/kestrelmedia/rtpcore/util"
)

const (
	moduleMain = "main"
	//
	eventMainListening   = "listening"
	eventMainAccept      = "accept"
	eventMainDisconnect  = "disconnect"
	eventMainConfigError = "config_error"
	eventMainShutdown    = "shutdown"
	//
	errorMainConfig = "config"
	errorMainListen = "listen"
)

var logger = util.NewGlobalModuleLogger(moduleMain, nil)

// shuttingDown is set once a termination signal has been received, so the
// accept loop can tell a deliberate listener close from a real accept error.
var shuttingDown util.AtomicBool

func trackType(name string) protocol.TrackType {
	if name == "audio" {
		return protocol.TrackAudio
	}
	return protocol.TrackVideo
}

func trackName(track protocol.TrackContext) string {
	if track.Type == protocol.TrackAudio {
		return "audio"
	}
	return "video"
}

// connHandler owns one Framer+Receiver pair for the lifetime of a single
// TCP connection. Nothing here is shared with any other connection or
// goroutine.
type connHandler struct {
	conn         net.Conn
	framer       *protocol.Framer
	receiver     *protocol.Receiver
	numTracks    int
	buf          []byte
	pendingTrack int
	// tail keeps the most recent raw bytes read off the wire, so a
	// framing failure can be logged with some context on what broke it.
	tail *util.SlidingWindow
}

func newConnHandler(conn net.Conn, pool *protocol.Pool, tracks []protocol.TrackContext) *connHandler {
	h := &connHandler{
		conn:      conn,
		framer:    protocol.NewFramer(),
		receiver:  protocol.NewReceiver(pool, tracks),
		numTracks: len(tracks),
		tail:      util.CreateSlidingWindow(64),
	}
	h.framer.SetOnPacket(h.onPacket)
	h.framer.SetOnVariant(func(variant string) {
		metrics.Rtp.Variant.WithLabelValues(variant).Inc()
	})
	h.receiver.SetOnReject(func(trackIndex int, reason string) {
		name := "unknown"
		if trackIndex >= 0 && trackIndex < len(tracks) {
			name = trackName(tracks[trackIndex])
		}
		metrics.Rtp.Rejected.WithLabelValues(name, reason).Inc()
	})
	h.receiver.SetOnRoll(func(trackIndex int) {
		name := "unknown"
		if trackIndex >= 0 && trackIndex < len(tracks) {
			name = trackName(tracks[trackIndex])
		}
		metrics.Rtp.SsrcRolls.WithLabelValues(name).Inc()
	})
	return h
}

// onPacket is the Framer's packet sink. It picks a track index for the
// generic path from the TCP-interleaved channel byte (captured in dispatch,
// before the Framer strips it), or from the JT1078 data_type nibble, then
// hands the packet to the matching Receiver entry point. Resolving a track
// index from wire bytes is substrate-specific and outside the parsing
// core's contract; this is one reasonable policy for a demo driver.
func (h *connHandler) onPacket(data []byte) {
	var err error
	if h.framer.IsJt1078() {
		track := 0
		if protocol.Jt1078TrackHint(data) && h.numTracks > 1 {
			track = 1
		}
		err = h.receiver.HandleJt1078Rtp(track, data)
	} else {
		err = h.receiver.HandleOneRtp(h.pendingTrack, data)
	}
	if err == protocol.ErrMalformedRtp {
		h.conn.Close()
	}
}

// dispatch picks the track hint for the generic path and forwards the
// packet to the Framer for offset stripping and the EHOME fix-up.
func (h *connHandler) dispatch(packet []byte) {
	h.pendingTrack = 0
	if len(packet) > 1 && packet[0] == '$' && !h.framer.IsJt1078() && !h.framer.IsEhome() {
		h.pendingTrack = int(packet[1]) / 2
	}
	h.framer.OnRecvHeader(packet)
}

// serve reads from the connection into a growable buffer, asking the
// Framer to locate packet boundaries, until the connection is closed.
func (h *connHandler) serve() {
	defer h.conn.Close()
	chunk := make([]byte, 4096)
	for {
		end, err := h.framer.SearchPacketTail(h.buf)
		if err == protocol.ErrNeedMoreData {
			n, rerr := h.conn.Read(chunk)
			if n > 0 {
				h.buf = append(h.buf, chunk[:n]...)
				h.tail.Put(chunk[:n])
			}
			if rerr != nil {
				return
			}
			continue
		}
		if err != nil {
			// ErrMalformedRtp never reaches SearchPacketTail; any other
			// error here means the stream can no longer be framed.
			logger.Logkv("event", "frame_error", "error", err.Error(), "tail", fmt.Sprintf("%x", h.tail.Get()))
			return
		}
		packet := make([]byte, end)
		copy(packet, h.buf[:end])
		remaining := make([]byte, len(h.buf)-end)
		copy(remaining, h.buf[end:])
		h.buf = remaining
		h.dispatch(packet)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to the JSON configuration file")
	logPath := flag.String("logfile", "", "Write JSON logs to this file instead of stdout (reopens on SIGUSR1)")
	flag.Parse()

	if *logPath != "" {
		fileLogger, err := util.NewFileLogger(*logPath, true)
		if err != nil {
			logger.Logkv("event", eventMainConfigError, "error", errorMainConfig, "message", err.Error())
			return
		}
		util.SetGlobalStandardLogger(fileLogger)
	}

	config := configuration.DefaultConfiguration()
	if *configPath != "" {
		loaded, err := configuration.LoadConfigurationFile(*configPath)
		if err != nil {
			logger.Logkv("event", eventMainConfigError, "error", errorMainConfig, "message", err.Error())
			return
		}
		config = loaded
	}

	pool := protocol.NewPool(config.PoolSize)

	names := make([]string, len(config.Tracks))
	sorters := make([]protocol.Sorter, len(config.Tracks))
	for i, t := range config.Tracks {
		names[i] = t.TrackType
		sorter := protocol.NewDefaultSorter(config.Lookahead)
		trackIndex := i
		label := t.TrackType
		sorter.SetOnSort(func(seq uint16, packet *protocol.RtpPacket) {
			metrics.Rtp.Accepted.WithLabelValues(label).Inc()
			metrics.Rtp.JitterSize.WithLabelValues(label).Set(float64(sorter.JitterSize()))
			metrics.Rtp.CycleCount.WithLabelValues(label).Set(float64(sorter.CycleCount()))
			onRtpSorted(packet, trackIndex)
			pool.Release(packet)
		})
		sorters[i] = sorter
	}

	baseTracks := make([]protocol.TrackContext, len(config.Tracks))
	for i, t := range config.Tracks {
		baseTracks[i] = protocol.TrackContext{
			Type:         trackType(t.TrackType),
			SampleRateHz: t.SampleRateHz,
			Sorter:       sorters[i],
		}
	}

	http.Handle("/metrics", api.NewPrometheusApi())
	http.Handle("/stats", api.NewStatsApi(names, sorters))
	go func() {
		_ = http.ListenAndServe(":9090", nil)
	}()

	listener, err := net.Listen("tcp", config.Listen)
	if err != nil {
		logger.Logkv("event", eventMainListening, "error", errorMainListen, "message", err.Error())
		return
	}
	logger.Logkv("event", eventMainListening, "listen", config.Listen)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		util.StoreBool(&shuttingDown, true)
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if util.LoadBool(&shuttingDown) {
				logger.Logkv("event", eventMainShutdown)
				return
			}
			logger.Logkv("event", eventMainAccept, "error", err.Error())
			continue
		}
		logger.Logkv("event", eventMainAccept, "remote", conn.RemoteAddr().String())
		handler := newConnHandler(conn, pool, baseTracks)
		go func() {
			handler.serve()
			logger.Logkv("event", eventMainDisconnect, "remote", conn.RemoteAddr().String())
		}()
	}
}

// onRtpSorted is the downstream sink a real depacketiser would replace.
// The demo driver only records that a packet reached the end of the
// pipeline.
func onRtpSorted(packet *protocol.RtpPacket, trackIndex int) {
	logger.Logkv(
		"event", "rtp_sorted",
		"track", trackIndex,
		"sequence", strconv.Itoa(int(packet.Sequence)),
		"timestamp_ms", packet.TimestampMs,
		"ssrc", packet.Ssrc,
	)
}
