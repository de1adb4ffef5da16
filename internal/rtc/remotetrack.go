package rtc

import (
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

// pumpRemoteTrack drains RTP from a remote track so pion keeps the receiver
// alive. Video tracks additionally get a periodic PLI so the sender refreshes
// keyframes after loss.
func (t *Transport) pumpRemoteTrack(track *webrtc.TrackRemote) {
	if track.Kind() == webrtc.RTPCodecTypeVideo {
		go t.sendPLI(track)
	}

	var pkt *rtp.Packet
	var lastSeq uint16

	for {
		var err error
		pkt, _, err = track.ReadRTP()
		if err != nil {
			return
		}

		if lastSeq != 0 && pkt.SequenceNumber != lastSeq+1 {
			log.Debug().
				Str("service", "rtc").
				Uint16("expected", lastSeq+1).
				Uint16("got", pkt.SequenceNumber).
				Msg("rtp sequence gap")
		}
		lastSeq = pkt.SequenceNumber
	}
}

func (t *Transport) sendPLI(track *webrtc.TrackRemote) {
	ticker := time.NewTicker(rtcpPLIInterval)
	defer ticker.Stop()

	for range ticker.C {
		pli := &rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())}
		if err := t.pc.WriteRTCP([]rtcp.Packet{pli}); err != nil {
			return
		}
	}
}
