package spotifyproto

import "google.golang.org/protobuf/encoding/protowire"

// PlayerOptions mirrors Cluster.player_state.options.
type PlayerOptions struct {
	ShufflingContext bool
	RepeatingContext bool
	RepeatingTrack   bool
}

// PlayerState mirrors the subset of Cluster.player_state this client needs.
type PlayerState struct {
	TrackURI              string
	ContextURI            string
	PositionAsOfTimestamp int64
	Timestamp             int64
	IsPlaying             bool
	IsPaused              bool
	Options               PlayerOptions
}

// Cluster is the decoded connect-state cluster_update payload.
type Cluster struct {
	ActiveDeviceID string
	PlayerState    PlayerState
	Timestamp      int64
}

const (
	fClusterActiveDevice protowire.Number = 1
	fClusterPlayerState  protowire.Number = 5
	fClusterTimestamp    protowire.Number = 9

	fPlayerStateTrackURI   protowire.Number = 1
	fPlayerStateContextURI protowire.Number = 2
	fPlayerStatePosition   protowire.Number = 3
	fPlayerStateTimestamp  protowire.Number = 4
	fPlayerStateIsPlaying  protowire.Number = 5
	fPlayerStateIsPaused   protowire.Number = 6
	fPlayerStateOptions    protowire.Number = 7

	fOptionsShuffling protowire.Number = 1
	fOptionsRepeatCtx protowire.Number = 2
	fOptionsRepeatTrk protowire.Number = 3
)

// UnmarshalCluster decodes a ClusterUpdate protobuf body.
func UnmarshalCluster(data []byte) (*Cluster, error) {
	r := newFieldReader(data)
	c := &Cluster{}
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fClusterActiveDevice:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			c.ActiveDeviceID = string(b)
		case fClusterPlayerState:
			b, err := r.consumeBytes()
			if err != nil {
				return nil, err
			}
			ps, err := unmarshalPlayerState(b)
			if err != nil {
				return nil, err
			}
			c.PlayerState = ps
		case fClusterTimestamp:
			v, err := r.consumeVarint()
			if err != nil {
				return nil, err
			}
			c.Timestamp = int64(v)
		default:
			if err := r.skip(typ); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func unmarshalPlayerState(data []byte) (PlayerState, error) {
	r := newFieldReader(data)
	var ps PlayerState
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fPlayerStateTrackURI:
			b, err := r.consumeBytes()
			if err != nil {
				return ps, err
			}
			ps.TrackURI = string(b)
		case fPlayerStateContextURI:
			b, err := r.consumeBytes()
			if err != nil {
				return ps, err
			}
			ps.ContextURI = string(b)
		case fPlayerStatePosition:
			v, err := r.consumeVarint()
			if err != nil {
				return ps, err
			}
			ps.PositionAsOfTimestamp = int64(v)
		case fPlayerStateTimestamp:
			v, err := r.consumeVarint()
			if err != nil {
				return ps, err
			}
			ps.Timestamp = int64(v)
		case fPlayerStateIsPlaying:
			v, err := r.consumeVarint()
			if err != nil {
				return ps, err
			}
			ps.IsPlaying = v != 0
		case fPlayerStateIsPaused:
			v, err := r.consumeVarint()
			if err != nil {
				return ps, err
			}
			ps.IsPaused = v != 0
		case fPlayerStateOptions:
			b, err := r.consumeBytes()
			if err != nil {
				return ps, err
			}
			opts, err := unmarshalOptions(b)
			if err != nil {
				return ps, err
			}
			ps.Options = opts
		default:
			if err := r.skip(typ); err != nil {
				return ps, err
			}
		}
	}
	return ps, nil
}

func unmarshalOptions(data []byte) (PlayerOptions, error) {
	r := newFieldReader(data)
	var o PlayerOptions
	for {
		num, typ, more := r.next()
		if !more {
			break
		}
		switch num {
		case fOptionsShuffling:
			v, err := r.consumeVarint()
			if err != nil {
				return o, err
			}
			o.ShufflingContext = v != 0
		case fOptionsRepeatCtx:
			v, err := r.consumeVarint()
			if err != nil {
				return o, err
			}
			o.RepeatingContext = v != 0
		case fOptionsRepeatTrk:
			v, err := r.consumeVarint()
			if err != nil {
				return o, err
			}
			o.RepeatingTrack = v != 0
		default:
			if err := r.skip(typ); err != nil {
				return o, err
			}
		}
	}
	return o, nil
}

func (o PlayerOptions) marshal() []byte {
	var buf []byte
	buf = appendBool(buf, fOptionsShuffling, o.ShufflingContext)
	buf = appendBool(buf, fOptionsRepeatCtx, o.RepeatingContext)
	buf = appendBool(buf, fOptionsRepeatTrk, o.RepeatingTrack)
	return buf
}

func (ps PlayerState) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fPlayerStateTrackURI, ps.TrackURI)
	buf = appendString(buf, fPlayerStateContextURI, ps.ContextURI)
	buf = appendInt64(buf, fPlayerStatePosition, ps.PositionAsOfTimestamp)
	buf = appendInt64(buf, fPlayerStateTimestamp, ps.Timestamp)
	buf = appendBool(buf, fPlayerStateIsPlaying, ps.IsPlaying)
	buf = appendBool(buf, fPlayerStateIsPaused, ps.IsPaused)
	buf = appendMessage(buf, fPlayerStateOptions, ps.Options.marshal())
	return buf
}

// DeviceInfo mirrors PutStateRequest.device.device_info.
type DeviceInfo struct {
	DeviceID  string
	Name      string
	VolumeInt int32
}

// PutStateRequest is the outbound device-state publish payload.
type PutStateRequest struct {
	Device      DeviceInfo
	PlayerState PlayerState
	Timestamp   int64
}

const (
	fPutStateDevice    protowire.Number = 1
	fPutStateTimestamp protowire.Number = 2

	fDeviceInfoID      protowire.Number = 1
	fDeviceInfoName    protowire.Number = 2
	fDeviceInfoVolume  protowire.Number = 3
	fDevicePlayerState protowire.Number = 4
)

func (d DeviceInfo) marshal() []byte {
	var buf []byte
	buf = appendString(buf, fDeviceInfoID, d.DeviceID)
	buf = appendString(buf, fDeviceInfoName, d.Name)
	buf = appendVarint(buf, fDeviceInfoVolume, uint64(d.VolumeInt))
	return buf
}

// Marshal encodes a PutStateRequest to its protobuf wire form.
func (r PutStateRequest) Marshal() []byte {
	deviceBuf := r.Device.marshal()
	deviceBuf = appendMessage(deviceBuf, fDevicePlayerState, r.PlayerState.marshal())

	var buf []byte
	buf = appendMessage(buf, fPutStateDevice, deviceBuf)
	buf = appendInt64(buf, fPutStateTimestamp, r.Timestamp)
	return buf
}
