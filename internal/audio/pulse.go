package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const clientName = "pizoo"

// Device describes one Pulse output sink.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved sink plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(clientName),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse output sinks with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return listSinks(client)
}

// SelectDevice resolves preferred against the live sink list.
func SelectDevice(ctx context.Context, preferred string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, preferred)
}

func listSinks(client *pulse.Client) ([]Device, error) {
	defaultSink, err := client.DefaultSink()
	if err != nil {
		return nil, fmt.Errorf("read default sink: %w", err)
	}
	defaultID := defaultSink.ID()

	var sinkInfos pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinkInfos); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	devices := make([]Device, 0, len(sinkInfos))
	for _, sink := range sinkInfos {
		if sink == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          sink.SinkName,
			Description: sink.Device,
			State:       sinkStateString(sink.State),
			Available:   sinkAvailable(sink),
			Muted:       sink.Mute,
			Default:     sink.SinkName == defaultID,
		})
	}
	return devices, nil
}

// selectDeviceFromList resolves the audio.device preference against live
// sinks. An unusable or unmatched preference falls back to the default sink
// with a warning.
func selectDeviceFromList(devices []Device, preferred string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio output devices found")
	}

	preferred = strings.TrimSpace(strings.ToLower(preferred))

	var defaultDevice, byName *Device
	for i := range devices {
		dev := &devices[i]
		if dev.Default {
			defaultDevice = dev
		}
		if byName == nil && preferred != "" && preferred != "default" && deviceMatches(*dev, preferred) {
			byName = dev
		}
	}

	if byName != nil && byName.Available {
		return Selection{Device: *byName}, nil
	}
	if defaultDevice == nil {
		return Selection{}, errors.New("default audio sink is unavailable")
	}
	if preferred == "" || preferred == "default" {
		return Selection{Device: *defaultDevice}, nil
	}

	reason := "did not match any device"
	if byName != nil {
		reason = "is not available"
	}
	return Selection{
		Device:   *defaultDevice,
		Warning:  fmt.Sprintf("audio.device %q %s; falling back to %q", preferred, reason, defaultDevice.ID),
		Fallback: true,
	}, nil
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// PulseOutput plays clips through one Pulse playback stream at a time.
type PulseOutput struct {
	client  *pulse.Client
	sink    *pulse.Sink
	rate    beep.SampleRate
	latency time.Duration
	now     func() time.Time

	mu        sync.Mutex
	stream    *pulse.PlaybackStream
	busyUntil time.Time
	closed    bool
}

// NewPulseOutput connects to the Pulse server and resolves the output sink.
func NewPulseOutput(_ context.Context, opts Options, logger *slog.Logger) (*PulseOutput, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	out := &PulseOutput{
		client:  client,
		rate:    opts.SampleRate,
		latency: opts.Buffer,
		now:     time.Now,
	}

	preferred := strings.TrimSpace(opts.Device)
	if preferred == "" || strings.EqualFold(preferred, "default") {
		return out, nil
	}

	devices, err := listSinks(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	selection, err := selectDeviceFromList(devices, preferred)
	if err != nil {
		client.Close()
		return nil, err
	}
	if selection.Warning != "" {
		logger.Warn(selection.Warning)
	}

	sink, err := client.SinkByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve sink %q: %w", selection.Device.ID, err)
	}
	out.sink = sink
	return out, nil
}

// Play stops whatever is audible and starts clip on a fresh stream.
func (o *PulseOutput) Play(clip *Clip) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errors.New("pulse output closed")
	}
	o.stopLocked()

	opts := []pulse.PlaybackOption{
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(int(o.rate)),
		pulse.PlaybackLatency(o.latency.Seconds()),
		pulse.PlaybackMediaName("pizoo " + clip.Name),
	}
	if o.sink != nil {
		opts = append(opts, pulse.PlaybackSink(o.sink))
	}

	stream, err := o.client.NewPlayback(pulse.Float32Reader(clipReader(clip.Streamer())), opts...)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	stream.Start()

	o.stream = stream
	o.busyUntil = o.now().Add(clip.Duration() + o.latency)
	return nil
}

// Stop cuts the current clip.
func (o *PulseOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

// Busy reports whether a clip is still audible.
func (o *PulseOutput) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stream == nil {
		return false
	}
	if o.stream.Error() != nil {
		return false
	}
	return o.now().Before(o.busyUntil)
}

// Close releases the stream and the server connection.
func (o *PulseOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.stopLocked()
	o.client.Close()
	return nil
}

func (o *PulseOutput) stopLocked() {
	if o.stream == nil {
		return
	}
	o.stream.Stop()
	o.stream.Close()
	o.stream = nil
	o.busyUntil = time.Time{}
}

// clipReader adapts a beep streamer to interleaved stereo float32 frames.
func clipReader(s beep.Streamer) func([]float32) (int, error) {
	var frames [][2]float64
	return func(buf []float32) (int, error) {
		want := len(buf) / 2
		if want == 0 {
			return 0, nil
		}
		if cap(frames) < want {
			frames = make([][2]float64, want)
		}
		frames = frames[:want]

		n, ok := s.Stream(frames)
		for i := 0; i < n; i++ {
			buf[2*i] = float32(frames[i][0])
			buf[2*i+1] = float32(frames[i][1])
		}
		if !ok || n < want {
			return 2 * n, pulse.EndOfData
		}
		return 2 * n, nil
	}
}

// sinkStateString maps Pulse sink state constants to human-readable values.
func sinkStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sinkAvailable maps Pulse sink port availability to a simple boolean.
func sinkAvailable(sink *pulseproto.GetSinkInfoReply) bool {
	if sink == nil {
		return false
	}
	if len(sink.Ports) == 0 {
		return true
	}
	for _, port := range sink.Ports {
		if port.Name != sink.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
