// Package dispatch binds the selected output and channel to high-level MIDI sends.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/PixPMusic/pedal-editor/internal/midi"
)

// ErrNoOutput is returned when sending without a selected output port
var ErrNoOutput = errors.New("no MIDI output selected")

const (
	typeProgramChange = "program_change"
	typeControlChange = "control_change"
)

// Service holds the known output ports, the selected port and the active channel.
// Gateway notifications arrive on another goroutine so all state is guarded.
type Service struct {
	gateway midi.Gateway
	metrics *Metrics

	mu       sync.RWMutex
	outputs  []midi.Port
	selected string
	channel  midi.Channel
	lastErr  error

	listenersMu sync.Mutex
	listeners   []func()

	subscribeOnce sync.Once
}

// New creates a service sending through gateway. metrics may be nil.
func New(gateway midi.Gateway, metrics *Metrics) *Service {
	return &Service{
		gateway: gateway,
		metrics: metrics,
		channel: midi.MinChannel,
	}
}

// Init subscribes to port changes, acquires output access and loads the outputs.
// The subscription survives a failed access request so a later Refresh keeps hot-plug alive.
func (s *Service) Init(ctx context.Context) error {
	s.subscribe()
	if err := s.gateway.EnsureAccess(ctx); err != nil {
		s.setErr(err)
		return err
	}
	return s.Refresh(ctx)
}

func (s *Service) subscribe() {
	s.subscribeOnce.Do(func() {
		s.gateway.OnStateChange(func() {
			if err := s.Refresh(context.Background()); err != nil {
				log.Printf("Failed to refresh MIDI outputs: %v", err)
			}
		})
	})
}

// Refresh re-queries the gateway. A selection that disappeared falls back to
// the first port, or none when the list is empty.
func (s *Service) Refresh(ctx context.Context) error {
	s.subscribe()
	ports, err := s.gateway.Outputs(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.outputs = ports
	if _, ok := findPort(ports, s.selected); !ok {
		s.selected = ""
		if len(ports) > 0 {
			s.selected = ports[0].ID
		}
	}
	s.mu.Unlock()

	s.metrics.setOutputs(len(ports))
	s.notify()
	return nil
}

// OnChange registers fn to run after every refresh or selection change
func (s *Service) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// SelectOutput sets the selected port id without checking it exists. "" clears the selection.
func (s *Service) SelectOutput(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	s.notify()
}

// SelectOutputByName selects the first known port called name
func (s *Service) SelectOutputByName(name string) bool {
	s.mu.Lock()
	found := false
	for _, p := range s.outputs {
		if p.Name == name {
			s.selected = p.ID
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// SelectedPort returns the selected port when it is still listed
func (s *Service) SelectedPort() (midi.Port, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPort(s.outputs, s.selected)
}

// SetChannel changes the active channel; invalid channels are ignored
func (s *Service) SetChannel(n int) {
	ch, err := midi.ValidateChannel(n)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = ch
}

// SendProgramChange sends a program change on the active channel
func (s *Service) SendProgramChange(program int) error {
	port, ch, err := s.target()
	if err == nil {
		err = midi.SendProgramChange(s.gateway, port, midi.ProgramChange{Channel: ch, Program: program})
	}
	return s.record(typeProgramChange, err)
}

// SendControlChange sends a control change on the active channel
func (s *Service) SendControlChange(controller, value int) error {
	port, ch, err := s.target()
	if err == nil {
		err = midi.SendControlChange(s.gateway, port, midi.ControlChange{Channel: ch, Controller: controller, Value: value})
	}
	return s.record(typeControlChange, err)
}

// target resolves the selected port. A dangling id counts as no selection.
func (s *Service) target() (midi.Port, midi.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	port, ok := findPort(s.outputs, s.selected)
	if !ok {
		return midi.Port{}, s.channel, ErrNoOutput
	}
	return port, s.channel, nil
}

func (s *Service) record(msgType string, err error) error {
	if err != nil {
		s.metrics.failed(msgType, err)
		err = fmt.Errorf("failed to send %s: %w", msgType, err)
		s.setErr(err)
		return err
	}
	s.metrics.sent(msgType)
	return nil
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Outputs returns the ports seen on the last refresh
func (s *Service) Outputs() []midi.Port {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]midi.Port(nil), s.outputs...)
}

// Selected returns the selected port id, "" when none
func (s *Service) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Channel returns the active channel
func (s *Service) Channel() midi.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// Err returns the last access, refresh or send error
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func findPort(ports []midi.Port, id string) (midi.Port, bool) {
	if id == "" {
		return midi.Port{}, false
	}
	for _, p := range ports {
		if p.ID == id {
			return p, true
		}
	}
	return midi.Port{}, false
}
