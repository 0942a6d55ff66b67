package midi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNoAccess is returned when no MIDI driver is available on the host
var ErrNoAccess = errors.New("MIDI output is not available on this system")

// Gateway is the transport used by the dispatcher
type Gateway interface {
	// EnsureAccess acquires the ability to address output ports. Safe to call repeatedly.
	EnsureAccess(ctx context.Context) error

	// Outputs returns the current output ports ordered by name
	Outputs(ctx context.Context) ([]Port, error)

	// OnStateChange registers fn to be called whenever a port connects or disconnects
	OnStateChange(fn func())

	// Send transmits raw bytes to a port. Delivery is not confirmed.
	Send(port Port, data []byte) error
}

// SendProgramChange encodes pc and sends it through g
func SendProgramChange(g Gateway, port Port, pc ProgramChange) error {
	data, err := EncodeProgramChange(pc)
	if err != nil {
		return err
	}
	return g.Send(port, data)
}

// SendControlChange encodes cc and sends it through g
func SendControlChange(g Gateway, port Port, cc ControlChange) error {
	data, err := EncodeControlChange(cc)
	if err != nil {
		return err
	}
	return g.Send(port, data)
}

// outPort is the part of drivers.Out the manager relies on
type outPort interface {
	String() string
	Open() error
	IsOpen() bool
	Send(data []byte) error
	Close() error
}

// Option configures a Manager
type Option func(*Manager)

// WithPollRate sets how often ports are rescanned for hot-plug changes
func WithPollRate(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollRate = d
		}
	}
}

// WithLocale sets the collation used to order port names
func WithLocale(tag language.Tag) Option {
	return func(m *Manager) {
		m.collator = collate.New(tag)
	}
}

// WithDriver uses drv instead of the first registered gomidi driver
func WithDriver(drv drivers.Driver) Option {
	return func(m *Manager) {
		m.listOuts = driverOuts(func() drivers.Driver { return drv })
	}
}

// Manager implements Gateway on top of a gomidi driver. Port changes are
// detected by polling since gomidi drivers have no hot-plug notification.
type Manager struct {
	mu        sync.Mutex
	listOuts  func() ([]outPort, error)
	collator  *collate.Collator
	pollRate  time.Duration
	listeners []func()
	ports     map[string]outPort
	lastNames []string
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewManager creates a new MIDI manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		listOuts: driverOuts(drivers.Get),
		collator: collate.New(language.Und),
		pollRate: time.Second,
		ports:    make(map[string]outPort),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func driverOuts(get func() drivers.Driver) func() ([]outPort, error) {
	return func() ([]outPort, error) {
		drv := get()
		if drv == nil {
			return nil, ErrNoAccess
		}
		outs, err := drv.Outs()
		if err != nil {
			return nil, fmt.Errorf("failed to list output ports: %w", err)
		}
		ports := make([]outPort, 0, len(outs))
		for _, out := range outs {
			ports = append(ports, out)
		}
		return ports, nil
	}
}

// EnsureAccess checks that a driver is usable and starts hot-plug polling
func (m *Manager) EnsureAccess(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	names, err := m.scan(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	m.lastNames = names
	pollCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.poll(pollCtx, m.done)
	return nil
}

// Outputs returns the current output ports sorted by collated name
func (m *Manager) Outputs(ctx context.Context) ([]Port, error) {
	if err := m.EnsureAccess(ctx); err != nil {
		return nil, err
	}
	names, err := m.scan(ctx)
	if err != nil {
		return nil, err
	}
	ports := make([]Port, 0, len(names))
	for _, name := range names {
		ports = append(ports, Port{ID: name, Name: name})
	}
	return ports, nil
}

// OnStateChange registers a callback fired after any port connect/disconnect
func (m *Manager) OnStateChange(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Send transmits data to the port with the given ID, opening it on first use
func (m *Manager) Send(port Port, data []byte) error {
	m.mu.Lock()
	out, ok := m.ports[port.ID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("output port not found: %s", port.ID)
	}
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			return fmt.Errorf("failed to open %s: %w", port.Name, err)
		}
	}
	if err := out.Send(data); err != nil {
		return fmt.Errorf("failed to send to %s: %w", port.Name, err)
	}
	return nil
}

// Close stops polling and releases the gomidi driver
func (m *Manager) Close() {
	m.stopPolling()
	gomidi.CloseDriver()
}

func (m *Manager) stopPolling() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.started = false
	m.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// scan lists ports with a timeout guard (CoreMIDI can hang) and refreshes the port table
func (m *Manager) scan(ctx context.Context) ([]string, error) {
	type result struct {
		ports []outPort
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		ports, err := m.listOuts()
		ch <- result{ports: ports, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	table := make(map[string]outPort, len(res.ports))
	names := make([]string, 0, len(res.ports))
	for _, p := range res.ports {
		name := p.String()
		if _, dup := table[name]; dup {
			continue
		}
		// Keep the handle already opened for this name
		if known, ok := m.ports[name]; ok {
			p = known
		}
		table[name] = p
		names = append(names, name)
	}
	for name, p := range m.ports {
		if _, ok := table[name]; ok || !p.IsOpen() {
			continue
		}
		if err := p.Close(); err != nil {
			log.Printf("Failed to close MIDI output %s: %v", name, err)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return m.collator.CompareString(names[i], names[j]) < 0
	})
	m.ports = table
	return names, nil
}

func (m *Manager) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.pollRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scanCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			names, err := m.scan(scanCtx)
			cancel()
			if err != nil {
				continue
			}
			m.mu.Lock()
			changed := !equalNames(names, m.lastNames)
			m.lastNames = names
			listeners := append([]func(){}, m.listeners...)
			m.mu.Unlock()
			if changed {
				for _, fn := range listeners {
					fn()
				}
			}
		}
	}
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
