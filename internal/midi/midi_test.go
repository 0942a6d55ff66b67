package midi

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeOut struct {
	name   string
	mu     sync.Mutex
	open   bool
	sent   [][]byte
	failOn bool
}

func (f *fakeOut) String() string { return f.name }

func (f *fakeOut) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return nil
}

func (f *fakeOut) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeOut) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeOut) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn {
		return errors.New("boom")
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

type fakeDriver struct {
	mu   sync.Mutex
	outs []outPort
	err  error
}

func (d *fakeDriver) set(outs ...outPort) {
	d.mu.Lock()
	d.outs = outs
	d.mu.Unlock()
}

func (d *fakeDriver) list() ([]outPort, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]outPort(nil), d.outs...), d.err
}

func newTestManager(d *fakeDriver, opts ...Option) *Manager {
	m := NewManager(opts...)
	m.listOuts = d.list
	return m
}

func TestOutputsSortedByName(t *testing.T) {
	d := &fakeDriver{}
	d.set(&fakeOut{name: "zeta"}, &fakeOut{name: "Alpha"}, &fakeOut{name: "beta"})
	m := newTestManager(d)
	defer m.stopPolling()

	ports, err := m.Outputs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range ports {
		names = append(names, p.Name)
	}
	want := []string{"Alpha", "beta", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v; want %v", names, want)
		}
	}
}

func TestEnsureAccessWithoutDriver(t *testing.T) {
	d := &fakeDriver{err: ErrNoAccess}
	m := newTestManager(d)
	if err := m.EnsureAccess(context.Background()); !errors.Is(err, ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess, got %v", err)
	}
}

func TestSendOpensPort(t *testing.T) {
	out := &fakeOut{name: "Pedal"}
	d := &fakeDriver{}
	d.set(out)
	m := newTestManager(d)
	defer m.stopPolling()

	ports, err := m.Outputs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := SendControlChange(m, ports[0], ControlChange{Channel: 2, Controller: 7, Value: 64}); err != nil {
		t.Fatal(err)
	}
	if !out.IsOpen() {
		t.Fatalf("port was not opened")
	}
	if len(out.sent) != 1 || !bytes.Equal(out.sent[0], []byte{0xB1, 7, 64}) {
		t.Fatalf("sent = % X", out.sent)
	}
}

func TestSendUnknownPort(t *testing.T) {
	m := newTestManager(&fakeDriver{})
	defer m.stopPolling()
	if err := m.Send(Port{ID: "missing"}, []byte{0xC0, 1}); err == nil {
		t.Fatalf("expected error for unknown port")
	}
}

func TestSendEncodingErrorNotTransmitted(t *testing.T) {
	out := &fakeOut{name: "Pedal"}
	d := &fakeDriver{}
	d.set(out)
	m := newTestManager(d)
	defer m.stopPolling()
	ports, _ := m.Outputs(context.Background())

	if err := SendProgramChange(m, ports[0], ProgramChange{Channel: 1, Program: 300}); err == nil {
		t.Fatalf("expected encoding error")
	}
	if len(out.sent) != 0 {
		t.Fatalf("invalid message was transmitted")
	}
}

func TestStateChangeNotifiesAllListeners(t *testing.T) {
	d := &fakeDriver{}
	d.set(&fakeOut{name: "A"})
	m := newTestManager(d, WithPollRate(5*time.Millisecond))
	defer m.stopPolling()

	var mu sync.Mutex
	calls := map[string]int{}
	m.OnStateChange(func() { mu.Lock(); calls["first"]++; mu.Unlock() })
	m.OnStateChange(func() { mu.Lock(); calls["second"]++; mu.Unlock() })

	if err := m.EnsureAccess(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.set(&fakeOut{name: "A"}, &fakeOut{name: "B"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := calls["first"] > 0 && calls["second"] > 0
		mu.Unlock()
		if done {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("listeners not notified: %v", calls)
}

func TestRescanKeepsOpenHandle(t *testing.T) {
	var created []*fakeOut
	names := []string{"Pedal"}
	var mu sync.Mutex
	m := NewManager()
	// Every listing returns fresh port objects, as real drivers do
	m.listOuts = func() ([]outPort, error) {
		mu.Lock()
		defer mu.Unlock()
		outs := make([]outPort, 0, len(names))
		for _, n := range names {
			out := &fakeOut{name: n}
			created = append(created, out)
			outs = append(outs, out)
		}
		return outs, nil
	}
	defer m.stopPolling()

	port := Port{ID: "Pedal", Name: "Pedal"}
	if _, err := m.Outputs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Send(port, []byte{0xB0, 1, 2}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := m.scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Send(port, []byte{0xB0, 1, 3}); err != nil {
		t.Fatalf("second send: %v", err)
	}

	mu.Lock()
	open := 0
	for _, out := range created {
		if out.IsOpen() {
			open++
		}
	}
	mu.Unlock()
	if open != 1 {
		t.Fatalf("%d handles open for one port, want 1", open)
	}

	mu.Lock()
	names = nil
	mu.Unlock()
	if _, err := m.scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, out := range created {
		if out.IsOpen() {
			t.Fatalf("handle for a removed port was left open")
		}
	}
}
