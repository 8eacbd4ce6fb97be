package vanity

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"lukechampine.com/uint128"
)

const (
	baseIterations = 4096
	minIterations  = 512

	rateWindow     = 20 * time.Second
	reportInterval = time.Second
)

// Dispatcher owns the launch loop: it rotates the base salt, fans one launch
// out over worker goroutines, drains and re-validates the result buffer, and
// appends matches to the output log.
type Dispatcher struct {
	tab *Tables
	log logr.Logger

	Workers    int
	Iterations uint32
	GlobalSize uint32

	out   io.Writer
	outMu sync.Mutex

	checked uint64
	found   uint64
}

func NewDispatcher(tab *Tables, out io.Writer, log logr.Logger) *Dispatcher {
	workers := runtime.NumCPU()

	// scale the per-item iteration count down with the variant fan-out so a
	// launch stays short enough to cancel promptly
	iters := uint32(baseIterations / len(tab.Variants))
	if iters < minIterations {
		iters = minIterations
	}

	return &Dispatcher{
		tab:        tab,
		log:        log,
		out:        out,
		Workers:    workers,
		Iterations: iters,
		GlobalSize: uint32(workers * 16),
	}
}

// Found returns the number of validated matches so far.
func (d *Dispatcher) Found() uint64 {
	return atomic.LoadUint64(&d.found)
}

// Checked returns the number of effective candidates tested so far.
func (d *Dispatcher) Checked() uint64 {
	return atomic.LoadUint64(&d.checked)
}

// Run searches until the context is cancelled or, with only-one set, until
// the first validated hit. The launch in flight always completes; the
// context is only consulted between launches.
func (d *Dispatcher) Run(ctx context.Context) error {
	kern := NewKernel(d.tab)

	reportDone := make(chan struct{})
	reportStop := make(chan struct{})
	go func() {
		defer close(reportDone)
		d.report(reportStop)
	}()
	defer func() {
		close(reportStop)
		<-reportDone
	}()

	for launch := uint64(0); ; launch++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		baseSalt, err := d.nextSalt(launch)
		if err != nil {
			return fmt.Errorf("salt rotation: %w", err)
		}

		p := LaunchParams{
			Iterations: d.Iterations,
			GlobalSize: d.GlobalSize,
			Salt:       saltWords(baseSalt),
		}

		kern.Reset()

		var wg sync.WaitGroup
		chunk := (p.GlobalSize + uint32(d.Workers) - 1) / uint32(d.Workers)
		for from := uint32(0); from < p.GlobalSize; from += chunk {
			to := from + chunk
			if to > p.GlobalSize {
				to = p.GlobalSize
			}

			wg.Add(1)
			go func(from, to uint32) {
				defer wg.Done()
				kern.Run(p, from, to)
			}(from, to)
		}
		wg.Wait()

		atomic.AddUint64(&d.checked,
			uint64(p.Iterations)*uint64(p.GlobalSize)*uint64(len(d.tab.Variants)))

		count := kern.Found()
		if count > ResSlots {
			// non-fatal: the drained slots are still valid, the excess is lost
			d.log.Info("result buffer overflow, shrinking launch",
				"found", count, "slots", ResSlots)
			if d.Iterations/2 >= minIterations {
				d.Iterations /= 2
			}
		}

		for _, h := range kern.Hits() {
			m, err := d.tab.VerifyHit(baseSalt, h)
			if err != nil {
				return fmt.Errorf("hit validation failed (iter=%d, idx=%d, variant=%d): %w",
					h.Iter, h.Index, h.Variant, err)
			}

			if err = d.writeMatch(m); err != nil {
				return fmt.Errorf("output log: %w", err)
			}

			n := atomic.AddUint64(&d.found, 1)
			d.log.Info("found address", "address", m.Address, "total", n)

			if d.tab.cfg.OnlyOne {
				return nil
			}
		}
	}
}

// nextSalt draws a fresh random base and offsets its high half (salt words 2
// and 3, which no work item varies) by the launch index, so the salt spaces
// of one session stay disjoint even on a repeated draw.
func (d *Dispatcher) nextSalt(launch uint64) ([saltLen]byte, error) {
	var b [saltLen]byte
	if _, err := crand.Read(b[:]); err != nil {
		return b, err
	}

	u := uint128.FromBytes(b[:])
	u.Hi += launch
	u.PutBytes(b[:])
	return b, nil
}

func saltWords(b [saltLen]byte) [4]uint32 {
	return [4]uint32{
		binary.LittleEndian.Uint32(b[0:]),
		binary.LittleEndian.Uint32(b[4:]),
		binary.LittleEndian.Uint32(b[8:]),
		binary.LittleEndian.Uint32(b[12:]),
	}
}

func (d *Dispatcher) writeMatch(m *Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	d.outMu.Lock()
	defer d.outMu.Unlock()

	_, err = d.out.Write(append(data, '\n'))
	return err
}

func (d *Dispatcher) report(stop <-chan struct{}) {
	type sample struct {
		at      time.Time
		checked uint64
	}

	var history []sample
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			history = append(history, sample{at: now, checked: d.Checked()})
			for len(history) > 1 && now.Sub(history[0].at) > rateWindow {
				history = history[1:]
			}
			if len(history) < 2 {
				continue
			}

			first, last := history[0], history[len(history)-1]
			dt := last.at.Sub(first.at).Seconds()
			if dt <= 0 || last.checked == first.checked {
				continue
			}

			rate := float64(last.checked-first.checked) / dt
			d.log.Info("searching", "speed", fmtRate(rate), "found", d.Found())
		}
	}
}

func fmtRate(hps float64) string {
	switch {
	case hps >= 1e12:
		return fmt.Sprintf("%.2fT/s", hps/1e12)
	case hps >= 1e9:
		return fmt.Sprintf("%.2fB/s", hps/1e9)
	case hps >= 1e6:
		return fmt.Sprintf("%.2fM/s", hps/1e6)
	case hps >= 1e3:
		return fmt.Sprintf("%.2fk/s", hps/1e3)
	}
	return fmt.Sprintf("%.2f/s", hps)
}
