package dotmatrix

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend"
	"github.com/valerio/go-dotmatrix/dotmatrix/cpu"
	"github.com/valerio/go-dotmatrix/dotmatrix/disasm"
	"github.com/valerio/go-dotmatrix/dotmatrix/input"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/action"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/event"
	"github.com/valerio/go-dotmatrix/dotmatrix/memory"
	"github.com/valerio/go-dotmatrix/dotmatrix/serial"
	"github.com/valerio/go-dotmatrix/dotmatrix/timing"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// TicksPerFrame is the length of one frame: 154 lines of 456 ticks.
const TicksPerFrame = timing.TicksPerFrame

// postBootDivider is the internal divider value when the boot ROM hands over.
const postBootDivider = 0xABCC

// Config holds the machine options that are not part of the cartridge.
type Config struct {
	// BootROM is a 256 byte boot image. When neither it nor BootROMPath is
	// set the machine starts in the state the boot ROM leaves behind.
	BootROM     []byte
	BootROMPath string

	// Trace logs every executed instruction at debug level.
	Trace bool

	SerialOptions []serial.LogSinkOption
}

// DMG is the whole console: CPU, PPU and peripherals wired to one bus and
// driven by a single clock.
type DMG struct {
	cpu    *cpu.CPU
	ppu    *video.PPU
	timer  *memory.Timer
	joypad *memory.Joypad
	serial *serial.LogSink
	cart   *memory.Cartridge
	bus    *Bus
	input  *input.Manager

	trace     bool
	paused    bool
	stepFrame bool
	ticks     uint64
}

// NewWithFile loads a ROM (optionally compressed or archived) from disk.
func NewWithFile(path string, cfg Config) (*DMG, error) {
	data, err := memory.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading rom %s: %w", path, err)
	}
	slog.Info("Loaded ROM", "path", path, "bytes", len(data))
	return New(data, cfg)
}

// New builds a machine around a ROM image.
func New(rom []byte, cfg Config) (*DMG, error) {
	cart, err := memory.NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	mbc, err := memory.NewMBC(cart)
	if err != nil {
		return nil, err
	}
	boot, err := loadBootROM(cfg)
	if err != nil {
		return nil, err
	}

	d := &DMG{
		cpu:   cpu.New(),
		cart:  cart,
		bus:   newBus(),
		trace: cfg.Trace,
	}
	irq := d.bus.RequestInterrupt

	d.ppu = video.New(irq)
	d.timer = memory.NewTimer(irq)
	d.joypad = memory.NewJoypad(irq)
	d.serial = serial.NewLogSink(irq, cfg.SerialOptions...)
	d.input = input.NewManager(d.joypad)

	d.bus.cpu = d.cpu
	d.bus.ppu = d.ppu
	d.bus.mbc = mbc
	d.bus.wram = memory.NewWorkRAM()
	d.bus.boot = boot
	d.bus.joypad = d.joypad
	d.bus.timer = d.timer
	d.bus.serial = d.serial

	if boot == nil {
		d.skipBoot()
	}
	d.registerControls()
	d.logCartridge(mbc, boot != nil)

	return d, nil
}

func loadBootROM(cfg Config) (*memory.BootROM, error) {
	data := cfg.BootROM
	if data == nil && cfg.BootROMPath != "" {
		var err error
		if data, err = memory.LoadFile(cfg.BootROMPath); err != nil {
			return nil, fmt.Errorf("loading boot rom %s: %w", cfg.BootROMPath, err)
		}
	}
	if data == nil {
		return nil, nil
	}
	return memory.NewBootROM(data)
}

// skipBoot puts registers and IO in the state the DMG boot ROM leaves them.
func (d *DMG) skipBoot() {
	d.cpu.ResetToPostBoot()
	d.timer.SetSeed(postBootDivider)

	for _, reg := range []struct {
		address uint16
		value   byte
	}{
		{addr.SC, 0x7E},
		{addr.TIMA, 0x00},
		{addr.TMA, 0x00},
		{addr.TAC, 0x00},
		{addr.SCY, 0x00},
		{addr.SCX, 0x00},
		{addr.LYC, 0x00},
		{addr.BGP, 0xFC},
		{addr.OBP0, 0xFF},
		{addr.OBP1, 0xFF},
		{addr.WY, 0x00},
		{addr.WX, 0x00},
		{addr.IE, 0x00},
		{addr.LCDC, 0x91},
	} {
		d.bus.Write(reg.address, reg.value)
	}
}

func (d *DMG) logCartridge(mbc memory.MBC, withBoot bool) {
	h := d.cart.Header()
	slog.Info("Cartridge",
		"title", h.Title,
		"type", fmt.Sprintf("0x%02X", h.CartridgeType),
		"mbc", h.MBC.String(),
		"rom_bytes", mbc.ROMSize(),
		"ram_bytes", mbc.RAMSize(),
		"battery", h.HasBattery,
		"boot_rom", withBoot)

	if !d.cart.HeaderChecksumValid() {
		slog.Warn("Cartridge header checksum mismatch", "expected", fmt.Sprintf("0x%02X", h.HeaderChecksum))
	}
}

// registerControls binds the emulator actions handled by the machine itself.
func (d *DMG) registerControls() {
	d.input.On(action.EmulatorPauseToggle, event.Press, func() {
		d.paused = !d.paused
		slog.Info("Pause toggled", "paused", d.paused)
	})
	d.input.On(action.EmulatorStepFrame, event.Press, func() {
		if d.paused {
			d.stepFrame = true
		}
	})
	d.input.On(action.EmulatorSnapshot, event.Press, func() {
		name := fmt.Sprintf("%s_frame_%d", d.cart.Header().Title, d.ppu.FrameCount())
		if _, err := backend.SaveFramePNG(d.Frame(), "", name); err != nil {
			slog.Error("Failed to save snapshot", "error", err)
		}
	})
}

// Step advances every component by one tick, in a fixed order: an interrupt
// raised by the PPU or a peripheral in this tick is seen by the CPU on the
// next one.
func (d *DMG) Step() {
	if d.trace && d.cpu.Idle() && !d.cpu.IsHalted() {
		d.traceInstruction()
	}

	d.cpu.Step(d.bus)
	d.ppu.Step()
	d.timer.Step()
	d.serial.Step()
	d.ticks++
}

func (d *DMG) traceInstruction() {
	pc := d.cpu.GetPC()
	line := disasm.DisassembleAt(pc, d.bus)
	slog.Debug("exec",
		"pc", fmt.Sprintf("0x%04X", pc),
		"instr", line.Instruction,
		"a", fmt.Sprintf("0x%02X", d.cpu.GetA()),
		"flags", d.cpu.GetFlagString(),
		"sp", fmt.Sprintf("0x%04X", d.cpu.GetSP()))
}

// RunFrame runs the machine for one frame worth of ticks.
func (d *DMG) RunFrame() {
	for range TicksPerFrame {
		d.Step()
	}
}

// Run drives the machine frame by frame: emulate, present, poll input, wait.
// It returns when the backend reports a quit action or ctx is done.
func (d *DMG) Run(ctx context.Context, b backend.Backend, limiter timing.Limiter) error {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}

	for ctx.Err() == nil {
		if !d.paused || d.stepFrame {
			d.RunFrame()
			d.stepFrame = false
		}

		events, err := b.Update(d.Frame())
		if err != nil {
			return fmt.Errorf("backend update: %w", err)
		}
		for _, evt := range events {
			if evt.Action == action.EmulatorQuit {
				return nil
			}
			d.input.Trigger(evt.Action, evt.Type)
		}

		limiter.WaitForNextFrame()
	}
	return nil
}

// Frame returns the last completed frame.
func (d *DMG) Frame() *video.FrameBuffer { return d.ppu.Frame() }

func (d *DMG) CPU() *cpu.CPU                { return d.cpu }
func (d *DMG) PPU() *video.PPU              { return d.ppu }
func (d *DMG) Bus() *Bus                    { return d.bus }
func (d *DMG) Cartridge() *memory.Cartridge { return d.cart }
func (d *DMG) Input() *input.Manager        { return d.input }
func (d *DMG) Serial() *serial.LogSink      { return d.serial }
func (d *DMG) Ticks() uint64                { return d.ticks }
func (d *DMG) Paused() bool                 { return d.paused }
