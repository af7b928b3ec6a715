package terminal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend"
	"github.com/valerio/go-dotmatrix/dotmatrix/input"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/action"
	"github.com/valerio/go-dotmatrix/dotmatrix/input/event"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// two pixel rows per terminal row, plus the title row
	minTermWidth  = width
	minTermHeight = height/2 + 1

	logPanelX    = width + 2
	logCapacity  = 200
	keyTimeout   = 100 * time.Millisecond
	defaultTitle = "dotmatrix"
)

// Backend draws frames in a terminal with tcell, two pixels per cell using
// upper half blocks. Terminals report no key releases, so a console button
// counts as held until keyTimeout passes without a repeat.
type Backend struct {
	screen    tcell.Screen
	config    backend.BackendConfig
	logBuffer *LogBuffer
	logLevel  slog.Level
	prevLog   *slog.Logger

	eventQueue []backend.InputEvent
	keyStates  map[action.Action]time.Time // last press of each held console button
	activeKeys map[action.Action]bool      // buttons reported held on the previous update

	now func() time.Time
}

// New creates a terminal backend. Logs at logLevel and above are captured
// and shown beside the game while the backend runs.
func New(logLevel slog.Level) *Backend {
	return NewWithScreen(nil, logLevel)
}

// NewWithScreen uses an existing screen, e.g. a tcell simulation screen.
func NewWithScreen(screen tcell.Screen, logLevel slog.Level) *Backend {
	return &Backend{
		screen:     screen,
		logLevel:   logLevel,
		logBuffer:  NewLogBuffer(logCapacity),
		keyStates:  make(map[action.Action]time.Time),
		activeKeys: make(map[action.Action]bool),
		now:        time.Now,
	}
}

func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	if t.config.Title == "" {
		t.config.Title = defaultTitle
	}

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// the screen owns stdout/stderr from here on
	t.prevLog = slog.Default()
	slog.SetDefault(slog.New(NewLogBufferHandler(t.logBuffer, t.logLevel)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()
	slog.Info("Terminal backend initialized")
	return nil
}

// Update renders a frame and processes events
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.buttonEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	t.render(frame)
	t.screen.Show()
	return events, nil
}

// buttonEvents turns the held-key timestamps into Press/Hold/Release edges.
func (t *Backend) buttonEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	active := make(map[action.Action]bool)

	for act, pressed := range t.keyStates {
		if now.Sub(pressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		active[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}
	for act := range t.activeKeys {
		if !active[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = active
	return events
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	if t.prevLog != nil {
		slog.SetDefault(t.prevLog)
	}
	return nil
}

// Logs returns the captured log buffer.
func (t *Backend) Logs() *LogBuffer { return t.logBuffer }

// tcellKeyNames converts tcell keys to the names used by input.DefaultKeyMap.
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyTab:    "Select",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF9:     "F9",
}

func keyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "Space"
		}
		return string(ev.Rune())
	}
	return tcellKeyNames[ev.Key()]
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyCtrlC {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
		return
	}

	act, ok := input.GetDefaultMapping(keyName(ev))
	if !ok {
		return
	}
	if !act.IsGameboy() {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		return
	}

	// a new direction replaces the held one, terminals can't report both
	if act >= action.GBDPadUp && act <= action.GBDPadRight {
		for dir := action.GBDPadUp; dir <= action.GBDPadRight; dir++ {
			delete(t.keyStates, dir)
		}
	}
	t.keyStates[act] = now
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	t.drawText(1, 0, width, " "+t.config.Title+" ", tcell.StyleDefault.Foreground(tcell.ColorYellow))
	t.drawFrame(frame)
	t.drawLogs(logPanelX, 1, termWidth-logPanelX, termHeight-1)
}

func (t *Backend) drawFrame(frame *video.FrameBuffer) {
	for y := 0; y < height; y += 2 {
		for x := range width {
			top := pixelColor(frame.GetPixel(uint(x), uint(y)))
			bottom := pixelColor(frame.GetPixel(uint(x), uint(y+1)))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			t.screen.SetContent(x, y/2+1, '▀', nil, style)
		}
	}
}

// pixelColor converts a 0xAARRGGBB pixel to a true color cell color.
func pixelColor(pixel uint32) tcell.Color {
	return tcell.NewRGBColor(int32(pixel>>16&0xFF), int32(pixel>>8&0xFF), int32(pixel&0xFF))
}

func (t *Backend) drawLogs(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}
	for i, entry := range t.logBuffer.GetRecent(h) {
		t.drawText(x, y+i, w, FormatLogEntry(entry), styles[entry.Level])
	}
}

func (t *Backend) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= maxWidth {
			return
		}
		t.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}
