package console

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"brainos/devices"
	"brainos/hal"
	"brainos/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 6

	headerRows = 3
	headerPad  = 4
)

var (
	font = &proggy.TinySZ8pt7b

	colorText   = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	colorAccent = color.RGBA{R: 0x40, G: 0xC0, B: 0xFF, A: 0xFF}
	colorRule   = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xFF}
	colorBlack  = color.RGBA{A: 0xFF}
)

// View is what the status header shows.
type View struct {
	Build    string
	Mode     hal.CompetitionMode
	Millis   uint32
	Restarts int
	Tasks    []kernel.TaskInfo
	Ports    []devices.PortInfo
}

// Console is the brain screen: a status header over a scrolling log.
// It doubles as a log sink.
type Console struct {
	mu sync.Mutex

	fb     hal.Framebuffer
	header *fbDisplay
	body   *fbDisplay
	term   *tinyterm.Terminal

	shown []string
	dirty bool
}

// New lays the console out on fb. logLines bounds the log band; 0 uses the
// rest of the screen.
func New(fb hal.Framebuffer, logLines int) *Console {
	c := &Console{fb: fb}
	top := headerRows*fontHeight + headerPad
	rest := 0
	if fb != nil {
		rest = fb.Height() - top
	}
	if logLines > 0 && logLines*fontHeight < rest {
		rest = logLines * fontHeight
	}
	c.header = newFBDisplay(fb, 0, top)
	c.body = newFBDisplay(fb, top, rest)
	c.reset()
	return c
}

func (c *Console) reset() {
	c.term = tinyterm.NewTerminal(c.body)
	c.term.Configure(&tinyterm.Config{
		Font:              font,
		FontHeight:        fontHeight,
		FontOffset:        fontOffset,
		UseSoftwareScroll: true,
	})
	if c.fb != nil {
		c.fb.ClearRGB(0, 0, 0)
	}
	c.shown = nil
	c.dirty = true
}

func (c *Console) WriteLineString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.term.Write([]byte(s + "\n"))
	c.dirty = true
}

func (c *Console) WriteLineBytes(b []byte) {
	c.WriteLineString(string(b))
}

// Clear wipes the log band.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Draw refreshes the header from v and presents the screen if anything
// changed since the last call.
func (c *Console) Draw(v View) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := headerLines(v)
	if !sameLines(lines, c.shown) {
		c.drawHeader(lines)
		c.shown = lines
		c.dirty = true
	}
	if !c.dirty {
		return nil
	}
	c.dirty = false
	return c.header.Display()
}

func (c *Console) drawHeader(lines []string) {
	w, h := c.header.Size()
	c.header.FillRectangle(0, 0, w, h, colorBlack)
	for i, line := range lines {
		col := colorText
		if i == 0 {
			col = colorAccent
		}
		tinyfont.WriteLine(c.header, font, 2, int16(i*fontHeight+fontOffset+2), line, col)
	}
	c.header.FillRectangle(0, h-1, w, 1, colorRule)
}

func headerLines(v View) []string {
	build := v.Build
	if build == "" {
		build = "dev"
	}
	status := fmt.Sprintf("brainos %s  mode=%s  up=%d.%ds  restarts=%d",
		build, v.Mode, v.Millis/1000, (v.Millis%1000)/100, v.Restarts)

	var tasks strings.Builder
	tasks.WriteString("tasks")
	for _, t := range v.Tasks {
		fmt.Fprintf(&tasks, " %d:%s", t.ID, stateTag(t.State))
	}

	var ports strings.Builder
	ports.WriteString("ports")
	if len(v.Ports) == 0 {
		ports.WriteString(" none")
	}
	for _, p := range v.Ports {
		fmt.Fprintf(&ports, " %d:%s", p.Port, p.Kind)
		if p.Kind != devices.KindADIExpander {
			continue
		}
		var bound []byte
		for i, k := range p.Lines {
			if k != devices.ADINone {
				bound = append(bound, devices.LineName(i)[0])
			}
		}
		if len(bound) > 0 {
			fmt.Fprintf(&ports, "(%s)", bound)
		}
	}
	return []string{status, tasks.String(), ports.String()}
}

func stateTag(s kernel.State) string {
	switch s.Kind {
	case kernel.StateAvailable:
		return "-"
	case kernel.StateReady:
		return "rdy"
	case kernel.StateRunning:
		return "run"
	case kernel.StateWaitUntil:
		return "slp"
	case kernel.StateAwaitWake:
		return "blk"
	}
	return "?"
}

func sameLines(a, b []string) bool {
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
