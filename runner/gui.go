package runner

import (
	"image"
	"image/draw"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/nic/intcode"
)

// GUI is a window showing the memory of a running machine.
type GUI struct {
	Log *zap.Logger

	frames chan intcode.Snapshot
}

func NewGUI(log *zap.Logger) *GUI {
	if log == nil {
		log = zap.NewNop()
	}
	return &GUI{Log: log, frames: make(chan intcode.Snapshot, 1)}
}

// Update hands a new snapshot to the window. It never blocks; if the
// window has not drawn the previous snapshot yet, that one is dropped.
func (g *GUI) Update(s intcode.Snapshot) {
	select {
	case <-g.frames:
	default:
	}
	select {
	case g.frames <- s:
	default:
	}
}

// StateFunc returns a StateFunc that updates the window.
func (g *GUI) StateFunc() StateFunc {
	return func(s intcode.Snapshot, _ StateKind) { g.Update(s) }
}

// Run opens the window and draws updates until exit is closed or the
// window is closed. It must be called from the main goroutine.
func (g *GUI) Run(exit <-chan struct{}) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{Title: "nic"})
		if err != nil {
			runErr = err
			return
		}
		defer w.Release()

		type update struct{}
		go func() {
			t := time.NewTicker(time.Second / 30)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-exit:
					return
				}
			}
		}()

		var (
			sz   size.Event
			buf  screen.Buffer
			tex  screen.Texture
			last intcode.Snapshot
		)
		defer func() {
			if tex != nil {
				tex.Release()
			}
			if buf != nil {
				buf.Release()
			}
		}()
		publish := func() {
			if tex == nil {
				return
			}
			w.Fill(sz.Bounds(), bgColor, draw.Src)
			w.Scale(fit(sz.Bounds(), tex.Size()), tex, tex.Bounds(), draw.Src, nil)
			w.Publish()
		}

		for {
			select {
			case <-exit:
				return
			default:
			}

			switch e := w.NextEvent().(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case key.Event:
				if e.Code == key.CodeEscape && e.Direction == key.DirPress {
					return
				}

			case paint.Event:
				publish()

			case update:
				select {
				case last = <-g.frames:
				default:
					continue
				}
				vs := ViewSize(len(last.Cells))
				if tex == nil || tex.Size() != vs {
					if tex != nil {
						tex.Release()
						buf.Release()
					}
					if buf, err = s.NewBuffer(vs); err != nil {
						runErr = err
						return
					}
					if tex, err = s.NewTexture(vs); err != nil {
						runErr = err
						return
					}
				}
				Render(buf.RGBA(), last)
				tex.Upload(image.Point{}, buf, buf.Bounds())
				publish()

			case error:
				g.Log.Warn("gui", zap.Error(e))
			}
		}
	})
	return runErr
}

// fit returns the largest rectangle within r with the aspect ratio of sz,
// centred in r.
func fit(r image.Rectangle, sz image.Point) image.Rectangle {
	if sz.X == 0 || sz.Y == 0 || r.Empty() {
		return r
	}
	w, h := r.Dx(), r.Dx()*sz.Y/sz.X
	if h > r.Dy() {
		w, h = r.Dy()*sz.X/sz.Y, r.Dy()
	}
	min := r.Min.Add(image.Point{(r.Dx() - w) / 2, (r.Dy() - h) / 2})
	return image.Rectangle{min, min.Add(image.Point{w, h})}
}
