package hotkeys

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// x11Accessor is implemented by backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding maps a key sequence such as "Mod4-Mod1-1" to a command id.
type Binding struct {
	Sequence string `json:"sequence"`
	Command  string `json:"command"`
}

// Dispatcher runs a bound command. Commands without a trailing style number
// clear every toggle.
type Dispatcher func(command string)

// Handler manages global keyboard shortcuts
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	mu     sync.Mutex
	active []Binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend x11Accessor) *Handler {
	xu := backend.XUtil()
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:   xu,
		root: backend.RootWindow(),
	}
}

// Bind replaces all bindings. Bindings that fail to grab (usually because
// another program owns the key) are skipped and reported together.
func (h *Handler) Bind(bindings []Binding, dispatch Dispatcher) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	h.active = h.active[:0]

	var failed []string
	for _, b := range bindings {
		command := b.Command
		err := h.RegisterFunc(b.Sequence, func() {
			log.Printf("Hotkey %s triggered", command)
			dispatch(command)
		})
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s (%s): %v", b.Sequence, b.Command, err))
			continue
		}
		h.active = append(h.active, b)
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("failed to register hotkeys: %v", failed)
	}
	return nil
}

// Active returns the bindings that are currently grabbed.
func (h *Handler) Active() []Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Binding, len(h.active))
	copy(out, h.active)
	return out
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	// Every combination of the lock modifiers, including none.
	ignore := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
