// Package script lets a side's actions be decided by a JavaScript function.
//
// A script defines
//
//	function choose(self, enemy) { return "attack" }
//
// where self and enemy describe the active monsters and the result is one
// of "attack", "swap" or "special".
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/monster"
)

const DefaultTimeout = 100 * time.Millisecond

var ErrNoChooseFunc = errors.New("script does not define choose(self, enemy)")

type Options struct {
	Name     string         // used in logs
	Timeout  time.Duration  // per call; DefaultTimeout when zero
	Fallback battle.Chooser // battle.DefaultChooser when nil
	Logger   *slog.Logger
}

// Chooser runs choose() in a sandboxed runtime. Calls are serialized, so
// one Chooser may be shared between sessions.
type Chooser struct {
	mu       sync.Mutex
	rt       *goja.Runtime
	fn       goja.Callable
	name     string
	timeout  time.Duration
	fallback battle.Chooser
	logger   *slog.Logger
}

// New compiles src and looks up its choose function.
func New(src string, opts Options) (*Chooser, error) {
	c := &Chooser{
		rt:       goja.New(),
		name:     opts.Name,
		timeout:  opts.Timeout,
		fallback: opts.Fallback,
		logger:   opts.Logger,
	}
	if c.name == "" {
		c.name = "inline"
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.fallback == nil {
		c.fallback = battle.DefaultChooser
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("script", c.name)
	c.sandbox()

	if err := c.withTimeout(func() error {
		_, err := c.rt.RunString(src)
		return err
	}); err != nil {
		return nil, fmt.Errorf("script %s: %w", c.name, err)
	}
	fn, ok := goja.AssertFunction(c.rt.Get("choose"))
	if !ok {
		return nil, fmt.Errorf("script %s: %w", c.name, ErrNoChooseFunc)
	}
	c.fn = fn
	return c, nil
}

// Load reads a script file.
func Load(path string, opts Options) (*Chooser, error) {
	src, err := os.ReadFile(filepath.Clean(path)) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = filepath.Base(path)
	}
	return New(string(src), opts)
}

func (c *Chooser) sandbox() {
	c.rt.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		c.logger.Debug("script log", "msg", strings.Join(parts, " "))
		return goja.Undefined()
	})
	for _, name := range []string{"require", "eval", "Function"} {
		c.rt.Set(name, goja.Undefined())
	}
}

// ChooseAction calls choose(self, enemy). Errors, timeouts and unknown
// answers are logged and the fallback chooser decides instead.
func (c *Chooser) ChooseAction(self, enemy *monster.Monster) battle.Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out goja.Value
	err := c.withTimeout(func() error {
		var err error
		out, err = c.fn(goja.Undefined(), c.rt.ToValue(view(self)), c.rt.ToValue(view(enemy)))
		return err
	})
	if err == nil {
		var act battle.Action
		act, err = battle.ParseAction(out.String())
		if err == nil {
			return act
		}
	}
	c.logger.Warn("script choice failed, using fallback", "err", err)
	return c.fallback.ChooseAction(self, enemy)
}

func (c *Chooser) withTimeout(fn func() error) error {
	timer := time.AfterFunc(c.timeout, func() { c.rt.Interrupt("script execution timeout") })
	defer func() {
		timer.Stop()
		c.rt.ClearInterrupt()
	}()
	return fn()
}

func view(m *monster.Monster) map[string]any {
	st := m.Stats()
	return map[string]any{
		"name":       m.Name(),
		"element":    m.Element(),
		"level":      m.Level(),
		"hp":         m.HP(),
		"max_hp":     st.MaxHP,
		"attack":     st.Attack,
		"defense":    st.Defense,
		"speed":      st.Speed,
		"can_evolve": m.Species().EvolvesTo() != nil,
	}
}
