package field

import (
	"log/slog"

	"github.com/pthm-cable/glowfield/gfx"
	"github.com/pthm-cable/glowfield/host"
)

// Component is the mount point of a field. It rebuilds the renderer when
// options that shape it change, and swallows initialization failures so the
// host keeps running with an empty backdrop.
type Component struct {
	host    host.Host
	gpu     gfx.Backend
	opts    Options
	options []Option
	logger  *slog.Logger

	renderer *Renderer
	err      error
	mounted  bool
}

// Mount creates the component and initializes its renderer.
func Mount(h host.Host, gpu gfx.Backend, opts Options, options ...Option) *Component {
	c := &Component{
		host:    h,
		gpu:     gpu,
		opts:    opts,
		options: options,
		logger:  newSettings(options).logger,
		mounted: true,
	}
	c.build()
	return c
}

func (c *Component) build() {
	r, err := New(c.host, c.gpu, c.opts, c.options...)
	if err != nil {
		c.renderer = nil
		c.err = err
		c.logger.Warn("particle field disabled", "error", err)
		return
	}
	c.renderer = r
	c.err = nil
}

// Reconfigure applies new options. A change of particle count,
// interactivity or seed tears the renderer down and builds a new one; a
// class name change only updates the surface hook.
func (c *Component) Reconfigure(opts Options) {
	if !c.mounted {
		return
	}
	if !c.opts.needsRebuild(opts) {
		c.opts.ClassName = opts.ClassName
		if c.renderer != nil {
			c.renderer.setClassName(opts.ClassName)
		}
		return
	}

	if c.renderer != nil {
		c.renderer.Teardown()
	}
	c.opts = opts
	c.build()
}

// Unmount tears the renderer down. Further calls do nothing.
func (c *Component) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false
	if c.renderer != nil {
		c.renderer.Teardown()
		c.renderer = nil
	}
}

// Renderer returns the live renderer, or nil when disabled or unmounted.
func (c *Component) Renderer() *Renderer {
	return c.renderer
}

// Enabled reports whether a renderer is drawing.
func (c *Component) Enabled() bool {
	return c.renderer != nil
}

// Err returns the last initialization failure, for diagnostics.
func (c *Component) Err() error {
	return c.err
}

// Options returns the current options.
func (c *Component) Options() Options {
	return c.opts
}
