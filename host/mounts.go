package host

// Mounts tracks the surfaces attached to a host. Hosts embed it and call
// Mount once they know a surface can be drawn to.
type Mounts struct {
	surfaces []*Surface
}

// Mount marks the surface attached. Mounting twice is a no-op.
func (m *Mounts) Mount(s *Surface) {
	if s.attached {
		return
	}
	s.attached = true
	m.surfaces = append(m.surfaces, s)
}

// Unmount marks the surface detached. Unknown surfaces are ignored.
func (m *Mounts) Unmount(s *Surface) {
	for i, mounted := range m.surfaces {
		if mounted == s {
			m.surfaces = append(m.surfaces[:i], m.surfaces[i+1:]...)
			s.attached = false
			return
		}
	}
}

// Surfaces returns the currently mounted surfaces.
func (m *Mounts) Surfaces() []*Surface {
	return m.surfaces
}
