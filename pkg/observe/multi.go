package observe

import "github.com/vango-dev/ley/pkg/fiber"

type multi []fiber.Observer

// Multi returns an Observer that forwards every event to each of obs in
// order. nil entries are skipped.
func Multi(obs ...fiber.Observer) fiber.Observer {
	m := make(multi, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multi) PassStarted(root *fiber.Fiber, sync bool) {
	for _, o := range m {
		o.PassStarted(root, sync)
	}
}

func (m multi) Yielded() {
	for _, o := range m {
		o.Yielded()
	}
}

func (m multi) Redirected(reason string) {
	for _, o := range m {
		o.Redirected(reason)
	}
}

func (m multi) Queued() {
	for _, o := range m {
		o.Queued()
	}
}

func (m multi) Committed(st fiber.PassStats) {
	for _, o := range m {
		o.Committed(st)
	}
}

func (m multi) Failed(err error) {
	for _, o := range m {
		o.Failed(err)
	}
}

func (m multi) EffectRan(layout bool) {
	for _, o := range m {
		o.EffectRan(layout)
	}
}
