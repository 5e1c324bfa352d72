// Package loop provides the single goroutine that owns a fiber.Scheduler.
//
// The scheduler is not safe for concurrent use. A Loop serializes all work
// onto one goroutine: other goroutines hand it closures through Post, and the
// scheduler hands it render work through RequestIdle. Posted tasks always
// run before idle callbacks, so input is never starved by rendering.
//
//	l := loop.New(loop.WithSlice(5 * time.Millisecond))
//	s := fiber.New(h, fiber.WithIdle(l))
//	go l.Run(ctx)
//
//	l.Post(func() { s.Render(app, container) })
//
// Each idle callback receives a Deadline that expires Slice after the
// callback started.
package loop
