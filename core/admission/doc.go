// Package admission bounds how many connections a server handles at once.
//
// A Controller hands out Permits up to a fixed capacity. Acquire parks the
// caller until a slot frees up, so a saturated server stops accepting and
// leaves new peers waiting in the kernel backlog.
//
//	ctl, err := admission.New(1000)
//	if err != nil {
//		return err
//	}
//
//	permit, err := ctl.Acquire(ctx)
//	if err != nil {
//		return err // ctx done or admission.ErrShuttingDown
//	}
//	defer permit.Release()
//
// Release is idempotent, so it can be deferred and also called early.
package admission
